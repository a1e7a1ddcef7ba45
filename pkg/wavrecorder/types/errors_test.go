package types

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsPermissionError(t *testing.T) {
	for _, tc := range []struct {
		err    error
		expect bool
	}{
		{nil, false},
		{errors.New("device busy"), false},
		{os.ErrPermission, true},
		{fmt.Errorf("open: %w", os.ErrPermission), true},
		{fmt.Errorf("%w: mic", ErrPermission), true},
		{errors.New("Access DENIED by policy"), true},
		{errors.New("app is not authorized to use the microphone"), true},
	} {
		t.Run(fmt.Sprint(tc.err), func(t *testing.T) {
			require.Equal(t, tc.expect, IsPermissionError(tc.err))
		})
	}
}

func TestFormat(t *testing.T) {
	f := Format{SampleRate: 44100, Channels: 1, PCMFormat: PCMFormatS16LE}
	require.Equal(t, uint(16), f.BitsPerSample())
	require.Equal(t, uint(88200), f.BytesPerSecond())
	require.Equal(t, "s16le", PCMFormatS16LE.String())
	require.Equal(t, "desktop-mixer", BackendKindDesktopMixer.String())
}
