package pulseaudio

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/findusl/wav-recorder/pkg/wavrecorder/chunkqueue"
	"github.com/findusl/wav-recorder/pkg/wavrecorder/eventsink"
	"github.com/findusl/wav-recorder/pkg/wavrecorder/types"
	"github.com/jfreymuth/pulse"
	"github.com/jfreymuth/pulse/proto"
	"github.com/stretchr/testify/require"
)

func TestNegotiateFailureIsReported(t *testing.T) {
	reported := make(chan error, 2)
	b := New(eventsink.Funcs{
		InitFailure: func(ctx context.Context, err error) {
			reported <- err
		},
	})
	errNoServer := errors.New("connection refused")
	var attempts int
	b.newClient = func() (*pulse.Client, error) {
		attempts++
		return nil, errNoServer
	}

	for i := 0; i < 2; i++ {
		_, err := b.Negotiate(context.Background())
		require.ErrorIs(t, err, types.ErrUnavailable)
		require.ErrorIs(t, err, errNoServer)
	}
	require.Equal(t, 1, attempts)

	select {
	case err := <-reported:
		require.ErrorIs(t, err, errNoServer)
	case <-time.After(5 * time.Second):
		t.Fatal("the init failure was not reported")
	}
	select {
	case err := <-reported:
		t.Fatalf("reported twice: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	_, err := b.Open(context.Background(), types.Format{})
	require.ErrorIs(t, err, types.ErrUnavailable)
	require.NoError(t, b.Close())
}

func TestPulseWriter(t *testing.T) {
	queue := chunkqueue.New()
	w := newPulseWriter(queue)
	require.Equal(t, byte(proto.FormatInt16LE), w.Format())

	n, err := w.Write([]byte{1, 2, 3, 4})
	require.NoError(t, err)
	require.Equal(t, 4, n)

	buf := make([]byte, 8)
	n, err = queue.Read(context.Background(), buf, time.Second)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3, 4}, buf[:n])
}

func TestKind(t *testing.T) {
	require.Equal(t, types.BackendKindDesktopFixedFormat, New(nil).Kind())
}
