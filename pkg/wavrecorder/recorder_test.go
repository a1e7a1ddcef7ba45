package wavrecorder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/findusl/wav-recorder/pkg/wav"
	"github.com/findusl/wav-recorder/pkg/wavrecorder/eventsink"
	"github.com/stretchr/testify/require"
)

type fakeHandle struct {
	chunks   chan []byte
	readErrs chan error
	hang     chan struct{}
	stopErr  error

	hanging atomic.Bool
	hung    atomic.Bool

	delivered atomic.Int32
	stopped   atomic.Int32
	released  atomic.Int32
}

func newFakeHandle() *fakeHandle {
	return &fakeHandle{
		chunks:   make(chan []byte, 16),
		readErrs: make(chan error, 1),
		hang:     make(chan struct{}),
	}
}

func (h *fakeHandle) ReadChunk(ctx context.Context, p []byte) (int, error) {
	if h.hanging.Load() {
		h.hung.Store(true)
		<-h.hang
		return 0, nil
	}
	select {
	case chunk := <-h.chunks:
		n := copy(p, chunk)
		h.delivered.Add(1)
		return n, nil
	case err := <-h.readErrs:
		return 0, err
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-time.After(5 * time.Millisecond):
		return 0, nil
	}
}

func (h *fakeHandle) Stop() error {
	h.stopped.Add(1)
	return h.stopErr
}

func (h *fakeHandle) Release() error {
	h.released.Add(1)
	return nil
}

type fakeBackend struct {
	format       Format
	negotiateErr error
	openErr      error
	closeErr     error

	handle    *fakeHandle
	openCount atomic.Int32
	closed    atomic.Int32
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		format: Format{
			SampleRate: 44100,
			Channels:   1,
			PCMFormat:  PCMFormatS16LE,
			ChunkSize:  1024,
			DeviceName: "fake",
		},
		handle: newFakeHandle(),
	}
}

func (b *fakeBackend) Kind() BackendKind {
	return BackendKindDesktopMixer
}

func (b *fakeBackend) Negotiate(context.Context) (Format, error) {
	if b.negotiateErr != nil {
		return Format{}, b.negotiateErr
	}
	return b.format, nil
}

func (b *fakeBackend) Open(context.Context, Format) (CaptureHandle, error) {
	b.openCount.Add(1)
	if b.openErr != nil {
		return nil, b.openErr
	}
	return b.handle, nil
}

func (b *fakeBackend) Close() error {
	b.closed.Add(1)
	return b.closeErr
}

func waitDelivered(t *testing.T, h *fakeHandle, count int32) {
	require.Eventually(t, func() bool {
		return h.delivered.Load() == count
	}, 5*time.Second, time.Millisecond)
}

func TestRecorderEndToEnd(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	r := NewRecorder(ctx, backend)
	defer r.Close()
	require.True(t, r.IsAvailable())

	require.NoError(t, r.StartRecording(ctx))
	require.Equal(t, StateRecording, r.State())

	chunk0 := bytes.Repeat([]byte{0x11}, 1024)
	chunk1 := bytes.Repeat([]byte{0x22}, 1024)
	backend.handle.chunks <- chunk0
	backend.handle.chunks <- chunk1
	waitDelivered(t, backend.handle, 2)

	out, err := r.StopRecording(ctx)
	require.NoError(t, err)
	require.Equal(t, StateIdle, r.State())
	require.Len(t, out, wav.HeaderSize+2048)

	h, err := wav.ParseHeader(out)
	require.NoError(t, err)
	require.Equal(t, uint32(36+2048), h.ChunkSize)
	require.Equal(t, uint32(2048), h.DataSize)
	require.Equal(t, uint32(44100), h.SampleRate)
	require.Equal(t, uint16(1), h.Channels)
	require.Equal(t, uint16(16), h.BitsPerSample)
	require.Equal(t, append(append([]byte{}, chunk0...), chunk1...), out[wav.HeaderSize:])

	require.Equal(t, int32(1), backend.handle.stopped.Load())
	require.Equal(t, int32(1), backend.handle.released.Load())
}

func TestRecorderStopBeforeStart(t *testing.T) {
	ctx := context.Background()
	r := NewRecorder(ctx, newFakeBackend())
	defer r.Close()

	_, err := r.StopRecording(ctx)
	require.ErrorIs(t, err, ErrNotRecording)
}

func TestRecorderStartTwice(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	r := NewRecorder(ctx, backend)
	defer r.Close()

	require.NoError(t, r.StartRecording(ctx))
	backend.handle.chunks <- []byte{1, 2}
	waitDelivered(t, backend.handle, 1)

	require.ErrorIs(t, r.StartRecording(ctx), ErrAlreadyRecording)
	require.Equal(t, int32(1), backend.openCount.Load())
	require.Equal(t, StateRecording, r.State())

	backend.handle.chunks <- []byte{3, 4}
	waitDelivered(t, backend.handle, 2)

	out, err := r.StopRecording(ctx)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3, 4}, out[wav.HeaderSize:])
}

func TestRecorderRestart(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	r := NewRecorder(ctx, backend)
	defer r.Close()

	require.NoError(t, r.StartRecording(ctx))
	backend.handle.chunks <- []byte{1, 2}
	waitDelivered(t, backend.handle, 1)
	out, err := r.StopRecording(ctx)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2}, out[wav.HeaderSize:])

	backend.handle = newFakeHandle()
	require.NoError(t, r.StartRecording(ctx))
	backend.handle.chunks <- []byte{5, 6}
	waitDelivered(t, backend.handle, 1)
	out, err = r.StopRecording(ctx)
	require.NoError(t, err)
	require.Equal(t, []byte{5, 6}, out[wav.HeaderSize:])
}

func TestRecorderEmptyRecording(t *testing.T) {
	ctx := context.Background()
	r := NewRecorder(ctx, newFakeBackend())
	defer r.Close()

	require.NoError(t, r.StartRecording(ctx))
	out, err := r.StopRecording(ctx)
	require.NoError(t, err)
	require.Len(t, out, wav.HeaderSize)
}

func TestRecorderUnavailable(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	backend.negotiateErr = fmt.Errorf("%w: no mixers", ErrUnavailable)
	r := NewRecorder(ctx, backend)
	defer r.Close()

	require.False(t, r.IsAvailable())
	_, ok := r.Format()
	require.False(t, ok)
	for i := 0; i < 2; i++ {
		require.ErrorIs(t, r.StartRecording(ctx), ErrUnavailable)
	}
	require.Zero(t, backend.openCount.Load())
	require.Equal(t, StateIdle, r.State())
}

func TestRecorderDummyBackend(t *testing.T) {
	ctx := context.Background()
	r := NewRecorder(ctx, BackendDummy{})
	require.False(t, r.IsAvailable())
	require.ErrorIs(t, r.StartRecording(ctx), ErrUnavailable)
	require.NoError(t, r.Close())
}

func TestRecorderPermissionDenied(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	backend.openErr = fmt.Errorf("unable to open the microphone: %w", os.ErrPermission)
	r := NewRecorder(ctx, backend)
	defer r.Close()

	err := r.StartRecording(ctx)
	require.ErrorIs(t, err, ErrPermission)
	require.NotErrorIs(t, err, ErrDevice)
	require.Equal(t, StateIdle, r.State())

	backend.openErr = nil
	require.NoError(t, r.StartRecording(ctx))
}

func TestRecorderDeviceError(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	errBusy := errors.New("device busy")
	backend.openErr = errBusy
	r := NewRecorder(ctx, backend)
	defer r.Close()

	err := r.StartRecording(ctx)
	require.ErrorIs(t, err, ErrDevice)
	require.ErrorIs(t, err, errBusy)
	require.NotErrorIs(t, err, ErrPermission)
	require.Equal(t, StateIdle, r.State())
}

func TestRecorderReadError(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	reported := make(chan error, 1)
	r := NewRecorder(ctx, backend, OptionEventSink(eventsink.Funcs{
		RecordingError: func(ctx context.Context, err error) {
			reported <- err
		},
	}))
	defer r.Close()

	require.NoError(t, r.StartRecording(ctx))
	backend.handle.chunks <- []byte{9, 8}
	waitDelivered(t, backend.handle, 1)
	errIO := errors.New("I/O error")
	backend.handle.readErrs <- errIO

	select {
	case err := <-reported:
		require.ErrorIs(t, err, ErrDevice)
		require.ErrorIs(t, err, errIO)
	case <-time.After(5 * time.Second):
		t.Fatal("the read error was not reported")
	}
	require.Eventually(t, func() bool {
		return backend.handle.stopped.Load() == 1 && backend.handle.released.Load() == 1
	}, 5*time.Second, time.Millisecond)

	out, err := r.StopRecording(ctx)
	require.NoError(t, err)
	require.Equal(t, []byte{9, 8}, out[wav.HeaderSize:])
}

func TestRecorderStopTimeoutHangingRead(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	r := NewRecorder(ctx, backend, OptionStopTimeout(20*time.Millisecond))
	defer r.Close()

	require.NoError(t, r.StartRecording(ctx))
	backend.handle.chunks <- []byte{1, 2, 3}
	waitDelivered(t, backend.handle, 1)
	backend.handle.hanging.Store(true)
	require.Eventually(t, backend.handle.hung.Load, 5*time.Second, time.Millisecond)

	startTS := time.Now()
	out, err := r.StopRecording(ctx)
	require.NoError(t, err)
	require.Less(t, time.Since(startTS), 5*time.Second)
	require.Equal(t, []byte{1, 2, 3}, out[wav.HeaderSize:])
	require.Equal(t, StateIdle, r.State())
	require.Zero(t, backend.handle.released.Load())

	close(backend.handle.hang)
	require.Eventually(t, func() bool {
		return backend.handle.released.Load() == 1
	}, 5*time.Second, time.Millisecond)
	require.Equal(t, int32(1), backend.handle.stopped.Load())
}

func TestRecorderEncodingFailure(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	backend.format.Channels = 65535
	r := NewRecorder(ctx, backend)
	defer r.Close()

	require.NoError(t, r.StartRecording(ctx))
	backend.handle.chunks <- []byte{1, 2}
	waitDelivered(t, backend.handle, 1)

	out, err := r.StopRecording(ctx)
	require.ErrorIs(t, err, ErrEncoding)
	require.Nil(t, out)
	require.Equal(t, StateIdle, r.State())
}

func TestRecorderCancelledStartContext(t *testing.T) {
	backend := newFakeBackend()
	r := NewRecorder(context.Background(), backend)
	defer r.Close()

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, r.StartRecording(ctx))
	cancel()

	backend.handle.chunks <- []byte{4, 2}
	waitDelivered(t, backend.handle, 1)
	out, err := r.StopRecording(context.Background())
	require.NoError(t, err)
	require.Equal(t, []byte{4, 2}, out[wav.HeaderSize:])
}

func TestRecorderCloseFromEveryState(t *testing.T) {
	ctx := context.Background()

	t.Run("idle", func(t *testing.T) {
		backend := newFakeBackend()
		r := NewRecorder(ctx, backend)
		require.NoError(t, r.Close())
		require.Equal(t, StateClosed, r.State())
		require.NoError(t, r.Close())
		require.Equal(t, int32(1), backend.closed.Load())
	})

	t.Run("recording", func(t *testing.T) {
		backend := newFakeBackend()
		backend.handle.stopErr = errors.New("unable to stop")
		backend.closeErr = errors.New("unable to close")
		r := NewRecorder(ctx, backend)
		require.NoError(t, r.StartRecording(ctx))
		require.NoError(t, r.Close())
		require.Equal(t, StateClosed, r.State())
		require.Equal(t, int32(1), backend.handle.stopped.Load())
		require.Equal(t, int32(1), backend.handle.released.Load())
		require.Equal(t, int32(1), backend.closed.Load())
		require.NoError(t, r.Close())
	})

	t.Run("unavailable", func(t *testing.T) {
		backend := newFakeBackend()
		backend.negotiateErr = ErrUnavailable
		r := NewRecorder(ctx, backend)
		require.NoError(t, r.Close())
		require.NoError(t, r.Close())
		require.Equal(t, StateClosed, r.State())
	})
}

func TestRecorderAfterClose(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	r := NewRecorder(ctx, backend)
	require.NoError(t, r.Close())

	require.ErrorIs(t, r.StartRecording(ctx), ErrClosed)
	_, err := r.StopRecording(ctx)
	require.ErrorIs(t, err, ErrClosed)
	require.Zero(t, backend.openCount.Load())
}

type panickingHandle struct {
	*fakeHandle
}

func (panickingHandle) Release() error {
	panic("double free")
}

func TestRecorderCloseSurvivesPanickingTeardown(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	r := NewRecorder(ctx, &panickingBackend{fakeBackend: backend})
	require.NoError(t, r.StartRecording(ctx))
	require.NoError(t, r.Close())
	require.Equal(t, StateClosed, r.State())
	require.Equal(t, int32(1), backend.closed.Load())
}

type panickingBackend struct {
	*fakeBackend
}

func (b *panickingBackend) Open(ctx context.Context, format Format) (CaptureHandle, error) {
	handle, err := b.fakeBackend.Open(ctx, format)
	if err != nil {
		return nil, err
	}
	return panickingHandle{fakeHandle: handle.(*fakeHandle)}, nil
}
