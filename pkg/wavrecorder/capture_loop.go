package wavrecorder

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/datacounter"
	"github.com/xaionaro-go/observability"
)

type captureLoop struct {
	Handle    *onceCaptureHandle
	ChunkSize int
	EventSink EventSink

	recording  atomic.Bool
	cancelFunc context.CancelFunc
	done       chan struct{}

	bufferLocker sync.Mutex
	buffer       bytes.Buffer
	counter      *datacounter.WriterCounter
	detached     bool
	readErr      error
}

func newCaptureLoop(
	handle *onceCaptureHandle,
	chunkSize int,
	eventSink EventSink,
) *captureLoop {
	l := &captureLoop{
		Handle:    handle,
		ChunkSize: chunkSize,
		EventSink: eventSink,
		done:      make(chan struct{}),
	}
	l.counter = datacounter.NewWriterCounter(&l.buffer)
	return l
}

// start launches the loop goroutine. The loop outlives ctx cancellation
// of the caller: only stop ends it.
func (l *captureLoop) start(ctx context.Context) {
	ctx, l.cancelFunc = context.WithCancel(context.WithoutCancel(ctx))
	l.recording.Store(true)
	observability.Go(ctx, func() {
		defer close(l.done)
		l.run(ctx)
	})
}

func (l *captureLoop) run(
	ctx context.Context,
) (_ret error) {
	logger.Debugf(ctx, "captureLoop")
	defer func() { logger.Debugf(ctx, "/captureLoop: %v (captured %d bytes)", _ret, l.counter.Count()) }()
	defer l.teardown(ctx)

	chunk := make([]byte, l.ChunkSize)
	for l.recording.Load() {
		logger.Tracef(ctx, "ReadChunk")
		n, err := l.Handle.ReadChunk(ctx, chunk)
		logger.Tracef(ctx, "/ReadChunk: %d %v", n, err)
		if n > 0 {
			l.append(chunk[:n])
		}
		if err == nil {
			continue
		}
		if !l.recording.Load() {
			// interrupted by stop
			return nil
		}
		err = fmt.Errorf("%w: unable to read a chunk: %w", ErrDevice, err)
		l.bufferLocker.Lock()
		l.readErr = err
		l.bufferLocker.Unlock()
		l.EventSink.OnRecordingError(ctx, err)
		return err
	}
	return nil
}

func (l *captureLoop) append(p []byte) {
	l.bufferLocker.Lock()
	defer l.bufferLocker.Unlock()
	if l.detached {
		return
	}
	l.counter.Write(p)
}

func (l *captureLoop) teardown(ctx context.Context) {
	if err := l.Handle.Stop(); err != nil {
		logger.Debugf(ctx, "unable to stop the capture: %v", err)
	}
	if err := l.Handle.Release(); err != nil {
		logger.Debugf(ctx, "unable to release the capture: %v", err)
	}
}

// stop clears the recording flag and waits up to timeout for the loop to
// exit. If it does not, the loop context is cancelled and the loop is
// detached: chunks it appends later are dropped. Either way the returned
// PCM is everything appended before stop returned.
func (l *captureLoop) stop(
	ctx context.Context,
	timeout time.Duration,
) (_pcm []byte, _joined bool) {
	logger.Tracef(ctx, "captureLoop.stop")
	defer func() { logger.Tracef(ctx, "/captureLoop.stop: %d bytes, joined:%v", len(_pcm), _joined) }()

	l.recording.Store(false)
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-l.done:
		_joined = true
	case <-timer.C:
	}
	l.cancelFunc()

	l.bufferLocker.Lock()
	defer l.bufferLocker.Unlock()
	l.detached = true
	return l.buffer.Bytes(), _joined
}

func (l *captureLoop) err() error {
	l.bufferLocker.Lock()
	defer l.bufferLocker.Unlock()
	return l.readErr
}
