// Package wavrecorder records microphone audio through a native capture
// Backend and returns it as a complete in-memory WAV buffer.
package wavrecorder

import (
	"context"
	"fmt"
	"sync"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/findusl/wav-recorder/pkg/wav"
	"github.com/findusl/wav-recorder/pkg/wavrecorder/eventsink"
	"github.com/findusl/wav-recorder/pkg/wavrecorder/types"
	"github.com/hashicorp/go-multierror"
)

// Recorder is a recording session over one Backend, which it owns.
//
// States: Idle -> Recording -> Idle, and Closed from anywhere.
type Recorder struct {
	Backend Backend
	Config  Config

	locker    sync.Mutex
	state     State
	format    Format
	formatErr error
	eventSink EventSink
	handle    *onceCaptureHandle
	loop      *captureLoop
}

// NewRecorder negotiates the device once; the result is fixed for the
// lifetime of the Recorder (see IsAvailable).
func NewRecorder(
	ctx context.Context,
	backend Backend,
	opts ...Option,
) *Recorder {
	r := &Recorder{
		Backend: backend,
		Config:  Options(opts).Config(),
	}
	r.eventSink = eventsink.Async(r.Config.EventSink)

	logger.Tracef(ctx, "Negotiate")
	r.format, r.formatErr = backend.Negotiate(ctx)
	logger.Debugf(ctx, "/Negotiate (%s): %s %v", backend.Kind(), r.format, r.formatErr)
	return r
}

func (r *Recorder) IsAvailable() bool {
	return r.formatErr == nil
}

// Format returns the negotiated format, if any.
func (r *Recorder) Format() (Format, bool) {
	return r.format, r.IsAvailable()
}

func (r *Recorder) State() State {
	r.locker.Lock()
	defer r.locker.Unlock()
	return r.state
}

func (r *Recorder) StartRecording(
	ctx context.Context,
) (_err error) {
	logger.Debugf(ctx, "StartRecording")
	defer func() { logger.Debugf(ctx, "/StartRecording: %v", _err) }()

	r.locker.Lock()
	defer r.locker.Unlock()

	if r.state == StateClosed {
		return ErrClosed
	}
	if !r.IsAvailable() {
		return fmt.Errorf("%w: %w", ErrUnavailable, r.formatErr)
	}
	if r.state == StateRecording {
		return ErrAlreadyRecording
	}

	handle, err := r.Backend.Open(ctx, r.format)
	if err != nil {
		if types.IsPermissionError(err) {
			return fmt.Errorf("%w: unable to open %s: %w", ErrPermission, r.format, err)
		}
		return fmt.Errorf("%w: unable to open %s: %w", ErrDevice, r.format, err)
	}

	chunkSize := r.format.ChunkSize
	if chunkSize <= 0 {
		chunkSize = r.Config.ChunkSize
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	r.handle = newOnceCaptureHandle(handle)
	r.loop = newCaptureLoop(r.handle, chunkSize, r.eventSink)
	r.state = StateRecording
	r.loop.start(ctx)
	return nil
}

// StopRecording ends the recording and returns it as a WAV buffer owned
// by the caller.
func (r *Recorder) StopRecording(
	ctx context.Context,
) (_ret []byte, _err error) {
	logger.Debugf(ctx, "StopRecording")
	defer func() { logger.Debugf(ctx, "/StopRecording: %d bytes, %v", len(_ret), _err) }()

	r.locker.Lock()
	defer r.locker.Unlock()

	switch r.state {
	case StateClosed:
		return nil, ErrClosed
	case StateIdle:
		return nil, ErrNotRecording
	}

	loop, handle := r.loop, r.handle
	r.loop, r.handle = nil, nil
	r.state = StateIdle

	pcm, joined := loop.stop(ctx, r.Config.StopTimeout)
	switch {
	case !joined:
		// the detached loop may still be inside ReadChunk; its own teardown
		// stops and releases the handle once the read returns.
		logger.Warnf(ctx, "the capture loop did not exit within %s, the last chunk may be lost", r.Config.StopTimeout)
	default:
		if err := releaseCaptureHandle(handle); err != nil {
			logger.Debugf(ctx, "unable to release the capture handle: %v", err)
		}
	}
	if err := loop.err(); err != nil {
		logger.Debugf(ctx, "the recording was terminated early: %v", err)
	}

	out, err := encodeWAV(pcm, r.format)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncoding, err)
	}
	return out, nil
}

func encodeWAV(pcm []byte, format Format) (_ret []byte, _err error) {
	defer func() {
		r := recover()
		if r != nil {
			_err = fmt.Errorf("got a panic: %v", r)
		}
	}()
	return wav.Encode(
		pcm,
		uint32(format.SampleRate),
		uint16(format.Channels),
		uint16(format.BitsPerSample()),
	)
}

func releaseCaptureHandle(handle *onceCaptureHandle) error {
	var mErr *multierror.Error
	if err := handle.Stop(); err != nil {
		mErr = multierror.Append(mErr, fmt.Errorf("unable to stop: %w", err))
	}
	if err := handle.Release(); err != nil {
		mErr = multierror.Append(mErr, fmt.Errorf("unable to release: %w", err))
	}
	return mErr.ErrorOrNil()
}

// Close tears everything down from any state. It is idempotent and
// always returns nil; teardown failures are only logged.
func (r *Recorder) Close() error {
	ctx := context.TODO()
	logger.Debugf(ctx, "Close")
	defer logger.Debugf(ctx, "/Close")

	r.locker.Lock()
	defer r.locker.Unlock()

	if r.state == StateClosed {
		return nil
	}

	var mErr *multierror.Error
	joined := true
	if r.loop != nil {
		if _, joined = r.loop.stop(ctx, r.Config.CloseTimeout); !joined {
			logger.Debugf(ctx, "the capture loop did not exit within %s, leaving the handle to it", r.Config.CloseTimeout)
		}
	}
	if r.handle != nil && joined {
		if err := releaseCaptureHandle(r.handle); err != nil {
			mErr = multierror.Append(mErr, err)
		}
	}
	if err := callSafe(r.Backend.Close); err != nil {
		mErr = multierror.Append(mErr, fmt.Errorf("unable to close the backend: %w", err))
	}
	r.loop, r.handle = nil, nil
	r.state = StateClosed

	if err := mErr.ErrorOrNil(); err != nil {
		logger.Debugf(ctx, "teardown errors: %v", err)
	}
	return nil
}
