package wavrecorder

import (
	"context"
	"fmt"
	"sync"
)

// onceCaptureHandle makes Stop and Release idempotent and panic-safe:
// both the capture loop and the Recorder tear the same handle down.
type onceCaptureHandle struct {
	CaptureHandle

	stopOnce    sync.Once
	stopErr     error
	releaseOnce sync.Once
	releaseErr  error
}

func newOnceCaptureHandle(handle CaptureHandle) *onceCaptureHandle {
	return &onceCaptureHandle{
		CaptureHandle: handle,
	}
}

func (h *onceCaptureHandle) ReadChunk(ctx context.Context, p []byte) (int, error) {
	return h.CaptureHandle.ReadChunk(ctx, p)
}

func (h *onceCaptureHandle) Stop() error {
	h.stopOnce.Do(func() {
		h.stopErr = callSafe(h.CaptureHandle.Stop)
	})
	return h.stopErr
}

func (h *onceCaptureHandle) Release() error {
	h.releaseOnce.Do(func() {
		h.releaseErr = callSafe(h.CaptureHandle.Release)
	})
	return h.releaseErr
}

func callSafe(fn func() error) (_err error) {
	defer func() {
		r := recover()
		if r != nil {
			_err = fmt.Errorf("got a panic: %v", r)
		}
	}()
	return fn()
}
