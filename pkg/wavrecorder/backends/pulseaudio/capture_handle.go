package pulseaudio

import (
	"context"
	"fmt"
	"time"

	"github.com/findusl/wav-recorder/pkg/wavrecorder/chunkqueue"
	"github.com/findusl/wav-recorder/pkg/wavrecorder/types"
	"github.com/jfreymuth/pulse"
)

type CaptureHandle struct {
	RecordStream *pulse.RecordStream
	Queue        *chunkqueue.Queue
	ReadTimeout  time.Duration
}

var _ types.CaptureHandle = (*CaptureHandle)(nil)

func newCaptureHandle(
	stream *pulse.RecordStream,
	queue *chunkqueue.Queue,
	readTimeout time.Duration,
) *CaptureHandle {
	return &CaptureHandle{
		RecordStream: stream,
		Queue:        queue,
		ReadTimeout:  readTimeout,
	}
}

func (h *CaptureHandle) ReadChunk(
	ctx context.Context,
	p []byte,
) (int, error) {
	if err := h.RecordStream.Error(); err != nil {
		return 0, fmt.Errorf("an error occurred during recording: %w", err)
	}
	return h.Queue.Read(ctx, p, h.ReadTimeout)
}

func (h *CaptureHandle) Stop() error {
	h.RecordStream.Stop()
	return h.RecordStream.Error()
}

func (h *CaptureHandle) Release() error {
	h.RecordStream.Close()
	return h.Queue.Close()
}
