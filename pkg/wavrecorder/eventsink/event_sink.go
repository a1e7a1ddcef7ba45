package eventsink

import (
	"context"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/findusl/wav-recorder/pkg/wavrecorder/types"
	"github.com/xaionaro-go/observability"
)

// AsyncSink dispatches every notification on its own goroutine, so the
// notifying side never waits for the wrapped sink.
type AsyncSink struct {
	Sink types.EventSink
}

var _ types.EventSink = (*AsyncSink)(nil)

// Async wraps sink; a nil sink yields a sink discarding everything.
func Async(sink types.EventSink) types.EventSink {
	switch sink := sink.(type) {
	case nil:
		return Nop{}
	case *AsyncSink, Nop:
		return sink
	}
	return &AsyncSink{Sink: sink}
}

func (s *AsyncSink) OnInitFailure(ctx context.Context, err error) {
	observability.Go(ctx, func() {
		s.Sink.OnInitFailure(ctx, err)
	})
}

func (s *AsyncSink) OnRecordingError(ctx context.Context, err error) {
	observability.Go(ctx, func() {
		s.Sink.OnRecordingError(ctx, err)
	})
}

type Nop struct{}

var _ types.EventSink = Nop{}

func (Nop) OnInitFailure(context.Context, error)    {}
func (Nop) OnRecordingError(context.Context, error) {}

// Logger reports events to the logger carried by the context.
type Logger struct{}

var _ types.EventSink = Logger{}

func (Logger) OnInitFailure(ctx context.Context, err error) {
	logger.Warnf(ctx, "unable to initialize the capture backend: %v", err)
}

func (Logger) OnRecordingError(ctx context.Context, err error) {
	logger.Errorf(ctx, "recording failed: %v", err)
}

// Funcs adapts plain functions; nil fields are ignored.
type Funcs struct {
	InitFailure    func(ctx context.Context, err error)
	RecordingError func(ctx context.Context, err error)
}

var _ types.EventSink = Funcs{}

func (f Funcs) OnInitFailure(ctx context.Context, err error) {
	if f.InitFailure != nil {
		f.InitFailure(ctx, err)
	}
}

func (f Funcs) OnRecordingError(ctx context.Context, err error) {
	if f.RecordingError != nil {
		f.RecordingError(ctx, err)
	}
}
