package pulseaudio

import (
	"context"

	"github.com/findusl/wav-recorder/pkg/wavrecorder/registry"
	"github.com/findusl/wav-recorder/pkg/wavrecorder/types"
)

const (
	Priority = 100
)

func init() {
	registry.RegisterBackendFactory(Priority, BackendFactory{})
}

type BackendFactory struct{}

func (BackendFactory) NewBackend(_ context.Context, eventSink types.EventSink) (types.Backend, error) {
	return New(eventSink), nil
}
