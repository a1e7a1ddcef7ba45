package portaudio

import (
	"context"

	"github.com/findusl/wav-recorder/pkg/wavrecorder/registry"
	"github.com/findusl/wav-recorder/pkg/wavrecorder/types"
)

const (
	Priority = 60
)

func init() {
	registry.RegisterBackendFactory(Priority, BackendFactory{})
}

type BackendFactory struct{}

func (BackendFactory) NewBackend(ctx context.Context, _ types.EventSink) (types.Backend, error) {
	return New(ctx)
}
