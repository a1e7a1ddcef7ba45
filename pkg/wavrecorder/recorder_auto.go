package wavrecorder

import (
	"context"
	"fmt"
	"sync"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/findusl/wav-recorder/pkg/wavrecorder/eventsink"
	"github.com/findusl/wav-recorder/pkg/wavrecorder/registry"
	"github.com/hashicorp/go-multierror"
)

var (
	lastSuccessfulBackendFactory       registry.BackendFactory
	lastSuccessfulBackendFactoryLocker sync.Mutex
)

func getLastSuccessfulBackendFactory() registry.BackendFactory {
	lastSuccessfulBackendFactoryLocker.Lock()
	defer lastSuccessfulBackendFactoryLocker.Unlock()
	return lastSuccessfulBackendFactory
}

func setLastSuccessfulBackendFactory(factory registry.BackendFactory) {
	lastSuccessfulBackendFactoryLocker.Lock()
	defer lastSuccessfulBackendFactoryLocker.Unlock()
	lastSuccessfulBackendFactory = factory
}

// NewRecorderAuto binds a Recorder to the highest-priority registered
// backend that negotiates a device. If none does, the returned Recorder
// is not available.
func NewRecorderAuto(
	ctx context.Context,
	opts ...Option,
) *Recorder {
	eventSink := eventsink.Async(Options(opts).Config().EventSink)

	if factory := getLastSuccessfulBackendFactory(); factory != nil {
		r, err := newRecorderFromFactory(ctx, factory, eventSink, opts)
		if err == nil {
			return r
		}
		logger.Debugf(ctx, "the previously used backend factory %T failed: %v", factory, err)
	}

	var mErr *multierror.Error
	for _, factory := range registry.BackendFactories() {
		r, err := newRecorderFromFactory(ctx, factory, eventSink, opts)
		logger.Debugf(ctx, "initializing a recorder using %T result is %v", factory, err)
		if err != nil {
			mErr = multierror.Append(mErr, fmt.Errorf("unable to use %T: %w", factory, err))
			continue
		}
		setLastSuccessfulBackendFactory(factory)
		return r
	}

	logger.Infof(ctx, "was unable to initialize any capture backend: %v", mErr.ErrorOrNil())
	return NewRecorder(ctx, BackendDummy{}, opts...)
}

func newRecorderFromFactory(
	ctx context.Context,
	factory registry.BackendFactory,
	eventSink EventSink,
	opts []Option,
) (*Recorder, error) {
	backend, err := factory.NewBackend(ctx, eventSink)
	if err != nil {
		return nil, fmt.Errorf("unable to initialize: %w", err)
	}

	r := NewRecorder(ctx, backend, opts...)
	if !r.IsAvailable() {
		if err := backend.Close(); err != nil {
			logger.Debugf(ctx, "unable to close %T: %v", backend, err)
		}
		return nil, fmt.Errorf("unable to negotiate: %w", r.formatErr)
	}
	return r, nil
}
