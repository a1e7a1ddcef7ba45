package wavrecorder

import (
	"context"
)

// BackendDummy never negotiates a device.
type BackendDummy struct{}

var _ Backend = BackendDummy{}

func (BackendDummy) Kind() BackendKind {
	return BackendKindUndefined
}

func (BackendDummy) Negotiate(context.Context) (Format, error) {
	return Format{}, ErrUnavailable
}

func (BackendDummy) Open(context.Context, Format) (CaptureHandle, error) {
	return nil, ErrUnavailable
}

func (BackendDummy) Close() error {
	return nil
}
