package types

import (
	"context"
)

// EventSink receives asynchronous notifications. Implementations must
// not block for long: calls may happen on audio or capture goroutines.
type EventSink interface {
	OnInitFailure(ctx context.Context, err error)
	OnRecordingError(ctx context.Context, err error)
}
