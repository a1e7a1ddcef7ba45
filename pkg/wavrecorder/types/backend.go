package types

import (
	"context"
	"fmt"
)

type BackendKind uint

const (
	BackendKindUndefined = BackendKind(iota)
	BackendKindDesktopMixer
	BackendKindDesktopFixedFormat
	BackendKindMobileProbe
	EndOfBackendKind
)

func (k BackendKind) String() string {
	switch k {
	case BackendKindUndefined:
		return "<undefined>"
	case BackendKindDesktopMixer:
		return "desktop-mixer"
	case BackendKindDesktopFixedFormat:
		return "desktop-fixed-format"
	case BackendKindMobileProbe:
		return "mobile-probe"
	default:
		return fmt.Sprintf("<unexpected_value_%d>", uint(k))
	}
}

// Backend is a native capture API.
//
// Negotiate is evaluated once per Backend: every call returns the same
// Format (or the same ErrUnavailable-wrapping error).
type Backend interface {
	Kind() BackendKind
	Negotiate(ctx context.Context) (Format, error)
	Open(ctx context.Context, format Format) (CaptureHandle, error)
	Close() error
}

// CaptureHandle is an opened and started capture resource.
type CaptureHandle interface {
	// ReadChunk blocks until some PCM is available, the backend read
	// timeout elapses (n == 0, err == nil) or the context is cancelled.
	ReadChunk(ctx context.Context, p []byte) (int, error)
	Stop() error
	Release() error
}
