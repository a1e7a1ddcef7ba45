package wavrecorder

import (
	"github.com/findusl/wav-recorder/pkg/wavrecorder/types"
)

type (
	SampleRate    = types.SampleRate
	Channel       = types.Channel
	PCMFormat     = types.PCMFormat
	Format        = types.Format
	BackendKind   = types.BackendKind
	Backend       = types.Backend
	CaptureHandle = types.CaptureHandle
	EventSink     = types.EventSink
)

const (
	BackendKindUndefined          = types.BackendKindUndefined
	BackendKindDesktopMixer       = types.BackendKindDesktopMixer
	BackendKindDesktopFixedFormat = types.BackendKindDesktopFixedFormat
	BackendKindMobileProbe        = types.BackendKindMobileProbe

	PCMFormatU8    = types.PCMFormatU8
	PCMFormatS16LE = types.PCMFormatS16LE
)

var (
	ErrUnavailable      = types.ErrUnavailable
	ErrPermission       = types.ErrPermission
	ErrAlreadyRecording = types.ErrAlreadyRecording
	ErrNotRecording     = types.ErrNotRecording
	ErrDevice           = types.ErrDevice
	ErrEncoding         = types.ErrEncoding
	ErrClosed           = types.ErrClosed
)
