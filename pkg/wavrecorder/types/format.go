package types

import (
	"fmt"
)

type SampleRate uint32

type Channel uint16

type PCMFormat uint

const (
	PCMFormatUndefined = PCMFormat(iota)
	PCMFormatU8
	PCMFormatS16LE
	EndOfPCMFormat
)

func (f PCMFormat) String() string {
	switch f {
	case PCMFormatUndefined:
		return "<undefined>"
	case PCMFormatU8:
		return "u8"
	case PCMFormatS16LE:
		return "s16le"
	default:
		return fmt.Sprintf("<unexpected_value_%d>", uint(f))
	}
}

// Size returns the size of a single sample in bytes.
func (f PCMFormat) Size() uint {
	switch f {
	case PCMFormatU8:
		return 1
	case PCMFormatS16LE:
		return 2
	default:
		return 0
	}
}

func (f PCMFormat) BitsPerSample() uint {
	return f.Size() * 8
}

// Format is the device/format descriptor chosen once per backend by negotiation.
type Format struct {
	SampleRate SampleRate
	Channels   Channel
	PCMFormat  PCMFormat

	// ChunkSize is the read-chunk size in bytes fixed by the backend,
	// zero means the recorder picks its configured default.
	ChunkSize int

	DeviceName string
}

func (f Format) BitsPerSample() uint {
	return f.PCMFormat.BitsPerSample()
}

// BytesPerSecond is sampleRate * channels * bytesPerSample.
func (f Format) BytesPerSecond() uint {
	return uint(f.SampleRate) * uint(f.Channels) * f.PCMFormat.Size()
}

func (f Format) String() string {
	return fmt.Sprintf("%dHz/%dch/%s(%q)", f.SampleRate, f.Channels, f.PCMFormat, f.DeviceName)
}
