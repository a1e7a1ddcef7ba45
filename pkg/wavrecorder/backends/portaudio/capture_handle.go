package portaudio

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/findusl/wav-recorder/pkg/wavrecorder/types"
	"github.com/gordonklaus/portaudio"
)

type CaptureHandle struct {
	PortAudioStream *portaudio.Stream
	Samples         []int16
}

var _ types.CaptureHandle = (*CaptureHandle)(nil)

func openCaptureHandle(
	ctx context.Context,
	device *portaudio.DeviceInfo,
	sampleRate float64,
) (*CaptureHandle, error) {
	samples := make([]int16, FramesPerBuffer)
	logger.Debugf(ctx, "opening %q at %vHz, %d frames per buffer", device.Name, sampleRate, len(samples))
	stream, err := portaudio.OpenStream(streamParameters(device, sampleRate), samples)
	if err != nil {
		return nil, fmt.Errorf("unable to open a stream on %q: %w", device.Name, err)
	}
	if err := stream.Start(); err != nil {
		if closeErr := stream.Close(); closeErr != nil {
			logger.Debugf(ctx, "unable to close the stream: %v", closeErr)
		}
		return nil, fmt.Errorf("unable to start the stream: %w", err)
	}
	return &CaptureHandle{
		PortAudioStream: stream,
		Samples:         samples,
	}, nil
}

// ReadChunk blocks for one PortAudio buffer (FramesPerBuffer frames).
func (h *CaptureHandle) ReadChunk(
	ctx context.Context,
	p []byte,
) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	err := h.PortAudioStream.Read()
	if err != nil && !errors.Is(err, portaudio.InputOverflowed) {
		return 0, fmt.Errorf("unable to read: %w", err)
	}
	return samplesToBytes(p, h.Samples), nil
}

func samplesToBytes(p []byte, samples []int16) int {
	count := len(samples)
	if count > len(p)/2 {
		count = len(p) / 2
	}
	for idx := 0; idx < count; idx++ {
		binary.LittleEndian.PutUint16(p[idx*2:], uint16(samples[idx]))
	}
	return count * 2
}

func (h *CaptureHandle) Stop() error {
	return h.PortAudioStream.Stop()
}

func (h *CaptureHandle) Release() error {
	return h.PortAudioStream.Close()
}
