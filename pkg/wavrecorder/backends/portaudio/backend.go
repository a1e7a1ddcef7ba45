// Package portaudio captures through PortAudio by enumerating its host
// APIs (mixers) and their input devices (lines).
package portaudio

import (
	"context"
	"fmt"
	"sync"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/findusl/wav-recorder/pkg/wavrecorder/types"
	"github.com/gordonklaus/portaudio"
)

const (
	FramesPerBuffer = 512
)

// StandardSampleRates are tried after the device default rate.
var StandardSampleRates = []float64{44100, 48000, 32000, 22050, 16000, 11025, 8000}

type formatChecker func(device *portaudio.DeviceInfo, sampleRate float64) error

type Backend struct {
	listHostAPIs func() ([]*portaudio.HostApiInfo, error)
	checkFormat  formatChecker
	terminate    func() error

	negotiateOnce sync.Once
	device        *portaudio.DeviceInfo
	format        types.Format
	negotiateErr  error
}

var _ types.Backend = (*Backend)(nil)

func New(ctx context.Context) (*Backend, error) {
	logger.Tracef(ctx, "portaudio.Initialize")
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("unable to initialize PortAudio: %w", err)
	}
	return &Backend{
		listHostAPIs: portaudio.HostApis,
		checkFormat:  checkFormatSupported,
		terminate:    portaudio.Terminate,
	}, nil
}

func (*Backend) Kind() types.BackendKind {
	return types.BackendKindDesktopMixer
}

func streamParameters(device *portaudio.DeviceInfo, sampleRate float64) portaudio.StreamParameters {
	return portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: 1,
			Latency:  device.DefaultLowInputLatency,
		},
		SampleRate:      sampleRate,
		FramesPerBuffer: FramesPerBuffer,
	}
}

func checkFormatSupported(device *portaudio.DeviceInfo, sampleRate float64) error {
	return portaudio.IsFormatSupported(streamParameters(device, sampleRate), make([]int16, FramesPerBuffer))
}

func (b *Backend) Negotiate(ctx context.Context) (types.Format, error) {
	b.negotiateOnce.Do(func() {
		b.device, b.format, b.negotiateErr = b.negotiate(ctx)
	})
	return b.format, b.negotiateErr
}

func (b *Backend) negotiate(ctx context.Context) (*portaudio.DeviceInfo, types.Format, error) {
	hostAPIs, err := b.listHostAPIs()
	if err != nil {
		return nil, types.Format{}, fmt.Errorf("%w: unable to list the host APIs: %w", types.ErrUnavailable, err)
	}

	device, sampleRate, ok := selectInputDevice(ctx, hostAPIs, b.checkFormat)
	if !ok {
		return nil, types.Format{}, fmt.Errorf("%w: none of %d host APIs has a mono 16-bit input line", types.ErrUnavailable, len(hostAPIs))
	}

	return device, types.Format{
		SampleRate: types.SampleRate(sampleRate),
		Channels:   1,
		PCMFormat:  types.PCMFormatS16LE,
		ChunkSize:  FramesPerBuffer * 2,
		DeviceName: device.Name,
	}, nil
}

// selectInputDevice picks the first input device, in host API order, that
// specifies a (positive) default sample rate and supports mono 16-bit capture
// at that rate or at one of StandardSampleRates. Devices not specifying a
// rate are skipped.
func selectInputDevice(
	ctx context.Context,
	hostAPIs []*portaudio.HostApiInfo,
	checkFormat formatChecker,
) (*portaudio.DeviceInfo, float64, bool) {
	for _, hostAPI := range hostAPIs {
		if hostAPI == nil {
			continue
		}
		for _, device := range hostAPI.Devices {
			if device == nil || device.MaxInputChannels < 1 || device.DefaultSampleRate <= 0 {
				logger.Tracef(ctx, "%s: skipping a device without an input line at a specified rate", hostAPI.Name)
				continue
			}
			for _, sampleRate := range candidateSampleRates(device) {
				err := checkFormat(device, sampleRate)
				logger.Tracef(ctx, "%s/%s at %vHz: %v", hostAPI.Name, device.Name, sampleRate, err)
				if err == nil {
					return device, sampleRate, true
				}
			}
		}
	}
	return nil, 0, false
}

func candidateSampleRates(device *portaudio.DeviceInfo) []float64 {
	result := []float64{device.DefaultSampleRate}
	for _, sampleRate := range StandardSampleRates {
		if sampleRate != device.DefaultSampleRate {
			result = append(result, sampleRate)
		}
	}
	return result
}

func (b *Backend) Open(
	ctx context.Context,
	format types.Format,
) (types.CaptureHandle, error) {
	if b.device == nil {
		return nil, types.ErrUnavailable
	}
	return openCaptureHandle(ctx, b.device, float64(format.SampleRate))
}

func (b *Backend) Close() error {
	if b.terminate == nil {
		return nil
	}
	return b.terminate()
}
