// Package malgo captures through miniaudio, which also covers the mobile
// capture APIs (AAudio, OpenSL ES). The format is fixed once at
// construction by probing candidate sample rates.
package malgo

import (
	"context"
	"fmt"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/findusl/wav-recorder/pkg/wavrecorder/chunkqueue"
	"github.com/findusl/wav-recorder/pkg/wavrecorder/types"
	"github.com/gen2brain/malgo"
)

const (
	PeriodMilliseconds = 20
	ReadTimeout        = 100 * time.Millisecond
)

type Backend struct {
	Context     *malgo.AllocatedContext
	ReadTimeout time.Duration

	format       types.Format
	negotiateErr error
}

var _ types.Backend = (*Backend)(nil)

func New(ctx context.Context) (*Backend, error) {
	malgoCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		logger.Tracef(ctx, "miniaudio: %s", message)
	})
	if err != nil {
		return nil, fmt.Errorf("unable to initialize a miniaudio context: %w", err)
	}

	b := &Backend{
		Context:     malgoCtx,
		ReadTimeout: ReadTimeout,
	}
	b.format, b.negotiateErr = probe(ctx, minBufferSizeQuerier{Context: malgoCtx}, CandidateSampleRates)
	return b, nil
}

func (*Backend) Kind() types.BackendKind {
	return types.BackendKindMobileProbe
}

// Negotiate returns the result of the probe made by New.
func (b *Backend) Negotiate(context.Context) (types.Format, error) {
	return b.format, b.negotiateErr
}

func captureConfig(sampleRate types.SampleRate) malgo.DeviceConfig {
	cfg := malgo.DefaultDeviceConfig(malgo.Capture)
	cfg.Capture.Format = malgo.FormatS16
	cfg.Capture.Channels = 1
	cfg.SampleRate = uint32(sampleRate)
	cfg.PeriodSizeInMilliseconds = PeriodMilliseconds
	return cfg
}

type minBufferSizeQuerier struct {
	Context *malgo.AllocatedContext
}

func (q minBufferSizeQuerier) MinBufferSize(
	ctx context.Context,
	sampleRate types.SampleRate,
) (int, error) {
	device, err := malgo.InitDevice(q.Context.Context, captureConfig(sampleRate), malgo.DeviceCallbacks{})
	if err != nil {
		return 0, err
	}
	defer device.Uninit()

	// miniaudio resamples to the requested rate, so a successfully
	// initialized device nearly always reports it back and the first
	// candidate a backend can open wins. malgo does not expose the
	// negotiated period, so the size is the configured period in bytes.
	if device.SampleRate() != uint32(sampleRate) {
		return 0, nil
	}
	return periodBufferSize(sampleRate), nil
}

// periodBufferSize is the byte size of one PeriodMilliseconds period of mono
// S16 samples at sampleRate.
func periodBufferSize(sampleRate types.SampleRate) int {
	return int(sampleRate) * PeriodMilliseconds / 1000 * 2
}

func (b *Backend) Open(
	ctx context.Context,
	format types.Format,
) (types.CaptureHandle, error) {
	if b.negotiateErr != nil {
		return nil, b.negotiateErr
	}

	queue := chunkqueue.New()
	device, err := malgo.InitDevice(b.Context.Context, captureConfig(format.SampleRate), malgo.DeviceCallbacks{
		Data: func(_, inputSamples []byte, _ uint32) {
			queue.Push(inputSamples)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("unable to initialize a capture device: %w", err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		return nil, fmt.Errorf("unable to start the capture device: %w", err)
	}
	logger.Debugf(ctx, "started capturing at %dHz", device.SampleRate())

	return &CaptureHandle{
		Device:      device,
		Queue:       queue,
		ReadTimeout: b.ReadTimeout,
	}, nil
}

func (b *Backend) Close() error {
	if b.Context == nil {
		return nil
	}
	err := b.Context.Uninit()
	b.Context.Free()
	b.Context = nil
	return err
}

type CaptureHandle struct {
	Device      *malgo.Device
	Queue       *chunkqueue.Queue
	ReadTimeout time.Duration
}

var _ types.CaptureHandle = (*CaptureHandle)(nil)

func (h *CaptureHandle) ReadChunk(ctx context.Context, p []byte) (int, error) {
	return h.Queue.Read(ctx, p, h.ReadTimeout)
}

func (h *CaptureHandle) Stop() error {
	return h.Device.Stop()
}

func (h *CaptureHandle) Release() error {
	h.Device.Uninit()
	return h.Queue.Close()
}
