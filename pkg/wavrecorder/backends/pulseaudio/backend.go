// Package pulseaudio requests a fixed mono 16-bit 44100Hz format from
// the default PulseAudio source.
package pulseaudio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/findusl/wav-recorder/pkg/wavrecorder/chunkqueue"
	"github.com/findusl/wav-recorder/pkg/wavrecorder/eventsink"
	"github.com/findusl/wav-recorder/pkg/wavrecorder/types"
	"github.com/jfreymuth/pulse"
	"github.com/jfreymuth/pulse/proto"
)

const (
	SampleRate  = 44100
	ChunkSize   = 1024
	ReadTimeout = 100 * time.Millisecond
	Latency     = 50 * time.Millisecond
)

type Backend struct {
	EventSink   types.EventSink
	ReadTimeout time.Duration

	newClient func() (*pulse.Client, error)

	negotiateOnce sync.Once
	client        *pulse.Client
	source        *pulse.Source
	format        types.Format
	negotiateErr  error
}

var _ types.Backend = (*Backend)(nil)

func New(eventSink types.EventSink) *Backend {
	return &Backend{
		EventSink:   eventsink.Async(eventSink),
		ReadTimeout: ReadTimeout,
		newClient: func() (*pulse.Client, error) {
			return pulse.NewClient(pulse.ClientApplicationName("wav-recorder"))
		},
	}
}

func (*Backend) Kind() types.BackendKind {
	return types.BackendKindDesktopFixedFormat
}

// Negotiate connects to PulseAudio and resolves the default source. A
// failure is reported to the EventSink and makes the backend permanently
// unavailable.
func (b *Backend) Negotiate(ctx context.Context) (types.Format, error) {
	b.negotiateOnce.Do(func() {
		b.format, b.negotiateErr = b.negotiate(ctx)
		if b.negotiateErr != nil {
			b.EventSink.OnInitFailure(ctx, b.negotiateErr)
			b.negotiateErr = fmt.Errorf("%w: %w", types.ErrUnavailable, b.negotiateErr)
		}
	})
	return b.format, b.negotiateErr
}

func (b *Backend) negotiate(ctx context.Context) (types.Format, error) {
	client, err := b.newClient()
	if err != nil {
		return types.Format{}, fmt.Errorf("unable to open a client to Pulse: %w", err)
	}

	source, err := client.DefaultSource()
	if err != nil {
		client.Close()
		return types.Format{}, fmt.Errorf("unable to get the default source: %w", err)
	}
	logger.Debugf(ctx, "default source: %s", source.ID())

	b.client, b.source = client, source
	return types.Format{
		SampleRate: SampleRate,
		Channels:   1,
		PCMFormat:  types.PCMFormatS16LE,
		ChunkSize:  ChunkSize,
		DeviceName: source.ID(),
	}, nil
}

func (b *Backend) Open(
	ctx context.Context,
	format types.Format,
) (types.CaptureHandle, error) {
	if b.client == nil {
		return nil, types.ErrUnavailable
	}

	queue := chunkqueue.New()
	stream, err := b.client.NewRecord(
		newPulseWriter(queue),
		pulse.RecordSource(b.source),
		pulse.RecordSampleRate(int(format.SampleRate)),
		pulse.RecordChannels(proto.ChannelMap{proto.ChannelMono}),
		pulse.RecordLatency(Latency.Seconds()),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to initialize a record stream: %w", err)
	}

	stream.Start()
	if err := stream.Error(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("an error occurred when starting the record stream: %w", err)
	}
	logger.Debugf(ctx, "started recording from %s", b.source.ID())

	return newCaptureHandle(stream, queue, b.ReadTimeout), nil
}

func (b *Backend) Close() error {
	if b.client != nil {
		b.client.Close()
	}
	return nil
}

type pulseWriter struct {
	*chunkqueue.Queue
}

var _ pulse.Writer = (*pulseWriter)(nil)

func newPulseWriter(queue *chunkqueue.Queue) *pulseWriter {
	return &pulseWriter{
		Queue: queue,
	}
}

func (pulseWriter) Format() byte {
	return proto.FormatInt16LE
}
