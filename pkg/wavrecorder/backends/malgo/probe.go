package malgo

import (
	"context"
	"fmt"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/findusl/wav-recorder/pkg/wavrecorder/types"
)

// CandidateSampleRates are probed in order of preference.
var CandidateSampleRates = []types.SampleRate{44100, 48000, 22050, 16000, 11025}

// MinBufferSizeQuerier reports the minimal capture buffer size in bytes
// for mono 16-bit capture at the given rate; a non-positive size means
// the rate is not supported.
type MinBufferSizeQuerier interface {
	MinBufferSize(ctx context.Context, sampleRate types.SampleRate) (int, error)
}

// probe selects the first candidate with a positive minimal buffer size;
// that size becomes the read-chunk size.
func probe(
	ctx context.Context,
	querier MinBufferSizeQuerier,
	candidates []types.SampleRate,
) (types.Format, error) {
	for _, sampleRate := range candidates {
		size, err := querier.MinBufferSize(ctx, sampleRate)
		logger.Debugf(ctx, "min buffer size at %dHz: %d (%v)", sampleRate, size, err)
		if err != nil || size <= 0 {
			continue
		}
		return types.Format{
			SampleRate: sampleRate,
			Channels:   1,
			PCMFormat:  types.PCMFormatS16LE,
			ChunkSize:  size,
		}, nil
	}
	return types.Format{}, fmt.Errorf("%w: none of the sample rates %v is supported", types.ErrUnavailable, candidates)
}
