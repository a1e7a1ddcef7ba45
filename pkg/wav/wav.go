// Package wav builds and inspects canonical 44-byte-header RIFF/WAVE
// buffers carrying linear PCM.
package wav

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

const (
	HeaderSize = 44

	formatChunkSize = 16
	formatTagPCM    = 1
)

// Header is the decoded canonical WAV header.
type Header struct {
	ChunkSize     uint32
	FormatTag     uint16
	Channels      uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	DataSize      uint32
}

type rawHeader struct {
	ChunkID       [4]byte
	ChunkSize     uint32
	Format        [4]byte
	Subchunk1ID   [4]byte
	Subchunk1Size uint32
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Subchunk2ID   [4]byte
	Subchunk2Size uint32
}

// Encode wraps pcm into a WAV buffer. The samples are copied verbatim,
// no resampling or sample validation happens.
func Encode(
	pcm []byte,
	sampleRate uint32,
	channels uint16,
	bitsPerSample uint16,
) ([]byte, error) {
	if uint64(len(pcm)) > math.MaxUint32-36 {
		return nil, fmt.Errorf("PCM data is too large for a RIFF container: %d bytes", len(pcm))
	}
	byteRate := uint64(sampleRate) * uint64(channels) * uint64(bitsPerSample) / 8
	if byteRate > math.MaxUint32 {
		return nil, fmt.Errorf("byte rate overflows: %d*%d*%d/8", sampleRate, channels, bitsPerSample)
	}
	blockAlign := uint32(channels) * uint32(bitsPerSample) / 8
	if blockAlign > math.MaxUint16 {
		return nil, fmt.Errorf("block align overflows: %d*%d/8", channels, bitsPerSample)
	}

	dataSize := uint32(len(pcm))
	header := rawHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     36 + dataSize,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: formatChunkSize,
		AudioFormat:   formatTagPCM,
		NumChannels:   channels,
		SampleRate:    sampleRate,
		ByteRate:      uint32(byteRate),
		BlockAlign:    uint16(blockAlign),
		BitsPerSample: bitsPerSample,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: dataSize,
	}

	buf := bytes.NewBuffer(make([]byte, 0, HeaderSize+len(pcm)))
	if err := binary.Write(buf, binary.LittleEndian, header); err != nil {
		return nil, fmt.Errorf("unable to write the WAV header: %w", err)
	}
	buf.Write(pcm)
	return buf.Bytes(), nil
}

// ParseHeader decodes the canonical header at the start of b.
func ParseHeader(b []byte) (*Header, error) {
	if len(b) < HeaderSize {
		return nil, fmt.Errorf("WAV data is too short: need at least %d bytes, got %d", HeaderSize, len(b))
	}

	var raw rawHeader
	if err := binary.Read(bytes.NewReader(b[:HeaderSize]), binary.LittleEndian, &raw); err != nil {
		return nil, fmt.Errorf("unable to read the WAV header: %w", err)
	}

	switch {
	case string(raw.ChunkID[:]) != "RIFF":
		return nil, fmt.Errorf("missing the RIFF marker")
	case string(raw.Format[:]) != "WAVE":
		return nil, fmt.Errorf("missing the WAVE marker")
	case string(raw.Subchunk1ID[:]) != "fmt ":
		return nil, fmt.Errorf("missing the fmt chunk")
	case raw.Subchunk1Size != formatChunkSize:
		return nil, fmt.Errorf("unexpected fmt chunk size: %d", raw.Subchunk1Size)
	case string(raw.Subchunk2ID[:]) != "data":
		return nil, fmt.Errorf("missing the data chunk")
	}

	return &Header{
		ChunkSize:     raw.ChunkSize,
		FormatTag:     raw.AudioFormat,
		Channels:      raw.NumChannels,
		SampleRate:    raw.SampleRate,
		ByteRate:      raw.ByteRate,
		BlockAlign:    raw.BlockAlign,
		BitsPerSample: raw.BitsPerSample,
		DataSize:      raw.Subchunk2Size,
	}, nil
}

func (h *Header) Duration() time.Duration {
	if h.ByteRate == 0 {
		return 0
	}
	return time.Duration(uint64(h.DataSize) * uint64(time.Second) / uint64(h.ByteRate))
}
