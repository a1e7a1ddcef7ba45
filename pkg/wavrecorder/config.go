package wavrecorder

import (
	"time"
)

const (
	DefaultStopTimeout  = 500 * time.Millisecond
	DefaultCloseTimeout = 200 * time.Millisecond
	DefaultChunkSize    = 1024
)

type Config struct {
	EventSink    EventSink
	StopTimeout  time.Duration
	CloseTimeout time.Duration
	ChunkSize    int
}

func DefaultConfig() Config {
	return Config{
		StopTimeout:  DefaultStopTimeout,
		CloseTimeout: DefaultCloseTimeout,
		ChunkSize:    DefaultChunkSize,
	}
}

type Option func(*Config)

type Options []Option

func (s Options) Config() Config {
	cfg := DefaultConfig()
	for _, opt := range s {
		opt(&cfg)
	}
	return cfg
}

// OptionEventSink sets the handler for asynchronous failures; at most
// one sink is active per Recorder.
func OptionEventSink(sink EventSink) Option {
	return func(cfg *Config) {
		cfg.EventSink = sink
	}
}

func OptionStopTimeout(timeout time.Duration) Option {
	return func(cfg *Config) {
		cfg.StopTimeout = timeout
	}
}

func OptionCloseTimeout(timeout time.Duration) Option {
	return func(cfg *Config) {
		cfg.CloseTimeout = timeout
	}
}

// OptionChunkSize is used only when the backend does not fix the
// read-chunk size itself.
func OptionChunkSize(size int) Option {
	return func(cfg *Config) {
		cfg.ChunkSize = size
	}
}
