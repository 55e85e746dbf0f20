// Package blocks implements the status bar segments. Each block owns its
// configuration and running state and produces a stream of display text.
package blocks

import (
	"context"
	"fmt"
	"time"

	"codeberg.org/mutker/statusblocks/internal/errors"
	"codeberg.org/mutker/statusblocks/internal/logger"
)

// Kind names a block type. It is also the block's key in the output and its
// table name in the configuration file.
type Kind string

const (
	KindBattery    Kind = "Battery"
	KindBrightness Kind = "Brightness"
	KindCPU        Kind = "Cpu"
	KindMemory     Kind = "Memory"
	KindNetwork    Kind = "Network"
	KindTime       Kind = "Time"
	KindVolume     Kind = "Volume"
)

// Kinds lists every implemented block kind.
func Kinds() []Kind {
	return []Kind{KindBattery, KindBrightness, KindCPU, KindMemory, KindNetwork, KindTime, KindVolume}
}

const markupPango = "pango"

// Update is one result from a block: display text, or the error that
// replaced it for this tick.
type Update struct {
	Text string
	Err  error
}

// Block is one independently ticking status bar segment.
type Block interface {
	Name() string
	// Markup is the markup hint for the renderer, or "" for plain text.
	Markup() string
	// Stream starts the block. The returned error is a setup failure; per
	// tick failures arrive as updates. The channel closes when ctx is done.
	Stream(ctx context.Context) (<-chan Update, error)
}

// Base holds the parameters shared by every block.
type Base struct {
	// Period in milliseconds.
	Period int64 `toml:"period"`
	// Alpha is the smoothing factor, for blocks that smooth.
	Alpha float64 `toml:"alpha"`
}

// Interval returns Period as a duration.
func (b Base) Interval() time.Duration {
	return time.Duration(b.Period) * time.Millisecond
}

func (b Base) validate(kind Kind, smoothed bool) error {
	errFactory := errors.New()

	if b.Period <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, fmt.Sprintf("%s: period must be positive, got %d", kind, b.Period))
	}
	if smoothed && (b.Alpha <= 0 || b.Alpha > 1) {
		return errFactory.WithData(errors.ErrInvalidConfig, fmt.Sprintf("%s: alpha must be in (0, 1], got %v", kind, b.Alpha))
	}

	return nil
}

// Config is the validated parameter set of one block. It is implemented only
// by the *XxxConfig types of this package.
type Config interface {
	Kind() Kind
	Validate() error
	isConfig()
}

// DefaultConfig returns the defaulted configuration for kind, ready to be
// decoded into.
func DefaultConfig(kind Kind) (Config, error) {
	switch kind {
	case KindBattery:
		return DefaultBatteryConfig(), nil
	case KindBrightness:
		return DefaultBrightnessConfig(), nil
	case KindCPU:
		return DefaultCPUConfig(), nil
	case KindMemory:
		return DefaultMemoryConfig(), nil
	case KindNetwork:
		return DefaultNetworkConfig(), nil
	case KindTime:
		return DefaultTimeConfig(), nil
	case KindVolume:
		return DefaultVolumeConfig(), nil
	default:
		return nil, errors.New().WithData(ErrUnknownBlock, fmt.Sprintf("'%s'", kind))
	}
}

// New builds the block described by cfg.
func New(cfg Config) (Block, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch c := cfg.(type) {
	case *BatteryConfig:
		return NewBattery(*c), nil
	case *BrightnessConfig:
		return NewBrightness(*c), nil
	case *CPUConfig:
		return NewCPU(*c), nil
	case *MemoryConfig:
		return NewMemory(*c), nil
	case *NetworkConfig:
		return NewNetwork(*c), nil
	case *TimeConfig:
		t, err := NewTime(*c)
		if err != nil {
			return nil, err
		}

		return t, nil
	case *VolumeConfig:
		return NewVolume(*c), nil
	default:
		return nil, errors.New().WithData(ErrUnknownBlock, fmt.Sprintf("%T", cfg))
	}
}

// emitFunc delivers an update and reports whether the consumer is still
// listening.
type emitFunc func(Update) bool

// spawn runs fn on its own goroutine. A panic in fn ends only this block:
// it is logged and delivered as a final error update.
func spawn(ctx context.Context, name string, fn func(ctx context.Context, emit emitFunc)) <-chan Update {
	out := make(chan Update)
	emit := func(u Update) bool {
		select {
		case <-ctx.Done():
			return false
		case out <- u:
			return true
		}
	}

	go func() {
		defer close(out)
		defer func() {
			if r := recover(); r != nil {
				err := errors.New().WithData(errors.ErrBlockPanic, r)
				logger.Error().Str("block", name).Interface("panic", r).Msg("Block panicked")
				emit(Update{Err: err})
			}
		}()

		fn(ctx, emit)
	}()

	return out
}
