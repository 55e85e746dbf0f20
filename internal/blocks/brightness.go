package blocks

import (
	"context"
	"fmt"

	"codeberg.org/mutker/statusblocks/internal/errors"
	"codeberg.org/mutker/statusblocks/internal/extract"
	"codeberg.org/mutker/statusblocks/internal/watch"
	"golang.org/x/sys/unix"
)

const (
	defaultBrightnessPeriod = 2000
	defaultBrightnessPath   = "/sys/class/backlight/intel_backlight/brightness"
	defaultMaxBrightness    = 120000
)

type BrightnessConfig struct {
	Base
	UpdateSignal  watch.Signal `toml:"update_signal"`
	Path          string       `toml:"path_to_current_brightness"`
	MaxBrightness float64      `toml:"max_brightness"`
}

func DefaultBrightnessConfig() *BrightnessConfig {
	return &BrightnessConfig{
		Base:          Base{Period: defaultBrightnessPeriod},
		UpdateSignal:  watch.Signal(unix.SIGUSR1),
		Path:          defaultBrightnessPath,
		MaxBrightness: defaultMaxBrightness,
	}
}

func (*BrightnessConfig) Kind() Kind { return KindBrightness }

func (c *BrightnessConfig) Validate() error {
	errFactory := errors.New()

	if err := c.validate(KindBrightness, false); err != nil {
		return err
	}
	if c.Path == "" {
		return errFactory.WithData(ErrInvalidPath, "Brightness: path_to_current_brightness is required")
	}
	if c.MaxBrightness <= 0 {
		return errFactory.WithData(errors.ErrInvalidConfig, fmt.Sprintf("Brightness: max_brightness must be positive, got %v", c.MaxBrightness))
	}

	return c.UpdateSignal.Validate()
}

func (*BrightnessConfig) isConfig() {}

type Brightness struct {
	cfg BrightnessConfig
}

func NewBrightness(cfg BrightnessConfig) *Brightness {
	return &Brightness{cfg: cfg}
}

func (*Brightness) Name() string { return string(KindBrightness) }

func (*Brightness) Markup() string { return "" }

// Percent converts a raw backlight reading into a percentage of max.
func (b *Brightness) Percent(reading float64) float64 {
	return reading / (b.cfg.MaxBrightness / 100)
}

func (b *Brightness) Stream(ctx context.Context) (<-chan Update, error) {
	trigger, err := watch.NewTrigger(b.cfg.Interval(), b.cfg.UpdateSignal)
	if err != nil {
		return nil, err
	}

	return spawn(ctx, b.Name(), func(ctx context.Context, emit emitFunc) {
		defer trigger.Stop()

		for snap := range watch.TriggerRead(ctx, trigger, watch.ReadFile(b.cfg.Path)) {
			u := Update{Err: snap.Err}
			if snap.Err == nil {
				if reading, err := extract.Number(snap.Text, b.Name()); err != nil {
					u.Err = err
				} else {
					u.Text = fmt.Sprintf("%s %.0f%%", glyphBrightness, b.Percent(reading))
				}
			}

			if !emit(u) {
				return
			}
		}
	}), nil
}
