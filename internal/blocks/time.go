package blocks

import (
	"context"
	"fmt"
	"time"

	"codeberg.org/mutker/statusblocks/internal/errors"
	"github.com/lestrrat-go/strftime"
)

const (
	defaultTimePeriod = 1000
	defaultTimeFormat = "%a %d %b <b>%H:%M:%S</b>"
)

type TimeConfig struct {
	Base
	// Format is a strftime pattern.
	Format string `toml:"format"`
}

func DefaultTimeConfig() *TimeConfig {
	return &TimeConfig{
		Base:   Base{Period: defaultTimePeriod},
		Format: defaultTimeFormat,
	}
}

func (*TimeConfig) Kind() Kind { return KindTime }

func (c *TimeConfig) Validate() error {
	if err := c.validate(KindTime, false); err != nil {
		return err
	}
	if _, err := strftime.New(c.Format); err != nil {
		return errors.New().WithData(ErrInvalidFormat, fmt.Sprintf("Time: %v", err))
	}

	return nil
}

func (*TimeConfig) isConfig() {}

type Time struct {
	cfg     TimeConfig
	pattern *strftime.Strftime
	now     func() time.Time
}

func NewTime(cfg TimeConfig) (*Time, error) {
	pattern, err := strftime.New(cfg.Format)
	if err != nil {
		return nil, errors.New().Wrap(ErrInvalidFormat, err)
	}

	return &Time{cfg: cfg, pattern: pattern, now: time.Now}, nil
}

func (*Time) Name() string { return string(KindTime) }

func (*Time) Markup() string { return markupPango }

func (t *Time) Stream(ctx context.Context) (<-chan Update, error) {
	return spawn(ctx, t.Name(), func(ctx context.Context, emit emitFunc) {
		ticker := time.NewTicker(t.cfg.Interval())
		defer ticker.Stop()

		for {
			if !emit(Update{Text: t.pattern.FormatString(t.now().Local())}) {
				return
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}), nil
}
