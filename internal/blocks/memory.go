package blocks

import (
	"context"
	"fmt"
	"regexp"

	"codeberg.org/mutker/statusblocks/internal/ema"
	"codeberg.org/mutker/statusblocks/internal/errors"
	"codeberg.org/mutker/statusblocks/internal/extract"
	"codeberg.org/mutker/statusblocks/internal/watch"
)

const (
	defaultMemoryPeriod = 1000
	defaultMemoryAlpha  = 0.7
	defaultMeminfoPath  = "/proc/meminfo"

	// MemTotal and MemFree are the first two lines of /proc/meminfo.
	memoryReadLimit = 256
)

var memoryPattern = regexp.MustCompile(`(?s)MemTotal:\s+(?P<total>\d+).+MemFree:\s+(?P<free>\d+)`)

type MemoryConfig struct {
	Base
	MeminfoPath string `toml:"meminfo_path"`
}

func DefaultMemoryConfig() *MemoryConfig {
	return &MemoryConfig{
		Base:        Base{Period: defaultMemoryPeriod, Alpha: defaultMemoryAlpha},
		MeminfoPath: defaultMeminfoPath,
	}
}

func (*MemoryConfig) Kind() Kind { return KindMemory }

func (c *MemoryConfig) Validate() error {
	if err := c.validate(KindMemory, true); err != nil {
		return err
	}
	if c.MeminfoPath == "" {
		return errors.New().WithData(ErrInvalidPath, "Memory: meminfo_path is required")
	}

	return nil
}

func (*MemoryConfig) isConfig() {}

type MemStats struct {
	Total float64 `mapstructure:"total"`
	Free  float64 `mapstructure:"free"`
}

func (s MemStats) Percent() float64 {
	return 100 * (1 - s.Free/s.Total)
}

type Memory struct {
	cfg MemoryConfig
}

func NewMemory(cfg MemoryConfig) *Memory {
	return &Memory{cfg: cfg}
}

func (*Memory) Name() string { return string(KindMemory) }

func (*Memory) Markup() string { return "" }

func (m *Memory) Stream(ctx context.Context) (<-chan Update, error) {
	return spawn(ctx, m.Name(), func(ctx context.Context, emit emitFunc) {
		smoother := ema.New(m.cfg.Alpha)

		for snap := range watch.PollDiff(ctx, m.cfg.MeminfoPath, m.cfg.Interval(), watch.WithLimit(memoryReadLimit)) {
			u := Update{Err: snap.Err}
			if snap.Err == nil {
				var stats MemStats
				if err := extract.Into(memoryPattern, snap.Text, m.Name(), &stats); err != nil {
					u.Err = err
				} else if stats.Total <= 0 {
					u.Err = errors.NewParse(m.Name(), "MemTotal is zero")
				} else {
					u.Text = fmt.Sprintf("%s %.1f%%", glyphMemory, smoother.Push(stats.Percent()))
				}
			}

			if !emit(u) {
				return
			}
		}
	}), nil
}
