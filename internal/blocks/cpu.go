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
	defaultCPUPeriod   = 1000
	defaultCPUAlpha    = 0.7
	defaultCPUStatPath = "/proc/stat"

	// The aggregate "cpu" line comes first in /proc/stat.
	cpuReadLimit = 512
)

var cpuPattern = regexp.MustCompile(`cpu\s+` +
	`(?P<user>\d+)\s+(?P<nice>\d+)\s+(?P<system>\d+)\s+(?P<idle>\d+)\s+` +
	`(?P<iowait>\d+)\s+(?P<irq>\d+)\s+(?P<softirq>\d+)\s+(?P<steal>\d+)`)

type CPUConfig struct {
	Base
	StatPath string `toml:"cpu_stat_path"`
}

func DefaultCPUConfig() *CPUConfig {
	return &CPUConfig{
		Base:     Base{Period: defaultCPUPeriod, Alpha: defaultCPUAlpha},
		StatPath: defaultCPUStatPath,
	}
}

func (*CPUConfig) Kind() Kind { return KindCPU }

func (c *CPUConfig) Validate() error {
	if err := c.validate(KindCPU, true); err != nil {
		return err
	}
	if c.StatPath == "" {
		return errors.New().WithData(ErrInvalidPath, "Cpu: cpu_stat_path is required")
	}

	return nil
}

func (*CPUConfig) isConfig() {}

// CPUStats holds the cumulative jiffies of the aggregate cpu line.
type CPUStats struct {
	User    float64 `mapstructure:"user"`
	Nice    float64 `mapstructure:"nice"`
	System  float64 `mapstructure:"system"`
	Idle    float64 `mapstructure:"idle"`
	IOWait  float64 `mapstructure:"iowait"`
	IRQ     float64 `mapstructure:"irq"`
	SoftIRQ float64 `mapstructure:"softirq"`
	Steal   float64 `mapstructure:"steal"`
}

func (s CPUStats) total() float64 {
	return s.User + s.Nice + s.System + s.Idle + s.IOWait + s.IRQ + s.SoftIRQ + s.Steal
}

// Percent returns the busy percentage between prev and s, or false when no
// time has passed between the two samples.
func (s CPUStats) Percent(prev CPUStats) (float64, bool) {
	total, prevTotal := s.total(), prev.total()
	if total == prevTotal {
		return 0, false
	}

	idle, prevIdle := s.Idle+s.IOWait, prev.Idle+prev.IOWait

	return (1 - (idle-prevIdle)/(total-prevTotal)) * 100, true
}

type CPU struct {
	cfg CPUConfig
}

func NewCPU(cfg CPUConfig) *CPU {
	return &CPU{cfg: cfg}
}

func (*CPU) Name() string { return string(KindCPU) }

func (*CPU) Markup() string { return "" }

func (c *CPU) Stream(ctx context.Context) (<-chan Update, error) {
	return spawn(ctx, c.Name(), func(ctx context.Context, emit emitFunc) {
		smoother := ema.New(c.cfg.Alpha)
		var prev *CPUStats

		for snap := range watch.PollDiff(ctx, c.cfg.StatPath, c.cfg.Interval(), watch.WithLimit(cpuReadLimit)) {
			if snap.Err != nil {
				if !emit(Update{Err: snap.Err}) {
					return
				}
				continue
			}

			var stats CPUStats
			if err := extract.Into(cpuPattern, snap.Text, c.Name(), &stats); err != nil {
				if !emit(Update{Err: err}) {
					return
				}
				continue
			}

			last := prev
			prev = &stats
			if last == nil {
				continue
			}
			percent, ok := stats.Percent(*last)
			if !ok {
				continue
			}

			if !emit(Update{Text: fmt.Sprintf("%s %.1f%%", glyphCPU, smoother.Push(percent))}) {
				return
			}
		}
	}), nil
}
