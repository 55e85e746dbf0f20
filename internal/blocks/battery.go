package blocks

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"codeberg.org/mutker/statusblocks/internal/ema"
	"codeberg.org/mutker/statusblocks/internal/errors"
	"codeberg.org/mutker/statusblocks/internal/extract"
	"codeberg.org/mutker/statusblocks/internal/watch"
)

const (
	defaultBatteryPeriod  = 1000
	defaultBatteryAlpha   = 0.95
	defaultChargeNowPath  = "/sys/class/power_supply/BAT0/charge_now"
	defaultChargeFullPath = "/sys/class/power_supply/BAT0/charge_full"
	defaultStatusPath     = "/sys/class/power_supply/BAT0/status"
)

type BatteryConfig struct {
	Base
	ChargeNowPath  string `toml:"path_to_charge_now"`
	ChargeFullPath string `toml:"path_to_charge_full"`
	StatusPath     string `toml:"path_to_status"`
}

func DefaultBatteryConfig() *BatteryConfig {
	return &BatteryConfig{
		Base:           Base{Period: defaultBatteryPeriod, Alpha: defaultBatteryAlpha},
		ChargeNowPath:  defaultChargeNowPath,
		ChargeFullPath: defaultChargeFullPath,
		StatusPath:     defaultStatusPath,
	}
}

func (*BatteryConfig) Kind() Kind { return KindBattery }

func (c *BatteryConfig) Validate() error {
	if err := c.validate(KindBattery, true); err != nil {
		return err
	}
	if c.ChargeNowPath == "" || c.ChargeFullPath == "" || c.StatusPath == "" {
		return errors.New().WithData(ErrInvalidPath, "Battery: charge and status paths are required")
	}

	return nil
}

func (*BatteryConfig) isConfig() {}

// State is the charging state reported by the power supply.
type State int

const (
	StateUnknown State = iota
	StateCharging
	StateDischarging
	StateFull
	StateNotCharging
)

// Remaining estimates the minutes until empty or full. It starts out
// calculating and tracks a smoothed estimate once the first rate is known.
type Remaining struct {
	tracking bool
	alpha    float64
	minutes  ema.EMA
}

func NewRemaining(alpha float64) Remaining {
	return Remaining{alpha: alpha}
}

func (r Remaining) Calculating() bool {
	return !r.tracking
}

func (r *Remaining) Push(minutes float64) {
	if !r.tracking {
		r.minutes = ema.New(r.alpha)
		r.tracking = true
	}
	r.minutes.Push(minutes)
}

func (r Remaining) String() string {
	if v, ok := r.minutes.Value(); r.tracking && ok {
		return minutesToString(v)
	}

	return "..."
}

// Status is a battery state together with its remaining time estimate.
type Status struct {
	State     State
	Remaining Remaining
}

// ParseStatus parses the content of a power supply status file.
func ParseStatus(text string, alpha float64) (Status, error) {
	var state State
	switch s := strings.TrimSpace(text); s {
	case "Charging":
		state = StateCharging
	case "Discharging":
		state = StateDischarging
	case "Full":
		state = StateFull
	case "Not charging":
		state = StateNotCharging
	case "Unknown":
		state = StateUnknown
	default:
		return Status{}, errors.NewParse(string(KindBattery), fmt.Sprintf("unknown battery status '%s'", s))
	}

	return Status{State: state, Remaining: NewRemaining(alpha)}, nil
}

// push feeds a charge rate (units per minute) into the estimate.
func (s *Status) push(full, charge, rate float64) {
	switch s.State {
	case StateCharging:
		s.Remaining.Push(max(0, full-charge) / rate)
	case StateDischarging:
		s.Remaining.Push(max(0, charge) / rate)
	case StateFull, StateNotCharging, StateUnknown:
	}
}

func (s Status) String() string {
	switch s.State {
	case StateCharging, StateDischarging:
		return s.Remaining.String()
	case StateFull:
		return "Full"
	case StateNotCharging:
		return "NotCharging"
	default:
		return "Unknown"
	}
}

// minutesToString renders minutes as "5h02m". Minutes that would round to
// 60 carry into the hour.
func minutesToString(total float64) string {
	hrs, mins := total/60, math.Mod(total, 60)
	if mins >= 59.5 {
		hrs++
		mins = 0
	} else {
		mins = math.Round(mins)
	}

	return fmt.Sprintf("%.0fh%02.0fm", math.Floor(hrs), mins)
}

type Battery struct {
	cfg BatteryConfig
	now func() time.Time
}

func NewBattery(cfg BatteryConfig) *Battery {
	return &Battery{cfg: cfg, now: time.Now}
}

func (*Battery) Name() string { return string(KindBattery) }

func (*Battery) Markup() string { return markupPango }

func (b *Battery) Stream(ctx context.Context) (<-chan Update, error) {
	st, err := b.setup(ctx)
	if err != nil {
		return nil, err
	}

	return spawn(ctx, b.Name(), func(ctx context.Context, emit emitFunc) {
		charges := watch.PollDiff(ctx, b.cfg.ChargeNowPath, b.cfg.Interval())
		statuses := watch.PollDiff(ctx, b.cfg.StatusPath, b.cfg.Interval())

		for charges != nil || statuses != nil {
			var u Update
			select {
			case snap, ok := <-charges:
				if !ok {
					charges = nil
					continue
				}
				u = st.onCharge(snap, b.now())
			case snap, ok := <-statuses:
				if !ok {
					statuses = nil
					continue
				}
				u = st.onStatus(snap, b.now())
			}

			if !emit(u) {
				return
			}
		}
	}), nil
}

func (b *Battery) setup(ctx context.Context) (*batteryState, error) {
	errFactory := errors.New()
	read := func(path string) (string, error) {
		text, err := watch.ReadFile(path)(ctx)
		if err != nil {
			return "", errFactory.Wrap(ErrSetupRead, err)
		}
		return text, nil
	}

	text, err := read(b.cfg.ChargeFullPath)
	if err != nil {
		return nil, err
	}
	full, err := extract.Number(text, b.Name())
	if err != nil {
		return nil, errFactory.Wrap(ErrSetupRead, err)
	}
	if full <= 0 {
		return nil, errFactory.WithData(ErrSetupRead, fmt.Sprintf("charge_full must be positive, got %v", full))
	}

	if text, err = read(b.cfg.ChargeNowPath); err != nil {
		return nil, err
	}
	charge, err := extract.Number(text, b.Name())
	if err != nil {
		return nil, errFactory.Wrap(ErrSetupRead, err)
	}

	// The status file is left to its watcher, so a bad status only
	// fails the tick it was read on.
	return &batteryState{
		alpha:  b.cfg.Alpha,
		full:   full,
		charge: charge,
		status: Status{State: StateUnknown, Remaining: NewRemaining(b.cfg.Alpha)},
		then:   b.now(),
	}, nil
}

// batteryState is owned by the block's goroutine.
type batteryState struct {
	alpha   float64
	full    float64
	charge  float64
	prev    float64
	hasPrev bool
	status  Status
	then    time.Time
}

func (s *batteryState) onCharge(snap watch.Snapshot, now time.Time) Update {
	if snap.Err != nil {
		return Update{Err: snap.Err}
	}
	charge, err := extract.Number(snap.Text, string(KindBattery))
	if err != nil {
		return Update{Err: err}
	}

	elapsed := now.Sub(s.then).Minutes()
	s.then = now
	s.charge = charge

	if s.hasPrev && elapsed > 0 {
		if rate := math.Abs(s.prev-charge) / elapsed; rate > 0 {
			s.status.push(s.full, charge, rate)
		}
	}
	s.prev, s.hasPrev = charge, true

	return Update{Text: s.String()}
}

func (s *batteryState) onStatus(snap watch.Snapshot, now time.Time) Update {
	if snap.Err != nil {
		return Update{Err: snap.Err}
	}
	status, err := ParseStatus(snap.Text, s.alpha)
	if err != nil {
		return Update{Err: err}
	}

	if status.State != s.status.State {
		s.status = status
		s.then = now
		s.hasPrev = false
	}

	return Update{Text: s.String()}
}

func (s *batteryState) String() string {
	// Recalibrated batteries may report charge_now above charge_full.
	fraction := max(0, min(1, s.charge/s.full))

	symbol := glyphPlug
	if s.status.State == StateDischarging {
		symbol = dischargeSymbol(fraction)
	}

	return fmt.Sprintf("%s %.0f%% (%s)", wrapInColour(symbol, fraction), 100*fraction, s.status)
}
