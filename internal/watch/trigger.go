package watch

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"codeberg.org/mutker/statusblocks/internal/errors"
	"golang.org/x/sys/unix"
)

// First real-time signal available to applications; glibc reserves 32 and 33.
const (
	sigRTMin = 34
	sigRTMax = 64
)

// Signal is an update signal number. Zero disables the signal trigger. In
// TOML it may be written as a number or as a name like "SIGUSR1" or "USR1".
type Signal int

// UnmarshalTOML implements toml.Unmarshaler.
func (s *Signal) UnmarshalTOML(value any) error {
	switch v := value.(type) {
	case int64:
		*s = Signal(v)
		return nil
	case string:
		name := strings.ToUpper(strings.TrimSpace(v))
		if !strings.HasPrefix(name, "SIG") {
			name = "SIG" + name
		}
		num := unix.SignalNum(name)
		if num == 0 {
			return fmt.Errorf("unknown signal %q", v)
		}
		*s = Signal(num)
		return nil
	default:
		return fmt.Errorf("signal must be a number or a name, got %T", value)
	}
}

// Validate checks that the signal can be caught.
func (s Signal) Validate() error {
	errFactory := errors.New()
	sig := syscall.Signal(s)

	switch {
	case s == 0:
		return nil
	case sig == unix.SIGKILL || sig == unix.SIGSTOP:
		return errFactory.WithData(errors.ErrSignalSetup, fmt.Sprintf("%s cannot be caught", unix.SignalName(sig)))
	case s >= sigRTMin && s <= sigRTMax:
		return nil
	case s > 0 && unix.SignalName(sig) != "":
		return nil
	default:
		return errFactory.WithData(errors.ErrSignalSetup, fmt.Sprintf("invalid signal number %d", int(s)))
	}
}

func (s Signal) String() string {
	if name := unix.SignalName(syscall.Signal(s)); name != "" {
		return name
	}
	if s >= sigRTMin && s <= sigRTMax {
		return fmt.Sprintf("SIGRTMIN+%d", int(s)-sigRTMin)
	}

	return fmt.Sprintf("signal %d", int(s))
}

// Trigger fires when its signal arrives or when its period elapses,
// whichever comes first.
type Trigger struct {
	period  time.Duration
	signals chan os.Signal
}

// NewTrigger registers sig (if non-zero) and returns a trigger that fires at
// least once per period. Registration problems are setup errors.
func NewTrigger(period time.Duration, sig Signal) (*Trigger, error) {
	errFactory := errors.New()

	if period <= 0 {
		return nil, errFactory.WithData(errors.ErrInvalidInterval, period.String())
	}
	if err := sig.Validate(); err != nil {
		return nil, err
	}

	t := &Trigger{period: period}
	if sig != 0 {
		t.signals = make(chan os.Signal, 1)
		signal.Notify(t.signals, syscall.Signal(sig))
	}

	return t, nil
}

// Wait blocks until the trigger fires or ctx is done.
func (t *Trigger) Wait(ctx context.Context) error {
	timer := time.NewTimer(t.period)
	defer timer.Stop()

	// A nil channel never fires, leaving only the timeout.
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	case <-t.signals:
	}

	return nil
}

// Stop unregisters the signal.
func (t *Trigger) Stop() {
	if t.signals != nil {
		signal.Stop(t.signals)
	}
}
