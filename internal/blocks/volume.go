package blocks

import (
	"context"
	"fmt"
	"regexp"

	"codeberg.org/mutker/statusblocks/internal/errors"
	"codeberg.org/mutker/statusblocks/internal/extract"
	"codeberg.org/mutker/statusblocks/internal/watch"
	"golang.org/x/sys/unix"
)

const (
	defaultVolumePeriod  = 2000
	defaultVolumeCommand = "pulsemixer"
)

var volumePattern = regexp.MustCompile(`(?P<mute>\d)\n(?P<level>\d+)`)

// VolumeConfig runs Command with Args, which must print the mute flag on
// the first line and the level on the second.
type VolumeConfig struct {
	Base
	UpdateSignal watch.Signal `toml:"update_signal"`
	Command      string       `toml:"command"`
	Args         []string     `toml:"args"`
}

func DefaultVolumeConfig() *VolumeConfig {
	return &VolumeConfig{
		Base:         Base{Period: defaultVolumePeriod},
		UpdateSignal: watch.Signal(unix.SIGUSR2),
		Command:      defaultVolumeCommand,
		Args:         []string{"--get-mute", "--get-volume"},
	}
}

func (*VolumeConfig) Kind() Kind { return KindVolume }

func (c *VolumeConfig) Validate() error {
	if err := c.validate(KindVolume, false); err != nil {
		return err
	}
	if c.Command == "" {
		return errors.New().WithData(ErrInvalidCommand, "Volume: command is required")
	}

	return c.UpdateSignal.Validate()
}

func (*VolumeConfig) isConfig() {}

type VolumeState struct {
	Muted bool `mapstructure:"mute"`
	Level int  `mapstructure:"level"`
}

// ParseVolume parses mixer output such as "0\n70 70\n".
func ParseVolume(text string) (VolumeState, error) {
	var v VolumeState
	if err := extract.Into(volumePattern, text, string(KindVolume), &v); err != nil {
		return VolumeState{}, err
	}

	return v, nil
}

func (v VolumeState) String() string {
	if v.Muted {
		return glyphMute
	}

	return fmt.Sprintf("%s %d%%", glyphVolume, v.Level)
}

type Volume struct {
	cfg VolumeConfig
}

func NewVolume(cfg VolumeConfig) *Volume {
	return &Volume{cfg: cfg}
}

func (*Volume) Name() string { return string(KindVolume) }

func (*Volume) Markup() string { return "" }

func (v *Volume) Stream(ctx context.Context) (<-chan Update, error) {
	trigger, err := watch.NewTrigger(v.cfg.Interval(), v.cfg.UpdateSignal)
	if err != nil {
		return nil, err
	}
	read := watch.Command(v.Name(), v.cfg.Command, v.cfg.Args...)

	return spawn(ctx, v.Name(), func(ctx context.Context, emit emitFunc) {
		defer trigger.Stop()

		for snap := range watch.TriggerRead(ctx, trigger, read) {
			u := Update{Err: snap.Err}
			if snap.Err == nil {
				if state, err := ParseVolume(snap.Text); err != nil {
					u.Err = err
				} else {
					u.Text = state.String()
				}
			}

			if !emit(u) {
				return
			}
		}
	}), nil
}
