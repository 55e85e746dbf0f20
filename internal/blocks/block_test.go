package blocks

import (
	"context"
	"testing"
	"time"

	"codeberg.org/mutker/statusblocks/internal/errors"
	"codeberg.org/mutker/statusblocks/internal/watch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

const recvTimeout = 2 * time.Second

func nextUpdate(t *testing.T, ch <-chan Update) Update {
	t.Helper()
	select {
	case u, ok := <-ch:
		require.True(t, ok, "channel closed")
		return u
	case <-time.After(recvTimeout):
		require.FailNow(t, "timed out waiting for update")
		return Update{}
	}
}

// waitForUpdate consumes updates until match accepts one.
func waitForUpdate(t *testing.T, ch <-chan Update, match func(Update) bool) Update {
	t.Helper()
	deadline := time.After(recvTimeout)
	for {
		select {
		case u, ok := <-ch:
			require.True(t, ok, "channel closed")
			if match(u) {
				return u
			}
		case <-deadline:
			require.FailNow(t, "timed out waiting for matching update")
			return Update{}
		}
	}
}

func TestDefaultConfig(t *testing.T) {
	for _, kind := range Kinds() {
		t.Run(string(kind), func(t *testing.T) {
			cfg, err := DefaultConfig(kind)
			require.NoError(t, err)
			assert.Equal(t, kind, cfg.Kind())
			require.NoError(t, cfg.Validate())

			b, err := New(cfg)
			require.NoError(t, err)
			assert.Equal(t, string(kind), b.Name())
		})
	}
}

func TestDefaultConfigUnknownKind(t *testing.T) {
	_, err := DefaultConfig("Gpu")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrUnknownBlock))
	assert.Contains(t, err.Error(), "'Gpu'")
}

func TestNewValidates(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		code errors.ErrorCode
	}{
		{
			name: "zero period",
			cfg:  &TimeConfig{Format: "%H"},
			code: errors.ErrInvalidInterval,
		},
		{
			name: "alpha out of range",
			cfg:  &CPUConfig{Base: Base{Period: 1000, Alpha: 1.5}, StatPath: "/proc/stat"},
			code: errors.ErrInvalidConfig,
		},
		{
			name: "uncatchable signal",
			cfg: &VolumeConfig{
				Base:         Base{Period: 1000},
				UpdateSignal: watch.Signal(unix.SIGKILL),
				Command:      "pulsemixer",
			},
			code: errors.ErrSignalSetup,
		},
		{
			name: "missing command",
			cfg:  &VolumeConfig{Base: Base{Period: 1000}},
			code: ErrInvalidCommand,
		},
		{
			name: "half a network path pair",
			cfg:  &NetworkConfig{Base: Base{Period: 1000}, RxPath: "/tmp/rx"},
			code: ErrInvalidPath,
		},
		{
			name: "bad time format",
			cfg:  &TimeConfig{Base: Base{Period: 1000}, Format: "%Q"},
			code: ErrInvalidFormat,
		},
		{
			name: "non-positive max brightness",
			cfg:  &BrightnessConfig{Base: Base{Period: 1000}, Path: "/tmp/b"},
			code: errors.ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestSpawnRecoversPanic(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := spawn(ctx, "Broken", func(context.Context, emitFunc) {
		panic("boom")
	})

	u := nextUpdate(t, ch)
	require.Error(t, u.Err)
	assert.True(t, errors.HasCode(u.Err, errors.ErrBlockPanic))
	assert.Contains(t, u.Err.Error(), "boom")

	_, ok := <-ch
	assert.False(t, ok)
}
