package config

import (
	"fmt"
	"strings"
)

// Option adjusts how Load finds its inputs.
type Option func(*options) error

type options struct {
	configPath string
	envPrefix  string
}

// WithConfigFile loads path and skips the argument, environment and XDG
// lookup.
func WithConfigFile(path string) Option {
	return func(o *options) error {
		o.configPath = path
		return nil
	}
}

// WithEnvPrefix changes the prefix of STATUSBLOCKS_CONFIG and the
// STATUSBLOCKS_SETTINGS_* overrides. The prefix is upper-cased.
func WithEnvPrefix(prefix string) Option {
	return func(o *options) error {
		prefix = strings.ToUpper(strings.TrimSpace(prefix))
		if prefix == "" {
			return fmt.Errorf("environment prefix must not be empty")
		}
		o.envPrefix = prefix
		return nil
	}
}

// LogLevel is the value of settings.log_level and --log-level.
type LogLevel string

const (
	LogLevelDebug   LogLevel = "debug"
	LogLevelInfo    LogLevel = "info"
	LogLevelWarning LogLevel = "warning"
	LogLevelError   LogLevel = "error"
)

// IsValid reports whether the logger understands l.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarning, LogLevelError:
		return true
	default:
		return false
	}
}

func (l LogLevel) String() string {
	return string(l)
}
