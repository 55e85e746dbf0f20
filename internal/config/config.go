// Package config loads the process settings and the ordered list of block
// configurations from flags, environment and a TOML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"codeberg.org/mutker/statusblocks/internal/bar"
	"codeberg.org/mutker/statusblocks/internal/blocks"
	"codeberg.org/mutker/statusblocks/internal/errors"
	"codeberg.org/mutker/statusblocks/internal/pid"
	"github.com/BurntSushi/toml"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	appName          = "statusblocks"
	defaultEnvPrefix = "STATUSBLOCKS"
	configFileName   = "config.toml"

	// settingsTable is reserved for process settings; every other top-level
	// table is a block.
	settingsTable = "settings"

	DefaultLogLevel = LogLevelWarning
	DefaultProtocol = bar.ProtocolJSON
)

const (
	keyLogLevel = settingsTable + ".log_level"
	keyProtocol = settingsTable + ".protocol"
	keyPIDFile  = settingsTable + ".pid_file"
)

type Config struct {
	// Path is the configuration file that was loaded.
	Path     string
	LogLevel LogLevel
	Protocol bar.Protocol
	// PIDFile is empty when no PID file should be written.
	PIDFile string
	// Blocks in display order.
	Blocks []blocks.Config
}

// Load parses args (without the program name) and loads the configuration.
// Settings resolve as flag, then environment, then file, then default.
// A --help request returns pflag.ErrHelp.
func Load(args []string, opts ...Option) (*Config, error) {
	errFactory := errors.New()

	o := options{envPrefix: defaultEnvPrefix}
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, errFactory.Wrap(errors.ErrInvalidArgument, err)
		}
	}

	fs := newFlagSet()
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, err
		}
		return nil, errFactory.Wrap(errors.ErrInvalidArgument, err)
	}

	v := viper.New()
	v.SetEnvPrefix(o.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetDefault(keyLogLevel, string(DefaultLogLevel))
	v.SetDefault(keyProtocol, string(DefaultProtocol))
	v.SetDefault(keyPIDFile, pid.DefaultPath())

	for key, flag := range map[string]string{
		keyLogLevel: "log-level",
		keyProtocol: "protocol",
		keyPIDFile:  "pid-file",
	} {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return nil, errFactory.Wrap(errors.ErrBindFlags, err)
		}
	}

	path, err := resolvePath(o, fs)
	if err != nil {
		return nil, err
	}

	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, errFactory.Wrap(errors.ErrReadConfig, err)
	}

	cfg := &Config{
		Path:     path,
		LogLevel: LogLevel(strings.ToLower(v.GetString(keyLogLevel))),
		Protocol: bar.Protocol(v.GetString(keyProtocol)),
		PIDFile:  v.GetString(keyPIDFile),
	}

	if cfg.Blocks, err = decodeBlocks(path); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet(appName, pflag.ContinueOnError)
	fs.StringP("config", "c", "", "Path to the configuration file")
	fs.String("log-level", string(DefaultLogLevel), "Log level (debug, info, warning, error)")
	fs.String("protocol", string(DefaultProtocol), "Output protocol (json, i3bar)")
	fs.String("pid-file", pid.DefaultPath(), "PID file for signalling the bar; empty disables it")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] [CONFIG]\n\n", appName)
		fs.PrintDefaults()
	}

	return fs
}

// resolvePath picks the configuration file: explicit option, positional
// argument, --config, environment, then the XDG locations.
func resolvePath(o options, fs *pflag.FlagSet) (string, error) {
	errFactory := errors.New()

	if o.configPath != "" {
		return o.configPath, nil
	}
	if fs.NArg() > 1 {
		return "", errFactory.WithData(errors.ErrInvalidArgument, fmt.Sprintf("expected at most one configuration file, got %d", fs.NArg()))
	}
	if fs.NArg() == 1 {
		return fs.Arg(0), nil
	}
	if path, _ := fs.GetString("config"); path != "" {
		return path, nil
	}
	if path := os.Getenv(o.envPrefix + "_CONFIG"); path != "" {
		return path, nil
	}

	for _, path := range searchPaths() {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", errFactory.WithData(errors.ErrMissingConfig, strings.Join(searchPaths(), ", "))
}

func searchPaths() []string {
	var paths []string
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		paths = append(paths, filepath.Join(dir, appName, configFileName))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", appName, configFileName))
	}

	return paths
}

// decodeBlocks decodes every top-level table except settings into its block
// configuration, keeping the order of the file.
func decodeBlocks(path string) ([]blocks.Config, error) {
	errFactory := errors.New()

	var tables map[string]toml.Primitive
	md, err := toml.DecodeFile(path, &tables)
	if err != nil {
		return nil, errFactory.Wrap(errors.ErrReadConfig, err)
	}

	var out []blocks.Config
	for _, key := range md.Keys() {
		if len(key) != 1 || key[0] == settingsTable {
			continue
		}

		cfg, err := blocks.DefaultConfig(blocks.Kind(key[0]))
		if err != nil {
			return nil, err
		}
		if err := md.PrimitiveDecode(tables[key[0]], cfg); err != nil {
			return nil, errFactory.Wrap(errors.ErrDecodeBlock, fmt.Errorf("%s: %w", key[0], err))
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}

		out = append(out, cfg)
	}

	var unknown []string
	for _, key := range md.Undecoded() {
		if key[0] != settingsTable {
			unknown = append(unknown, key.String())
		}
	}
	if len(unknown) > 0 {
		return nil, errFactory.WithData(errors.ErrInvalidConfig, fmt.Sprintf("unknown keys: %s", strings.Join(unknown, ", ")))
	}

	return out, nil
}

// Validate checks the settings and that at least one block is configured.
func (c *Config) Validate() error {
	errFactory := errors.New()

	if !c.LogLevel.IsValid() {
		return errFactory.WithData(errors.ErrInvalidLogLevel, fmt.Sprintf("'%s'", c.LogLevel))
	}
	if _, err := bar.ParseProtocol(string(c.Protocol)); err != nil {
		return err
	}
	if len(c.Blocks) == 0 {
		return errFactory.WithData(errors.ErrInvalidConfig, fmt.Sprintf("no blocks configured in %s", c.Path))
	}

	return nil
}
