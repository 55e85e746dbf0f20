package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"codeberg.org/mutker/statusblocks/internal/bar"
	"codeberg.org/mutker/statusblocks/internal/blocks"
	"codeberg.org/mutker/statusblocks/internal/config"
	"codeberg.org/mutker/statusblocks/internal/errors"
	"codeberg.org/mutker/statusblocks/internal/logger"
	"codeberg.org/mutker/statusblocks/internal/pid"
	"github.com/spf13/pflag"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	level, _ := logger.ParseLevel(cfg.LogLevel.String())
	logger.Init(level, logger.IsService())
	logger.Debug().Str("path", cfg.Path).Int("blocks", len(cfg.Blocks)).Msg("Config loaded")

	bs, err := build(cfg.Blocks)
	if err != nil {
		fatal(err, "Invalid block configuration")
	}

	if cfg.PIDFile != "" {
		if err := pid.Write(cfg.PIDFile); err != nil {
			fatal(err, "Failed to write PID file")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	if err := run(ctx, cfg.Protocol, bs); err != nil {
		logger.Error().Err(err).Msg("Error in main loop")
	}
	cleanup(cfg)
}

func build(cfgs []blocks.Config) ([]blocks.Block, error) {
	bs := make([]blocks.Block, 0, len(cfgs))
	for _, c := range cfgs {
		b, err := blocks.New(c)
		if err != nil {
			return nil, err
		}
		bs = append(bs, b)
	}

	return bs, nil
}

func run(ctx context.Context, protocol bar.Protocol, bs []blocks.Block) error {
	enc := bar.NewEncoder(os.Stdout, protocol)

	for snapshot := range bar.New(bs...).Stream(ctx) {
		if err := enc.Encode(snapshot); err != nil {
			return errors.New().Wrap(errors.ErrMainLoop, err)
		}
	}

	return nil
}

// fatal logs err with its error code when it has one, and exits.
func fatal(err error, msg string) {
	var appErr errors.Error
	if errors.As(err, &appErr) {
		logger.FatalWithCode(appErr).Msg(msg)
	}
	logger.Fatal().Err(err).Msg(msg)
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}

func cleanup(cfg *config.Config) {
	if cfg.PIDFile != "" {
		if err := pid.Remove(cfg.PIDFile); err != nil {
			logger.Error().Err(err).Msg("Failed to remove PID file")
		}
	}
	logger.Info().Msg("Exiting...")
}
