package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"hexactf/internal/app"
)

func main() {
	cfg := app.DefaultConfig()
	if err := app.FromEnv(&cfg); err != nil {
		fmt.Fprintln(os.Stderr, "hexactf:", err)
		os.Exit(1)
	}

	flag.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "competition server base URL")
	flag.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "per-request timeout")
	flag.DurationVar(&cfg.PollInterval, "poll", cfg.PollInterval, "instance reconcile interval (0 disables)")
	flag.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "directory for local state")
	flag.StringVar(&cfg.LogPath, "log", cfg.LogPath, "JSON log file (empty discards)")
	flag.BoolVar(&cfg.ASCIIOnly, "ascii", cfg.ASCIIOnly, "draw borders with ASCII only")
	flag.BoolVar(&cfg.Debug, "debug", cfg.Debug, "verbose UI logging")
	flag.BoolVar(&cfg.Demo, "demo", cfg.Demo, "run against the built-in demo backend")
	flag.StringVar(&cfg.UI.StyleVariant, "style", cfg.UI.StyleVariant, "theme: hex_dark, paper_light, terminal_green")
	flag.StringVar(&cfg.UI.MotionLevel, "motion", cfg.UI.MotionLevel, "animation: full, reduced, off")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "hexactf:", err)
		os.Exit(1)
	}

	a, err := app.New(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "hexactf:", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := a.Run(ctx)
	a.Close()
	if runErr != nil {
		fmt.Fprintln(os.Stderr, "hexactf:", runErr)
		os.Exit(1)
	}
}
