// Command pedbp classifies pediatric blood pressure measurements from files
// or over HTTP.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/okian/pedbp/internal/config"
	"github.com/okian/pedbp/internal/domain/reference"
	"github.com/okian/pedbp/pkg/logger"
)

type configKey struct{}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "pedbp",
		Usage: "Pediatric blood pressure classification",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "YAML config file (also PEDBP_CONFIG)",
			},
		},
		Before: setup,
		Commands: []*cli.Command{
			newServeCommand(),
			newEvaluateCommand(),
			newLookupCommand(),
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "pedbp: "+err.Error())
		stop()
		os.Exit(1)
	}
}

// setup loads configuration and initializes logging on stderr, leaving
// stdout to command output.
func setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if path := cmd.String("config"); path != "" {
		if err := os.Setenv("PEDBP_CONFIG", path); err != nil {
			return ctx, err
		}
	}
	cfg, err := config.Load(ctx)
	if err != nil {
		return ctx, fmt.Errorf("failed to load config: %w", err)
	}

	format, _ := logger.ParseFormat(cfg.LogFormat)
	if err := logger.InitWith(cmd.Root().ErrWriter, format); err != nil {
		return ctx, fmt.Errorf("failed to initialize logging: %w", err)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return context.WithValue(ctx, configKey{}, cfg), nil
}

func configFrom(ctx context.Context) (*config.Config, error) {
	if cfg, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return cfg, nil
	}
	return config.Load(ctx)
}

// loadTable returns the table at path, or nil for the bundled one.
func loadTable(path string) (*reference.Table, error) {
	if path == "" {
		return nil, nil
	}
	t, err := reference.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reference table %s: %w", path, err)
	}
	return t, nil
}

// warnBundled logs when no reference table path is configured.
func warnBundled(ctx context.Context, path string) {
	if path == "" {
		logger.Get().Warn(ctx, reference.IllustrativeWarning)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
