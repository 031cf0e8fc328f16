// Command scenecoach turns subtitle files into practice scenes and grades
// spoken practice attempts, either from the command line or as an HTTP
// service.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MrWong99/scenecoach/internal/config"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	root := newRootCmd()
	root.SetArgs(args)
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "scenecoach: %v\n", err)
		return 1
	}
	return 0
}

// options holds the persistent flags shared by every subcommand.
type options struct {
	configPath string
	logLevel   string

	// level backs the default logger so the serve command can change it on
	// config reload.
	level *slog.LevelVar
}

func newRootCmd() *cobra.Command {
	opts := &options{level: new(slog.LevelVar)}

	root := &cobra.Command{
		Use:           "scenecoach",
		Short:         "Turn subtitles into speaking practice scenes and grade attempts",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			lvl := config.LogLevel(strings.ToLower(opts.logLevel))
			if lvl != "" && !lvl.IsValid() {
				return fmt.Errorf("--log-level %q is invalid; valid values: debug, info, warn, error", opts.logLevel)
			}
			opts.level.Set(lvl.SlogLevel())
			slog.SetDefault(newLogger(opts.level))
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to the YAML configuration file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	root.AddCommand(
		newScenesCmd(opts),
		newScoreCmd(opts),
		newServeCmd(opts),
	)
	return root
}

// loadConfig reads the --config file, or returns the defaults when none was
// given. An explicit --log-level wins over the file.
func (o *options) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configPath == "" {
		cfg, err = config.LoadFromReader(strings.NewReader(""))
	} else {
		cfg, err = config.Load(o.configPath)
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config file %q not found", o.configPath)
		}
	}
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.Server.LogLevel = config.LogLevel(strings.ToLower(o.logLevel))
	}
	o.level.Set(cfg.Server.LogLevel.SlogLevel())
	return cfg, nil
}

// ── Logger ─────────────────────────────────────────────────────────────────────

func newLogger(level slog.Leveler) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
