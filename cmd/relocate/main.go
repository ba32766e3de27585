package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/polzovatel/relocate/internal/config"
)

type app struct {
	cfg config.Config
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(&app{cfg: config.FromEnv()})
	if err := root.ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("relocate failed")
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "relocate",
		Short:         "Re-find an element of an old HTML snapshot in a newer one",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setupLogging(cmd)
		},
	}
	root.PersistentFlags().String("log-level", a.cfg.LogLevel, "log level (debug|info|warn|error)")
	root.PersistentFlags().Bool("log-json", a.cfg.LogJSON, "write logs as JSON")

	root.AddCommand(
		newResolveCmd(a),
		newLocateCmd(a),
		newAnalyzeCmd(a),
		newCaptureCmd(a),
		newBatchCmd(a),
	)
	return root
}

func (a *app) setupLogging(cmd *cobra.Command) error {
	levelName, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return err
	}
	asJSON, err := cmd.Flags().GetBool("log-json")
	if err != nil {
		return err
	}
	level := zerolog.InfoLevel
	if strings.TrimSpace(levelName) != "" {
		if level, err = zerolog.ParseLevel(strings.ToLower(levelName)); err != nil {
			return err
		}
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	out := cmd.ErrOrStderr()
	if asJSON {
		log.Logger = zerolog.New(out).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: out})
	}
	log.Logger = log.Logger.Level(level)
	return nil
}

func component(name string) zerolog.Logger {
	return log.With().Str("comp", name).Logger()
}
