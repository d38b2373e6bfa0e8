package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

const programName = "spkkn"

var globalFlags = struct {
	configFile string
	debug      bool
}{}

func commonRun() *slog.Logger {
	logLevel := slog.LevelInfo
	if globalFlags.debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(
		slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: logLevel,
		}),
	)
	slog.SetDefault(logger)
	return logger
}

func main() {
	rootCmd := &cobra.Command{
		Use:   programName,
		Short: "word marketplace server and registry tooling",
	}

	rootCmd.PersistentFlags().StringVar(
		&globalFlags.configFile, "config", "config.yaml", "path to config file",
	)
	rootCmd.PersistentFlags().BoolVar(
		&globalFlags.debug, "debug", false, "enable debug logging",
	)

	rootCmd.AddCommand(
		serveCommand(),
		seedCommand(),
		resetCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
