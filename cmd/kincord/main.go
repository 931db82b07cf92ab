package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/tuikaDLC/Kincord/config"
	"github.com/tuikaDLC/Kincord/relay"
)

/* kincord relays kintone webhook events to a Discord channel.
 * main.go wires the packages together; business logic lives below it.
 */

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "kincord",
		Short:        "Kincord - kintone to Discord webhook relay",
		SilenceUsage: true,
	}

	var configPath string
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")

	rootCmd.AddCommand(serveCmd(&configPath))
	rootCmd.AddCommand(diagnoseCmd(&configPath))
	rootCmd.AddCommand(testDiscordCmd(&configPath))
	rootCmd.AddCommand(findPortCmd(&configPath))
	rootCmd.AddCommand(validateConfigCmd(&configPath))
	rootCmd.AddCommand(statusCmd(&configPath))
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "Kincord v%s\n", relay.Version)
		},
	}
}

// loadConfig loads and validates the config, then logs its warnings.
func loadConfig(path string) (*config.Loader, *config.Config, zerolog.Logger, error) {
	loader := config.NewLoader(path)
	cfg, err := loader.Load()
	if err != nil {
		return nil, nil, zerolog.Nop(), fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, zerolog.Nop(), err
	}

	log := setupLogger(cfg.Logging, os.Stderr)
	if f := loader.File(); f != "" {
		log.Debug().Str("file", f).Msg("config loaded")
	}
	for _, w := range cfg.Warnings() {
		log.Warn().Msg(w)
	}
	return loader, cfg, log, nil
}

func setupLogger(cfg config.LoggingConfig, out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		return zerolog.New(zerolog.ConsoleWriter{Out: out}).
			With().Timestamp().Logger()
	}
	return zerolog.New(out).With().Timestamp().Logger()
}
