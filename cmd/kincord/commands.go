package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/tuikaDLC/Kincord/config"
	"github.com/tuikaDLC/Kincord/diagnostics"
	"github.com/tuikaDLC/Kincord/discord"
	"gopkg.in/yaml.v3"
)

var errUnhealthy = errors.New("diagnostics reported problems")

func diagnoseCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diagnose",
		Short: "Check the listen port, the Discord webhook and kintone reachability",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")

			_, cfg, log, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			client := newDiscordClient(*cfg, log, nil)
			prober := diagnostics.NewProber(config.Static(*cfg), client, diagnostics.WithLogger(log))
			report := prober.Run(cmd.Context())

			if err := writeReport(cmd.OutOrStdout(), report, format); err != nil {
				return err
			}
			if !report.IsHealthy() {
				return errUnhealthy
			}
			return nil
		},
	}
	cmd.Flags().StringP("format", "f", "text", "output format: text, json or yaml")
	return cmd
}

func writeReport(w io.Writer, report diagnostics.Report, format string) error {
	switch format {
	case "json":
		out, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding report: %w", err)
		}
		fmt.Fprintln(w, string(out))
	case "yaml":
		out, err := yaml.Marshal(report)
		if err != nil {
			return fmt.Errorf("encoding report: %w", err)
		}
		fmt.Fprint(w, string(out))
	case "text", "":
		fmt.Fprintf(w, "Port available:     %t\n", report.PortAvailable)
		fmt.Fprintf(w, "Discord reachable:  %t\n", report.EndpointReachable)
		if report.UpstreamChecked {
			fmt.Fprintf(w, "kintone reachable:  %t\n", report.UpstreamReachable)
		}
		fmt.Fprintf(w, "Firewall:           %s\n\n", report.FirewallStatus)
		fmt.Fprintln(w, report.Summary())
	default:
		return fmt.Errorf("unknown format %q", format)
	}
	return nil
}

func testDiscordCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "test-discord",
		Short: "Send a test message to the configured Discord webhook",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cfg, log, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if cfg.Discord.WebhookURL == "" {
				return discord.ErrEndpointNotConfigured
			}

			client := newDiscordClient(*cfg, log, nil)
			if !client.TestConnectivity(cmd.Context(), cfg.Discord.WebhookURL, cfg.Discord.Username) {
				return fmt.Errorf("discord webhook did not accept the test message")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✓ Test message delivered")
			return nil
		},
	}
}

func findPortCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "find-port",
		Short: "Print the first free port at or above --start",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, _ := cmd.Flags().GetInt("start")
			if start <= 0 {
				_, cfg, _, err := loadConfig(*configPath)
				if err != nil {
					return err
				}
				start = cfg.Server.Port
			}

			port, err := diagnostics.FindAvailablePort(start)
			if err != nil {
				return fmt.Errorf("searching ports %d-%d: %w", start, start+diagnostics.PortSearchRange, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), port)
			return nil
		},
	}
	cmd.Flags().Int("start", 0, "first port to try (defaults to server.port)")
	return cmd
}

/* validate-config loads the config file the same way serve does and
 * prints the effective settings. Exit codes: 0 = valid, 1 = invalid
 */
func validateConfigCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "validate-config",
		Short: "Validate the config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			loader := config.NewLoader(*configPath)
			cfg, err := loader.Load()
			if err == nil {
				err = cfg.Validate()
			}
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "❌ VALIDATION FAILED\n\nError: %v\n", err)
				return err
			}

			file := loader.File()
			if file == "" {
				file = "(defaults and environment only)"
			}
			fmt.Fprintf(w, "Validating config: %s\n\n", file)
			fmt.Fprintf(w, "✓ VALIDATION PASSED\n\n")
			fmt.Fprintf(w, "   Listen address:  %s\n", cfg.Server.Addr())
			fmt.Fprintf(w, "   Auto start:      %t\n", cfg.Server.AutoStart)
			fmt.Fprintf(w, "   Token check:     %t\n", cfg.Kintone.WebhookToken != "")
			fmt.Fprintf(w, "   Discord webhook: %t\n", cfg.Discord.WebhookURL != "")
			fmt.Fprintf(w, "   Locale:          %s\n", cfg.Discord.Locale)
			if cfg.Redis.Addr != "" {
				fmt.Fprintf(w, "   Redis:           %s\n", cfg.Redis.Addr)
			}
			if cfg.Diagnostics.Schedule != "" {
				fmt.Fprintf(w, "   Diagnostics:     %s\n", cfg.Diagnostics.Schedule)
			}

			if warnings := cfg.Warnings(); len(warnings) > 0 {
				fmt.Fprintf(w, "\nWarnings:\n")
				for _, warning := range warnings {
					fmt.Fprintf(w, "- %s\n", warning)
				}
			}
			return nil
		},
	}
}
