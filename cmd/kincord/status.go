package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/tuikaDLC/Kincord/status"
	statusredis "github.com/tuikaDLC/Kincord/status/redis"
	"gopkg.in/yaml.v3"
)

// statusReader is the read side of the shared Redis status store.
type statusReader interface {
	GetHeartbeat(ctx context.Context, instanceID string) (status.Heartbeat, error)
	ListHeartbeats(ctx context.Context) ([]status.Heartbeat, error)
	ResultCounts(ctx context.Context) (map[string]int64, error)
}

// clusterStatus is what `kincord status` prints.
type clusterStatus struct {
	Instances []status.Heartbeat `json:"instances" yaml:"instances"`
	Results   map[string]int64   `json:"results" yaml:"results"`
}

func statusCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show live relay instances and shared event counters from Redis",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			instance, _ := cmd.Flags().GetString("instance")

			_, cfg, _, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if cfg.Redis.Addr == "" {
				return fmt.Errorf("redis.addr is not configured")
			}

			repo, err := statusredis.NewRepository(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
			if err != nil {
				return err
			}
			defer repo.Close(cmd.Context())

			st, err := collectStatus(cmd.Context(), repo, instance)
			if err != nil {
				return err
			}
			return writeStatus(cmd.OutOrStdout(), st, format)
		},
	}
	cmd.Flags().StringP("format", "f", "text", "output format: text, json or yaml")
	cmd.Flags().String("instance", "", "show only this instance id")
	return cmd
}

func collectStatus(ctx context.Context, r statusReader, instance string) (clusterStatus, error) {
	var st clusterStatus

	if instance != "" {
		hb, err := r.GetHeartbeat(ctx, instance)
		if errors.Is(err, statusredis.ErrNotFound) {
			return st, fmt.Errorf("instance %s has no live heartbeat", instance)
		}
		if err != nil {
			return st, err
		}
		st.Instances = []status.Heartbeat{hb}
	} else {
		beats, err := r.ListHeartbeats(ctx)
		if err != nil {
			return st, err
		}
		sort.Slice(beats, func(i, j int) bool { return beats[i].InstanceID < beats[j].InstanceID })
		st.Instances = beats
	}

	counts, err := r.ResultCounts(ctx)
	if err != nil {
		return st, err
	}
	st.Results = counts
	return st, nil
}

func writeStatus(w io.Writer, st clusterStatus, format string) error {
	switch format {
	case "json":
		out, err := json.MarshalIndent(st, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding status: %w", err)
		}
		fmt.Fprintln(w, string(out))
	case "yaml":
		out, err := yaml.Marshal(st)
		if err != nil {
			return fmt.Errorf("encoding status: %w", err)
		}
		fmt.Fprint(w, string(out))
	case "text", "":
		if len(st.Instances) == 0 {
			fmt.Fprintln(w, "No live instances.")
		} else {
			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "INSTANCE\tHOST\tSTATE\tADDR\tVERSION\tUPDATED")
			for _, hb := range st.Instances {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
					hb.InstanceID, hb.Hostname, hb.State, hb.Addr, hb.Version, hb.UpdatedAt.Format(time.RFC3339))
			}
			tw.Flush()
		}

		names := make([]string, 0, len(st.Results))
		for name := range st.Results {
			names = append(names, name)
		}
		sort.Strings(names)
		parts := make([]string, 0, len(names))
		for _, name := range names {
			parts = append(parts, fmt.Sprintf("%s=%d", name, st.Results[name]))
		}
		if len(parts) == 0 {
			parts = append(parts, "none")
		}
		fmt.Fprintf(w, "\nEvents: %s\n", strings.Join(parts, " "))
	default:
		return fmt.Errorf("unknown format %q", format)
	}
	return nil
}
