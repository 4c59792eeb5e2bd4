// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wepieces Contributors

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

const statusTimeout = 2 * time.Second

// ServerStatus holds the health of a running wepieces server.
type ServerStatus struct {
	Addr  string `json:"addr"`
	Live  bool   `json:"live"`
	Ready bool   `json:"ready"`
	Error string `json:"error,omitempty"`
}

// statusConfig holds configuration for the status command.
type statusConfig struct {
	jsonOutput bool
	addr       string
}

// NewStatusCmd creates the status subcommand.
func NewStatusCmd(g *globals) *cobra.Command {
	cfg := &statusConfig{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the health of a running wepieces server",
		Long: `Query the liveness and readiness endpoints of a running server's
observability listener (metrics.addr unless --addr is given).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			addr := cfg.addr
			if addr == "" {
				addr = g.cfg.Metrics.Addr
			}
			if addr == "" {
				return oops.Code("CONFIG_INVALID").With("key", "metrics.addr").
					Errorf("no observability address; set metrics.addr or pass --addr")
			}
			return runStatus(cmd.Context(), cmd, cfg, &http.Client{Timeout: statusTimeout}, addr)
		},
	}

	cmd.Flags().BoolVar(&cfg.jsonOutput, "json", false, "output status as JSON")
	cmd.Flags().StringVar(&cfg.addr, "addr", "", "observability address to query")

	return cmd
}

// runStatus executes the status command.
func runStatus(ctx context.Context, cmd *cobra.Command, cfg *statusConfig, client *http.Client, addr string) error {
	status := queryServerStatus(ctx, client, addr)

	if cfg.jsonOutput {
		output, err := formatStatusJSON(status)
		if err != nil {
			return err
		}
		cmd.Println(output)
		return nil
	}
	cmd.Print(formatStatusTable(status))
	return nil
}

// queryServerStatus probes the liveness and readiness endpoints.
func queryServerStatus(ctx context.Context, client *http.Client, addr string) ServerStatus {
	status := ServerStatus{Addr: addr}
	base := addr
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}

	live, err := probe(ctx, client, base+"/healthz/liveness")
	if err != nil {
		status.Error = fmt.Sprintf("failed to connect: %v", err)
		return status
	}
	status.Live = live

	ready, err := probe(ctx, client, base+"/healthz/readiness")
	if err != nil {
		status.Error = fmt.Sprintf("readiness check failed: %v", err)
		return status
	}
	status.Ready = ready
	return status
}

func probe(ctx context.Context, client *http.Client, url string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err //nolint:wrapcheck // reported as text
	}
	resp, err := client.Do(req)
	if err != nil {
		return false, err //nolint:wrapcheck // reported as text
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode == http.StatusOK, nil
}

// formatStatusTable formats the status as a human-readable table.
func formatStatusTable(status ServerStatus) string {
	var buf strings.Builder
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintln(w, "ADDRESS\tLIVE\tREADY\tDETAIL")
	_, _ = fmt.Fprintln(w, "-------\t----\t-----\t------")

	detail := "-"
	if status.Error != "" {
		detail = status.Error
	}
	_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", status.Addr, yesNo(status.Live), yesNo(status.Ready), detail)

	_ = w.Flush()
	return buf.String()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// formatStatusJSON formats the status as JSON.
func formatStatusJSON(status ServerStatus) (string, error) {
	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return "", oops.Code("STATUS_FORMAT_FAILED").Wrap(err)
	}
	return string(data), nil
}
