package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var statsFlags struct {
	url      string
	interval time.Duration
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Poll the metrics endpoint of a running simulation and print live counters",
	RunE:  runStats,
}

func init() {
	f := statsCmd.Flags()
	f.StringVar(&statsFlags.url, "url", "http://localhost:9100/metrics", "Prometheus metrics endpoint")
	f.DurationVar(&statsFlags.interval, "interval", 2*time.Second, "Refresh interval")
}

var statsTargets = []string{
	"catalink_cycles_total",
	"catalink_extracts_written_total",
	"catalink_extract_failures_total",
	"catalink_reveals_total",
	"catalink_data_gaps_total",
	"catalink_active_channels",
}

func runStats(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(statsFlags.interval)
	defer ticker.Stop()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Streaming metrics from %s (Ctrl+C to stop)\n", statsFlags.url)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := printMetricsSnapshot(ctx, out, statsFlags.url); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "stats error: %v\n", err)
			}
		}
	}
}

func printMetricsSnapshot(ctx context.Context, out io.Writer, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	values, err := scanMetrics(resp.Body, statsTargets)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "[%s] cycles=%g extracts=%g failures=%g reveals=%g gaps=%g active=%g\n",
		time.Now().Format(time.RFC3339),
		values["catalink_cycles_total"],
		values["catalink_extracts_written_total"],
		values["catalink_extract_failures_total"],
		values["catalink_reveals_total"],
		values["catalink_data_gaps_total"],
		values["catalink_active_channels"],
	)
	return nil
}

// scanMetrics pulls unlabelled samples for keys out of a text exposition.
func scanMetrics(r io.Reader, keys []string) (map[string]float64, error) {
	values := make(map[string]float64, len(keys))
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "#") {
			continue
		}
		for _, key := range keys {
			if strings.HasPrefix(line, key+" ") {
				var value float64
				if _, err := fmt.Sscanf(line, key+" %g", &value); err == nil {
					values[key] = value
				}
			}
		}
	}
	return values, scanner.Err()
}
