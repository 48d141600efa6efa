package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ghalamif/catalink"
)

var proxiesFlags struct {
	ranks   int
	channel string
	mesh    string
}

var proxiesCmd = &cobra.Command{
	Use:   "proxies",
	Short: "Run one step with extracts and live off and list the transport proxies",
	RunE:  runProxies,
}

func init() {
	f := proxiesCmd.Flags()
	f.IntVar(&proxiesFlags.ranks, "ranks", 1, "Number of simulated ranks")
	f.StringVar(&proxiesFlags.channel, "channel", "", "Channel the simulation publishes on (default the mesh name)")
	f.StringVar(&proxiesFlags.mesh, "mesh", meshUniform, "Mesh kind: uniform or explicit")
}

func runProxies(cmd *cobra.Command, _ []string) error {
	if proxiesFlags.ranks < 1 {
		return fmt.Errorf("--ranks must be >= 1")
	}
	kind, channel, err := meshChannel(proxiesFlags.mesh, proxiesFlags.channel)
	if err != nil {
		return err
	}
	cfg, err := catalink.ParseConfig([]byte("extracts: {enabled: false}\nlive: {enabled: false}\n"))
	if err != nil {
		return err
	}
	cfg.Channels = []string{channel}

	host, err := catalink.NewHost(cfg, catalink.WithObservability(quietObs{}))
	if err != nil {
		return err
	}
	defer host.Close(context.Background())

	if err := simulate(cmd.Context(), host, kind, channel, proxiesFlags.ranks, 1, 0); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, p := range host.Proxies() {
		fmt.Fprintf(out, "%s (%s)\n", p.Name, p.Class)
		if len(p.Properties) > 0 {
			fmt.Fprintf(out, "  %s\n", strings.Join(p.Properties, ", "))
		}
	}
	return nil
}

type quietObs struct{}

func (quietObs) LogInfo(string, ...catalink.Field)            {}
func (quietObs) LogWarn(string, ...catalink.Field)            {}
func (quietObs) LogError(string, error, ...catalink.Field)    {}
func (quietObs) LogCritical(string, error, ...catalink.Field) {}
func (quietObs) IncCounter(string, float64)                   {}
func (quietObs) ObserveLatency(string, float64)               {}
func (quietObs) SetGauge(string, float64)                     {}
func (quietObs) RecordDataGap(string, int64, error)           {}
