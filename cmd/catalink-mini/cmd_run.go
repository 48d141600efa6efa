package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ghalamif/catalink"
)

var runFlags struct {
	config    string
	steps     int
	ranks     int
	stepDelay time.Duration
	channel   string
	mesh      string
}

var runCmd = &cobra.Command{
	Use:   "run [-- script args]",
	Short: "Run the mini simulation through the adapter",
	Long: "Run steps of the uniform or explicit mini simulation, publishing one partition\n" +
		"per rank each step. Arguments after -- are passed to the pipeline as script args.",
	RunE: runSimulation,
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runFlags.config, "config", "", "Pipeline config (default $"+envPipelinePath+")")
	f.IntVar(&runFlags.steps, "steps", 20, "Number of simulation steps")
	f.IntVar(&runFlags.ranks, "ranks", 1, "Number of simulated ranks")
	f.DurationVar(&runFlags.stepDelay, "step-delay", time.Second, "Pause between steps")
	f.StringVar(&runFlags.channel, "channel", "", "Channel the simulation publishes on (default the mesh name)")
	f.StringVar(&runFlags.mesh, "mesh", meshUniform, "Mesh kind: uniform or explicit")
}

// meshChannel validates kind and defaults the channel to the mesh name.
func meshChannel(kind, channel string) (string, string, error) {
	kind, err := parseMeshKind(kind)
	if err != nil {
		return "", "", err
	}
	if channel == "" {
		channel = kind
	}
	return kind, channel, nil
}

// loadConfig reads path, or without one builds defaults publishing on channel.
func loadConfig(path, channel string, scriptArgs []string) (*catalink.Config, error) {
	var (
		cfg *catalink.Config
		err error
	)
	if path = configPath(path); path != "" {
		cfg, err = catalink.LoadConfig(path)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	} else {
		cfg = catalink.DefaultConfig()
		cfg.Channels = []string{channel}
	}
	if len(scriptArgs) > 0 {
		if err := cfg.WithScriptArgs(scriptArgs); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	if runFlags.ranks < 1 {
		return fmt.Errorf("--ranks must be >= 1")
	}
	kind, channel, err := meshChannel(runFlags.mesh, runFlags.channel)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(runFlags.config, channel, args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	host, err := catalink.NewHost(cfg)
	if err != nil {
		return err
	}
	defer host.Close(context.Background())

	return simulate(ctx, host, kind, channel, runFlags.ranks, runFlags.steps, runFlags.stepDelay)
}

// simulate publishes every rank's partition and steps the host once per
// simulation step.
func simulate(ctx context.Context, host *catalink.Host, kind, channel string, ranks, steps int, delay time.Duration) error {
	meshes := make([]mesh, ranks)
	for r := range meshes {
		meshes[r] = newMesh(kind, r, ranks)
	}

	for step := 0; step < steps; step++ {
		if err := ctx.Err(); err != nil {
			return nil
		}
		info := catalink.ExecInfo{Cycle: int64(step), Time: float64(step)}
		for _, m := range meshes {
			if err := host.Publish(channel, info, m.partition(step)); err != nil {
				return err
			}
		}
		if err := host.Step(ctx, info); err != nil {
			return fmt.Errorf("step %d: %w", step, err)
		}
		if delay > 0 && step < steps-1 {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(delay):
			}
		}
	}
	return host.Close(context.Background())
}
