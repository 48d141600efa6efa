// catalink-mini drives the co-processing adapter from a small uniform-mesh
// simulation.
//
// Usage:
//
//	catalink-mini run [--config pipeline.yaml] [--steps 20] [--ranks 1] [-- --channel_names uniform --VTKextracts ON]
//	catalink-mini validate --config pipeline.yaml
//	catalink-mini proxies [--ranks 2]
//	catalink-mini stats --url http://localhost:9100/metrics
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

const envPipelinePath = "CATALINK_PIPELINE_PATH"

var rootCmd = &cobra.Command{
	Use:   "catalink-mini",
	Short: "Uniform-mesh mini simulation with in-situ extracts and live mirroring",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(proxiesCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// configPath prefers the flag, then the environment.
func configPath(flag string) string {
	if flag != "" {
		return flag
	}
	return os.Getenv(envPipelinePath)
}
