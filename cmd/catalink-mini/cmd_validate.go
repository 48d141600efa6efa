package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateFlags struct {
	config string
}

var validateCmd = &cobra.Command{
	Use:   "validate [-- script args]",
	Short: "Load and validate a pipeline config without running",
	RunE:  runValidate,
}

func init() {
	validateCmd.Flags().StringVar(&validateFlags.config, "config", "", "Pipeline config (default $"+envPipelinePath+")")
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(validateFlags.config, meshUniform, args)
	if err != nil {
		return err
	}
	opts := cfg.RunOptions()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "channels:  %v\n", cfg.Channels)
	fmt.Fprintf(out, "source:    %s\n", cfg.ProducerSource)
	fmt.Fprintf(out, "extracts:  %t dir=%s every=%d formats=%v\n", opts.ExtractsEnabled, opts.ExtractsDir, opts.ExtractFrequency, opts.ExtractFormats)
	fmt.Fprintf(out, "live:      %t yield=%s merge_partitions_only=%t\n", opts.LiveEnabled, opts.LiveYield, opts.MergePartitionsOnly)
	fmt.Fprintf(out, "config looks good\n")
	return nil
}
