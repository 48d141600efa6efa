package catalink

import (
	"github.com/ghalamif/catalink/internal/app/config"
	"github.com/ghalamif/catalink/internal/ports"
)

// Config re-exports the root configuration struct so hosts can construct or
// modify it programmatically.
type Config = config.Config

type (
	// ExtractsConfig controls on-disk extracts.
	ExtractsConfig = config.ExtractsConfig
	// LiveConfig controls live mirroring to a viewer.
	LiveConfig = config.LiveConfig
	// TransportConfig tunes the in-process transport.
	TransportConfig = config.TransportConfig
	// MetricsConfig configures the metrics HTTP server.
	MetricsConfig = config.MetricsConfig
	// CatalogConfig configures the optional extract catalog.
	CatalogConfig = config.CatalogConfig
	// LogConfig carries the rank stamped on log lines.
	LogConfig = config.LogConfig
	// Trigger selects the cycles an action fires on.
	Trigger = ports.Trigger
	// ScriptArgs is the parsed form of host script arguments.
	ScriptArgs = config.ScriptArgs
)

// LoadConfig loads YAML from disk using the internal config reader.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}

// ParseConfig reads YAML from memory.
func ParseConfig(raw []byte) (*Config, error) {
	return config.Parse(raw)
}

// DefaultConfig returns the configuration used when no file is supplied:
// a single "uniform" channel with extracts and live mirroring enabled.
func DefaultConfig() *Config {
	return config.Default()
}

// ParseScriptArgs parses --channel_names and --VTKextracts.
func ParseScriptArgs(args []string) (ScriptArgs, error) {
	return config.ParseScriptArgs(args)
}
