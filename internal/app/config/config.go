package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ghalamif/catalink/internal/app/pipeline"
	"github.com/ghalamif/catalink/internal/ports"
)

const (
	DefaultChannel    = "uniform"
	DefaultExtractDir = "data_vtk_extracts"
	DefaultLiveYield  = 500 * time.Millisecond
	DefaultTable      = "extracts"
)

type Config struct {
	Channels       []string        `yaml:"channels"`
	ScriptArgs     []string        `yaml:"script_args"`
	ProducerSource string          `yaml:"producer_source"`
	Transport      TransportConfig `yaml:"transport"`
	Trigger        ports.Trigger   `yaml:"trigger"`
	Extracts       ExtractsConfig  `yaml:"extracts"`
	Live           LiveConfig      `yaml:"live"`
	Workers        int             `yaml:"workers"`
	Metrics        MetricsConfig   `yaml:"metrics"`
	Catalog        CatalogConfig   `yaml:"catalog"`
	Log            LogConfig       `yaml:"log"`
}

type ExtractsConfig struct {
	Enabled   *bool    `yaml:"enabled"`
	Dir       string   `yaml:"dir"`
	Frequency int      `yaml:"frequency"`
	Template  string   `yaml:"template"`
	Formats   []string `yaml:"formats"`
}

type LiveConfig struct {
	Enabled             *bool         `yaml:"enabled"`
	Trigger             ports.Trigger `yaml:"trigger"`
	Yield               time.Duration `yaml:"yield"`
	MergePartitionsOnly *bool         `yaml:"merge_partitions_only"`
}

// TransportConfig tunes the in-process transport used by embedded hosts.
type TransportConfig struct {
	// ReplaceProxies makes every new cycle publish into a fresh proxy
	// instead of mutating the existing one.
	ReplaceProxies bool `yaml:"replace_proxies"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// CatalogConfig enables the extract catalog when ConnString is set.
type CatalogConfig struct {
	ConnString string `yaml:"conn_string"`
	Table      string `yaml:"table"`
}

type LogConfig struct {
	Rank int `yaml:"rank"`
}

// Load reads a YAML file and returns a defaulted, validated config.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", pipeline.ErrConfiguration, err)
	}
	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default is the configuration used when no pipeline file is given.
func Default() *Config {
	cfg := &Config{}
	_ = cfg.finish()
	return cfg
}

// WithScriptArgs applies host script arguments on top of c and revalidates.
func (c *Config) WithScriptArgs(args []string) error {
	c.ScriptArgs = append(c.ScriptArgs, args...)
	return c.finish()
}

func (c *Config) finish() error {
	if err := c.applyScriptArgs(); err != nil {
		return err
	}
	c.applyDefaults()
	return c.validate()
}

func (c *Config) applyScriptArgs() error {
	if len(c.ScriptArgs) == 0 {
		return nil
	}
	args, err := ParseScriptArgs(c.ScriptArgs)
	if err != nil {
		return err
	}
	if len(args.Channels) > 0 {
		c.Channels = args.Channels
	}
	if args.ExtractsSet {
		on := args.Extracts
		c.Extracts.Enabled = &on
	}
	return nil
}

func (c *Config) applyDefaults() {
	if len(c.Channels) == 0 {
		c.Channels = []string{DefaultChannel}
	}
	if c.ProducerSource == "" {
		c.ProducerSource = pipeline.SourceDirect
	}
	if c.Trigger.Kind == "" {
		c.Trigger.Kind = ports.TriggerTimeStep
	}
	if c.Trigger.Kind == ports.TriggerTimeStep && c.Trigger.Frequency == 0 {
		c.Trigger.Frequency = 1
	}
	if c.Extracts.Enabled == nil {
		c.Extracts.Enabled = boolPtr(true)
	}
	if c.Extracts.Dir == "" {
		c.Extracts.Dir = DefaultExtractDir
	}
	if c.Extracts.Frequency == 0 {
		c.Extracts.Frequency = 1
	}
	if c.Extracts.Template == "" {
		c.Extracts.Template = pipeline.DefaultExtractTemplate
	}
	if len(c.Extracts.Formats) == 0 {
		c.Extracts.Formats = append([]string(nil), pipeline.DefaultExtractFormats...)
	}
	if c.Live.Enabled == nil {
		c.Live.Enabled = boolPtr(true)
	}
	if c.Live.Trigger.Kind == "" {
		c.Live.Trigger = c.Trigger
	}
	if c.Live.Yield == 0 {
		c.Live.Yield = DefaultLiveYield
	}
	if c.Live.MergePartitionsOnly == nil {
		c.Live.MergePartitionsOnly = boolPtr(true)
	}
	if c.Catalog.Table == "" {
		c.Catalog.Table = DefaultTable
	}
}

func (c *Config) validate() error {
	seen := make(map[string]struct{}, len(c.Channels))
	for _, name := range c.Channels {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("%w: empty channel name", pipeline.ErrConfiguration)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("%w: %s", pipeline.ErrDuplicateChannel, name)
		}
		seen[name] = struct{}{}
	}
	if _, err := pipeline.NewProducerSource(c.ProducerSource); err != nil {
		return err
	}
	if err := pipeline.ValidateTrigger(c.Trigger); err != nil {
		return fmt.Errorf("trigger: %w", err)
	}
	if err := pipeline.ValidateTrigger(c.Live.Trigger); err != nil {
		return fmt.Errorf("live.trigger: %w", err)
	}
	if c.Extracts.Frequency < 0 {
		return fmt.Errorf("%w: extracts.frequency %d", pipeline.ErrConfiguration, c.Extracts.Frequency)
	}
	for _, f := range c.Extracts.Formats {
		if f == "" || strings.ContainsAny(f, "./\\") {
			return fmt.Errorf("%w: extracts.formats entry %q", pipeline.ErrConfiguration, f)
		}
	}
	if c.Live.Yield < 0 {
		return fmt.Errorf("%w: live.yield %s", pipeline.ErrConfiguration, c.Live.Yield)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers %d", pipeline.ErrConfiguration, c.Workers)
	}
	if c.Log.Rank < 0 {
		return fmt.Errorf("%w: log.rank %d", pipeline.ErrConfiguration, c.Log.Rank)
	}
	return nil
}

// RunOptions snapshots the config into the value handed to the coordinator.
func (c *Config) RunOptions() ports.RunOptions {
	return ports.RunOptions{
		GlobalTrigger:       c.Trigger,
		ExtractsEnabled:     enabled(c.Extracts.Enabled, true),
		ExtractsDir:         c.Extracts.Dir,
		ExtractFrequency:    c.Extracts.Frequency,
		ExtractTemplate:     c.Extracts.Template,
		ExtractFormats:      append([]string(nil), c.Extracts.Formats...),
		LiveEnabled:         enabled(c.Live.Enabled, true),
		LiveTrigger:         c.Live.Trigger,
		LiveYield:           c.Live.Yield,
		MergePartitionsOnly: enabled(c.Live.MergePartitionsOnly, true),
		Workers:             c.Workers,
	}
}

func boolPtr(b bool) *bool { return &b }

func enabled(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}
