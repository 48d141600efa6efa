package catalink

import (
	base "github.com/ghalamif/catalink/pkg/catalink"
)

// Re-exported errors for convenience.
var (
	ErrConfiguration       = base.ErrConfiguration
	ErrDuplicateChannel    = base.ErrDuplicateChannel
	ErrChannelUnresolved   = base.ErrChannelUnresolved
	ErrExtractionDisabled  = base.ErrExtractionDisabled
	ErrExtractionWrite     = base.ErrExtractionWrite
	ErrLiveRebind          = base.ErrLiveRebind
	ErrLifecycle           = base.ErrLifecycle
	ErrChannelWriterClosed = base.ErrChannelWriterClosed
)

// Type aliases so consumers can import github.com/ghalamif/catalink directly.
type (
	Config          = base.Config
	ExtractsConfig  = base.ExtractsConfig
	LiveConfig      = base.LiveConfig
	TransportConfig = base.TransportConfig
	MetricsConfig   = base.MetricsConfig
	CatalogConfig   = base.CatalogConfig
	LogConfig       = base.LogConfig
	Trigger         = base.Trigger
	ScriptArgs      = base.ScriptArgs
	Flow            = base.Flow
	FlowOption      = base.FlowOption
	TransportOption = base.TransportOption
	OutputOption    = base.OutputOption
	Adapter         = base.Adapter
	AdapterOption   = base.AdapterOption
	Host            = base.Host
	Extract         = base.Extract
	ExtractFunc     = base.ExtractFunc
	Dataset         = base.Dataset
	Partition       = base.Partition
	Coordset        = base.Coordset
	Topology        = base.Topology
	DataField       = base.DataField
	ExecInfo        = base.ExecInfo
	ProxyInfo       = base.ProxyInfo
	ExtractRecord   = base.ExtractRecord
	RunOptions      = base.RunOptions
	Producer        = base.Producer
	Transport       = base.Transport
	Writer          = base.Writer
	Engine          = base.Engine
	Stage           = base.Stage
	Catalog         = base.Catalog
	Observability   = base.Observability
	Field           = base.Field
	ChannelError    = base.ChannelError
)

// Mesh kind constants.
const (
	CoordsUniform        = base.CoordsUniform
	CoordsExplicit       = base.CoordsExplicit
	TopologyUniform      = base.TopologyUniform
	TopologyUnstructured = base.TopologyUnstructured
)

// Config helpers.
func LoadConfig(path string) (*Config, error) {
	return base.LoadConfig(path)
}

func ParseConfig(raw []byte) (*Config, error) {
	return base.ParseConfig(raw)
}

func DefaultConfig() *Config {
	return base.DefaultConfig()
}

func ParseScriptArgs(args []string) (ScriptArgs, error) {
	return base.ParseScriptArgs(args)
}

// Flow builder helpers.
func Conf(path string, opts ...FlowOption) (*Flow, error) {
	return base.Conf(path, opts...)
}

func ConfFromConfig(cfg *Config, opts ...FlowOption) (*Flow, error) {
	return base.ConfFromConfig(cfg, opts...)
}

func WithFlowOptions(opts ...AdapterOption) FlowOption {
	return base.WithFlowOptions(opts...)
}

func WithScriptArgs(args ...string) FlowOption {
	return base.WithScriptArgs(args...)
}

func TransportWith(t Transport) TransportOption {
	return base.TransportWith(t)
}

func TransportObservability(obs Observability) TransportOption {
	return base.TransportObservability(obs)
}

func OutputWriter(w Writer) OutputOption {
	return base.OutputWriter(w)
}

func OutputEngine(e Engine) OutputOption {
	return base.OutputEngine(e)
}

func OutputCatalog(c Catalog) OutputOption {
	return base.OutputCatalog(c)
}

func OutputCallback(name string, fn ExtractFunc) OutputOption {
	return base.OutputCallback(name, fn)
}

// Adapter and options.
func NewAdapter(cfg *Config, opts ...AdapterOption) (*Adapter, error) {
	return base.NewAdapter(cfg, opts...)
}

func WithTransport(t Transport) AdapterOption {
	return base.WithTransport(t)
}

func WithWriter(w Writer) AdapterOption {
	return base.WithWriter(w)
}

func WithEngine(e Engine) AdapterOption {
	return base.WithEngine(e)
}

func WithCatalog(c Catalog) AdapterOption {
	return base.WithCatalog(c)
}

func WithObservability(obs Observability) AdapterOption {
	return base.WithObservability(obs)
}

// Writer adapters.
func NewCallbackWriter(name string, fn ExtractFunc) Writer {
	return base.NewCallbackWriter(name, fn)
}

func NewChannelWriter(name string, buffer int) (Writer, <-chan Extract, func()) {
	return base.NewChannelWriter(name, buffer)
}

// Embedded host.
func NewHost(cfg *Config, opts ...AdapterOption) (*Host, error) {
	return base.NewHost(cfg, opts...)
}
