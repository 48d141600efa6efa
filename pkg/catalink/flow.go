package catalink

import (
	"context"
	"fmt"
)

// Flow is a convenience builder: Conf → Transport → Output gives a ready
// Adapter without touching the underlying wiring.
type Flow struct {
	cfg  *Config
	opts []AdapterOption
	err  error
}

// FlowOption mutates the Flow after configuration is loaded.
type FlowOption func(*Flow)

// TransportOption configures the input side of the adapter.
type TransportOption func(*Flow)

// OutputOption configures extracts, live mirroring and observability.
type OutputOption func(*Flow)

// Conf loads YAML from disk, applies FlowOption values, and returns a Flow builder.
func Conf(path string, opts ...FlowOption) (*Flow, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return ConfFromConfig(cfg, opts...)
}

// ConfFromConfig bootstraps a Flow from an in-memory Config.
func ConfFromConfig(cfg *Config, opts ...FlowOption) (*Flow, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	f := &Flow{cfg: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f, nil
}

// Config returns the underlying configuration so callers can tweak it before building.
func (f *Flow) Config() *Config {
	if f == nil {
		return nil
	}
	return f.cfg
}

// Options appends raw AdapterOption values to the builder.
func (f *Flow) Options(opts ...AdapterOption) *Flow {
	if f == nil {
		return nil
	}
	f.appendOptions(opts...)
	return f
}

// Transport records input-side overrides.
func (f *Flow) Transport(opts ...TransportOption) *Flow {
	if f == nil {
		return nil
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// Output records output-side overrides and builds the Adapter.
func (f *Flow) Output(opts ...OutputOption) (*Adapter, error) {
	if f == nil {
		return nil, fmt.Errorf("flow is nil")
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return NewAdapter(f.cfg, f.opts...)
}

// Host builds a Host instead of a bare Adapter.
func (f *Flow) Host(opts ...OutputOption) (*Host, error) {
	if f == nil {
		return nil, fmt.Errorf("flow is nil")
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return NewHost(f.cfg, f.opts...)
}

// Run drives the adapter for cycles 0..cycles-1 at dt simulation time per
// cycle, with no data published. Useful for smoke-testing a configuration.
func (f *Flow) Run(ctx context.Context, cycles int, dt float64, opts ...OutputOption) error {
	a, err := f.Output(opts...)
	if err != nil {
		return err
	}
	if err := a.Initialize(); err != nil {
		_ = a.Finalize(context.Background())
		return err
	}
	for i := 0; i < cycles && ctx.Err() == nil; i++ {
		if err := a.Execute(ctx, ExecInfo{Cycle: int64(i), Time: float64(i) * dt}); err != nil {
			_ = a.Finalize(context.Background())
			return err
		}
	}
	return a.Finalize(context.Background())
}

// WithFlowOptions appends AdapterOption values during Conf.
func WithFlowOptions(opts ...AdapterOption) FlowOption {
	return func(f *Flow) {
		if f != nil {
			f.appendOptions(opts...)
		}
	}
}

// WithScriptArgs applies host script arguments to the loaded config.
func WithScriptArgs(args ...string) FlowOption {
	return func(f *Flow) {
		if f != nil && f.err == nil && len(args) > 0 {
			f.err = f.cfg.WithScriptArgs(args)
		}
	}
}

// TransportWith injects a custom transport.
func TransportWith(t Transport) TransportOption {
	return func(f *Flow) {
		if f != nil && t != nil {
			f.appendOptions(WithTransport(t))
		}
	}
}

// TransportObservability overrides the default Prometheus-based observability stack.
func TransportObservability(obs Observability) TransportOption {
	return func(f *Flow) {
		if f != nil && obs != nil {
			f.appendOptions(WithObservability(obs))
		}
	}
}

// OutputWriter injects a custom extract writer.
func OutputWriter(w Writer) OutputOption {
	return func(f *Flow) {
		if f != nil && w != nil {
			f.appendOptions(WithWriter(w))
		}
	}
}

// OutputEngine injects a custom visualization engine.
func OutputEngine(e Engine) OutputOption {
	return func(f *Flow) {
		if f != nil && e != nil {
			f.appendOptions(WithEngine(e))
		}
	}
}

// OutputCatalog records extracts in c.
func OutputCatalog(c Catalog) OutputOption {
	return func(f *Flow) {
		if f != nil && c != nil {
			f.appendOptions(WithCatalog(c))
		}
	}
}

// OutputCallback installs a writer built from a callback function.
func OutputCallback(name string, fn ExtractFunc) OutputOption {
	return func(f *Flow) {
		if f != nil {
			f.appendOptions(WithWriter(NewCallbackWriter(name, fn)))
		}
	}
}

func (f *Flow) appendOptions(opts ...AdapterOption) {
	for _, opt := range opts {
		if opt != nil {
			f.opts = append(f.opts, opt)
		}
	}
}
