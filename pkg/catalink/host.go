package catalink

import (
	"context"
	"fmt"
	"sync"

	"github.com/ghalamif/catalink/internal/adapters/transport"
)

// Host bundles an in-memory transport with an Adapter so a Go simulation
// can publish its partitions and step the adapter without a separate
// transport process.
type Host struct {
	transport *transport.MemTransport
	adapter   *Adapter

	mu     sync.Mutex
	closed bool
}

// NewHost builds the adapter around a fresh in-memory transport and
// initializes it. A WithTransport option is overridden.
func NewHost(cfg *Config, opts ...AdapterOption) (*Host, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config is required", ErrConfiguration)
	}
	mem := transport.NewMemTransport(cfg.Transport.ReplaceProxies)
	opts = append(append([]AdapterOption(nil), opts...), WithTransport(mem))

	a, err := NewAdapter(cfg, opts...)
	if err != nil {
		return nil, err
	}
	if err := a.Initialize(); err != nil {
		_ = a.Finalize(context.Background())
		return nil, err
	}
	return &Host{transport: mem, adapter: a}, nil
}

// Publish stages one rank's partition of channel for info's cycle. It
// becomes visible on the next Step.
func (h *Host) Publish(channel string, info ExecInfo, part Partition) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return fmt.Errorf("%w: publish after close", ErrLifecycle)
	}
	h.transport.Publish(channel, info, part)
	return nil
}

// Drop removes a channel from the transport, as when a simulation stops
// producing it.
func (h *Host) Drop(channel string) {
	h.transport.Remove(channel)
}

// Step runs the adapter for one cycle.
func (h *Host) Step(ctx context.Context, info ExecInfo) error {
	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()
	if closed {
		return fmt.Errorf("%w: step after close", ErrLifecycle)
	}
	return h.adapter.Execute(ctx, info)
}

// Close finalizes the adapter. It is safe to call more than once.
func (h *Host) Close(ctx context.Context) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	h.mu.Unlock()
	return h.adapter.Finalize(ctx)
}

// Adapter returns the wrapped adapter.
func (h *Host) Adapter() *Adapter { return h.adapter }

// Proxies lists what the transport currently holds.
func (h *Host) Proxies() []ProxyInfo { return h.transport.EnumerateProxies() }
