package transport

import (
	"context"
	"sort"
	"sync"

	"github.com/ghalamif/catalink/internal/domain"
	"github.com/ghalamif/catalink/internal/ports"
)

const proxyClass = "MeshSource"

// MemTransport is an in-process transport. Ranks publish partitions into a
// pending dataset; the proxy exposes them only after UpdatePipeline.
type MemTransport struct {
	mu      sync.Mutex
	proxies map[string]*Proxy
	replace bool
}

// NewMemTransport returns a transport that either swaps in a new proxy
// handle for every new cycle (replace) or mutates the existing one in place.
func NewMemTransport(replace bool) *MemTransport {
	return &MemTransport{
		proxies: make(map[string]*Proxy),
		replace: replace,
	}
}

// Publish stages one rank's partition for channel at info's cycle.
func (t *MemTransport) Publish(channel string, info domain.ExecInfo, part domain.Partition) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.proxies[channel]
	if !ok || (t.replace && p.pendingCycle() != info.Cycle && p.hasOutput()) {
		next := &Proxy{name: channel}
		if ok {
			next.generation = p.currentGeneration()
		}
		p = next
		t.proxies[channel] = p
	}
	p.stage(info, part.Clone())
}

// Remove drops a channel's proxy, as when the simulation stops sending it.
func (t *MemTransport) Remove(channel string) {
	t.mu.Lock()
	delete(t.proxies, channel)
	t.mu.Unlock()
}

func (t *MemTransport) Resolve(name string) (ports.Producer, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.proxies[name]
	if !ok {
		return nil, false
	}
	return p, true
}

func (t *MemTransport) EnumerateProxies() []domain.ProxyInfo {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]domain.ProxyInfo, 0, len(t.proxies))
	for name := range t.proxies {
		out = append(out, domain.ProxyInfo{
			Name:       name,
			Class:      proxyClass,
			Properties: []string{"Cycle", "Time", "Generation", "Partitions"},
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Proxy is the producer handle for one channel.
type Proxy struct {
	name string

	mu         sync.Mutex
	pending    *domain.Dataset
	out        *domain.Dataset
	generation uint64
}

func (p *Proxy) Name() string  { return p.name }
func (p *Proxy) Class() string { return proxyClass }

// UpdatePipeline promotes the pending dataset to the output. Without new
// data the previous output stays current.
func (p *Proxy) UpdatePipeline(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pending == nil {
		return nil
	}
	p.generation++
	p.pending.Generation = p.generation
	sort.Slice(p.pending.Partitions, func(i, j int) bool {
		return p.pending.Partitions[i].DomainID < p.pending.Partitions[j].DomainID
	})
	p.out = p.pending
	p.pending = nil
	return nil
}

func (p *Proxy) Output() *domain.Dataset {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.out
}

func (p *Proxy) stage(info domain.ExecInfo, part domain.Partition) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pending == nil || p.pending.Cycle != info.Cycle {
		p.pending = &domain.Dataset{Channel: p.name, Cycle: info.Cycle, Time: info.Time}
	}
	for i, existing := range p.pending.Partitions {
		if existing.DomainID == part.DomainID {
			p.pending.Partitions[i] = part
			return
		}
	}
	p.pending.Partitions = append(p.pending.Partitions, part)
}

func (p *Proxy) pendingCycle() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pending == nil {
		return -1
	}
	return p.pending.Cycle
}

func (p *Proxy) hasOutput() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.out != nil
}

func (p *Proxy) currentGeneration() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.generation
}

var _ ports.Transport = (*MemTransport)(nil)
var _ ports.Producer = (*Proxy)(nil)
