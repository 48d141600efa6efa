package pipeline

import (
	"fmt"
	"strings"
	"sync"

	"github.com/ghalamif/catalink/internal/domain"
	"github.com/ghalamif/catalink/internal/ports"
)

// Channel is a named stream declared at startup. The record lives for the
// whole run; only its producer reference changes.
type Channel struct {
	Name    string
	Extract bool
	Live    bool

	mu       sync.RWMutex
	producer ports.Producer
}

// Producer returns the currently bound handle, nil until first bound.
func (c *Channel) Producer() ports.Producer {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.producer
}

func (c *Channel) bind(p ports.Producer) {
	c.mu.Lock()
	c.producer = p
	c.mu.Unlock()
}

// Registry tracks declared channels and their current producers.
type Registry struct {
	transport ports.Transport
	source    ProducerSource
	obs       ports.Observability

	mu       sync.RWMutex
	channels map[string]*Channel
	order    []string

	overviewOnce sync.Once
	overview     []domain.ProxyInfo
}

func NewRegistry(transport ports.Transport, source ProducerSource, obs ports.Observability) *Registry {
	if source == nil {
		source = DirectSource{}
	}
	return &Registry{
		transport: transport,
		source:    source,
		obs:       obs,
		channels:  make(map[string]*Channel),
	}
}

// Register declares a channel. A name may be registered once per run.
func (r *Registry) Register(name string) (*Channel, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: empty channel name", ErrConfiguration)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.channels[name]; ok {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateChannel, name)
	}
	ch := &Channel{Name: name}
	r.channels[name] = ch
	r.order = append(r.order, name)
	return ch, nil
}

// Resolve asks the transport for the channel's current proxy and passes it
// through the configured ProducerSource.
func (r *Registry) Resolve(name string) (ports.Producer, error) {
	proxy, ok := r.transport.Resolve(name)
	if !ok || proxy == nil {
		return nil, fmt.Errorf("%w: %q", ErrChannelUnresolved, name)
	}
	return r.source.Bind(name, proxy), nil
}

// Rebind replaces the stored producer for name.
func (r *Registry) Rebind(name string, p ports.Producer) error {
	ch, ok := r.Channel(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownChannel, name)
	}
	ch.bind(p)
	return nil
}

func (r *Registry) Channel(name string) (*Channel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ch, ok := r.channels[name]
	return ch, ok
}

// Channels returns channels in registration order.
func (r *Registry) Channels() []*Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Channel, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.channels[name])
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Overview enumerates the transport's proxies and logs them. The listing is
// taken once per run; later calls return the cached result.
func (r *Registry) Overview() []domain.ProxyInfo {
	r.overviewOnce.Do(func() {
		r.overview = r.transport.EnumerateProxies()
		r.obs.LogInfo("proxy_overview", ports.Field{Key: "count", Value: len(r.overview)})
		for _, p := range r.overview {
			r.obs.LogInfo("proxy",
				ports.Field{Key: "name", Value: p.Name},
				ports.Field{Key: "class", Value: p.Class},
				ports.Field{Key: "properties", Value: p.Properties})
		}
	})
	return r.overview
}
