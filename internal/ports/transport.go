package ports

import "github.com/ghalamif/catalink/internal/domain"

// Transport is the simulation-side delivery layer. It owns one proxy per
// channel name and may replace that proxy between cycles.
type Transport interface {
	Resolve(name string) (Producer, bool)
	// EnumerateProxies is diagnostic only and may be expensive.
	EnumerateProxies() []domain.ProxyInfo
}
