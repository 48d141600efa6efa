package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/ghalamif/catalink/internal/domain"
	"github.com/ghalamif/catalink/internal/ports"
)

const (
	SourceDirect      = "direct"
	SourcePassThrough = "passthrough"
)

// ProducerSource decides what handle the pipeline binds to for a channel:
// the transport's proxy itself, or a stable intermediate producer fed by it.
type ProducerSource interface {
	Bind(name string, proxy ports.Producer) ports.Producer
	Kind() string
}

// NewProducerSource returns the strategy registered under kind.
func NewProducerSource(kind string) (ProducerSource, error) {
	switch kind {
	case "", SourceDirect:
		return DirectSource{}, nil
	case SourcePassThrough:
		return NewPassThroughSource(), nil
	default:
		return nil, fmt.Errorf("%w: producer_source %q", ErrConfiguration, kind)
	}
}

// DirectSource binds consumers straight to the transport proxy.
type DirectSource struct{}

func (DirectSource) Bind(_ string, proxy ports.Producer) ports.Producer { return proxy }
func (DirectSource) Kind() string                                       { return SourceDirect }

// PassThroughSource keeps one producer per channel whose upstream is
// re-pointed at whatever proxy the transport currently holds.
type PassThroughSource struct {
	mu        sync.Mutex
	producers map[string]*passThroughProducer
}

func NewPassThroughSource() *PassThroughSource {
	return &PassThroughSource{producers: make(map[string]*passThroughProducer)}
}

func (s *PassThroughSource) Bind(name string, proxy ports.Producer) ports.Producer {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.producers[name]
	if !ok {
		p = &passThroughProducer{name: name}
		s.producers[name] = p
	}
	p.setUpstream(proxy)
	return p
}

func (s *PassThroughSource) Kind() string { return SourcePassThrough }

type passThroughProducer struct {
	name string

	mu       sync.RWMutex
	upstream ports.Producer
	out      *domain.Dataset
}

func (p *passThroughProducer) setUpstream(up ports.Producer) {
	p.mu.Lock()
	p.upstream = up
	p.mu.Unlock()
}

func (p *passThroughProducer) Name() string  { return p.name }
func (p *passThroughProducer) Class() string { return "PassThroughProducer" }

func (p *passThroughProducer) UpdatePipeline(ctx context.Context) error {
	p.mu.RLock()
	up := p.upstream
	p.mu.RUnlock()
	if up == nil {
		return fmt.Errorf("pass-through %q has no upstream", p.name)
	}
	if err := up.UpdatePipeline(ctx); err != nil {
		return err
	}
	out := up.Output()

	p.mu.Lock()
	p.out = out
	p.mu.Unlock()
	return nil
}

func (p *passThroughProducer) Output() *domain.Dataset {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.out
}
