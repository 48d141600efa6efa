package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ghalamif/catalink/internal/domain"
	"github.com/ghalamif/catalink/internal/ports"
)

type phase int

const (
	phaseNew phase = iota
	phaseInitialized
	phaseFinalized
)

// Collaborators are the external pieces a Coordinator drives.
type Collaborators struct {
	Transport ports.Transport
	Writer    ports.Writer
	Engine    ports.Engine
	Catalog   ports.Catalog
	Source    ProducerSource
	Obs       ports.Observability
}

// Coordinator runs the initialize / execute / finalize protocol over all
// declared channels. It owns the producer, rule and stage mappings.
type Coordinator struct {
	opts ports.RunOptions
	obs  ports.Observability

	registry   *Registry
	extraction *Extraction
	live       *LiveMirror

	rules  map[string]*ExtractionRule
	stages map[string]*LiveStage

	mu        sync.Mutex
	phase     phase
	lastCycle int64
	executed  bool
	liveYield *schedule
}

// NewCoordinator performs the one-time setup: it ensures the extracts
// directory, registers channels, binds whatever producers already exist and
// attaches extraction rules and live stages.
func NewCoordinator(opts ports.RunOptions, channels []string, c Collaborators) (*Coordinator, error) {
	if c.Transport == nil {
		return nil, fmt.Errorf("%w: transport is required", ErrConfiguration)
	}
	if c.Obs == nil {
		return nil, fmt.Errorf("%w: observability is required", ErrConfiguration)
	}
	if opts.ExtractsEnabled && c.Writer == nil {
		return nil, fmt.Errorf("%w: writer is required when extracts are enabled", ErrConfiguration)
	}
	if opts.LiveEnabled && c.Engine == nil {
		return nil, fmt.Errorf("%w: engine is required when live mirroring is enabled", ErrConfiguration)
	}
	if len(channels) == 0 {
		return nil, fmt.Errorf("%w: no channels configured", ErrConfiguration)
	}
	if err := ValidateTrigger(opts.GlobalTrigger); err != nil {
		return nil, err
	}
	if err := ValidateTrigger(opts.LiveTrigger); err != nil {
		return nil, err
	}
	if opts.ExtractsDir != "" {
		if err := os.MkdirAll(opts.ExtractsDir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: extracts dir: %w", ErrConfiguration, err)
		}
	}

	co := &Coordinator{
		opts:      opts,
		obs:       c.Obs,
		rules:     make(map[string]*ExtractionRule),
		stages:    make(map[string]*LiveStage),
		liveYield: newSchedule(opts.LiveTrigger),
	}
	co.registry = NewRegistry(c.Transport, c.Source, c.Obs)
	co.extraction = NewExtraction(opts, c.Writer, c.Catalog, c.Obs, co.rules)
	if opts.LiveEnabled {
		co.live = NewLiveMirror(opts, c.Engine, co.registry, c.Obs, co.stages)
	}

	c.Obs.LogInfo("pipeline_setup",
		ports.Field{Key: "channels", Value: channels},
		ports.Field{Key: "extracts", Value: opts.ExtractsEnabled},
		ports.Field{Key: "live", Value: opts.LiveEnabled})

	for _, name := range channels {
		ch, err := co.registry.Register(name)
		if err != nil {
			return nil, err
		}
		if p, err := co.registry.Resolve(ch.Name); err == nil {
			_ = co.registry.Rebind(ch.Name, p)
			c.Obs.LogInfo("source_proxy_found",
				ports.Field{Key: "channel", Value: ch.Name},
				ports.Field{Key: "class", Value: p.Class()})
		} else {
			c.Obs.LogWarn("source_proxy_missing", ports.Field{Key: "channel", Value: ch.Name})
		}

		if opts.ExtractsEnabled {
			if _, err := co.extraction.Attach(ch, opts.ExtractFrequency, opts.ExtractTemplate); err != nil {
				return nil, err
			}
		}
		if opts.LiveEnabled {
			if _, err := co.live.Attach(ch); err != nil {
				return nil, err
			}
		}
	}

	co.registry.Overview()
	return co, nil
}

func (c *Coordinator) Registry() *Registry       { return c.registry }
func (c *Coordinator) Extraction() *Extraction   { return c.extraction }
func (c *Coordinator) Live() *LiveMirror         { return c.live }
func (c *Coordinator) Options() ports.RunOptions { return c.opts }

// Initialize marks the run ready. It may be called once.
func (c *Coordinator) Initialize() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != phaseNew {
		return fmt.Errorf("%w: initialize called twice", ErrLifecycle)
	}
	c.phase = phaseInitialized
	c.obs.LogInfo("initialize", ports.Field{Key: "channels", Value: c.registry.Len()})
	return nil
}

// Execute processes one cycle. Per-channel failures are logged and
// recorded as data gaps; only lifecycle misuse is returned.
func (c *Coordinator) Execute(ctx context.Context, info domain.ExecInfo) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.phase {
	case phaseNew:
		return fmt.Errorf("%w: execute before initialize", ErrLifecycle)
	case phaseFinalized:
		return fmt.Errorf("%w: execute after finalize", ErrLifecycle)
	}

	c.obs.LogInfo("execute",
		ports.Field{Key: "cycle", Value: info.Cycle},
		ports.Field{Key: "time", Value: info.Time})
	if c.executed && info.Cycle <= c.lastCycle {
		c.obs.LogWarn("cycle_not_monotonic",
			ports.Field{Key: "cycle", Value: info.Cycle},
			ports.Field{Key: "previous", Value: c.lastCycle})
	}
	c.executed = true
	c.lastCycle = info.Cycle

	start := time.Now()
	channels := c.registry.Channels()
	ready := c.prepareAll(ctx, channels, info)

	active := 0
	for i, ch := range channels {
		if !ready[i] {
			continue
		}
		active++
		c.consume(ctx, ch, info)
	}

	c.obs.SetGauge(MetricActiveChannels, float64(active))
	c.obs.IncCounter(MetricCycles, 1)
	c.obs.ObserveLatency(MetricCycleDuration, time.Since(start).Seconds())

	if c.opts.LiveEnabled && c.liveYield.due(info) {
		c.liveYield.mark(info)
		pause(ctx, c.opts.LiveYield)
	}
	return nil
}

// Finalize closes the run. Producers and stages belong to the transport and
// engine, which tear themselves down.
func (c *Coordinator) Finalize() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.phase {
	case phaseNew:
		return fmt.Errorf("%w: finalize before initialize", ErrLifecycle)
	case phaseFinalized:
		return fmt.Errorf("%w: finalize called twice", ErrLifecycle)
	}
	c.phase = phaseFinalized
	c.obs.LogInfo("finalize", ports.Field{Key: "last_cycle", Value: c.lastCycle})
	return nil
}

// prepareAll runs resolve, rebind and update for every channel, fanning out
// when workers are configured. No extraction or live work starts until every
// channel has finished this step.
func (c *Coordinator) prepareAll(ctx context.Context, channels []*Channel, info domain.ExecInfo) []bool {
	ready := make([]bool, len(channels))
	if c.opts.Workers <= 0 || len(channels) < 2 {
		for i, ch := range channels {
			ready[i] = c.prepare(ctx, ch, info)
		}
		return ready
	}

	var g errgroup.Group
	g.SetLimit(c.opts.Workers)
	for i, ch := range channels {
		i, ch := i, ch
		g.Go(func() error {
			ready[i] = c.prepare(ctx, ch, info)
			return nil
		})
	}
	_ = g.Wait()
	return ready
}

func (c *Coordinator) prepare(ctx context.Context, ch *Channel, info domain.ExecInfo) bool {
	p, err := c.registry.Resolve(ch.Name)
	if err != nil {
		c.obs.LogWarn("channel_unresolved",
			ports.Field{Key: "channel", Value: ch.Name},
			ports.Field{Key: "cycle", Value: info.Cycle})
		c.obs.IncCounter(MetricChannelUnresolved, 1)
		c.obs.RecordDataGap(ch.Name, info.Cycle, err)
		return false
	}
	if err := c.registry.Rebind(ch.Name, p); err != nil {
		c.obs.LogError("channel_rebind_failed", err,
			ports.Field{Key: "channel", Value: ch.Name},
			ports.Field{Key: "cycle", Value: info.Cycle})
		return false
	}
	if err := p.UpdatePipeline(ctx); err != nil {
		err = channelErr(ch.Name, info.Cycle, "update_pipeline", err)
		c.obs.LogError("update_pipeline_failed", err,
			ports.Field{Key: "channel", Value: ch.Name},
			ports.Field{Key: "cycle", Value: info.Cycle})
		c.obs.RecordDataGap(ch.Name, info.Cycle, err)
		return false
	}
	return true
}

func (c *Coordinator) consume(ctx context.Context, ch *Channel, info domain.ExecInfo) {
	if c.opts.ExtractsEnabled {
		if _, err := c.extraction.Fire(ctx, ch, info); err != nil {
			c.obs.LogError("extract_failed", err,
				ports.Field{Key: "channel", Value: ch.Name},
				ports.Field{Key: "cycle", Value: info.Cycle})
			c.obs.RecordDataGap(ch.Name, info.Cycle, err)
		}
	}

	if c.live != nil {
		if err := c.live.Sync(ch, info); err != nil {
			fields := []ports.Field{
				{Key: "channel", Value: ch.Name},
				{Key: "cycle", Value: info.Cycle},
			}
			if errors.Is(err, ErrChannelUnresolved) {
				c.obs.LogWarn("live_channel_unresolved", fields...)
				return
			}
			c.obs.LogError("live_sync_failed", err, fields...)
		}
	}
}

// pause yields to the live viewer. It returns early if ctx is done.
func pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
