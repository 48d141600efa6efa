package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/ghalamif/catalink/internal/ports"
)

type PromObs struct {
	log      zerolog.Logger
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
	histos   map[string]prometheus.Observer
}

// NewPromObs registers the adapter metrics on reg (the default registerer
// when nil) and logs through logger.
func NewPromObs(logger zerolog.Logger, reg prometheus.Registerer) *PromObs {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	cycles := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "catalink_cycles_total",
		Help: "Execute calls processed.",
	})
	written := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "catalink_extracts_written_total",
		Help: "Extracts successfully persisted.",
	})
	writeFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "catalink_extract_failures_total",
		Help: "Extract firings where every format failed to write.",
	})
	unresolved := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "catalink_channel_unresolved_total",
		Help: "Channel/cycle pairs skipped because the transport had no proxy.",
	})
	rebinds := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "catalink_live_rebinds_total",
		Help: "Live stage input rebinds.",
	})
	rebindFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "catalink_live_rebind_failures_total",
		Help: "Live stage rebinds rejected by the visualization engine.",
	})
	reveals := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "catalink_reveals_total",
		Help: "Live stages revealed to the viewer.",
	})
	gaps := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "catalink_data_gaps_total",
		Help: "Channel/cycle pairs with lost extraction or mirroring.",
	})
	active := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "catalink_active_channels",
		Help: "Channels resolved and updated in the last cycle.",
	})
	cycleLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "catalink_cycle_duration_seconds",
		Help:    "Time spent in execute, excluding the live yield.",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
	})
	writeLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "catalink_extract_write_seconds",
		Help:    "Latency of a single successful extract write.",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
	})

	reg.MustRegister(cycles, written, writeFailures, unresolved, rebinds, rebindFailures,
		reveals, gaps, active, cycleLatency, writeLatency)

	return &PromObs{
		log: logger,
		counters: map[string]prometheus.Counter{
			"catalink_cycles_total":               cycles,
			"catalink_extracts_written_total":     written,
			"catalink_extract_failures_total":     writeFailures,
			"catalink_channel_unresolved_total":   unresolved,
			"catalink_live_rebinds_total":         rebinds,
			"catalink_live_rebind_failures_total": rebindFailures,
			"catalink_reveals_total":              reveals,
			"catalink_data_gaps_total":            gaps,
		},
		gauges: map[string]prometheus.Gauge{
			"catalink_active_channels": active,
		},
		histos: map[string]prometheus.Observer{
			"catalink_cycle_duration_seconds": cycleLatency,
			"catalink_extract_write_seconds":  writeLatency,
		},
	}
}

func (p *PromObs) LogInfo(msg string, fields ...ports.Field) {
	withFields(p.log.Info(), fields).Msg(msg)
}

func (p *PromObs) LogWarn(msg string, fields ...ports.Field) {
	withFields(p.log.Warn(), fields).Msg(msg)
}

func (p *PromObs) LogError(msg string, err error, fields ...ports.Field) {
	withFields(p.log.Error().Err(err), fields).Msg(msg)
}

// LogCritical logs at error level with critical=true; it never exits.
func (p *PromObs) LogCritical(msg string, err error, fields ...ports.Field) {
	withFields(p.log.Error().Err(err).Bool("critical", true), fields).Msg(msg)
}

func (p *PromObs) IncCounter(name string, v float64) {
	if c, ok := p.counters[name]; ok {
		c.Add(v)
	}
}

func (p *PromObs) ObserveLatency(name string, seconds float64) {
	if h, ok := p.histos[name]; ok {
		h.Observe(seconds)
	}
}

func (p *PromObs) SetGauge(name string, v float64) {
	if g, ok := p.gauges[name]; ok {
		g.Set(v)
	}
}

func (p *PromObs) RecordDataGap(channel string, cycle int64, err error) {
	p.IncCounter("catalink_data_gaps_total", 1)
	p.log.Debug().Err(err).Str("channel", channel).Int64("cycle", cycle).Msg("data_gap")
}

func withFields(ev *zerolog.Event, fields []ports.Field) *zerolog.Event {
	for _, f := range fields {
		ev = ev.Interface(f.Key, f.Value)
	}
	return ev
}

var _ ports.Observability = (*PromObs)(nil)
