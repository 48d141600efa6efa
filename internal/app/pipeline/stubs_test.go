package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ghalamif/catalink/internal/domain"
	"github.com/ghalamif/catalink/internal/ports"
)

type stubProducer struct {
	name      string
	pending   *domain.Dataset
	out       *domain.Dataset
	updates   int
	updateErr error
}

func newStubProducer(name string) *stubProducer {
	return &stubProducer{
		name: name,
		pending: &domain.Dataset{
			Channel:    name,
			Partitions: []domain.Partition{{DomainID: 0, Coords: domain.Coordset{Type: "uniform"}}},
		},
	}
}

func (p *stubProducer) Name() string  { return p.name }
func (p *stubProducer) Class() string { return "stub" }
func (p *stubProducer) UpdatePipeline(context.Context) error {
	p.updates++
	if p.updateErr != nil {
		return p.updateErr
	}
	p.out = p.pending
	return nil
}
func (p *stubProducer) Output() *domain.Dataset { return p.out }

type stubTransport struct {
	mu           sync.Mutex
	proxies      map[string]*stubProducer
	missing      map[string]bool
	enumerations int
}

func newStubTransport(names ...string) *stubTransport {
	t := &stubTransport{
		proxies: make(map[string]*stubProducer),
		missing: make(map[string]bool),
	}
	for _, n := range names {
		t.proxies[n] = newStubProducer(n)
	}
	return t
}

func (t *stubTransport) Resolve(name string) (ports.Producer, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.missing[name] {
		return nil, false
	}
	p, ok := t.proxies[name]
	if !ok {
		return nil, false
	}
	return p, true
}

func (t *stubTransport) EnumerateProxies() []domain.ProxyInfo {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enumerations++
	out := make([]domain.ProxyInfo, 0, len(t.proxies))
	for name := range t.proxies {
		out = append(out, domain.ProxyInfo{Name: name, Class: "stub"})
	}
	return out
}

func (t *stubTransport) setMissing(name string, missing bool) {
	t.mu.Lock()
	t.missing[name] = missing
	t.mu.Unlock()
}

// replace swaps in a new proxy handle for name, as a transport does when a
// partitioned dataset is reassembled.
func (t *stubTransport) replace(name string) *stubProducer {
	t.mu.Lock()
	defer t.mu.Unlock()
	p := newStubProducer(name)
	t.proxies[name] = p
	return p
}

type writeCall struct {
	path     string
	producer ports.Producer
}

type recordingWriter struct {
	mu      sync.Mutex
	calls   []writeCall
	failExt map[string]error
}

func (w *recordingWriter) Write(_ context.Context, p ports.Producer, path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if err := w.failExt[ext]; err != nil {
		return err
	}
	w.calls = append(w.calls, writeCall{path: path, producer: p})
	return nil
}

func (w *recordingWriter) Name() string { return "recording" }

func (w *recordingWriter) paths() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, len(w.calls))
	for i, c := range w.calls {
		out[i] = c.path
	}
	return out
}

type stubStage struct{ id string }

func (s *stubStage) ID() string { return s.id }

type rebindCall struct {
	stage    string
	producer ports.Producer
}

type recordingEngine struct {
	created   []string
	rebinds   []rebindCall
	reveals   []string
	rebindErr error
	// revealErrs are returned by successive Reveal calls before succeeding.
	revealErrs []error
}

func (e *recordingEngine) CreateMergeStage(name string, _ ports.Producer, _ bool) (ports.Stage, error) {
	e.created = append(e.created, name)
	return &stubStage{id: name}, nil
}

func (e *recordingEngine) RebindInput(stage ports.Stage, p ports.Producer) error {
	if e.rebindErr != nil {
		return e.rebindErr
	}
	e.rebinds = append(e.rebinds, rebindCall{stage: stage.ID(), producer: p})
	return nil
}

func (e *recordingEngine) Reveal(stage ports.Stage) error {
	if len(e.revealErrs) > 0 {
		err := e.revealErrs[0]
		e.revealErrs = e.revealErrs[1:]
		return err
	}
	e.reveals = append(e.reveals, stage.ID())
	return nil
}

type recordingCatalog struct {
	records []domain.ExtractRecord
	err     error
}

func (c *recordingCatalog) Record(_ context.Context, rec domain.ExtractRecord) error {
	if c.err != nil {
		return c.err
	}
	c.records = append(c.records, rec)
	return nil
}

func (c *recordingCatalog) Name() string { return "recording" }

type logLine struct {
	level  string
	msg    string
	fields map[string]any
}

type recordingObs struct {
	mu       sync.Mutex
	lines    []logLine
	counters map[string]float64
	gaps     []string
}

func newRecordingObs() *recordingObs {
	return &recordingObs{counters: make(map[string]float64)}
}

func (o *recordingObs) log(level, msg string, fields []ports.Field) {
	o.mu.Lock()
	defer o.mu.Unlock()
	m := make(map[string]any, len(fields))
	for _, f := range fields {
		m[f.Key] = f.Value
	}
	o.lines = append(o.lines, logLine{level: level, msg: msg, fields: m})
}

func (o *recordingObs) LogInfo(msg string, fields ...ports.Field) { o.log("info", msg, fields) }
func (o *recordingObs) LogWarn(msg string, fields ...ports.Field) { o.log("warn", msg, fields) }
func (o *recordingObs) LogError(msg string, _ error, fields ...ports.Field) {
	o.log("error", msg, fields)
}
func (o *recordingObs) LogCritical(msg string, _ error, fields ...ports.Field) {
	o.log("critical", msg, fields)
}
func (o *recordingObs) IncCounter(name string, v float64) {
	o.mu.Lock()
	o.counters[name] += v
	o.mu.Unlock()
}
func (o *recordingObs) ObserveLatency(string, float64) {}
func (o *recordingObs) SetGauge(string, float64)       {}
func (o *recordingObs) RecordDataGap(channel string, cycle int64, _ error) {
	o.mu.Lock()
	o.gaps = append(o.gaps, fmt.Sprintf("%s@%d", channel, cycle))
	o.mu.Unlock()
}

// count returns how many lines were logged at level with msg for channel.
func (o *recordingObs) count(level, msg, channel string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := 0
	for _, l := range o.lines {
		if l.level == level && l.msg == msg && l.fields["channel"] == channel {
			n++
		}
	}
	return n
}

func (o *recordingObs) counter(name string) float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.counters[name]
}

func testOptions(dir string) ports.RunOptions {
	return ports.RunOptions{
		GlobalTrigger:       ports.Trigger{Kind: ports.TriggerTimeStep, Frequency: 1},
		ExtractsEnabled:     true,
		ExtractsDir:         dir,
		ExtractFrequency:    1,
		ExtractTemplate:     DefaultExtractTemplate,
		ExtractFormats:      []string{"vtpd", "vti"},
		LiveEnabled:         true,
		LiveTrigger:         ports.Trigger{Kind: ports.TriggerTimeStep, Frequency: 1},
		MergePartitionsOnly: true,
	}
}
