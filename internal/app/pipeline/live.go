package pipeline

import (
	"fmt"

	"github.com/ghalamif/catalink/internal/domain"
	"github.com/ghalamif/catalink/internal/ports"
)

// StageState is the lifecycle of a live stage. Revealed is terminal.
type StageState int

const (
	StageUnbound StageState = iota
	StageBound
	StageRevealed
)

func (s StageState) String() string {
	switch s {
	case StageUnbound:
		return "unbound"
	case StageBound:
		return "bound"
	case StageRevealed:
		return "revealed"
	default:
		return fmt.Sprintf("StageState(%d)", int(s))
	}
}

// LiveStage is the merge stage mirroring one channel to the viewer.
type LiveStage struct {
	Channel string

	handle     ports.Stage
	input      ports.Producer
	state      StageState
	revealedAt int64
}

func (s *LiveStage) Handle() ports.Stage   { return s.handle }
func (s *LiveStage) Input() ports.Producer { return s.input }
func (s *LiveStage) State() StageState     { return s.state }
func (s *LiveStage) Revealed() bool        { return s.state == StageRevealed }

// RevealedAt is the cycle the stage was revealed on, -1 if it never was.
func (s *LiveStage) RevealedAt() int64 {
	if s.state != StageRevealed {
		return -1
	}
	return s.revealedAt
}

// LiveMirror keeps one merge stage per channel pointed at the channel's
// current producer.
type LiveMirror struct {
	opts     ports.RunOptions
	engine   ports.Engine
	registry *Registry
	obs      ports.Observability
	stages   map[string]*LiveStage
}

func NewLiveMirror(opts ports.RunOptions, engine ports.Engine, registry *Registry, obs ports.Observability, stages map[string]*LiveStage) *LiveMirror {
	if stages == nil {
		stages = make(map[string]*LiveStage)
	}
	return &LiveMirror{opts: opts, engine: engine, registry: registry, obs: obs, stages: stages}
}

// Attach creates the merge stage for ch. The stage is never revealed here:
// showing a stage before its input holds data evaluates an empty pipeline.
func (l *LiveMirror) Attach(ch *Channel) (*LiveStage, error) {
	if !l.opts.LiveEnabled {
		return nil, fmt.Errorf("%w: live mirroring disabled", ErrConfiguration)
	}
	if ch == nil {
		return nil, fmt.Errorf("%w: nil channel", ErrConfiguration)
	}
	if _, ok := l.stages[ch.Name]; ok {
		return nil, fmt.Errorf("%w: live stage for %q", ErrDuplicateChannel, ch.Name)
	}

	input := ch.Producer()
	handle, err := l.engine.CreateMergeStage("MergeBlocks_"+ch.Name, input, l.opts.MergePartitionsOnly)
	if err != nil {
		return nil, fmt.Errorf("create merge stage for %q: %w", ch.Name, err)
	}

	stage := &LiveStage{Channel: ch.Name, handle: handle, input: input}
	if !ports.EmptyProducer(input) {
		stage.state = StageBound
	}
	l.stages[ch.Name] = stage
	ch.Live = true
	l.obs.LogInfo("live_stage_created",
		ports.Field{Key: "channel", Value: ch.Name},
		ports.Field{Key: "stage", Value: handle.ID()},
		ports.Field{Key: "state", Value: stage.state.String()})
	return stage, nil
}

func (l *LiveMirror) Stage(channel string) (*LiveStage, bool) {
	s, ok := l.stages[channel]
	return s, ok
}

// Sync resolves the channel, rebinds the stage input unconditionally and
// reveals the stage the first time it holds data. A rejected rebind leaves
// the previous binding in place.
func (l *LiveMirror) Sync(ch *Channel, info domain.ExecInfo) error {
	stage, ok := l.stages[ch.Name]
	if !ok {
		return nil
	}

	p, err := l.registry.Resolve(ch.Name)
	if err != nil {
		return channelErr(ch.Name, info.Cycle, "live_resolve", err)
	}

	// The proxy may be the same handle with new data behind it; rebinding
	// anyway makes the engine drop state derived from the old generation.
	if err := l.engine.RebindInput(stage.handle, p); err != nil {
		l.obs.IncCounter(MetricLiveRebindFailures, 1)
		return channelErr(ch.Name, info.Cycle, "live_rebind", fmt.Errorf("%w: %w", ErrLiveRebind, err))
	}
	stage.input = p
	l.obs.IncCounter(MetricLiveRebinds, 1)

	if stage.state == StageUnbound && !ports.EmptyProducer(p) {
		stage.state = StageBound
	}
	// Bound may date from an earlier input; only the input bound now counts.
	if stage.state != StageBound || ports.EmptyProducer(p) || !l.opts.LiveEnabled {
		return nil
	}

	if err := l.engine.Reveal(stage.handle); err != nil {
		return channelErr(ch.Name, info.Cycle, "live_reveal", err)
	}
	stage.state = StageRevealed
	stage.revealedAt = info.Cycle
	l.obs.IncCounter(MetricReveals, 1)
	l.obs.LogInfo("live_stage_revealed",
		ports.Field{Key: "channel", Value: ch.Name},
		ports.Field{Key: "cycle", Value: info.Cycle},
		ports.Field{Key: "stage", Value: stage.handle.ID()})
	return nil
}
