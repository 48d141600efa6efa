package viewer

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ghalamif/catalink/internal/ports"
)

var (
	ErrUnknownStage  = errors.New("viewer: unknown stage")
	ErrDuplicate     = errors.New("viewer: stage already exists")
	ErrMixedCoordset = errors.New("viewer: partitions have mixed coordset types")
)

type stage struct {
	id string
}

func (s *stage) ID() string { return s.id }

type node struct {
	stage         *stage
	input         ports.Producer
	partsOnly     bool
	visible       bool
	generation    uint64
	lastRebind    time.Time
	lastInputName string
}

// Scene is the in-process stand-in for a connected viewer. It keeps one
// merge node per channel and lets the live endpoint render what a client
// would currently see.
type Scene struct {
	mu    sync.Mutex
	nodes map[string]*node
	order []string
	now   func() time.Time
}

func NewScene() *Scene {
	return &Scene{nodes: make(map[string]*node), now: time.Now}
}

func (s *Scene) CreateMergeStage(name string, input ports.Producer, mergePartitionsOnly bool) (ports.Stage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.nodes[name]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicate, name)
	}
	n := &node{stage: &stage{id: name}, partsOnly: mergePartitionsOnly}
	if input != nil {
		n.input = input
		n.lastInputName = input.Name()
	}
	s.nodes[name] = n
	s.order = append(s.order, name)
	return n.stage, nil
}

// RebindInput points the node at p. With merge-partitions-only set the
// node refuses inputs whose partitions disagree on coordset type.
func (s *Scene) RebindInput(st ports.Stage, p ports.Producer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.lookup(st)
	if err != nil {
		return err
	}
	if n.partsOnly && p != nil {
		if ds := p.Output(); !ds.Empty() {
			want := ds.Partitions[0].Coords.Type
			for _, part := range ds.Partitions[1:] {
				if part.Coords.Type != want {
					return fmt.Errorf("%w: %q vs %q", ErrMixedCoordset, want, part.Coords.Type)
				}
			}
		}
	}
	n.input = p
	n.generation++
	n.lastRebind = s.now()
	if p != nil {
		n.lastInputName = p.Name()
	}
	return nil
}

func (s *Scene) Reveal(st ports.Stage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.lookup(st)
	if err != nil {
		return err
	}
	n.visible = true
	return nil
}

func (s *Scene) lookup(st ports.Stage) (*node, error) {
	if st == nil {
		return nil, ErrUnknownStage
	}
	n, ok := s.nodes[st.ID()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStage, st.ID())
	}
	return n, nil
}

// StageView is the JSON shape served on /live.
type StageView struct {
	Stage      string    `json:"stage"`
	Input      string    `json:"input,omitempty"`
	Visible    bool      `json:"visible"`
	Rebinds    uint64    `json:"rebinds"`
	Cycle      int64     `json:"cycle"`
	Partitions int       `json:"partitions"`
	Points     int       `json:"points"`
	LastRebind time.Time `json:"last_rebind,omitempty"`
}

// Snapshot lists every stage in creation order.
func (s *Scene) Snapshot() []StageView {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]StageView, 0, len(s.order))
	for _, name := range s.order {
		n := s.nodes[name]
		v := StageView{
			Stage:      name,
			Input:      n.lastInputName,
			Visible:    n.visible,
			Rebinds:    n.generation,
			Cycle:      -1,
			LastRebind: n.lastRebind,
		}
		if n.input != nil {
			if ds := n.input.Output(); !ds.Empty() {
				v.Cycle = ds.Cycle
				v.Partitions = len(ds.Partitions)
				for _, part := range ds.Partitions {
					v.Points += part.Coords.NumPoints()
				}
			}
		}
		out = append(out, v)
	}
	return out
}

// Visible returns the names of revealed stages, sorted.
func (s *Scene) Visible() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var names []string
	for name, n := range s.nodes {
		if n.visible {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

var _ ports.Engine = (*Scene)(nil)
