package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRegistryRegisterDuplicate(t *testing.T) {
	r := NewRegistry(newStubTransport("uniform"), nil, newRecordingObs())

	if _, err := r.Register("uniform"); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, err := r.Register("uniform")
	if !errors.Is(err, ErrDuplicateChannel) {
		t.Fatalf("expected ErrDuplicateChannel, got %v", err)
	}
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected duplicate registration to be a configuration error")
	}
	if _, err := r.Register("  "); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected empty name to be rejected, got %v", err)
	}
}

func TestRegistryChannelsKeepOrder(t *testing.T) {
	r := NewRegistry(newStubTransport(), nil, newRecordingObs())
	for _, n := range []string{"c", "a", "b"} {
		if _, err := r.Register(n); err != nil {
			t.Fatalf("register %s: %v", n, err)
		}
	}

	var got []string
	for _, ch := range r.Channels() {
		got = append(got, ch.Name)
	}
	if diff := cmp.Diff([]string{"c", "a", "b"}, got); diff != "" {
		t.Fatalf("channel order mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistryResolveAndRebind(t *testing.T) {
	tr := newStubTransport("uniform")
	r := NewRegistry(tr, nil, newRecordingObs())
	ch, _ := r.Register("uniform")

	if ch.Producer() != nil {
		t.Fatalf("expected producer to be nil before first bind")
	}

	p, err := r.Resolve("uniform")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if err := r.Rebind("uniform", p); err != nil {
		t.Fatalf("rebind: %v", err)
	}
	if ch.Producer() != p {
		t.Fatalf("expected channel to hold resolved producer")
	}

	next := tr.replace("uniform")
	p2, _ := r.Resolve("uniform")
	if p2 != next {
		t.Fatalf("expected resolve to return replaced proxy")
	}
	_ = r.Rebind("uniform", p2)
	if ch.Producer() != next {
		t.Fatalf("expected rebind to replace the stored producer")
	}

	if err := r.Rebind("ghost", p); !errors.Is(err, ErrUnknownChannel) {
		t.Fatalf("expected ErrUnknownChannel, got %v", err)
	}
}

func TestRegistryResolveMissing(t *testing.T) {
	tr := newStubTransport("uniform")
	tr.setMissing("uniform", true)
	r := NewRegistry(tr, nil, newRecordingObs())

	if _, err := r.Resolve("uniform"); !errors.Is(err, ErrChannelUnresolved) {
		t.Fatalf("expected ErrChannelUnresolved, got %v", err)
	}
}

func TestRegistryOverviewEnumeratesOnce(t *testing.T) {
	tr := newStubTransport("a", "b")
	obs := newRecordingObs()
	r := NewRegistry(tr, nil, obs)

	first := r.Overview()
	second := r.Overview()

	if tr.enumerations != 1 {
		t.Fatalf("expected one enumeration, got %d", tr.enumerations)
	}
	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("expected cached overview of 2 proxies, got %d and %d", len(first), len(second))
	}
}

func TestPassThroughSourceKeepsStableHandle(t *testing.T) {
	tr := newStubTransport("uniform")
	src, err := NewProducerSource(SourcePassThrough)
	if err != nil {
		t.Fatalf("new source: %v", err)
	}
	r := NewRegistry(tr, src, newRecordingObs())

	p1, _ := r.Resolve("uniform")
	replaced := tr.replace("uniform")
	p2, _ := r.Resolve("uniform")

	if p1 != p2 {
		t.Fatalf("expected pass-through handle to stay stable across proxy replacement")
	}
	if p1.Class() != "PassThroughProducer" {
		t.Fatalf("unexpected class %q", p1.Class())
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := p2.UpdatePipeline(ctx); err != nil {
		t.Fatalf("update: %v", err)
	}
	if replaced.updates != 1 {
		t.Fatalf("expected update to reach the current upstream, got %d updates", replaced.updates)
	}
	if p2.Output() != replaced.Output() {
		t.Fatalf("expected pass-through output to mirror upstream output")
	}
}

func TestNewProducerSourceRejectsUnknown(t *testing.T) {
	if _, err := NewProducerSource("mirror"); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	src, err := NewProducerSource("")
	if err != nil || src.Kind() != SourceDirect {
		t.Fatalf("expected empty kind to select direct source, got %v %v", src, err)
	}
}
