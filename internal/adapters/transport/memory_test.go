package transport

import (
	"context"
	"testing"

	"github.com/ghalamif/catalink/internal/domain"
)

func part(rank int) domain.Partition {
	return domain.Partition{DomainID: rank, Coords: domain.Coordset{Type: "uniform"}}
}

func TestMemTransportStagesUntilUpdate(t *testing.T) {
	tr := NewMemTransport(false)
	tr.Publish("uniform", domain.ExecInfo{Cycle: 0}, part(1))
	tr.Publish("uniform", domain.ExecInfo{Cycle: 0}, part(0))

	p, ok := tr.Resolve("uniform")
	if !ok {
		t.Fatalf("expected proxy to be registered")
	}
	if p.Output() != nil {
		t.Fatalf("expected no output before UpdatePipeline")
	}

	if err := p.UpdatePipeline(context.Background()); err != nil {
		t.Fatalf("update: %v", err)
	}
	out := p.Output()
	if len(out.Partitions) != 2 || out.Partitions[0].DomainID != 0 || out.Partitions[1].DomainID != 1 {
		t.Fatalf("unexpected partitions: %+v", out.Partitions)
	}
	if out.Generation != 1 {
		t.Fatalf("expected generation 1, got %d", out.Generation)
	}
}

func TestMemTransportInPlaceKeepsHandle(t *testing.T) {
	tr := NewMemTransport(false)
	tr.Publish("uniform", domain.ExecInfo{Cycle: 0}, part(0))
	first, _ := tr.Resolve("uniform")
	_ = first.UpdatePipeline(context.Background())

	tr.Publish("uniform", domain.ExecInfo{Cycle: 1}, part(0))
	second, _ := tr.Resolve("uniform")
	if first != second {
		t.Fatalf("expected in-place mode to keep the handle")
	}
	_ = second.UpdatePipeline(context.Background())
	if got := second.Output(); got.Cycle != 1 || got.Generation != 2 {
		t.Fatalf("expected cycle 1 generation 2, got %+v", got)
	}
}

func TestMemTransportReplaceSwapsHandle(t *testing.T) {
	tr := NewMemTransport(true)
	tr.Publish("uniform", domain.ExecInfo{Cycle: 0}, part(0))
	first, _ := tr.Resolve("uniform")
	_ = first.UpdatePipeline(context.Background())

	tr.Publish("uniform", domain.ExecInfo{Cycle: 1}, part(0))
	second, _ := tr.Resolve("uniform")
	if first == second {
		t.Fatalf("expected replace mode to hand out a new proxy")
	}
	if first.Output().Cycle != 0 {
		t.Fatalf("old proxy must keep its own data")
	}
	_ = second.UpdatePipeline(context.Background())
	if second.Output().Generation != 2 {
		t.Fatalf("expected generation to continue across proxies, got %d", second.Output().Generation)
	}
}

func TestMemTransportRepublishSameRankOverwrites(t *testing.T) {
	tr := NewMemTransport(false)
	info := domain.ExecInfo{Cycle: 0}
	tr.Publish("uniform", info, part(0))
	tr.Publish("uniform", info, part(0))

	p, _ := tr.Resolve("uniform")
	_ = p.UpdatePipeline(context.Background())
	if n := len(p.Output().Partitions); n != 1 {
		t.Fatalf("expected one partition per rank, got %d", n)
	}
}

func TestMemTransportEnumerateAndRemove(t *testing.T) {
	tr := NewMemTransport(false)
	tr.Publish("b", domain.ExecInfo{}, part(0))
	tr.Publish("a", domain.ExecInfo{}, part(0))

	got := tr.EnumerateProxies()
	if len(got) != 2 || got[0].Name != "a" || got[1].Class != proxyClass {
		t.Fatalf("unexpected proxies: %+v", got)
	}

	tr.Remove("a")
	if _, ok := tr.Resolve("a"); ok {
		t.Fatalf("expected removed channel to be unresolved")
	}
}

func TestProxyUpdateHonoursContext(t *testing.T) {
	tr := NewMemTransport(false)
	tr.Publish("uniform", domain.ExecInfo{}, part(0))
	p, _ := tr.Resolve("uniform")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.UpdatePipeline(ctx); err == nil {
		t.Fatalf("expected cancelled context to abort the update")
	}
}
