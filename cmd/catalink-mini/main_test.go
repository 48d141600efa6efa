package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ghalamif/catalink"
	"github.com/ghalamif/catalink/internal/adapters/writer"
)

func TestMeshSplitsXAcrossRanks(t *testing.T) {
	cases := []struct {
		ranks  int
		wantNX int
	}{
		{ranks: 1, wantNX: 5},
		{ranks: 2, wantNX: 3},
		{ranks: 4, wantNX: 2},
		{ranks: 3, wantNX: 5},
	}
	for _, tc := range cases {
		m := newMesh(meshUniform, tc.ranks-1, tc.ranks)
		if m.nx != tc.wantNX {
			t.Fatalf("ranks=%d: expected nx %d, got %d", tc.ranks, tc.wantNX, m.nx)
		}
	}

	m := newMesh(meshUniform, 1, 2)
	part := m.partition(0)
	if part.Coords.Origin[0] != 2 {
		t.Fatalf("expected rank 1 origin x=2, got %v", part.Coords.Origin[0])
	}
	if len(part.Fields["f"].Values) != 2*4*4 {
		t.Fatalf("expected 32 cells, got %d", len(part.Fields["f"].Values))
	}
}

func TestMeshValuesAlternate(t *testing.T) {
	m := newMesh(meshUniform, 0, 1)
	even := m.partition(2).Fields["f"].Values
	odd := m.partition(3).Fields["f"].Values
	n := m.cells()

	if even[0] != 2 || even[n-1] != float64(n-1+2) {
		t.Fatalf("even step should ascend from step, got first=%v last=%v", even[0], even[n-1])
	}
	if odd[0] != float64(n-1+3) || odd[n-1] != 3 {
		t.Fatalf("odd step should descend to step, got first=%v last=%v", odd[0], odd[n-1])
	}
}

func TestSimulateWritesExtracts(t *testing.T) {
	dir := t.TempDir()
	cfg, err := catalink.ParseConfig([]byte("extracts:\n  dir: " + dir + "\nlive:\n  yield: 1ms\n"))
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	host, err := catalink.NewHost(cfg, catalink.WithObservability(quietObs{}))
	if err != nil {
		t.Fatalf("NewHost: %v", err)
	}

	if err := simulate(context.Background(), host, meshUniform, "uniform", 2, 3, 0); err != nil {
		t.Fatalf("simulate: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read extracts: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 extracts, got %d", len(entries))
	}
	if _, err := os.Stat(filepath.Join(dir, "uniform_000002.vtpd")); err != nil {
		t.Fatalf("expected last extract: %v", err)
	}
}

func TestExplicitMeshListsPointsAndHexes(t *testing.T) {
	m := newMesh(meshExplicit, 1, 2)
	part := m.partition(0)

	if part.Coords.Type != catalink.CoordsExplicit {
		t.Fatalf("expected explicit coordset, got %q", part.Coords.Type)
	}
	if n := part.Coords.NumPoints(); n != 3*5*5 {
		t.Fatalf("expected 75 points, got %d", n)
	}
	if part.Coords.X[0] != 2 || part.Coords.X[1] != 3 || part.Coords.Y[3] != 1 || part.Coords.Z[15] != 1 {
		t.Fatalf("unexpected point layout x=%v y=%v", part.Coords.X[:4], part.Coords.Y[:4])
	}

	topo := part.Topology
	if topo.Type != catalink.TopologyUnstructured || topo.Shape != "hex" {
		t.Fatalf("unexpected topology %q/%q", topo.Type, topo.Shape)
	}
	if len(topo.Connectivity) != 8*m.cells() {
		t.Fatalf("expected %d connectivity entries, got %d", 8*m.cells(), len(topo.Connectivity))
	}
	want := []int64{0, 1, 4, 3, 15, 16, 19, 18}
	for i, v := range want {
		if topo.Connectivity[i] != v {
			t.Fatalf("first hex: expected %v, got %v", want, topo.Connectivity[:8])
		}
	}
	if len(part.Fields["f"].Values) != m.cells() {
		t.Fatalf("expected one value per hex, got %d", len(part.Fields["f"].Values))
	}
}

func TestSimulateExplicitWritesExtracts(t *testing.T) {
	dir := t.TempDir()
	cfg, err := catalink.ParseConfig([]byte("channels: [explicit]\nextracts:\n  dir: " + dir + "\nlive:\n  yield: 1ms\n"))
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	host, err := catalink.NewHost(cfg, catalink.WithObservability(quietObs{}))
	if err != nil {
		t.Fatalf("NewHost: %v", err)
	}

	if err := simulate(context.Background(), host, meshExplicit, "explicit", 2, 2, 0); err != nil {
		t.Fatalf("simulate: %v", err)
	}

	ds, err := writer.ReadFile(filepath.Join(dir, "explicit_000001.vtpd"))
	if err != nil {
		t.Fatalf("read extract: %v", err)
	}
	if len(ds.Partitions) != 2 {
		t.Fatalf("expected 2 partitions, got %d", len(ds.Partitions))
	}
	for _, p := range ds.Partitions {
		if p.Coords.Type != catalink.CoordsExplicit || len(p.Topology.Connectivity) != 8*2*4*4 {
			t.Fatalf("domain %d lost its explicit mesh: type=%q conn=%d", p.DomainID, p.Coords.Type, len(p.Topology.Connectivity))
		}
	}
}

func TestProxiesCommandExplicitMesh(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"proxies", "--mesh", "explicit", "--ranks", "2"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("proxies: %v", err)
	}
	if !strings.HasPrefix(out.String(), "explicit (") {
		t.Fatalf("expected explicit channel proxy, got:\n%s", out.String())
	}

	if _, _, err := meshChannel("curvilinear", ""); err == nil {
		t.Fatalf("expected unknown mesh kind to be rejected")
	}
}

func TestScanMetrics(t *testing.T) {
	body := strings.NewReader(`# HELP catalink_cycles_total Execute calls processed.
# TYPE catalink_cycles_total counter
catalink_cycles_total 12
catalink_active_channels 1
other_metric 3
`)
	values, err := scanMetrics(body, statsTargets)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if values["catalink_cycles_total"] != 12 || values["catalink_active_channels"] != 1 {
		t.Fatalf("unexpected values: %v", values)
	}
}

func TestValidateCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	if err := os.WriteFile(path, []byte("channels: [uniform, grid]\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"validate", "--config", path, "--", "--VTKextracts", "OFF"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !strings.Contains(out.String(), "[uniform grid]") || !strings.Contains(out.String(), "extracts:  false") {
		t.Fatalf("unexpected output:\n%s", out.String())
	}
}
