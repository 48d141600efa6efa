package domain

import "testing"

func TestDatasetCloneIsDeep(t *testing.T) {
	src := &Dataset{
		Channel: "uniform",
		Partitions: []Partition{
			{DomainID: 0, Fields: map[string]Field{"f": {Association: "element", Values: []float64{1, 2}}}},
		},
	}

	dup := src.Clone()
	dup.Partitions[0].Fields["f"].Values[0] = 99

	if got := src.Partitions[0].Fields["f"].Values[0]; got != 1 {
		t.Fatalf("expected source values to be untouched, got %v", got)
	}
}

func TestDatasetEmpty(t *testing.T) {
	var nilSet *Dataset
	if !nilSet.Empty() {
		t.Fatalf("expected nil dataset to be empty")
	}
	if !(&Dataset{}).Empty() {
		t.Fatalf("expected dataset without partitions to be empty")
	}
	if (&Dataset{Partitions: []Partition{{}}}).Empty() {
		t.Fatalf("expected dataset with a partition to be non-empty")
	}
}

func TestPartitionCloneCopiesExplicitMesh(t *testing.T) {
	src := Partition{
		Coords:   Coordset{Type: CoordsExplicit, X: []float64{0, 1}, Y: []float64{0, 0}, Z: []float64{0, 0}},
		Topology: Topology{Type: TopologyUnstructured, Shape: "hex", Connectivity: []int64{0, 1}},
	}

	dup := src.Clone()
	dup.Coords.X[1] = 42
	dup.Topology.Connectivity[0] = 7

	if src.Coords.X[1] != 1 || src.Topology.Connectivity[0] != 0 {
		t.Fatalf("expected explicit arrays to be copied, got x=%v conn=%v", src.Coords.X, src.Topology.Connectivity)
	}
	if dup.Coords.NumPoints() != 2 {
		t.Fatalf("expected 2 explicit points, got %d", dup.Coords.NumPoints())
	}
	if n := (Coordset{Type: CoordsUniform, Dims: [3]int{3, 5, 5}}).NumPoints(); n != 75 {
		t.Fatalf("expected 75 uniform points, got %d", n)
	}
}
