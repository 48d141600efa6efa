package main

import (
	"fmt"

	"github.com/ghalamif/catalink"
)

const (
	pointsPerAxis = 5
	spacing       = 1.0

	meshUniform  = "uniform"
	meshExplicit = "explicit"
)

// mesh is one rank's block of the global 5x5x5 grid. X is split across
// ranks when the cell count divides evenly, otherwise every rank holds the
// full grid tiled along X. Explicit meshes carry the same geometry as
// listed points and hex connectivity.
type mesh struct {
	kind string
	rank int
	nx   int
	ny   int
	nz   int
}

func parseMeshKind(kind string) (string, error) {
	switch kind {
	case meshUniform, meshExplicit:
		return kind, nil
	default:
		return "", fmt.Errorf("--mesh must be %q or %q, got %q", meshUniform, meshExplicit, kind)
	}
}

func newMesh(kind string, rank, ranks int) mesh {
	nx := pointsPerAxis
	cells := pointsPerAxis - 1
	if ranks > 1 && cells%ranks == 0 {
		nx = cells/ranks + 1
	}
	return mesh{kind: kind, rank: rank, nx: nx, ny: pointsPerAxis, nz: pointsPerAxis}
}

func (m mesh) cells() int {
	return (m.nx - 1) * (m.ny - 1) * (m.nz - 1)
}

func (m mesh) originX() float64 {
	return float64(m.rank*(m.nx-1)) * spacing
}

// partition builds this rank's data for step. Cell values run forward on
// even steps and backward on odd ones, offset by the step.
func (m mesh) partition(step int) catalink.Partition {
	n := m.cells()
	vals := make([]float64, n)
	for i := range vals {
		if step%2 == 0 {
			vals[i] = float64(i + step)
		} else {
			vals[i] = float64(n - 1 - i + step)
		}
	}
	part := catalink.Partition{
		DomainID: m.rank,
		Fields: map[string]catalink.DataField{
			"f": {Association: "element", Values: vals},
		},
	}
	if m.kind == meshExplicit {
		part.Coords, part.Topology = m.explicit()
		return part
	}
	part.Coords = catalink.Coordset{
		Type:    catalink.CoordsUniform,
		Dims:    [3]int{m.nx, m.ny, m.nz},
		Origin:  [3]float64{m.originX(), 0, 0},
		Spacing: [3]float64{spacing, spacing, spacing},
	}
	part.Topology = catalink.Topology{Type: catalink.TopologyUniform}
	return part
}

func (m mesh) vertex(i, j, k int) int64 {
	return int64(i + j*m.nx + k*m.nx*m.ny)
}

// explicit lists every point x-fastest and connects each cell as a hex:
// the four corners of its k face counter-clockwise, then the same four at k+1.
func (m mesh) explicit() (catalink.Coordset, catalink.Topology) {
	np := m.nx * m.ny * m.nz
	cs := catalink.Coordset{
		Type: catalink.CoordsExplicit,
		Dims: [3]int{m.nx, m.ny, m.nz},
		X:    make([]float64, 0, np),
		Y:    make([]float64, 0, np),
		Z:    make([]float64, 0, np),
	}
	ox := m.originX()
	for k := 0; k < m.nz; k++ {
		for j := 0; j < m.ny; j++ {
			for i := 0; i < m.nx; i++ {
				cs.X = append(cs.X, ox+float64(i)*spacing)
				cs.Y = append(cs.Y, float64(j)*spacing)
				cs.Z = append(cs.Z, float64(k)*spacing)
			}
		}
	}

	conn := make([]int64, 0, 8*m.cells())
	for k := 0; k < m.nz-1; k++ {
		for j := 0; j < m.ny-1; j++ {
			for i := 0; i < m.nx-1; i++ {
				for _, dk := range [2]int{0, 1} {
					conn = append(conn,
						m.vertex(i, j, k+dk),
						m.vertex(i+1, j, k+dk),
						m.vertex(i+1, j+1, k+dk),
						m.vertex(i, j+1, k+dk),
					)
				}
			}
		}
	}
	return cs, catalink.Topology{Type: catalink.TopologyUnstructured, Shape: "hex", Connectivity: conn}
}
