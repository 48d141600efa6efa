package domain

import "time"

// Dataset is the in-memory payload behind one channel for one cycle. It is
// assembled by the transport from one partition per rank.
type Dataset struct {
	Channel    string      `json:"channel"`
	Cycle      int64       `json:"cycle"`
	Time       float64     `json:"time"`
	Generation uint64      `json:"generation"`
	Partitions []Partition `json:"partitions"`
}

// Partition is the piece of a dataset contributed by a single rank.
type Partition struct {
	DomainID int              `json:"domain_id"`
	Coords   Coordset         `json:"coords"`
	Topology Topology         `json:"topology"`
	Fields   map[string]Field `json:"fields,omitempty"`
}

const (
	CoordsUniform  = "uniform"
	CoordsExplicit = "explicit"

	TopologyUniform      = "uniform"
	TopologyUnstructured = "unstructured"
)

// Coordset describes mesh points. Uniform sets are implied by Dims, Origin
// and Spacing; explicit sets list every point in X, Y and Z. Consumers use
// Type to reject partitions that mix the two.
type Coordset struct {
	Type    string     `json:"type"`
	Dims    [3]int     `json:"dims"`
	Origin  [3]float64 `json:"origin"`
	Spacing [3]float64 `json:"spacing"`
	X       []float64  `json:"x,omitempty"`
	Y       []float64  `json:"y,omitempty"`
	Z       []float64  `json:"z,omitempty"`
}

// NumPoints is len(X) for explicit sets and the product of Dims otherwise.
func (c Coordset) NumPoints() int {
	if c.Type == CoordsExplicit {
		return len(c.X)
	}
	return c.Dims[0] * c.Dims[1] * c.Dims[2]
}

// Topology connects points into elements. Uniform topologies carry no
// connectivity; unstructured ones list Shape vertices per element.
type Topology struct {
	Type         string  `json:"type,omitempty"`
	Shape        string  `json:"shape,omitempty"`
	Connectivity []int64 `json:"connectivity,omitempty"`
}

// Field is a named array attached to a topology.
type Field struct {
	Association string    `json:"association"`
	Values      []float64 `json:"values"`
}

// Empty reports whether the dataset carries no partitions.
func (d *Dataset) Empty() bool {
	return d == nil || len(d.Partitions) == 0
}

// Clone returns a deep copy so a producer's output can't be mutated by a
// later publish.
func (d *Dataset) Clone() *Dataset {
	if d == nil {
		return nil
	}
	out := *d
	out.Partitions = make([]Partition, len(d.Partitions))
	for i, p := range d.Partitions {
		out.Partitions[i] = p.Clone()
	}
	return &out
}

func (p Partition) Clone() Partition {
	out := p
	out.Coords.X = cloneFloats(p.Coords.X)
	out.Coords.Y = cloneFloats(p.Coords.Y)
	out.Coords.Z = cloneFloats(p.Coords.Z)
	if p.Topology.Connectivity != nil {
		out.Topology.Connectivity = append([]int64(nil), p.Topology.Connectivity...)
	}
	if len(p.Fields) == 0 {
		out.Fields = nil
		return out
	}
	out.Fields = make(map[string]Field, len(p.Fields))
	for k, f := range p.Fields {
		vals := make([]float64, len(f.Values))
		copy(vals, f.Values)
		out.Fields[k] = Field{Association: f.Association, Values: vals}
	}
	return out
}

func cloneFloats(v []float64) []float64 {
	if v == nil {
		return nil
	}
	return append([]float64(nil), v...)
}

// ExecInfo is what the host hands to every execute call.
type ExecInfo struct {
	Cycle int64
	Time  float64
}

// ProxyInfo is one entry of the transport's diagnostic proxy listing.
type ProxyInfo struct {
	Name       string
	Class      string
	Properties []string
}

// ExtractRecord describes one successful extract write.
type ExtractRecord struct {
	Channel   string
	Rule      string
	Cycle     int64
	Time      float64
	Path      string
	Format    string
	WrittenAt time.Time
}
