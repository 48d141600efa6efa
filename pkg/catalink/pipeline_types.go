package catalink

import (
	"github.com/ghalamif/catalink/internal/app/pipeline"
	"github.com/ghalamif/catalink/internal/domain"
	"github.com/ghalamif/catalink/internal/ports"
)

// Dataset is the payload behind one channel for one cycle.
type Dataset = domain.Dataset

// Partition is one rank's piece of a dataset.
type Partition = domain.Partition

// Coordset describes mesh points, either uniform or explicit.
type Coordset = domain.Coordset

// Topology connects a partition's points into elements.
type Topology = domain.Topology

const (
	CoordsUniform        = domain.CoordsUniform
	CoordsExplicit       = domain.CoordsExplicit
	TopologyUniform      = domain.TopologyUniform
	TopologyUnstructured = domain.TopologyUnstructured
)

// DataField is a named array on a partition.
type DataField = domain.Field

// ExecInfo is passed on every execute call.
type ExecInfo = domain.ExecInfo

// ProxyInfo is one entry of the transport proxy listing.
type ProxyInfo = domain.ProxyInfo

// ExtractRecord describes a persisted extract.
type ExtractRecord = domain.ExtractRecord

// RunOptions is the immutable run configuration handed to the coordinator.
type RunOptions = ports.RunOptions

// Producer is a transport-owned dataset handle.
type Producer = ports.Producer

// Transport resolves channel names to producers.
type Transport = ports.Transport

// Writer persists a producer's output to a path.
type Writer = ports.Writer

// Engine owns live merge stages.
type Engine = ports.Engine

// Stage is an engine-owned merge stage handle.
type Stage = ports.Stage

// Catalog records successful extracts.
type Catalog = ports.Catalog

// Observability emits logs and metrics about the run.
type Observability = ports.Observability

// Field is a structured log/metric field used by Observability implementations.
type Field = ports.Field

// ChannelError carries the channel and cycle of a local failure.
type ChannelError = pipeline.ChannelError

var (
	ErrConfiguration      = pipeline.ErrConfiguration
	ErrDuplicateChannel   = pipeline.ErrDuplicateChannel
	ErrChannelUnresolved  = pipeline.ErrChannelUnresolved
	ErrExtractionDisabled = pipeline.ErrExtractionDisabled
	ErrExtractionWrite    = pipeline.ErrExtractionWrite
	ErrLiveRebind         = pipeline.ErrLiveRebind
	ErrLifecycle          = pipeline.ErrLifecycle
)
