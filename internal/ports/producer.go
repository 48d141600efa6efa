package ports

import (
	"context"

	"github.com/ghalamif/catalink/internal/domain"
)

// Producer is the transport-owned handle for a channel's current dataset.
// Handles are referenced, never owned, by the pipeline.
type Producer interface {
	Name() string
	Class() string
	// UpdatePipeline pushes pending data through so Output reflects the
	// current cycle.
	UpdatePipeline(ctx context.Context) error
	// Output is nil until the first successful UpdatePipeline.
	Output() *domain.Dataset
}

// EmptyProducer reports whether p can't yet be shown to a viewer.
func EmptyProducer(p Producer) bool {
	return p == nil || p.Output().Empty()
}
