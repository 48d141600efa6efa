package ports

import "context"

// Writer persists a producer's current output to path. The file extension
// selects the on-disk format.
type Writer interface {
	Write(ctx context.Context, p Producer, path string) error
	Name() string
}
