package ports

import (
	"context"

	"github.com/ghalamif/catalink/internal/domain"
)

// Catalog indexes successful extract writes somewhere queryable.
type Catalog interface {
	Record(ctx context.Context, rec domain.ExtractRecord) error
	Name() string
}
