// Package records provides the PostgreSQL-backed repository for vault records.
package records

import (
	"context"

	"github.com/codevault/codevault/internal/models"
)

// Repository persists vault records. Update and Delete report the storage
// path of an attachment the operation dropped, if any, so callers can log it.
type Repository interface {
	List(ctx context.Context) ([]models.Record, error)
	Create(ctx context.Context, fields models.RecordFields) (string, error)
	Update(ctx context.Context, id string, patch models.RecordPatch) (string, error)
	Delete(ctx context.Context, id string) (string, error)
}
