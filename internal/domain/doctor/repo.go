package doctor

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists doctors. GetByID, Update and Delete return ErrNotFound
// for unknown ids; Create and Update return ErrEmailTaken on duplicate email.
type Repository interface {
	Create(ctx context.Context, d *Doctor) error
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	Update(ctx context.Context, d *Doctor) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, specialty string, limit, offset int) ([]*Doctor, int, error)
}
