package appointment

import (
	"context"

	"github.com/google/uuid"

	"github.com/clinic/clinic/internal/domain/doctor"
)

// Filter narrows a listing. Zero fields match everything.
type Filter struct {
	DoctorID  uuid.UUID
	PatientID string
}

// Repository persists appointments. Create and Update return ErrSlotTaken when
// the write would give a doctor two appointments in one slot; GetByID,
// Update and Delete return ErrNotFound for unknown ids.
type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f Filter, limit, offset int) ([]*Appointment, int, error)
	// ListForDoctorDay returns every appointment of doctorID whose effective
	// date is date, rejected ones included.
	ListForDoctorDay(ctx context.Context, doctorID uuid.UUID, date Date) ([]*Appointment, error)
}

// DoctorDirectory resolves doctor ids.
type DoctorDirectory interface {
	GetDoctor(ctx context.Context, id uuid.UUID) (*doctor.Doctor, error)
}
