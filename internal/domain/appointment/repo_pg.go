package appointment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinic/clinic/internal/platform/db"
)

const slotConstraint = "appointments_slot_key"

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const apptCols = `id, doctor_id, doctor_name, date, time_slot, rescheduled_date, rescheduled_time_slot,
	patient_id, patient_name, patient_email, patient_phone, health_concern, status, created_at, updated_at`

// slotOrder sorts rows by the position of their effective slot in DailySlots.
var slotOrder = `array_position(ARRAY['` + strings.Join(DailySlots, `','`) + `']::text[], effective_time_slot)`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var (
		a         Appointment
		date      time.Time
		resDate   *time.Time
		resSlot   *string
		statusStr string
	)
	err := row.Scan(&a.ID, &a.DoctorID, &a.DoctorName, &date, &a.TimeSlot, &resDate, &resSlot,
		&a.PatientID, &a.PatientName, &a.PatientEmail, &a.PatientPhone, &a.HealthConcern,
		&statusStr, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.Date = DateOf(date)
	a.Status = Status(statusStr)
	a.Placement = Original{}
	if resDate != nil && resSlot != nil {
		a.Placement = Rescheduled{Date: DateOf(*resDate), TimeSlot: *resSlot}
	}
	return &a, nil
}

// placementArgs returns the nullable rescheduled_* column values.
func placementArgs(a *Appointment) (*time.Time, *string) {
	r, ok := a.Placement.(Rescheduled)
	if !ok {
		return nil, nil
	}
	t := r.Date.Time()
	slot := r.TimeSlot
	return &t, &slot
}

func translate(err error) error {
	switch {
	case db.IsNoRows(err):
		return ErrNotFound
	case db.IsUniqueViolation(err, slotConstraint):
		return ErrSlotTaken
	case db.IsForeignKeyViolation(err):
		return ErrDoctorNotFound
	}
	return err
}

func (r *repoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	resDate, resSlot := placementArgs(a)
	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (id, doctor_id, doctor_name, date, time_slot,
			rescheduled_date, rescheduled_time_slot, patient_id, patient_name,
			patient_email, patient_phone, health_concern, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		RETURNING created_at, updated_at`,
		a.ID, a.DoctorID, a.DoctorName, a.Date.Time(), a.TimeSlot, resDate, resSlot,
		a.PatientID, a.PatientName, a.PatientEmail, a.PatientPhone, a.HealthConcern, string(a.Status))
	if err := row.Scan(&a.CreatedAt, &a.UpdatedAt); err != nil {
		return fmt.Errorf("insert appointment: %w", translate(err))
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := scanAppointment(r.pool.QueryRow(ctx, `SELECT `+apptCols+` FROM appointments WHERE id = $1`, id))
	if err != nil {
		return nil, translate(err)
	}
	return a, nil
}

func (r *repoPG) Update(ctx context.Context, a *Appointment) error {
	resDate, resSlot := placementArgs(a)
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments SET status=$2, rescheduled_date=$3, rescheduled_time_slot=$4, updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		a.ID, string(a.Status), resDate, resSlot)
	if err := row.Scan(&a.UpdatedAt); err != nil {
		return fmt.Errorf("update appointment: %w", translate(err))
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete appointment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, f Filter, limit, offset int) ([]*Appointment, int, error) {
	var (
		conds []string
		args  []interface{}
	)
	if f.DoctorID != uuid.Nil {
		args = append(args, f.DoctorID)
		conds = append(conds, fmt.Sprintf("doctor_id = $%d", len(args)))
	}
	if f.PatientID != "" {
		args = append(args, f.PatientID)
		conds = append(conds, fmt.Sprintf("patient_id = $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM appointments`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count appointments: %w", err)
	}

	query := `SELECT ` + apptCols + ` FROM appointments` + where +
		` ORDER BY effective_date, ` + slotOrder + `, created_at` +
		fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	items, err := r.query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *repoPG) ListForDoctorDay(ctx context.Context, doctorID uuid.UUID, date Date) ([]*Appointment, error) {
	return r.query(ctx, `SELECT `+apptCols+` FROM appointments
		WHERE doctor_id = $1 AND effective_date = $2
		ORDER BY `+slotOrder+`, created_at`, doctorID, date.Time())
}

func (r *repoPG) query(ctx context.Context, sql string, args ...interface{}) ([]*Appointment, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query appointments: %w", err)
	}
	defer rows.Close()

	var items []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		items = append(items, a)
	}
	return items, rows.Err()
}
