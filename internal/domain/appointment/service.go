package appointment

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinic/clinic/internal/domain/doctor"
	"github.com/clinic/clinic/internal/platform/auth"
	"github.com/clinic/clinic/internal/platform/events"
)

// CreateInput is a patient's booking request.
type CreateInput struct {
	DoctorID      string `json:"doctor_id"`
	Date          string `json:"date"`
	TimeSlot      string `json:"time_slot"`
	PatientName   string `json:"patient_name"`
	PatientEmail  string `json:"patient_email"`
	PatientPhone  string `json:"patient_phone"`
	HealthConcern string `json:"health_concern"`
}

// RescheduleInput is the slot a doctor moves an appointment to.
type RescheduleInput struct {
	Date     string `json:"date"`
	TimeSlot string `json:"time_slot"`
}

// Event is the payload published after every successful change.
type Event struct {
	Type          string    `json:"type"`
	AppointmentID uuid.UUID `json:"appointment_id"`
	DoctorID      uuid.UUID `json:"doctor_id"`
	PatientID     string    `json:"patient_id"`
	PatientEmail  string    `json:"patient_email"`
	Date          Date      `json:"date"`
	TimeSlot      string    `json:"time_slot"`
	Status        Status    `json:"status"`
	OccurredAt    time.Time `json:"occurred_at"`
}

const (
	EventCreated     = "created"
	EventApproved    = "approved"
	EventRejected    = "rejected"
	EventRescheduled = "rescheduled"
	EventCancelled   = "cancelled"
)

type Service struct {
	repo    Repository
	doctors DoctorDirectory
	events  events.Publisher
	logger  zerolog.Logger
	now     func() time.Time
}

func NewService(repo Repository, doctors DoctorDirectory, pub events.Publisher, logger zerolog.Logger) *Service {
	return &Service{
		repo:    repo,
		doctors: doctors,
		events:  pub,
		logger:  logger.With().Str("component", "appointment").Logger(),
		now:     time.Now,
	}
}

// -- Creation --

func (s *Service) Create(ctx context.Context, caller auth.User, in CreateInput) (*Appointment, error) {
	if !caller.IsPatient() {
		return nil, ErrForbidden
	}
	a, err := s.validateCreate(in)
	if err != nil {
		return nil, err
	}

	doc, err := s.doctors.GetDoctor(ctx, a.DoctorID)
	if errors.Is(err, doctor.ErrNotFound) {
		return nil, invalid("doctor_id", "refers to an unknown doctor")
	}
	if err != nil {
		return nil, fmt.Errorf("look up doctor: %w", err)
	}
	a.DoctorName = doc.Name
	a.PatientID = caller.ID

	if err := s.ensureFree(ctx, a.DoctorID, a.Effective(), uuid.Nil); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}

	s.publish(ctx, EventCreated, a)
	return a, nil
}

func (s *Service) validateCreate(in CreateInput) (*Appointment, error) {
	if strings.TrimSpace(in.DoctorID) == "" {
		return nil, invalid("doctor_id", "is required")
	}
	doctorID, err := uuid.Parse(strings.TrimSpace(in.DoctorID))
	if err != nil {
		return nil, invalid("doctor_id", "is invalid")
	}
	ref, err := s.validateSlot(in.Date, in.TimeSlot)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.PatientName)
	if name == "" {
		return nil, invalid("patient_name", "is required")
	}
	email := strings.ToLower(strings.TrimSpace(in.PatientEmail))
	if email == "" {
		return nil, invalid("patient_email", "is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, invalid("patient_email", "is invalid")
	}
	phone := strings.TrimSpace(in.PatientPhone)
	if phone == "" {
		return nil, invalid("patient_phone", "is required")
	}
	if !validPhone(phone) {
		return nil, invalid("patient_phone", "is invalid")
	}

	return &Appointment{
		DoctorID:      doctorID,
		Date:          ref.Date,
		TimeSlot:      ref.TimeSlot,
		Placement:     Original{},
		PatientName:   name,
		PatientEmail:  email,
		PatientPhone:  phone,
		HealthConcern: strings.TrimSpace(in.HealthConcern),
		Status:        StatusPending,
	}, nil
}

// validateSlot parses a requested date and slot, refusing days before today.
func (s *Service) validateSlot(date, slot string) (SlotRef, error) {
	if strings.TrimSpace(date) == "" {
		return SlotRef{}, invalid("date", "is required")
	}
	d, err := ParseDate(date)
	if err != nil {
		return SlotRef{}, invalid("date", "must be YYYY-MM-DD")
	}
	if d.Before(DateOf(s.now())) {
		return SlotRef{}, invalid("date", "must not be in the past")
	}
	if strings.TrimSpace(slot) == "" {
		return SlotRef{}, invalid("time_slot", "is required")
	}
	label, ok := NormalizeSlot(slot)
	if !ok {
		return SlotRef{}, invalid("time_slot", "must be one of "+strings.Join(DailySlots, ", "))
	}
	return SlotRef{Date: d, TimeSlot: label}, nil
}

// validPhone accepts digits with common separators and at least seven digits.
func validPhone(p string) bool {
	digits := 0
	for _, r := range p {
		switch {
		case unicode.IsDigit(r):
			digits++
		case r == '+' || r == '-' || r == ' ' || r == '(' || r == ')' || r == '.':
		default:
			return false
		}
	}
	return digits >= 7
}

// ensureFree returns ErrSlotTaken when another appointment of doctorID
// holds ref. The unique index backs this check under concurrent writes.
func (s *Service) ensureFree(ctx context.Context, doctorID uuid.UUID, ref SlotRef, except uuid.UUID) error {
	day, err := s.repo.ListForDoctorDay(ctx, doctorID, ref.Date)
	if err != nil {
		return fmt.Errorf("load doctor day: %w", err)
	}
	if !IsSlotFree(doctorID, ref, day, except) {
		return ErrSlotTaken
	}
	return nil
}

// -- Queries --

// Get returns an appointment visible to caller. Appointments the caller
// cannot see are reported as ErrNotFound.
func (s *Service) Get(ctx context.Context, caller auth.User, id uuid.UUID) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(caller, a) {
		return nil, ErrNotFound
	}
	return a, nil
}

func (s *Service) ListAll(ctx context.Context, caller auth.User, f Filter, limit, offset int) ([]*Appointment, int, error) {
	if !caller.IsAdmin() {
		return nil, 0, ErrForbidden
	}
	return s.repo.List(ctx, f, limit, offset)
}

func (s *Service) ListByDoctor(ctx context.Context, caller auth.User, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	if !caller.IsAdmin() && !(caller.IsDoctor() && caller.ID == doctorID.String()) {
		return nil, 0, ErrForbidden
	}
	return s.repo.List(ctx, Filter{DoctorID: doctorID}, limit, offset)
}

func (s *Service) ListByPatient(ctx context.Context, caller auth.User, patientID string, limit, offset int) ([]*Appointment, int, error) {
	if !caller.IsAdmin() && !(caller.IsPatient() && caller.ID == patientID) {
		return nil, 0, ErrForbidden
	}
	return s.repo.List(ctx, Filter{PatientID: patientID}, limit, offset)
}

// ListForCaller dispatches on role: admins see everything matching f, doctors
// and patients see only their own appointments and f is ignored.
func (s *Service) ListForCaller(ctx context.Context, caller auth.User, f Filter, limit, offset int) ([]*Appointment, int, error) {
	switch caller.Role {
	case auth.RoleAdmin:
		return s.ListAll(ctx, caller, f, limit, offset)
	case auth.RoleDoctor:
		doctorID, err := uuid.Parse(caller.ID)
		if err != nil {
			return nil, 0, ErrForbidden
		}
		return s.ListByDoctor(ctx, caller, doctorID, limit, offset)
	case auth.RolePatient:
		return s.ListByPatient(ctx, caller, caller.ID, limit, offset)
	}
	return nil, 0, ErrForbidden
}

func (s *Service) Availability(ctx context.Context, doctorID uuid.UUID, date string) (*Availability, error) {
	d, err := ParseDate(date)
	if err != nil {
		return nil, invalid("date", "must be YYYY-MM-DD")
	}
	if _, err := s.doctors.GetDoctor(ctx, doctorID); err != nil {
		if errors.Is(err, doctor.ErrNotFound) {
			return nil, ErrDoctorNotFound
		}
		return nil, fmt.Errorf("look up doctor: %w", err)
	}
	day, err := s.repo.ListForDoctorDay(ctx, doctorID, d)
	if err != nil {
		return nil, fmt.Errorf("load doctor day: %w", err)
	}
	return &Availability{
		DoctorID: doctorID,
		Date:     d,
		Slots:    AvailableSlots(doctorID, d, day),
		Booked:   BookedSlots(doctorID, d, day),
	}, nil
}

// -- Lifecycle --

// UpdateStatus records the owning doctor's approve or reject decision.
// Repeating the current decision returns the appointment unchanged.
func (s *Service) UpdateStatus(ctx context.Context, caller auth.User, id uuid.UUID, status string) (*Appointment, error) {
	if !caller.IsDoctor() {
		return nil, ErrForbidden
	}
	to, err := ParseStatus(status)
	if err != nil {
		return nil, invalid("status", "must be approved or rejected")
	}
	a, err := s.ownedByDoctor(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	noop, err := decide(a.Status, to)
	if err != nil {
		return nil, err
	}
	if noop {
		return a, nil
	}

	a.Status = to
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	s.publish(ctx, string(to), a)
	return a, nil
}

// Reschedule moves an appointment to a new slot on behalf of its doctor.
func (s *Service) Reschedule(ctx context.Context, caller auth.User, id uuid.UUID, in RescheduleInput) (*Appointment, error) {
	if !caller.IsDoctor() {
		return nil, ErrForbidden
	}
	ref, err := s.validateSlot(in.Date, in.TimeSlot)
	if err != nil {
		return nil, err
	}
	a, err := s.ownedByDoctor(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(a.Status, StatusRescheduled) {
		return nil, &TransitionError{From: a.Status, To: StatusRescheduled}
	}
	if err := s.ensureFree(ctx, a.DoctorID, ref, a.ID); err != nil {
		return nil, err
	}

	a.Placement = Rescheduled{Date: ref.Date, TimeSlot: ref.TimeSlot}
	a.Status = StatusRescheduled
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	s.publish(ctx, EventRescheduled, a)
	return a, nil
}

// Cancel deletes an appointment on behalf of its patient or an admin.
func (s *Service) Cancel(ctx context.Context, caller auth.User, id uuid.UUID) error {
	if !caller.IsAdmin() && !caller.IsPatient() {
		return ErrForbidden
	}
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !caller.IsAdmin() && caller.ID != a.PatientID {
		return ErrNotFound
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, EventCancelled, a)
	return nil
}

// ownedByDoctor loads id for its doctor. Another doctor's appointment reads
// as ErrNotFound.
func (s *Service) ownedByDoctor(ctx context.Context, caller auth.User, id uuid.UUID) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if caller.ID != a.DoctorID.String() {
		return nil, ErrNotFound
	}
	return a, nil
}

func canView(caller auth.User, a *Appointment) bool {
	switch {
	case caller.IsAdmin():
		return true
	case caller.IsDoctor():
		return caller.ID == a.DoctorID.String()
	case caller.IsPatient():
		return caller.ID == a.PatientID
	}
	return false
}

// publish emits appointment.<kind>. Failures are logged, never returned.
func (s *Service) publish(ctx context.Context, kind string, a *Appointment) {
	eff := a.Effective()
	ev := Event{
		Type:          kind,
		AppointmentID: a.ID,
		DoctorID:      a.DoctorID,
		PatientID:     a.PatientID,
		PatientEmail:  a.PatientEmail,
		Date:          eff.Date,
		TimeSlot:      eff.TimeSlot,
		Status:        a.Status,
		OccurredAt:    s.now().UTC(),
	}
	key := "appointment." + kind
	if err := s.events.Publish(ctx, key, ev); err != nil {
		s.logger.Warn().Err(err).Str("event", key).Str("appointment_id", a.ID.String()).Msg("event publish failed")
	}
}
