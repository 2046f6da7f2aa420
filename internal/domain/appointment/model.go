package appointment

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// Date is a calendar day in canonical YYYY-MM-DD form, so string order is
// chronological order.
type Date string

// ParseDate accepts YYYY-MM-DD and returns its canonical form.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return DateOf(t), nil
}

// DateOf returns the calendar day of t in t's location.
func DateOf(t time.Time) Date {
	return Date(t.Format(dateLayout))
}

// Time returns midnight UTC of the day.
func (d Date) Time() time.Time {
	t, _ := time.Parse(dateLayout, string(d))
	return t
}

func (d Date) String() string { return string(d) }

// Before reports whether d is an earlier day than o.
func (d Date) Before(o Date) bool { return d < o }

// Status is the lifecycle state of an appointment.
type Status string

const (
	StatusPending     Status = "pending"
	StatusApproved    Status = "approved"
	StatusRejected    Status = "rejected"
	StatusRescheduled Status = "rescheduled"
)

// ParseStatus is case-insensitive so "Approved" from older clients works.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusPending, StatusApproved, StatusRejected, StatusRescheduled:
		return st, nil
	default:
		return "", fmt.Errorf("unknown status %q", s)
	}
}

// SlotRef is one bookable doctor-day slot.
type SlotRef struct {
	Date     Date   `json:"date"`
	TimeSlot string `json:"time_slot"`
}

// Placement says where an appointment currently sits: either the slot it was
// booked in (Original) or the slot a doctor moved it to (Rescheduled).
type Placement interface {
	isPlacement()
}

// Original keeps the appointment at its booked date and slot.
type Original struct{}

// Rescheduled moves the appointment to a new date and slot.
type Rescheduled struct {
	Date     Date
	TimeSlot string
}

func (Original) isPlacement()    {}
func (Rescheduled) isPlacement() {}

// Appointment maps to the appointments table.
type Appointment struct {
	ID            uuid.UUID
	DoctorID      uuid.UUID
	DoctorName    string
	Date          Date
	TimeSlot      string
	Placement     Placement
	PatientID     string
	PatientName   string
	PatientEmail  string
	PatientPhone  string
	HealthConcern string
	Status        Status
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Effective returns the slot the appointment occupies. A nil placement is
// treated as Original.
func (a *Appointment) Effective() SlotRef {
	if r, ok := a.Placement.(Rescheduled); ok {
		return SlotRef{Date: r.Date, TimeSlot: r.TimeSlot}
	}
	return SlotRef{Date: a.Date, TimeSlot: a.TimeSlot}
}

// IsRescheduled reports whether the appointment was moved off its original slot.
func (a *Appointment) IsRescheduled() bool {
	_, ok := a.Placement.(Rescheduled)
	return ok
}

// Occupies reports whether a holds (doctorID, date, slot). Every stored
// appointment holds its effective slot whatever its status; only cancelling
// it frees the slot.
func (a *Appointment) Occupies(doctorID uuid.UUID, ref SlotRef) bool {
	return a.DoctorID == doctorID && a.Effective() == ref
}

type appointmentJSON struct {
	ID                  uuid.UUID `json:"id"`
	DoctorID            uuid.UUID `json:"doctor_id"`
	DoctorName          string    `json:"doctor_name"`
	Date                Date      `json:"date"`
	TimeSlot            string    `json:"time_slot"`
	RescheduledDate     *Date     `json:"rescheduled_date,omitempty"`
	RescheduledTimeSlot *string   `json:"rescheduled_time_slot,omitempty"`
	EffectiveDate       Date      `json:"effective_date"`
	EffectiveTimeSlot   string    `json:"effective_time_slot"`
	PatientID           string    `json:"patient_id"`
	PatientName         string    `json:"patient_name"`
	PatientEmail        string    `json:"patient_email"`
	PatientPhone        string    `json:"patient_phone"`
	HealthConcern       string    `json:"health_concern,omitempty"`
	Status              Status    `json:"status"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

func (a Appointment) MarshalJSON() ([]byte, error) {
	eff := a.Effective()
	out := appointmentJSON{
		ID:                a.ID,
		DoctorID:          a.DoctorID,
		DoctorName:        a.DoctorName,
		Date:              a.Date,
		TimeSlot:          a.TimeSlot,
		EffectiveDate:     eff.Date,
		EffectiveTimeSlot: eff.TimeSlot,
		PatientID:         a.PatientID,
		PatientName:       a.PatientName,
		PatientEmail:      a.PatientEmail,
		PatientPhone:      a.PatientPhone,
		HealthConcern:     a.HealthConcern,
		Status:            a.Status,
		CreatedAt:         a.CreatedAt,
		UpdatedAt:         a.UpdatedAt,
	}
	if r, ok := a.Placement.(Rescheduled); ok {
		out.RescheduledDate = &r.Date
		out.RescheduledTimeSlot = &r.TimeSlot
	}
	return json.Marshal(out)
}

func (a *Appointment) UnmarshalJSON(data []byte) error {
	var in appointmentJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*a = Appointment{
		ID:            in.ID,
		DoctorID:      in.DoctorID,
		DoctorName:    in.DoctorName,
		Date:          in.Date,
		TimeSlot:      in.TimeSlot,
		Placement:     Original{},
		PatientID:     in.PatientID,
		PatientName:   in.PatientName,
		PatientEmail:  in.PatientEmail,
		PatientPhone:  in.PatientPhone,
		HealthConcern: in.HealthConcern,
		Status:        in.Status,
		CreatedAt:     in.CreatedAt,
		UpdatedAt:     in.UpdatedAt,
	}
	if in.RescheduledDate != nil && in.RescheduledTimeSlot != nil {
		a.Placement = Rescheduled{Date: *in.RescheduledDate, TimeSlot: *in.RescheduledTimeSlot}
	}
	return nil
}
