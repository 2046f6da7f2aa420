package appointment

import (
	"strings"

	"github.com/google/uuid"
)

// DailySlots is the fixed, ordered list of bookable hours for every doctor.
var DailySlots = []string{
	"9:00 AM",
	"10:00 AM",
	"11:00 AM",
	"12:00 PM",
	"1:00 PM",
	"2:00 PM",
	"3:00 PM",
	"4:00 PM",
	"5:00 PM",
}

// SlotIndex returns the position of slot in DailySlots, or -1.
func SlotIndex(slot string) int {
	for i, s := range DailySlots {
		if s == slot {
			return i
		}
	}
	return -1
}

// NormalizeSlot maps loose input ("9:00 am", " 10:00 AM") to its DailySlots
// label. ok is false when no label matches.
func NormalizeSlot(slot string) (string, bool) {
	s := strings.ToUpper(strings.Join(strings.Fields(slot), " "))
	if i := SlotIndex(s); i >= 0 {
		return DailySlots[i], true
	}
	return "", false
}

// bookedSet collects the effective slots of doctorID's appointments on date.
func bookedSet(doctorID uuid.UUID, date Date, appts []*Appointment) map[string]bool {
	booked := make(map[string]bool)
	for _, a := range appts {
		if a == nil || a.DoctorID != doctorID {
			continue
		}
		eff := a.Effective()
		if eff.Date == date {
			booked[eff.TimeSlot] = true
		}
	}
	return booked
}

// AvailableSlots returns DailySlots minus the slots held by doctorID's
// appointments on date, in DailySlots order. It has no side effects.
func AvailableSlots(doctorID uuid.UUID, date Date, appts []*Appointment) []string {
	booked := bookedSet(doctorID, date, appts)
	out := make([]string, 0, len(DailySlots))
	for _, s := range DailySlots {
		if !booked[s] {
			out = append(out, s)
		}
	}
	return out
}

// BookedSlots is the complement of AvailableSlots, in DailySlots order.
func BookedSlots(doctorID uuid.UUID, date Date, appts []*Appointment) []string {
	booked := bookedSet(doctorID, date, appts)
	out := make([]string, 0, len(booked))
	for _, s := range DailySlots {
		if booked[s] {
			out = append(out, s)
		}
	}
	return out
}

// IsSlotFree reports whether slot is open for doctorID on date, ignoring the
// appointment with id except (uuid.Nil ignores nothing).
func IsSlotFree(doctorID uuid.UUID, ref SlotRef, appts []*Appointment, except uuid.UUID) bool {
	for _, a := range appts {
		if a == nil || (except != uuid.Nil && a.ID == except) {
			continue
		}
		if a.Occupies(doctorID, ref) {
			return false
		}
	}
	return true
}

// Availability is the computed slot picture for one doctor-day.
type Availability struct {
	DoctorID uuid.UUID `json:"doctor_id"`
	Date     Date      `json:"date"`
	Slots    []string  `json:"slots"`
	Booked   []string  `json:"booked"`
}
