package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReservationType is the kind of gym session being booked.
type ReservationType string

const (
	ReservationSalud   ReservationType = "salud"
	ReservationOpenbox ReservationType = "openbox"
)

// IsValidReservationType reports whether t is a known session type.
func IsValidReservationType(t ReservationType) bool {
	return t == ReservationSalud || t == ReservationOpenbox
}

// Branch identifies a gym location.
type Branch string

const (
	BranchMalvin     Branch = "malvin"
	BranchBlanqueada Branch = "blanqueada"
)

// IsValidBranch reports whether b is a known branch.
func IsValidBranch(b Branch) bool {
	return b == BranchMalvin || b == BranchBlanqueada
}

// ReservationStatus is the lifecycle state of a reservation.
type ReservationStatus string

const (
	ReservationActive    ReservationStatus = "activa"
	ReservationCancelled ReservationStatus = "cancelada"
)

// Slot capacity and booking-window rules.
const (
	SlotCapacity      = 12
	MaxAdvanceBooking = 14 * 24 * time.Hour
	SlotDuration      = time.Hour
)

// Reservation books one user into a one-hour gym slot.
type Reservation struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	Date      time.Time          `bson:"date" json:"date"` // slot start time
	Type      ReservationType    `bson:"type" json:"type"`
	Branch    Branch             `bson:"branch" json:"branch"`
	Status    ReservationStatus  `bson:"status" json:"status"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// AvailableSlots generates the bookable slot start times for a given date.
// Sunday is closed, Saturday runs 10-13, weekdays run 7-12 and 16-22.
func AvailableSlots(date time.Time) []time.Time {
	base := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	var hours []int
	switch base.Weekday() {
	case time.Sunday:
		return nil
	case time.Saturday:
		hours = []int{10, 11, 12}
	default:
		hours = []int{7, 8, 9, 10, 11, 16, 17, 18, 19, 20, 21}
	}
	slots := make([]time.Time, len(hours))
	for i, h := range hours {
		slots[i] = base.Add(time.Duration(h) * time.Hour)
	}
	return slots
}

// IsValidSlotTime reports whether t falls on a bookable slot start.
func IsValidSlotTime(t time.Time) bool {
	if t.Minute() != 0 || t.Second() != 0 || t.Nanosecond() != 0 {
		return false
	}
	h := t.Hour()
	switch t.Weekday() {
	case time.Sunday:
		return false
	case time.Saturday:
		return h >= 10 && h < 13
	default:
		return (h >= 7 && h < 12) || (h >= 16 && h < 22)
	}
}
