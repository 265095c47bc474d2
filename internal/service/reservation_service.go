package service

import (
	"context"
	"errors"
	"time"

	"github.com/nahuelmieres/rf-online-backend/internal/domain"
	"github.com/nahuelmieres/rf-online-backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrInvalidSlot         = errors.New("slot time is outside opening hours")
	ErrSlotTooFarAhead     = errors.New("cannot book more than two weeks ahead")
	ErrSlotFull            = errors.New("no capacity left in this slot")
	ErrAlreadyBooked       = errors.New("user already has an active reservation in this slot")
	ErrReservationNotFound = errors.New("reservation not found")
)

// SlotAvailability is the remaining capacity of one slot, per session type.
type SlotAvailability struct {
	Time    time.Time `json:"time"`
	Salud   int       `json:"salud"`
	Openbox int       `json:"openbox"`
}

// --- Service Interface ---
type ReservationService interface {
	GetAvailability(ctx context.Context, date time.Time, branch domain.Branch) ([]SlotAvailability, error)
	CreateReservation(ctx context.Context, userID primitive.ObjectID, slot time.Time, typ domain.ReservationType, branch domain.Branch) (*domain.Reservation, error)
	CancelReservation(ctx context.Context, id, userID primitive.ObjectID) error
	ListUserReservations(ctx context.Context, userID primitive.ObjectID) ([]domain.Reservation, error)
}

// --- Service Implementation ---

// reservationService implements the ReservationService interface.
type reservationService struct {
	reservationRepo repository.ReservationRepository
}

// NewReservationService creates a new instance of reservationService.
func NewReservationService(reservationRepo repository.ReservationRepository) ReservationService {
	return &reservationService{
		reservationRepo: reservationRepo,
	}
}

// GetAvailability computes remaining capacity for every slot of a date at a
// branch, per session type.
func (s *reservationService) GetAvailability(ctx context.Context, date time.Time, branch domain.Branch) ([]SlotAvailability, error) {
	if !domain.IsValidBranch(branch) {
		v := &ValidationError{}
		v.add("branch", "invalid branch")
		return nil, v
	}

	slots := domain.AvailableSlots(date)
	if len(slots) == 0 {
		return []SlotAvailability{}, nil
	}

	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	dayEnd := dayStart.Add(24*time.Hour - time.Nanosecond)
	reservations, err := s.reservationRepo.ListActiveInRange(ctx, dayStart, dayEnd, branch)
	if err != nil {
		return nil, err
	}

	availability := make([]SlotAvailability, len(slots))
	for i, slot := range slots {
		a := SlotAvailability{Time: slot, Salud: domain.SlotCapacity, Openbox: domain.SlotCapacity}
		for _, r := range reservations {
			if !r.Date.Equal(slot) {
				continue
			}
			switch r.Type {
			case domain.ReservationSalud:
				a.Salud--
			case domain.ReservationOpenbox:
				a.Openbox--
			}
		}
		availability[i] = a
	}
	return availability, nil
}

// CreateReservation books a user into a slot after checking opening hours,
// the two-week booking window, the one-active-booking-per-slot rule and the
// slot capacity.
func (s *reservationService) CreateReservation(ctx context.Context, userID primitive.ObjectID, slot time.Time, typ domain.ReservationType, branch domain.Branch) (*domain.Reservation, error) {
	v := &ValidationError{}
	if !domain.IsValidReservationType(typ) {
		v.add("type", "invalid reservation type")
	}
	if !domain.IsValidBranch(branch) {
		v.add("branch", "invalid branch")
	}
	if err := v.orNil(); err != nil {
		return nil, err
	}

	if !domain.IsValidSlotTime(slot) {
		return nil, ErrInvalidSlot
	}
	if slot.After(time.Now().Add(domain.MaxAdvanceBooking)) {
		return nil, ErrSlotTooFarAhead
	}

	if _, err := s.reservationRepo.GetActiveByUserAndSlot(ctx, userID, slot); err == nil {
		return nil, ErrAlreadyBooked
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	count, err := s.reservationRepo.CountActiveInSlot(ctx, slot, typ, branch)
	if err != nil {
		return nil, err
	}
	if count >= domain.SlotCapacity {
		return nil, ErrSlotFull
	}

	reservation := &domain.Reservation{
		UserID: userID,
		Date:   slot,
		Type:   typ,
		Branch: branch,
		Status: domain.ReservationActive,
	}
	reservationID, err := s.reservationRepo.Create(ctx, reservation)
	if err != nil {
		return nil, err
	}
	reservation.ID = reservationID
	return reservation, nil
}

// CancelReservation marks a user's reservation as cancelled.
func (s *reservationService) CancelReservation(ctx context.Context, id, userID primitive.ObjectID) error {
	if err := s.reservationRepo.Cancel(ctx, id, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrReservationNotFound
		}
		return err
	}
	return nil
}

// ListUserReservations retrieves a user's bookings, most recent first.
func (s *reservationService) ListUserReservations(ctx context.Context, userID primitive.ObjectID) ([]domain.Reservation, error) {
	return s.reservationRepo.ListByUser(ctx, userID)
}
