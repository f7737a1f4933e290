package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/hotel-booking/internal/model"
)

// MaxAppointments caps the number of appointments a non-admin user holds.
const MaxAppointments = 3

// AppointmentService manages hospital appointments with the same
// ownership rules as bookings.
type AppointmentService struct {
	store AppointmentStore
}

func NewAppointmentService(store AppointmentStore) *AppointmentService {
	if store == nil {
		panic("nil store passed to NewAppointmentService")
	}
	return &AppointmentService{store: store}
}

func canMutateAppointment(a *model.Appointment, actor model.Actor) bool {
	return a.UserID == actor.ID || actor.Privileged()
}

// Create books an appointment at hospitalID for the actor.
func (s *AppointmentService) Create(ctx context.Context, actor model.Actor, hospitalID uint64, at *time.Time) (*model.Appointment, error) {
	h, err := s.store.GetHospital(ctx, hospitalID)
	if err != nil {
		return nil, internal(err, "Cannot create Appointment")
	}
	if h == nil {
		return nil, notFound(hospitalID, "No hospital with the id of %d", hospitalID)
	}
	if at == nil {
		return nil, invalidRange("Please specify an appointment date")
	}
	a := &model.Appointment{UserID: actor.ID, HospitalID: h.ID, ApptDate: at.UTC()}
	err = s.store.InTx(ctx, func(tx AppointmentStore) error {
		if err := tx.LockUser(ctx, actor.ID); err != nil {
			return err
		}
		if !actor.Privileged() {
			n, err := tx.CountAppointmentsByUser(ctx, actor.ID)
			if err != nil {
				return err
			}
			if n >= MaxAppointments {
				return &Error{
					Kind:    KindQuotaExceeded,
					ID:      actor.ID,
					Message: fmt.Sprintf("The user with ID %d has already made %d appointments", actor.ID, MaxAppointments),
				}
			}
		}
		return tx.CreateAppointment(ctx, a)
	})
	if err != nil {
		return nil, passThrough(err, "Cannot create Appointment")
	}
	return a, nil
}

// Update moves an appointment to a new date.  A nil date leaves it as is.
func (s *AppointmentService) Update(ctx context.Context, actor model.Actor, id uint64, at *time.Time) (*model.Appointment, error) {
	a, err := s.load(ctx, actor, id, "update")
	if err != nil {
		return nil, err
	}
	if at == nil {
		return a, nil
	}
	if err := s.store.UpdateAppointmentDate(ctx, id, at.UTC()); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, notFound(id, "No appointment with the id of %d", id)
		}
		return nil, internal(err, "Cannot update Appointment")
	}
	a.ApptDate = at.UTC()
	return a, nil
}

// Delete removes an appointment owned by the actor, or any when admin.
func (s *AppointmentService) Delete(ctx context.Context, actor model.Actor, id uint64) error {
	if _, err := s.load(ctx, actor, id, "delete"); err != nil {
		return err
	}
	if err := s.store.DeleteAppointment(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return notFound(id, "No appointment with the id of %d", id)
		}
		return internal(err, "Cannot delete Appointment")
	}
	return nil
}

// Get returns one appointment with its hospital columns.
func (s *AppointmentService) Get(ctx context.Context, actor model.Actor, id uint64) (*model.AppointmentDetail, error) {
	rows, err := s.store.ListAppointments(ctx, AppointmentFilter{ID: id})
	if err != nil {
		return nil, internal(err, "Cannot find Appointment")
	}
	if len(rows) == 0 {
		return nil, notFound(id, "No appointment with the id of %d", id)
	}
	if !canMutateAppointment(&rows[0].Appointment, actor) {
		return nil, unauthorized(id, "User %d is not authorized to view this appointment", actor.ID)
	}
	return rows[0], nil
}

// List mirrors BookingService.List: own appointments for users, all (or
// all of one hospital) for admins.
func (s *AppointmentService) List(ctx context.Context, actor model.Actor, hospitalID uint64) ([]*model.AppointmentDetail, error) {
	f := AppointmentFilter{UserID: actor.ID}
	if actor.Privileged() {
		f = AppointmentFilter{HospitalID: hospitalID}
	}
	rows, err := s.store.ListAppointments(ctx, f)
	if err != nil {
		return nil, internal(err, "Cannot find Appointment")
	}
	return rows, nil
}

func (s *AppointmentService) load(ctx context.Context, actor model.Actor, id uint64, verb string) (*model.Appointment, error) {
	a, err := s.store.GetAppointment(ctx, id)
	if err != nil {
		return nil, internal(err, "Cannot "+verb+" Appointment")
	}
	if a == nil {
		return nil, notFound(id, "No appointment with the id of %d", id)
	}
	if !canMutateAppointment(a, actor) {
		return nil, unauthorized(id, "User %d is not authorized to %s this appointment", actor.ID, verb)
	}
	return a, nil
}
