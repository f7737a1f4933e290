package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hotel-booking/internal/model"
)

func TestAppointmentLifecycle(t *testing.T) {
	st := newMemStore()
	st.hospitals[1] = &model.Hospital{ID: 1, Name: "General"}
	user := st.addUser(1, model.RoleUser)
	other := st.addUser(2, model.RoleUser)
	admin := st.addUser(3, model.RoleAdmin)
	svc := NewAppointmentService(apptStore{st})
	ctx := context.Background()
	at := time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)

	_, err := svc.Create(ctx, user, 99, &at)
	assertKind(t, err, KindNotFound)
	_, err = svc.Create(ctx, user, 1, nil)
	assertKind(t, err, KindInvalidRange)

	var first *model.Appointment
	for i := 0; i < MaxAppointments; i++ {
		a, err := svc.Create(ctx, user, 1, &at)
		require.NoError(t, err)
		if first == nil {
			first = a
		}
	}
	_, err = svc.Create(ctx, user, 1, &at)
	assertKind(t, err, KindQuotaExceeded)

	for i := 0; i < MaxAppointments+1; i++ {
		_, err := svc.Create(ctx, admin, 1, &at)
		require.NoError(t, err)
	}

	later := at.Add(48 * time.Hour)
	_, err = svc.Update(ctx, other, first.ID, &later)
	assertKind(t, err, KindUnauthorized)
	a, err := svc.Update(ctx, user, first.ID, &later)
	require.NoError(t, err)
	assert.Equal(t, later, a.ApptDate)

	mine, err := svc.List(ctx, user, 0)
	require.NoError(t, err)
	assert.Len(t, mine, MaxAppointments)

	_, err = svc.Get(ctx, other, first.ID)
	assertKind(t, err, KindUnauthorized)

	assertKind(t, svc.Delete(ctx, other, first.ID), KindUnauthorized)
	require.NoError(t, svc.Delete(ctx, admin, first.ID))
	assertKind(t, svc.Delete(ctx, admin, first.ID), KindNotFound)
}
