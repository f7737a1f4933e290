package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/hotel-booking/internal/model"
)

// AppointmentRepo manages persistence for appointments.
type AppointmentRepo struct {
	db querier
}

func NewAppointmentRepo(db *sql.DB) *AppointmentRepo { return &AppointmentRepo{db: db} }

// WithTx returns a copy of the repository that runs on tx.
func (r *AppointmentRepo) WithTx(tx *sql.Tx) *AppointmentRepo { return &AppointmentRepo{db: tx} }

func (r *AppointmentRepo) Create(ctx context.Context, a *model.Appointment) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO appointments (user_id, hospital_id, appt_date) VALUES (?, ?, ?)`,
		a.UserID, a.HospitalID, a.ApptDate.UTC())
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	return r.db.QueryRowContext(ctx, `SELECT created_at FROM appointments WHERE id = ?`, a.ID).Scan(&a.CreatedAt)
}

// GetByID returns the appointment or ErrAppointmentNotFound.
func (r *AppointmentRepo) GetByID(ctx context.Context, id uint64) (*model.Appointment, error) {
	var a model.Appointment
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, hospital_id, appt_date, created_at FROM appointments WHERE id = ?`, id).
		Scan(&a.ID, &a.UserID, &a.HospitalID, &a.ApptDate, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAppointmentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// CountByUser returns how many appointments the user holds.
func (r *AppointmentRepo) CountByUser(ctx context.Context, userID uint64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM appointments WHERE user_id = ?`, userID).Scan(&n)
	return n, err
}

// AppointmentQuery narrows ListDetailed.  Zero fields are ignored.
type AppointmentQuery struct {
	ID         uint64
	UserID     uint64
	HospitalID uint64
}

// ListDetailed returns appointments joined with their hospital, ordered by
// appointment date.
func (r *AppointmentRepo) ListDetailed(ctx context.Context, q AppointmentQuery) ([]*model.AppointmentDetail, error) {
	where := []string{}
	args := []any{}
	if q.ID != 0 {
		where = append(where, "a.id = ?")
		args = append(args, q.ID)
	}
	if q.UserID != 0 {
		where = append(where, "a.user_id = ?")
		args = append(args, q.UserID)
	}
	if q.HospitalID != 0 {
		where = append(where, "a.hospital_id = ?")
		args = append(args, q.HospitalID)
	}
	sqlStr := `SELECT a.id, a.user_id, a.hospital_id, a.appt_date, a.created_at,
	                  h.name, h.province, COALESCE(h.tel, '')
	           FROM appointments a
	           JOIN hospitals h ON h.id = a.hospital_id`
	if len(where) > 0 {
		sqlStr += " WHERE " + strings.Join(where, " AND ")
	}
	sqlStr += " ORDER BY a.appt_date, a.id"
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*model.AppointmentDetail{}
	for rows.Next() {
		var d model.AppointmentDetail
		if err := rows.Scan(&d.ID, &d.UserID, &d.HospitalID, &d.ApptDate, &d.CreatedAt,
			&d.HospitalName, &d.HospitalProvince, &d.HospitalTel); err != nil {
			return nil, err
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}

func (r *AppointmentRepo) UpdateDate(ctx context.Context, id uint64, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE appointments SET appt_date = ? WHERE id = ?`, at.UTC(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		_, err = r.GetByID(ctx, id)
		return err
	}
	return nil
}

func (r *AppointmentRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM appointments WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}
