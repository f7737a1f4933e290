package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/hotel-booking/internal/model"
)

// BookingRepo provides CRUD and overlap queries for the bookings table.
// check_in_date and check_out_date are DATE columns; a booking occupies
// its room on [check_in_date, check_out_date).
type BookingRepo struct {
	db querier
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// WithTx returns a copy of the repository that runs on tx.
func (r *BookingRepo) WithTx(tx *sql.Tx) *BookingRepo { return &BookingRepo{db: tx} }

const bookingColumns = `id, user_id, hotel_id, room_id, check_in_date, check_out_date, created_at`

func scanBooking(row interface{ Scan(...any) error }) (*model.Booking, error) {
	var b model.Booking
	if err := row.Scan(&b.ID, &b.UserID, &b.HotelID, &b.RoomID, &b.CheckInDate, &b.CheckOutDate, &b.CreatedAt); err != nil {
		return nil, err
	}
	b.CheckInDate = model.Day(b.CheckInDate)
	b.CheckOutDate = model.Day(b.CheckOutDate)
	return &b, nil
}

// Create inserts a booking and populates its ID and CreatedAt.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
	const q = `INSERT INTO bookings (user_id, hotel_id, room_id, check_in_date, check_out_date) VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, b.UserID, b.HotelID, b.RoomID, dateArg(b.CheckInDate), dateArg(b.CheckOutDate))
	if err != nil {
		return translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	// Query back created_at, which is set by the database.
	return r.db.QueryRowContext(ctx, `SELECT created_at FROM bookings WHERE id = ?`, b.ID).Scan(&b.CreatedAt)
}

// GetByID returns ErrBookingNotFound when no row matches.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	b, err := scanBooking(r.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	return b, err
}

// ExistsOverlap reports whether a booking of roomID intersects
// [in, out).  excludeID skips one booking when non-zero; a non-zero
// activeOn ignores bookings that checked out before that day.
func (r *BookingRepo) ExistsOverlap(ctx context.Context, roomID uint64, in, out time.Time, excludeID uint64, activeOn time.Time) (bool, error) {
	q := `SELECT EXISTS (SELECT 1 FROM bookings WHERE room_id = ? AND check_in_date < ? AND check_out_date > ?`
	args := []any{roomID, dateArg(out), dateArg(in)}
	if excludeID != 0 {
		q += ` AND id <> ?`
		args = append(args, excludeID)
	}
	if !activeOn.IsZero() {
		q += ` AND check_out_date >= ?`
		args = append(args, dateArg(activeOn))
	}
	q += `)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, q, args...).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// ListByUser returns every booking of userID except excludeID.
func (r *BookingRepo) ListByUser(ctx context.Context, userID, excludeID uint64) ([]*model.Booking, error) {
	q := `SELECT ` + bookingColumns + ` FROM bookings WHERE user_id = ?`
	args := []any{userID}
	if excludeID != 0 {
		q += ` AND id <> ?`
		args = append(args, excludeID)
	}
	rows, err := r.db.QueryContext(ctx, q+` ORDER BY id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// BookingQuery filters ListDetailed.  Zero fields are ignored.
type BookingQuery struct {
	ID      uint64
	UserID  uint64
	HotelID uint64
}

// ListDetailed returns bookings joined with the hotel's name, province and
// telephone and the room's number, type and price, ordered by id.
func (r *BookingRepo) ListDetailed(ctx context.Context, f BookingQuery) ([]*model.BookingDetail, error) {
	where := []string{"1=1"}
	args := []any{}
	if f.ID != 0 {
		where = append(where, "b.id = ?")
		args = append(args, f.ID)
	}
	if f.UserID != 0 {
		where = append(where, "b.user_id = ?")
		args = append(args, f.UserID)
	}
	if f.HotelID != 0 {
		where = append(where, "b.hotel_id = ?")
		args = append(args, f.HotelID)
	}
	q := `SELECT b.id, b.user_id, b.hotel_id, b.room_id, b.check_in_date, b.check_out_date, b.created_at,
	             h.name, h.province, COALESCE(h.tel, ''),
	             r.room_number, r.type, r.price
	      FROM bookings b
	      JOIN hotels h ON h.id = b.hotel_id
	      JOIN rooms r  ON r.id = b.room_id
	      WHERE ` + strings.Join(where, " AND ") + `
	      ORDER BY b.id`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*model.BookingDetail{}
	for rows.Next() {
		var d model.BookingDetail
		if err := rows.Scan(
			&d.ID, &d.UserID, &d.HotelID, &d.RoomID, &d.CheckInDate, &d.CheckOutDate, &d.CreatedAt,
			&d.HotelName, &d.HotelProvince, &d.HotelTel,
			&d.RoomNumber, &d.RoomType, &d.RoomPrice,
		); err != nil {
			return nil, err
		}
		d.CheckInDate = model.Day(d.CheckInDate)
		d.CheckOutDate = model.Day(d.CheckOutDate)
		out = append(out, &d)
	}
	return out, rows.Err()
}

// UpdateDates moves a booking to a new stay interval.
func (r *BookingRepo) UpdateDates(ctx context.Context, id uint64, in, out time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bookings SET check_in_date = ?, check_out_date = ? WHERE id = ?`,
		dateArg(in), dateArg(out), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// MySQL reports 0 affected rows when values are unchanged, so
		// confirm the row still exists before calling it missing.
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a booking.  It returns ErrBookingNotFound when no row
// was deleted.
func (r *BookingRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrBookingNotFound
	}
	return nil
}
