// Package repository contains data access logic separated from HTTP handlers.
// This file defines the hotel repository: CRUD, a filtered and paginated
// listing for the public browse API, and cascading deletion.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/hotel-booking/internal/model"
)

// HotelRepo encapsulates all database queries related to hotels.
type HotelRepo struct {
	db   querier
	conn *sql.DB
}

// NewHotelRepo constructs a HotelRepo with the provided DB handle.
func NewHotelRepo(db *sql.DB) *HotelRepo { return &HotelRepo{db: db, conn: db} }

// WithTx returns a copy of the repository that runs on tx.
func (r *HotelRepo) WithTx(tx *sql.Tx) *HotelRepo { return &HotelRepo{db: tx} }

const hotelColumns = `id, name, address, district, province, postal_code, COALESCE(tel, ''), region, COALESCE(email, ''), created_at`

func scanHotel(row interface{ Scan(...any) error }) (*model.Hotel, error) {
	var h model.Hotel
	err := row.Scan(&h.ID, &h.Name, &h.Address, &h.District, &h.Province, &h.PostalCode, &h.Tel, &h.Region, &h.Email, &h.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Create inserts a new hotel.  On success ID and CreatedAt are populated.
// A duplicate name yields ErrDuplicate.
func (r *HotelRepo) Create(ctx context.Context, h *model.Hotel) error {
	const q = `INSERT INTO hotels (name, address, district, province, postal_code, tel, region, email)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, h.Name, h.Address, h.District, h.Province, h.PostalCode, nullable(h.Tel), h.Region, nullable(h.Email))
	if err != nil {
		return translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	h.ID = uint64(id)
	return r.db.QueryRowContext(ctx, `SELECT created_at FROM hotels WHERE id = ?`, h.ID).Scan(&h.CreatedAt)
}

// GetByID fetches a hotel by its ID.  It returns ErrHotelNotFound if no
// row is found.
func (r *HotelRepo) GetByID(ctx context.Context, id uint64) (*model.Hotel, error) {
	h, err := scanHotel(r.db.QueryRowContext(ctx, `SELECT `+hotelColumns+` FROM hotels WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrHotelNotFound
	}
	return h, err
}

// HotelSearchQuery defines filters & pagination for listing hotels.
type HotelSearchQuery struct {
	Name     string
	Province string
	Region   string
	Page     int
	PageSize int
}

// Search returns one page of hotels matching q, newest first, along with
// the total number of matches.
func (r *HotelRepo) Search(ctx context.Context, q HotelSearchQuery) ([]*model.Hotel, int64, error) {
	where := []string{}
	args := []any{}
	if q.Name != "" {
		where = append(where, "LOWER(name) LIKE ?")
		args = append(args, "%"+strings.ToLower(q.Name)+"%")
	}
	if q.Province != "" {
		where = append(where, "LOWER(province) = ?")
		args = append(args, strings.ToLower(q.Province))
	}
	if q.Region != "" {
		where = append(where, "LOWER(region) = ?")
		args = append(args, strings.ToLower(q.Region))
	}
	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM hotels WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dataSQL := `SELECT ` + hotelColumns + ` FROM hotels WHERE ` + cond + ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	argsData := append(append([]any{}, args...), q.PageSize, (q.Page-1)*q.PageSize)
	rows, err := r.db.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := make([]*model.Hotel, 0, q.PageSize)
	for rows.Next() {
		h, err := scanHotel(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Update overwrites every mutable column of the hotel.
func (r *HotelRepo) Update(ctx context.Context, h *model.Hotel) error {
	const q = `UPDATE hotels
	           SET name = ?, address = ?, district = ?, province = ?, postal_code = ?, tel = ?, region = ?, email = ?
	           WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, q, h.Name, h.Address, h.District, h.Province, h.PostalCode, nullable(h.Tel), h.Region, nullable(h.Email), h.ID); err != nil {
		return translate(err)
	}
	return nil
}

// Delete removes a hotel together with its bookings and rooms inside one
// transaction.  It returns ErrHotelNotFound when the hotel does not exist.
func (r *HotelRepo) Delete(ctx context.Context, id uint64) (err error) {
	if r.conn == nil {
		return errors.New("hotel delete must not run inside a caller transaction")
	}
	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()
	var found uint64
	if err = tx.QueryRowContext(ctx, `SELECT id FROM hotels WHERE id = ? FOR UPDATE`, id).Scan(&found); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrHotelNotFound
		}
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM bookings WHERE hotel_id = ?`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM rooms WHERE hotel_id = ?`, id); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `DELETE FROM hotels WHERE id = ?`, id)
	return err
}
