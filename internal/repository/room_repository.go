package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/hotel-booking/internal/model"
)

// RoomRepo manages persistence for rooms.
type RoomRepo struct {
	db querier
}

// NewRoomRepo returns a new RoomRepo bound to the given database.
func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{db: db} }

// WithTx returns a copy of the repository that runs on tx.
func (r *RoomRepo) WithTx(tx *sql.Tx) *RoomRepo { return &RoomRepo{db: tx} }

const roomColumns = `id, hotel_id, room_number, type, price, description`

func scanRoom(row interface{ Scan(...any) error }) (*model.Room, error) {
	var (
		rm   model.Room
		desc sql.NullString
	)
	if err := row.Scan(&rm.ID, &rm.HotelID, &rm.RoomNumber, &rm.Type, &rm.Price, &desc); err != nil {
		return nil, err
	}
	if desc.Valid {
		rm.Description = &desc.String
	}
	return &rm, nil
}

// Create inserts a room.  A duplicate room_number yields ErrDuplicate.
func (r *RoomRepo) Create(ctx context.Context, rm *model.Room) error {
	const q = `INSERT INTO rooms (hotel_id, room_number, type, price, description) VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, rm.HotelID, rm.RoomNumber, rm.Type, rm.Price, rm.Description)
	if err != nil {
		return translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rm.ID = uint64(id)
	return nil
}

// GetByID returns the room or ErrRoomNotFound.
func (r *RoomRepo) GetByID(ctx context.Context, id uint64) (*model.Room, error) {
	rm, err := scanRoom(r.db.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRoomNotFound
	}
	return rm, err
}

// ListByHotel returns the hotel's rooms ordered by id.
func (r *RoomRepo) ListByHotel(ctx context.Context, hotelID uint64) ([]*model.Room, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE hotel_id = ? ORDER BY id`, hotelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Room
	for rows.Next() {
		rm, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rm)
	}
	return out, rows.Err()
}

// Update overwrites the room's number, type, price and description.
func (r *RoomRepo) Update(ctx context.Context, rm *model.Room) error {
	const q = `UPDATE rooms SET room_number = ?, type = ?, price = ?, description = ? WHERE id = ? AND hotel_id = ?`
	res, err := r.db.ExecContext(ctx, q, rm.RoomNumber, rm.Type, rm.Price, rm.Description, rm.ID, rm.HotelID)
	if err != nil {
		return translate(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, rm.ID); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a room of hotelID.  A room id that belongs to another
// hotel is ErrRoomNotFound; a room still referenced by a booking is
// refused with ErrConflict.
func (r *RoomRepo) Delete(ctx context.Context, hotelID, roomID uint64) error {
	var id uint64
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT r.id, COUNT(b.id)
		FROM rooms r
		LEFT JOIN bookings b ON b.room_id = r.id
		WHERE r.id = ? AND r.hotel_id = ?
		GROUP BY r.id`, roomID, hotelID).Scan(&id, &n)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrRoomNotFound
	}
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrConflict
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = ? AND hotel_id = ?`, roomID, hotelID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRoomNotFound
	}
	return nil
}

// Lock takes a row lock on the room for the rest of the transaction.
// Missing rows are not an error; the caller has already checked existence.
func (r *RoomRepo) Lock(ctx context.Context, id uint64) error {
	var got uint64
	err := r.db.QueryRowContext(ctx, `SELECT id FROM rooms WHERE id = ? FOR UPDATE`, id).Scan(&got)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	return err
}
