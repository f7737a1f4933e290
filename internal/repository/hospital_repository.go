package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/hotel-booking/internal/model"
)

// HospitalRepo manages persistence for hospitals.
type HospitalRepo struct {
	db   querier
	conn *sql.DB
}

func NewHospitalRepo(db *sql.DB) *HospitalRepo { return &HospitalRepo{db: db, conn: db} }

const hospitalColumns = `id, name, address, district, province, postal_code, COALESCE(tel, ''), region, created_at`

func scanHospital(row interface{ Scan(...any) error }) (*model.Hospital, error) {
	var h model.Hospital
	if err := row.Scan(&h.ID, &h.Name, &h.Address, &h.District, &h.Province, &h.PostalCode, &h.Tel, &h.Region, &h.CreatedAt); err != nil {
		return nil, err
	}
	return &h, nil
}

func (r *HospitalRepo) Create(ctx context.Context, h *model.Hospital) error {
	const q = `INSERT INTO hospitals (name, address, district, province, postal_code, tel, region)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, h.Name, h.Address, h.District, h.Province, h.PostalCode, nullable(h.Tel), h.Region)
	if err != nil {
		return translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	h.ID = uint64(id)
	return r.db.QueryRowContext(ctx, `SELECT created_at FROM hospitals WHERE id = ?`, h.ID).Scan(&h.CreatedAt)
}

// GetByID returns the hospital or ErrHospitalNotFound.
func (r *HospitalRepo) GetByID(ctx context.Context, id uint64) (*model.Hospital, error) {
	h, err := scanHospital(r.db.QueryRowContext(ctx, `SELECT `+hospitalColumns+` FROM hospitals WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrHospitalNotFound
	}
	return h, err
}

// List returns every hospital ordered by name.
func (r *HospitalRepo) List(ctx context.Context) ([]*model.Hospital, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+hospitalColumns+` FROM hospitals ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*model.Hospital{}
	for rows.Next() {
		h, err := scanHospital(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (r *HospitalRepo) Update(ctx context.Context, h *model.Hospital) error {
	const q = `UPDATE hospitals
	           SET name = ?, address = ?, district = ?, province = ?, postal_code = ?, tel = ?, region = ?
	           WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, q, h.Name, h.Address, h.District, h.Province, h.PostalCode, nullable(h.Tel), h.Region, h.ID); err != nil {
		return translate(err)
	}
	return nil
}

// Delete removes the hospital and its appointments in one transaction.
func (r *HospitalRepo) Delete(ctx context.Context, id uint64) (err error) {
	if r.conn == nil {
		return errors.New("hospital delete must not run inside a caller transaction")
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
	if _, err = tx.ExecContext(ctx, `DELETE FROM appointments WHERE hospital_id = ?`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM hospitals WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrHospitalNotFound
	}
	return nil
}

// WithTx returns a copy of the repository that runs on tx.
func (r *HospitalRepo) WithTx(tx *sql.Tx) *HospitalRepo { return &HospitalRepo{db: tx} }
