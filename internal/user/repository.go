package user

import (
	"context"
	"errors"

	"campark/internal/db"

	"github.com/jmoiron/sqlx"
)

var ErrUserNotFound = errors.New("user not found")

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, name, email, passwordHash, role, licensePlate string) (*User, error) {
	query := `
		INSERT INTO users (name, email, password_hash, role, license_plate)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, name, email, password_hash, role, license_plate, total_bookings, is_active, created_at
	`

	var user User
	err := r.db.GetContext(ctx, &user, query, name, email, passwordHash, role, licensePlate)
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	query := `
		SELECT id, name, email, password_hash, role, license_plate, total_bookings, is_active, created_at
		FROM users
		WHERE email = $1
	`

	var user User
	err := r.db.GetContext(ctx, &user, query, email)
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *repository) FindByID(ctx context.Context, id int) (*User, error) {
	query := `
		SELECT id, name, email, password_hash, role, license_plate, total_bookings, is_active, created_at
		FROM users
		WHERE id = $1
	`

	var user User
	err := r.db.GetContext(ctx, &user, query, id)
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *repository) EmailExists(ctx context.Context, email string) (bool, error) {
	return db.Exists(ctx, r.db, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email)
}

func (r *repository) UpdateProfile(ctx context.Context, id int, name, licensePlate string) (*User, error) {
	query := `
		UPDATE users
		SET name = $2, license_plate = $3
		WHERE id = $1
		RETURNING id, name, email, password_hash, role, license_plate, total_bookings, is_active, created_at
	`

	var user User
	err := r.db.GetContext(ctx, &user, query, id, name, licensePlate)
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *repository) IncrementTotalBookings(ctx context.Context, id int) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET total_bookings = total_bookings + 1 WHERE id = $1`, id)
	return err
}
