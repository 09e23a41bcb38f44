package session

import (
	"context"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var (
	ErrActiveSessionExists = errors.New("user already has an active session")
	ErrSessionNotFound     = errors.New("session not found")
)

const detailColumns = `
	ps.id, ps.user_id, ps.spot_id, ps.license_plate, ps.start_time, ps.end_time,
	ps.status, ps.detection_method, ps.duration_seconds, ps.fee_cents,
	ps.payment_status, ps.created_at, ps.updated_at,
	sp.row_id, sp.spot_number,
	l.id AS lot_id, l.name AS lot_name, l.hourly_rate_cents, l.currency
`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// CreateSession relies on the partial unique index over active sessions to
// enforce at most one active session per user; a violation surfaces as
// ErrActiveSessionExists.
func (r *repository) CreateSession(ctx context.Context, userID, spotID int, licensePlate, detectionMethod string) (*Session, error) {
	query := `
		INSERT INTO parking_sessions (user_id, spot_id, license_plate, detection_method)
		VALUES ($1, $2, $3, COALESCE(NULLIF($4, ''), 'manual'))
		RETURNING id, user_id, spot_id, license_plate, start_time, end_time, status, detection_method, duration_seconds, fee_cents, payment_status, created_at, updated_at
	`

	var sess Session
	err := r.db.GetContext(ctx, &sess, query, userID, spotID, licensePlate, detectionMethod)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrActiveSessionExists
		}
		return nil, err
	}

	return &sess, nil
}

func (r *repository) GetSessionByID(ctx context.Context, id int) (*Session, error) {
	query := `
		SELECT id, user_id, spot_id, license_plate, start_time, end_time, status, detection_method, duration_seconds, fee_cents, payment_status, created_at, updated_at
		FROM parking_sessions
		WHERE id = $1
	`

	var sess Session
	err := r.db.GetContext(ctx, &sess, query, id)
	if err != nil {
		return nil, err
	}

	return &sess, nil
}

func (r *repository) GetActiveByUser(ctx context.Context, userID int) (*Session, error) {
	query := `
		SELECT id, user_id, spot_id, license_plate, start_time, end_time, status, detection_method, duration_seconds, fee_cents, payment_status, created_at, updated_at
		FROM parking_sessions
		WHERE user_id = $1 AND status = 'active'
	`

	var sess Session
	err := r.db.GetContext(ctx, &sess, query, userID)
	if err != nil {
		return nil, err
	}

	return &sess, nil
}

func (r *repository) GetActiveDetailByUser(ctx context.Context, userID int) (*SessionWithDetails, error) {
	query := `
		SELECT ` + detailColumns + `
		FROM parking_sessions ps
		JOIN parking_spots sp ON ps.spot_id = sp.id
		JOIN parking_lots l ON sp.lot_id = l.id
		WHERE ps.user_id = $1 AND ps.status = 'active'
	`

	var sess SessionWithDetails
	err := r.db.GetContext(ctx, &sess, query, userID)
	if err != nil {
		return nil, err
	}

	return &sess, nil
}

func (r *repository) GetDetailByID(ctx context.Context, id int) (*SessionWithDetails, error) {
	query := `
		SELECT ` + detailColumns + `
		FROM parking_sessions ps
		JOIN parking_spots sp ON ps.spot_id = sp.id
		JOIN parking_lots l ON sp.lot_id = l.id
		WHERE ps.id = $1
	`

	var sess SessionWithDetails
	err := r.db.GetContext(ctx, &sess, query, id)
	if err != nil {
		return nil, err
	}

	return &sess, nil
}

// CompleteSession closes an active session with its final duration and fee.
// The conditional WHERE keeps completion idempotent under racing requests:
// only the first caller flips the row.
func (r *repository) CompleteSession(ctx context.Context, id int, endTime time.Time, durationSeconds, feeCents int64) (*Session, error) {
	query := `
		UPDATE parking_sessions
		SET end_time = $2, duration_seconds = $3, fee_cents = $4, status = 'completed', updated_at = NOW()
		WHERE id = $1 AND status = 'active'
		RETURNING id, user_id, spot_id, license_plate, start_time, end_time, status, detection_method, duration_seconds, fee_cents, payment_status, created_at, updated_at
	`

	var sess Session
	err := r.db.GetContext(ctx, &sess, query, id, endTime, durationSeconds, feeCents)
	if err != nil {
		return nil, ErrSessionNotFound
	}

	return &sess, nil
}

func (r *repository) SetPaymentStatus(ctx context.Context, id int, status PaymentStatus) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE parking_sessions
		SET payment_status = $2, updated_at = NOW()
		WHERE id = $1
	`, id, status)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrSessionNotFound
	}

	return nil
}

func (r *repository) GetUserHistory(ctx context.Context, userID int, limit, offset int) ([]SessionWithDetails, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT ` + detailColumns + `
		FROM parking_sessions ps
		JOIN parking_spots sp ON ps.spot_id = sp.id
		JOIN parking_lots l ON sp.lot_id = l.id
		WHERE ps.user_id = $1 AND ps.status = 'completed'
		ORDER BY ps.start_time DESC
		LIMIT $2 OFFSET $3
	`

	var sessions []SessionWithDetails
	err := r.db.SelectContext(ctx, &sessions, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	return sessions, nil
}

func (r *repository) GetSessionsByLot(ctx context.Context, lotID int, limit, offset int) ([]SessionWithDetails, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT ` + detailColumns + `
		FROM parking_sessions ps
		JOIN parking_spots sp ON ps.spot_id = sp.id
		JOIN parking_lots l ON sp.lot_id = l.id
		WHERE l.id = $1
		ORDER BY ps.start_time DESC
		LIMIT $2 OFFSET $3
	`

	var sessions []SessionWithDetails
	err := r.db.SelectContext(ctx, &sessions, query, lotID, limit, offset)
	if err != nil {
		return nil, err
	}

	return sessions, nil
}
