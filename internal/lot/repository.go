package lot

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
)

var (
	ErrSpotNotFound    = errors.New("spot not found")
	ErrSpotUnavailable = errors.New("spot is not available")
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateLot(ctx context.Context, req CreateLotRequest) (*Lot, error) {
	query := `
		INSERT INTO parking_lots (name, address, city, total_spots, hourly_rate_cents, currency, open_time, close_time, timezone)
		VALUES ($1, $2, $3, $4, $5,
		        COALESCE(NULLIF($6, ''), 'MYR'),
		        COALESCE(NULLIF($7, ''), '00:00'),
		        COALESCE(NULLIF($8, ''), '23:59'),
		        COALESCE(NULLIF($9, ''), 'Asia/Kuala_Lumpur'))
		RETURNING id, name, address, city, total_spots, hourly_rate_cents, currency, open_time, close_time, timezone, is_active, created_at, updated_at
	`

	var lot Lot
	err := r.db.GetContext(ctx, &lot, query,
		req.Name, req.Address, req.City, req.TotalSpots, req.HourlyRateCents,
		req.Currency, req.OpenTime, req.CloseTime, req.Timezone)
	if err != nil {
		return nil, err
	}

	return &lot, nil
}

func (r *repository) GetLotByID(ctx context.Context, id int) (*Lot, error) {
	query := `
		SELECT id, name, address, city, total_spots, hourly_rate_cents, currency, open_time, close_time, timezone, is_active, created_at, updated_at
		FROM parking_lots
		WHERE id = $1
	`

	var lot Lot
	err := r.db.GetContext(ctx, &lot, query, id)
	if err != nil {
		return nil, err
	}

	return &lot, nil
}

func (r *repository) GetActiveLots(ctx context.Context) ([]LotWithAvailability, error) {
	query := `
		SELECT
			l.id, l.name, l.address, l.city, l.total_spots, l.hourly_rate_cents,
			l.currency, l.open_time, l.close_time, l.timezone, l.is_active,
			l.created_at, l.updated_at,
			COUNT(s.id) FILTER (WHERE s.status = 'available') AS available_spots
		FROM parking_lots l
		LEFT JOIN parking_spots s ON s.lot_id = l.id
		WHERE l.is_active = TRUE
		GROUP BY l.id
		ORDER BY l.name
	`

	var lots []LotWithAvailability
	err := r.db.SelectContext(ctx, &lots, query)
	if err != nil {
		return nil, err
	}

	return lots, nil
}

func (r *repository) CreateSpot(ctx context.Context, lotID int, rowID, spotNumber string) (*Spot, error) {
	query := `
		INSERT INTO parking_spots (lot_id, row_id, spot_number)
		VALUES ($1, $2, $3)
		RETURNING id, lot_id, row_id, spot_number, status, last_updated, created_at
	`

	var spot Spot
	err := r.db.GetContext(ctx, &spot, query, lotID, rowID, spotNumber)
	if err != nil {
		return nil, err
	}

	return &spot, nil
}

func (r *repository) GetSpotByID(ctx context.Context, id int) (*Spot, error) {
	query := `
		SELECT id, lot_id, row_id, spot_number, status, last_updated, created_at
		FROM parking_spots
		WHERE id = $1
	`

	var spot Spot
	err := r.db.GetContext(ctx, &spot, query, id)
	if err != nil {
		return nil, err
	}

	return &spot, nil
}

func (r *repository) GetSpotsByLot(ctx context.Context, lotID int) ([]Spot, error) {
	query := `
		SELECT id, lot_id, row_id, spot_number, status, last_updated, created_at
		FROM parking_spots
		WHERE lot_id = $1
		ORDER BY row_id, spot_number
	`

	var spots []Spot
	err := r.db.SelectContext(ctx, &spots, query, lotID)
	if err != nil {
		return nil, err
	}

	return spots, nil
}

func (r *repository) CountSpots(ctx context.Context, lotID int) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM parking_spots WHERE lot_id = $1`, lotID)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// ClaimSpot flips a spot from available to occupied in one conditional write.
// Zero rows affected means the spot was taken, disabled, or missing.
func (r *repository) ClaimSpot(ctx context.Context, spotID int) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE parking_spots
		SET status = 'occupied', last_updated = NOW()
		WHERE id = $1 AND status = 'available'
	`, spotID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrSpotUnavailable
	}

	return nil
}

// ReleaseSpot returns an occupied spot to available. Releasing an already
// available spot is a no-op rather than an error.
func (r *repository) ReleaseSpot(ctx context.Context, spotID int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE parking_spots
		SET status = 'available', last_updated = NOW()
		WHERE id = $1 AND status = 'occupied'
	`, spotID)
	return err
}

// SetStatus writes the status unconditionally. Transition legality is the
// caller's responsibility; this is the admin/sensor primitive.
func (r *repository) SetStatus(ctx context.Context, spotID int, status SpotStatus) (*Spot, error) {
	query := `
		UPDATE parking_spots
		SET status = $2, last_updated = NOW()
		WHERE id = $1
		RETURNING id, lot_id, row_id, spot_number, status, last_updated, created_at
	`

	var spot Spot
	err := r.db.GetContext(ctx, &spot, query, spotID, status)
	if err != nil {
		return nil, err
	}

	return &spot, nil
}
