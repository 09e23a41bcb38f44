package lot

import "time"

type SpotStatus string

const (
	StatusAvailable SpotStatus = "available"
	StatusOccupied  SpotStatus = "occupied"
	StatusDisabled  SpotStatus = "disabled"
)

func ValidSpotStatus(s string) bool {
	switch SpotStatus(s) {
	case StatusAvailable, StatusOccupied, StatusDisabled:
		return true
	}
	return false
}

type Lot struct {
	ID              int       `db:"id" json:"id"`
	Name            string    `db:"name" json:"name"`
	Address         string    `db:"address" json:"address"`
	City            string    `db:"city" json:"city"`
	TotalSpots      int       `db:"total_spots" json:"total_spots"`
	HourlyRateCents int64     `db:"hourly_rate_cents" json:"hourly_rate_cents"`
	Currency        string    `db:"currency" json:"currency"`
	OpenTime        string    `db:"open_time" json:"open_time"`
	CloseTime       string    `db:"close_time" json:"close_time"`
	Timezone        string    `db:"timezone" json:"timezone"`
	IsActive        bool      `db:"is_active" json:"is_active"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// LotWithAvailability carries the derived available-spot count; the count is
// never stored on the lot row.
type LotWithAvailability struct {
	Lot
	AvailableSpots int `db:"available_spots" json:"available_spots"`
}

type Spot struct {
	ID          int        `db:"id" json:"id"`
	LotID       int        `db:"lot_id" json:"lot_id"`
	RowID       string     `db:"row_id" json:"row_id"`
	SpotNumber  string     `db:"spot_number" json:"spot_number"`
	Status      SpotStatus `db:"status" json:"status"`
	LastUpdated time.Time  `db:"last_updated" json:"last_updated"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

type CreateLotRequest struct {
	Name            string `json:"name" binding:"required"`
	Address         string `json:"address"`
	City            string `json:"city"`
	TotalSpots      int    `json:"total_spots" binding:"required,min=1"`
	HourlyRateCents int64  `json:"hourly_rate_cents" binding:"required,min=0"`
	Currency        string `json:"currency"`
	OpenTime        string `json:"open_time"`
	CloseTime       string `json:"close_time"`
	Timezone        string `json:"timezone"`
}

type CreateSpotRequest struct {
	RowID      string `json:"row_id" binding:"required"`
	SpotNumber string `json:"spot_number" binding:"required"`
}

type SetSpotStatusRequest struct {
	Status string `json:"status" binding:"required"`
}
