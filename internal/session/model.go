package session

import "time"

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

type Session struct {
	ID              int           `db:"id" json:"id"`
	UserID          int           `db:"user_id" json:"user_id"`
	SpotID          int           `db:"spot_id" json:"spot_id"`
	LicensePlate    string        `db:"license_plate" json:"license_plate"`
	StartTime       time.Time     `db:"start_time" json:"start_time"`
	EndTime         *time.Time    `db:"end_time" json:"end_time,omitempty"`
	Status          string        `db:"status" json:"status"`
	DetectionMethod string        `db:"detection_method" json:"detection_method"`
	DurationSeconds *int64        `db:"duration_seconds" json:"duration_seconds,omitempty"`
	FeeCents        *int64        `db:"fee_cents" json:"fee_cents,omitempty"`
	PaymentStatus   PaymentStatus `db:"payment_status" json:"payment_status"`
	CreatedAt       time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time     `db:"updated_at" json:"updated_at"`
}

// SessionWithDetails joins the spot and lot rows a session points at, for
// history and receipt rendering.
type SessionWithDetails struct {
	Session
	RowID           string `db:"row_id" json:"row_id"`
	SpotNumber      string `db:"spot_number" json:"spot_number"`
	LotID           int    `db:"lot_id" json:"lot_id"`
	LotName         string `db:"lot_name" json:"lot_name"`
	HourlyRateCents int64  `db:"hourly_rate_cents" json:"hourly_rate_cents"`
	Currency        string `db:"currency" json:"currency"`
}

// ActiveSessionView is the live view of a running session, including the fee
// accrued so far. AccruedFeeCents is computed at read time and never stored.
type ActiveSessionView struct {
	SessionWithDetails
	AccruedFeeCents int64 `json:"accrued_fee_cents"`
}

type StartSessionRequest struct {
	SpotID          int    `json:"spot_id" binding:"required"`
	LicensePlate    string `json:"license_plate"`
	DetectionMethod string `json:"detection_method" binding:"omitempty,oneof=anpr manual"`
}
