package session

import (
	"context"
	"time"
)

type Repository interface {
	CreateSession(ctx context.Context, userID, spotID int, licensePlate, detectionMethod string) (*Session, error)
	GetSessionByID(ctx context.Context, id int) (*Session, error)
	GetActiveByUser(ctx context.Context, userID int) (*Session, error)
	GetActiveDetailByUser(ctx context.Context, userID int) (*SessionWithDetails, error)
	GetDetailByID(ctx context.Context, id int) (*SessionWithDetails, error)
	CompleteSession(ctx context.Context, id int, endTime time.Time, durationSeconds, feeCents int64) (*Session, error)
	SetPaymentStatus(ctx context.Context, id int, status PaymentStatus) error
	GetUserHistory(ctx context.Context, userID int, limit, offset int) ([]SessionWithDetails, error)
	GetSessionsByLot(ctx context.Context, lotID int, limit, offset int) ([]SessionWithDetails, error)
}
