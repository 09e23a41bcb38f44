package lot

import "context"

type Repository interface {
	CreateLot(ctx context.Context, req CreateLotRequest) (*Lot, error)
	GetLotByID(ctx context.Context, id int) (*Lot, error)
	GetActiveLots(ctx context.Context) ([]LotWithAvailability, error)
	CreateSpot(ctx context.Context, lotID int, rowID, spotNumber string) (*Spot, error)
	GetSpotByID(ctx context.Context, id int) (*Spot, error)
	GetSpotsByLot(ctx context.Context, lotID int) ([]Spot, error)
	CountSpots(ctx context.Context, lotID int) (int, error)
	ClaimSpot(ctx context.Context, spotID int) error
	ReleaseSpot(ctx context.Context, spotID int) error
	SetStatus(ctx context.Context, spotID int, status SpotStatus) (*Spot, error)
}
