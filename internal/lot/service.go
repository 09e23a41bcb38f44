package lot

import (
	"context"
	"errors"

	"campark/internal/metrics"
)

var (
	ErrLotNotFound   = errors.New("parking lot not found")
	ErrInvalidStatus = errors.New("invalid spot status")
	ErrLotFull       = errors.New("lot already has its maximum number of spots")
)

// SnapshotPublisher pushes a fresh lot view to live-map subscribers. The
// websocket hub satisfies this; tests use a recording stub.
type SnapshotPublisher interface {
	PublishLotView(view LotView)
}

type Service interface {
	CreateLot(ctx context.Context, req CreateLotRequest) (*Lot, error)
	ListLots(ctx context.Context) ([]LotWithAvailability, error)
	GetLot(ctx context.Context, id int) (*Lot, error)
	CreateSpot(ctx context.Context, lotID int, req CreateSpotRequest) (*Spot, error)
	ListSpots(ctx context.Context, lotID int) ([]Spot, error)
	MapView(ctx context.Context, lotID int) (LotView, error)
	SetSpotStatus(ctx context.Context, spotID int, status string) (*Spot, error)
	PublishSnapshot(ctx context.Context, lotID int)
}

type service struct {
	repo      Repository
	publisher SnapshotPublisher
}

func NewService(repo Repository, publisher SnapshotPublisher) Service {
	return &service{
		repo:      repo,
		publisher: publisher,
	}
}

func (s *service) CreateLot(ctx context.Context, req CreateLotRequest) (*Lot, error) {
	return s.repo.CreateLot(ctx, req)
}

func (s *service) ListLots(ctx context.Context) ([]LotWithAvailability, error) {
	return s.repo.GetActiveLots(ctx)
}

func (s *service) GetLot(ctx context.Context, id int) (*Lot, error) {
	lot, err := s.repo.GetLotByID(ctx, id)
	if err != nil {
		return nil, ErrLotNotFound
	}
	return lot, nil
}

func (s *service) CreateSpot(ctx context.Context, lotID int, req CreateSpotRequest) (*Spot, error) {
	lot, err := s.repo.GetLotByID(ctx, lotID)
	if err != nil {
		return nil, ErrLotNotFound
	}

	if lot.TotalSpots > 0 {
		count, err := s.repo.CountSpots(ctx, lotID)
		if err != nil {
			return nil, err
		}
		if count >= lot.TotalSpots {
			return nil, ErrLotFull
		}
	}

	return s.repo.CreateSpot(ctx, lotID, req.RowID, req.SpotNumber)
}

func (s *service) ListSpots(ctx context.Context, lotID int) ([]Spot, error) {
	if _, err := s.repo.GetLotByID(ctx, lotID); err != nil {
		return nil, ErrLotNotFound
	}
	return s.repo.GetSpotsByLot(ctx, lotID)
}

func (s *service) MapView(ctx context.Context, lotID int) (LotView, error) {
	spots, err := s.ListSpots(ctx, lotID)
	if err != nil {
		return LotView{}, err
	}
	return GroupByRow(lotID, spots), nil
}

func (s *service) SetSpotStatus(ctx context.Context, spotID int, status string) (*Spot, error) {
	if !ValidSpotStatus(status) {
		return nil, ErrInvalidStatus
	}

	spot, err := s.repo.SetStatus(ctx, spotID, SpotStatus(status))
	if err != nil {
		return nil, ErrSpotNotFound
	}

	metrics.RecordSpotStatusUpdate(status)
	s.PublishSnapshot(ctx, spot.LotID)

	return spot, nil
}

// PublishSnapshot re-reads the lot's full spot set and broadcasts it.
// Subscribers always receive the complete current state, never a diff.
func (s *service) PublishSnapshot(ctx context.Context, lotID int) {
	if s.publisher == nil {
		return
	}

	spots, err := s.repo.GetSpotsByLot(ctx, lotID)
	if err != nil {
		return
	}

	s.publisher.PublishLotView(GroupByRow(lotID, spots))
}
