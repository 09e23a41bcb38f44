package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"campark/internal/logger"
	"campark/internal/lot"
	"campark/internal/metrics"
	"campark/internal/user"
	"campark/internal/wallet"
)

var (
	ErrNoActiveSession = errors.New("no active parking session")
	ErrNotSessionOwner = errors.New("session belongs to another user")
	ErrAlreadyPaid     = errors.New("session is already paid")
	ErrNotCompleted    = errors.New("session is not completed yet")
	ErrLotClosed       = errors.New("parking lot is closed")
)

// ReceiptNotifier receives settled sessions for async delivery: a receipt for
// paid sessions, a payment reminder for failed charges. A nil notifier
// disables delivery.
type ReceiptNotifier interface {
	NotifySessionReceipt(userID, sessionID int, feeCents int64)
	NotifyPaymentFailed(userID, sessionID int, feeCents int64)
}

type Service interface {
	StartSession(ctx context.Context, userID int, req StartSessionRequest) (*Session, error)
	EndSession(ctx context.Context, userID int) (*Session, error)
	PayOutstanding(ctx context.Context, userID, sessionID int) (*Session, error)
	GetActive(ctx context.Context, userID int) (*ActiveSessionView, error)
	GetHistory(ctx context.Context, userID int, limit, offset int) ([]SessionWithDetails, error)
	GetDetail(ctx context.Context, userID, sessionID int) (*SessionWithDetails, error)
	GetLotSessions(ctx context.Context, lotID int, limit, offset int) ([]SessionWithDetails, error)
}

type service struct {
	sessionRepo Repository
	lotRepo     lot.Repository
	walletRepo  wallet.Repository
	userRepo    user.Repository
	publisher   lot.SnapshotPublisher
	notifier    ReceiptNotifier
	now         func() time.Time
}

func NewService(
	sessionRepo Repository,
	lotRepo lot.Repository,
	walletRepo wallet.Repository,
	userRepo user.Repository,
	publisher lot.SnapshotPublisher,
	notifier ReceiptNotifier,
) Service {
	return &service{
		sessionRepo: sessionRepo,
		lotRepo:     lotRepo,
		walletRepo:  walletRepo,
		userRepo:    userRepo,
		publisher:   publisher,
		notifier:    notifier,
		now:         time.Now,
	}
}

func (s *service) StartSession(ctx context.Context, userID int, req StartSessionRequest) (*Session, error) {
	spot, err := s.lotRepo.GetSpotByID(ctx, req.SpotID)
	if err != nil {
		return nil, lot.ErrSpotNotFound
	}

	parkingLot, err := s.lotRepo.GetLotByID(ctx, spot.LotID)
	if err != nil {
		return nil, lot.ErrLotNotFound
	}
	if !parkingLot.IsActive {
		return nil, lot.ErrLotNotFound
	}
	if !withinOperatingHours(parkingLot, s.now()) {
		return nil, ErrLotClosed
	}

	licensePlate := req.LicensePlate
	if licensePlate == "" {
		u, err := s.userRepo.FindByID(ctx, userID)
		if err == nil {
			licensePlate = u.LicensePlate
		}
	}

	// Claim first, insert second. The conditional claim is the only gate
	// against two users grabbing the same spot.
	if err := s.lotRepo.ClaimSpot(ctx, req.SpotID); err != nil {
		return nil, err
	}

	sess, err := s.sessionRepo.CreateSession(ctx, userID, req.SpotID, licensePlate, req.DetectionMethod)
	if err != nil {
		// The spot was claimed but the session row never landed; put the
		// spot back before surfacing the error.
		if releaseErr := s.lotRepo.ReleaseSpot(ctx, req.SpotID); releaseErr != nil {
			logger.Error("failed to release spot after session insert failure",
				"spot_id", req.SpotID, "error", releaseErr)
		}
		return nil, err
	}

	if err := s.userRepo.IncrementTotalBookings(ctx, userID); err != nil {
		logger.Error("failed to increment booking counter", "user_id", userID, "error", err)
	}

	metrics.RecordSessionStarted(sess.DetectionMethod)
	s.publishSnapshot(ctx, spot.LotID)

	return sess, nil
}

func (s *service) EndSession(ctx context.Context, userID int) (*Session, error) {
	detail, err := s.sessionRepo.GetActiveDetailByUser(ctx, userID)
	if err != nil {
		return nil, ErrNoActiveSession
	}

	endTime := s.now()
	duration := endTime.Sub(detail.StartTime)
	feeCents := FeeCents(duration, detail.HourlyRateCents)
	durationSeconds := int64((duration + time.Second - 1) / time.Second)
	if durationSeconds < 0 {
		durationSeconds = 0
	}

	sess, err := s.sessionRepo.CompleteSession(ctx, detail.ID, endTime, durationSeconds, feeCents)
	if err != nil {
		return nil, err
	}

	// The spot frees up regardless of whether the charge below succeeds. A
	// failed payment never keeps a physical spot occupied.
	if err := s.lotRepo.ReleaseSpot(ctx, sess.SpotID); err != nil {
		logger.Error("failed to release spot on session end", "spot_id", sess.SpotID, "error", err)
	}
	s.publishSnapshot(ctx, detail.LotID)

	paymentStatus := s.settle(ctx, sess, feeCents, detail.LotName)
	sess.PaymentStatus = paymentStatus

	metrics.RecordSessionCompleted(string(paymentStatus), feeCents)
	if s.notifier != nil {
		switch paymentStatus {
		case PaymentPaid:
			s.notifier.NotifySessionReceipt(userID, sess.ID, feeCents)
		case PaymentFailed:
			s.notifier.NotifyPaymentFailed(userID, sess.ID, feeCents)
		}
	}

	return sess, nil
}

// settle charges the wallet for a completed session and records the outcome
// on the session row.
func (s *service) settle(ctx context.Context, sess *Session, feeCents int64, lotName string) PaymentStatus {
	status := PaymentPaid
	if feeCents > 0 {
		description := fmt.Sprintf("parking fee, %s", lotName)
		_, err := s.walletRepo.Charge(ctx, sess.UserID, sess.ID, feeCents, description)
		switch {
		case err == nil:
			metrics.RecordWalletCharge("success")
		case errors.Is(err, wallet.ErrInsufficientBalance):
			metrics.RecordWalletCharge("insufficient_balance")
			status = PaymentFailed
		default:
			logger.Error("wallet charge failed", "session_id", sess.ID, "error", err)
			metrics.RecordWalletCharge("error")
			status = PaymentFailed
		}
	}

	if err := s.sessionRepo.SetPaymentStatus(ctx, sess.ID, status); err != nil {
		logger.Error("failed to record payment status", "session_id", sess.ID, "error", err)
	}

	return status
}

// PayOutstanding retries the wallet charge for a completed session whose
// payment previously failed.
func (s *service) PayOutstanding(ctx context.Context, userID, sessionID int) (*Session, error) {
	detail, err := s.sessionRepo.GetDetailByID(ctx, sessionID)
	if err != nil {
		return nil, ErrSessionNotFound
	}
	if detail.UserID != userID {
		return nil, ErrNotSessionOwner
	}
	if detail.Status != "completed" {
		return nil, ErrNotCompleted
	}
	if detail.PaymentStatus == PaymentPaid {
		return nil, ErrAlreadyPaid
	}

	var feeCents int64
	if detail.FeeCents != nil {
		feeCents = *detail.FeeCents
	}

	if feeCents > 0 {
		description := fmt.Sprintf("parking fee, %s", detail.LotName)
		if _, err := s.walletRepo.Charge(ctx, userID, sessionID, feeCents, description); err != nil {
			if errors.Is(err, wallet.ErrInsufficientBalance) {
				metrics.RecordWalletCharge("insufficient_balance")
				return nil, wallet.ErrInsufficientBalance
			}
			metrics.RecordWalletCharge("error")
			return nil, err
		}
		metrics.RecordWalletCharge("success")
	}

	if err := s.sessionRepo.SetPaymentStatus(ctx, sessionID, PaymentPaid); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.NotifySessionReceipt(userID, sessionID, feeCents)
	}

	sess := detail.Session
	sess.PaymentStatus = PaymentPaid
	return &sess, nil
}

func (s *service) GetActive(ctx context.Context, userID int) (*ActiveSessionView, error) {
	detail, err := s.sessionRepo.GetActiveDetailByUser(ctx, userID)
	if err != nil {
		return nil, ErrNoActiveSession
	}

	return &ActiveSessionView{
		SessionWithDetails: *detail,
		AccruedFeeCents:    FeeCents(s.now().Sub(detail.StartTime), detail.HourlyRateCents),
	}, nil
}

func (s *service) GetHistory(ctx context.Context, userID int, limit, offset int) ([]SessionWithDetails, error) {
	return s.sessionRepo.GetUserHistory(ctx, userID, limit, offset)
}

func (s *service) GetDetail(ctx context.Context, userID, sessionID int) (*SessionWithDetails, error) {
	detail, err := s.sessionRepo.GetDetailByID(ctx, sessionID)
	if err != nil {
		return nil, ErrSessionNotFound
	}
	if detail.UserID != userID {
		return nil, ErrNotSessionOwner
	}
	return detail, nil
}

func (s *service) GetLotSessions(ctx context.Context, lotID int, limit, offset int) ([]SessionWithDetails, error) {
	return s.sessionRepo.GetSessionsByLot(ctx, lotID, limit, offset)
}

func (s *service) publishSnapshot(ctx context.Context, lotID int) {
	if s.publisher == nil {
		return
	}

	spots, err := s.lotRepo.GetSpotsByLot(ctx, lotID)
	if err != nil {
		logger.Error("failed to load spots for snapshot", "lot_id", lotID, "error", err)
		return
	}

	s.publisher.PublishLotView(lot.GroupByRow(lotID, spots))
}

// withinOperatingHours checks the wall clock in the lot's timezone against
// its open and close times. A window where close precedes open spans
// midnight.
func withinOperatingHours(l *lot.Lot, now time.Time) bool {
	if l.OpenTime == "" || l.CloseTime == "" {
		return true
	}

	loc, err := time.LoadLocation(l.Timezone)
	if err != nil {
		loc = time.UTC
	}

	open, errOpen := time.Parse("15:04", l.OpenTime)
	close, errClose := time.Parse("15:04", l.CloseTime)
	if errOpen != nil || errClose != nil {
		return true
	}

	local := now.In(loc)
	minutes := local.Hour()*60 + local.Minute()
	openMin := open.Hour()*60 + open.Minute()
	closeMin := close.Hour()*60 + close.Minute()

	if openMin <= closeMin {
		return minutes >= openMin && minutes <= closeMin
	}
	return minutes >= openMin || minutes <= closeMin
}
