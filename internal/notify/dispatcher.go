package notify

import (
	"context"
	"time"

	"campark/internal/logger"
	"campark/internal/session"
	"campark/internal/user"
)

// Dispatcher bridges domain events to queued notifications. It resolves user
// and session details before enqueueing, so the worker only deals with
// ready-to-send jobs.
type Dispatcher struct {
	svc      *Service
	users    user.Repository
	sessions session.Repository
}

func NewDispatcher(svc *Service, users user.Repository, sessions session.Repository) *Dispatcher {
	return &Dispatcher{svc: svc, users: users, sessions: sessions}
}

// NotifySessionReceipt satisfies session.ReceiptNotifier.
func (d *Dispatcher) NotifySessionReceipt(userID, sessionID int, feeCents int64) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	u, err := d.users.FindByID(ctx, userID)
	if err != nil {
		logger.Error("receipt notification skipped, user lookup failed", "user_id", userID, "error", err)
		return
	}

	detail, err := d.sessions.GetDetailByID(ctx, sessionID)
	if err != nil {
		logger.Error("receipt notification skipped, session lookup failed", "session_id", sessionID, "error", err)
		return
	}

	endTime := time.Now()
	if detail.EndTime != nil {
		endTime = *detail.EndTime
	}

	if err := d.svc.SendSessionReceipt(ctx, u.Email, u.Name, detail.LotName, detail.SpotNumber, feeCents, detail.Currency, endTime); err != nil {
		logger.Error("failed to queue session receipt", "session_id", sessionID, "error", err)
	}
}

// NotifyPaymentFailed satisfies session.ReceiptNotifier for failed charges.
func (d *Dispatcher) NotifyPaymentFailed(userID, sessionID int, feeCents int64) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	u, err := d.users.FindByID(ctx, userID)
	if err != nil {
		logger.Error("payment-failed notification skipped, user lookup failed", "user_id", userID, "error", err)
		return
	}

	currency := "MYR"
	if detail, err := d.sessions.GetDetailByID(ctx, sessionID); err == nil {
		currency = detail.Currency
	}

	if err := d.svc.SendPaymentFailed(ctx, u.Email, u.Name, feeCents, currency); err != nil {
		logger.Error("failed to queue payment-failed notice", "session_id", sessionID, "error", err)
	}
}

// NotifyTopUp satisfies wallet.Notifier.
func (d *Dispatcher) NotifyTopUp(userID int, amountCents, balanceCents int64) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	u, err := d.users.FindByID(ctx, userID)
	if err != nil {
		logger.Error("top-up notification skipped, user lookup failed", "user_id", userID, "error", err)
		return
	}

	if err := d.svc.SendTopUpConfirmation(ctx, u.Email, u.Name, amountCents, balanceCents, "MYR"); err != nil {
		logger.Error("failed to queue top-up confirmation", "user_id", userID, "error", err)
	}
}
