package wallet

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func setupWalletMock(t *testing.T) (Repository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	repo := NewRepository(sqlxDB)

	closer := func() { sqlxDB.Close() }
	return repo, mock, closer
}

func walletRows(id, userID int, balance int64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "balance_cents", "currency", "created_at", "updated_at"}).
		AddRow(id, userID, balance, "MYR", time.Now(), time.Now())
}

func transactionColumns() []string {
	return []string{"id", "wallet_id", "type", "amount_cents", "description", "balance_after", "session_id", "payment_method", "reference_id", "created_at"}
}

func TestGetOrCreateWallet_WhenNotExists(t *testing.T) {
	repo, mock, close := setupWalletMock(t)
	defer close()

	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM wallets WHERE user_id = $1")).
		WithArgs(10).
		WillReturnError(sql.ErrNoRows)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO wallets (user_id) VALUES ($1) RETURNING id, user_id, balance_cents, currency, created_at, updated_at")).
		WithArgs(10).
		WillReturnRows(walletRows(5, 10, 0))

	w, err := repo.GetOrCreateWallet(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, 5, w.ID)
	require.Equal(t, int64(0), w.BalanceCents)
}

func TestTopUp_AppendsLedgerRow(t *testing.T) {
	repo, mock, close := setupWalletMock(t)
	defer close()

	ctx := context.Background()

	mock.ExpectBegin()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, balance_cents, currency, created_at, updated_at FROM wallets WHERE user_id = $1 FOR UPDATE")).
		WithArgs(20).
		WillReturnRows(walletRows(7, 20, 0))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE wallets SET balance_cents = $1, updated_at = NOW() WHERE id = $2")).
		WithArgs(2000, 7).
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO wallet_transactions (wallet_id, type, amount_cents, description, balance_after, session_id, payment_method, reference_id)")).
		WithArgs(7, TypeTopUp, int64(2000), "wallet top-up", int64(2000), nil, "card", "REF-1").
		WillReturnRows(sqlmock.NewRows(transactionColumns()).
			AddRow(1, 7, "topup", 2000, "wallet top-up", 2000, nil, "card", "REF-1", time.Now()))

	mock.ExpectCommit()

	recorded, err := repo.TopUp(ctx, 20, 2000, "card", "REF-1")
	require.NoError(t, err)
	require.Equal(t, int64(2000), recorded.AmountCents)
	require.Equal(t, int64(2000), recorded.BalanceAfter)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTopUp_RejectsNonPositiveAmount(t *testing.T) {
	repo, _, close := setupWalletMock(t)
	defer close()

	_, err := repo.TopUp(context.Background(), 20, 0, "card", "")
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = repo.TopUp(context.Background(), 20, -500, "card", "")
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func TestCharge_DebitsBalance(t *testing.T) {
	repo, mock, close := setupWalletMock(t)
	defer close()

	ctx := context.Background()

	mock.ExpectBegin()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, balance_cents, currency, created_at, updated_at FROM wallets WHERE user_id = $1 FOR UPDATE")).
		WithArgs(20).
		WillReturnRows(walletRows(7, 20, 2000))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE wallets SET balance_cents = $1, updated_at = NOW() WHERE id = $2")).
		WithArgs(1500, 7).
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO wallet_transactions (wallet_id, type, amount_cents, description, balance_after, session_id, payment_method, reference_id)")).
		WithArgs(7, TypePayment, int64(-500), "parking fee", int64(1500), 42, nil, nil).
		WillReturnRows(sqlmock.NewRows(transactionColumns()).
			AddRow(2, 7, "payment", -500, "parking fee", 1500, 42, nil, nil, time.Now()))

	mock.ExpectCommit()

	recorded, err := repo.Charge(ctx, 20, 42, 500, "parking fee")
	require.NoError(t, err)
	require.Equal(t, int64(-500), recorded.AmountCents)
	require.Equal(t, int64(1500), recorded.BalanceAfter)
}

func TestCharge_InsufficientBalanceRollsBack(t *testing.T) {
	repo, mock, close := setupWalletMock(t)
	defer close()

	ctx := context.Background()

	mock.ExpectBegin()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, balance_cents, currency, created_at, updated_at FROM wallets WHERE user_id = $1 FOR UPDATE")).
		WithArgs(20).
		WillReturnRows(walletRows(7, 20, 300))

	mock.ExpectRollback()

	_, err := repo.Charge(ctx, 20, 42, 500, "parking fee")
	require.ErrorIs(t, err, ErrInsufficientBalance)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetTransactions_EmptyWithoutWallet(t *testing.T) {
	repo, mock, close := setupWalletMock(t)
	defer close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM wallets WHERE user_id = $1")).
		WithArgs(99).
		WillReturnError(sql.ErrNoRows)

	txs, err := repo.GetTransactions(context.Background(), 99, 50, 0)
	require.NoError(t, err)
	require.Empty(t, txs)
}

func TestGetTransactions_ReturnsNewestFirst(t *testing.T) {
	repo, mock, close := setupWalletMock(t)
	defer close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM wallets WHERE user_id = $1")).
		WithArgs(20).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	mock.ExpectQuery(regexp.QuoteMeta("FROM wallet_transactions WHERE wallet_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3")).
		WithArgs(7, 50, 0).
		WillReturnRows(sqlmock.NewRows(transactionColumns()).
			AddRow(2, 7, "payment", -500, "parking fee", 1500, 42, nil, nil, time.Now()).
			AddRow(1, 7, "topup", 2000, "wallet top-up", 2000, nil, "card", nil, time.Now()))

	txs, err := repo.GetTransactions(context.Background(), 20, 0, 0)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	require.Equal(t, TypePayment, txs[0].Type)
	require.Equal(t, TypeTopUp, txs[1].Type)
}

func TestReconcile_ReportsDrift(t *testing.T) {
	repo, mock, close := setupWalletMock(t)
	defer close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT w.user_id, w.balance_cents, COALESCE(SUM(t.amount_cents), 0) AS ledger_cents")).
		WithArgs(20).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "balance_cents", "ledger_cents"}).
			AddRow(20, 1500, 1400))

	res, err := repo.Reconcile(context.Background(), 20)
	require.NoError(t, err)
	require.False(t, res.Consistent)
	require.Equal(t, int64(1500), res.BalanceCents)
	require.Equal(t, int64(1400), res.LedgerCents)
}

func TestReconcile_WalletNotFound(t *testing.T) {
	repo, mock, close := setupWalletMock(t)
	defer close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT w.user_id, w.balance_cents")).
		WithArgs(99).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Reconcile(context.Background(), 99)
	require.Equal(t, ErrWalletNotFound, err)
}
