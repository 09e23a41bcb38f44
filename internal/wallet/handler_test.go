package wallet

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockWalletRepo struct{ mock.Mock }

func (m *MockWalletRepo) GetOrCreateWallet(ctx context.Context, userID int) (*Wallet, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Wallet), args.Error(1)
}

func (m *MockWalletRepo) TopUp(ctx context.Context, userID int, amountCents int64, paymentMethod, referenceID string) (*Transaction, error) {
	args := m.Called(ctx, userID, amountCents, paymentMethod, referenceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Transaction), args.Error(1)
}

func (m *MockWalletRepo) Charge(ctx context.Context, userID, sessionID int, amountCents int64, description string) (*Transaction, error) {
	args := m.Called(ctx, userID, sessionID, amountCents, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Transaction), args.Error(1)
}

func (m *MockWalletRepo) Refund(ctx context.Context, userID, sessionID int, amountCents int64, description string) (*Transaction, error) {
	args := m.Called(ctx, userID, sessionID, amountCents, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Transaction), args.Error(1)
}

func (m *MockWalletRepo) GetTransactions(ctx context.Context, userID int, limit, offset int) ([]Transaction, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Transaction), args.Error(1)
}

func (m *MockWalletRepo) Reconcile(ctx context.Context, userID int) (*ReconcileResult, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ReconcileResult), args.Error(1)
}

func walletTestContext(t *testing.T, method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set("user_id", 20)
	return c, rec
}

func TestHandler_TopUp(t *testing.T) {
	t.Run("Successful top-up", func(t *testing.T) {
		repo := new(MockWalletRepo)
		repo.On("TopUp", mock.Anything, 20, int64(2000), "card", mock.MatchedBy(func(ref string) bool { return ref != "" })).
			Return(&Transaction{ID: 1, Type: TypeTopUp, AmountCents: 2000, BalanceAfter: 2000}, nil)

		h := &Handler{repo: repo}
		c, rec := walletTestContext(t, http.MethodPost, "/wallet/topup",
			[]byte(`{"amount_cents":2000,"payment_method":"card"}`))

		h.TopUp(c)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "wallet recharged")
		repo.AssertExpectations(t)
	})

	t.Run("Non-positive amount is rejected by binding", func(t *testing.T) {
		repo := new(MockWalletRepo)
		h := &Handler{repo: repo}
		c, rec := walletTestContext(t, http.MethodPost, "/wallet/topup",
			[]byte(`{"amount_cents":0,"payment_method":"card"}`))

		h.TopUp(c)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		repo.AssertNotCalled(t, "TopUp", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Repository validation error maps to 400", func(t *testing.T) {
		repo := new(MockWalletRepo)
		repo.On("TopUp", mock.Anything, 20, int64(-100), "card", mock.AnythingOfType("string")).
			Return(nil, ErrInvalidAmount)

		h := &Handler{repo: repo}
		c, rec := walletTestContext(t, http.MethodPost, "/wallet/topup",
			[]byte(`{"amount_cents":-100,"payment_method":"card"}`))

		h.TopUp(c)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandler_GetBalance(t *testing.T) {
	repo := new(MockWalletRepo)
	repo.On("GetOrCreateWallet", mock.Anything, 20).
		Return(&Wallet{ID: 7, UserID: 20, BalanceCents: 1500, Currency: "MYR"}, nil)

	h := &Handler{repo: repo}
	c, rec := walletTestContext(t, http.MethodGet, "/wallet", nil)

	h.GetBalance(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"balance_cents":1500`)
}

func TestHandler_ListTransactions(t *testing.T) {
	repo := new(MockWalletRepo)
	repo.On("GetTransactions", mock.Anything, 20, 50, 0).
		Return([]Transaction{
			{ID: 2, Type: TypePayment, AmountCents: -500, BalanceAfter: 1500},
			{ID: 1, Type: TypeTopUp, AmountCents: 2000, BalanceAfter: 2000},
		}, nil)

	h := &Handler{repo: repo}
	c, rec := walletTestContext(t, http.MethodGet, "/wallet/transactions", nil)

	h.ListTransactions(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"payment"`)
	assert.Contains(t, rec.Body.String(), `"topup"`)
}
