package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bank-transfer-saga/internal/adapter/http/dto"
	"bank-transfer-saga/internal/core/domain"
	"bank-transfer-saga/internal/core/ports"
	"bank-transfer-saga/internal/core/ports/mocks"
	"bank-transfer-saga/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func pln(amount int64) domain.Money {
	return domain.MustMoney(domain.PLN, amount)
}

func testView(id string, balance, blocked int64) *ports.AccountView {
	return &ports.AccountView{
		ID:        domain.AccountID(id),
		Currency:  domain.PLN,
		Balance:   pln(balance),
		Blocked:   pln(blocked),
		Available: pln(balance - blocked),
	}
}

func newMockRouter(bankSvc ports.BankService, authSvc ports.AuthService) *gin.Engine {
	return SetupRouter(RouterDeps{
		BankSvc:      bankSvc,
		AuthSvc:      authSvc,
		MaxBodyBytes: 1 << 10,
		Logger:       zerolog.Nop(),
	})
}

func serve(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data, ok := resp["data"].(map[string]interface{})
	require.True(t, ok, "response has no data object: %s", w.Body.String())
	return data
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp errorEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.ErrorCode
}

type errorEnvelope struct {
	ErrorCode string `json:"error_code"`
	RequestID string `json:"request_id"`
}

// --- Auth ---

func TestToken_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockAuth := mocks.NewMockAuthService(ctrl)

	expiry := time.Now().Add(time.Hour)
	mockAuth.EXPECT().Login(gomock.Any(), "admin", "s3cret").Return("jwt-token", expiry, nil)

	w := serve(newMockRouter(mocks.NewMockBankService(ctrl), mockAuth), http.MethodPost, "/api/v1/auth/token",
		dto.TokenRequest{Username: " admin ", Key: "s3cret"})

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, "jwt-token", data["token"])
	assert.Equal(t, float64(expiry.Unix()), data["expiry"])
}

func TestToken_InvalidCredentials(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockAuth := mocks.NewMockAuthService(ctrl)
	mockAuth.EXPECT().Login(gomock.Any(), "admin", "wrong").Return("", time.Time{}, apperror.ErrInvalidCredentials())

	w := serve(newMockRouter(mocks.NewMockBankService(ctrl), mockAuth), http.MethodPost, "/api/v1/auth/token",
		dto.TokenRequest{Username: "admin", Key: "wrong"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "AUTH_001", errorCode(t, w))
}

func TestToken_ValidationError(t *testing.T) {
	ctrl := gomock.NewController(t)
	w := serve(newMockRouter(mocks.NewMockBankService(ctrl), mocks.NewMockAuthService(ctrl)),
		http.MethodPost, "/api/v1/auth/token", "{}")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "REQ_001", errorCode(t, w))
}

func TestToken_RouteAbsentWithoutAuthService(t *testing.T) {
	ctrl := gomock.NewController(t)
	w := serve(newMockRouter(mocks.NewMockBankService(ctrl), nil), http.MethodPost, "/api/v1/auth/token", "{}")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// --- Accounts ---

func TestOpenAccount(t *testing.T) {
	ctrl := gomock.NewController(t)
	bankSvc := mocks.NewMockBankService(ctrl)
	bankSvc.EXPECT().OpenAccount(gomock.Any(), int64(1000)).Return(testView("REV1", 1000, 0), nil)

	w := serve(newMockRouter(bankSvc, nil), http.MethodPost, "/api/v1/accounts", dto.OpenAccountRequest{InitialBalance: 1000})

	assert.Equal(t, http.StatusCreated, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, "REV1", data["account_id"])
	assert.Equal(t, "1000 PLN", data["balance"])
	assert.Equal(t, "0 PLN", data["blocked"])
	assert.Equal(t, float64(1000), data["available_amount"])
}

func TestOpenAccount_EmptyBody(t *testing.T) {
	ctrl := gomock.NewController(t)
	bankSvc := mocks.NewMockBankService(ctrl)
	bankSvc.EXPECT().OpenAccount(gomock.Any(), int64(0)).Return(testView("REV1", 0, 0), nil)

	w := serve(newMockRouter(bankSvc, nil), http.MethodPost, "/api/v1/accounts", nil)

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestOpenAccount_NegativeBalance(t *testing.T) {
	ctrl := gomock.NewController(t)
	w := serve(newMockRouter(mocks.NewMockBankService(ctrl), nil), http.MethodPost, "/api/v1/accounts",
		dto.OpenAccountRequest{InitialBalance: -1})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetAccount(t *testing.T) {
	ctrl := gomock.NewController(t)
	bankSvc := mocks.NewMockBankService(ctrl)
	bankSvc.EXPECT().Account(gomock.Any(), domain.AccountID("REV1")).Return(testView("REV1", 1000, 100), nil)

	w := serve(newMockRouter(bankSvc, nil), http.MethodGet, "/api/v1/accounts/REV1", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, "1000 PLN", data["balance"])
	assert.Equal(t, "100 PLN", data["blocked"])
	assert.Equal(t, float64(900), data["available_amount"])
}

func TestGetAccount_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	bankSvc := mocks.NewMockBankService(ctrl)
	bankSvc.EXPECT().Account(gomock.Any(), domain.AccountID("REV9")).
		Return(nil, apperror.ErrAccountNotFound(domain.ErrAccountNotFound))

	w := serve(newMockRouter(bankSvc, nil), http.MethodGet, "/api/v1/accounts/REV9", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "ACC_001", errorCode(t, w))
}

func TestGetAccount_InvalidID(t *testing.T) {
	ctrl := gomock.NewController(t)
	w := serve(newMockRouter(mocks.NewMockBankService(ctrl), nil), http.MethodGet, "/api/v1/accounts/REV_1", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListAccounts(t *testing.T) {
	ctrl := gomock.NewController(t)
	bankSvc := mocks.NewMockBankService(ctrl)
	bankSvc.EXPECT().Accounts(gomock.Any()).Return([]ports.AccountView{
		*testView("REV1", 1000, 0),
		*testView("REV2", 500, 0),
	}, nil)

	w := serve(newMockRouter(bankSvc, nil), http.MethodGet, "/api/v1/accounts", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data []dto.AccountResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "REV2", resp.Data[1].AccountID)
}

func TestPendingTransfers(t *testing.T) {
	ctrl := gomock.NewController(t)
	bankSvc := mocks.NewMockBankService(ctrl)
	id := uuid.New()
	bankSvc.EXPECT().PendingTransfers(gomock.Any(), domain.AccountID("REV1")).Return([]domain.MoneyTransfer{
		{ID: id, Source: "REV1", Target: "REV2", Amount: pln(100)},
	}, nil)

	w := serve(newMockRouter(bankSvc, nil), http.MethodGet, "/api/v1/accounts/REV1/transfers", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data []dto.PendingTransferResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, id.String(), resp.Data[0].TransferID)
	assert.Equal(t, "REV2", resp.Data[0].TargetAccount)
	assert.Equal(t, "100 PLN", resp.Data[0].Blocked)
}

func TestDeposit(t *testing.T) {
	ctrl := gomock.NewController(t)
	bankSvc := mocks.NewMockBankService(ctrl)
	bankSvc.EXPECT().Deposit(gomock.Any(), domain.AccountID("REV1"), int64(250)).Return(testView("REV1", 1250, 0), nil)

	w := serve(newMockRouter(bankSvc, nil), http.MethodPost, "/api/v1/accounts/REV1/deposits", dto.DepositRequest{Amount: 250})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1250 PLN", decodeData(t, w)["balance"])
}

func TestDeposit_BodyTooLarge(t *testing.T) {
	ctrl := gomock.NewController(t)
	body := `{"amount": 1, "padding": "` + strings.Repeat("x", 2048) + `"}`

	w := serve(newMockRouter(mocks.NewMockBankService(ctrl), nil), http.MethodPost, "/api/v1/accounts/REV1/deposits", body)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, "REQ_002", errorCode(t, w))
}

// --- Transfers ---

func TestRequestTransfer_Accepted(t *testing.T) {
	ctrl := gomock.NewController(t)
	bankSvc := mocks.NewMockBankService(ctrl)
	id := uuid.New()

	bankSvc.EXPECT().RequestTransfer(gomock.Any(), ports.TransferRequest{
		TransferID: id,
		Source:     "REV1",
		Target:     "REV2",
		Amount:     100,
	}).DoAndReturn(func(_ context.Context, req ports.TransferRequest) (*domain.TransferEvent, error) {
		evt := domain.NewFundsBlocked(domain.MoneyTransfer{ID: req.TransferID, Source: req.Source, Target: req.Target, Amount: pln(req.Amount)})
		return &evt, nil
	})

	w := serve(newMockRouter(bankSvc, nil), http.MethodPut, "/api/v1/accounts/REV1/transfers/"+id.String(),
		dto.TransferRequest{TargetAccount: "REV2", Amount: 100})

	assert.Equal(t, http.StatusAccepted, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, id.String(), data["transfer_id"])
	assert.Equal(t, string(domain.EventFundsBlocked), data["status"])
	assert.Equal(t, "PLN", data["currency"])
}

func TestRequestTransfer_InvalidTransferID(t *testing.T) {
	ctrl := gomock.NewController(t)
	w := serve(newMockRouter(mocks.NewMockBankService(ctrl), nil), http.MethodPut, "/api/v1/accounts/REV1/transfers/nope",
		dto.TransferRequest{TargetAccount: "REV2", Amount: 100})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRequestTransfer_ServiceErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"insufficient funds", apperror.ErrInsufficientFunds(domain.ErrInsufficientFunds), http.StatusPaymentRequired, "TRF_001"},
		{"duplicate", apperror.ErrDuplicateTransfer(domain.ErrDuplicateTransfer), http.StatusConflict, "TRF_003"},
		{"same account", apperror.ErrSameAccountTransfer(domain.ErrSameAccountTransfer), http.StatusBadRequest, "TRF_004"},
		{"retry exhausted", apperror.ErrRetryExhausted(domain.ErrRetryExhausted), http.StatusServiceUnavailable, "SYS_002"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "SYS_000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			bankSvc := mocks.NewMockBankService(ctrl)
			bankSvc.EXPECT().RequestTransfer(gomock.Any(), gomock.Any()).Return(nil, tt.err)

			w := serve(newMockRouter(bankSvc, nil), http.MethodPut, "/api/v1/accounts/REV1/transfers/"+uuid.NewString(),
				dto.TransferRequest{TargetAccount: "REV2", Amount: 100})

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, errorCode(t, w))
		})
	}
}

// --- Admin ---

func TestSetSuspension(t *testing.T) {
	ctrl := gomock.NewController(t)
	bankSvc := mocks.NewMockBankService(ctrl)
	gomock.InOrder(
		bankSvc.EXPECT().SetEventSuspension(true),
		bankSvc.EXPECT().EventSuspended().Return(true),
	)
	bankSvc.EXPECT().PendingEvents().Return(3)

	w := serve(newMockRouter(bankSvc, nil), http.MethodPut, "/api/v1/admin/suspension?suspend=true", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, true, data["suspended"])
	assert.Equal(t, float64(3), data["pending_events"])
}

func TestSetSuspension_MissingFlag(t *testing.T) {
	ctrl := gomock.NewController(t)
	w := serve(newMockRouter(mocks.NewMockBankService(ctrl), nil), http.MethodPut, "/api/v1/admin/suspension", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeadLetters(t *testing.T) {
	ctrl := gomock.NewController(t)
	bankSvc := mocks.NewMockBankService(ctrl)
	evt := domain.NewFundsBlocked(domain.MoneyTransfer{ID: uuid.New(), Source: "REV1", Target: "REV9", Amount: pln(10)})
	dl := domain.NewDeadLetter(evt, "funds-blocked", domain.ErrAccountNotFound)
	bankSvc.EXPECT().DeadLetters(gomock.Any()).Return([]domain.DeadLetter{dl}, nil)

	w := serve(newMockRouter(bankSvc, nil), http.MethodGet, "/api/v1/admin/dead-letters", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data []dto.DeadLetterResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "funds-blocked", resp.Data[0].Handler)
	assert.Equal(t, "10 PLN", resp.Data[0].Amount)
	assert.Equal(t, "REV9", resp.Data[0].TargetAccount)
}

func TestAdminRoutesRequireTokenWhenConfigured(t *testing.T) {
	ctrl := gomock.NewController(t)
	tokenSvc := mocks.NewMockTokenService(ctrl)
	router := SetupRouter(RouterDeps{
		BankSvc:  mocks.NewMockBankService(ctrl),
		TokenSvc: tokenSvc,
		Logger:   zerolog.Nop(),
	})

	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/api/v1/accounts"},
		{http.MethodGet, "/api/v1/accounts"},
		{http.MethodPost, "/api/v1/accounts/REV1/deposits"},
		{http.MethodPut, "/api/v1/admin/suspension?suspend=true"},
		{http.MethodGet, "/api/v1/admin/dead-letters"},
	} {
		w := serve(router, tc.method, tc.path, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", tc.method, tc.path)
	}
}

// --- Health ---

type fakeChecker struct {
	name string
	err  error
}

func (f fakeChecker) Ping(context.Context) error { return f.err }
func (f fakeChecker) Name() string               { return f.name }

func TestHealthCheck(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		r := gin.New()
		r.GET("/health", HealthCheck(fakeChecker{name: "postgres"}, fakeChecker{name: "redis"}))

		w := serve(r, http.MethodGet, "/health", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"healthy"`)
	})

	t.Run("degraded", func(t *testing.T) {
		r := gin.New()
		r.GET("/health", HealthCheck(fakeChecker{name: "postgres"}, fakeChecker{name: "redis", err: errors.New("down")}))

		w := serve(r, http.MethodGet, "/health", nil)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), `"degraded"`)
		assert.Contains(t, w.Body.String(), `"error":"down"`)
	})
}
