package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainErrors "github.com/glowmart/loyalty/internal/domain/errors"
	"github.com/glowmart/loyalty/internal/domain/model"
	"github.com/glowmart/loyalty/internal/server/http/dto"
	testhelpers "github.com/glowmart/loyalty/internal/test"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func performRequest(t *testing.T, method, path, target string, handler gin.HandlerFunc, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	router := gin.New()
	router.Handle(method, path, handler)

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestBalanceHandler(t *testing.T) {
	facade := &testhelpers.LoyaltyFacadeStub{
		Account: model.Account{ID: "acc-1", Balance: 3000, Tier: model.TierSilver, TotalEarned: 4000, TotalRedeemed: 1000},
		Status:  model.ClassifyTier(3000),
	}
	resp := performRequest(t, http.MethodGet, "/balance", "/balance", NewLoyaltyHandler(facade).Balance, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}

	var body dto.BalanceResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.AccountID != "acc-1" || body.Balance != 3000 || body.Tier != "silver" {
		t.Fatalf("unexpected body %+v", body)
	}
	if body.PointsToNext != 2000 {
		t.Fatalf("expected 2000 points to gold, got %d", body.PointsToNext)
	}
}

func TestTiersHandler(t *testing.T) {
	resp := performRequest(t, http.MethodGet, "/tiers", "/tiers", NewLoyaltyHandler(&testhelpers.LoyaltyFacadeStub{}).Tiers, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}

	var body []dto.TierResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if len(body) != 5 {
		t.Fatalf("expected 5 tiers, got %d", len(body))
	}
	if body[0].Name != "bronze" || body[4].Name != "diamond" {
		t.Fatalf("unexpected tier order %+v", body)
	}
	if body[4].MinPoints != 50000 {
		t.Fatalf("unexpected diamond threshold %d", body[4].MinPoints)
	}
}

func TestTransactionsHandler(t *testing.T) {
	t.Run("empty history", func(t *testing.T) {
		resp := performRequest(t, http.MethodGet, "/transactions", "/transactions", NewLoyaltyHandler(&testhelpers.LoyaltyFacadeStub{}).Transactions, nil)
		if resp.Code != http.StatusNoContent {
			t.Fatalf("expected status 204, got %d", resp.Code)
		}
	})

	t.Run("newest first", func(t *testing.T) {
		facade := &testhelpers.LoyaltyFacadeStub{
			Txs: []model.Transaction{
				{ID: uuid.Must(uuid.NewV7()), Type: model.TransactionEarned, Points: 100, Reason: "first", ResultingBalance: 100, CreatedAt: time.Now().Add(-time.Hour)},
				{ID: uuid.Must(uuid.NewV7()), Type: model.TransactionEarned, Points: 200, Reason: "second", ResultingBalance: 300, CreatedAt: time.Now()},
			},
		}
		resp := performRequest(t, http.MethodGet, "/transactions", "/transactions", NewLoyaltyHandler(facade).Transactions, nil)
		if resp.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", resp.Code)
		}

		var body []dto.TransactionResponse
		if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		if len(body) != 2 || body[0].Reason != "second" || body[1].Reason != "first" {
			t.Fatalf("expected newest first, got %+v", body)
		}
	})
}

func TestRedeemHandler(t *testing.T) {
	body, _ := json.Marshal(dto.RedeemRequest{Cost: 300, Reason: "voucher"})

	t.Run("success", func(t *testing.T) {
		facade := &testhelpers.LoyaltyFacadeStub{
			RedeemFn: func(ctx context.Context, cost int64, reason string) (*model.Transaction, error) {
				if cost != 300 || reason != "voucher" {
					t.Fatalf("unexpected request passed to facade: %d %q", cost, reason)
				}
				tx := model.Transaction{ID: uuid.Must(uuid.NewV7()), Type: model.TransactionRedeemed, Points: -300, Reason: reason, ResultingBalance: 700}
				return &tx, nil
			},
		}
		resp := performRequest(t, http.MethodPost, "/redeem", "/redeem", NewLoyaltyHandler(facade).Redeem, body)
		if resp.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", resp.Code)
		}
		var tx dto.TransactionResponse
		if err := json.Unmarshal(resp.Body.Bytes(), &tx); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		if tx.Points != -300 || tx.ResultingBalance != 700 {
			t.Fatalf("unexpected transaction %+v", tx)
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		resp := performRequest(t, http.MethodPost, "/redeem", "/redeem", NewLoyaltyHandler(&testhelpers.LoyaltyFacadeStub{}).Redeem, []byte("{"))
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", resp.Code)
		}
	})

	errCases := []struct {
		name string
		err  error
		code int
	}{
		{"invalid amount", domainErrors.ErrInvalidAmount, http.StatusUnprocessableEntity},
		{"empty reason", domainErrors.ErrEmptyReason, http.StatusUnprocessableEntity},
		{"insufficient points", domainErrors.ErrInsufficientPoints, http.StatusPaymentRequired},
		{"downgrade blocked", domainErrors.ErrTierDowngradeBlocked, http.StatusConflict},
		{"internal", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range errCases {
		t.Run(tc.name, func(t *testing.T) {
			facade := &testhelpers.LoyaltyFacadeStub{
				RedeemFn: func(context.Context, int64, string) (*model.Transaction, error) { return nil, tc.err },
			}
			resp := performRequest(t, http.MethodPost, "/redeem", "/redeem", NewLoyaltyHandler(facade).Redeem, body)
			if resp.Code != tc.code {
				t.Fatalf("expected status %d, got %d", tc.code, resp.Code)
			}
		})
	}
}

func TestCompensateHandler(t *testing.T) {
	originalID := uuid.Must(uuid.NewV7())

	t.Run("success", func(t *testing.T) {
		facade := &testhelpers.LoyaltyFacadeStub{
			CompensateFn: func(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
				if id != originalID {
					t.Fatalf("unexpected id passed to facade: %s", id)
				}
				tx := model.Transaction{ID: uuid.Must(uuid.NewV7()), Type: model.TransactionAdjusted, Points: 300, RefID: &originalID}
				return &tx, nil
			},
		}
		resp := performRequest(t, http.MethodPost, "/redeem/:id/compensate", "/redeem/"+originalID.String()+"/compensate", NewLoyaltyHandler(facade).Compensate, nil)
		if resp.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", resp.Code)
		}
		var tx dto.TransactionResponse
		if err := json.Unmarshal(resp.Body.Bytes(), &tx); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		if tx.RefID != originalID.String() {
			t.Fatalf("expected ref id %s, got %q", originalID, tx.RefID)
		}
	})

	t.Run("bad id", func(t *testing.T) {
		resp := performRequest(t, http.MethodPost, "/redeem/:id/compensate", "/redeem/not-a-uuid/compensate", NewLoyaltyHandler(&testhelpers.LoyaltyFacadeStub{}).Compensate, nil)
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", resp.Code)
		}
	})

	errCases := []struct {
		name string
		err  error
		code int
	}{
		{"unknown transaction", domainErrors.ErrNotFound, http.StatusNotFound},
		{"not compensatable", domainErrors.ErrInvalidCompensation, http.StatusConflict},
		{"already compensated", domainErrors.ErrDuplicateCompensation, http.StatusConflict},
		{"internal", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range errCases {
		t.Run(tc.name, func(t *testing.T) {
			facade := &testhelpers.LoyaltyFacadeStub{
				CompensateFn: func(context.Context, uuid.UUID) (*model.Transaction, error) { return nil, tc.err },
			}
			resp := performRequest(t, http.MethodPost, "/redeem/:id/compensate", "/redeem/"+originalID.String()+"/compensate", NewLoyaltyHandler(facade).Compensate, nil)
			if resp.Code != tc.code {
				t.Fatalf("expected status %d, got %d", tc.code, resp.Code)
			}
		})
	}
}

func TestHealthHandler(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		facade := &testhelpers.LoyaltyFacadeStub{ChannelUp: true, PendingJobs: 2}
		resp := performRequest(t, http.MethodGet, "/healthz", "/healthz", NewLoyaltyHandler(facade).Health, nil)
		if resp.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", resp.Code)
		}
		var body dto.HealthResponse
		if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		if body.Database != "ok" || body.Channel != "connected" || body.PendingActivations != 2 {
			t.Fatalf("unexpected body %+v", body)
		}
	})

	t.Run("database down", func(t *testing.T) {
		facade := &testhelpers.LoyaltyFacadeStub{HealthErr: errors.New("pg down"), ChannelUp: true}
		resp := performRequest(t, http.MethodGet, "/healthz", "/healthz", NewLoyaltyHandler(facade).Health, nil)
		if resp.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected status 503, got %d", resp.Code)
		}
	})

	t.Run("channel down is not fatal", func(t *testing.T) {
		facade := &testhelpers.LoyaltyFacadeStub{ChannelUp: false}
		resp := performRequest(t, http.MethodGet, "/healthz", "/healthz", NewLoyaltyHandler(facade).Health, nil)
		if resp.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", resp.Code)
		}
		var body dto.HealthResponse
		if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		if body.Channel != "disconnected" {
			t.Fatalf("expected disconnected channel, got %q", body.Channel)
		}
	})
}
