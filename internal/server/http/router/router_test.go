package router

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/glowmart/loyalty/internal/domain/model"
	"github.com/glowmart/loyalty/internal/server/http/dto"
	"github.com/glowmart/loyalty/internal/server/http/handlers"
	testhelpers "github.com/glowmart/loyalty/internal/test"
)

func TestSetupRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	facade := &testhelpers.LoyaltyFacadeStub{
		Account:   model.Account{ID: "acc-1", Balance: 1200, Tier: model.TierSilver},
		Status:    model.ClassifyTier(1200),
		ChannelUp: true,
	}
	engine := Setup(facade, logger)

	req := httptest.NewRequest(http.MethodGet, "/api/loyalty/balance", nil)
	resp := httptest.NewRecorder()
	engine.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200 for balance, got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/loyalty/tiers", nil)
	resp = httptest.NewRecorder()
	engine.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200 for tiers, got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/loyalty/transactions", nil)
	resp = httptest.NewRecorder()
	engine.ServeHTTP(resp, req)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected status 204 for empty history, got %d", resp.Code)
	}

	body, _ := json.Marshal(dto.RedeemRequest{Cost: 100, Reason: "voucher"})
	req = httptest.NewRequest(http.MethodPost, "/api/loyalty/redeem", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp = httptest.NewRecorder()
	engine.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200 for redeem, got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp = httptest.NewRecorder()
	engine.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200 for healthz, got %d", resp.Code)
	}
}

func TestSetupAcceptsGzippedRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	engine := Setup(&testhelpers.LoyaltyFacadeStub{}, logger)

	payload, _ := json.Marshal(dto.RedeemRequest{Cost: 100, Reason: "voucher"})
	var compressed bytes.Buffer
	zw := gzip.NewWriter(&compressed)
	if _, err := zw.Write(payload); err != nil {
		t.Fatalf("failed to compress body: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to close gzip writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/loyalty/redeem", &compressed)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Content-Encoding", "gzip")
	resp := httptest.NewRecorder()
	engine.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200 for gzipped redeem, got %d", resp.Code)
	}
}

var _ handlers.LoyaltyFacade = (*testhelpers.LoyaltyFacadeStub)(nil)
