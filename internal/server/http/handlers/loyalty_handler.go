package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainErrors "github.com/glowmart/loyalty/internal/domain/errors"
	"github.com/glowmart/loyalty/internal/domain/model"
	"github.com/glowmart/loyalty/internal/server/http/dto"
)

// LoyaltyHandler serves balance, tier, and history reads plus redemption
// operations.
type LoyaltyHandler struct {
	facade LoyaltyFacade
}

// NewLoyaltyHandler constructs LoyaltyHandler.
func NewLoyaltyHandler(facade LoyaltyFacade) *LoyaltyHandler {
	return &LoyaltyHandler{facade: facade}
}

// Balance handles GET /api/loyalty/balance.
func (h *LoyaltyHandler) Balance(c *gin.Context) {
	account, status := h.facade.Balance()
	c.JSON(http.StatusOK, dto.BalanceResponse{
		AccountID:       account.ID,
		Balance:         account.Balance,
		Tier:            string(status.Tier.Name),
		ProgressPercent: status.ProgressPercent,
		PointsToNext:    status.PointsToNext,
		TotalEarned:     account.TotalEarned,
		TotalRedeemed:   account.TotalRedeemed,
	})
}

// Tiers handles GET /api/loyalty/tiers.
func (h *LoyaltyHandler) Tiers(c *gin.Context) {
	tiers := h.facade.Tiers()
	resp := make([]dto.TierResponse, 0, len(tiers))
	for _, t := range tiers {
		resp = append(resp, dto.TierResponse{Name: string(t.Name), MinPoints: t.MinPoints, Benefits: t.Benefits})
	}
	c.JSON(http.StatusOK, resp)
}

// Transactions handles GET /api/loyalty/transactions.
func (h *LoyaltyHandler) Transactions(c *gin.Context) {
	transactions := h.facade.Transactions()
	if len(transactions) == 0 {
		c.Status(http.StatusNoContent)
		return
	}

	// Newest first for consumers.
	resp := make([]dto.TransactionResponse, 0, len(transactions))
	for i := len(transactions) - 1; i >= 0; i-- {
		resp = append(resp, transactionResponse(transactions[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// Redeem handles POST /api/loyalty/redeem.
func (h *LoyaltyHandler) Redeem(c *gin.Context) {
	var req dto.RedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	tx, err := h.facade.Redeem(c.Request.Context(), req.Cost, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, domainErrors.ErrInvalidAmount), errors.Is(err, domainErrors.ErrEmptyReason):
			c.Status(http.StatusUnprocessableEntity)
		case errors.Is(err, domainErrors.ErrInsufficientPoints):
			c.Status(http.StatusPaymentRequired)
		case errors.Is(err, domainErrors.ErrTierDowngradeBlocked):
			c.Status(http.StatusConflict)
		default:
			c.Status(http.StatusInternalServerError)
		}
		return
	}

	c.JSON(http.StatusOK, transactionResponse(*tx))
}

// Compensate handles POST /api/loyalty/redeem/:id/compensate. Idempotent
// within the retained history window: a repeated call returns the existing
// compensation with 200. A compensation that has aged out of the window
// yields 409, as does a transaction that cannot be compensated.
func (h *LoyaltyHandler) Compensate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	tx, err := h.facade.Compensate(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, domainErrors.ErrNotFound):
			c.Status(http.StatusNotFound)
		case errors.Is(err, domainErrors.ErrInvalidCompensation), errors.Is(err, domainErrors.ErrDuplicateCompensation):
			c.Status(http.StatusConflict)
		default:
			c.Status(http.StatusInternalServerError)
		}
		return
	}

	c.JSON(http.StatusOK, transactionResponse(*tx))
}

// Health handles GET /healthz.
func (h *LoyaltyHandler) Health(c *gin.Context) {
	resp := dto.HealthResponse{
		Database:           "ok",
		Channel:            "connected",
		PendingActivations: h.facade.PendingActivations(),
	}
	code := http.StatusOK
	if err := h.facade.HealthCheck(c.Request.Context()); err != nil {
		resp.Database = err.Error()
		code = http.StatusServiceUnavailable
	}
	if !h.facade.ChannelConnected() {
		// Disconnection is recoverable; reads still serve local state.
		resp.Channel = "disconnected"
	}
	c.JSON(code, resp)
}

func transactionResponse(tx model.Transaction) dto.TransactionResponse {
	resp := dto.TransactionResponse{
		ID:               tx.ID.String(),
		Type:             string(tx.Type),
		Points:           tx.Points,
		Reason:           tx.Reason,
		OrderID:          tx.OrderID,
		ResultingBalance: tx.ResultingBalance,
		CreatedAt:        tx.CreatedAt,
	}
	if tx.RefID != nil {
		resp.RefID = tx.RefID.String()
	}
	return resp
}
