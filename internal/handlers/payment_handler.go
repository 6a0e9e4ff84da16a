package handlers

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/payment-checkout/internal/models"
	"github.com/akylbek/payment-system/payment-checkout/internal/service"
	"github.com/akylbek/payment-system/payment-checkout/internal/telemetry"
)

// PaymentHandler serves the charge endpoint used by checkout sessions.
type PaymentHandler struct {
	charges *service.ChargeService
}

func NewPaymentHandler(charges *service.ChargeService) *PaymentHandler {
	return &PaymentHandler{charges: charges}
}

func (h *PaymentHandler) Charge(c *gin.Context) {
	var req models.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		telemetry.Logger.Warn("Error decoding payment request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payment request."})
		return
	}

	record, err := h.charges.Charge(c.Request.Context(), req)

	var declined *models.CardDeclinedError
	switch {
	case err == nil:
		body := gin.H{
			"status":    record.Status,
			"charge_id": record.ID,
		}
		if record.Detail != "" {
			body["detail"] = record.Detail
		}
		c.JSON(http.StatusOK, body)
	case errors.As(err, &declined):
		body := gin.H{"status": models.ChargeFailed, "error": declined.Message}
		if record != nil {
			body["charge_id"] = record.ID
		}
		c.JSON(http.StatusPaymentRequired, body)
	case errors.Is(err, service.ErrInvalidAmount):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payment amount."})
	case errors.Is(err, service.ErrMissingToken):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing payment token."})
	case errors.Is(err, service.ErrTokenUsed):
		c.JSON(http.StatusConflict, gin.H{"error": "This payment token has already been used."})
	default:
		telemetry.Logger.Error("Error processing payment", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Payment could not be processed."})
	}
}

func (h *PaymentHandler) GetCharge(c *gin.Context) {
	chargeID := c.Param("id")

	rec, err := h.charges.GetCharge(c.Request.Context(), chargeID)
	if errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Charge not found"})
		return
	}

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch charge"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"charge_id":         rec.ID,
		"amount":            rec.Amount,
		"currency":          rec.Currency,
		"status":            rec.Status,
		"detail":            rec.Detail,
		"gateway_charge_id": rec.GatewayChargeID,
		"created_at":        rec.CreatedAt,
	})
}
