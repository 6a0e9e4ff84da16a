package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/payment-checkout/internal/models"
	"github.com/akylbek/payment-system/payment-checkout/internal/service"
	"github.com/akylbek/payment-system/payment-checkout/internal/telemetry"
)

const processingLabel = "Processing..."

type CheckoutHandler struct {
	registry *service.SessionRegistry
	currency string
}

func NewCheckoutHandler(registry *service.SessionRegistry, currency string) *CheckoutHandler {
	return &CheckoutHandler{registry: registry, currency: currency}
}

func (h *CheckoutHandler) CreateSession(c *gin.Context) {
	ctrl := h.registry.Create()
	c.JSON(http.StatusCreated, h.sessionView(ctrl, ctrl.State()))
}

func (h *CheckoutHandler) GetSession(c *gin.Context) {
	ctrl, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.sessionView(ctrl, ctrl.State()))
}

func (h *CheckoutHandler) Submit(c *gin.Context) {
	ctrl, ok := h.lookup(c)
	if !ok {
		return
	}

	var card models.CardInput
	if err := c.ShouldBindJSON(&card); err != nil {
		telemetry.Logger.Warn("Error decoding card input",
			zap.String("session_id", ctrl.ID()),
			zap.Error(err),
		)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid card input"})
		return
	}

	state, err := ctrl.Submit(c.Request.Context(), card)
	if errors.Is(err, service.ErrSubmissionInProgress) {
		view := h.sessionView(ctrl, state)
		view["error"] = err.Error()
		c.JSON(http.StatusConflict, view)
		return
	}

	c.JSON(http.StatusOK, h.sessionView(ctrl, state))
}

func (h *CheckoutHandler) Reset(c *gin.Context) {
	ctrl, ok := h.lookup(c)
	if !ok {
		return
	}

	if err := ctrl.Reset(c.Request.Context()); err != nil {
		view := h.sessionView(ctrl, ctrl.State())
		view["error"] = err.Error()
		c.JSON(http.StatusConflict, view)
		return
	}

	c.JSON(http.StatusOK, h.sessionView(ctrl, ctrl.State()))
}

func (h *CheckoutHandler) lookup(c *gin.Context) (*service.SubmissionController, bool) {
	ctrl, err := h.registry.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Checkout session not found"})
		return nil, false
	}
	return ctrl, true
}

func (h *CheckoutHandler) sessionView(ctrl *service.SubmissionController, state models.WorkflowState) gin.H {
	button := models.PayLabel(ctrl.Amount(), h.currency)
	if state.Busy() {
		button = processingLabel
	}
	return gin.H{
		"session_id":     ctrl.ID(),
		"amount":         ctrl.Amount(),
		"amount_display": models.FormatAmount(ctrl.Amount()),
		"currency":       h.currency,
		"state": gin.H{
			"phase":   state.Phase,
			"message": state.Message(),
			"busy":    state.Busy(),
			"success": state.Phase == models.PhaseSucceeded,
			"button":  button,
		},
	}
}
