package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/payment-checkout/internal/interfaces"
	"github.com/akylbek/payment-system/payment-checkout/internal/metrics"
	"github.com/akylbek/payment-system/payment-checkout/internal/models"
	"github.com/akylbek/payment-system/payment-checkout/internal/telemetry"
)

var (
	ErrInvalidAmount = errors.New("invalid payment amount")
	ErrMissingToken  = errors.New("missing payment token")
	ErrTokenUsed     = errors.New("payment token already used")
)

// ChargeService is the backend behind POST /api/payment. It accepts only
// the configured amount, spends each token at most once and leaves the
// approval decision to the gateway.
type ChargeService struct {
	amount    int64
	currency  string
	gateway   interfaces.GatewayCharger
	ledger    interfaces.TokenLedger
	repo      interfaces.ChargeRepository
	publisher interfaces.EventPublisher
}

func NewChargeService(
	amount int64,
	currency string,
	gateway interfaces.GatewayCharger,
	ledger interfaces.TokenLedger,
	repo interfaces.ChargeRepository,
	publisher interfaces.EventPublisher,
) *ChargeService {
	return &ChargeService{
		amount:    amount,
		currency:  currency,
		gateway:   gateway,
		ledger:    ledger,
		repo:      repo,
		publisher: publisher,
	}
}

// Charge returns the stored record of a completed charge. A declined card
// yields both the record and a *models.CardDeclinedError; gateway and
// ledger outages yield an error wrapping models.ErrTransport and no record.
func (s *ChargeService) Charge(ctx context.Context, req models.PaymentRequest) (*models.ChargeRecord, error) {
	ctx, span := telemetry.Tracer.Start(ctx, "payment.charge")
	defer span.End()

	if req.Amount != s.amount {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidAmount, req.Amount, s.amount)
	}
	if req.Token == "" {
		return nil, ErrMissingToken
	}

	claimed, err := s.ledger.Claim(ctx, req.Token)
	if err != nil {
		telemetry.Logger.Error("Token ledger unavailable", zap.Error(err))
		metrics.ChargesTotal.WithLabelValues("error").Inc()
		return nil, models.NewTransportError(err.Error())
	}
	if !claimed {
		return nil, ErrTokenUsed
	}

	outcome, err := s.gateway.CreateCharge(ctx, s.amount, s.currency, req.Token)

	var declined *models.CardDeclinedError
	if err != nil && !errors.As(err, &declined) {
		span.RecordError(err)
		telemetry.Logger.Error("Gateway charge failed", zap.Error(err))
		metrics.ChargesTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	if declined == nil && outcome == nil {
		metrics.ChargesTotal.WithLabelValues("error").Inc()
		return nil, models.NewTransportError("gateway returned no charge")
	}

	record := &models.ChargeRecord{
		ID:        uuid.NewString(),
		Amount:    s.amount,
		Currency:  s.currency,
		CreatedAt: time.Now().UTC(),
	}
	if declined != nil {
		record.Status = models.ChargeFailed
		record.Detail = declined.Message
	} else {
		record.Status = outcome.Status
		record.Detail = outcome.Detail
		record.GatewayChargeID = outcome.ChargeID
	}

	s.complete(ctx, record)
	return record, err
}

// complete persists and announces a finished charge. Neither step can
// change the answer given to the caller.
func (s *ChargeService) complete(ctx context.Context, record *models.ChargeRecord) {
	metrics.ChargesTotal.WithLabelValues(string(record.Status)).Inc()

	if err := s.repo.InsertCharge(ctx, record); err != nil {
		telemetry.Logger.Error("Failed to record charge",
			zap.String("charge_id", record.ID),
			zap.Error(err),
		)
	}

	event := models.ChargeEvent{
		ChargeID:  record.ID,
		Amount:    record.Amount,
		Currency:  record.Currency,
		Status:    record.Status,
		Detail:    record.Detail,
		CreatedAt: record.CreatedAt,
	}
	if err := s.publisher.PublishChargeCompleted(ctx, event); err != nil {
		telemetry.Logger.Error("Failed to publish charge event",
			zap.String("charge_id", record.ID),
			zap.Error(err),
		)
	}

	telemetry.Logger.Info("Charge completed",
		zap.String("charge_id", record.ID),
		zap.String("gateway_charge_id", record.GatewayChargeID),
		zap.String("status", string(record.Status)),
	)
}

func (s *ChargeService) GetCharge(ctx context.Context, chargeID string) (*models.ChargeRecord, error) {
	return s.repo.GetByID(ctx, chargeID)
}
