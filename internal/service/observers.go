package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/akylbek/payment-system/payment-checkout/internal/interfaces"
	"github.com/akylbek/payment-system/payment-checkout/internal/models"
	"github.com/akylbek/payment-system/payment-checkout/internal/telemetry"
)

// Observers fans a state change out to every observer in order.
type Observers []interfaces.StateObserver

func (o Observers) StateChanged(ctx context.Context, change models.StateChange) {
	for _, obs := range o {
		obs.StateChanged(ctx, change)
	}
}

// LogObserver writes every checkout state transition to the service log.
type LogObserver struct{}

func (LogObserver) StateChanged(_ context.Context, change models.StateChange) {
	fields := []zap.Field{
		zap.String("session_id", change.SessionID),
		zap.String("from_state", string(change.From)),
		zap.String("to_state", string(change.To)),
	}
	if change.Reason != "" {
		fields = append(fields, zap.String("reason", change.Reason))
	}
	telemetry.Logger.Info("Checkout state transition", fields...)
}
