package interfaces

import (
	"context"

	"github.com/akylbek/payment-system/payment-checkout/internal/models"
)

// ChargeRepository defines the contract for charge record data access
type ChargeRepository interface {
	InsertCharge(ctx context.Context, record *models.ChargeRecord) error
	GetByID(ctx context.Context, chargeID string) (*models.ChargeRecord, error)
}

// TokenLedger remembers which payment tokens were already spent.
// Claim returns false when the token was claimed before.
type TokenLedger interface {
	Claim(ctx context.Context, token models.Token) (bool, error)
}

type EventPublisher interface {
	PublishChargeCompleted(ctx context.Context, event models.ChargeEvent) error
}
