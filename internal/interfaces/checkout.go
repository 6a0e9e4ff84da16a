package interfaces

import (
	"context"

	"github.com/akylbek/payment-system/payment-checkout/internal/models"
)

// Tokenizer exchanges raw card input for a single-use payment token.
type Tokenizer interface {
	Ready() bool
	Tokenize(ctx context.Context, card models.CardInput) (models.Token, error)
}

// ChargeEndpoint submits a PaymentRequest to the backend that charges the card.
type ChargeEndpoint interface {
	Charge(ctx context.Context, req models.PaymentRequest) (*models.ChargeOutcome, error)
}

// GatewayCharger is the backend side of the gateway: it turns a token into a charge.
type GatewayCharger interface {
	CreateCharge(ctx context.Context, amount int64, currency string, source models.Token) (*models.ChargeOutcome, error)
}

type StateObserver interface {
	StateChanged(ctx context.Context, change models.StateChange)
}
