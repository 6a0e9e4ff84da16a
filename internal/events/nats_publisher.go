package events

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/akylbek/payment-system/payment-checkout/internal/models"
	"github.com/akylbek/payment-system/payment-checkout/internal/telemetry"
)

const SubjectStateChanged = "checkout.state.changed"

// Publisher is satisfied by *nats.Conn.
type Publisher interface {
	Publish(subj string, data []byte) error
}

// NatsStateNotifier publishes every checkout state change so other services
// can follow a checkout without polling it.
type NatsStateNotifier struct {
	conn Publisher
}

func NewNatsStateNotifier(conn Publisher) *NatsStateNotifier {
	return &NatsStateNotifier{conn: conn}
}

func (n *NatsStateNotifier) StateChanged(_ context.Context, change models.StateChange) {
	data, err := json.Marshal(change)
	if err != nil {
		telemetry.Logger.Error("Error marshaling state change", zap.Error(err))
		return
	}
	if err := n.conn.Publish(SubjectStateChanged, data); err != nil {
		telemetry.Logger.Warn("Failed to publish state change",
			zap.String("session_id", change.SessionID),
			zap.Error(err),
		)
	}
}
