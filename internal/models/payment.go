package models

import "time"

type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseTokenizing Phase = "tokenizing"
	PhaseSubmitting Phase = "submitting"
	PhaseSucceeded  Phase = "succeeded"
	PhaseFailed     Phase = "failed"
)

// MessageSucceeded is shown to the user once the charge went through.
const MessageSucceeded = "Payment Successful!"

// WorkflowState is the checkout state owned by a submission controller.
// Reason is only set in the failed phase.
type WorkflowState struct {
	Phase  Phase
	Reason string
}

func Idle() WorkflowState { return WorkflowState{Phase: PhaseIdle} }

func Failed(reason string) WorkflowState {
	return WorkflowState{Phase: PhaseFailed, Reason: reason}
}

func Succeeded() WorkflowState { return WorkflowState{Phase: PhaseSucceeded} }

// Busy reports whether an attempt is in flight.
func (s WorkflowState) Busy() bool {
	return s.Phase == PhaseTokenizing || s.Phase == PhaseSubmitting
}

func (s WorkflowState) Terminal() bool {
	return s.Phase == PhaseSucceeded || s.Phase == PhaseFailed
}

// Message is the single user-visible status line for the state.
func (s WorkflowState) Message() string {
	switch s.Phase {
	case PhaseSucceeded:
		return MessageSucceeded
	case PhaseFailed:
		return s.Reason
	}
	return ""
}

func (s WorkflowState) String() string {
	if s.Reason != "" {
		return string(s.Phase) + "(" + s.Reason + ")"
	}
	return string(s.Phase)
}

// Token is the opaque single-use reference issued by the payment gateway.
type Token string

// CardInput is raw card data captured by the checkout form. It is only
// ever handed to the tokenizer.
type CardInput struct {
	Number   string `json:"number"`
	ExpMonth int    `json:"exp_month"`
	ExpYear  int    `json:"exp_year"`
	CVC      string `json:"cvc"`
}

// PaymentRequest is the body of POST /api/payment.
type PaymentRequest struct {
	Amount int64 `json:"amount"`
	Token  Token `json:"token"`
}

type ChargeStatus string

const (
	ChargeSucceeded ChargeStatus = "succeeded"
	ChargeFailed    ChargeStatus = "failed"
)

// ChargeOutcome is what the charge endpoint reports for a PaymentRequest.
type ChargeOutcome struct {
	Status   ChargeStatus `json:"status"`
	Detail   string       `json:"detail,omitempty"`
	ChargeID string       `json:"charge_id,omitempty"`
}

// ChargeRecord is the stored audit row of a charge handled by the endpoint.
type ChargeRecord struct {
	ID              string
	Amount          int64
	Currency        string
	Status          ChargeStatus
	Detail          string
	GatewayChargeID string
	CreatedAt       time.Time
}

// ChargeEvent is published once the endpoint finished a charge.
type ChargeEvent struct {
	ChargeID  string       `json:"charge_id"`
	Amount    int64        `json:"amount"`
	Currency  string       `json:"currency"`
	Status    ChargeStatus `json:"status"`
	Detail    string       `json:"detail,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

// StateChange describes one checkout state transition.
type StateChange struct {
	SessionID string    `json:"session_id"`
	From      Phase     `json:"from"`
	To        Phase     `json:"to"`
	Reason    string    `json:"reason,omitempty"`
	At        time.Time `json:"at"`
}
