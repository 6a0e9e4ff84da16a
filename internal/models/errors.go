package models

import (
	"errors"
	"fmt"
)

var (
	ErrGatewayNotReady    = errors.New("payment gateway not ready")
	ErrTransport          = errors.New("transport error")
	ErrChargeNotSucceeded = errors.New("charge not succeeded")
)

func NewTransportError(details string) error {
	return fmt.Errorf("%w: %s", ErrTransport, details)
}

// TokenizationError is returned when the gateway rejects card input.
type TokenizationError struct {
	Message string
}

func (e *TokenizationError) Error() string {
	return "tokenization failed: " + e.Message
}

// ServerReportedError carries the message from a charge endpoint error body.
type ServerReportedError struct {
	StatusCode int
	Message    string
}

func (e *ServerReportedError) Error() string {
	return fmt.Sprintf("charge endpoint returned %d: %s", e.StatusCode, e.Message)
}

// CardDeclinedError is returned by the gateway charges API when it refuses a charge.
type CardDeclinedError struct {
	Message string
}

func (e *CardDeclinedError) Error() string {
	return "card declined: " + e.Message
}
