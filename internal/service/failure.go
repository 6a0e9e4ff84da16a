package service

import (
	"errors"

	"github.com/akylbek/payment-system/payment-checkout/internal/models"
)

const (
	MessageGatewayNotReady = "Payment gateway has not loaded yet."
	MessagePaymentError    = "Payment error."
	MessagePaymentFailed   = "Payment failed."
)

var ErrSubmissionInProgress = errors.New("payment already in progress")

// FailureReason maps an error from a submission attempt to the message the
// user sees. Anything unrecognized is reported as a generic payment error.
func FailureReason(err error) string {
	var tokErr *models.TokenizationError
	var srvErr *models.ServerReportedError

	switch {
	case errors.Is(err, models.ErrGatewayNotReady):
		return MessageGatewayNotReady
	case errors.As(err, &tokErr) && tokErr.Message != "":
		return tokErr.Message
	case errors.As(err, &srvErr) && srvErr.Message != "":
		return srvErr.Message
	case errors.Is(err, models.ErrChargeNotSucceeded):
		return MessagePaymentFailed
	}
	return MessagePaymentError
}
