package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/akylbek/payment-system/payment-checkout/internal/models"
	"github.com/akylbek/payment-system/payment-checkout/internal/telemetry"
)

// ChargeEndpointClient posts payment requests to the backend charge endpoint.
type ChargeEndpointClient struct {
	url        string
	timeout    time.Duration
	httpClient *http.Client
}

func NewChargeEndpointClient(url string, timeout time.Duration, httpClient *http.Client) *ChargeEndpointClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ChargeEndpointClient{url: url, timeout: timeout, httpClient: httpClient}
}

// chargeBody is the charge endpoint's JSON object with each field kept raw,
// so a mistyped field only loses itself.
type chargeBody map[string]json.RawMessage

// str returns the field when it is a JSON string, "" otherwise.
func (b chargeBody) str(key string) string {
	var v string
	if raw, ok := b[key]; ok {
		if err := json.Unmarshal(raw, &v); err != nil {
			return ""
		}
	}
	return v
}

// Charge sends exactly one request. Network failures, timeouts and bodies
// that cannot be interpreted come back wrapped in models.ErrTransport; an
// error string on a non-2xx response becomes a *models.ServerReportedError.
// A 2xx response is returned as is; a status that is not a string comes
// back empty, which the caller treats as not succeeded.
func (c *ChargeEndpointClient) Charge(ctx context.Context, payment models.PaymentRequest) (*models.ChargeOutcome, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := json.Marshal(payment)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payment request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, models.NewTransportError(err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	telemetry.Inject(ctx, req.Header)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		telemetry.Logger.Warn("Charge endpoint unreachable", zap.String("url", c.url), zap.Error(err))
		return nil, models.NewTransportError(err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, models.NewTransportError(err.Error())
	}

	// Only a body that is not a JSON object is malformed.
	var parsed chargeBody
	malformed := json.Unmarshal(body, &parsed) != nil || parsed == nil

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if malformed {
			return nil, models.NewTransportError(fmt.Sprintf("malformed response body (status %d)", resp.StatusCode))
		}
		return &models.ChargeOutcome{
			Status:   models.ChargeStatus(parsed.str("status")),
			Detail:   parsed.str("detail"),
			ChargeID: parsed.str("charge_id"),
		}, nil
	}

	if !malformed {
		if msg := parsed.str("error"); msg != "" {
			return nil, &models.ServerReportedError{StatusCode: resp.StatusCode, Message: msg}
		}
	}
	return nil, models.NewTransportError(fmt.Sprintf("charge endpoint returned %d", resp.StatusCode))
}
