package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/akylbek/payment-system/payment-checkout/internal/config"
	"github.com/akylbek/payment-system/payment-checkout/internal/models"
	"github.com/akylbek/payment-system/payment-checkout/internal/telemetry"
)

const defaultProbeInterval = 500 * time.Millisecond

// Client talks to the card gateway. The token API is used with the public
// key, the charges API with the secret key.
//
// A Client is created once per process. It is not ready until Start has
// reached the gateway at least once.
type Client struct {
	baseURL    string
	publicKey  string
	secretKey  string
	timeout    time.Duration
	httpClient *http.Client

	ProbeInterval time.Duration

	ready    atomic.Bool
	stopOnce sync.Once
	stop     chan struct{}
}

func New(cfg *config.Config) *Client {
	timeout := cfg.GatewayTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:       strings.TrimRight(cfg.GatewayURL, "/"),
		publicKey:     cfg.GatewayPublicKey,
		secretKey:     cfg.GatewaySecretKey,
		timeout:       timeout,
		httpClient:    &http.Client{},
		ProbeInterval: defaultProbeInterval,
		stop:          make(chan struct{}),
	}
}

// Start loads the gateway in the background: the base URL is probed until
// it answers, after which the client reports ready.
func (c *Client) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(c.ProbeInterval)
		defer ticker.Stop()

		for {
			if c.probe(ctx) {
				c.ready.Store(true)
				telemetry.Logger.Info("Payment gateway loaded", zap.String("gateway_url", c.baseURL))
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-c.stop:
				return
			case <-ticker.C:
			}
		}
	}()
}

func (c *Client) probe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		telemetry.Logger.Debug("Payment gateway not reachable yet", zap.Error(err))
		return false
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return true
}

func (c *Client) Ready() bool {
	return c.ready.Load()
}

// Close stops a pending probe and marks the client not ready.
func (c *Client) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
	c.ready.Store(false)
}

type tokenResponse struct {
	ID string `json:"id"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Tokenize exchanges card input for a single-use token.
func (c *Client) Tokenize(ctx context.Context, card models.CardInput) (models.Token, error) {
	if !c.Ready() {
		return "", models.ErrGatewayNotReady
	}

	form := url.Values{}
	form.Set("card[number]", card.Number)
	form.Set("card[exp_month]", strconv.Itoa(card.ExpMonth))
	form.Set("card[exp_year]", strconv.Itoa(card.ExpYear))
	form.Set("card[cvc]", card.CVC)

	status, body, err := c.postForm(ctx, "/v1/tokens", c.publicKey, form)
	if err != nil {
		return "", err
	}

	switch {
	case status == http.StatusOK:
		var tok tokenResponse
		if err := json.Unmarshal(body, &tok); err != nil || tok.ID == "" {
			return "", models.NewTransportError("malformed token response")
		}
		return models.Token(tok.ID), nil
	case status >= 400 && status < 500:
		if msg := gatewayMessage(body); msg != "" {
			return "", &models.TokenizationError{Message: msg}
		}
	}
	return "", models.NewTransportError(fmt.Sprintf("token API returned %d", status))
}

type chargeResponse struct {
	ID             string `json:"id"`
	Status         string `json:"status"`
	FailureMessage string `json:"failure_message"`
}

// CreateCharge charges amount against a token previously issued by Tokenize.
func (c *Client) CreateCharge(ctx context.Context, amount int64, currency string, source models.Token) (*models.ChargeOutcome, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amount, 10))
	form.Set("currency", currency)
	form.Set("source", string(source))

	status, body, err := c.postForm(ctx, "/v1/charges", c.secretKey, form)
	if err != nil {
		return nil, err
	}

	switch status {
	case http.StatusOK:
		var ch chargeResponse
		if err := json.Unmarshal(body, &ch); err != nil {
			return nil, models.NewTransportError("malformed charge response")
		}
		return &models.ChargeOutcome{
			Status:   models.ChargeStatus(ch.Status),
			Detail:   ch.FailureMessage,
			ChargeID: ch.ID,
		}, nil
	case http.StatusPaymentRequired:
		msg := gatewayMessage(body)
		if msg == "" {
			msg = "Your card was declined."
		}
		return nil, &models.CardDeclinedError{Message: msg}
	}
	return nil, models.NewTransportError(fmt.Sprintf("charges API returned %d", status))
}

func (c *Client) postForm(ctx context.Context, path, key string, form url.Values) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return 0, nil, models.NewTransportError(err.Error())
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(key, "")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, models.NewTransportError(err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, models.NewTransportError(err.Error())
	}
	return resp.StatusCode, body, nil
}

func gatewayMessage(body []byte) string {
	var e errorResponse
	if err := json.Unmarshal(body, &e); err != nil {
		return ""
	}
	return e.Error.Message
}
