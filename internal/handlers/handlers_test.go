package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/akylbek/payment-system/payment-checkout/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func doJSON(t *testing.T, r http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

type stubGateway struct {
	outcome *models.ChargeOutcome
	err     error
}

func (g *stubGateway) CreateCharge(ctx context.Context, amount int64, currency string, source models.Token) (*models.ChargeOutcome, error) {
	return g.outcome, g.err
}

type stubLedger struct {
	mu   sync.Mutex
	seen map[models.Token]bool
}

func (l *stubLedger) Claim(ctx context.Context, token models.Token) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.seen == nil {
		l.seen = map[models.Token]bool{}
	}
	if l.seen[token] {
		return false, nil
	}
	l.seen[token] = true
	return true, nil
}

type stubRepo struct {
	mu      sync.Mutex
	records map[string]*models.ChargeRecord
}

func (r *stubRepo) InsertCharge(ctx context.Context, record *models.ChargeRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.records == nil {
		r.records = map[string]*models.ChargeRecord{}
	}
	r.records[record.ID] = record
	return nil
}

func (r *stubRepo) GetByID(ctx context.Context, chargeID string) (*models.ChargeRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.records[chargeID]; ok {
		return rec, nil
	}
	return nil, sql.ErrNoRows
}

type nopPublisher struct{}

func (nopPublisher) PublishChargeCompleted(ctx context.Context, event models.ChargeEvent) error {
	return nil
}

type stubTokenizer struct {
	ready   bool
	token   models.Token
	err     error
	entered chan struct{}
	release chan struct{}
}

func (s *stubTokenizer) Ready() bool { return s.ready }

func (s *stubTokenizer) Tokenize(ctx context.Context, card models.CardInput) (models.Token, error) {
	if s.entered != nil {
		s.entered <- struct{}{}
	}
	if s.release != nil {
		<-s.release
	}
	return s.token, s.err
}

type stubEndpoint struct {
	outcome *models.ChargeOutcome
	err     error
}

func (s *stubEndpoint) Charge(ctx context.Context, req models.PaymentRequest) (*models.ChargeOutcome, error) {
	return s.outcome, s.err
}
