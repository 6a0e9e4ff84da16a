package service

import (
	"context"
	"database/sql"
	"sync"

	"github.com/akylbek/payment-system/payment-checkout/internal/models"
)

type fakeTokenizer struct {
	mu      sync.Mutex
	ready   bool
	token   models.Token
	err     error
	calls   int
	entered chan struct{}
	release chan struct{}
}

func (f *fakeTokenizer) Ready() bool { return f.ready }

func (f *fakeTokenizer) Tokenize(ctx context.Context, card models.CardInput) (models.Token, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	return f.token, f.err
}

func (f *fakeTokenizer) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeEndpoint struct {
	mu       sync.Mutex
	outcome  *models.ChargeOutcome
	err      error
	requests []models.PaymentRequest
}

func (f *fakeEndpoint) Charge(ctx context.Context, req models.PaymentRequest) (*models.ChargeOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.outcome, f.err
}

func (f *fakeEndpoint) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

type recordingObserver struct {
	mu      sync.Mutex
	changes []models.StateChange
}

func (o *recordingObserver) StateChanged(_ context.Context, change models.StateChange) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.changes = append(o.changes, change)
}

func (o *recordingObserver) Path() []models.Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	path := make([]models.Phase, 0, len(o.changes))
	for _, c := range o.changes {
		path = append(path, c.To)
	}
	return path
}

type fakeGatewayCharger struct {
	outcome *models.ChargeOutcome
	err     error
	calls   int
}

func (f *fakeGatewayCharger) CreateCharge(ctx context.Context, amount int64, currency string, source models.Token) (*models.ChargeOutcome, error) {
	f.calls++
	return f.outcome, f.err
}

type memoryLedger struct {
	claimed map[models.Token]bool
	err     error
}

func (l *memoryLedger) Claim(ctx context.Context, token models.Token) (bool, error) {
	if l.err != nil {
		return false, l.err
	}
	if l.claimed == nil {
		l.claimed = map[models.Token]bool{}
	}
	if l.claimed[token] {
		return false, nil
	}
	l.claimed[token] = true
	return true, nil
}

type memoryRepo struct {
	records map[string]*models.ChargeRecord
	err     error
}

func (r *memoryRepo) InsertCharge(ctx context.Context, record *models.ChargeRecord) error {
	if r.err != nil {
		return r.err
	}
	if r.records == nil {
		r.records = map[string]*models.ChargeRecord{}
	}
	r.records[record.ID] = record
	return nil
}

func (r *memoryRepo) GetByID(ctx context.Context, chargeID string) (*models.ChargeRecord, error) {
	if rec, ok := r.records[chargeID]; ok {
		return rec, nil
	}
	return nil, sql.ErrNoRows
}

type recordingPublisher struct {
	events []models.ChargeEvent
	err    error
}

func (p *recordingPublisher) PublishChargeCompleted(ctx context.Context, event models.ChargeEvent) error {
	p.events = append(p.events, event)
	return p.err
}
