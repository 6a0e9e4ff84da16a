package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/payment-checkout/internal/interfaces"
	"github.com/akylbek/payment-system/payment-checkout/internal/metrics"
	"github.com/akylbek/payment-system/payment-checkout/internal/models"
	"github.com/akylbek/payment-system/payment-checkout/internal/telemetry"
)

// SubmissionController runs the checkout workflow for one session:
// tokenize the card, submit the token with the fixed amount, interpret
// the answer. It owns the WorkflowState; the mutex only guards state, the
// network calls run without it.
type SubmissionController struct {
	id        string
	amount    int64
	tokenizer interfaces.Tokenizer
	endpoint  interfaces.ChargeEndpoint
	observer  interfaces.StateObserver

	mu    sync.RWMutex
	state models.WorkflowState
}

func NewSubmissionController(
	id string,
	amount int64,
	tokenizer interfaces.Tokenizer,
	endpoint interfaces.ChargeEndpoint,
	observer interfaces.StateObserver,
) *SubmissionController {
	if observer == nil {
		observer = Observers{}
	}
	return &SubmissionController{
		id:        id,
		amount:    amount,
		tokenizer: tokenizer,
		endpoint:  endpoint,
		observer:  observer,
		state:     models.Idle(),
	}
}

func (c *SubmissionController) ID() string { return c.id }

func (c *SubmissionController) Amount() int64 { return c.amount }

// State returns a snapshot of the current workflow state.
func (c *SubmissionController) State() models.WorkflowState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Submit runs one payment attempt and returns the terminal state it ended
// in. While another attempt is in flight it returns the current state and
// ErrSubmissionInProgress without touching the network. The attempt is
// detached from ctx cancellation so it always reaches a terminal state.
func (c *SubmissionController) Submit(ctx context.Context, card models.CardInput) (models.WorkflowState, error) {
	ctx = context.WithoutCancel(ctx)
	ctx, span := telemetry.Tracer.Start(ctx, "checkout.submit",
		trace.WithAttributes(attribute.String("checkout.session_id", c.id)))
	defer span.End()

	start := time.Now()

	c.mu.Lock()
	if c.state.Busy() {
		current := c.state
		c.mu.Unlock()
		return current, ErrSubmissionInProgress
	}

	var changes []models.StateChange
	if c.state.Terminal() {
		changes = append(changes, c.setLocked(models.Idle()))
	}
	if !c.tokenizer.Ready() {
		changes = append(changes, c.setLocked(models.Failed(FailureReason(models.ErrGatewayNotReady))))
		final := c.state
		c.mu.Unlock()

		c.notify(ctx, span, changes...)
		c.finish(span, final, models.ErrGatewayNotReady, start)
		return final, nil
	}
	changes = append(changes, c.setLocked(models.WorkflowState{Phase: models.PhaseTokenizing}))
	c.mu.Unlock()
	c.notify(ctx, span, changes...)

	final, err := c.attempt(ctx, span, card)

	c.mu.Lock()
	change := c.setLocked(final)
	c.mu.Unlock()
	c.notify(ctx, span, change)

	c.finish(span, final, err, start)
	return final, nil
}

// attempt performs at most one tokenize call and at most one charge call.
func (c *SubmissionController) attempt(ctx context.Context, span trace.Span, card models.CardInput) (models.WorkflowState, error) {
	token, err := c.tokenizer.Tokenize(ctx, card)
	if err == nil && token == "" {
		err = models.NewTransportError("gateway issued an empty token")
	}
	if err != nil {
		return models.Failed(FailureReason(err)), err
	}

	c.mu.Lock()
	change := c.setLocked(models.WorkflowState{Phase: models.PhaseSubmitting})
	c.mu.Unlock()
	c.notify(ctx, span, change)

	outcome, err := c.endpoint.Charge(ctx, models.PaymentRequest{Amount: c.amount, Token: token})
	if err != nil {
		return models.Failed(FailureReason(err)), err
	}
	if outcome == nil || outcome.Status != models.ChargeSucceeded {
		var status models.ChargeStatus
		if outcome != nil {
			status = outcome.Status
		}
		err = fmt.Errorf("%w: status %q", models.ErrChargeNotSucceeded, status)
		return models.Failed(FailureReason(err)), err
	}
	return models.Succeeded(), nil
}

// Reset returns a settled controller to idle.
func (c *SubmissionController) Reset(ctx context.Context) error {
	c.mu.Lock()
	if c.state.Busy() {
		c.mu.Unlock()
		return ErrSubmissionInProgress
	}
	if c.state.Phase == models.PhaseIdle {
		c.mu.Unlock()
		return nil
	}
	change := c.setLocked(models.Idle())
	c.mu.Unlock()

	c.observer.StateChanged(ctx, change)
	return nil
}

func (c *SubmissionController) setLocked(next models.WorkflowState) models.StateChange {
	change := models.StateChange{
		SessionID: c.id,
		From:      c.state.Phase,
		To:        next.Phase,
		Reason:    next.Reason,
		At:        time.Now().UTC(),
	}
	c.state = next
	return change
}

func (c *SubmissionController) notify(ctx context.Context, span trace.Span, changes ...models.StateChange) {
	for _, change := range changes {
		span.AddEvent("state_changed", trace.WithAttributes(
			attribute.String("from_state", string(change.From)),
			attribute.String("to_state", string(change.To)),
		))
		c.observer.StateChanged(ctx, change)
	}
}

func (c *SubmissionController) finish(span trace.Span, final models.WorkflowState, err error, start time.Time) {
	outcome := string(final.Phase)
	metrics.SubmissionsTotal.WithLabelValues(outcome).Inc()
	metrics.SubmissionDuration.Observe(time.Since(start).Seconds())

	span.SetAttributes(attribute.String("checkout.outcome", outcome))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, final.Reason)
		telemetry.Logger.Warn("Checkout submission failed",
			zap.String("session_id", c.id),
			zap.String("reason", final.Reason),
			zap.Error(err),
		)
	}
}
