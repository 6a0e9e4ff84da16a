package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/akylbek/payment-system/payment-checkout/internal/models"
)

var validCard = models.CardInput{Number: "4242424242424242", ExpMonth: 12, ExpYear: 2030, CVC: "123"}

func newController(tok *fakeTokenizer, ep *fakeEndpoint, obs *recordingObserver) *SubmissionController {
	return NewSubmissionController("sess_1", 1000, tok, ep, obs)
}

func TestSubmitScenarios(t *testing.T) {
	cases := []struct {
		name         string
		tokenizer    *fakeTokenizer
		endpoint     *fakeEndpoint
		want         models.WorkflowState
		chargeCalled bool
	}{
		{
			name:         "charge succeeds",
			tokenizer:    &fakeTokenizer{ready: true, token: "tok_abc"},
			endpoint:     &fakeEndpoint{outcome: &models.ChargeOutcome{Status: models.ChargeSucceeded}},
			want:         models.Succeeded(),
			chargeCalled: true,
		},
		{
			name:      "card rejected by tokenizer",
			tokenizer: &fakeTokenizer{ready: true, err: &models.TokenizationError{Message: "Your card number is invalid."}},
			endpoint:  &fakeEndpoint{},
			want:      models.Failed("Your card number is invalid."),
		},
		{
			name:         "endpoint unreachable",
			tokenizer:    &fakeTokenizer{ready: true, token: "tok_xyz"},
			endpoint:     &fakeEndpoint{err: models.NewTransportError("dial tcp: connection refused")},
			want:         models.Failed("Payment error."),
			chargeCalled: true,
		},
		{
			name:         "endpoint reports decline",
			tokenizer:    &fakeTokenizer{ready: true, token: "tok_declined"},
			endpoint:     &fakeEndpoint{err: &models.ServerReportedError{StatusCode: 402, Message: "Your card was declined."}},
			want:         models.Failed("Your card was declined."),
			chargeCalled: true,
		},
		{
			name:         "charge pending",
			tokenizer:    &fakeTokenizer{ready: true, token: "tok_weird"},
			endpoint:     &fakeEndpoint{outcome: &models.ChargeOutcome{Status: "pending"}},
			want:         models.Failed("Payment failed."),
			chargeCalled: true,
		},
		{
			name:         "charge without status",
			tokenizer:    &fakeTokenizer{ready: true, token: "tok_abc"},
			endpoint:     &fakeEndpoint{outcome: &models.ChargeOutcome{}},
			want:         models.Failed("Payment failed."),
			chargeCalled: true,
		},
		{
			name:      "gateway unreachable during tokenize",
			tokenizer: &fakeTokenizer{ready: true, err: models.NewTransportError("timeout")},
			endpoint:  &fakeEndpoint{},
			want:      models.Failed("Payment error."),
		},
		{
			name:      "empty token",
			tokenizer: &fakeTokenizer{ready: true},
			endpoint:  &fakeEndpoint{},
			want:      models.Failed("Payment error."),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			obs := &recordingObserver{}
			ctrl := newController(tc.tokenizer, tc.endpoint, obs)

			got, err := ctrl.Submit(context.Background(), validCard)

			require.NoError(t, err)
			require.Equal(t, tc.want, got)
			require.Equal(t, tc.want, ctrl.State())
			require.True(t, got.Terminal())
			require.Equal(t, 1, tc.tokenizer.Calls())
			if tc.chargeCalled {
				require.Equal(t, 1, tc.endpoint.Calls())
			} else {
				require.Zero(t, tc.endpoint.Calls())
			}
		})
	}
}

func TestSubmitSendsFixedAmountAndToken(t *testing.T) {
	ep := &fakeEndpoint{outcome: &models.ChargeOutcome{Status: models.ChargeSucceeded}}
	obs := &recordingObserver{}
	ctrl := newController(&fakeTokenizer{ready: true, token: "tok_abc"}, ep, obs)

	_, err := ctrl.Submit(context.Background(), validCard)
	require.NoError(t, err)

	require.Equal(t, []models.PaymentRequest{{Amount: 1000, Token: "tok_abc"}}, ep.requests)
	require.Equal(t, []models.Phase{models.PhaseTokenizing, models.PhaseSubmitting, models.PhaseSucceeded}, obs.Path())
}

func TestSubmitGatewayNotReady(t *testing.T) {
	tok := &fakeTokenizer{ready: false, token: "tok_abc"}
	ep := &fakeEndpoint{}
	obs := &recordingObserver{}
	ctrl := newController(tok, ep, obs)

	got, err := ctrl.Submit(context.Background(), validCard)

	require.NoError(t, err)
	require.Equal(t, models.Failed("Payment gateway has not loaded yet."), got)
	require.Zero(t, tok.Calls())
	require.Zero(t, ep.Calls())
	require.Equal(t, []models.Phase{models.PhaseFailed}, obs.Path())
}

func TestSubmitSingleFlight(t *testing.T) {
	tok := &fakeTokenizer{
		ready:   true,
		token:   "tok_abc",
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	ep := &fakeEndpoint{outcome: &models.ChargeOutcome{Status: models.ChargeSucceeded}}
	ctrl := newController(tok, ep, &recordingObserver{})

	done := make(chan models.WorkflowState, 1)
	go func() {
		state, _ := ctrl.Submit(context.Background(), validCard)
		done <- state
	}()

	select {
	case <-tok.entered:
	case <-time.After(time.Second):
		t.Fatal("first submit never reached the tokenizer")
	}
	require.True(t, ctrl.State().Busy())

	state, err := ctrl.Submit(context.Background(), validCard)
	require.ErrorIs(t, err, ErrSubmissionInProgress)
	require.Equal(t, models.PhaseTokenizing, state.Phase)
	require.ErrorIs(t, ctrl.Reset(context.Background()), ErrSubmissionInProgress)

	close(tok.release)
	require.Equal(t, models.Succeeded(), <-done)
	require.Equal(t, 1, tok.Calls())
	require.Equal(t, 1, ep.Calls())
	require.False(t, ctrl.State().Busy())
}

func TestSubmitIgnoresCallerCancellation(t *testing.T) {
	ep := &fakeEndpoint{outcome: &models.ChargeOutcome{Status: models.ChargeSucceeded}}
	ctrl := newController(&fakeTokenizer{ready: true, token: "tok_abc"}, ep, &recordingObserver{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := ctrl.Submit(ctx, validCard)
	require.NoError(t, err)
	require.Equal(t, models.Succeeded(), got)
}

func TestSubmitFromTerminalStateStartsOver(t *testing.T) {
	tok := &fakeTokenizer{ready: true, err: &models.TokenizationError{Message: "Your card number is invalid."}}
	ep := &fakeEndpoint{outcome: &models.ChargeOutcome{Status: models.ChargeSucceeded}}
	obs := &recordingObserver{}
	ctrl := newController(tok, ep, obs)

	first, _ := ctrl.Submit(context.Background(), validCard)
	require.Equal(t, models.PhaseFailed, first.Phase)

	tok.err = nil
	tok.token = "tok_new"
	second, err := ctrl.Submit(context.Background(), validCard)
	require.NoError(t, err)
	require.Equal(t, models.Succeeded(), second)
	require.Equal(t, 2, tok.Calls())
	require.Equal(t, 1, ep.Calls())
	require.Equal(t, []models.Phase{
		models.PhaseTokenizing, models.PhaseFailed,
		models.PhaseIdle, models.PhaseTokenizing, models.PhaseSubmitting, models.PhaseSucceeded,
	}, obs.Path())
}

func TestReset(t *testing.T) {
	obs := &recordingObserver{}
	ctrl := newController(&fakeTokenizer{ready: false}, &fakeEndpoint{}, obs)

	require.NoError(t, ctrl.Reset(context.Background()))
	require.Empty(t, obs.Path())

	ctrl.Submit(context.Background(), validCard)
	require.Equal(t, models.PhaseFailed, ctrl.State().Phase)

	require.NoError(t, ctrl.Reset(context.Background()))
	require.Equal(t, models.Idle(), ctrl.State())
	require.Equal(t, []models.Phase{models.PhaseFailed, models.PhaseIdle}, obs.Path())
}

func TestFailureReason(t *testing.T) {
	require.Equal(t, "Payment gateway has not loaded yet.", FailureReason(models.ErrGatewayNotReady))
	require.Equal(t, "Your card number is invalid.", FailureReason(&models.TokenizationError{Message: "Your card number is invalid."}))
	require.Equal(t, "Payment error.", FailureReason(&models.TokenizationError{}))
	require.Equal(t, "Payment error.", FailureReason(models.NewTransportError("EOF")))
	require.Equal(t, "Insufficient funds.", FailureReason(&models.ServerReportedError{StatusCode: 402, Message: "Insufficient funds."}))
	require.Equal(t, "Payment error.", FailureReason(&models.ServerReportedError{StatusCode: 500}))
	require.Equal(t, "Payment failed.", FailureReason(models.ErrChargeNotSucceeded))
	require.Equal(t, "Payment error.", FailureReason(context.DeadlineExceeded))
}
