package checkout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var stepOrder = map[Step]int{
	StepReviewOrder: 0,
	StepShipping:    1,
	StepPayment:     2,
}

func (s Step) index() int {
	return stepOrder[s]
}

func validShipping() ShippingDetails {
	return ShippingDetails{
		FirstName:  "Ada",
		LastName:   "Lovelace",
		Email:      "ada@example.com",
		Phone:      "+1 555 010 0100",
		Address:    "12 Analytical Row",
		City:       "London",
		State:      "Greater London",
		PostalCode: "NW1 6XE",
		Country:    "GB",
	}
}

func sessionOnPayment(t *testing.T) *Session {
	t.Helper()

	session := NewSession("cart-1")
	require.NoError(t, session.Continue())

	fieldErrors, err := session.SubmitShipping(validShipping())
	require.NoError(t, err)
	require.Empty(t, fieldErrors)
	require.Equal(t, StepPayment, session.Step)
	return session
}

func TestNewSessionStartsAtReview(t *testing.T) {
	session := NewSession("cart-1")

	assert.Equal(t, StepReviewOrder, session.Step)
	assert.Equal(t, OutcomePending, session.Outcome)
	assert.False(t, session.AttemptInFlight())
}

func TestStepsAreStrictlyOrdered(t *testing.T) {
	assert.Less(t, StepReviewOrder.index(), StepShipping.index())
	assert.Less(t, StepShipping.index(), StepPayment.index())
}

func TestContinueFromReviewIsUnconditional(t *testing.T) {
	session := NewSession("cart-1")

	require.NoError(t, session.Continue())
	assert.Equal(t, StepShipping, session.Step)
}

func TestPaymentUnreachableWithoutShippingDetails(t *testing.T) {
	session := NewSession("cart-1")
	require.NoError(t, session.Continue())

	err := session.Continue()
	assert.ErrorIs(t, err, ErrShippingIncomplete)
	assert.Equal(t, StepShipping, session.Step)
}

func TestSubmitShippingWithFieldErrorsStaysOnShipping(t *testing.T) {
	session := NewSession("cart-1")
	require.NoError(t, session.Continue())

	details := validShipping()
	details.Email = "not-an-email"
	details.FirstName = ""

	fieldErrors, err := session.SubmitShipping(details)

	require.NoError(t, err)
	assert.Equal(t, "Invalid email address", fieldErrors["email"])
	assert.Equal(t, "First name is required", fieldErrors["first_name"])
	assert.Equal(t, StepShipping, session.Step)
	assert.Nil(t, session.Shipping)
}

func TestSubmitShippingAdvancesToPayment(t *testing.T) {
	session := sessionOnPayment(t)

	require.NotNil(t, session.Shipping)
	assert.Equal(t, "Ada", session.Shipping.FirstName)
}

func TestSubmitShippingOnWrongStepIsIllegal(t *testing.T) {
	session := NewSession("cart-1")

	_, err := session.SubmitShipping(validShipping())
	assert.ErrorIs(t, err, ErrIllegalTransition)
}

func TestBackNeverRevalidates(t *testing.T) {
	session := sessionOnPayment(t)

	require.NoError(t, session.Back())
	assert.Equal(t, StepShipping, session.Step)

	require.NoError(t, session.Back())
	assert.Equal(t, StepReviewOrder, session.Step)

	err := session.Back()
	assert.ErrorIs(t, err, ErrIllegalTransition)
}

func TestBeginAttemptRequiresPaymentStep(t *testing.T) {
	session := NewSession("cart-1")

	_, err := session.BeginAttempt()
	assert.ErrorIs(t, err, ErrIllegalTransition)
}

func TestBeginAttemptRefusesConcurrentSubmission(t *testing.T) {
	session := sessionOnPayment(t)

	_, err := session.BeginAttempt()
	require.NoError(t, err)

	_, err = session.BeginAttempt()
	assert.ErrorIs(t, err, ErrAttemptInFlight)
}

func TestEveryAttemptMintsAFreshIdempotencyKey(t *testing.T) {
	session := sessionOnPayment(t)

	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		attempt, err := session.BeginAttempt()
		require.NoError(t, err)

		require.NotEmpty(t, attempt.IdempotencyKey)
		assert.False(t, seen[attempt.IdempotencyKey], "idempotency key reused on attempt %d", i)
		seen[attempt.IdempotencyKey] = true

		applied := session.ResolveAttempt(attempt.ID, OutcomeDeclined, "", "declined")
		require.True(t, applied)
	}
}

func TestDeclineKeepsSessionOnPaymentStep(t *testing.T) {
	session := sessionOnPayment(t)

	attempt, err := session.BeginAttempt()
	require.NoError(t, err)

	applied := session.ResolveAttempt(attempt.ID, OutcomeDeclined, "", "Your card was declined. Please try a different card.")

	require.True(t, applied)
	assert.Equal(t, StepPayment, session.Step)
	assert.Equal(t, OutcomeDeclined, session.Outcome)
	assert.NotEmpty(t, session.LastError)
	assert.False(t, session.AttemptInFlight())

	// The user may retry immediately.
	_, err = session.BeginAttempt()
	assert.NoError(t, err)
}

func TestSuccessIsTerminal(t *testing.T) {
	session := sessionOnPayment(t)

	attempt, err := session.BeginAttempt()
	require.NoError(t, err)

	applied := session.ResolveAttempt(attempt.ID, OutcomeSucceeded, "pay_123", "")

	require.True(t, applied)
	assert.True(t, session.Completed())
	assert.Equal(t, "pay_123", session.PaymentID)

	_, err = session.BeginAttempt()
	assert.ErrorIs(t, err, ErrSessionCompleted)
	assert.ErrorIs(t, session.Continue(), ErrSessionCompleted)
}

func TestStaleResponseIsDiscarded(t *testing.T) {
	session := sessionOnPayment(t)

	attempt, err := session.BeginAttempt()
	require.NoError(t, err)

	session.AbandonAttempt()

	applied := session.ResolveAttempt(attempt.ID, OutcomeSucceeded, "pay_123", "")

	assert.False(t, applied)
	assert.Equal(t, OutcomePending, session.Outcome)
	assert.Empty(t, session.PaymentID)
}

func TestResponseForSupersededAttemptIsDiscarded(t *testing.T) {
	session := sessionOnPayment(t)

	first, err := session.BeginAttempt()
	require.NoError(t, err)
	require.True(t, session.ResolveAttempt(first.ID, OutcomeFailed, "", "Payment failed. Please try again."))

	second, err := session.BeginAttempt()
	require.NoError(t, err)

	// The first attempt's late duplicate response must not apply anymore.
	assert.False(t, session.ResolveAttempt(first.ID, OutcomeSucceeded, "pay_zombie", ""))

	require.True(t, session.ResolveAttempt(second.ID, OutcomeSucceeded, "pay_456", ""))
	assert.Equal(t, "pay_456", session.PaymentID)
}
