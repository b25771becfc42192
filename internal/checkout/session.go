package checkout

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Step is a checkout step. Steps are strictly ordered and linear.
type Step string

const (
	StepReviewOrder Step = "REVIEW_ORDER"
	StepShipping    Step = "SHIPPING"
	StepPayment     Step = "PAYMENT"
)

// PaymentOutcome is the state of the session's payment protocol.
type PaymentOutcome string

const (
	OutcomePending   PaymentOutcome = "PENDING"
	OutcomeSucceeded PaymentOutcome = "SUCCEEDED"
	OutcomeDeclined  PaymentOutcome = "DECLINED"
	OutcomeFailed    PaymentOutcome = "FAILED"
)

var (
	ErrEmptyCart          = errors.New("cart is empty, nothing to check out")
	ErrIllegalTransition  = errors.New("illegal checkout step transition")
	ErrShippingIncomplete = errors.New("shipping details have not been submitted")
	ErrAttemptInFlight    = errors.New("a payment attempt is already in flight")
	ErrSessionCompleted   = errors.New("checkout session is already completed")
)

// Attempt is one payment submission. Every attempt carries a freshly minted
// idempotency key; retries after a decline never reuse a prior key.
type Attempt struct {
	ID             string
	IdempotencyKey string
	StartedAt      time.Time
}

// Session is the ephemeral checkout state for one cart. It exists only while
// the user is checking out and is discarded on cart-clear, on navigation
// away, and on successful placement.
type Session struct {
	ID        string
	CartID    string
	Step      Step
	Shipping  *ShippingDetails
	Outcome   PaymentOutcome
	LastError string
	PaymentID string

	attempt *Attempt

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewSession starts a checkout at the review step. Callers must have already
// verified the cart is non-empty.
func NewSession(cartID string) *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.NewString(),
		CartID:    cartID,
		Step:      StepReviewOrder,
		Outcome:   OutcomePending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *Session) touch() {
	s.UpdatedAt = time.Now()
}

// Completed reports whether the payment protocol reached its success state.
func (s *Session) Completed() bool {
	return s.Outcome == OutcomeSucceeded
}

// Continue advances one step forward. ReviewOrder to Shipping is
// unconditional; Shipping to Payment requires shipping details to have been
// accepted via SubmitShipping first. There is no step past Payment.
func (s *Session) Continue() error {
	if s.Completed() {
		return ErrSessionCompleted
	}

	switch s.Step {
	case StepReviewOrder:
		s.Step = StepShipping
	case StepShipping:
		if s.Shipping == nil {
			return ErrShippingIncomplete
		}
		s.Step = StepPayment
	default:
		return ErrIllegalTransition
	}

	s.touch()
	return nil
}

// Back moves one step backward. Going back never re-validates the step being
// left and is always permitted from any non-initial step.
func (s *Session) Back() error {
	if s.Completed() {
		return ErrSessionCompleted
	}

	switch s.Step {
	case StepShipping:
		s.Step = StepReviewOrder
	case StepPayment:
		s.Step = StepShipping
	default:
		return ErrIllegalTransition
	}

	s.touch()
	return nil
}

// SubmitShipping validates the record and, when clean, stores it and
// advances to the payment step. Field errors keep the session on the
// shipping step.
func (s *Session) SubmitShipping(details ShippingDetails) (map[string]string, error) {
	if s.Completed() {
		return nil, ErrSessionCompleted
	}
	if s.Step != StepShipping {
		return nil, ErrIllegalTransition
	}

	sanitized := details.Sanitize()
	if fieldErrors := ValidateShipping(sanitized); len(fieldErrors) > 0 {
		return fieldErrors, nil
	}

	s.Shipping = &sanitized
	s.Step = StepPayment
	s.touch()
	return nil, nil
}

// BeginAttempt opens a payment attempt and mints its idempotency key. Only
// one attempt may be in flight per session; a second submission while one is
// pending is refused, which is the server-side half of the disabled submit
// button.
func (s *Session) BeginAttempt() (*Attempt, error) {
	if s.Completed() {
		return nil, ErrSessionCompleted
	}
	if s.Step != StepPayment {
		return nil, ErrIllegalTransition
	}
	if s.Shipping == nil {
		return nil, ErrShippingIncomplete
	}
	if s.attempt != nil {
		return nil, ErrAttemptInFlight
	}

	attempt := &Attempt{
		ID:             uuid.NewString(),
		IdempotencyKey: uuid.NewString(),
		StartedAt:      time.Now(),
	}
	s.attempt = attempt
	s.LastError = ""
	s.touch()
	return attempt, nil
}

// ResolveAttempt applies a gateway response to the session. Responses for an
// attempt the session no longer tracks are discarded: abandoning a checkout
// mid-flight must not let the late response mutate anything. Returns whether
// the response was applied.
func (s *Session) ResolveAttempt(attemptID string, outcome PaymentOutcome, paymentID, message string) bool {
	if s.attempt == nil || s.attempt.ID != attemptID {
		return false
	}

	s.attempt = nil
	s.Outcome = outcome
	s.PaymentID = paymentID
	s.LastError = message
	s.touch()

	// Declines and failures keep the user on the payment step for a retry.
	if outcome != OutcomeSucceeded {
		s.Step = StepPayment
	}
	return true
}

// AbandonAttempt forgets the in-flight attempt so its eventual response is
// discarded. Used when the user navigates away mid-submission.
func (s *Session) AbandonAttempt() {
	s.attempt = nil
	s.touch()
}

// AttemptInFlight reports whether a payment submission is pending.
func (s *Session) AttemptInFlight() bool {
	return s.attempt != nil
}

// View is a value snapshot of a Session, safe to read after the owning
// lock is released. Callers must hold that lock while taking the snapshot.
type View struct {
	ID        string           `json:"id"`
	Step      Step             `json:"step"`
	Outcome   PaymentOutcome   `json:"outcome"`
	LastError string           `json:"error,omitempty"`
	PaymentID string           `json:"payment_id,omitempty"`
	Shipping  *ShippingDetails `json:"shipping,omitempty"`
}

// View snapshots the session's observable state.
func (s *Session) View() View {
	view := View{
		ID:        s.ID,
		Step:      s.Step,
		Outcome:   s.Outcome,
		LastError: s.LastError,
		PaymentID: s.PaymentID,
	}
	if s.Shipping != nil {
		shipping := *s.Shipping
		view.Shipping = &shipping
	}
	return view
}
