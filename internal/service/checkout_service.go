package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"decant-store-backend/internal/cart"
	"decant-store-backend/internal/checkout"
	"decant-store-backend/internal/metrics"
	"decant-store-backend/internal/payments"
	"decant-store-backend/pkg/logger"
)

var (
	ErrCheckoutNotStarted = errors.New("no active checkout session")
	ErrStaleAttempt       = errors.New("payment attempt no longer belongs to an active checkout")
)

// CheckoutConfig carries the store-level payment parameters.
type CheckoutConfig struct {
	ApplicationID   string
	LocationID      string
	Environment     string
	Currency        string
	ConfirmationURL string
}

// PaymentClientConfig is what the browser-side payments SDK needs to
// tokenize a card. It carries no secrets.
type PaymentClientConfig struct {
	ApplicationID string `json:"application_id"`
	LocationID    string `json:"location_id"`
	Environment   string `json:"environment"`
}

// PaymentResult is the display-safe outcome of one payment submission.
type PaymentResult struct {
	Outcome     checkout.PaymentOutcome `json:"outcome"`
	PaymentID   string                  `json:"payment_id,omitempty"`
	Message     string                  `json:"message,omitempty"`
	RedirectURL string                  `json:"redirect_url,omitempty"`
}

// CheckoutService orchestrates the step machine and the payment protocol.
// Sessions are ephemeral and live in memory, keyed by the cart session id:
// one active checkout per browser session. The gateway call happens outside
// the lock; its response is applied only if the attempt is still current.
type CheckoutService struct {
	mu       sync.Mutex
	sessions map[string]*checkout.Session

	carts    *CartService
	provider payments.Provider
	config   CheckoutConfig
}

func NewCheckoutService(carts *CartService, provider payments.Provider, cfg CheckoutConfig) *CheckoutService {
	return &CheckoutService{
		sessions: make(map[string]*checkout.Session),
		carts:    carts,
		provider: provider,
		config:   cfg,
	}
}

// activeCart enforces the empty-cart guard: a checkout can neither start nor
// proceed once the cart has been emptied, even from another tab.
func (s *CheckoutService) activeCart(sessionID string) (cart.State, error) {
	state, err := s.carts.Get(sessionID)
	if err != nil {
		return cart.State{}, err
	}
	if state.IsEmpty() {
		return cart.State{}, checkout.ErrEmptyCart
	}
	return state, nil
}

// Start opens a checkout for the session's cart, resuming an in-progress one
// if it exists. The second return reports whether a fresh session was
// created. An empty cart refuses to start and the caller redirects back to
// the cart view.
func (s *CheckoutService) Start(sessionID string) (checkout.View, bool, error) {
	if _, err := s.activeCart(sessionID); err != nil {
		s.destroy(sessionID)
		return checkout.View{}, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.sessions[sessionID]; ok && !existing.Completed() {
		return existing.View(), false, nil
	}

	session := checkout.NewSession(sessionID)
	s.sessions[sessionID] = session
	return session.View(), true, nil
}

// Current returns a snapshot of the active session after re-checking the
// cart guard. Callers only ever see value snapshots; the live session stays
// behind the service mutex.
func (s *CheckoutService) Current(sessionID string) (checkout.View, error) {
	return s.withSession(sessionID, func(*checkout.Session) error { return nil })
}

// withSession runs fn on the live session under the lock and returns the
// snapshot taken afterwards.
func (s *CheckoutService) withSession(sessionID string, fn func(*checkout.Session) error) (checkout.View, error) {
	if _, err := s.activeCart(sessionID); err != nil {
		s.destroy(sessionID)
		return checkout.View{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return checkout.View{}, ErrCheckoutNotStarted
	}
	if err := fn(session); err != nil {
		return checkout.View{}, err
	}
	return session.View(), nil
}

func (s *CheckoutService) session(sessionID string) (*checkout.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrCheckoutNotStarted
	}
	return session, nil
}

func (s *CheckoutService) destroy(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

// Continue advances the session one step forward.
func (s *CheckoutService) Continue(sessionID string) (checkout.View, error) {
	return s.withSession(sessionID, func(session *checkout.Session) error {
		return session.Continue()
	})
}

// Back moves the session one step backward without re-validating.
func (s *CheckoutService) Back(sessionID string) (checkout.View, error) {
	return s.withSession(sessionID, func(session *checkout.Session) error {
		return session.Back()
	})
}

// SubmitShipping validates the record; a non-empty field-error map keeps the
// session on the shipping step.
func (s *CheckoutService) SubmitShipping(sessionID string, details checkout.ShippingDetails) (checkout.View, map[string]string, error) {
	var fieldErrors map[string]string
	view, err := s.withSession(sessionID, func(session *checkout.Session) error {
		var submitErr error
		fieldErrors, submitErr = session.SubmitShipping(details)
		return submitErr
	})
	if err != nil {
		return checkout.View{}, nil, err
	}
	return view, fieldErrors, nil
}

// Abandon discards the checkout session. Any in-flight payment attempt is
// forgotten first so its late response cannot mutate anything.
func (s *CheckoutService) Abandon(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session, ok := s.sessions[sessionID]; ok {
		session.AbandonAttempt()
		delete(s.sessions, sessionID)
	}
}

// SubmitPayment runs one pass of the payment protocol: open an attempt with
// a fresh idempotency key, capture the cart total, submit to the gateway,
// and apply the outcome, unless the attempt went stale while in flight.
// Gateway rejections come back as a declined/failed PaymentResult with
// display-safe copy, never as a raw error.
func (s *CheckoutService) SubmitPayment(ctx context.Context, sessionID, sourceID string) (*PaymentResult, error) {
	cartState, err := s.activeCart(sessionID)
	if err != nil {
		s.destroy(sessionID)
		return nil, err
	}

	session, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	attempt, err := session.BeginAttempt()
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	// Total captured at submission time; mid-flight cart edits do not move it.
	amount := cartState.TotalCents
	s.mu.Unlock()

	logger.Info("Submitting payment", map[string]interface{}{
		"session_id":      sessionID,
		"attempt_id":      attempt.ID,
		"idempotency_key": attempt.IdempotencyKey,
		"amount_cents":    amount,
	})

	started := time.Now()
	payment, payErr := s.provider.CreatePayment(ctx, payments.Request{
		SourceID:       sourceID,
		AmountCents:    amount,
		Currency:       s.config.Currency,
		LocationID:     s.config.LocationID,
		IdempotencyKey: attempt.IdempotencyKey,
	})
	took := time.Since(started)

	s.mu.Lock()
	defer s.mu.Unlock()

	current, stillActive := s.sessions[sessionID]
	if !stillActive || current != session {
		// The user navigated away mid-flight; discard the response.
		logger.Warn("Discarding payment response for abandoned checkout", map[string]interface{}{
			"session_id": sessionID,
			"attempt_id": attempt.ID,
		})
		return nil, ErrStaleAttempt
	}

	if payErr != nil {
		outcome := checkout.OutcomeFailed
		if payments.IsDecline(payErr) {
			outcome = checkout.OutcomeDeclined
		}
		message := payments.UserMessage(payErr)

		if !session.ResolveAttempt(attempt.ID, outcome, "", message) {
			return nil, ErrStaleAttempt
		}

		metrics.PaymentAttempt(string(outcome), took)
		logger.Error(payErr, "Payment attempt rejected", map[string]interface{}{
			"session_id": sessionID,
			"attempt_id": attempt.ID,
			"outcome":    string(outcome),
		})

		return &PaymentResult{Outcome: outcome, Message: message}, nil
	}

	if !session.ResolveAttempt(attempt.ID, checkout.OutcomeSucceeded, payment.ID, "") {
		return nil, ErrStaleAttempt
	}

	// Successful placement clears the cart and discards the session.
	if _, err := s.carts.Clear(sessionID); err != nil {
		logger.Error(err, "Failed to clear cart after successful payment", map[string]interface{}{
			"session_id": sessionID,
			"payment_id": payment.ID,
		})
	}
	delete(s.sessions, sessionID)

	metrics.PaymentAttempt(string(checkout.OutcomeSucceeded), took)
	logger.Info("Payment succeeded", map[string]interface{}{
		"session_id": sessionID,
		"payment_id": payment.ID,
	})

	return &PaymentResult{
		Outcome:     checkout.OutcomeSucceeded,
		PaymentID:   payment.ID,
		RedirectURL: s.config.ConfirmationURL,
	}, nil
}

// ClientConfig returns the public gateway parameters the storefront needs
// to initialize card tokenization.
func (s *CheckoutService) ClientConfig() PaymentClientConfig {
	return PaymentClientConfig{
		ApplicationID: s.config.ApplicationID,
		LocationID:    s.config.LocationID,
		Environment:   s.config.Environment,
	}
}

// GatewayHealth checks the configured payment gateway.
func (s *CheckoutService) GatewayHealth(ctx context.Context) error {
	return s.provider.Health(ctx)
}
