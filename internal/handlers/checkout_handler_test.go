package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"decant-store-backend/internal/cart"
	"decant-store-backend/internal/models"
	"decant-store-backend/internal/payments"
	"decant-store-backend/internal/repository"
	"decant-store-backend/internal/service"
)

type scriptedProvider struct {
	payment   *payments.Payment
	err       error
	healthErr error
}

func (p *scriptedProvider) CreatePayment(ctx context.Context, req payments.Request) (*payments.Payment, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.payment, nil
}

func (p *scriptedProvider) Health(ctx context.Context) error {
	return p.healthErr
}

type checkoutFixture struct {
	router      *gin.Engine
	cartService *service.CartService
}

func newCheckoutFixture(t *testing.T, provider payments.Provider) *checkoutFixture {
	t.Helper()

	repo := &stubProductRepo{products: make(map[uint]models.Product)}
	for _, p := range testProducts() {
		repo.products[p.ID] = p
	}

	store := cart.NewStore(cart.Pricing{ShippingFeeCents: 1500, TaxRate: 0.10})
	cartService := service.NewCartService(store, repository.NewMemoryCartStore(), repo)
	checkoutService := service.NewCheckoutService(cartService, provider, service.CheckoutConfig{
		ApplicationID:   "sandbox-sq0idb-test",
		LocationID:      "L123",
		Environment:     "sandbox",
		Currency:        "USD",
		ConfirmationURL: "/order-confirmation",
	})

	cartHandler := NewCartHandler(cartService)
	checkoutHandler := NewCheckoutHandler(checkoutService)

	router := gin.New()
	router.Use(fixedSession("session-1"))
	router.POST("/api/cart/items", cartHandler.AddItem)
	router.POST("/api/checkout", checkoutHandler.Start)
	router.GET("/api/checkout", checkoutHandler.Current)
	router.POST("/api/checkout/continue", checkoutHandler.Continue)
	router.POST("/api/checkout/back", checkoutHandler.Back)
	router.POST("/api/checkout/shipping", checkoutHandler.SubmitShipping)
	router.DELETE("/api/checkout", checkoutHandler.Abandon)
	router.POST("/api/payments", checkoutHandler.SubmitPayment)
	router.GET("/api/payments/config", checkoutHandler.ClientConfig)
	router.GET("/api/payments/health", checkoutHandler.GatewayHealth)

	return &checkoutFixture{router: router, cartService: cartService}
}

const validShippingJSON = `{
	"first_name": "Ada",
	"last_name": "Lovelace",
	"email": "ada@example.com",
	"phone": "+1 555 010 0100",
	"address": "12 Analytical Row",
	"city": "London",
	"state": "Greater London",
	"postal_code": "NW1 6XE",
	"country": "GB"
}`

func (f *checkoutFixture) fillCart(t *testing.T) {
	t.Helper()
	w := doJSON(t, f.router, http.MethodPost, "/api/cart/items", `{"product_id":1,"size":"5ml"}`)
	require.Equal(t, http.StatusOK, w.Code)
}

func (f *checkoutFixture) advanceToPayment(t *testing.T) {
	t.Helper()

	w := doJSON(t, f.router, http.MethodPost, "/api/checkout", "")
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, f.router, http.MethodPost, "/api/checkout/continue", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, f.router, http.MethodPost, "/api/checkout/shipping", validShippingJSON)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestStartCheckoutWithEmptyCartRedirects(t *testing.T) {
	fixture := newCheckoutFixture(t, &scriptedProvider{})

	w := doJSON(t, fixture.router, http.MethodPost, "/api/checkout", "")

	require.Equal(t, http.StatusConflict, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "/cart", resp["redirect"])
}

func TestStartResumeAnswers200(t *testing.T) {
	fixture := newCheckoutFixture(t, &scriptedProvider{})
	fixture.fillCart(t)

	w := doJSON(t, fixture.router, http.MethodPost, "/api/checkout", "")
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, fixture.router, http.MethodPost, "/api/checkout", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestClientConfigEndpoint(t *testing.T) {
	fixture := newCheckoutFixture(t, &scriptedProvider{})

	w := doJSON(t, fixture.router, http.MethodGet, "/api/payments/config", "")

	require.Equal(t, http.StatusOK, w.Code)

	var cfg service.PaymentClientConfig
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cfg))
	assert.Equal(t, "sandbox-sq0idb-test", cfg.ApplicationID)
	assert.Equal(t, "L123", cfg.LocationID)
	assert.Equal(t, "sandbox", cfg.Environment)
}

func TestShippingFieldErrorsAre422(t *testing.T) {
	fixture := newCheckoutFixture(t, &scriptedProvider{})
	fixture.fillCart(t)

	w := doJSON(t, fixture.router, http.MethodPost, "/api/checkout", "")
	require.Equal(t, http.StatusCreated, w.Code)
	w = doJSON(t, fixture.router, http.MethodPost, "/api/checkout/continue", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, fixture.router, http.MethodPost, "/api/checkout/shipping", `{
		"first_name": "Ada",
		"email": "not-an-email"
	}`)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp struct {
		FieldErrors map[string]string `json:"field_errors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Invalid email address", resp.FieldErrors["email"])
	assert.Equal(t, "Last name is required", resp.FieldErrors["last_name"])
	assert.NotContains(t, resp.FieldErrors, "first_name")
}

func TestPaymentBeforeShippingIsRefused(t *testing.T) {
	fixture := newCheckoutFixture(t, &scriptedProvider{})
	fixture.fillCart(t)

	w := doJSON(t, fixture.router, http.MethodPost, "/api/checkout", "")
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, fixture.router, http.MethodPost, "/api/payments", `{"source_id":"cnon:card-nonce"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSuccessfulPaymentReturnsRedirect(t *testing.T) {
	provider := &scriptedProvider{payment: &payments.Payment{ID: "pay_123", Status: "COMPLETED"}}
	fixture := newCheckoutFixture(t, provider)
	fixture.fillCart(t)
	fixture.advanceToPayment(t)

	w := doJSON(t, fixture.router, http.MethodPost, "/api/payments", `{"source_id":"cnon:card-nonce"}`)

	require.Equal(t, http.StatusOK, w.Code)

	var result service.PaymentResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "pay_123", result.PaymentID)
	assert.Equal(t, "/order-confirmation", result.RedirectURL)

	// Cart is cleared after placement.
	state, err := fixture.cartService.Get("session-1")
	require.NoError(t, err)
	assert.True(t, state.IsEmpty())
}

func TestCardDeclineAnswers402AndKeepsCart(t *testing.T) {
	provider := &scriptedProvider{err: &payments.GatewayError{Code: payments.CodeCardDeclined, Detail: "declined"}}
	fixture := newCheckoutFixture(t, provider)
	fixture.fillCart(t)
	fixture.advanceToPayment(t)

	w := doJSON(t, fixture.router, http.MethodPost, "/api/payments", `{"source_id":"cnon:card-nonce"}`)

	require.Equal(t, http.StatusPaymentRequired, w.Code)

	var result service.PaymentResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "Your card was declined. Please try a different card.", result.Message)

	state, err := fixture.cartService.Get("session-1")
	require.NoError(t, err)
	assert.False(t, state.IsEmpty())

	// Still on the payment step, ready for a retry.
	w = doJSON(t, fixture.router, http.MethodGet, "/api/checkout", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"PAYMENT"`)
}

func TestGatewayTransportFailureAnswers502(t *testing.T) {
	provider := &scriptedProvider{err: context.DeadlineExceeded}
	fixture := newCheckoutFixture(t, provider)
	fixture.fillCart(t)
	fixture.advanceToPayment(t)

	w := doJSON(t, fixture.router, http.MethodPost, "/api/payments", `{"source_id":"cnon:card-nonce"}`)

	require.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), payments.GenericFailureMessage)
}

func TestAbandonCheckout(t *testing.T) {
	fixture := newCheckoutFixture(t, &scriptedProvider{})
	fixture.fillCart(t)

	w := doJSON(t, fixture.router, http.MethodPost, "/api/checkout", "")
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, fixture.router, http.MethodDelete, "/api/checkout", "")
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, fixture.router, http.MethodGet, "/api/checkout", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGatewayHealthEndpoint(t *testing.T) {
	fixture := newCheckoutFixture(t, &scriptedProvider{})

	w := doJSON(t, fixture.router, http.MethodGet, "/api/payments/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	unhealthy := newCheckoutFixture(t, &scriptedProvider{healthErr: context.DeadlineExceeded})
	w = doJSON(t, unhealthy.router, http.MethodGet, "/api/payments/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
