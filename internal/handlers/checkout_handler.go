package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"decant-store-backend/internal/checkout"
	"decant-store-backend/internal/middleware"
	"decant-store-backend/internal/models"
	"decant-store-backend/internal/service"
)

type CheckoutHandler struct {
	checkoutService *service.CheckoutService
}

func NewCheckoutHandler(checkoutService *service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkoutService: checkoutService}
}

func sessionView(view checkout.View) gin.H {
	payload := gin.H{
		"id":      view.ID,
		"step":    view.Step,
		"outcome": view.Outcome,
	}
	if view.Shipping != nil {
		payload["shipping"] = view.Shipping
	}
	if view.LastError != "" {
		payload["error"] = view.LastError
	}
	return payload
}

// respondCheckoutError maps orchestration errors to HTTP statuses. An empty
// cart always answers with a redirect back to the cart view.
func respondCheckoutError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, checkout.ErrEmptyCart):
		c.JSON(http.StatusConflict, gin.H{"error": "cart is empty", "redirect": "/cart"})
	case errors.Is(err, service.ErrCheckoutNotStarted):
		c.JSON(http.StatusNotFound, gin.H{"error": "no active checkout session"})
	case errors.Is(err, checkout.ErrShippingIncomplete):
		c.JSON(http.StatusConflict, gin.H{"error": "shipping details are required first"})
	case errors.Is(err, checkout.ErrIllegalTransition):
		c.JSON(http.StatusConflict, gin.H{"error": "invalid checkout step"})
	case errors.Is(err, checkout.ErrSessionCompleted):
		c.JSON(http.StatusConflict, gin.H{"error": "checkout is already completed"})
	case errors.Is(err, checkout.ErrAttemptInFlight):
		c.JSON(http.StatusConflict, gin.H{"error": "a payment is already being processed"})
	case errors.Is(err, service.ErrStaleAttempt):
		c.JSON(http.StatusGone, gin.H{"error": "checkout session is no longer active"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "checkout failed"})
	}
}

// Start opens a checkout, answering 201 for a fresh session and 200 when
// an in-progress one is resumed.
func (h *CheckoutHandler) Start(c *gin.Context) {
	session, created, err := h.checkoutService.Start(middleware.SessionID(c))
	if err != nil {
		respondCheckoutError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"checkout": sessionView(session)})
}

func (h *CheckoutHandler) Current(c *gin.Context) {
	session, err := h.checkoutService.Current(middleware.SessionID(c))
	if err != nil {
		respondCheckoutError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"checkout": sessionView(session)})
}

func (h *CheckoutHandler) Continue(c *gin.Context) {
	session, err := h.checkoutService.Continue(middleware.SessionID(c))
	if err != nil {
		respondCheckoutError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"checkout": sessionView(session)})
}

func (h *CheckoutHandler) Back(c *gin.Context) {
	session, err := h.checkoutService.Back(middleware.SessionID(c))
	if err != nil {
		respondCheckoutError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"checkout": sessionView(session)})
}

func (h *CheckoutHandler) SubmitShipping(c *gin.Context) {
	var details checkout.ShippingDetails
	if err := c.ShouldBindJSON(&details); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, fieldErrors, err := h.checkoutService.SubmitShipping(middleware.SessionID(c), details)
	if err != nil {
		respondCheckoutError(c, err)
		return
	}

	if len(fieldErrors) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"field_errors": fieldErrors})
		return
	}

	c.JSON(http.StatusOK, gin.H{"checkout": sessionView(session)})
}

func (h *CheckoutHandler) Abandon(c *gin.Context) {
	h.checkoutService.Abandon(middleware.SessionID(c))
	c.Status(http.StatusNoContent)
}

// SubmitPayment drives one payment attempt. A card decline answers 402; any
// other gateway failure answers 502 with the generic display-safe message.
func (h *CheckoutHandler) SubmitPayment(c *gin.Context) {
	var req models.SubmitPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.checkoutService.SubmitPayment(c.Request.Context(), middleware.SessionID(c), req.SourceID)
	if err != nil {
		respondCheckoutError(c, err)
		return
	}

	switch result.Outcome {
	case checkout.OutcomeSucceeded:
		c.JSON(http.StatusOK, result)
	case checkout.OutcomeDeclined:
		c.JSON(http.StatusPaymentRequired, result)
	default:
		c.JSON(http.StatusBadGateway, result)
	}
}

// ClientConfig hands the storefront the public gateway parameters needed
// to initialize the card tokenization SDK.
func (h *CheckoutHandler) ClientConfig(c *gin.Context) {
	c.JSON(http.StatusOK, h.checkoutService.ClientConfig())
}

func (h *CheckoutHandler) GatewayHealth(c *gin.Context) {
	if err := h.checkoutService.GatewayHealth(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unreachable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
