package payments

import (
	"context"
	"errors"
)

// Known gateway decline codes. Anything outside this set is reported through
// the generic failure message.
const (
	CodeCardDeclined      = "CARD_DECLINED"
	CodeGenericDecline    = "GENERIC_DECLINE"
	CodeInvalidExpiration = "INVALID_EXPIRATION"
	CodeCVVFailure        = "CVV_FAILURE"
	CodeInsufficientFunds = "INSUFFICIENT_FUNDS"
	CodeUnauthorized      = "UNAUTHORIZED"
)

// GenericFailureMessage is the display-safe fallback for unrecognized gateway
// errors and transport failures.
const GenericFailureMessage = "Payment failed. Please try again."

var userMessages = map[string]string{
	CodeCardDeclined:      "Your card was declined. Please try a different card.",
	CodeGenericDecline:    "Your card was declined. Please try a different card.",
	CodeInvalidExpiration: "The card expiration date is invalid.",
	CodeCVVFailure:        "The card security code is invalid.",
	CodeInsufficientFunds: "The card has insufficient funds.",
	CodeUnauthorized:      "The payment was not authorized.",
}

// Request carries a single payment attempt. AmountCents is captured at
// submission time and never recomputed mid-flight; IdempotencyKey is freshly
// minted for every attempt, retries included.
type Request struct {
	SourceID       string
	AmountCents    int64
	Currency       string
	LocationID     string
	IdempotencyKey string
}

// Payment is the gateway's record of a completed charge.
type Payment struct {
	ID         string
	Status     string
	ReceiptURL string
}

// Provider is the payment gateway collaborator. The raw wire protocol stays
// behind this interface; callers only see Payment or a GatewayError.
type Provider interface {
	CreatePayment(ctx context.Context, req Request) (*Payment, error)
	Health(ctx context.Context) error
}

// GatewayError is a business-level rejection from the gateway, carrying the
// vendor code so distinct decline reasons are never conflated.
type GatewayError struct {
	Code   string
	Detail string
}

func (e *GatewayError) Error() string {
	if e.Detail != "" {
		return "gateway rejected payment: " + e.Code + ": " + e.Detail
	}
	return "gateway rejected payment: " + e.Code
}

// IsDecline reports whether the error is a card decline, which surfaces as
// HTTP 402 at the API boundary.
func (e *GatewayError) IsDecline() bool {
	return e.Code == CodeCardDeclined || e.Code == CodeGenericDecline
}

// UserMessage maps the vendor code to display-safe copy. Unknown codes fall
// back to the generic failure message so no raw gateway detail reaches the
// user.
func (e *GatewayError) UserMessage() string {
	if msg, ok := userMessages[e.Code]; ok {
		return msg
	}
	return GenericFailureMessage
}

// UserMessage converts any payment-path error into display-safe copy.
func UserMessage(err error) string {
	var gatewayErr *GatewayError
	if errors.As(err, &gatewayErr) {
		return gatewayErr.UserMessage()
	}
	return GenericFailureMessage
}

// IsDecline reports whether err is a card decline.
func IsDecline(err error) bool {
	var gatewayErr *GatewayError
	return errors.As(err, &gatewayErr) && gatewayErr.IsDecline()
}
