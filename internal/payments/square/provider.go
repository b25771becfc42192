package square

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"decant-store-backend/internal/payments"
)

const (
	defaultAPIBase = "https://connect.squareupsandbox.com"
	apiVersion     = "2024-02-15"
)

// Provider implements payments.Provider against the Square Payments API
// using direct HTTP calls.
type Provider struct {
	accessToken string
	locationID  string
	httpClient  *http.Client
	apiBaseURL  string
	userAgent   string
}

// NewProvider constructs a Square provider. The access token and location id
// are required; their absence is a configuration fault, not a runtime one.
func NewProvider(accessToken, locationID, apiBaseURL string) (*Provider, error) {
	token := strings.TrimSpace(accessToken)
	if token == "" {
		return nil, errors.New("square access token is required")
	}
	location := strings.TrimSpace(locationID)
	if location == "" {
		return nil, errors.New("square location id is required")
	}

	base := strings.TrimSpace(apiBaseURL)
	if base == "" {
		base = defaultAPIBase
	}

	return &Provider{
		accessToken: token,
		locationID:  location,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		apiBaseURL:  strings.TrimRight(base, "/"),
		userAgent:   "decant-store-backend/square-payments",
	}, nil
}

type amountMoney struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type createPaymentBody struct {
	SourceID       string      `json:"source_id"`
	IdempotencyKey string      `json:"idempotency_key"`
	AmountMoney    amountMoney `json:"amount_money"`
	LocationID     string      `json:"location_id"`
	Autocomplete   bool        `json:"autocomplete"`
	Note           string      `json:"note"`
}

type apiError struct {
	Category string `json:"category"`
	Code     string `json:"code"`
	Detail   string `json:"detail"`
}

type createPaymentResponse struct {
	Payment struct {
		ID         string `json:"id"`
		Status     string `json:"status"`
		ReceiptURL string `json:"receipt_url"`
	} `json:"payment"`
	Errors []apiError `json:"errors"`
}

func (p *Provider) newRequest(ctx context.Context, method, path string, body []byte) (*http.Request, error) {
	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.apiBaseURL+path, reader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Square-Version", apiVersion)
	req.Header.Set("Authorization", "Bearer "+p.accessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", p.userAgent)

	return req, nil
}

// CreatePayment submits one charge attempt. Business rejections come back as
// *payments.GatewayError carrying the vendor code; transport and decoding
// problems are returned as plain errors and read as the generic failure.
func (p *Provider) CreatePayment(ctx context.Context, request payments.Request) (*payments.Payment, error) {
	if p == nil {
		return nil, errors.New("square provider is not configured")
	}

	if request.SourceID == "" {
		return nil, errors.New("payment source id is required")
	}
	if request.AmountCents <= 0 {
		return nil, fmt.Errorf("invalid payment amount: %d", request.AmountCents)
	}
	if request.IdempotencyKey == "" {
		return nil, errors.New("idempotency key is required")
	}

	locationID := request.LocationID
	if locationID == "" {
		locationID = p.locationID
	}

	body, err := json.Marshal(createPaymentBody{
		SourceID:       request.SourceID,
		IdempotencyKey: request.IdempotencyKey,
		AmountMoney: amountMoney{
			Amount:   request.AmountCents,
			Currency: strings.ToUpper(request.Currency),
		},
		LocationID:   locationID,
		Autocomplete: true,
		Note:         "Online store purchase",
	})
	if err != nil {
		return nil, err
	}

	req, err := p.newRequest(ctx, http.MethodPost, "/v2/payments", body)
	if err != nil {
		return nil, err
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("square request failed: %w", err)
	}
	defer resp.Body.Close()

	var payload createPaymentResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("square response decode failed: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, convertAPIError(resp.StatusCode, payload.Errors)
	}

	if payload.Payment.ID == "" {
		return nil, errors.New("square response missing payment details")
	}

	return &payments.Payment{
		ID:         payload.Payment.ID,
		Status:     payload.Payment.Status,
		ReceiptURL: payload.Payment.ReceiptURL,
	}, nil
}

// Health verifies the configured location is reachable with the held
// credentials.
func (p *Provider) Health(ctx context.Context) error {
	if p == nil {
		return errors.New("square provider is not configured")
	}

	req, err := p.newRequest(ctx, http.MethodGet, "/v2/locations/"+p.locationID, nil)
	if err != nil {
		return err
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("square request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var payload struct {
			Errors []apiError `json:"errors"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && len(payload.Errors) > 0 {
			return convertAPIError(resp.StatusCode, payload.Errors)
		}
		return fmt.Errorf("square returned status %d", resp.StatusCode)
	}

	return nil
}

func convertAPIError(status int, apiErrors []apiError) error {
	if len(apiErrors) == 0 {
		return fmt.Errorf("square returned status %d", status)
	}

	first := apiErrors[0]
	if first.Code == "" {
		return fmt.Errorf("square returned status %d: %s", status, first.Detail)
	}

	return &payments.GatewayError{
		Code:   first.Code,
		Detail: first.Detail,
	}
}
