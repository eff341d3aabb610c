package gateway

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const stripeBaseURL = "https://api.stripe.com"

// Stripe talks to the Stripe PaymentIntents API.
type Stripe struct {
	client        *resty.Client
	secretKey     string
	webhookSecret string
}

// NewStripe builds a Stripe adapter from credentials.
func NewStripe(secretKey, webhookSecret string, timeout time.Duration) *Stripe {
	client := resty.New().
		SetBaseURL(stripeBaseURL).
		SetTimeout(timeout).
		SetAuthToken(secretKey)

	return &Stripe{
		client:        client,
		secretKey:     secretKey,
		webhookSecret: webhookSecret,
	}
}

type stripeIntentResponse struct {
	ID       string `json:"id"`
	Amount   uint   `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

type stripeErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// CreateOrder creates a payment intent on Stripe for the given amount.
func (s *Stripe) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	if req.Amount == 0 {
		return nil, ErrInvalidAmount
	}

	// Stripe takes form-encoded bodies and lowercase currency codes.
	form := map[string]string{
		"amount":   strconv.FormatUint(uint64(req.Amount), 10),
		"currency": strings.ToLower(req.Currency),
	}
	for key, value := range req.Notes {
		form["metadata["+key+"]"] = value
	}
	if req.Receipt != "" {
		form["metadata[receipt]"] = req.Receipt
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetFormData(form).
		Post("/v1/payment_intents")
	if err != nil {
		return nil, &Error{Provider: "stripe", Message: "payment intent creation failed", Err: err}
	}

	if resp.IsError() {
		var errResp stripeErrorResponse
		message := "payment intent rejected"
		if json.Unmarshal(resp.Body(), &errResp) == nil && errResp.Error.Message != "" {
			message = errResp.Error.Message
		}
		return nil, &Error{Provider: "stripe", StatusCode: resp.StatusCode(), Message: message}
	}

	var intentResp stripeIntentResponse
	if err := json.Unmarshal(resp.Body(), &intentResp); err != nil {
		return nil, &Error{Provider: "stripe", Message: "failed to parse intent response", Err: err}
	}

	return &Order{
		ID:       intentResp.ID,
		Amount:   intentResp.Amount,
		Currency: strings.ToUpper(intentResp.Currency),
		Receipt:  req.Receipt,
		Status:   intentResp.Status,
	}, nil
}

// VerifySignature checks the webhook signature against the webhook secret.
func (s *Stripe) VerifySignature(orderID, paymentID, signature string) bool {
	return verifySignature(s.webhookSecret, orderID, paymentID, signature)
}
