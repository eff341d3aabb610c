package gateway

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-resty/resty/v2"
)

const razorpayBaseURL = "https://api.razorpay.com"

// Razorpay talks to the Razorpay Orders API.
type Razorpay struct {
	client    *resty.Client
	keyID     string
	keySecret string
}

// NewRazorpay builds a Razorpay adapter from credentials.
func NewRazorpay(keyID, keySecret string, timeout time.Duration) *Razorpay {
	client := resty.New().
		SetBaseURL(razorpayBaseURL).
		SetTimeout(timeout).
		SetBasicAuth(keyID, keySecret)

	return &Razorpay{
		client:    client,
		keyID:     keyID,
		keySecret: keySecret,
	}
}

type razorpayOrderResponse struct {
	ID       string `json:"id"`
	Amount   uint   `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

type razorpayErrorResponse struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// CreateOrder creates an order on Razorpay for the given amount.
func (r *Razorpay) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	if req.Amount == 0 {
		return nil, ErrInvalidAmount
	}

	body := map[string]interface{}{
		"amount":   req.Amount,
		"currency": req.Currency,
		"receipt":  req.Receipt,
	}
	if len(req.Notes) > 0 {
		body["notes"] = req.Notes
	}

	resp, err := r.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post("/v1/orders")
	if err != nil {
		return nil, &Error{Provider: "razorpay", Message: "order creation failed", Err: err}
	}

	if resp.IsError() {
		var errResp razorpayErrorResponse
		message := "order rejected"
		if json.Unmarshal(resp.Body(), &errResp) == nil && errResp.Error.Description != "" {
			message = errResp.Error.Description
		}
		return nil, &Error{Provider: "razorpay", StatusCode: resp.StatusCode(), Message: message}
	}

	var orderResp razorpayOrderResponse
	if err := json.Unmarshal(resp.Body(), &orderResp); err != nil {
		return nil, &Error{Provider: "razorpay", Message: "failed to parse order response", Err: err}
	}

	return &Order{
		ID:       orderResp.ID,
		Amount:   orderResp.Amount,
		Currency: orderResp.Currency,
		Receipt:  orderResp.Receipt,
		Status:   orderResp.Status,
	}, nil
}

// VerifySignature checks the Razorpay checkout callback signature.
func (r *Razorpay) VerifySignature(orderID, paymentID, signature string) bool {
	return verifySignature(r.keySecret, orderID, paymentID, signature)
}
