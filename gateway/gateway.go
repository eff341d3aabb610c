package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"lms/config"
)

// ErrInvalidAmount is returned before any network call when an order is
// requested for a zero amount.
var ErrInvalidAmount = errors.New("order amount must be greater than zero")

// Order is the provider-side order created to collect a payment.
type Order struct {
	ID       string `json:"id"`
	Amount   uint   `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// OrderRequest carries the inputs for creating a gateway order.
type OrderRequest struct {
	Amount   uint // smallest currency unit
	Currency string
	Receipt  string
	Notes    map[string]string
}

// Gateway is the capability set every payment provider must offer.
type Gateway interface {
	// CreateOrder creates a provider-side order to collect the given amount.
	CreateOrder(ctx context.Context, req OrderRequest) (*Order, error)
	// VerifySignature checks the callback signature for (orderID, paymentID).
	// A mismatch is a plain false, never an error.
	VerifySignature(orderID, paymentID, signature string) bool
}

// Error wraps a provider failure (unreachable, timeout, or rejected request).
type Error struct {
	Provider   string
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s gateway error: %s: %v", e.Provider, e.Message, e.Err)
	}
	return fmt.Sprintf("%s gateway error (%d): %s", e.Provider, e.StatusCode, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds the configured gateway variant. Called once at startup; the
// returned adapter is stateless and shared by injection, not via globals.
func New(cfg *config.Config) (Gateway, error) {
	switch cfg.PaymentProvider {
	case "razorpay":
		return NewRazorpay(cfg.RazorpayKeyID, cfg.RazorpayKeySecret, cfg.GatewayTimeout), nil
	case "stripe":
		return NewStripe(cfg.StripeSecretKey, cfg.StripeWebhookSecret, cfg.GatewayTimeout), nil
	default:
		return nil, fmt.Errorf("unknown payment provider: %q", cfg.PaymentProvider)
	}
}

// verifySignature computes HMAC-SHA256 over "orderID|paymentID" keyed by the
// shared secret and compares the hex digest in constant time.
func verifySignature(secret, orderID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
