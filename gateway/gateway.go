// Package gateway opens hosted payment sessions and turns provider webhooks into
// models.PaymentEvent values.
package gateway

import (
	// Go Internal Packages
	"context"
	"encoding/json"
	"net/http"

	// Local Packages
	models "enrollpay/models"
)

type InitiateRequest struct {
	Email       string
	AmountMinor int64
	Currency    string
	CallbackURL string
	OrderID     string
	Draft       json.RawMessage
}

type Session struct {
	AuthorizationURL string `json:"authorization_url"`
	Reference        string `json:"reference"`
}

type Gateway interface {
	Name() string
	Initiate(ctx context.Context, req InitiateRequest) (*Session, error)
	// ParseWebhook verifies and decodes a webhook body. It returns a nil event for
	// event types that do not settle a payment.
	ParseWebhook(header http.Header, body []byte) (*models.PaymentEvent, error)
}
