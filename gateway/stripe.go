package gateway

import (
	// Go Internal Packages
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	// Local Packages
	errors "enrollpay/errors"
	models "enrollpay/models"

	// External Packages
	stripe "github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/checkout/session"
	"github.com/stripe/stripe-go/v80/webhook"
)

// Stripe opens Checkout Sessions. The session id is used as the reference and is
// echoed back on the success URL.
type Stripe struct {
	sessions      *session.Client
	webhookSecret string
	productName   string
	now           func() time.Time
}

func NewStripe(secretKey, webhookSecret string) *Stripe {
	return &Stripe{
		sessions:      &session.Client{B: stripe.GetBackend(stripe.APIBackend), Key: secretKey},
		webhookSecret: webhookSecret,
		productName:   "Enrollment",
		now:           time.Now,
	}
}

func (s *Stripe) Name() string { return "stripe" }

func (s *Stripe) Initiate(ctx context.Context, req InitiateRequest) (*Session, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(withReferencePlaceholder(req.CallbackURL)),
		CancelURL:         stripe.String(req.CallbackURL),
		CustomerEmail:     stripe.String(req.Email),
		ClientReferenceID: stripe.String(req.OrderID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(strings.ToLower(req.Currency)),
					UnitAmount: stripe.Int64(req.AmountMinor),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(s.productName),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx
	params.AddMetadata("order_id", req.OrderID)

	cs, err := s.sessions.New(params)
	if err != nil {
		return nil, errors.GatewayErr("creating checkout session", err)
	}
	if cs.ID == "" || cs.URL == "" {
		return nil, errors.GatewayErr("malformed response: empty session id or url", nil)
	}
	return &Session{AuthorizationURL: cs.URL, Reference: cs.ID}, nil
}

func (s *Stripe) ParseWebhook(header http.Header, body []byte) (*models.PaymentEvent, error) {
	event, err := webhook.ConstructEventWithOptions(body, header.Get("Stripe-Signature"), s.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, errors.E(errors.Invalid, "invalid stripe signature", err)
	}

	var cs stripe.CheckoutSession
	var status models.TxStatus
	switch event.Type {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded":
		if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
			return nil, errors.InvalidBodyErr(err)
		}
		if cs.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
			// delayed methods settle later with async_payment_succeeded
			return nil, nil
		}
		status = models.TxSuccess
	case "checkout.session.async_payment_failed", "checkout.session.expired":
		if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
			return nil, errors.InvalidBodyErr(err)
		}
		status = models.TxFailed
	default:
		return nil, nil
	}

	return &models.PaymentEvent{
		Provider:   s.Name(),
		Type:       string(event.Type),
		Reference:  cs.ID,
		Status:     status,
		Amount:     cs.AmountTotal,
		ReceivedAt: s.now().UTC(),
	}, nil
}

func withReferencePlaceholder(callback string) string {
	sep := "?"
	if strings.Contains(callback, "?") {
		sep = "&"
	}
	return callback + sep + "reference={CHECKOUT_SESSION_ID}"
}
