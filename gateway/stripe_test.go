package gateway

import (
	// Go Internal Packages
	"net/http"
	"testing"
	"time"

	// Local Packages
	errors "enrollpay/errors"
	models "enrollpay/models"

	// External Packages
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v80/webhook"
)

func signedStripeHeader(secret string, body []byte) http.Header {
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   body,
		Secret:    secret,
		Timestamp: time.Now(),
	})
	header := http.Header{}
	header.Set("Stripe-Signature", signed.Header)
	return header
}

func TestStripeParseWebhook(t *testing.T) {
	s := NewStripe("sk_test", "whsec_test")

	tests := []struct {
		name   string
		body   string
		want   *models.PaymentEvent
		ignore bool
	}{
		{
			name: "paid session settles",
			body: `{"id":"evt_1","object":"event","type":"checkout.session.completed","data":{"object":{"id":"cs_test_1","object":"checkout.session","payment_status":"paid","amount_total":5000}}}`,
			want: &models.PaymentEvent{Reference: "cs_test_1", Status: models.TxSuccess, Amount: 5000},
		},
		{
			name:   "unpaid session waits for async result",
			body:   `{"id":"evt_2","object":"event","type":"checkout.session.completed","data":{"object":{"id":"cs_test_2","object":"checkout.session","payment_status":"unpaid"}}}`,
			ignore: true,
		},
		{
			name: "expired session fails",
			body: `{"id":"evt_3","object":"event","type":"checkout.session.expired","data":{"object":{"id":"cs_test_3","object":"checkout.session","payment_status":"unpaid"}}}`,
			want: &models.PaymentEvent{Reference: "cs_test_3", Status: models.TxFailed},
		},
		{
			name:   "unrelated event",
			body:   `{"id":"evt_4","object":"event","type":"customer.created","data":{"object":{"id":"cus_1","object":"customer"}}}`,
			ignore: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := []byte(tt.body)
			evt, err := s.ParseWebhook(signedStripeHeader("whsec_test", body), body)
			require.NoError(t, err)
			if tt.ignore {
				assert.Nil(t, evt)
				return
			}
			require.NotNil(t, evt)
			assert.Equal(t, "stripe", evt.Provider)
			assert.Equal(t, tt.want.Reference, evt.Reference)
			assert.Equal(t, tt.want.Status, evt.Status)
			assert.Equal(t, tt.want.Amount, evt.Amount)
		})
	}
}

func TestStripeParseWebhookRejectsBadSignature(t *testing.T) {
	body := []byte(`{"id":"evt_1","object":"event","type":"checkout.session.completed","data":{"object":{"id":"cs_1"}}}`)
	_, err := NewStripe("sk_test", "whsec_test").ParseWebhook(signedStripeHeader("whsec_other", body), body)
	assert.Equal(t, errors.Invalid, errors.KindOf(err))
}

func TestWithReferencePlaceholder(t *testing.T) {
	assert.Equal(t, "https://a.test/verify?reference={CHECKOUT_SESSION_ID}", withReferencePlaceholder("https://a.test/verify"))
	assert.Equal(t, "https://a.test/verify?x=1&reference={CHECKOUT_SESSION_ID}", withReferencePlaceholder("https://a.test/verify?x=1"))
}
