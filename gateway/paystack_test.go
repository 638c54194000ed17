package gateway

import (
	// Go Internal Packages
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	// Local Packages
	errors "enrollpay/errors"
	models "enrollpay/models"

	// External Packages
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paystackServer(t *testing.T, status int, body string) (*httptest.Server, *map[string]any) {
	t.Helper()
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transaction/initialize", r.URL.Path)
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &got)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func initReq() InitiateRequest {
	return InitiateRequest{
		Email:       "parent@example.com",
		AmountMinor: 250000,
		CallbackURL: "https://school.test/verify",
		OrderID:     "order-1",
		Draft:       json.RawMessage(`{"children":[{"child_name":"Ada"}]}`),
	}
}

func TestPaystackInitiate(t *testing.T) {
	srv, got := paystackServer(t, http.StatusOK,
		`{"status":true,"message":"ok","data":{"authorization_url":"https://checkout.paystack.com/abc","access_code":"abc","reference":"REF123"}}`)

	session, err := NewPaystack(srv.URL, "sk_test").Initiate(context.Background(), initReq())
	require.NoError(t, err)
	assert.Equal(t, "REF123", session.Reference)
	assert.Equal(t, "https://checkout.paystack.com/abc", session.AuthorizationURL)

	assert.Equal(t, "parent@example.com", (*got)["email"])
	assert.EqualValues(t, 250000, (*got)["amount"])
	assert.Equal(t, "https://school.test/verify", (*got)["callback_url"])
}

func TestPaystackInitiateFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "non 2xx", status: http.StatusUnauthorized, body: `{"status":false,"message":"Invalid key"}`},
		{name: "missing data", status: http.StatusOK, body: `{"status":true,"message":"ok"}`},
		{name: "missing status", status: http.StatusOK, body: `{"data":{"reference":"R","authorization_url":"u"}}`},
		{name: "not json", status: http.StatusOK, body: `<html>`},
		{name: "declined", status: http.StatusOK, body: `{"status":false,"message":"nope","data":{}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := paystackServer(t, tt.status, tt.body)
			_, err := NewPaystack(srv.URL, "sk_test").Initiate(context.Background(), initReq())
			require.Error(t, err)
			assert.Equal(t, errors.Gateway, errors.KindOf(err))
			assert.Equal(t, errors.CodeGatewayError, errors.CodeOf(err))
		})
	}
}

func sign(secret string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestPaystackParseWebhook(t *testing.T) {
	p := NewPaystack("https://api.paystack.co", "sk_test")

	body := []byte(`{"event":"charge.success","data":{"reference":"REF123","status":"success","amount":250000}}`)
	header := http.Header{}
	header.Set(paystackSignatureHeader, sign("sk_test", body))

	evt, err := p.ParseWebhook(header, body)
	require.NoError(t, err)
	require.NotNil(t, evt)
	assert.Equal(t, "REF123", evt.Reference)
	assert.Equal(t, models.TxSuccess, evt.Status)
	assert.Equal(t, int64(250000), evt.Amount)

	header.Set(paystackSignatureHeader, sign("other", body))
	_, err = p.ParseWebhook(header, body)
	assert.Equal(t, errors.Invalid, errors.KindOf(err))

	ignored := []byte(`{"event":"transfer.success","data":{"reference":"T1"}}`)
	header.Set(paystackSignatureHeader, sign("sk_test", ignored))
	evt, err = p.ParseWebhook(header, ignored)
	require.NoError(t, err)
	assert.Nil(t, evt)
}
