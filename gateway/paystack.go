package gateway

import (
	// Go Internal Packages
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	// Local Packages
	errors "enrollpay/errors"
	models "enrollpay/models"
)

const paystackSignatureHeader = "X-Paystack-Signature"

type Paystack struct {
	BaseURL   string
	SecretKey string
	Client    *http.Client
	now       func() time.Time
}

func NewPaystack(baseURL, secretKey string) *Paystack {
	return &Paystack{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		SecretKey: secretKey,
		Client:    &http.Client{Timeout: 15 * time.Second},
		now:       time.Now,
	}
}

func (p *Paystack) Name() string { return "paystack" }

type paystackInitRequest struct {
	Email       string          `json:"email"`
	Amount      int64           `json:"amount"`
	Currency    string          `json:"currency,omitempty"`
	CallbackURL string          `json:"callback_url"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
}

type paystackInitResponse struct {
	Status  *bool  `json:"status"`
	Message string `json:"message"`
	Data    *struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	} `json:"data"`
}

// Initiate calls POST /transaction/initialize
func (p *Paystack) Initiate(ctx context.Context, req InitiateRequest) (*Session, error) {
	metadata, err := json.Marshal(map[string]any{"order_id": req.OrderID, "draft": req.Draft})
	if err != nil {
		return nil, errors.GatewayErr("encoding metadata", err)
	}

	body, err := json.Marshal(paystackInitRequest{
		Email:       req.Email,
		Amount:      req.AmountMinor,
		Currency:    req.Currency,
		CallbackURL: req.CallbackURL,
		Metadata:    metadata,
	})
	if err != nil {
		return nil, errors.GatewayErr("encoding request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/transaction/initialize", bytes.NewReader(body))
	if err != nil {
		return nil, errors.GatewayErr("building request", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.SecretKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.Client.Do(httpReq)
	if err != nil {
		return nil, errors.GatewayErr("calling paystack", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errors.GatewayErr("reading response", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.GatewayErr(fmt.Sprintf("paystack responded %d", resp.StatusCode), errors.New(string(raw)))
	}

	var out paystackInitResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, errors.GatewayErr("decoding response", err)
	}
	if out.Status == nil || out.Data == nil {
		return nil, errors.GatewayErr("malformed response: missing status or data", nil)
	}
	if !*out.Status {
		return nil, errors.GatewayErr("paystack declined initialization: "+out.Message, nil)
	}
	if out.Data.Reference == "" || out.Data.AuthorizationURL == "" {
		return nil, errors.GatewayErr("malformed response: empty reference or authorization url", nil)
	}

	return &Session{AuthorizationURL: out.Data.AuthorizationURL, Reference: out.Data.Reference}, nil
}

type paystackWebhook struct {
	Event string `json:"event"`
	Data  struct {
		Reference string `json:"reference"`
		Status    string `json:"status"`
		Amount    int64  `json:"amount"`
	} `json:"data"`
}

// ParseWebhook checks the HMAC-SHA512 signature computed with the secret key.
func (p *Paystack) ParseWebhook(header http.Header, body []byte) (*models.PaymentEvent, error) {
	if !p.validSignature(header.Get(paystackSignatureHeader), body) {
		return nil, errors.E(errors.Invalid, "invalid paystack signature", nil)
	}

	var hook paystackWebhook
	if err := json.Unmarshal(body, &hook); err != nil {
		return nil, errors.InvalidBodyErr(err)
	}

	var status models.TxStatus
	switch hook.Event {
	case "charge.success":
		status = models.TxSuccess
	case "charge.failed":
		status = models.TxFailed
	default:
		return nil, nil
	}
	if hook.Data.Reference == "" {
		return nil, errors.EmptyParamErr("data.reference")
	}

	return &models.PaymentEvent{
		Provider:   p.Name(),
		Type:       hook.Event,
		Reference:  hook.Data.Reference,
		Status:     status,
		Amount:     hook.Data.Amount,
		ReceivedAt: p.now().UTC(),
	}, nil
}

func (p *Paystack) validSignature(signature string, body []byte) bool {
	expected, err := hex.DecodeString(signature)
	if err != nil || len(expected) == 0 {
		return false
	}
	mac := hmac.New(sha512.New, []byte(p.SecretKey))
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), expected)
}
