package notify

import (
	// Go Internal Packages
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	// Local Packages
	errors "enrollpay/errors"

	// External Packages
	"go.uber.org/zap"
)

type emailRequest struct {
	RecipientName  string `json:"recipientName"`
	RecipientEmail string `json:"recipientEmail"`
	Message        string `json:"message"`
}

// HTTPNotifier posts the rendered message to an email relay endpoint.
type HTTPNotifier struct {
	URL    string
	Client *http.Client
	Logger *zap.Logger
}

func NewHTTPNotifier(url string, logger *zap.Logger) *HTTPNotifier {
	return &HTTPNotifier{URL: url, Client: &http.Client{Timeout: 10 * time.Second}, Logger: logger}
}

func (n *HTTPNotifier) Notify(ctx context.Context, recipientEmail string, data TemplateData) error {
	message, err := Render(data)
	if err != nil {
		return errors.DeliveryErr(recipientEmail, err)
	}

	body, err := json.Marshal(emailRequest{RecipientName: data.ParentName, RecipientEmail: recipientEmail, Message: message})
	if err != nil {
		return errors.DeliveryErr(recipientEmail, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.URL, bytes.NewReader(body))
	if err != nil {
		return errors.DeliveryErr(recipientEmail, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.Client.Do(req)
	if err != nil {
		return errors.DeliveryErr(recipientEmail, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.DeliveryErr(recipientEmail, fmt.Errorf("relay responded %d: %s", resp.StatusCode, snippet))
	}

	n.Logger.Info("confirmation email sent", zap.String("reference", data.Reference), zap.String("recipient", recipientEmail))
	return nil
}
