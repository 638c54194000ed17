package models

import "time"

// PaymentEvent is the normalized form of a gateway webhook, published to the
// payment events topic keyed by Reference.
type PaymentEvent struct {
	Provider   string    `json:"provider"`
	Type       string    `json:"type"`
	Reference  string    `json:"reference"`
	Status     TxStatus  `json:"status"`
	Amount     int64     `json:"amount"`
	ReceivedAt time.Time `json:"received_at"`
}
