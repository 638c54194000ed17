package models

import (
	// Go Internal Packages
	"encoding/json"
	"time"
)

type TxStatus string

const (
	TxPending TxStatus = "pending"
	TxSuccess TxStatus = "success"
	TxFailed  TxStatus = "failed"
)

// Transaction is the bookkeeping row written right after a payment session is
// opened. Reference is the gateway issued id and the join key for enrollments.
type Transaction struct {
	Reference string          `json:"reference"`
	Amount    int64           `json:"amount"`
	Currency  string          `json:"currency"`
	Email     string          `json:"email"`
	OrderID   string          `json:"order_id"`
	Provider  string          `json:"provider"`
	Details   json.RawMessage `json:"details"`
	Status    TxStatus        `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type MongoTransaction struct {
	Reference string    `bson:"_id"`
	Amount    int64     `bson:"amount"`
	Currency  string    `bson:"currency"`
	Email     string    `bson:"email"`
	OrderID   string    `bson:"order_id"`
	Provider  string    `bson:"provider"`
	Details   string    `bson:"details"`
	Status    string    `bson:"status"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func (t *Transaction) Transform() MongoTransaction {
	return MongoTransaction{
		Reference: t.Reference,
		Amount:    t.Amount,
		Currency:  t.Currency,
		Email:     t.Email,
		OrderID:   t.OrderID,
		Provider:  t.Provider,
		Details:   string(t.Details),
		Status:    string(t.Status),
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func (m *MongoTransaction) Transaction() Transaction {
	tx := Transaction{
		Reference: m.Reference,
		Amount:    m.Amount,
		Currency:  m.Currency,
		Email:     m.Email,
		OrderID:   m.OrderID,
		Provider:  m.Provider,
		Status:    TxStatus(m.Status),
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	if m.Details != "" {
		tx.Details = json.RawMessage(m.Details)
	}
	return tx
}

// Family decodes the details payload stored with the transaction.
func (t *Transaction) Family() (Family, error) {
	var f Family
	if len(t.Details) == 0 {
		return f, nil
	}
	err := json.Unmarshal(t.Details, &f)
	return f, err
}
