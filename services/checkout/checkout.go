package checkout

import (
	// Go Internal Packages
	"context"
	"encoding/json"
	"fmt"
	"time"

	// Local Packages
	errors "enrollpay/errors"
	gateway "enrollpay/gateway"
	models "enrollpay/models"

	// External Packages
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TxWriter interface {
	InsertTransaction(ctx context.Context, tx models.Transaction) error
}

// Pricing resolves the amount owed in minor units.
type Pricing struct {
	DefaultMinor int64
	Programs     map[string]int64
}

func (p Pricing) Total(f models.Family) (int64, error) {
	var total int64
	for _, c := range f.Children {
		price, ok := p.Programs[c.ProgramSelection]
		if !ok {
			price = p.DefaultMinor
		}
		if price <= 0 {
			return 0, errors.E(errors.Invalid, fmt.Sprintf("no price configured for program %q", c.ProgramSelection), nil)
		}
		total += price
	}
	return total, nil
}

type Request struct {
	Email  string
	Family models.Family
}

type Result struct {
	AuthorizationURL string `json:"authorization_url"`
	Reference        string `json:"reference"`
	OrderID          string `json:"order_id"`
	Amount           int64  `json:"amount"`
	Currency         string `json:"currency"`
}

type Service struct {
	Logger      *zap.Logger
	Gateway     gateway.Gateway
	TxRepo      TxWriter
	Pricing     Pricing
	CallbackURL string
	Currency    string
	now         func() time.Time
	newOrderID  func() string
}

func NewService(logger *zap.Logger, gw gateway.Gateway, txRepo TxWriter, pricing Pricing, callbackURL, currency string) *Service {
	return &Service{
		Logger:      logger,
		Gateway:     gw,
		TxRepo:      txRepo,
		Pricing:     pricing,
		CallbackURL: callbackURL,
		Currency:    currency,
		now:         time.Now,
		newOrderID:  uuid.NewString,
	}
}

// Begin opens a payment session for the family and records the pending
// transaction under the gateway reference. A storage failure after the gateway
// accepted the session is returned as *errors.PersistenceError.
func (s *Service) Begin(ctx context.Context, req Request) (*Result, error) {
	if req.Email == "" {
		return nil, errors.EmptyParamErr("email")
	}
	if len(req.Family.Children) == 0 {
		return nil, errors.EmptyParamErr("children")
	}

	amount, err := s.Pricing.Total(req.Family)
	if err != nil {
		return nil, err
	}

	details, err := json.Marshal(req.Family)
	if err != nil {
		return nil, errors.InvalidBodyErr(err)
	}

	orderID := s.newOrderID()
	session, err := s.Gateway.Initiate(ctx, gateway.InitiateRequest{
		Email:       req.Email,
		AmountMinor: amount,
		Currency:    s.Currency,
		CallbackURL: s.CallbackURL,
		OrderID:     orderID,
		Draft:       details,
	})
	if err != nil {
		s.Logger.Error("payment initiation failed", zap.String("order_id", orderID), zap.Error(err))
		return nil, err
	}

	now := s.now().UTC()
	tx := models.Transaction{
		Reference: session.Reference,
		Amount:    amount,
		Currency:  s.Currency,
		Email:     req.Email,
		OrderID:   orderID,
		Provider:  s.Gateway.Name(),
		Details:   details,
		Status:    models.TxPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.TxRepo.InsertTransaction(ctx, tx); err != nil {
		s.Logger.Error("live payment session has no transaction row",
			zap.String("reference", session.Reference),
			zap.String("authorization_url", session.AuthorizationURL),
			zap.Error(err),
		)
		return nil, &errors.PersistenceError{Reference: session.Reference, AuthorizationURL: session.AuthorizationURL, Err: err}
	}

	s.Logger.Info("payment initiated",
		zap.String("reference", session.Reference),
		zap.String("order_id", orderID),
		zap.Int64("amount", amount),
		zap.Int("children", len(req.Family.Children)),
	)

	return &Result{
		AuthorizationURL: session.AuthorizationURL,
		Reference:        session.Reference,
		OrderID:          orderID,
		Amount:           amount,
		Currency:         s.Currency,
	}, nil
}
