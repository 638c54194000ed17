package checkout

import (
	// Go Internal Packages
	"context"
	"net/http"
	"testing"

	// Local Packages
	errors "enrollpay/errors"
	gateway "enrollpay/gateway"
	models "enrollpay/models"
	memory "enrollpay/repositories/memory"

	// External Packages
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubGateway struct {
	session *gateway.Session
	err     error
	calls   []gateway.InitiateRequest
}

func (g *stubGateway) Name() string { return "stub" }

func (g *stubGateway) Initiate(_ context.Context, req gateway.InitiateRequest) (*gateway.Session, error) {
	g.calls = append(g.calls, req)
	return g.session, g.err
}

func (g *stubGateway) ParseWebhook(http.Header, []byte) (*models.PaymentEvent, error) {
	return nil, nil
}

type failingWriter struct{ err error }

func (w failingWriter) InsertTransaction(context.Context, models.Transaction) error { return w.err }

var pricing = Pricing{DefaultMinor: 100000, Programs: map[string]int64{"Robotics": 150000}}

func siblings() models.Family {
	id := "fam-1"
	return models.Family{FamilyID: &id, Children: []models.EnrollmentDraft{
		{ChildName: "Ada", ProgramSelection: "Robotics"},
		{ChildName: "Grace", ProgramSelection: "Art"},
	}}
}

func newService(gw gateway.Gateway, w TxWriter) *Service {
	s := NewService(zap.NewNop(), gw, w, pricing, "https://school.test/verify", "NGN")
	s.newOrderID = func() string { return "order-1" }
	return s
}

func TestBeginPersistsPendingTransaction(t *testing.T) {
	gw := &stubGateway{session: &gateway.Session{AuthorizationURL: "https://pay.test/abc", Reference: "REF123"}}
	store := memory.NewStore()

	res, err := newService(gw, store).Begin(context.Background(), Request{Email: "jane@example.com", Family: siblings()})
	require.NoError(t, err)
	assert.Equal(t, "REF123", res.Reference)
	assert.Equal(t, int64(250000), res.Amount)

	require.Len(t, gw.calls, 1)
	assert.Equal(t, int64(250000), gw.calls[0].AmountMinor)
	assert.Equal(t, "https://school.test/verify", gw.calls[0].CallbackURL)

	tx, err := store.FindTransaction(context.Background(), "REF123")
	require.NoError(t, err)
	assert.Equal(t, models.TxPending, tx.Status)
	assert.Equal(t, "order-1", tx.OrderID)
	assert.Equal(t, "stub", tx.Provider)

	f, err := tx.Family()
	require.NoError(t, err)
	assert.Equal(t, siblings(), f)
}

func TestBeginGatewayError(t *testing.T) {
	gw := &stubGateway{err: errors.GatewayErr("paystack responded 500", nil)}
	store := memory.NewStore()

	_, err := newService(gw, store).Begin(context.Background(), Request{Email: "jane@example.com", Family: siblings()})
	assert.Equal(t, errors.CodeGatewayError, errors.CodeOf(err))

	var perr *errors.PersistenceError
	assert.False(t, errors.As(err, &perr))
}

func TestBeginPersistenceErrorKeepsAuthorizationURL(t *testing.T) {
	gw := &stubGateway{session: &gateway.Session{AuthorizationURL: "https://pay.test/abc", Reference: "REF123"}}

	_, err := newService(gw, failingWriter{err: errors.New("mongo unavailable")}).Begin(context.Background(), Request{Email: "jane@example.com", Family: siblings()})

	var perr *errors.PersistenceError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "REF123", perr.Reference)
	assert.Equal(t, "https://pay.test/abc", perr.AuthorizationURL)
	assert.Equal(t, errors.Persistence, errors.KindOf(err))
	assert.Equal(t, errors.CodePersistenceError, errors.CodeOf(err))
}

func TestBeginValidatesBeforeCallingGateway(t *testing.T) {
	gw := &stubGateway{}
	s := newService(gw, memory.NewStore())
	s.Pricing = Pricing{}

	_, err := s.Begin(context.Background(), Request{Family: siblings()})
	assert.Equal(t, errors.Invalid, errors.KindOf(err))

	_, err = s.Begin(context.Background(), Request{Email: "jane@example.com"})
	assert.Equal(t, errors.Invalid, errors.KindOf(err))

	_, err = s.Begin(context.Background(), Request{Email: "jane@example.com", Family: siblings()})
	assert.Equal(t, errors.Invalid, errors.KindOf(err))

	assert.Empty(t, gw.calls)
}
