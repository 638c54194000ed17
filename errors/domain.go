package errors

import "fmt"

// Reason codes surfaced to clients.
const (
	CodeMissingReference      = "MissingReference"
	CodeTransactionNotFound   = "TransactionNotFound"
	CodeTransactionFetchError = "TransactionFetchError"
	CodePaymentFailed         = "PaymentFailed"
	CodeGatewayError          = "GatewayError"
	CodePersistenceError      = "PersistenceError"
	CodeBatchPersistenceError = "BatchPersistenceError"
	CodeDeliveryError         = "DeliveryError"
	CodeTransactionSettled    = "TransactionSettled"
)

// ErrNoRows is returned by stores when a lookup matches nothing.
var ErrNoRows = New("no rows in result set")

func MissingReferenceErr() error {
	return &Error{Kind: Invalid, Code: CodeMissingReference, Msg: "payment reference is required"}
}

func TransactionNotFoundErr(reference string) error {
	return &Error{Kind: NotFound, Code: CodeTransactionNotFound, Msg: fmt.Sprintf("no transaction for reference %q", reference)}
}

func TransactionFetchErr(reference string, err error) error {
	return &Error{Kind: Internal, Code: CodeTransactionFetchError, Msg: fmt.Sprintf("fetching transaction %q", reference), Err: err}
}

func PaymentFailedErr(reference string) error {
	return &Error{Kind: Invalid, Code: CodePaymentFailed, Msg: fmt.Sprintf("payment %q was declined", reference)}
}

func GatewayErr(msg string, err error) error {
	return &Error{Kind: Gateway, Code: CodeGatewayError, Msg: msg, Err: err}
}

func DeliveryErr(recipient string, err error) error {
	return &Error{Kind: Delivery, Code: CodeDeliveryError, Msg: fmt.Sprintf("notifying %s", recipient), Err: err}
}

// TransactionSettledErr rejects a commit for a transaction that already left pending.
func TransactionSettledErr(reference string, status string) error {
	return &Error{Kind: Conflict, Code: CodeTransactionSettled, Msg: fmt.Sprintf("transaction %q is already %s", reference, status)}
}

func BatchPersistenceErr(reference string, size int, err error) error {
	return &Error{
		Kind: Persistence,
		Code: CodeBatchPersistenceError,
		Msg:  fmt.Sprintf("writing %d enrollment records for %q", size, reference),
		Err:  err,
	}
}

// PersistenceError is returned when the gateway accepted a payment session but the
// transaction row could not be stored. The caller still holds a live
// authorization URL with no bookkeeping behind it.
type PersistenceError struct {
	Reference        string
	AuthorizationURL string
	Err              error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: storing transaction %q: %v", CodePersistenceError, e.Reference, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return &Error{Kind: Persistence, Code: CodePersistenceError, Msg: "transaction not stored", Err: e.Err}
}

// IsNoRows reports whether err means the lookup found nothing.
func IsNoRows(err error) bool {
	return Is(err, ErrNoRows)
}
