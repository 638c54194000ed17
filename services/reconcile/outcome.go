package reconcile

import (
	// Go Internal Packages
	"fmt"
	"slices"

	// Local Packages
	errors "enrollpay/errors"
	models "enrollpay/models"
	notify "enrollpay/notify"
)

type State string

const (
	StateStart     State = "START"
	StatePolling   State = "POLLING"
	StateResolved  State = "RESOLVED"
	StateFailed    State = "FAILED"
	StateExhausted State = "EXHAUSTED"
)

func (s State) Terminal() bool {
	return s == StateResolved || s == StateFailed || s == StateExhausted
}

// session is the per reference machine state. It is passed by value between steps.
type session struct {
	reference   string
	state       State
	attempt     int
	maxAttempts int

	tx        *models.Transaction
	records   []models.EnrollmentRecord
	err       error
	notified  bool
	notifyErr error
}

func (s session) fail(err error) session {
	s.state = StateFailed
	s.err = err
	return s
}

func (s session) recipient() string {
	if s.tx != nil && s.tx.Email != "" {
		return s.tx.Email
	}
	for _, r := range s.records {
		if r.ParentEmail != "" {
			return r.ParentEmail
		}
	}
	return ""
}

func (s session) templateData() notify.TemplateData {
	data := notify.TemplateData{Reference: s.reference}
	if s.tx != nil {
		data.Amount = s.tx.Amount
		data.Currency = s.tx.Currency
	}
	for _, r := range s.records {
		if data.ParentName == "" {
			data.ParentName = r.ParentName
		}
		data.Children = append(data.Children, r.ChildName)
		if r.ProgramSelection != "" && !slices.Contains(data.Programs, r.ProgramSelection) {
			data.Programs = append(data.Programs, r.ProgramSelection)
		}
	}
	return data
}

func (s session) outcome() Outcome {
	return Outcome{
		Reference:   s.reference,
		State:       s.state,
		Reason:      errors.CodeOf(s.err),
		Err:         s.err,
		Attempts:    s.attempt,
		MaxAttempts: s.maxAttempts,
		Transaction: s.tx,
		Records:     s.records,
		Notified:    s.notified,
		NotifyErr:   s.notifyErr,
	}
}

// Outcome is what a caller gets back from Reconcile.
type Outcome struct {
	Reference   string                    `json:"reference"`
	State       State                     `json:"state"`
	Reason      string                    `json:"reason,omitempty"`
	Err         error                     `json:"-"`
	Attempts    int                       `json:"attempts"`
	MaxAttempts int                       `json:"max_attempts"`
	Transaction *models.Transaction       `json:"-"`
	Records     []models.EnrollmentRecord `json:"records,omitempty"`
	Notified    bool                      `json:"notified"`
	NotifyErr   error                     `json:"-"`
}

// Message is the text shown to the person waiting on the result.
func (o Outcome) Message() string {
	switch o.State {
	case StateResolved:
		return "Payment confirmed. Your enrollment is complete."
	case StateExhausted:
		return fmt.Sprintf("Your payment is still being processed. If you do not receive a confirmation soon, contact support with reference %s.", o.Reference)
	case StateFailed:
		switch o.Reason {
		case errors.CodeMissingReference:
			return "No payment reference was provided. Please return to the payment page and try again."
		case errors.CodeTransactionNotFound:
			return "We could not find a payment with this reference. Please check the link or start a new enrollment."
		case errors.CodePaymentFailed:
			return "The payment was not completed. No enrollment was created; please try again."
		default:
			return fmt.Sprintf("We could not verify your payment right now. Please contact support with reference %s.", o.Reference)
		}
	}
	return fmt.Sprintf("Verifying payment (attempt %d of %d)...", o.Attempts, o.MaxAttempts)
}
