package reconcile

import (
	// Go Internal Packages
	"context"
	"strings"
	"time"

	// Local Packages
	errors "enrollpay/errors"
	models "enrollpay/models"
	notify "enrollpay/notify"

	// External Packages
	"go.uber.org/zap"
)

type TransactionReader interface {
	FindTransaction(ctx context.Context, reference string) (*models.Transaction, error)
}

type EnrollmentReader interface {
	FindEnrollments(ctx context.Context, reference string) ([]models.EnrollmentRecord, error)
}

type Notifier interface {
	Notify(ctx context.Context, recipientEmail string, data notify.TemplateData) error
}

// OnceGuard grants a single dispatch per reference.
type OnceGuard interface {
	Acquire(ctx context.Context, reference string) (bool, error)
}

type Recorder interface {
	ObserveOutcome(state State, reason string, attempts int)
	ObserveNotification(err error)
}

// Progress is reported after every empty poll, before sleeping.
type Progress struct {
	Reference   string
	Attempt     int
	MaxAttempts int
	NextDelay   time.Duration
}

type Option func(*runConfig)

type runConfig struct {
	policy   Policy
	progress func(Progress)
}

// WithMaxAttempts overrides the attempt budget of a single run.
func WithMaxAttempts(n int) Option {
	return func(c *runConfig) {
		if n > 0 {
			c.policy.MaxAttempts = n
		}
	}
}

func WithProgress(fn func(Progress)) Option {
	return func(c *runConfig) { c.progress = fn }
}

const notifyTimeout = 30 * time.Second

type Poller struct {
	Logger       *zap.Logger
	Transactions TransactionReader
	Enrollments  EnrollmentReader
	Notifier     Notifier
	Guard        OnceGuard
	Policy       Policy
	Clock        Clock
	Metrics      Recorder
}

func NewPoller(logger *zap.Logger, txs TransactionReader, enrollments EnrollmentReader, notifier Notifier, guard OnceGuard, policy Policy) *Poller {
	return &Poller{
		Logger:       logger,
		Transactions: txs,
		Enrollments:  enrollments,
		Notifier:     notifier,
		Guard:        guard,
		Policy:       policy,
		Clock:        RealClock,
	}
}

// Reconcile drives one reference from START to a terminal state. The returned
// error is non-nil only when ctx ended first; the outcome then carries the last
// non terminal state reached.
func (p *Poller) Reconcile(ctx context.Context, reference string, opts ...Option) (Outcome, error) {
	cfg := runConfig{policy: p.Policy}
	for _, opt := range opts {
		opt(&cfg)
	}

	s := session{
		reference:   strings.TrimSpace(reference),
		state:       StateStart,
		maxAttempts: max(cfg.policy.MaxAttempts, 1),
	}

	for !s.state.Terminal() {
		var err error
		if s, err = p.step(ctx, s, cfg); err != nil {
			p.Logger.Info("reconciliation abandoned", zap.String("reference", s.reference), zap.Int("attempt", s.attempt), zap.Error(err))
			return s.outcome(), err
		}
	}

	if s.state == StateResolved {
		s = p.onResolved(ctx, s)
	}
	p.observe(s)
	return s.outcome(), nil
}

func (p *Poller) step(ctx context.Context, s session, cfg runConfig) (session, error) {
	switch s.state {
	case StateStart:
		if s.reference == "" {
			return s.fail(errors.MissingReferenceErr()), nil
		}
		s.state = StatePolling
		return s, nil

	case StatePolling:
		if err := ctx.Err(); err != nil {
			return s, err
		}
		s.attempt++

		tx, err := p.Transactions.FindTransaction(ctx, s.reference)
		switch {
		case errors.IsNoRows(err):
			return s.fail(errors.TransactionNotFoundErr(s.reference)), nil
		case err != nil:
			if ctxErr := ctx.Err(); ctxErr != nil {
				return s, ctxErr
			}
			return s.fail(errors.TransactionFetchErr(s.reference, err)), nil
		}
		s.tx = tx
		if tx.Status == models.TxFailed {
			return s.fail(errors.PaymentFailedErr(s.reference)), nil
		}

		records, err := p.Enrollments.FindEnrollments(ctx, s.reference)
		if err != nil && !errors.IsNoRows(err) {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return s, ctxErr
			}
			p.Logger.Warn("enrollment lookup failed, will retry", zap.String("reference", s.reference), zap.Int("attempt", s.attempt), zap.Error(err))
			records = nil
		}
		if len(records) > 0 {
			s.records = records
			s.state = StateResolved
			return s, nil
		}

		if s.attempt >= s.maxAttempts {
			s.state = StateExhausted
			return s, nil
		}

		delay := cfg.policy.Delay(s.attempt)
		if cfg.progress != nil {
			cfg.progress(Progress{Reference: s.reference, Attempt: s.attempt, MaxAttempts: s.maxAttempts, NextDelay: delay})
		}
		p.Logger.Debug("enrollment not materialized yet", zap.String("reference", s.reference), zap.Int("attempt", s.attempt), zap.Duration("next_delay", delay))
		return s, p.sleep(ctx, delay)
	}
	return s, nil
}

func (p *Poller) sleep(ctx context.Context, d time.Duration) error {
	t := p.Clock.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C():
		return nil
	}
}

// onResolved is the entry action of RESOLVED. A delivery failure is kept on the
// outcome and never changes the state.
func (p *Poller) onResolved(ctx context.Context, s session) session {
	logger := p.Logger.With(zap.String("reference", s.reference))

	recipient := s.recipient()
	if recipient == "" {
		logger.Warn("no recipient for confirmation")
		return s
	}

	acquired, err := p.Guard.Acquire(ctx, s.reference)
	if err != nil {
		logger.Error("notification guard unavailable, skipping confirmation", zap.Error(err))
		s.notifyErr = err
		return s
	}
	if !acquired {
		logger.Debug("confirmation already dispatched")
		return s
	}

	// the token is spent, so the send must not die with the waiting client
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	err = p.Notifier.Notify(sendCtx, recipient, s.templateData())
	if p.Metrics != nil {
		p.Metrics.ObserveNotification(err)
	}
	if err != nil {
		logger.Error("confirmation delivery failed", zap.String("recipient", recipient), zap.Error(err))
		s.notifyErr = err
		return s
	}
	s.notified = true
	return s
}

func (p *Poller) observe(s session) {
	logger := p.Logger.With(
		zap.String("reference", s.reference),
		zap.String("state", string(s.state)),
		zap.Int("attempts", s.attempt),
	)
	switch s.state {
	case StateResolved:
		logger.Info("enrollment reconciled", zap.Int("records", len(s.records)), zap.Bool("notified", s.notified))
	case StateExhausted:
		logger.Warn("enrollment still pending after retry budget")
	case StateFailed:
		logger.Warn("reconciliation failed", zap.String("reason", errors.CodeOf(s.err)), zap.Error(s.err))
	}

	if p.Metrics != nil {
		p.Metrics.ObserveOutcome(s.state, errors.CodeOf(s.err), s.attempt)
	}
}
