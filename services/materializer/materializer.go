package materializer

import (
	// Go Internal Packages
	"context"
	"encoding/json"
	"fmt"
	"time"

	// Local Packages
	errors "enrollpay/errors"
	models "enrollpay/models"
	family "enrollpay/services/family"

	// External Packages
	"go.uber.org/zap"
)

type TxRepository interface {
	FindTransaction(ctx context.Context, reference string) (*models.Transaction, error)
	MarkFailed(ctx context.Context, reference string) (bool, error)
}

type DeadLetterQueue interface {
	Send(ctx context.Context, records []models.Record) error
}

// Materializer applies settled payment events: a success writes the family's
// enrollment records, a failure closes the pending transaction.
type Materializer struct {
	Logger      *zap.Logger
	TxRepo      TxRepository
	Enrollments family.EnrollmentWriter
	DLQ         DeadLetterQueue
	now         func() time.Time
}

func NewMaterializer(logger *zap.Logger, txRepo TxRepository, enrollments family.EnrollmentWriter, dlq DeadLetterQueue) *Materializer {
	return &Materializer{Logger: logger, TxRepo: txRepo, Enrollments: enrollments, DLQ: dlq, now: time.Now}
}

// ProcessRecords applies every record of a poll. Records that cannot be applied
// are handed to the dead letter queue so the rest of the batch can be committed.
func (m *Materializer) ProcessRecords(ctx context.Context, records []models.Record) error {
	if len(records) == 0 {
		return nil
	}

	var failed []models.Record
	for _, record := range records {
		if err := m.ProcessRecord(ctx, record); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			m.Logger.Error("failed to materialize payment event", zap.ByteString("key", record.Key), zap.Error(err))
			failed = append(failed, record)
		}
	}

	if len(failed) > 0 && m.DLQ != nil {
		if err := m.DLQ.Send(ctx, failed); err != nil {
			return fmt.Errorf("failed to dead letter %d records: %v", len(failed), err)
		}
	}
	return nil
}

func (m *Materializer) ProcessRecord(ctx context.Context, record models.Record) error {
	var evt models.PaymentEvent

	err := json.Unmarshal(record.Value, &evt)
	if err != nil {
		m.Logger.Error("failed to unmarshal payment event", zap.Error(err))
		return errors.InvalidBodyErr(err)
	}
	return m.Apply(ctx, evt)
}

// Apply is idempotent: redelivered events for a settled reference change nothing.
func (m *Materializer) Apply(ctx context.Context, evt models.PaymentEvent) error {
	if evt.Reference == "" {
		return errors.MissingReferenceErr()
	}
	logger := m.Logger.With(zap.String("reference", evt.Reference), zap.String("provider", evt.Provider), zap.String("event", evt.Type))

	tx, err := m.TxRepo.FindTransaction(ctx, evt.Reference)
	if errors.IsNoRows(err) {
		return errors.TransactionNotFoundErr(evt.Reference)
	}
	if err != nil {
		return errors.TransactionFetchErr(evt.Reference, err)
	}

	switch evt.Status {
	case models.TxSuccess:
		if evt.Amount != 0 && evt.Amount != tx.Amount {
			return errors.E(errors.Invalid, fmt.Sprintf("paid amount %d does not match transaction amount %d", evt.Amount, tx.Amount), nil)
		}

		f, err := tx.Family()
		if err != nil {
			return errors.E(errors.Invalid, "transaction details are not an enrollment family", err)
		}

		applied, err := family.Commit(ctx, m.Enrollments, evt.Reference, f, m.now().UTC())
		if errors.CodeOf(err) == errors.CodeTransactionSettled {
			logger.Warn("success event for a transaction closed as failed, no enrollment written", zap.Error(err))
			return err
		}
		if err != nil {
			return err
		}
		if !applied {
			logger.Info("payment already materialized")
			return nil
		}
		logger.Info("enrollment materialized", zap.Int("children", len(f.Children)))
		return nil

	case models.TxFailed:
		changed, err := m.TxRepo.MarkFailed(ctx, evt.Reference)
		if err != nil {
			return errors.E(errors.Persistence, "marking transaction failed", err)
		}
		if changed {
			logger.Info("payment marked failed")
		}
		return nil
	}

	return errors.E(errors.Invalid, fmt.Sprintf("unsupported payment status %q", evt.Status), nil)
}

// Publish applies evt in process. It stands in for the kafka producer when the
// service runs without a broker.
func (m *Materializer) Publish(ctx context.Context, evt models.PaymentEvent) error {
	if err := m.Apply(ctx, evt); err != nil {
		m.Logger.Error("failed to materialize payment event", zap.String("reference", evt.Reference), zap.Error(err))
		return err
	}
	return nil
}
