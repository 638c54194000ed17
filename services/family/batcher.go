package family

import (
	// Go Internal Packages
	"context"
	"slices"
	"sync"
	"time"

	// Local Packages
	errors "enrollpay/errors"
	models "enrollpay/models"

	// External Packages
	"github.com/google/uuid"
)

// Batcher collects sibling drafts for one enrollment session. Nothing is written
// while siblings are being added.
type Batcher struct {
	mu       sync.Mutex
	familyID *string
	pending  []models.EnrollmentDraft
	newID    func() string
}

func NewBatcher() *Batcher {
	return &Batcher{newID: uuid.NewString}
}

// Add queues draft when more is true and returns nil. When more is false it returns
// the complete family, stamped with one family id, and resets the batcher.
func (b *Batcher) Add(draft models.EnrollmentDraft, more bool) *models.Family {
	b.mu.Lock()
	defer b.mu.Unlock()

	if more {
		if b.familyID == nil {
			id := b.newID()
			b.familyID = &id
		}
		b.pending = append(b.pending, draft)
		return nil
	}

	f := &models.Family{
		FamilyID: b.familyID,
		Children: append(slices.Clone(b.pending), draft),
	}
	b.familyID = nil
	b.pending = nil
	return f
}

// Restore puts a family returned by Add back as pending, minus its final child,
// so a failed checkout can be resubmitted with the same final draft. Siblings
// added since then stay queued after the restored ones.
func (b *Batcher) Restore(f models.Family) {
	if len(f.Children) <= 1 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	b.familyID = f.FamilyID
	b.pending = append(slices.Clone(f.Children[:len(f.Children)-1]), b.pending...)
}

// Pending returns the queued drafts and the family id, if one was assigned.
func (b *Batcher) Pending() ([]models.EnrollmentDraft, *string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.pending), b.familyID
}

type EnrollmentWriter interface {
	CommitEnrollments(ctx context.Context, reference string, records []models.EnrollmentRecord) (bool, error)
}

// Commit writes every child of f under reference as one atomic batch. Any failure
// is reported as a BatchPersistenceError and nothing of the family is kept, so the
// whole commit is retried rather than resumed.
func Commit(ctx context.Context, w EnrollmentWriter, reference string, f models.Family, now time.Time) (bool, error) {
	if reference == "" {
		return false, errors.MissingReferenceErr()
	}
	if len(f.Children) == 0 {
		return false, errors.EmptyParamErr("children")
	}

	records := f.Records(reference, now)
	applied, err := w.CommitEnrollments(ctx, reference, records)
	if errors.IsNoRows(err) {
		return false, errors.TransactionNotFoundErr(reference)
	}
	if errors.CodeOf(err) == errors.CodeTransactionSettled {
		return false, err
	}
	if err != nil {
		return false, errors.BatchPersistenceErr(reference, len(records), err)
	}
	return applied, nil
}
