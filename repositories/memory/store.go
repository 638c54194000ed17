package memory

import (
	// Go Internal Packages
	"context"
	"slices"
	"sync"
	"time"

	// Local Packages
	errors "enrollpay/errors"
	models "enrollpay/models"
)

// Store keeps transactions and enrollments in process. It backs local runs with
// store.driver=memory and the package tests of the services.
type Store struct {
	mu           sync.RWMutex
	transactions map[string]models.Transaction
	enrollments  map[string][]models.EnrollmentRecord

	// RowHook runs for every staged enrollment row before a commit. Returning an
	// error aborts the whole commit.
	RowHook func(i int, record models.EnrollmentRecord) error
	now     func() time.Time
}

func NewStore() *Store {
	return &Store{
		transactions: make(map[string]models.Transaction),
		enrollments:  make(map[string][]models.EnrollmentRecord),
		now:          time.Now,
	}
}

func (s *Store) InsertTransaction(_ context.Context, tx models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.transactions[tx.Reference]; exists {
		return errors.ConflictErr("transactions", tx.Reference, nil)
	}
	s.transactions[tx.Reference] = tx
	return nil
}

func (s *Store) FindTransaction(_ context.Context, reference string) (*models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, ok := s.transactions[reference]
	if !ok {
		return nil, errors.ErrNoRows
	}
	return &tx, nil
}

func (s *Store) FindEnrollments(_ context.Context, reference string) ([]models.EnrollmentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.enrollments[reference]), nil
}

// CommitEnrollments writes every record and flips a pending transaction to success,
// or changes nothing. It returns false when the reference was already materialized
// and a TransactionSettled error when the transaction was closed as failed.
func (s *Store) CommitEnrollments(_ context.Context, reference string, records []models.EnrollmentRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.transactions[reference]
	if !ok {
		return false, errors.ErrNoRows
	}
	if len(s.enrollments[reference]) > 0 {
		return false, nil
	}
	if tx.Status != models.TxPending {
		return false, errors.TransactionSettledErr(reference, string(tx.Status))
	}

	staged := make([]models.EnrollmentRecord, 0, len(records))
	for i, r := range records {
		if s.RowHook != nil {
			if err := s.RowHook(i, r); err != nil {
				return false, err
			}
		}
		staged = append(staged, r)
	}

	s.enrollments[reference] = staged
	tx.Status = models.TxSuccess
	tx.UpdatedAt = s.now()
	s.transactions[reference] = tx
	return true, nil
}

// MarkFailed moves a pending transaction to failed. Settled transactions are left
// alone and false is returned.
func (s *Store) MarkFailed(_ context.Context, reference string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.transactions[reference]
	if !ok {
		return false, errors.ErrNoRows
	}
	if tx.Status != models.TxPending {
		return false, nil
	}
	tx.Status = models.TxFailed
	tx.UpdatedAt = s.now()
	s.transactions[reference] = tx
	return true, nil
}

// PutEnrollments stores records directly, bypassing the transaction checks. It
// stands in for an out of band writer in tests.
func (s *Store) PutEnrollments(reference string, records []models.EnrollmentRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.enrollments[reference] = append(s.enrollments[reference], records...)
}
