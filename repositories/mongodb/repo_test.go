package mongodb

import (
	// Go Internal Packages
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	// Local Packages
	errors "enrollpay/errors"
	models "enrollpay/models"

	// External Packages
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const testDB = "enrollpay"

func TestTxRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("find returns the stored transaction", func(mt *mtest.T) {
		created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		doc := bson.D{
			{Key: "_id", Value: "REF123"},
			{Key: "amount", Value: int64(150000)},
			{Key: "email", Value: "parent@example.com"},
			{Key: "details", Value: `{"family_id":null,"children":[{"child_name":"Ada"}]}`},
			{Key: "status", Value: "pending"},
			{Key: "created_at", Value: created},
		}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, testDB+".transactions", mtest.FirstBatch, doc))

		repo := NewTxRepository(mt.Client, testDB)
		tx, err := repo.FindTransaction(context.Background(), "REF123")
		require.NoError(mt, err)
		assert.Equal(mt, "REF123", tx.Reference)
		assert.Equal(mt, int64(150000), tx.Amount)
		assert.Equal(mt, models.TxPending, tx.Status)

		family, err := tx.Family()
		require.NoError(mt, err)
		require.Len(mt, family.Children, 1)
		assert.Equal(mt, "Ada", family.Children[0].ChildName)
	})

	mt.Run("find maps no documents to no rows", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, testDB+".transactions", mtest.FirstBatch))

		_, err := NewTxRepository(mt.Client, testDB).FindTransaction(context.Background(), "missing")
		assert.True(mt, errors.IsNoRows(err))
	})

	mt.Run("insert reports duplicate references as conflicts", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))

		err := NewTxRepository(mt.Client, testDB).InsertTransaction(context.Background(), models.Transaction{Reference: "REF123"})
		assert.Equal(mt, errors.Conflict, errors.KindOf(err))
	})

	mt.Run("mark failed changes a pending transaction", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		changed, err := NewTxRepository(mt.Client, testDB).MarkFailed(context.Background(), "REF123")
		require.NoError(mt, err)
		assert.True(mt, changed)
	})
}

func TestEnrollmentRepositoryFind(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("returns siblings in order", func(mt *mtest.T) {
		ns := testDB + ".enrollments"
		first := mtest.CreateCursorResponse(1, ns, mtest.FirstBatch,
			bson.D{{Key: "child_name", Value: "Ada"}, {Key: "family_id", Value: "fam-1"}, {Key: "reference", Value: "REF123"}},
		)
		second := mtest.CreateCursorResponse(0, ns, mtest.NextBatch,
			bson.D{{Key: "child_name", Value: "Grace"}, {Key: "family_id", Value: "fam-1"}, {Key: "reference", Value: "REF123"}},
		)
		mt.AddMockResponses(first, second)

		records, err := NewEnrollmentRepository(mt.Client, testDB).FindEnrollments(context.Background(), "REF123")
		require.NoError(mt, err)
		require.Len(mt, records, 2)
		assert.Equal(mt, "Ada", records[0].ChildName)
		assert.Equal(mt, "Grace", records[1].ChildName)
		require.NotNil(mt, records[1].FamilyID)
		assert.Equal(mt, "fam-1", *records[1].FamilyID)
	})

	mt.Run("empty result is not an error", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, testDB+".enrollments", mtest.FirstBatch))

		records, err := NewEnrollmentRepository(mt.Client, testDB).FindEnrollments(context.Background(), "REF123")
		require.NoError(mt, err)
		assert.Empty(mt, records)
	})
}

func siblings(reference string, names ...string) []models.EnrollmentRecord {
	id := "fam-1"
	records := make([]models.EnrollmentRecord, len(names))
	for i, n := range names {
		records[i] = models.EnrollmentRecord{ChildName: n, FamilyID: &id, Reference: reference}
	}
	return records
}

func txDoc(status string) bson.D {
	return bson.D{{Key: "_id", Value: "REF123"}, {Key: "status", Value: status}}
}

// The commit body runs without a session here; the mock deployment cannot start
// transactions. The transactional wrapper is covered against a replica set below.
func TestEnrollmentRepositoryCommit(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	txNS := testDB + ".transactions"
	enNS := testDB + ".enrollments"

	mt.Run("unknown reference is no rows", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, txNS, mtest.FirstBatch))

		applied, err := NewEnrollmentRepository(mt.Client, testDB).commit(context.Background(), "REF123", siblings("REF123", "Ada"))
		assert.False(mt, applied)
		assert.True(mt, errors.IsNoRows(err))
	})

	mt.Run("already materialized is a no-op", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, txNS, mtest.FirstBatch, txDoc("success")),
			mtest.CreateCursorResponse(0, enNS, mtest.FirstBatch, bson.D{{Key: "_id", Value: 1}, {Key: "n", Value: int32(2)}}),
		)

		applied, err := NewEnrollmentRepository(mt.Client, testDB).commit(context.Background(), "REF123", siblings("REF123", "Ada", "Grace"))
		require.NoError(mt, err)
		assert.False(mt, applied)
	})

	mt.Run("failed transaction is not materialized", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, txNS, mtest.FirstBatch, txDoc("failed")),
			mtest.CreateCursorResponse(0, enNS, mtest.FirstBatch),
		)

		applied, err := NewEnrollmentRepository(mt.Client, testDB).commit(context.Background(), "REF123", siblings("REF123", "Ada"))
		assert.False(mt, applied)
		assert.Equal(mt, errors.CodeTransactionSettled, errors.CodeOf(err))
	})

	mt.Run("insert failure is returned", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, txNS, mtest.FirstBatch, txDoc("pending")),
			mtest.CreateCursorResponse(0, enNS, mtest.FirstBatch),
			mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 1, Code: 11000, Message: "duplicate key error"}),
		)

		applied, err := NewEnrollmentRepository(mt.Client, testDB).commit(context.Background(), "REF123", siblings("REF123", "Ada", "Grace"))
		assert.False(mt, applied)
		assert.True(mt, mongo.IsDuplicateKeyError(err))
	})

	mt.Run("status changed underneath aborts", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, txNS, mtest.FirstBatch, txDoc("pending")),
			mtest.CreateCursorResponse(0, enNS, mtest.FirstBatch),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
		)

		applied, err := NewEnrollmentRepository(mt.Client, testDB).commit(context.Background(), "REF123", siblings("REF123", "Ada"))
		assert.False(mt, applied)
		assert.Equal(mt, errors.CodeTransactionSettled, errors.CodeOf(err))
	})

	mt.Run("pending transaction is settled", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, txNS, mtest.FirstBatch, txDoc("pending")),
			mtest.CreateCursorResponse(0, enNS, mtest.FirstBatch),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 2}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
		)

		applied, err := NewEnrollmentRepository(mt.Client, testDB).commit(context.Background(), "REF123", siblings("REF123", "Ada", "Grace"))
		require.NoError(mt, err)
		assert.True(mt, applied)
	})
}

// TestCommitEnrollmentsReplicaSet needs a replica set, e.g.
// ENROLLPAY_TEST_MONGO_URI="mongodb://localhost:27017/?replicaSet=rs0".
func TestCommitEnrollmentsReplicaSet(t *testing.T) {
	uri := os.Getenv("ENROLLPAY_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("ENROLLPAY_TEST_MONGO_URI not set")
	}

	ctx := context.Background()
	client, err := Connect(ctx, uri)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(ctx) })

	database := fmt.Sprintf("enrollpay_test_%d", time.Now().UnixNano())
	db := client.Database(database)
	t.Cleanup(func() { _ = db.Drop(ctx) })

	// forces the second insert of a batch with a repeated name to fail
	_, err = db.Collection(enrollmentsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "child_name", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	require.NoError(t, err)

	txs := NewTxRepository(client, database)
	enrollments := NewEnrollmentRepository(client, database)
	for _, ref := range []string{"REF1", "REF2", "REF3"} {
		require.NoError(t, txs.InsertTransaction(ctx, models.Transaction{Reference: ref, Status: models.TxPending}))
	}

	t.Run("partial family is rolled back", func(t *testing.T) {
		_, err := enrollments.CommitEnrollments(ctx, "REF1", siblings("REF1", "Ada", "Ada"))
		require.Error(t, err)

		records, err := enrollments.FindEnrollments(ctx, "REF1")
		require.NoError(t, err)
		assert.Empty(t, records)
		tx, err := txs.FindTransaction(ctx, "REF1")
		require.NoError(t, err)
		assert.Equal(t, models.TxPending, tx.Status)
	})

	t.Run("whole family once", func(t *testing.T) {
		applied, err := enrollments.CommitEnrollments(ctx, "REF2", siblings("REF2", "Grace", "Alan"))
		require.NoError(t, err)
		assert.True(t, applied)

		applied, err = enrollments.CommitEnrollments(ctx, "REF2", siblings("REF2", "Grace", "Alan"))
		require.NoError(t, err)
		assert.False(t, applied)

		records, _ := enrollments.FindEnrollments(ctx, "REF2")
		assert.Len(t, records, 2)
		tx, _ := txs.FindTransaction(ctx, "REF2")
		assert.Equal(t, models.TxSuccess, tx.Status)
	})

	t.Run("failed transaction stays failed", func(t *testing.T) {
		_, err := txs.MarkFailed(ctx, "REF3")
		require.NoError(t, err)

		_, err = enrollments.CommitEnrollments(ctx, "REF3", siblings("REF3", "Linus"))
		assert.Equal(t, errors.CodeTransactionSettled, errors.CodeOf(err))
		tx, _ := txs.FindTransaction(ctx, "REF3")
		assert.Equal(t, models.TxFailed, tx.Status)
	})
}
