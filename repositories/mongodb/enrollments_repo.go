package mongodb

import (
	// Go Internal Packages
	"context"
	"time"

	// Local Packages
	errors "enrollpay/errors"
	models "enrollpay/models"

	// External Packages
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const enrollmentsCollection = "enrollments"

type EnrollmentRepository struct {
	Client     *mongo.Client
	Database   string
	Collection string
	now        func() time.Time
}

func NewEnrollmentRepository(client *mongo.Client, database string) *EnrollmentRepository {
	return &EnrollmentRepository{Client: client, Database: database, Collection: enrollmentsCollection, now: time.Now}
}

func (r *EnrollmentRepository) db() *mongo.Database {
	return r.Client.Database(r.Database)
}

// FindEnrollments returns an empty slice, not an error, when nothing was written yet
func (r *EnrollmentRepository) FindEnrollments(ctx context.Context, reference string) ([]models.EnrollmentRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.db().Collection(r.Collection).Find(ctx, bson.M{"reference": reference}, opts)
	if err != nil {
		return nil, err
	}

	records := []models.EnrollmentRecord{}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// CommitEnrollments inserts the whole family and settles the transaction inside one
// multi-document transaction. It returns false when the reference already has
// enrollment records. Requires a replica set deployment.
func (r *EnrollmentRepository) CommitEnrollments(ctx context.Context, reference string, records []models.EnrollmentRecord) (bool, error) {
	session, err := r.Client.StartSession()
	if err != nil {
		return false, err
	}
	defer session.EndSession(ctx)

	applied, err := session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return r.commit(sc, reference, records)
	})
	if err != nil {
		return false, err
	}
	return applied.(bool), nil
}

// commit is the body of the commit transaction. Any error it returns aborts the
// transaction, so nothing of the family is kept.
func (r *EnrollmentRepository) commit(ctx context.Context, reference string, records []models.EnrollmentRecord) (bool, error) {
	txs := r.db().Collection(transactionsCollection)
	enrollments := r.db().Collection(r.Collection)

	var tx struct {
		Status string `bson:"status"`
	}
	err := txs.FindOne(ctx, bson.M{"_id": reference}).Decode(&tx)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, errors.ErrNoRows
	}
	if err != nil {
		return false, err
	}

	existing, err := enrollments.CountDocuments(ctx, bson.M{"reference": reference})
	if err != nil {
		return false, err
	}
	if existing > 0 {
		return false, nil
	}
	if tx.Status != string(models.TxPending) {
		return false, errors.TransactionSettledErr(reference, tx.Status)
	}

	docs := make([]interface{}, len(records))
	for i := range records {
		docs[i] = records[i]
	}
	if _, err := enrollments.InsertMany(ctx, docs); err != nil {
		return false, err
	}

	filter := bson.M{"_id": reference, "status": string(models.TxPending)}
	update := bson.M{"$set": bson.M{"status": string(models.TxSuccess), "updated_at": r.now()}}
	res, err := txs.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	// closed as failed between the read and the write
	if res.MatchedCount == 0 {
		return false, errors.TransactionSettledErr(reference, string(models.TxFailed))
	}
	return true, nil
}
