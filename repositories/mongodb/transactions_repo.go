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
)

const transactionsCollection = "transactions"

type TxRepository struct {
	Client     *mongo.Client
	Database   string
	Collection string
	now        func() time.Time
}

func NewTxRepository(client *mongo.Client, database string) *TxRepository {
	return &TxRepository{Client: client, Database: database, Collection: transactionsCollection, now: time.Now}
}

func (r *TxRepository) collection() *mongo.Collection {
	return r.Client.Database(r.Database).Collection(r.Collection)
}

// InsertTransaction inserts a single transaction keyed by its reference
func (r *TxRepository) InsertTransaction(ctx context.Context, tx models.Transaction) error {
	_, err := r.collection().InsertOne(ctx, tx.Transform())
	if mongo.IsDuplicateKeyError(err) {
		return errors.ConflictErr(r.Collection, tx.Reference, err)
	}
	return err
}

// FindTransaction returns errors.ErrNoRows when the reference is unknown
func (r *TxRepository) FindTransaction(ctx context.Context, reference string) (*models.Transaction, error) {
	var doc models.MongoTransaction
	err := r.collection().FindOne(ctx, bson.M{"_id": reference}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errors.ErrNoRows
	}
	if err != nil {
		return nil, err
	}

	tx := doc.Transaction()
	return &tx, nil
}

// MarkFailed moves a pending transaction to failed and reports whether it changed
func (r *TxRepository) MarkFailed(ctx context.Context, reference string) (bool, error) {
	filter := bson.M{"_id": reference, "status": string(models.TxPending)}
	update := bson.M{"$set": bson.M{"status": string(models.TxFailed), "updated_at": r.now()}}

	res, err := r.collection().UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	if res.MatchedCount == 1 {
		return true, nil
	}

	n, err := r.collection().CountDocuments(ctx, bson.M{"_id": reference})
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, errors.ErrNoRows
	}
	return false, nil
}
