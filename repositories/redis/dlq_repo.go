package redis

import (
	// Go Internal Packages
	"context"
	"encoding/json"
	"errors"
	"fmt"

	// Local Packages
	models "enrollpay/models"

	// External Packages
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type DeadLetterQueue struct {
	client   *redis.Client
	logger   *zap.Logger
	listName string
}

func NewDeadLetterQueue(client *redis.Client, logger *zap.Logger) *DeadLetterQueue {
	return &DeadLetterQueue{client: client, logger: logger, listName: "failed-payment-events"}
}

// Send stores every record that could not be materialized under "payment-event:{reference}"
// and pushes the key onto the failed list so operators can replay them in order. It
// reports an error when any record could not be stored, so the batch is not committed.
func (r *DeadLetterQueue) Send(ctx context.Context, records []models.Record) error {
	if len(records) == 0 {
		return nil
	}

	var errs []error
	successCount := 0
	for _, record := range records {
		jsonData, err := json.Marshal(record)
		if err != nil {
			r.logger.Error("failed to marshal record", zap.Error(err))
			errs = append(errs, err)
			continue
		}

		key := fmt.Sprintf("payment-event:%s", record.Key)
		_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, jsonData, 0)
			pipe.RPush(ctx, r.listName, key)
			return nil
		})
		if err != nil {
			r.logger.Error("failed to store record", zap.String("key", key), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			continue
		}
		successCount++
	}

	if successCount > 0 {
		r.logger.Info("successfully sent records", zap.Int("count", successCount))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%d of %d records not dead lettered: %w", len(errs), len(records), errors.Join(errs...))
	}
	return nil
}
