package kafka

import (
	// Go Internal Packages
	"context"
	"errors"
	"fmt"
	"time"

	// Local Packages
	models "enrollpay/models"
	utils "enrollpay/utils"

	// External Packages
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kprom"
	"go.uber.org/zap"
)

type Consumer struct {
	Client    *kgo.Client
	Config    *models.ConsumerConfig
	Processor EventProcessor
	Logger    *zap.Logger

	retryDelay    time.Duration
	maxRetryDelay time.Duration
}

type EventProcessor interface {
	ProcessRecords(ctx context.Context, records []models.Record) error
}

// NewConsumer creates a new payment events consumer (PS: Must call Poll to start
// consuming the records)
func NewConsumer(conf *models.ConsumerConfig, processor EventProcessor, metrics *kprom.Metrics, logger *zap.Logger) (*Consumer, error) {
	c := &Consumer{
		Config:        conf,
		Processor:     processor,
		Logger:        logger,
		retryDelay:    time.Second,
		maxRetryDelay: 30 * time.Second,
	}

	opts := []kgo.Opt{
		kgo.SeedBrokers(conf.Brokers...), // Connects to Kafka brokers
		kgo.ConsumerGroup(conf.Name),     // Specifies the consumer group
		kgo.ConsumeTopics(conf.Topic),    // Specifies a single topic to consume
		kgo.DisableAutoCommit(),          // Disables auto-commit
		kgo.BlockRebalanceOnPoll(),       // Blocks rebalancing until the poll loop is running
	}
	if metrics != nil {
		opts = append(opts, kgo.WithHooks(metrics)) // Attaches monitoring hooks
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, err
	}

	c.Client = client
	return c, nil
}

// Poll polls for records from the Kafka broker until ctx ends.
func (c *Consumer) Poll(ctx context.Context) error {
	defer c.Client.Close()

	consumerName := c.Config.Name
	recordsPerPoll := c.Config.RecordsPerPoll

	for {
		// Check if the context is canceled before polling
		if ctx.Err() != nil {
			c.Logger.Warn("Polling stopped: context canceled")
			return ctx.Err() // Exit gracefully
		}

		c.Logger.Debug(fmt.Sprintf("%s: polling for records", consumerName))
		fetches := c.Client.PollRecords(ctx, recordsPerPoll)

		// Handle client shutdown
		if fetches.IsClientClosed() {
			return errors.New("kafka client closed")
		}

		// Handle context cancellation explicitly
		if errors.Is(fetches.Err0(), context.Canceled) {
			return errors.New("context got canceled")
		}

		fetches.EachError(func(topic string, partition int32, err error) {
			c.Logger.Error("fetch error", zap.String("topic", topic), zap.Int32("partition", partition), zap.Error(err))
		})

		// Preallocate records slice efficiently
		records := make([]models.Record, len(fetches.Records()))
		for idx, record := range fetches.Records() {
			records[idx] = models.Record{
				Key:   record.Key,
				Value: record.Value,
				Topic: record.Topic,
			}
		}
		if len(records) == 0 {
			c.Client.AllowRebalance()
			continue
		}

		var partitions []int32
		fetches.EachPartition(func(p kgo.FetchTopicPartition) {
			partitions = append(partitions, p.Partition)
		})
		c.Logger.Debug("fetched payment events", zap.Int("count", len(records)), zap.String("partitions", utils.JoinInt32Slice(partitions)))

		// The batch is retried until it is processed; committing past it would lose
		// events that were neither applied nor dead lettered.
		if err := c.process(ctx, records); err != nil {
			c.Client.AllowRebalance()
			return err
		}

		// Commit processed records
		if err := c.Client.CommitRecords(ctx, fetches.Records()...); err != nil {
			c.Logger.Error("Failed to commit records", zap.Error(err))
		}
		c.Client.AllowRebalance()
	}
}

// process hands records to the processor until it succeeds. It only gives up when
// ctx ends.
func (c *Consumer) process(ctx context.Context, records []models.Record) error {
	delay := c.retryDelay
	for attempt := 1; ; attempt++ {
		err := c.Processor.ProcessRecords(ctx, records)
		if err == nil {
			return nil
		}
		c.Logger.Error("Failed to process records, retrying batch",
			zap.Int("attempt", attempt),
			zap.Int("count", len(records)),
			zap.Duration("retry_in", delay),
			zap.Error(err),
		)

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		delay = min(delay*2, c.maxRetryDelay)
	}
}
