package kafka

import (
	// Go Internal Packages
	"context"
	"encoding/json"

	// Local Packages
	models "enrollpay/models"

	// External Packages
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kprom"
	"go.uber.org/zap"
)

// Producer publishes normalized webhook events keyed by reference, so every event
// of one payment lands on the same partition in order.
type Producer struct {
	Client *kgo.Client
	Topic  string
	Logger *zap.Logger
}

func NewProducer(conf *models.ProducerConfig, metrics *kprom.Metrics, logger *zap.Logger) (*Producer, error) {
	opts := []kgo.Opt{
		kgo.SeedBrokers(conf.Brokers...),
		kgo.DefaultProduceTopic(conf.Topic),
	}
	if metrics != nil {
		opts = append(opts, kgo.WithHooks(metrics))
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, err
	}
	return &Producer{Client: client, Topic: conf.Topic, Logger: logger}, nil
}

func (p *Producer) Publish(ctx context.Context, evt models.PaymentEvent) error {
	value, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	record := &kgo.Record{Key: []byte(evt.Reference), Value: value}
	if err := p.Client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return err
	}
	p.Logger.Debug("payment event published", zap.String("reference", evt.Reference), zap.Int32("partition", record.Partition), zap.Int64("offset", record.Offset))
	return nil
}

func (p *Producer) Close() {
	p.Client.Close()
}
