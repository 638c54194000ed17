package kafka

import (
	// Go Internal Packages
	"context"
	"errors"
	"testing"
	"time"

	// Local Packages
	models "enrollpay/models"

	// External Packages
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type flakyProcessor struct {
	failures int
	calls    int
}

func (p *flakyProcessor) ProcessRecords(_ context.Context, records []models.Record) error {
	p.calls++
	if p.calls <= p.failures {
		return errors.New("dead letter queue unavailable")
	}
	return nil
}

func testConsumer(p EventProcessor) *Consumer {
	return &Consumer{Processor: p, Logger: zap.NewNop(), retryDelay: time.Millisecond, maxRetryDelay: 2 * time.Millisecond}
}

func TestProcessRetriesBatchUntilItSucceeds(t *testing.T) {
	p := &flakyProcessor{failures: 3}
	records := []models.Record{{Key: []byte("REF1")}}

	require.NoError(t, testConsumer(p).process(context.Background(), records))
	assert.Equal(t, 4, p.calls)
}

func TestProcessStopsWhenContextEnds(t *testing.T) {
	p := &flakyProcessor{failures: 1 << 30}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := testConsumer(p).process(ctx, []models.Record{{Key: []byte("REF1")}})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Greater(t, p.calls, 1)
}
