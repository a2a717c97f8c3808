package notify

import (
	"context"
	"log"
	"time"

	"storefront/internal/metrics"
	outboxrepo "storefront/internal/repository/outbox"

	"github.com/segmentio/kafka-go"
)

const fetchBatch = 50

// Relay drains pending outbox records on a fixed interval. Records are only
// marked sent after a successful publish, so delivery is at-least-once;
// consumers must dedupe on event id.
type Relay struct {
	outbox   outboxrepo.Repository
	writer   *kafka.Writer
	metrics  *metrics.Metrics
	logger   *log.Logger
	interval time.Duration
}

func NewRelay(outbox outboxrepo.Repository, client *Client, topic string, m *metrics.Metrics, logger *log.Logger, interval time.Duration) *Relay {
	var writer *kafka.Writer
	if client.Enabled() {
		writer = client.NewWriter(topic)
	}
	return &Relay{
		outbox:   outbox,
		writer:   writer,
		metrics:  m,
		logger:   logger,
		interval: interval,
	}
}

// Run blocks until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	if r.writer != nil {
		defer r.writer.Close()
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.drain(ctx)
		}
	}
}

func (r *Relay) drain(ctx context.Context) {
	records, err := r.outbox.FetchPending(ctx, fetchBatch)
	if err != nil {
		r.logger.Printf("outbox fetch: %v", err)
		return
	}
	for _, rec := range records {
		if r.writer != nil {
			if err := Publish(ctx, r.writer, rec.Key, rec.Payload); err != nil {
				r.metrics.OutboxErrors.Inc()
				r.logger.Printf("outbox publish %s: %v", rec.EventID, err)
				// Left pending; the next tick retries.
				continue
			}
		} else {
			r.logger.Printf("notification %s %s: %s", rec.Topic, rec.Key, rec.Payload)
		}
		if err := r.outbox.MarkSent(ctx, rec.ID); err != nil {
			r.logger.Printf("outbox mark sent %d: %v", rec.ID, err)
			continue
		}
		r.metrics.OutboxSent.Inc()
	}
}
