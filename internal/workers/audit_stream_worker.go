package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"infinite-experiment/roster/internal/common"
	"infinite-experiment/roster/internal/logging"
	"infinite-experiment/roster/internal/metrics"
	"infinite-experiment/roster/internal/models/dtos"
	gormModels "infinite-experiment/roster/internal/models/gorm"
	"infinite-experiment/roster/internal/services"
)

// AuditStream is the part of common.RedisStreamService the worker reads from.
type AuditStream interface {
	CreateConsumerGroup(ctx context.Context, streamName, groupName string) error
	Read(ctx context.Context, streamName, groupName, consumerName string, block time.Duration) (*common.StreamMessage, error)
	Ack(ctx context.Context, streamName, groupName, messageID string) error
	ClaimStale(ctx context.Context, streamName, groupName, consumerName string, minIdle time.Duration) ([]common.StreamMessage, error)
}

// AuditSink stores decoded audit entries.
type AuditSink interface {
	Insert(ctx context.Context, e *gormModels.RankAuditEntry) error
}

// AuditStreamWorker drains the audit stream into the audit table.
type AuditStreamWorker struct {
	workerID   string
	streamName string
	groupName  string
	stream     AuditStream
	sink       AuditSink
	metrics    *metrics.MetricsRegistry

	blockTime     time.Duration
	claimInterval time.Duration
	minIdle       time.Duration
	backoff       time.Duration
}

func NewAuditStreamWorker(
	workerID, streamName, groupName string,
	stream AuditStream,
	sink AuditSink,
	reg *metrics.MetricsRegistry,
) *AuditStreamWorker {
	return &AuditStreamWorker{
		workerID:      workerID,
		streamName:    streamName,
		groupName:     groupName,
		stream:        stream,
		sink:          sink,
		metrics:       reg,
		blockTime:     5 * time.Second,
		claimInterval: time.Minute,
		minIdle:       5 * time.Minute,
		backoff:       time.Second,
	}
}

// Start runs numWorkers consumers plus the stale-message claimer and blocks
// until ctx is cancelled.
func (w *AuditStreamWorker) Start(ctx context.Context, numWorkers int) error {
	if numWorkers < 1 {
		numWorkers = 1
	}
	if err := w.stream.CreateConsumerGroup(ctx, w.streamName, w.groupName); err != nil {
		return fmt.Errorf("failed to create consumer group %s: %w", w.groupName, err)
	}
	logging.Info("audit stream worker starting", "worker_id", w.workerID, "consumers", numWorkers, "stream", w.streamName)

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		consumer := fmt.Sprintf("%s-%d", w.workerID, i)
		go func() {
			defer wg.Done()
			w.processQueue(ctx, consumer)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		w.claimStaleMessages(ctx)
	}()

	wg.Wait()
	logging.Info("audit stream worker stopped", "worker_id", w.workerID)
	return nil
}

func (w *AuditStreamWorker) processQueue(ctx context.Context, consumer string) {
	processed, failed := 0, 0
	for {
		select {
		case <-ctx.Done():
			logging.Info("audit consumer shutting down", "consumer", consumer, "processed", processed, "errors", failed)
			return
		default:
		}

		msg, err := w.stream.Read(ctx, w.streamName, w.groupName, consumer, w.blockTime)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			logging.Warn("failed to read audit stream", "consumer", consumer, "error", err)
			w.sleep(ctx)
			continue
		}
		if msg == nil {
			continue
		}

		if err := w.handle(ctx, *msg); err != nil {
			failed++
		} else {
			processed++
		}
	}
}

// handle stores one message and acks it. Undecodable messages are acked too,
// they would never succeed.
func (w *AuditStreamWorker) handle(ctx context.Context, msg common.StreamMessage) error {
	var ev dtos.AuditEvent
	err := json.Unmarshal(msg.Data, &ev)
	if err != nil {
		logging.Error("dropping malformed audit message", "message_id", msg.ID, "error", err)
		w.count("malformed")
	} else if err = w.sink.Insert(ctx, services.AuditEntry(ev)); err != nil {
		// left pending; the claimer retries it
		logging.Warn("failed to store audit entry", "message_id", msg.ID, "error", err)
		w.count("store_failed")
		return err
	} else {
		w.count("stored")
	}

	if ackErr := w.stream.Ack(ctx, w.streamName, w.groupName, msg.ID); ackErr != nil {
		logging.Warn("failed to ack audit message", "message_id", msg.ID, "error", ackErr)
	}
	return err
}

func (w *AuditStreamWorker) claimStaleMessages(ctx context.Context) {
	ticker := time.NewTicker(w.claimInterval)
	defer ticker.Stop()

	consumer := w.workerID + "-claimer"
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			msgs, err := w.stream.ClaimStale(ctx, w.streamName, w.groupName, consumer, w.minIdle)
			if err != nil {
				logging.Warn("failed to claim stale audit messages", "error", err)
				continue
			}
			for _, m := range msgs {
				_ = w.handle(ctx, m)
			}
		}
	}
}

func (w *AuditStreamWorker) sleep(ctx context.Context) {
	t := time.NewTimer(w.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (w *AuditStreamWorker) count(status string) {
	if w.metrics != nil {
		w.metrics.AuditEventsTotal.WithLabelValues(status).Inc()
	}
}
