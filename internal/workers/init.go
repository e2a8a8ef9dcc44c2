package workers

import (
	"context"
	"sync"
	"time"

	"infinite-experiment/roster/internal/common"
	"infinite-experiment/roster/internal/config"
	"infinite-experiment/roster/internal/db/repositories"
	"infinite-experiment/roster/internal/logging"
	"infinite-experiment/roster/internal/metrics"
)

// InitWorkers starts the audit stream consumers. The returned func blocks
// until they have stopped after ctx is cancelled.
func InitWorkers(
	ctx context.Context,
	cfg config.AuditConfig,
	stream *common.RedisStreamService,
	auditRepo *repositories.AuditRepository,
	reg *metrics.MetricsRegistry,
) (wait func()) {
	worker := NewAuditStreamWorker("audit", cfg.Stream, cfg.Group, stream, auditRepo, reg)
	monitor := NewAuditStreamMonitor(stream, cfg.Stream)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := worker.Start(ctx, cfg.Workers); err != nil {
			logging.Error("audit stream worker failed", "error", err)
		}
	}()
	go func() {
		defer wg.Done()
		monitor.Start(ctx, 30*time.Second)
	}()
	return wg.Wait
}
