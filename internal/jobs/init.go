package jobs

import (
	"context"
	"sync"

	"infinite-experiment/roster/internal/config"
	"infinite-experiment/roster/internal/logging"
)

// InitializeJobs starts the background jobs. The returned func blocks until
// they have stopped after ctx is cancelled.
func InitializeJobs(ctx context.Context, cfg config.JobsConfig, configAudit *ConfigAuditJob) (wait func()) {
	var wg sync.WaitGroup

	if cfg.ConfigAuditInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			configAudit.RunScheduled(ctx, cfg.ConfigAuditInterval)
		}()
	} else {
		logging.Info("config audit disabled")
	}

	return wg.Wait
}
