package workers

import (
	"context"
	"time"

	"infinite-experiment/roster/internal/logging"
)

// StreamLengther reports how many entries a stream holds.
type StreamLengther interface {
	Length(ctx context.Context, streamName string) (int64, error)
}

// AuditStreamMonitor periodically logs the audit stream backlog.
type AuditStreamMonitor struct {
	stream     StreamLengther
	streamName string
}

func NewAuditStreamMonitor(stream StreamLengther, streamName string) *AuditStreamMonitor {
	return &AuditStreamMonitor{stream: stream, streamName: streamName}
}

func (m *AuditStreamMonitor) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.check(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.check(ctx)
		}
	}
}

func (m *AuditStreamMonitor) check(ctx context.Context) {
	n, err := m.stream.Length(ctx, m.streamName)
	if err != nil {
		logging.Warn("failed to read audit stream length", "stream", m.streamName, "error", err)
		return
	}
	logging.Debug("audit stream backlog", "stream", m.streamName, "length", n)
}
