package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"infinite-experiment/roster/internal/common"
	"infinite-experiment/roster/internal/constants"
	"infinite-experiment/roster/internal/db/repositories"
	"infinite-experiment/roster/internal/logging"
	"infinite-experiment/roster/internal/metrics"
	"infinite-experiment/roster/internal/models/dtos"
	gormModels "infinite-experiment/roster/internal/models/gorm"
)

// AuditPublisher hands audit events to wherever they are stored.
type AuditPublisher interface {
	Publish(ctx context.Context, ev dtos.AuditEvent) error
}

// DirectAuditPublisher writes events straight to the audit table.
type DirectAuditPublisher struct {
	repo *repositories.AuditRepository
}

func NewDirectAuditPublisher(repo *repositories.AuditRepository) *DirectAuditPublisher {
	return &DirectAuditPublisher{repo: repo}
}

func (p *DirectAuditPublisher) Publish(ctx context.Context, ev dtos.AuditEvent) error {
	return p.repo.Insert(ctx, AuditEntry(ev))
}

// StreamAuditPublisher appends events to a Redis stream drained by the
// audit worker.
type StreamAuditPublisher struct {
	stream     *common.RedisStreamService
	streamName string
}

func NewStreamAuditPublisher(stream *common.RedisStreamService, streamName string) *StreamAuditPublisher {
	return &StreamAuditPublisher{stream: stream, streamName: streamName}
}

func (p *StreamAuditPublisher) Publish(ctx context.Context, ev dtos.AuditEvent) error {
	return p.stream.Publish(ctx, p.streamName, ev)
}

// AuditEntry maps an event to its table row.
func AuditEntry(ev dtos.AuditEvent) *gormModels.RankAuditEntry {
	return &gormModels.RankAuditEntry{
		ID:           ev.ID,
		GuildID:      ev.GuildID,
		UserID:       ev.UserID,
		ActorID:      ev.ActorID,
		Action:       constants.AuditAction(ev.Action),
		RemovedRoles: ev.RemovedRoles,
		AddedRole:    ev.AddedRole,
		Reason:       ev.Reason,
		CreatedAt:    ev.At,
	}
}

// publishAudit never fails the caller; a lost audit line is logged.
func publishAudit(ctx context.Context, pub AuditPublisher, reg *metrics.MetricsRegistry, ev dtos.AuditEvent) {
	if pub == nil {
		return
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}

	status := "published"
	if err := pub.Publish(ctx, ev); err != nil {
		status = "failed"
		logging.Warn("failed to publish audit event",
			"guild_id", ev.GuildID, "user_id", ev.UserID, "action", ev.Action, "error", err)
	}
	if reg != nil {
		reg.AuditEventsTotal.WithLabelValues(status).Inc()
	}
}
