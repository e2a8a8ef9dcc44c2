package jobs

import (
	"context"
	"fmt"
	"sort"
	"time"

	"infinite-experiment/roster/internal/common"
	"infinite-experiment/roster/internal/constants"
	"infinite-experiment/roster/internal/logging"
	"infinite-experiment/roster/internal/metrics"
	"infinite-experiment/roster/internal/models/dtos"
	gormModels "infinite-experiment/roster/internal/models/gorm"
	"infinite-experiment/roster/internal/services"
)

const configAuditJobName = "config_audit"

// GuildLister returns the ids of guilds with stored configuration.
type GuildLister interface {
	GuildIDs(ctx context.Context) ([]string, error)
}

type HierarchyViewer interface {
	ViewHierarchy(ctx context.Context, guildID string) (*dtos.HierarchyResponse, error)
}

type SettingsValidator interface {
	Validated(ctx context.Context, guildID string) (*services.ValidatedSettings, error)
}

type PendingLister interface {
	PendingRecords(ctx context.Context, guildID string) ([]gormModels.LifecycleRecord, error)
}

// ConfigAuditReport is the outcome of one pass.
type ConfigAuditReport struct {
	Guilds int
	// guild id -> ids of hierarchy roles deleted from the guild
	HierarchyDrift map[string][]string
	// guild id -> error code of the failed settings check
	SettingsDrift map[string]string
	Pending       map[constants.LifecycleState]int
	Skipped       []string
}

// ConfigAuditJob walks every configured guild and reports stored roles and
// channels that no longer exist, along with resignations still waiting on a
// comeback. It only reads; admins fix drift with the setup commands.
type ConfigAuditJob struct {
	hierarchyGuilds GuildLister
	settingsGuilds  GuildLister
	ranks           HierarchyViewer
	settings        SettingsValidator
	lifecycle       PendingLister
	metrics         *metrics.MetricsRegistry
}

func NewConfigAuditJob(
	hierarchyGuilds GuildLister,
	settingsGuilds GuildLister,
	ranks HierarchyViewer,
	settings SettingsValidator,
	lifecycle PendingLister,
	reg *metrics.MetricsRegistry,
) *ConfigAuditJob {
	return &ConfigAuditJob{
		hierarchyGuilds: hierarchyGuilds,
		settingsGuilds:  settingsGuilds,
		ranks:           ranks,
		settings:        settings,
		lifecycle:       lifecycle,
		metrics:         reg,
	}
}

// Run audits every guild once. A guild the platform cannot answer for is
// skipped and the pass carries on.
func (j *ConfigAuditJob) Run(ctx context.Context) (*ConfigAuditReport, error) {
	start := time.Now()
	logging.Debug("config audit starting")

	withHierarchy, err := j.hierarchyGuilds.GuildIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list hierarchy guilds: %w", err)
	}
	withSettings, err := j.settingsGuilds.GuildIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list settings guilds: %w", err)
	}

	report := &ConfigAuditReport{
		HierarchyDrift: make(map[string][]string),
		SettingsDrift:  make(map[string]string),
		Pending:        make(map[constants.LifecycleState]int),
	}
	hasHierarchy := make(map[string]bool, len(withHierarchy))
	for _, id := range withHierarchy {
		hasHierarchy[id] = true
	}
	hasSettings := make(map[string]bool, len(withSettings))
	for _, id := range withSettings {
		hasSettings[id] = true
	}
	guilds := union(withHierarchy, withSettings)
	report.Guilds = len(guilds)

	for _, guildID := range guilds {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		log := logging.WithGuild(guildID, configAuditJobName)

		if hasHierarchy[guildID] {
			missing, err := j.hierarchyMissing(ctx, guildID)
			if err != nil {
				log.Warnw("hierarchy check failed", "error", err)
				report.Skipped = append(report.Skipped, guildID)
				continue
			}
			if len(missing) > 0 {
				report.HierarchyDrift[guildID] = missing
				log.Warnw("hierarchy references deleted roles", "role_ids", missing)
			}
		}

		if hasSettings[guildID] {
			_, err := j.settings.Validated(ctx, guildID)
			switch {
			case err == nil:
			case common.IsKind(err, common.KindConfiguration):
				code := ""
				if re, ok := common.AsRosterError(err); ok {
					code = re.Code
				}
				report.SettingsDrift[guildID] = code
				log.Warnw("break/resign settings are stale", "code", code)
			default:
				log.Warnw("settings check failed", "error", err)
				report.Skipped = append(report.Skipped, guildID)
				continue
			}
		}

		recs, err := j.lifecycle.PendingRecords(ctx, guildID)
		if err != nil {
			log.Warnw("failed to list pending records", "error", err)
			report.Skipped = append(report.Skipped, guildID)
			continue
		}
		for _, rec := range recs {
			report.Pending[rec.State]++
		}
	}

	j.observe(report, time.Since(start))
	logging.Info("config audit complete",
		"guilds", report.Guilds,
		"hierarchy_drift", len(report.HierarchyDrift),
		"settings_drift", len(report.SettingsDrift),
		"resigned", report.Pending[constants.LifecycleResigned],
		"comeback_requested", report.Pending[constants.LifecycleComebackRequested],
		"skipped", len(report.Skipped),
		"duration", time.Since(start),
	)
	return report, nil
}

// RunScheduled runs immediately and then on every tick until ctx is done.
func (j *ConfigAuditJob) RunScheduled(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logging.Info("config audit scheduled", "interval", interval)
	j.runLogged(ctx)

	for {
		select {
		case <-ticker.C:
			j.runLogged(ctx)
		case <-ctx.Done():
			logging.Info("config audit stopped")
			return
		}
	}
}

func (j *ConfigAuditJob) runLogged(ctx context.Context) {
	if _, err := j.Run(ctx); err != nil && ctx.Err() == nil {
		logging.Error("config audit failed", "error", err)
	}
}

func (j *ConfigAuditJob) hierarchyMissing(ctx context.Context, guildID string) ([]string, error) {
	view, err := j.ranks.ViewHierarchy(ctx, guildID)
	if err != nil {
		return nil, err
	}
	var missing []string
	for _, r := range view.Roles {
		if r.Missing {
			missing = append(missing, r.RoleID)
		}
	}
	return missing, nil
}

func (j *ConfigAuditJob) observe(report *ConfigAuditReport, took time.Duration) {
	if j.metrics == nil {
		return
	}
	j.metrics.ConfigDriftGuilds.WithLabelValues("hierarchy").Set(float64(len(report.HierarchyDrift)))
	j.metrics.ConfigDriftGuilds.WithLabelValues("settings").Set(float64(len(report.SettingsDrift)))
	for _, state := range []constants.LifecycleState{constants.LifecycleResigned, constants.LifecycleComebackRequested} {
		j.metrics.PendingLifecycle.WithLabelValues(state.String()).Set(float64(report.Pending[state]))
	}
	j.metrics.JobRunDuration.WithLabelValues(configAuditJobName).Observe(took.Seconds())
}

func union(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	for _, id := range a {
		seen[id] = struct{}{}
	}
	for _, id := range b {
		seen[id] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
