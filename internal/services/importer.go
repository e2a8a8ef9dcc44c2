package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"infinite-experiment/roster/internal/constants"
	"infinite-experiment/roster/internal/db/repositories"
	"infinite-experiment/roster/internal/logging"
	"infinite-experiment/roster/internal/models/dtos"
	gormModels "infinite-experiment/roster/internal/models/gorm"
	"infinite-experiment/roster/internal/ranks"
)

// Importer loads the bot's old single-file JSON state into the database.
// Existing lifecycle records win over imported ones.
type Importer struct {
	store   *ConfigStore
	records *repositories.LifecycleRepository
}

func NewImporter(store *ConfigStore, records *repositories.LifecycleRepository) *Importer {
	return &Importer{store: store, records: records}
}

func (i *Importer) Import(ctx context.Context, r io.Reader) (*dtos.ImportSummary, error) {
	var data dtos.LegacyData
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode legacy data: %w", err)
	}

	sum := &dtos.ImportSummary{}

	for _, guildID := range sortedKeys(data.Hierarchy) {
		h := ranks.Hierarchy(data.Hierarchy[guildID])
		if err := h.Validate(); err != nil {
			sum.Skipped = append(sum.Skipped, fmt.Sprintf("hierarchy %s: %v", guildID, err))
			continue
		}
		existing, err := i.store.Hierarchy(ctx, guildID)
		if err != nil {
			return sum, err
		}
		if existing != nil {
			sum.Skipped = append(sum.Skipped, fmt.Sprintf("hierarchy %s: already configured", guildID))
			continue
		}
		if err := i.store.SaveHierarchy(ctx, guildID, h); err != nil {
			return sum, err
		}
		sum.Hierarchies++
	}

	for _, guildID := range sortedKeys(data.Settings) {
		ls := data.Settings[guildID]
		settings := &gormModels.GuildSettings{
			GuildID:           guildID,
			BreakRoleID:       ls.BreakRole,
			ResignRoleID:      ls.ResignRole,
			AnnounceChannelID: ls.BreakResignChannel,
			AdminChannelID:    ls.AdminChannel,
		}
		if !settings.Complete() {
			sum.Skipped = append(sum.Skipped, fmt.Sprintf("settings %s: incomplete", guildID))
			continue
		}
		existing, err := i.store.Settings(ctx, guildID)
		if err != nil {
			return sum, err
		}
		if existing != nil {
			sum.Skipped = append(sum.Skipped, fmt.Sprintf("settings %s: already configured", guildID))
			continue
		}
		if err := i.store.SaveSettings(ctx, settings); err != nil {
			return sum, err
		}
		sum.Settings++
	}

	for _, userID := range sortedKeys(data.UserData) {
		lu := data.UserData[userID]
		rec := &gormModels.LifecycleRecord{
			UserID:       userID,
			GuildID:      lu.GuildID,
			SavedRoleIDs: lu.SavedRoles,
			State:        constants.LifecycleResigned,
			ResignedAt:   time.UnixMilli(lu.ResignationTimestamp).UTC(),
		}
		if rec.SavedRoleIDs == nil {
			rec.SavedRoleIDs = []string{}
		}
		if lu.ComebackRequestMessageID != nil {
			rec.ComebackMessageID = *lu.ComebackRequestMessageID
		}
		err := i.records.Create(ctx, rec)
		if errors.Is(err, repositories.ErrRecordExists) {
			sum.Skipped = append(sum.Skipped, fmt.Sprintf("user %s: record exists", userID))
			continue
		}
		if err != nil {
			return sum, storeError(err)
		}
		sum.Records++
	}

	logging.Info("legacy data imported",
		"hierarchies", sum.Hierarchies, "settings", sum.Settings, "records", sum.Records, "skipped", len(sum.Skipped))
	return sum, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
