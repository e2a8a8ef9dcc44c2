package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"infinite-experiment/roster/internal/actions"
	"infinite-experiment/roster/internal/common"
	"infinite-experiment/roster/internal/constants"
	"infinite-experiment/roster/internal/logging"
	"infinite-experiment/roster/internal/metrics"
	"infinite-experiment/roster/internal/models/dtos"
	"infinite-experiment/roster/internal/platform"
	"infinite-experiment/roster/internal/ranks"
)

// RankCommand is one hire/fire/promote/demote request. ActorID is empty for
// trusted system calls, which skip the administrator and self-target checks.
type RankCommand struct {
	GuildID  string
	ActorID  string
	TargetID string
	Reason   string
}

type RankService struct {
	platform platform.Platform
	store    *ConfigStore
	locker   common.KeyLocker
	audit    AuditPublisher
	metrics  *metrics.MetricsRegistry
	lockWait time.Duration
}

func NewRankService(
	p platform.Platform,
	store *ConfigStore,
	locker common.KeyLocker,
	audit AuditPublisher,
	reg *metrics.MetricsRegistry,
	lockWait time.Duration,
) *RankService {
	return &RankService{
		platform: p,
		store:    store,
		locker:   locker,
		audit:    audit,
		metrics:  reg,
		lockWait: lockWait,
	}
}

func (s *RankService) Hire(ctx context.Context, cmd RankCommand) (*dtos.RankChangeResponse, error) {
	return s.Change(ctx, ranks.OpHire, cmd)
}

func (s *RankService) Fire(ctx context.Context, cmd RankCommand) (*dtos.RankChangeResponse, error) {
	return s.Change(ctx, ranks.OpFire, cmd)
}

func (s *RankService) Promote(ctx context.Context, cmd RankCommand) (*dtos.RankChangeResponse, error) {
	return s.Change(ctx, ranks.OpPromote, cmd)
}

func (s *RankService) Demote(ctx context.Context, cmd RankCommand) (*dtos.RankChangeResponse, error) {
	return s.Change(ctx, ranks.OpDemote, cmd)
}

// Change applies op to the target member. Nothing is mutated unless every
// precondition holds; removals go out before the addition.
func (s *RankService) Change(ctx context.Context, op ranks.Operation, cmd RankCommand) (*dtos.RankChangeResponse, error) {
	if !op.Valid() {
		return nil, common.StateError(constants.ErrCodeUnknownOperation, fmt.Errorf("%w: %q", ranks.ErrUnknownOperation, op))
	}
	if !actions.ValidSnowflake(cmd.TargetID) {
		return nil, common.StateError(constants.ErrCodeInvalidRequest, fmt.Errorf("invalid target id %q", cmd.TargetID))
	}

	if _, _, err := s.liveHierarchy(ctx, cmd.GuildID); err != nil {
		return nil, err
	}

	if err := requireAdmin(ctx, s.platform, cmd.GuildID, cmd.ActorID); err != nil {
		return nil, err
	}
	if cmd.ActorID != "" && cmd.ActorID == cmd.TargetID {
		return nil, common.PrivilegeError(constants.ErrCodeSelfTarget, nil)
	}

	unlock, err := lockKeys(ctx, s.locker, s.metrics, s.lockWait,
		common.LockKey(constants.LockHierarchy, cmd.GuildID),
		common.LockKey(constants.LockMember, cmd.GuildID, cmd.TargetID),
	)
	if err != nil {
		return nil, err
	}
	defer unlock()

	// Re-read and re-check under the lock; a concurrent setup may have
	// replaced the hierarchy or a role may have been deleted meanwhile.
	h, guildRoles, err := s.liveHierarchy(ctx, cmd.GuildID)
	if err != nil {
		return nil, err
	}

	member, err := s.platform.Member(ctx, cmd.GuildID, cmd.TargetID)
	if err != nil {
		return nil, platformError(err)
	}
	manageable, err := s.platform.CanManageMember(ctx, cmd.GuildID, cmd.TargetID)
	if err != nil {
		return nil, platformError(err)
	}
	if !manageable {
		return nil, common.PrivilegeError(constants.ErrCodeMemberNotManaged, nil)
	}

	t, err := ranks.Decide(op, member.RoleIDs, h)
	if err != nil {
		return nil, decideError(err)
	}

	if len(t.Removed) > 0 {
		if err := s.platform.RemoveRoles(ctx, cmd.GuildID, cmd.TargetID, t.Removed, constants.AuditReasonRankRemoval); err != nil {
			return nil, platformError(err)
		}
	}
	if t.Added != "" {
		if err := s.platform.AddRoles(ctx, cmd.GuildID, cmd.TargetID, []string{t.Added}, constants.AuditReasonRankChange); err != nil {
			return nil, s.restoreRemoved(ctx, cmd, t.Removed, err)
		}
	}

	msg := fmt.Sprintf(constants.MsgAllRolesRemoved, member.Tag())
	if t.Kind == ranks.StatusRankSet {
		name := t.Added
		if r, err := platform.FindRole(guildRoles, t.Added); err == nil {
			name = r.Name
		}
		msg = fmt.Sprintf(constants.MsgRoleGranted, member.Tag(), name)
	}

	if s.metrics != nil {
		s.metrics.RankTransitionsTotal.WithLabelValues(op.String(), string(t.Kind)).Inc()
	}
	logging.WithGuild(cmd.GuildID, op.String()).Infow("rank changed",
		"target_id", cmd.TargetID, "actor_id", cmd.ActorID, "from", t.From, "to", t.To)

	publishAudit(ctx, s.audit, s.metrics, dtos.AuditEvent{
		GuildID:      cmd.GuildID,
		UserID:       cmd.TargetID,
		ActorID:      cmd.ActorID,
		Action:       string(auditActionFor(op)),
		RemovedRoles: t.Removed,
		AddedRole:    t.Added,
		Reason:       cmd.Reason,
	})

	return &dtos.RankChangeResponse{
		GuildID:        cmd.GuildID,
		TargetID:       cmd.TargetID,
		ActorID:        cmd.ActorID,
		Operation:      op.String(),
		Kind:           string(t.Kind),
		FromIndex:      t.From,
		ToIndex:        t.To,
		RemovedRoleIDs: nonNil(t.Removed),
		AddedRoleID:    t.Added,
		Message:        msg,
	}, nil
}

// liveHierarchy loads the stored hierarchy, checks every role still resolves
// in the guild and returns it with the guild's roles.
func (s *RankService) liveHierarchy(ctx context.Context, guildID string) (ranks.Hierarchy, []platform.Role, error) {
	h, err := s.store.Hierarchy(ctx, guildID)
	if err != nil {
		return nil, nil, err
	}
	if h == nil {
		return nil, nil, common.ConfigurationError(constants.ErrCodeHierarchyNotConfigured, nil)
	}
	roles, err := s.platform.Roles(ctx, guildID)
	if err != nil {
		return nil, nil, platformError(err)
	}
	for _, id := range h {
		if _, err := platform.FindRole(roles, id); err != nil {
			return nil, nil, common.ConfigurationError(constants.ErrCodeHierarchyRoleMissing, fmt.Errorf("role %s: %w", id, err))
		}
	}
	return h, roles, nil
}

// restoreRemoved gives back the roles stripped before a failed grant. The
// returned error says whether the member was left without a rank.
func (s *RankService) restoreRemoved(ctx context.Context, cmd RankCommand, removed []string, cause error) error {
	log := logging.WithGuild(cmd.GuildID, "rank_restore")
	if len(removed) == 0 {
		return common.TransientError(constants.ErrCodeRankNotGranted, cause)
	}
	if err := s.platform.AddRoles(ctx, cmd.GuildID, cmd.TargetID, removed, constants.AuditReasonRankRestore); err != nil {
		log.Errorw("member left without rank", "target_id", cmd.TargetID, "role_ids", removed, "error", err)
		return common.TransientError(constants.ErrCodeRankStripped, cause)
	}
	log.Warnw("rank grant failed, previous roles restored", "target_id", cmd.TargetID, "error", cause)
	return common.TransientError(constants.ErrCodeRankNotGranted, cause)
}

// SetupHierarchy replaces the guild's hierarchy. Tokens are role ids, role
// mentions or case-insensitive role names, lowest rank first.
func (s *RankService) SetupHierarchy(ctx context.Context, guildID, actorID string, tokens []string) (*dtos.HierarchyResponse, error) {
	if err := requireAdmin(ctx, s.platform, guildID, actorID); err != nil {
		return nil, err
	}
	if len(tokens) < ranks.MinHierarchySize {
		return nil, common.ConfigurationError(constants.ErrCodeHierarchyTooShort, ranks.ErrHierarchyTooShort)
	}

	roles, err := s.platform.Roles(ctx, guildID)
	if err != nil {
		return nil, platformError(err)
	}

	resolved := make([]platform.Role, 0, len(tokens))
	for _, token := range tokens {
		role, ok := resolveRoleToken(roles, token)
		if !ok {
			return nil, common.ConfigurationError(constants.ErrCodeRoleUnresolvable, platform.ErrRoleNotFound).
				Withf("Error: Could not find a role matching `%s`. Please check the name, ID, or mention.", strings.TrimSpace(token))
		}
		ok, err := s.platform.CanManageRole(ctx, guildID, role.ID)
		if err != nil {
			return nil, platformError(err)
		}
		if !ok {
			return nil, common.ConfigurationError(constants.ErrCodeRoleNotManageable, nil).
				Withf("Error: The role **%s** is higher than or equal to my highest role. I cannot manage it. Please move my role higher.", role.Name)
		}
		resolved = append(resolved, role)
	}

	h := make(ranks.Hierarchy, len(resolved))
	for i, r := range resolved {
		h[i] = r.ID
	}
	if err := h.Validate(); err != nil {
		if errors.Is(err, ranks.ErrDuplicateRole) {
			return nil, common.ConfigurationError(constants.ErrCodeHierarchyDuplicate, err)
		}
		return nil, common.ConfigurationError(constants.ErrCodeHierarchyTooShort, err)
	}

	unlock, err := lockKeys(ctx, s.locker, s.metrics, s.lockWait, common.LockKey(constants.LockHierarchy, guildID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := s.store.SaveHierarchy(ctx, guildID, h); err != nil {
		return nil, err
	}
	logging.WithGuild(guildID, "hierarchy_setup").Infow("hierarchy saved", "actor_id", actorID, "size", len(h))

	var list strings.Builder
	out := make([]dtos.HierarchyRole, len(resolved))
	for i, r := range resolved {
		fmt.Fprintf(&list, "%d. %s\n", i+1, r.Name)
		out[i] = dtos.HierarchyRole{Index: i, RoleID: r.ID, Name: r.Name}
	}
	return &dtos.HierarchyResponse{
		GuildID:   guildID,
		Roles:     out,
		UpdatedAt: time.Now().UTC(),
		Message:   fmt.Sprintf(constants.MsgHierarchySaved, list.String()),
	}, nil
}

// ViewHierarchy lists the stored hierarchy with current role names. Roles
// deleted from the guild are flagged rather than dropped.
func (s *RankService) ViewHierarchy(ctx context.Context, guildID string) (*dtos.HierarchyResponse, error) {
	h, err := s.store.Hierarchy(ctx, guildID)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, common.ConfigurationError(constants.ErrCodeHierarchyNotConfigured, nil)
	}
	roles, err := s.platform.Roles(ctx, guildID)
	if err != nil {
		return nil, platformError(err)
	}

	out := make([]dtos.HierarchyRole, len(h))
	for i, id := range h {
		entry := dtos.HierarchyRole{Index: i, RoleID: id}
		if r, err := platform.FindRole(roles, id); err == nil {
			entry.Name = r.Name
		} else {
			entry.Missing = true
		}
		out[i] = entry
	}
	return &dtos.HierarchyResponse{GuildID: guildID, Roles: out}, nil
}

func resolveRoleToken(roles []platform.Role, token string) (platform.Role, bool) {
	t := strings.TrimSpace(token)
	if t == "" {
		return platform.Role{}, false
	}
	if id := actions.ParseMention(t); actions.ValidSnowflake(id) {
		if r, err := platform.FindRole(roles, id); err == nil {
			return r, true
		}
	}
	for _, r := range roles {
		if strings.EqualFold(r.Name, t) {
			return r, true
		}
	}
	return platform.Role{}, false
}

func decideError(err error) error {
	switch {
	case errors.Is(err, ranks.ErrAlreadyHighest):
		return common.StateError(constants.ErrCodeAlreadyHighest, err)
	case errors.Is(err, ranks.ErrNoRankHeld):
		return common.StateError(constants.ErrCodeNoRankHeld, err)
	case errors.Is(err, ranks.ErrTargetOutOfRange):
		return common.StateError(constants.ErrCodeTargetOutOfRange, err)
	default:
		return common.StateError(constants.ErrCodeUnknownOperation, err)
	}
}

func auditActionFor(op ranks.Operation) constants.AuditAction {
	switch op {
	case ranks.OpHire:
		return constants.AuditHire
	case ranks.OpFire:
		return constants.AuditFire
	case ranks.OpPromote:
		return constants.AuditPromote
	default:
		return constants.AuditDemote
	}
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
