package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"infinite-experiment/roster/internal/actions"
	"infinite-experiment/roster/internal/common"
	"infinite-experiment/roster/internal/constants"
	"infinite-experiment/roster/internal/db/repositories"
	"infinite-experiment/roster/internal/logging"
	"infinite-experiment/roster/internal/metrics"
	"infinite-experiment/roster/internal/models/dtos"
	gormModels "infinite-experiment/roster/internal/models/gorm"
	"infinite-experiment/roster/internal/platform"
	"infinite-experiment/roster/internal/ranks"
)

// Lifecycle events, also used as metric labels.
const (
	EventBreak           = "break"
	EventResign          = "resign"
	EventComebackRequest = "comeback_request"
	EventComebackApprove = "comeback_approve"

	StateActive = "ACTIVE"
	StateBreak  = "ON_BREAK"
)

// ApproveInput is an administrator's click on an approval button.
type ApproveInput struct {
	GuildID      string
	ActorID      string
	ChannelID    string
	TargetUserID string
	Clicked      platform.MessageRef
}

// LifecycleService runs the break, resign and comeback workflow.
type LifecycleService struct {
	platform platform.Platform
	store    *ConfigStore
	settings *SettingsService
	records  *repositories.LifecycleRepository
	locker   common.KeyLocker
	audit    AuditPublisher
	metrics  *metrics.MetricsRegistry
	lockWait time.Duration
	now      func() time.Time
}

func NewLifecycleService(
	p platform.Platform,
	store *ConfigStore,
	settings *SettingsService,
	records *repositories.LifecycleRepository,
	locker common.KeyLocker,
	audit AuditPublisher,
	reg *metrics.MetricsRegistry,
	lockWait time.Duration,
) *LifecycleService {
	return &LifecycleService{
		platform: p,
		store:    store,
		settings: settings,
		records:  records,
		locker:   locker,
		audit:    audit,
		metrics:  reg,
		lockWait: lockWait,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Break puts a ranked member on break. There is no way back through the bot.
func (s *LifecycleService) Break(ctx context.Context, guildID, userID string) (*dtos.LifecycleResponse, error) {
	vs, err := s.settings.Validated(ctx, guildID)
	if err != nil {
		return nil, err
	}

	unlock, err := lockKeys(ctx, s.locker, s.metrics, s.lockWait, common.LockKey(constants.LockMember, guildID, userID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	member, h, err := s.rankedMember(ctx, guildID, userID)
	if err != nil {
		return nil, err
	}
	if !ranks.HoldsAny(member.RoleIDs, h) {
		return nil, common.StateError(constants.ErrCodeNotRanked, nil)
	}
	if member.HasRole(vs.BreakRoleID) {
		return nil, common.StateError(constants.ErrCodeAlreadyOnBreak, nil)
	}

	if err := s.platform.AddRoles(ctx, guildID, userID, []string{vs.BreakRoleID}, constants.AuditReasonBreak); err != nil {
		return nil, platformError(err)
	}

	dm := s.directMessage(ctx, userID, platform.Message{
		Content: fmt.Sprintf(constants.DMBreakStarted, vs.GuildName, vs.BreakRole.Name),
	})
	dmText := constants.DMStatusFailed
	if dm == dtos.DMSent {
		dmText = constants.DMStatusSent
	}
	announced := s.announce(ctx, vs.AnnounceChannelID, constants.TitleBreak, constants.ColorBreak,
		fmt.Sprintf(constants.AnnounceBreak, member.Mention(), dmText))

	s.event(EventBreak)
	publishAudit(ctx, s.audit, s.metrics, dtos.AuditEvent{
		GuildID:   guildID,
		UserID:    userID,
		ActorID:   userID,
		Action:    string(constants.AuditBreak),
		AddedRole: vs.BreakRoleID,
	})

	return &dtos.LifecycleResponse{
		Event:     EventBreak,
		GuildID:   guildID,
		UserID:    userID,
		State:     StateBreak,
		DMStatus:  dm,
		Announced: announced,
		Message:   fmt.Sprintf(constants.MsgBreakStarted, dmText),
	}, nil
}

// Resign strips the member's hierarchy roles, remembers them and applies the
// resign role. The record is written first so a second resignation anywhere
// is refused while this one is in flight; any role failure undoes it.
func (s *LifecycleService) Resign(ctx context.Context, guildID, userID string) (*dtos.LifecycleResponse, error) {
	vs, err := s.settings.Validated(ctx, guildID)
	if err != nil {
		return nil, err
	}

	unlock, err := lockKeys(ctx, s.locker, s.metrics, s.lockWait,
		common.LockKey(constants.LockLifecycle, userID),
		common.LockKey(constants.LockMember, guildID, userID),
	)
	if err != nil {
		return nil, err
	}
	defer unlock()

	member, h, err := s.rankedMember(ctx, guildID, userID)
	if err != nil {
		return nil, err
	}
	if member.HasRole(vs.ResignRoleID) {
		return nil, common.StateError(constants.ErrCodeAlreadyResigned, nil)
	}
	saved := ranks.HeldRoles(member.RoleIDs, h)
	if len(saved) == 0 {
		return nil, common.StateError(constants.ErrCodeNotRanked, nil)
	}

	rec := &gormModels.LifecycleRecord{
		UserID:       userID,
		GuildID:      guildID,
		SavedRoleIDs: saved,
		State:        constants.LifecycleResigned,
		ResignedAt:   s.now(),
	}
	if err := s.records.Create(ctx, rec); err != nil {
		if errors.Is(err, repositories.ErrRecordExists) {
			return nil, common.StateError(constants.ErrCodeRecordExists, err)
		}
		return nil, storeError(err)
	}

	if err := s.platform.RemoveRoles(ctx, guildID, userID, saved, constants.AuditReasonResignStrip); err != nil {
		if _, derr := s.records.Delete(ctx, userID); derr != nil {
			logging.Error("failed to roll back lifecycle record", "user_id", userID, "error", derr)
		}
		return nil, platformError(err)
	}
	if err := s.platform.AddRoles(ctx, guildID, userID, []string{vs.ResignRoleID}, constants.AuditReasonResignAdd); err != nil {
		// put the member back where they were so resign can be retried
		log := logging.WithGuild(guildID, EventResign)
		if rerr := s.platform.AddRoles(ctx, guildID, userID, saved, constants.AuditReasonResignRollback); rerr != nil {
			log.Errorw("failed to restore hierarchy roles after resign failure", "user_id", userID, "role_ids", saved, "error", rerr)
		}
		if _, derr := s.records.Delete(ctx, userID); derr != nil {
			log.Errorw("failed to roll back lifecycle record", "user_id", userID, "error", derr)
		}
		return nil, platformError(err)
	}

	ref, dmErr := s.platform.SendDirectMessage(ctx, userID, platform.Message{
		Content: fmt.Sprintf(constants.DMResigned, vs.GuildName, vs.ResignRole.Name),
		Buttons: []platform.Button{{
			Label:  constants.ButtonInformComeback,
			Style:  platform.ButtonPrimary,
			Action: actions.ComebackRequest(),
		}},
	})
	dm, dmText := dtos.DMSent, constants.DMStatusComebackSent
	if dmErr != nil {
		dm, dmText = dtos.DMFailed, constants.DMStatusComebackBlocked
		s.notificationFailed("direct_message", userID, dmErr)
	} else {
		rec.ComebackChannelID = ref.ChannelID
		rec.ComebackMessageID = ref.MessageID
		if err := s.records.Update(ctx, rec); err != nil {
			logging.Warn("failed to store comeback message reference", "user_id", userID, "error", err)
		}
	}

	announced := s.announce(ctx, vs.AnnounceChannelID, constants.TitleResign, constants.ColorResign,
		fmt.Sprintf(constants.AnnounceResign, member.Mention(), dmText))

	s.event(EventResign)
	publishAudit(ctx, s.audit, s.metrics, dtos.AuditEvent{
		GuildID:      guildID,
		UserID:       userID,
		ActorID:      userID,
		Action:       string(constants.AuditResign),
		RemovedRoles: saved,
		AddedRole:    vs.ResignRoleID,
	})

	return &dtos.LifecycleResponse{
		Event:        EventResign,
		GuildID:      guildID,
		UserID:       userID,
		State:        constants.LifecycleResigned.String(),
		SavedRoleIDs: saved,
		DMStatus:     dm,
		Announced:    announced,
		Message:      fmt.Sprintf(constants.MsgResigned, dmText),
	}, nil
}

// RequestComeback is the resigned member clicking the button in their DM.
// clicked is that DM message, when known.
func (s *LifecycleService) RequestComeback(ctx context.Context, userID string, clicked platform.MessageRef) (*dtos.LifecycleResponse, error) {
	unlock, err := lockKeys(ctx, s.locker, s.metrics, s.lockWait, common.LockKey(constants.LockLifecycle, userID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	rec, err := s.records.Get(ctx, userID)
	if err != nil {
		return nil, storeError(err)
	}
	if rec == nil {
		return nil, common.StateError(constants.ErrCodeRecordNotFound, nil).
			Withf("%s", constants.GetErrorMessage(constants.ErrCodeGuildReferenceMissing))
	}
	if rec.GuildID == "" {
		return nil, common.ConfigurationError(constants.ErrCodeGuildReferenceMissing, nil)
	}

	resp := &dtos.LifecycleResponse{
		Event:        EventComebackRequest,
		GuildID:      rec.GuildID,
		UserID:       userID,
		SavedRoleIDs: rec.SavedRoleIDs,
		DMStatus:     dtos.DMSkipped,
	}
	if rec.State == constants.LifecycleComebackRequested {
		resp.State = rec.State.String()
		resp.AlreadyPending = true
		resp.Message = constants.MsgComebackPending
		return resp, nil
	}

	settings, err := s.store.Settings(ctx, rec.GuildID)
	if err != nil {
		return nil, err
	}
	if settings == nil || settings.AdminChannelID == "" {
		return nil, common.ConfigurationError(constants.ErrCodeSettingsNotConfigured, nil)
	}
	if _, err := s.platform.Channel(ctx, rec.GuildID, settings.AdminChannelID); err != nil {
		return nil, platformError(err)
	}
	guildName, err := s.platform.GuildName(ctx, rec.GuildID)
	if err != nil {
		return nil, platformError(err)
	}
	tag := userID
	if m, err := s.platform.Member(ctx, rec.GuildID, userID); err == nil {
		tag = m.Tag()
	}

	approval, err := s.platform.SendChannelMessage(ctx, settings.AdminChannelID, platform.Message{
		Embeds: []platform.Embed{{
			Title:       constants.TitleComebackRequest,
			Description: fmt.Sprintf(constants.ComebackRequestBody, tag, userID, guildName),
			Color:       constants.ColorComebackRequest,
			Fields: []platform.EmbedField{
				{Name: constants.FieldSavedRoles, Value: roleMentions(rec.SavedRoleIDs)},
				{Name: constants.FieldAction, Value: constants.FieldActionValue},
			},
			Timestamp: s.now(),
		}},
		Buttons: []platform.Button{{
			Label:  constants.ButtonApproveComeback,
			Style:  platform.ButtonSuccess,
			Action: actions.ApproveComeback(userID),
		}},
	})
	if err != nil {
		return nil, platformError(err)
	}

	dmRef := clicked
	if dmRef.Empty() {
		dmRef = platform.MessageRef{ChannelID: rec.ComebackChannelID, MessageID: rec.ComebackMessageID}
	}
	if !dmRef.Empty() {
		err := s.platform.EditButtons(ctx, dmRef, []platform.Button{{
			Label:    constants.ButtonComebackRequested,
			Style:    platform.ButtonPrimary,
			Action:   actions.ComebackRequest(),
			Disabled: true,
		}})
		if err != nil {
			logging.Warn("could not disable comeback button", "user_id", userID, "error", err)
		}
	}

	requestedAt := s.now()
	rec.State = constants.LifecycleComebackRequested
	rec.ApprovalChannelID = approval.ChannelID
	rec.ApprovalMessageID = approval.MessageID
	rec.ComebackRequestedAt = &requestedAt
	if err := s.records.Update(ctx, rec); err != nil {
		return nil, storeError(err)
	}

	s.event(EventComebackRequest)
	publishAudit(ctx, s.audit, s.metrics, dtos.AuditEvent{
		GuildID: rec.GuildID,
		UserID:  userID,
		ActorID: userID,
		Action:  string(constants.AuditComebackRequest),
	})

	resp.State = rec.State.String()
	resp.Announced = true
	resp.Message = constants.MsgComebackSent
	return resp, nil
}

// ApproveComeback restores a resigned member's saved roles. Only an
// administrator clicking in the guild's admin channel may do it.
func (s *LifecycleService) ApproveComeback(ctx context.Context, in ApproveInput) (*dtos.LifecycleResponse, error) {
	if err := requireAdmin(ctx, s.platform, in.GuildID, in.ActorID); err != nil {
		return nil, err
	}
	if !actions.ValidSnowflake(in.TargetUserID) {
		return nil, common.StateError(constants.ErrCodeInvalidRequest, actions.ErrInvalidUserID)
	}

	settings, err := s.store.Settings(ctx, in.GuildID)
	if err != nil {
		return nil, err
	}
	if settings == nil || !settings.Complete() {
		return nil, common.ConfigurationError(constants.ErrCodeSettingsNotConfigured, nil)
	}
	if in.ActorID != "" && in.ChannelID != settings.AdminChannelID {
		return nil, common.PrivilegeError(constants.ErrCodeWrongChannel, nil)
	}

	unlock, err := lockKeys(ctx, s.locker, s.metrics, s.lockWait,
		common.LockKey(constants.LockLifecycle, in.TargetUserID),
		common.LockKey(constants.LockMember, in.GuildID, in.TargetUserID),
	)
	if err != nil {
		return nil, err
	}
	defer unlock()

	rec, err := s.records.Get(ctx, in.TargetUserID)
	if err != nil {
		return nil, storeError(err)
	}
	if rec == nil || rec.GuildID != in.GuildID {
		return nil, common.StateError(constants.ErrCodeRecordNotFound, nil)
	}

	member, err := s.platform.Member(ctx, in.GuildID, in.TargetUserID)
	if err != nil {
		return nil, platformError(err)
	}

	if member.HasRole(settings.ResignRoleID) {
		if err := s.platform.RemoveRoles(ctx, in.GuildID, in.TargetUserID, []string{settings.ResignRoleID}, constants.AuditReasonComebackOff); err != nil {
			return nil, platformError(err)
		}
	}
	if len(rec.SavedRoleIDs) > 0 {
		if err := s.platform.AddRoles(ctx, in.GuildID, in.TargetUserID, rec.SavedRoleIDs, constants.AuditReasonComebackOn); err != nil {
			return nil, platformError(err)
		}
	}

	if _, err := s.records.Delete(ctx, in.TargetUserID); err != nil {
		return nil, storeError(err)
	}

	approval := in.Clicked
	if approval.Empty() {
		approval = platform.MessageRef{ChannelID: rec.ApprovalChannelID, MessageID: rec.ApprovalMessageID}
	}
	if !approval.Empty() {
		err := s.platform.EditButtons(ctx, approval, []platform.Button{{
			Label:    constants.ButtonComebackApproved,
			Style:    platform.ButtonSuccess,
			Action:   actions.ApproveComeback(in.TargetUserID),
			Disabled: true,
		}})
		if err != nil {
			logging.Warn("could not disable approval button", "user_id", in.TargetUserID, "error", err)
		}
	}

	actorTag := in.ActorID
	if in.ActorID != "" {
		if actor, err := s.platform.Member(ctx, in.GuildID, in.ActorID); err == nil {
			actorTag = actor.Tag()
		}
	}
	guildName, err := s.platform.GuildName(ctx, in.GuildID)
	if err != nil {
		guildName = in.GuildID
	}
	dm := s.directMessage(ctx, in.TargetUserID, platform.Message{
		Content: fmt.Sprintf(constants.DMComebackApproved, guildName, actorTag),
	})
	dmText := constants.DMStatusFailed
	if dm == dtos.DMSent {
		dmText = constants.DMStatusSent
	}

	announced := s.announce(ctx, settings.AnnounceChannelID, constants.TitleComebackApproved, constants.ColorComebackApproved,
		fmt.Sprintf(constants.AnnounceComeback, member.Mention(), roleMentions(rec.SavedRoleIDs)))

	s.event(EventComebackApprove)
	publishAudit(ctx, s.audit, s.metrics, dtos.AuditEvent{
		GuildID:      in.GuildID,
		UserID:       in.TargetUserID,
		ActorID:      in.ActorID,
		Action:       string(constants.AuditComebackApprove),
		RemovedRoles: []string{settings.ResignRoleID},
		Reason:       constants.AuditReasonComebackOn,
	})

	return &dtos.LifecycleResponse{
		Event:        EventComebackApprove,
		GuildID:      in.GuildID,
		UserID:       in.TargetUserID,
		State:        StateActive,
		SavedRoleIDs: rec.SavedRoleIDs,
		DMStatus:     dm,
		Announced:    announced,
		Message:      fmt.Sprintf(constants.MsgComebackDone, member.Tag(), dmText),
	}, nil
}

// PendingRecords lists a guild's resigned members.
func (s *LifecycleService) PendingRecords(ctx context.Context, guildID string) ([]gormModels.LifecycleRecord, error) {
	recs, err := s.records.ListByGuild(ctx, guildID)
	if err != nil {
		return nil, storeError(err)
	}
	return recs, nil
}

func (s *LifecycleService) rankedMember(ctx context.Context, guildID, userID string) (*platform.Member, ranks.Hierarchy, error) {
	h, err := s.store.Hierarchy(ctx, guildID)
	if err != nil {
		return nil, nil, err
	}
	member, err := s.platform.Member(ctx, guildID, userID)
	if err != nil {
		return nil, nil, platformError(err)
	}
	return member, h, nil
}

func (s *LifecycleService) directMessage(ctx context.Context, userID string, msg platform.Message) dtos.DMStatus {
	if _, err := s.platform.SendDirectMessage(ctx, userID, msg); err != nil {
		s.notificationFailed("direct_message", userID, err)
		return dtos.DMFailed
	}
	return dtos.DMSent
}

// announce posts to the public channel. Failure is reported, never returned.
func (s *LifecycleService) announce(ctx context.Context, channelID, title string, color int, body string) bool {
	_, err := s.platform.SendChannelMessage(ctx, channelID, platform.Message{
		Embeds: []platform.Embed{{Title: title, Description: body, Color: color, Timestamp: s.now()}},
	})
	if err != nil {
		s.notificationFailed("announcement", channelID, err)
		return false
	}
	return true
}

func (s *LifecycleService) notificationFailed(channel, target string, err error) {
	code := constants.ErrCodeDirectMessageFailed
	if channel == "announcement" {
		code = constants.ErrCodeAnnouncementFailed
	}
	logging.Warn("notification not delivered", "channel", channel, "target", target, "error", common.NotificationError(code, err))
	if s.metrics != nil {
		s.metrics.NotificationFailuresTotal.WithLabelValues(channel).Inc()
	}
}

func (s *LifecycleService) event(name string) {
	if s.metrics != nil {
		s.metrics.LifecycleEventsTotal.WithLabelValues(name).Inc()
	}
}
