package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"infinite-experiment/roster/internal/common"
	"infinite-experiment/roster/internal/constants"
	"infinite-experiment/roster/internal/metrics"
	"infinite-experiment/roster/internal/platform"
)

// DefaultLockWait bounds how long an operation waits for its keys.
const DefaultLockWait = 10 * time.Second

// lockKeys acquires keys in the given order and returns one func releasing
// all of them. Callers list keys hierarchy, settings, lifecycle, member so
// no two operations wait on each other in opposite order.
func lockKeys(ctx context.Context, locker common.KeyLocker, reg *metrics.MetricsRegistry, wait time.Duration, keys ...string) (func(), error) {
	if wait <= 0 {
		wait = DefaultLockWait
	}
	lctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	unlocks := make([]func(), 0, len(keys))
	release := func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}

	for _, key := range keys {
		start := time.Now()
		unlock, err := locker.Lock(lctx, key)
		if reg != nil {
			reg.LockWaitDuration.WithLabelValues(lockName(key)).Observe(time.Since(start).Seconds())
		}
		if err != nil {
			release()
			return nil, common.TransientError(constants.ErrCodeLockTimeout, err)
		}
		unlocks = append(unlocks, unlock)
	}
	return release, nil
}

// lockName drops the ids from a lock key for metric labels.
func lockName(key string) string {
	name, _, _ := strings.Cut(key, ":")
	return name
}

// platformError wraps a failed platform call. Lookups that found nothing
// become state errors; everything else is transient.
func platformError(err error) error {
	switch {
	case errors.Is(err, platform.ErrMemberNotFound):
		return common.StateError(constants.ErrCodeMemberNotFound, err)
	case errors.Is(err, platform.ErrChannelNotFound):
		return common.ConfigurationError(constants.ErrCodeSettingsChannelMissing, err)
	default:
		return common.TransientError(constants.ErrCodePlatformFailure, err)
	}
}

func storeError(err error) error {
	return common.TransientError(constants.ErrCodeStoreFailure, err)
}

// requireAdmin refuses actors without the administrator capability. An empty
// actor is a trusted system call and is let through.
func requireAdmin(ctx context.Context, p platform.Platform, guildID, actorID string) error {
	if actorID == "" {
		return nil
	}
	ok, err := p.IsAdministrator(ctx, guildID, actorID)
	if err != nil {
		return platformError(err)
	}
	if !ok {
		return common.PrivilegeError(constants.ErrCodeNotAdministrator, nil)
	}
	return nil
}

func roleMentions(ids []string) string {
	if len(ids) == 0 {
		return constants.NoSavedRoles
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = platform.Role{ID: id}.Mention()
	}
	return strings.Join(out, ", ")
}

func channelMention(id string) string { return "<#" + id + ">" }
