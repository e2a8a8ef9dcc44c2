package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"infinite-experiment/roster/internal/auth"
	"infinite-experiment/roster/internal/common"
	"infinite-experiment/roster/internal/constants"
	"infinite-experiment/roster/internal/logging"
	"infinite-experiment/roster/internal/models/entities"
)

// KeyStatusReader looks up an API key.
type KeyStatusReader interface {
	GetStatus(ctx context.Context, key string) (*entities.ApiKey, error)
}

const apiKeyCacheTTL = time.Minute

// AuthMiddleware accepts either a Bearer service token or an X-API-Key. Key
// lookups are cached briefly so every bot request does not hit the database.
func AuthMiddleware(keys KeyStatusReader, cache common.CacheInterface, signer *auth.TokenSigner) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			initTime := time.Now()
			authHeader := r.Header.Get("Authorization")
			apiKey := r.Header.Get("X-API-Key")

			var claims auth.UserClaims

			switch {
			case strings.HasPrefix(authHeader, "Bearer "):
				sc, err := signer.Parse(strings.TrimPrefix(authHeader, "Bearer "))
				if err != nil {
					unauthorized(w, initTime, err)
					return
				}
				// a token without a user lets the caller name the actor per request
				if sc.UserID == "" {
					sc.UserID = r.Header.Get("X-Discord-Id")
				}
				claims = sc

			case apiKey != "":
				active, err := keyActive(r.Context(), keys, cache, apiKey)
				if err != nil {
					unauthorized(w, initTime, err)
					return
				}
				if !active {
					unauthorized(w, initTime, errors.New("inactive api key"))
					return
				}
				claims = &auth.APIKeyClaims{
					DiscordServerIDVal: r.Header.Get("X-Server-Id"),
					DiscordUIDVal:      r.Header.Get("X-Discord-Id"),
				}

			default:
				unauthorized(w, initTime, errors.New("missing credentials"))
				return
			}

			ctx := auth.SetUserClaims(r.Context(), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func keyActive(ctx context.Context, keys KeyStatusReader, cache common.CacheInterface, apiKey string) (bool, error) {
	load := func() (any, error) {
		res, err := keys.GetStatus(ctx, apiKey)
		if err != nil {
			return nil, err
		}
		return res.Status, nil
	}
	if cache == nil {
		active, err := load()
		if err != nil {
			return false, err
		}
		return active.(bool), nil
	}

	val, err := cache.GetOrSet(string(constants.CachePrefixAPIKey)+apiKey, apiKeyCacheTTL, load)
	if err != nil {
		return false, err
	}
	active, _ := common.DecodeCached[bool](val)
	return active, nil
}

func unauthorized(w http.ResponseWriter, initTime time.Time, cause error) {
	logging.Debug("request rejected", "reason", cause.Error())
	common.RespondRosterError(w, initTime, common.PrivilegeError(constants.ErrCodeInvalidCredential, cause))
}
