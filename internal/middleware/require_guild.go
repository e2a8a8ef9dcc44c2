package middleware

import (
	"fmt"
	"net/http"
	"time"

	"infinite-experiment/roster/internal/actions"
	"infinite-experiment/roster/internal/auth"
	"infinite-experiment/roster/internal/common"
	"infinite-experiment/roster/internal/constants"
)

// RequireGuildMiddleware refuses requests without a valid guild id and,
// when given, a valid actor id.
func RequireGuildMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := auth.GetUserClaims(r.Context())
			if claims == nil {
				common.RespondRosterError(w, time.Now(), common.PrivilegeError(constants.ErrCodeInvalidCredential, nil))
				return
			}
			if !actions.ValidSnowflake(claims.DiscordServerID()) {
				common.RespondRosterError(w, time.Now(), common.StateError(constants.ErrCodeInvalidRequest,
					fmt.Errorf("invalid guild id %q", claims.DiscordServerID())))
				return
			}
			if uid := claims.DiscordUserID(); uid != "" && !actions.ValidSnowflake(uid) {
				common.RespondRosterError(w, time.Now(), common.StateError(constants.ErrCodeInvalidRequest,
					fmt.Errorf("invalid user id %q", uid)))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
