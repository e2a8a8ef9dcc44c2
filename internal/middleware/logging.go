package middleware

import (
	"net/http"
	"time"

	"infinite-experiment/roster/internal/auth"
	"infinite-experiment/roster/internal/logging"
)

// Logging writes one line per request. Headers are not logged; they carry
// API keys.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		guildID, userID := "", ""
		if claims := auth.GetUserClaims(r.Context()); claims != nil {
			guildID, userID = claims.DiscordServerID(), claims.DiscordUserID()
		}
		logging.WithRequest(auth.GetRequestID(r.Context()), guildID, userID, r.URL.Path).Infow("HTTP request completed",
			"method", r.Method,
			"status_code", rec.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
