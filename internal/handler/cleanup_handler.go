/*
Package handler provides the HTTP handler for the scheduled expiration sweep.
*/
package handler

import (
	"net/http"
	"strings"

	"sniproom/internal/pkg/metrics"
	"sniproom/internal/pkg/resp"
)

// CleanupResponse is the sweep endpoint's wire contract, kept compatible with
// the scheduler integration of the original deployment: a bare JSON object,
// not the standard response envelope.
type CleanupResponse struct {
	DeletedRooms int    `json:"deletedRooms"`
	Status       string `json:"status"`
}

// HandleCleanup permanently deletes every room past its expiry and reports the
// count. When CRON_SECRET is configured the caller must present it as a bearer
// token; leaving it unset keeps the endpoint open for schedulers that cannot
// send headers.
//
// The sweep reads the whole room set in one pass with no pagination. That is
// acceptable at the intended scale (ephemeral rooms with bounded lifetime) but
// is a known limit for larger deployments.
func HandleCleanup(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if secret := deps.Config.CronSecret; secret != "" {
			authHeader := r.Header.Get("Authorization")
			if authHeader != "Bearer "+strings.TrimSpace(secret) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}

		deleted, customErr := deps.Rooms.Sweep(r.Context())
		if customErr != nil {
			resp.RespondJSON(w, r, http.StatusInternalServerError, CleanupResponse{
				DeletedRooms: 0,
				Status:       "cleanup failed",
			})
			return
		}

		metrics.AddSweptRooms(deleted)

		resp.RespondJSON(w, r, http.StatusOK, CleanupResponse{
			DeletedRooms: deleted,
			Status:       "cleanup completed",
		})
	}
}
