package jwt

import (
	"context"
	"net/http"
	"strings"

	"sniproom/internal/pkg/errs"
	"sniproom/internal/pkg/logx"
	"sniproom/internal/pkg/resp"
)

// contextKey is a private type for context keys defined in this package,
// preventing collisions with keys from other packages.
type contextKey string

// ContextAuthPayloadKey is the key used to store the parsed Payload in the request Context.
const ContextAuthPayloadKey contextKey = "auth_payload"

// RequireRoomToken returns a middleware that rejects any request lacking a valid
// room access token with HTTP 401. On success the parsed Payload is injected
// into the request context.
//
// The token is read from the Authorization header ("Bearer <token>") or, as a
// fallback, from the "token" query parameter, since browsers cannot set
// headers on WebSocket upgrade requests.
func RequireRoomToken(secretKey string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := extractToken(r)
			if tokenString == "" {
				resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
				return
			}

			payload, err := ParseToken(tokenString, secretKey)
			if err != nil {
				logx.Warn("Rejected request with invalid or expired room token", "error", err.Error())
				resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
				return
			}

			ctx := context.WithValue(r.Context(), ContextAuthPayloadKey, payload)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractToken pulls the raw token string from the request, header first.
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
		return ""
	}

	return r.URL.Query().Get("token")
}

// GetPayloadFromContext safely extracts the authenticated Payload from the request Context.
// It returns nil when the request passed through no RequireRoomToken middleware.
func GetPayloadFromContext(r *http.Request) *Payload {
	payload, ok := r.Context().Value(ContextAuthPayloadKey).(*Payload)

	if !ok {
		return nil
	}

	return payload
}
