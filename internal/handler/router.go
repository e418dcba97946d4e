/*
Package handler provides the HTTP handlers and routing setup for the Sniproom server.

This file defines the main Router, applying necessary middleware like logging, CORS,
and IP-based rate limiting before delegating requests to specific handlers (API and WebSocket).
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"sniproom/internal/pkg/auth/jwt"
	"sniproom/internal/pkg/limiter"
	"sniproom/internal/pkg/logx"
	"sniproom/internal/pkg/metrics"
	"sniproom/internal/pkg/resp"
)

const (
	CreateRate  = 0.05
	CreateBurst = 2
	JoinRate    = 0.2
	JoinBurst   = 5
)

// Router sets up the main HTTP routing table (chi.Router) for the application.
// It initializes IP-based rate limiters, configures CORS, and applies global and
// per-route middleware before delegating to the room, snippet, message, sweep
// and WebSocket handlers.
func Router(deps *AppDeps) http.Handler {
	createLimiter := limiter.NewIPRateLimiter(rate.Limit(CreateRate), CreateBurst)
	joinLimiter := limiter.NewIPRateLimiter(rate.Limit(JoinRate), JoinBurst)

	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	wsUpgrader := &websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.Environment == "development" {
				return true
			}

			origin := r.Header.Get("Origin")
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.Environment == "development" {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)
	r.Use(metrics.HTTPMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		data := map[string]string{
			"status":  "ok",
			"service": "Sniproom Server",
		}
		resp.RespondSuccess(w, r, data)
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Get("/cleanup", HandleCleanup(deps))

		api.Route("/rooms", func(rooms chi.Router) {
			rooms.With(createLimiter.Middleware).Post("/", HandleCreateRoom(deps))

			rooms.Route("/{roomID}", func(rm chi.Router) {
				rm.Get("/", HandleRoomSummary(deps))
				rm.With(joinLimiter.Middleware).Post("/join", HandleJoinRoom(deps))

				rm.Group(func(protected chi.Router) {
					protected.Use(jwt.RequireRoomToken(deps.Config.JWTSecret))

					protected.Post("/leave", HandleLeaveRoom(deps))
					protected.Delete("/", HandleDeleteRoom(deps))

					protected.Route("/snippets", func(sn chi.Router) {
						sn.Get("/", HandleListSnippets(deps))
						sn.Post("/", HandleAddSnippet(deps))
						sn.Patch("/{snippetID}", HandleEditSnippet(deps))
						sn.Delete("/{snippetID}", HandleDeleteSnippet(deps))
					})

					protected.Route("/messages", func(msg chi.Router) {
						msg.Get("/", HandleListMessages(deps))
						msg.Post("/", HandleSendMessage(deps))
					})
				})
			})
		})
	})

	r.With(jwt.RequireRoomToken(deps.Config.JWTSecret)).
		Get("/ws/{roomID}", HandleRoomSocket(deps, wsUpgrader))

	return r
}
