/*
Package handler provides the HTTP handlers and routing setup for the sniproom server.

This file contains the room lifecycle handlers: create, summary probe, join,
leave, and delete. Create and join mint the room access token that every
subsequent mutating request must carry.
*/
package handler

import (
	"net/http"

	"sniproom/internal/app/room"
	"sniproom/internal/pkg/auth/jwt"
	"sniproom/internal/pkg/errs"
	"sniproom/internal/pkg/logx"
	"sniproom/internal/pkg/req"
	"sniproom/internal/pkg/resp"
)

type CreateRoomInput struct {
	// Name is the room's display label.
	Name string `json:"name"`

	// AdminName is the creator's display name.
	AdminName string `json:"adminName"`

	// ExpiryHours is the requested room lifetime; any positive integer is accepted.
	ExpiryHours int `json:"expiryHours"`

	// Password is optional; empty means an open room.
	Password string `json:"password,omitempty"`
}

// HandleCreateRoom creates a room with its admin as sole member and returns
// the room id, the admin user, and a room access token bound to the room's lifetime.
func HandleCreateRoom(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input CreateRoomInput

		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		newRoom, admin, customErr := deps.Rooms.Create(r.Context(), input.Name, input.AdminName, input.ExpiryHours, input.Password)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		token, err := mintRoomToken(deps, newRoom, admin)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown, err))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"roomId":    newRoom.ID,
			"expiresAt": newRoom.ExpiresAt,
			"user":      admin,
			"token":     token,
		})
	}
}

// HandleRoomSummary is the pre-join probe: id, expiry, and whether a password
// is required. Expired rooms answer exactly like missing ones.
func HandleRoomSummary(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID, customErr := roomIDParam(r)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		summary, customErr := deps.Rooms.Summary(r.Context(), roomID)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		resp.RespondSuccess(w, r, summary)
	}
}

type JoinRoomInput struct {
	Name     string `json:"name"`
	Password string `json:"password,omitempty"`
}

// HandleJoinRoom admits a new member and returns the minted user plus a room
// access token. A wrong password is an in-band denial so the UI can re-prompt.
func HandleJoinRoom(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID, customErr := roomIDParam(r)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		var input JoinRoomInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		joinedRoom, user, customErr := deps.Rooms.Join(r.Context(), roomID, input.Name, input.Password)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		token, err := mintRoomToken(deps, joinedRoom, user)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown, err))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"roomId":    joinedRoom.ID,
			"expiresAt": joinedRoom.ExpiresAt,
			"user":      user,
			"token":     token,
		})
	}
}

// HandleLeaveRoom removes the caller's membership. Leaving twice, or leaving
// a room that is already gone, succeeds the same way.
func HandleLeaveRoom(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID, customErr := roomIDParam(r)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		payload, customErr := roomIdentity(r, roomID)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if customErr := deps.Rooms.Leave(r.Context(), roomID, payload.UserID); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		resp.RespondSuccess(w, r, nil)
	}
}

// HandleDeleteRoom deletes the room and everything nested beneath it.
// The service enforces that only the admin may do this.
func HandleDeleteRoom(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID, customErr := roomIDParam(r)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		payload, customErr := roomIdentity(r, roomID)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if customErr := deps.Rooms.Delete(r.Context(), roomID, payload.UserID); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		resp.RespondSuccess(w, r, nil)
	}
}

// mintRoomToken signs a room access token for the given user, expiring with the room.
func mintRoomToken(deps *AppDeps, r *room.Room, u *room.User) (string, error) {
	payload := &jwt.Payload{
		RoomID: r.ID,
		UserID: u.ID,
		Name:   u.Name,
		Color:  u.Color,
		Role:   string(r.RoleOf(u.ID)),
	}

	token, err := jwt.GenerateToken(payload, deps.Config.JWTSecret, r.ExpiresAt)
	if err != nil {
		logx.Error(err, "Failed to sign room access token", "room_id", r.ID)
		return "", err
	}

	return token, nil
}
