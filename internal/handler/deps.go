package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"sniproom/internal/app/realtime"
	"sniproom/internal/app/room"
	"sniproom/internal/configs"
	"sniproom/internal/pkg/auth/jwt"
	"sniproom/internal/pkg/errs"
	"sniproom/internal/pkg/randx"
)

// AppDeps bundles the dependencies handlers need. It is built once in main
// and passed explicitly; there is no ambient global session state.
type AppDeps struct {
	Rooms  *room.Service
	Hub    *realtime.Hub
	Config *configs.AppConfig
}

// roomIdentity extracts the authenticated identity from the request and
// verifies that its token was minted for the room in the URL. Tokens are
// room-scoped: one valid for room A grants nothing in room B.
func roomIdentity(r *http.Request, roomID string) (*jwt.Payload, *errs.CustomError) {
	payload := jwt.GetPayloadFromContext(r)
	if payload == nil {
		return nil, errs.NewError(errs.ErrUnauthorized)
	}

	if payload.RoomID != roomID {
		return nil, errs.NewError(errs.ErrTokenRoomMismatch)
	}

	return payload, nil
}

// roomIDParam reads and validates the {roomID} path parameter.
func roomIDParam(r *http.Request) (string, *errs.CustomError) {
	roomID := chi.URLParam(r, "roomID")
	if !randx.IsValidEntityID(roomID) {
		return "", errs.NewError(errs.ErrInvalidParams)
	}
	return roomID, nil
}

// identityFromPayload maps token claims to the domain identity the service
// operates on.
func identityFromPayload(payload *jwt.Payload) room.Identity {
	return room.Identity{
		UserID: payload.UserID,
		Name:   payload.Name,
		Color:  payload.Color,
	}
}
