/*
Package handler provides HTTP handler functions for room chat.
*/
package handler

import (
	"net/http"

	"sniproom/internal/app/room"
	"sniproom/internal/pkg/req"
	"sniproom/internal/pkg/resp"
)

type SendMessageInput struct {
	Text string `json:"text"`

	// SnippetID/SnippetTitle scope the message to a snippet's discussion
	// thread; absent means room-general chat.
	SnippetID    *string `json:"snippetId,omitempty"`
	SnippetTitle *string `json:"snippetTitle,omitempty"`
}

// HandleSendMessage appends a chat message attributed to the authenticated member.
// Messages are immutable; there is no edit or delete endpoint.
func HandleSendMessage(deps *AppDeps) http.HandlerFunc {
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

		var input SendMessageInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		message, customErr := deps.Rooms.SendMessage(r.Context(), roomID, identityFromPayload(payload), room.MessageInput{
			Text:         input.Text,
			SnippetID:    input.SnippetID,
			SnippetTitle: input.SnippetTitle,
		})
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		resp.RespondSuccess(w, r, message)
	}
}

// HandleListMessages returns the room's messages in display order.
func HandleListMessages(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID, customErr := roomIDParam(r)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if _, customErr := roomIdentity(r, roomID); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		messages, customErr := deps.Rooms.ListMessages(r.Context(), roomID)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		resp.RespondSuccess(w, r, map[string]any{"messages": messages})
	}
}
