/*
Package handler provides HTTP handler functions for snippet management within a room.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"sniproom/internal/app/room"
	"sniproom/internal/pkg/errs"
	"sniproom/internal/pkg/randx"
	"sniproom/internal/pkg/req"
	"sniproom/internal/pkg/resp"
)

type AddSnippetInput struct {
	Title       string `json:"title"`
	Language    string `json:"language,omitempty"`
	Code        string `json:"code"`
	Description string `json:"description,omitempty"`
}

// HandleAddSnippet creates a snippet attributed to the authenticated member.
func HandleAddSnippet(deps *AppDeps) http.HandlerFunc {
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

		var input AddSnippetInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		snippet, customErr := deps.Rooms.AddSnippet(r.Context(), roomID, identityFromPayload(payload), room.SnippetInput{
			Title:       input.Title,
			Language:    input.Language,
			Code:        input.Code,
			Description: input.Description,
		})
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		resp.RespondSuccess(w, r, snippet)
	}
}

// HandleListSnippets returns the room's snippets, most recent first.
func HandleListSnippets(deps *AppDeps) http.HandlerFunc {
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

		snippets, customErr := deps.Rooms.ListSnippets(r.Context(), roomID)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		resp.RespondSuccess(w, r, map[string]any{"snippets": snippets})
	}
}

type EditSnippetInput struct {
	// Title and Description are the only editable fields; nil leaves a field
	// unchanged. Language and code cannot be modified after creation.
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
}

// HandleEditSnippet updates a snippet's title and/or description. The service
// enforces the admin-or-creator gate.
func HandleEditSnippet(deps *AppDeps) http.HandlerFunc {
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

		snippetID := chi.URLParam(r, "snippetID")
		if !randx.IsValidEntityID(snippetID) {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		var input EditSnippetInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		customErr = deps.Rooms.EditSnippet(r.Context(), roomID, identityFromPayload(payload), snippetID, room.SnippetUpdate{
			Title:       input.Title,
			Description: input.Description,
		})
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		resp.RespondSuccess(w, r, nil)
	}
}

// HandleDeleteSnippet removes a snippet, gated like edit. Deleting an already
// deleted snippet succeeds.
func HandleDeleteSnippet(deps *AppDeps) http.HandlerFunc {
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

		snippetID := chi.URLParam(r, "snippetID")
		if !randx.IsValidEntityID(snippetID) {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		if customErr := deps.Rooms.DeleteSnippet(r.Context(), roomID, identityFromPayload(payload), snippetID); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		resp.RespondSuccess(w, r, nil)
	}
}
