/*
Package errs provides custom error types and application-level error code constants.

This file defines the map from error codes to the CustomError struct, used to standardize
HTTP responses and internal error handling.
*/
package errs

import "net/http"

// errorMap stores the detailed CustomError struct corresponding to every application error code.
// The key is the error code (int), and the value contains the user message and HTTP status code.
// A zero Status means HTTP 200: business denials (wrong password, not admin) are answered
// in-band so clients can re-prompt without treating the response as a transport failure.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:        {Code: ErrInvalidParams, Message: "Invalid request parameters."},
	ErrUnsupportedMediaType: {Code: ErrUnsupportedMediaType, Message: "Unsupported request format."},
	ErrInvalidJSONFormat:    {Code: ErrInvalidJSONFormat, Message: "Unsupported request format."},
	ErrExtraContentInBody:   {Code: ErrExtraContentInBody, Message: "Request contains unexpected data."},
	ErrRateLimitExceeded:    {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},
	ErrValidationFailed:     {Code: ErrValidationFailed, Message: "%s must not be empty."},

	// 2xxx: Room and Content Business Logic Errors
	ErrRoomNotFound:      {Code: ErrRoomNotFound, Message: "Room not found or expired."},
	ErrPasswordIncorrect: {Code: ErrPasswordIncorrect, Message: "Incorrect room password."},
	ErrNotRoomAdmin:      {Code: ErrNotRoomAdmin, Message: "Only the room admin can do that."},
	ErrNotSnippetOwner:   {Code: ErrNotSnippetOwner, Message: "Only the admin or the snippet's creator can do that."},
	ErrSnippetNotFound:   {Code: ErrSnippetNotFound, Message: "Snippet not found."},

	// 3xxx: Session and Security Errors
	ErrUnauthorized:      {Code: ErrUnauthorized, Message: "A valid room access token is required.", Status: http.StatusUnauthorized},
	ErrTokenRoomMismatch: {Code: ErrTokenRoomMismatch, Message: "Token does not grant access to this room.", Status: http.StatusForbidden},
	ErrSessionReplaced:   {Code: ErrSessionReplaced, Message: "You connected from another tab or device."},

	// 5xxx: Internal System Errors
	ErrUnknown:      {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
	ErrStoreFailure: {Code: ErrStoreFailure, Message: "Storage is temporarily unavailable. Please try again.", Status: http.StatusInternalServerError},
}
