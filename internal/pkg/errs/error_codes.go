/*
Package errs provides custom error types and application-level error code constants.

These error codes are used to clearly identify specific business or system errors
both internally within the server and in communication with clients.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request header Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body JSON format is incorrect (e.g., syntax error).
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates that the request body contained extra content after valid JSON data.
	ErrExtraContentInBody = 1004

	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1005

	// ErrValidationFailed indicates that a required field was empty or malformed.
	// The message template carries the offending field name.
	ErrValidationFailed = 1006
)

// 2xxx: Room and Content Business Logic Errors
const (
	// ErrRoomNotFound indicates that the room does not exist or has already expired.
	// Deleted and expired rooms are deliberately indistinguishable to clients.
	ErrRoomNotFound = 2101

	// ErrPasswordIncorrect indicates that the supplied room password did not match.
	ErrPasswordIncorrect = 2102

	// ErrNotRoomAdmin indicates that an admin-only room operation was attempted by a member.
	ErrNotRoomAdmin = 2103

	// ErrNotSnippetOwner indicates a snippet edit or delete by someone who is
	// neither the room admin nor the snippet's creator.
	ErrNotSnippetOwner = 2104

	// ErrSnippetNotFound indicates that the referenced snippet does not exist in the room.
	ErrSnippetNotFound = 2105
)

// 3xxx: Session and Security Errors
const (
	// ErrUnauthorized indicates a missing or invalid room access token.
	ErrUnauthorized = 3001

	// ErrTokenRoomMismatch indicates a valid token presented against a different room.
	ErrTokenRoomMismatch = 3002

	// ErrSessionReplaced indicates that the current subscription was closed
	// because the same user opened a newer connection.
	ErrSessionReplaced = 3003
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000

	// ErrStoreFailure indicates that a read or write against the backing store failed.
	ErrStoreFailure = 5001
)
