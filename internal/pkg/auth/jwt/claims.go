package jwt

import "github.com/golang-jwt/jwt"

// Payload defines the claims of a room access token.
//
// A token is minted when a user creates or joins a room and is the only proof of
// membership a client ever holds. All authorization decisions (admin-only delete,
// creator-or-admin snippet edits) are made server-side from these claims, never
// from client-supplied identity fields.
type Payload struct {
	// StandardClaims embeds the JWT standard fields such as Exp (Expiration),
	// Iat (Issued At), and Iss (Issuer), used for token validity checks.
	jwt.StandardClaims `json:"standard_claims"`

	// RoomID is the room this token grants access to.
	RoomID string `json:"room_id"`

	// UserID is the per-room membership id minted at join time.
	UserID string `json:"user_id"`

	// Name is the display name chosen at join time.
	Name string `json:"name"`

	// Color is the palette color assigned at join time.
	Color string `json:"color"`

	// Role is "admin" for the room creator and "member" for everyone else.
	Role string `json:"role"`
}
