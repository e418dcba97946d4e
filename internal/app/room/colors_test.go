package room

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return ts
}

func TestRandomColorStaysInPalette(t *testing.T) {
	for i := 0; i < 200; i++ {
		require.Contains(t, Palette, RandomColor())
	}
}

func TestRoomExpired(t *testing.T) {
	r := &Room{ExpiresAt: mustParse(t, "2026-01-01T12:00:00Z")}

	require.False(t, r.Expired(mustParse(t, "2026-01-01T11:59:59Z")))
	require.True(t, r.Expired(mustParse(t, "2026-01-01T12:00:00Z")), "expiry instant itself counts as expired")
	require.True(t, r.Expired(mustParse(t, "2026-01-01T12:00:01Z")))
}

func TestRoleOf(t *testing.T) {
	r := &Room{AdminID: "admin-id"}

	require.Equal(t, RoleAdmin, r.RoleOf("admin-id"))
	require.Equal(t, RoleMember, r.RoleOf("someone-else"))
	require.Equal(t, RoleMember, r.RoleOf(""))
}
