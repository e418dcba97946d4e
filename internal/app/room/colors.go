package room

import "sniproom/internal/pkg/randx"

// Palette is the fixed set of member colors. Assignment is a uniform random
// pick independent of the colors already in use, so visual collisions between
// members are possible and accepted.
var Palette = []string{
	"#FF6B6B",
	"#4ECDC4",
	"#45B7D1",
	"#FFA07A",
	"#98D8C8",
	"#F7DC6F",
	"#BB8FCE",
	"#85C1E2",
}

// RandomColor picks a palette color for a joining user. The color is purely
// cosmetic, so a failing random source falls back to the first palette entry
// rather than failing the join.
func RandomColor() string {
	idx, err := randx.PickIndex(len(Palette))
	if err != nil {
		return Palette[0]
	}
	return Palette[idx]
}
