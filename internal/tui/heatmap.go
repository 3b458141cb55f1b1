package tui

import (
	"strings"

	"github.com/san-kum/ghdsim/internal/tensor"
)

var shades = []rune(" .:-=+*#%@")

// Heatmap renders one species of a filling as a character map with position
// along the horizontal axis and rapidity increasing upwards. The field is
// resampled to at most cols × rows cells by nearest-neighbour lookup.
func Heatmap(theta *tensor.Field, species, cols, rows int) string {
	nr, _, nx := theta.Dims()
	if cols > nx {
		cols = nx
	}
	if rows > nr {
		rows = nr
	}
	if cols < 1 || rows < 1 {
		return ""
	}

	var b strings.Builder
	for row := rows - 1; row >= 0; row-- {
		r := row * nr / rows
		for col := 0; col < cols; col++ {
			x := col * nx / cols
			b.WriteRune(shade(theta.At(r, species, x)))
		}
		if row > 0 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func shade(v float64) rune {
	if v <= 0 || v != v {
		return shades[0]
	}
	if v >= 1 {
		return shades[len(shades)-1]
	}
	return shades[int(v*float64(len(shades)-1)+0.5)]
}
