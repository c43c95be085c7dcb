// Package export renders stored trajectories to standalone artifacts.
package export

import (
	"fmt"
	"strings"

	"github.com/evolab/evodyn/internal/evo"
)

var traitColors = []string{
	"#ff5555", "#50fa7b", "#8be9fd", "#f1fa8c", "#bd93f9", "#ffb86c",
}

// TraitSeriesSVG renders one polyline per trait over time. Frequencies are
// plotted on a fixed [0, 1] vertical axis so plots from different runs are
// comparable.
func TraitSeriesSVG(times []float64, states []evo.State, width, height int) string {
	if len(states) < 2 || len(times) != len(states) {
		return ""
	}

	t0, t1 := times[0], times[len(times)-1]
	span := t1 - t0
	if span == 0 {
		span = 1
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))

	traits := len(states[0])
	for i := 0; i < traits; i++ {
		color := traitColors[i%len(traitColors)]
		sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="M`, color))
		for j, y := range states {
			if i >= len(y) {
				break
			}
			px := (times[j] - t0) / span * float64(width)
			py := float64(height) * (1 - clamp01(y[i]))
			if j == 0 {
				sb.WriteString(fmt.Sprintf("%.1f,%.1f", px, py))
			} else {
				sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", px, py))
			}
		}
		sb.WriteString("\"/>\n")
	}

	sb.WriteString("</svg>\n")
	return sb.String()
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
