package panel

import (
	"fmt"
	"strings"

	"github.com/AGPFMiner/gapminer/types"
)

var bars = []rune(" ▁▂▃▄▅▆▇█")

// renderSeries draws s as a bar chart of width columns and height rows. Each
// column shows the largest value among the points that fall into it.
func renderSeries(s types.ChartSeries, width, height int) string {
	if width < 1 || height < 1 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s (max %s)\n", s.Label, compact(s.YMax))
	if len(s.Points) == 0 || s.YMax <= s.YMin {
		b.WriteString(strings.Repeat(" ", width))
		b.WriteString("\n")
		b.WriteString(axis(s, width))
		return b.String()
	}

	cols := make([]float64, width)
	span := s.XMax - s.XMin
	for _, p := range s.Points {
		x := float64(p.Height)
		if x < s.XMin || x > s.XMax {
			continue
		}
		col := width - 1
		if span > 0 {
			col = int((x - s.XMin) / span * float64(width-1))
		}
		if p.Value > cols[col] {
			cols[col] = p.Value
		}
	}

	levels := len(bars) - 1
	scale := float64(height*levels) / (s.YMax - s.YMin)
	for row := height - 1; row >= 0; row-- {
		for _, v := range cols {
			fill := int((v-s.YMin)*scale) - row*levels
			switch {
			case fill <= 0:
				b.WriteRune(bars[0])
			case fill >= levels:
				b.WriteRune(bars[levels])
			default:
				b.WriteRune(bars[fill])
			}
		}
		b.WriteString("\n")
	}
	b.WriteString(axis(s, width))
	return b.String()
}

func axis(s types.ChartSeries, width int) string {
	left := fmt.Sprintf("%.0f", s.XMin)
	right := fmt.Sprintf("%.0f", s.XMax)
	gap := width - len(left) - len(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

// compact prints v with an SI suffix, e.g. 7.16M.
func compact(v float64) string {
	const prefixes = " kMGTPEZY"
	i := 0
	for v >= 1000 && i < len(prefixes)-1 {
		v /= 1000
		i++
	}
	if i == 0 {
		return fmt.Sprintf("%.2f", v)
	}
	return fmt.Sprintf("%.2f%c", v, prefixes[i])
}
