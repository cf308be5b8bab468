package tui

import (
	"fmt"

	"github.com/guptarohit/asciigraph"
)

// RenderPlot draws a stored step response as an ASCII chart with the
// setpoint noted in the caption.
func RenderPlot(positions []int64, setpoint int64, caption string) string {
	if len(positions) == 0 {
		return "no samples"
	}
	data := make([]float64, len(positions))
	for i, p := range positions {
		data[i] = float64(p)
	}
	if caption == "" {
		caption = "position, counts"
	}
	return asciigraph.Plot(data,
		asciigraph.Height(plotHeight),
		asciigraph.Width(plotWidth),
		asciigraph.Caption(fmt.Sprintf("%s (setpoint %d)", caption, setpoint)))
}
