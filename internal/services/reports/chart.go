package reports

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/Awannaphasch2016/dr-daily-report-sub002/internal/interfaces"
)

const (
	chartWidth   = 800
	chartHeight  = 400
	chartPadding = 40
)

var (
	chartBackground = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	chartAxisColor  = color.RGBA{R: 120, G: 120, B: 120, A: 255}
	chartGridColor  = color.RGBA{R: 225, G: 225, B: 225, A: 255}
	chartLineColor  = color.RGBA{R: 33, G: 102, B: 172, A: 255}
)

// renderPriceChart draws the closing-price line chart as a PNG. The chart is
// intentionally plain: axes, horizontal gridlines, and one price line.
func renderPriceChart(series *interfaces.OHLCVSeries) ([]byte, error) {
	if len(series.Bars) == 0 {
		return nil, fmt.Errorf("cannot render chart with no bars")
	}

	img := image.NewRGBA(image.Rect(0, 0, chartWidth, chartHeight))
	for y := 0; y < chartHeight; y++ {
		for x := 0; x < chartWidth; x++ {
			img.Set(x, y, chartBackground)
		}
	}

	minClose, maxClose := series.Bars[0].Close, series.Bars[0].Close
	for _, bar := range series.Bars {
		if bar.Close < minClose {
			minClose = bar.Close
		}
		if bar.Close > maxClose {
			maxClose = bar.Close
		}
	}
	// Flat series still needs a non-zero range to plot
	if maxClose == minClose {
		maxClose = minClose + 1
	}

	plotLeft := chartPadding
	plotRight := chartWidth - chartPadding
	plotTop := chartPadding
	plotBottom := chartHeight - chartPadding
	plotW := float64(plotRight - plotLeft)
	plotH := float64(plotBottom - plotTop)

	// Horizontal gridlines at quartiles
	for i := 1; i < 4; i++ {
		y := plotTop + i*(plotBottom-plotTop)/4
		drawHLine(img, plotLeft, plotRight, y, chartGridColor)
	}

	// Axes
	drawHLine(img, plotLeft, plotRight, plotBottom, chartAxisColor)
	drawVLine(img, plotLeft, plotTop, plotBottom, chartAxisColor)

	// Price line
	n := len(series.Bars)
	toPoint := func(i int) (int, int) {
		var x int
		if n == 1 {
			x = plotLeft + int(plotW/2)
		} else {
			x = plotLeft + int(float64(i)/float64(n-1)*plotW)
		}
		normalized := (series.Bars[i].Close - minClose) / (maxClose - minClose)
		y := plotBottom - int(normalized*plotH)
		return x, y
	}

	prevX, prevY := toPoint(0)
	for i := 1; i < n; i++ {
		x, y := toPoint(i)
		drawLine(img, prevX, prevY, x, y, chartLineColor)
		prevX, prevY = x, y
	}
	if n == 1 {
		img.Set(prevX, prevY, chartLineColor)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode chart PNG: %w", err)
	}

	return buf.Bytes(), nil
}

func drawHLine(img *image.RGBA, x1, x2, y int, c color.Color) {
	for x := x1; x <= x2; x++ {
		img.Set(x, y, c)
	}
}

func drawVLine(img *image.RGBA, x, y1, y2 int, c color.Color) {
	for y := y1; y <= y2; y++ {
		img.Set(x, y, c)
	}
}

// drawLine plots a segment using Bresenham's algorithm.
func drawLine(img *image.RGBA, x1, y1, x2, y2 int, c color.Color) {
	dx := abs(x2 - x1)
	dy := -abs(y2 - y1)
	sx := 1
	if x1 > x2 {
		sx = -1
	}
	sy := 1
	if y1 > y2 {
		sy = -1
	}
	err := dx + dy

	for {
		img.Set(x1, y1, c)
		if x1 == x2 && y1 == y2 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x1 += sx
		}
		if e2 <= dx {
			err += dx
			y1 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
