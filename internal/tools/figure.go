package tools

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
)

const (
	figureWidth  = 640
	figureHeight = 480
	figureMargin = 32
)

var seriesPalette = []color.RGBA{
	{R: 31, G: 119, B: 180, A: 255},
	{R: 255, G: 127, B: 14, A: 255},
	{R: 44, G: 160, B: 44, A: 255},
	{R: 214, G: 39, B: 40, A: 255},
	{R: 148, G: 103, B: 189, A: 255},
}

type series struct {
	xs []float64
	ys []float64
}

// figure accumulates plotted series for the current sandbox invocation. A
// show call renders it to PNG and resets it so a subsequent plot starts from
// a blank canvas.
type figure struct {
	series []series
}

// Line appends a series. Points with a NaN or infinite coordinate are
// dropped; they have no pixel position and would poison the axis bounds.
func (f *figure) Line(xs, ys []float64) {
	n := len(xs)
	if len(ys) < n {
		n = len(ys)
	}
	var fx, fy []float64
	for i := 0; i < n; i++ {
		if !isFinite(xs[i]) || !isFinite(ys[i]) {
			continue
		}
		fx = append(fx, xs[i])
		fy = append(fy, ys[i])
	}
	if len(fx) == 0 {
		return
	}
	f.series = append(f.series, series{xs: fx, ys: fy})
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (f *figure) Empty() bool { return len(f.series) == 0 }

func (f *figure) Reset() { f.series = nil }

// Render encodes the current figure as a PNG line chart.
func (f *figure) Render() ([]byte, error) {
	if f.Empty() {
		return nil, errors.New("nothing to plot")
	}

	minX, maxX, minY, maxY := f.bounds()
	if maxX == minX {
		maxX = minX + 1
	}
	if maxY == minY {
		maxY = minY + 1
	}

	img := image.NewRGBA(image.Rect(0, 0, figureWidth, figureHeight))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	drawFrame(img)

	plotW := float64(figureWidth - 2*figureMargin)
	plotH := float64(figureHeight - 2*figureMargin)
	toPixel := func(x, y float64) (int, int) {
		px := figureMargin + int(math.Round(clampUnit((x-minX)/(maxX-minX))*plotW))
		py := figureHeight - figureMargin - int(math.Round(clampUnit((y-minY)/(maxY-minY))*plotH))
		return px, py
	}

	for i, s := range f.series {
		tone := seriesPalette[i%len(seriesPalette)]
		prevX, prevY := toPixel(s.xs[0], s.ys[0])
		for j := 1; j < len(s.xs); j++ {
			x, y := toPixel(s.xs[j], s.ys[j])
			drawSegment(img, prevX, prevY, x, y, tone)
			prevX, prevY = x, y
		}
		if len(s.xs) == 1 {
			drawSegment(img, prevX, prevY, prevX, prevY, tone)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (f *figure) bounds() (minX, maxX, minY, maxY float64) {
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, s := range f.series {
		for i := range s.xs {
			minX = math.Min(minX, s.xs[i])
			maxX = math.Max(maxX, s.xs[i])
			minY = math.Min(minY, s.ys[i])
			maxY = math.Max(maxY, s.ys[i])
		}
	}
	return minX, maxX, minY, maxY
}

// clampUnit pins a normalized coordinate into [0, 1]. The normalization can
// overflow to NaN even for finite points (Inf/Inf when the axis span exceeds
// the float64 range), and an unclamped value would send the segment walker on
// an unbounded march off the canvas.
func clampUnit(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func drawFrame(img *image.RGBA) {
	frame := color.RGBA{R: 0x60, G: 0x60, B: 0x60, A: 0xff}
	for x := figureMargin; x <= figureWidth-figureMargin; x++ {
		img.SetRGBA(x, figureMargin, frame)
		img.SetRGBA(x, figureHeight-figureMargin, frame)
	}
	for y := figureMargin; y <= figureHeight-figureMargin; y++ {
		img.SetRGBA(figureMargin, y, frame)
		img.SetRGBA(figureWidth-figureMargin, y, frame)
	}
}

func drawSegment(img *image.RGBA, x0, y0, x1, y1 int, tone color.RGBA) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		if image.Pt(x0, y0).In(img.Rect) {
			img.SetRGBA(x0, y0, tone)
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
