package report

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ignite/adlens/internal/service/analytics"
)

// Chart dimensions in pixels.
const (
	ChartWidth  = 960
	ChartHeight = 360
)

var (
	chartBackground = color.RGBA{255, 255, 255, 255}
	chartAxis       = color.RGBA{156, 163, 175, 255}
	chartGrid       = color.RGBA{243, 244, 246, 255}
	chartSpend      = color.RGBA{99, 102, 241, 255}
	chartClicks     = color.RGBA{16, 185, 129, 255}
	chartText       = color.RGBA{55, 65, 81, 255}
)

// plot area margins
const (
	marginLeft   = 56
	marginRight  = 56
	marginTop    = 36
	marginBottom = 40
)

// RenderChart draws daily spend as bars (left axis) and clicks as a line
// (right axis) and encodes the result as PNG.
func RenderChart(daily []analytics.DailyPoint, currency string) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, ChartWidth, ChartHeight))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: chartBackground}, image.Point{}, draw.Src)

	plot := image.Rect(marginLeft, marginTop, ChartWidth-marginRight, ChartHeight-marginBottom)

	var maxSpend float64
	var maxClicks int64
	for _, p := range daily {
		if p.Spend > maxSpend {
			maxSpend = p.Spend
		}
		if p.Clicks > maxClicks {
			maxClicks = p.Clicks
		}
	}

	for i := 0; i <= 4; i++ {
		y := plot.Max.Y - plot.Dy()*i/4
		hline(img, plot.Min.X, plot.Max.X, y, chartGrid)
		label(img, 4, y+4, compact(maxSpend*float64(i)/4), chartText)
		label(img, plot.Max.X+6, y+4, compact(float64(maxClicks)*float64(i)/4), chartText)
	}
	hline(img, plot.Min.X, plot.Max.X, plot.Max.Y, chartAxis)
	vline(img, plot.Min.X, plot.Min.Y, plot.Max.Y, chartAxis)
	vline(img, plot.Max.X, plot.Min.Y, plot.Max.Y, chartAxis)

	label(img, marginLeft, 20, "Spend ("+currency+")", chartSpend)
	label(img, ChartWidth-marginRight-60, 20, "Clicks", chartClicks)

	n := len(daily)
	if n == 0 {
		label(img, plot.Min.X+plot.Dx()/2-40, plot.Min.Y+plot.Dy()/2, "No data", chartText)
		return encodePNG(img)
	}

	slot := float64(plot.Dx()) / float64(n)
	barW := int(slot * 0.6)
	if barW < 1 {
		barW = 1
	}
	var prev image.Point
	for i, p := range daily {
		cx := plot.Min.X + int(slot*float64(i)+slot/2)
		if maxSpend > 0 {
			h := int(p.Spend / maxSpend * float64(plot.Dy()))
			bar := image.Rect(cx-barW/2, plot.Max.Y-h, cx-barW/2+barW, plot.Max.Y)
			draw.Draw(img, bar, &image.Uniform{C: chartSpend}, image.Point{}, draw.Src)
		}
		y := plot.Max.Y
		if maxClicks > 0 {
			y = plot.Max.Y - int(float64(p.Clicks)/float64(maxClicks)*float64(plot.Dy()))
		}
		pt := image.Pt(cx, y)
		if i > 0 {
			line(img, prev, pt, chartClicks)
		}
		dot(img, pt, chartClicks)
		prev = pt
	}

	// first, middle and last date under the axis
	for _, i := range uniqueIndexes(0, n/2, n-1) {
		cx := plot.Min.X + int(slot*float64(i)+slot/2)
		label(img, cx-35, plot.Max.Y+18, daily[i].Date, chartText)
	}
	return encodePNG(img)
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode chart: %w", err)
	}
	return buf.Bytes(), nil
}

func label(img *image.RGBA, x, y int, s string, c color.Color) {
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

func hline(img *image.RGBA, x0, x1, y int, c color.Color) {
	for x := x0; x <= x1; x++ {
		img.Set(x, y, c)
	}
}

func vline(img *image.RGBA, x, y0, y1 int, c color.Color) {
	for y := y0; y <= y1; y++ {
		img.Set(x, y, c)
	}
}

// line draws a 2px segment with Bresenham's algorithm.
func line(img *image.RGBA, a, b image.Point, c color.Color) {
	dx, dy := abs(b.X-a.X), -abs(b.Y-a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}
	e := dx + dy
	x, y := a.X, a.Y
	for {
		img.Set(x, y, c)
		img.Set(x, y+1, c)
		if x == b.X && y == b.Y {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x += sx
		}
		if e2 <= dx {
			e += dx
			y += sy
		}
	}
}

func dot(img *image.RGBA, p image.Point, c color.Color) {
	draw.Draw(img, image.Rect(p.X-2, p.Y-2, p.X+3, p.Y+3), &image.Uniform{C: c}, image.Point{}, draw.Src)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func uniqueIndexes(idx ...int) []int {
	seen := make(map[int]bool, len(idx))
	out := idx[:0]
	for _, i := range idx {
		if !seen[i] {
			seen[i] = true
			out = append(out, i)
		}
	}
	return out
}

// compact renders axis values as 950, 1.2k or 3.4M.
func compact(v float64) string {
	switch {
	case v >= 1_000_000:
		return fmt.Sprintf("%.1fM", v/1_000_000)
	case v >= 1_000:
		return fmt.Sprintf("%.1fk", v/1_000)
	}
	return fmt.Sprintf("%.0f", v)
}
