// Package render rasterises statistics into images.
package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strconv"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/socialbounty/groupbot/internal/biz/domain"
)

const (
	Width  = 800
	Height = 600

	margin     = 40
	titleTop   = 30
	titleScale = 3
	rowTop     = 110
	rowHeight  = 48
	rowScale   = 2
	nameColumn = 130
	maxName    = 30
)

// MaxRows is how many entries fit on the canvas
const MaxRows = (Height - rowTop) / rowHeight

var (
	background = color.RGBA{R: 0x2C, G: 0x3E, B: 0x50, A: 0xFF}
	titleColor = color.RGBA{R: 0xF3, G: 0x9C, B: 0x12, A: 0xFF}
	rankColor  = color.RGBA{R: 0x1A, G: 0xBC, B: 0x9C, A: 0xFF}
	textColor  = color.RGBA{R: 0xEC, G: 0xF0, B: 0xF1, A: 0xFF}
	lineColor  = color.RGBA{R: 0x34, G: 0x49, B: 0x5E, A: 0xFF}
)

// Leaderboard draws the board on a fixed-size canvas and encodes it as PNG.
// Rows beyond MaxRows are dropped.
func Leaderboard(board domain.Leaderboard) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, Width, Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	drawText(img, board.Title, margin, titleTop, titleScale, titleColor)
	fillRect(img, image.Rect(margin, rowTop-20, Width-margin, rowTop-17), titleColor)

	entries := board.Entries
	if len(entries) > MaxRows {
		entries = entries[:MaxRows]
	}
	for i, e := range entries {
		y := rowTop + i*rowHeight
		drawText(img, fmt.Sprintf("#%d", e.Rank), margin, y, rowScale, rankColor)
		drawText(img, truncate(e.Name, maxName), nameColumn, y, rowScale, textColor)

		count := strconv.FormatInt(e.Count, 10) + " msgs"
		drawText(img, count, Width-margin-textWidth(count)*rowScale, y, rowScale, textColor)

		sep := y + rowHeight - 14
		fillRect(img, image.Rect(margin, sep, Width-margin, sep+1), lineColor)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func textWidth(s string) int {
	return font.MeasureString(basicfont.Face7x13, s).Ceil()
}

// drawText renders s with the built-in bitmap face and scales it up with
// nearest-neighbour so glyphs stay crisp
func drawText(dst *image.RGBA, s string, x, y, scale int, c color.Color) {
	s = printable(s)
	if s == "" {
		return
	}
	face := basicfont.Face7x13
	metrics := face.Metrics()
	w := textWidth(s)
	h := metrics.Height.Ceil()

	glyphs := image.NewRGBA(image.Rect(0, 0, w, h))
	d := &font.Drawer{
		Dst:  glyphs,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(0, metrics.Ascent.Ceil()),
	}
	d.DrawString(s)

	target := image.Rect(x, y, x+w*scale, y+h*scale)
	draw.NearestNeighbor.Scale(dst, target, glyphs, glyphs.Bounds(), draw.Over, nil)
}

func fillRect(dst *image.RGBA, r image.Rectangle, c color.Color) {
	draw.Draw(dst, r, image.NewUniform(c), image.Point{}, draw.Src)
}

// printable replaces runes the bitmap face cannot draw
func printable(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r < 0x20 || r > 0x7e {
			r = '?'
		}
		out = append(out, r)
	}
	return string(out)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
