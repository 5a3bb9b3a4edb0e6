// Package keyboard builds on-screen QWERTY key layouts for the hover detector.
package keyboard

import (
	"errors"
	"fmt"

	"github.com/ayusman/airboard/internal/gesture"
)

// Special key names. Letter keys are their lowercase letter.
const (
	KeySpace     = "SPACE"
	KeyBackspace = "BACKSPACE"
	KeyEnter     = "ENTER"
)

// ErrUnknownSize is returned for a size other than small, medium or large.
var ErrUnknownSize = errors.New("keyboard: unknown size")

// Size selects key and gap dimensions.
type Size string

const (
	SizeSmall  Size = "small"
	SizeMedium Size = "medium"
	SizeLarge  Size = "large"
)

// Metrics are the pixel dimensions for one size.
type Metrics struct {
	Key float64 // square key edge
	Gap float64 // spacing between keys and rows
}

var metrics = map[Size]Metrics{
	SizeSmall:  {Key: 32, Gap: 8},
	SizeMedium: {Key: 48, Gap: 8},
	SizeLarge:  {Key: 64, Gap: 12},
}

// Rows are the letter rows, top to bottom.
var Rows = [][]string{
	{"q", "w", "e", "r", "t", "y", "u", "i", "o", "p"},
	{"a", "s", "d", "f", "g", "h", "j", "k", "l"},
	{"z", "x", "c", "v", "b", "n", "m"},
}

// Sizes returns the supported sizes, smallest first.
func Sizes() []Size {
	return []Size{SizeSmall, SizeMedium, SizeLarge}
}

// MetricsFor returns the dimensions of size.
func MetricsFor(size Size) (Metrics, error) {
	m, ok := metrics[size]
	if !ok {
		return Metrics{}, fmt.Errorf("%w: %q", ErrUnknownSize, size)
	}
	return m, nil
}

// Layout returns key rectangles for a canvas canvasWidth pixels wide. Each
// row is centered horizontally; the first row starts one gap below the top.
// The special row holds SPACE (five keys wide), BACKSPACE and ENTER (two
// keys wide each).
func Layout(size Size, canvasWidth float64) ([]gesture.KeyRect, error) {
	m, err := MetricsFor(size)
	if err != nil {
		return nil, err
	}

	var keys []gesture.KeyRect
	y := m.Gap

	for _, row := range Rows {
		widths := make([]float64, len(row))
		for i := range widths {
			widths[i] = m.Key
		}
		keys = appendRow(keys, row, widths, m, canvasWidth, y)
		y += m.Key + m.Gap
	}

	special := []string{KeySpace, KeyBackspace, KeyEnter}
	widths := []float64{span(5, m), span(2, m), span(2, m)}
	keys = appendRow(keys, special, widths, m, canvasWidth, y)

	return keys, nil
}

// Height is the total pixel height of a layout, including outer gaps.
func Height(size Size) (float64, error) {
	m, err := MetricsFor(size)
	if err != nil {
		return 0, err
	}
	rows := float64(len(Rows) + 1)
	return rows*m.Key + (rows+1)*m.Gap, nil
}

// span is the width of a key covering n standard keys and the gaps between them.
func span(n int, m Metrics) float64 {
	return float64(n)*m.Key + float64(n-1)*m.Gap
}

func appendRow(keys []gesture.KeyRect, names []string, widths []float64, m Metrics, canvasWidth, y float64) []gesture.KeyRect {
	total := 0.0
	for _, w := range widths {
		total += w
	}
	total += float64(len(widths)-1) * m.Gap

	x := (canvasWidth - total) / 2
	for i, name := range names {
		keys = append(keys, gesture.KeyRect{
			Key:    name,
			X:      x,
			Y:      y,
			Width:  widths[i],
			Height: m.Key,
		})
		x += widths[i] + m.Gap
	}
	return keys
}
