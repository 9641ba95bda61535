package viz

import "strings"

// Braille cells hold 2x4 dots:
//
//	1 4
//	2 5
//	3 6
//	7 8
const brailleBase = 0x2800

var dotBits = [4][2]uint8{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

type cell struct {
	dots uint8
	hits int
}

// Canvas is a braille dot canvas that also counts how many points landed in
// each character cell. Dot coordinates run over (2*Cols) x (4*Rows).
type Canvas struct {
	Cols, Rows int
	cells      []cell
	maxHits    int
}

func NewCanvas(cols, rows int) *Canvas {
	return &Canvas{Cols: cols, Rows: rows, cells: make([]cell, cols*rows)}
}

// DotWidth and DotHeight are the canvas size in dots.
func (c *Canvas) DotWidth() int  { return c.Cols * 2 }
func (c *Canvas) DotHeight() int { return c.Rows * 4 }

// Set lights the dot at (x, y). Points outside the canvas are ignored.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 || x >= c.DotWidth() || y >= c.DotHeight() {
		return
	}
	cl := &c.cells[(y/4)*c.Cols+x/2]
	cl.dots |= dotBits[y%4][x%2]
	cl.hits++
	c.maxHits = max(c.maxHits, cl.hits)
}

func (c *Canvas) Clear() {
	clear(c.cells)
	c.maxHits = 0
}

// Line draws from (x0, y0) to (x1, y1) with Bresenham's algorithm.
func (c *Canvas) Line(x0, y0, x1, y1 int) {
	dx, dy := absInt(x1-x0), -absInt(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		c.Set(x0, y0)
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

// Density is the fraction of the busiest cell's hits that landed in the
// cell at (col, row).
func (c *Canvas) Density(col, row int) float64 {
	if c.maxHits == 0 {
		return 0
	}
	return float64(c.cells[row*c.Cols+col].hits) / float64(c.maxHits)
}

func (c *Canvas) Rune(col, row int) rune {
	return rune(brailleBase + int(c.cells[row*c.Cols+col].dots))
}

// Render writes each cell through paint, which receives the cell's glyph
// and density. A nil paint writes plain glyphs.
func (c *Canvas) Render(paint func(glyph string, density float64) string) string {
	var b strings.Builder
	for row := 0; row < c.Rows; row++ {
		for col := 0; col < c.Cols; col++ {
			glyph := string(c.Rune(col, row))
			if paint != nil && c.cells[row*c.Cols+col].dots != 0 {
				glyph = paint(glyph, c.Density(col, row))
			}
			b.WriteString(glyph)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func (c *Canvas) String() string { return c.Render(nil) }

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
