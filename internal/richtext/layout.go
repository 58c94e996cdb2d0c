/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package richtext

import "strings"

// Measurer reports the advance width of s rendered in st. The rasterizer
// backs this with real font faces; tests use a fixed per-rune width.
type Measurer func(st Style, s string) float64

// Placed is one run positioned on a line, X relative to the layout box.
type Placed struct {
	Run
	X float64
}

// Line is one laid-out row of text.
type Line struct {
	Runs     []Placed
	Y        float64 // baseline-top of the line box, relative to the layout box
	Height   float64
	Width    float64
	FontSize float64 // dominant (largest) size on the line
}

// Layout wraps blocks into lines of at most maxWidth, greedy word wrapping.
// A word wider than the whole line is placed anyway and overflows, as a
// contenteditable region would render it. Returns the lines and total height.
func Layout(blocks []Block, maxWidth float64, measure Measurer) ([]Line, float64) {
	var lines []Line
	y := 0.0
	for _, blk := range blocks {
		y += blk.MarginTop
		blockLines := wrapBlock(blk, maxWidth, measure)
		for i := range blockLines {
			ln := &blockLines[i]
			ln.Height = ln.FontSize * blk.LineHeight
			alignLine(ln, blk.Align, maxWidth)
			ln.Y = y
			y += ln.Height
		}
		lines = append(lines, blockLines...)
		y += blk.MarginBottom
	}
	return lines, y
}

type word struct {
	text  string
	style Style
	width float64
}

func wrapBlock(blk Block, maxWidth float64, measure Measurer) []Line {
	var words []word
	for _, r := range blk.Runs {
		for _, w := range strings.Fields(r.Text) {
			words = append(words, word{text: w, style: r.Style, width: measure(r.Style, w)})
		}
	}
	if len(words) == 0 {
		// an empty block still occupies one line height
		return []Line{{FontSize: fallbackSize(blk)}}
	}

	var lines []Line
	cur := Line{}
	x := 0.0
	for _, w := range words {
		space := 0.0
		if len(cur.Runs) > 0 {
			space = measure(w.style, " ")
		}
		if len(cur.Runs) > 0 && x+space+w.width > maxWidth {
			cur.Width = x
			lines = append(lines, cur)
			cur = Line{}
			x = 0
			space = 0
		}
		text := w.text
		// merge into the previous run when the style is unchanged
		if n := len(cur.Runs); n > 0 && cur.Runs[n-1].Style == w.style {
			cur.Runs[n-1].Text += " " + text
		} else {
			cur.Runs = append(cur.Runs, Placed{Run: Run{Text: text, Style: w.style}, X: x + space})
		}
		x += space + w.width
		if w.style.Size > cur.FontSize {
			cur.FontSize = w.style.Size
		}
	}
	cur.Width = x
	lines = append(lines, cur)
	return lines
}

func alignLine(ln *Line, align string, maxWidth float64) {
	var shift float64
	switch align {
	case "center":
		shift = (maxWidth - ln.Width) / 2
	case "right":
		shift = maxWidth - ln.Width
	default:
		return
	}
	if shift < 0 {
		shift = 0
	}
	for i := range ln.Runs {
		ln.Runs[i].X += shift
	}
}

func fallbackSize(blk Block) float64 {
	for _, r := range blk.Runs {
		if r.Style.Size > 0 {
			return r.Style.Size
		}
	}
	return 16
}
