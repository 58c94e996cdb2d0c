/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package richtext parses the small HTML subset used by flyer text blocks
// (div containers with inline style, b/strong, i/em, u, br, span/font) into
// styled blocks and lays the blocks out into wrapped lines. Unknown tags and
// style properties are ignored, never an error: flyer text originates from
// a contenteditable surface and must degrade gracefully.
package richtext

import (
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// Style is the resolved inline style of a run of text.
type Style struct {
	Size      float64 // px
	Bold      bool
	Italic    bool
	Underline bool
	Color     color.RGBA
	// block-level properties, meaningful on the enclosing Block
	Align        string // left, center, right
	LineHeight   float64
	MarginTop    float64
	MarginBottom float64
}

// Run is a span of text sharing one style.
type Run struct {
	Text  string
	Style Style
}

// Block is one paragraph-level division. Runs within a block flow and wrap
// together; blocks stack vertically.
type Block struct {
	Align        string
	LineHeight   float64
	MarginTop    float64
	MarginBottom float64
	Runs         []Run
}

// Parse tokenizes the HTML fragment into blocks. base supplies the default
// size, color and alignment; divs and inline tags refine it. Parse never
// fails: malformed input yields the text it can salvage.
func Parse(fragment string, base Style) []Block {
	if base.LineHeight == 0 {
		base.LineHeight = 1.2
	}
	p := &parser{}
	z := html.NewTokenizer(strings.NewReader(fragment))
	stack := []Style{base}
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			p.flush()
			return p.blocks
		case html.TextToken:
			p.text(string(z.Text()), stack[len(stack)-1])
		case html.StartTagToken:
			tok := z.Token()
			st := applyTag(stack[len(stack)-1], tok)
			if tok.Data == "div" || tok.Data == "p" {
				p.flush()
				p.open(st)
			}
			if tok.Data == "br" {
				// void element, never pushed
				p.flush()
				continue
			}
			stack = append(stack, st)
		case html.SelfClosingTagToken:
			tok := z.Token()
			if tok.Data == "br" {
				p.flush()
			}
		case html.EndTagToken:
			tok := z.Token()
			if tok.Data == "div" || tok.Data == "p" {
				p.flush()
			}
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}
		}
	}
}

type parser struct {
	blocks  []Block
	current *Block
}

func (p *parser) open(st Style) {
	p.current = &Block{
		Align:        st.Align,
		LineHeight:   st.LineHeight,
		MarginTop:    st.MarginTop,
		MarginBottom: st.MarginBottom,
	}
}

func (p *parser) text(s string, st Style) {
	s = collapseSpace(s)
	if strings.TrimSpace(s) == "" {
		return
	}
	if p.current == nil {
		p.open(st)
	}
	p.current.Runs = append(p.current.Runs, Run{Text: s, Style: st})
}

// flush closes the current block if it holds any text.
func (p *parser) flush() {
	if p.current != nil && len(p.current.Runs) > 0 {
		p.blocks = append(p.blocks, *p.current)
	}
	p.current = nil
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(s, "\u00a0", " ")), " ")
}

func applyTag(st Style, tok html.Token) Style {
	switch tok.Data {
	case "b", "strong":
		st.Bold = true
	case "i", "em":
		st.Italic = true
	case "u":
		st.Underline = true
	case "font":
		for _, a := range tok.Attr {
			if a.Key == "color" {
				if c, ok := ParseColor(a.Val); ok {
					st.Color = c
				}
			}
		}
	}
	for _, a := range tok.Attr {
		if a.Key == "style" {
			st = applyStyleAttr(st, a.Val)
		}
	}
	return st
}

func applyStyleAttr(st Style, style string) Style {
	for _, decl := range strings.Split(style, ";") {
		k, v, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		k = strings.ToLower(strings.TrimSpace(k))
		v = strings.TrimSpace(v)
		switch k {
		case "font-size":
			if px, ok := parsePx(v); ok {
				st.Size = px
			}
		case "color":
			if c, ok := ParseColor(v); ok {
				st.Color = c
			}
		case "font-weight":
			if n, err := strconv.Atoi(v); err == nil {
				st.Bold = n >= 600
			} else {
				st.Bold = v == "bold" || v == "bolder"
			}
		case "font-style":
			st.Italic = v == "italic" || v == "oblique"
		case "text-decoration", "text-decoration-line":
			if strings.Contains(v, "underline") {
				st.Underline = true
			}
		case "text-align":
			if v == "left" || v == "center" || v == "right" {
				st.Align = v
			}
		case "line-height":
			if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
				st.LineHeight = f
			}
		case "margin-top":
			if px, ok := parsePx(v); ok {
				st.MarginTop = px
			}
		case "margin-bottom":
			if px, ok := parsePx(v); ok {
				st.MarginBottom = px
			}
		}
	}
	return st
}

func parsePx(v string) (float64, bool) {
	v = strings.TrimSuffix(strings.TrimSpace(v), "px")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ParseColor parses #RRGGBB and #RGB hex colors plus the handful of named
// colors that turn up in flyer markup.
func ParseColor(s string) (color.RGBA, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "black":
		return color.RGBA{A: 255}, true
	case "white":
		return color.RGBA{R: 255, G: 255, B: 255, A: 255}, true
	case "red":
		return color.RGBA{R: 255, A: 255}, true
	}
	if !strings.HasPrefix(s, "#") {
		return color.RGBA{}, false
	}
	hex := s[1:]
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.RGBA{}, false
	}
	n, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, false
	}
	return color.RGBA{R: uint8(n >> 16), G: uint8(n >> 8), B: uint8(n), A: 255}, true
}
