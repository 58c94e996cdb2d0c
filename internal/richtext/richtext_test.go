/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package richtext

import (
	"image/color"
	"testing"
)

var base = Style{Size: 28, Color: color.RGBA{A: 255}, Align: "center", LineHeight: 1.2}

// fixedMeasure gives every rune a width of Size/2, a crude but monotonic
// stand-in for a real font face.
func fixedMeasure(st Style, s string) float64 {
	return float64(len([]rune(s))) * st.Size / 2
}

func TestParseFlyerMarkup(t *testing.T) {
	frag := `<div style="text-align: center;">
<div style="color: #FF0000; font-size: 60px; text-decoration: underline; font-weight: bold;">Іванов Іван, 40 років</div>
<div style="font-size: 35px; font-weight: bold;">Одяг: куртка</div>
</div>`
	blocks := Parse(frag, base)
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d: %+v", len(blocks), blocks)
	}
	name := blocks[0]
	if name.Align != "center" {
		t.Fatalf("alignment not inherited from outer div: %q", name.Align)
	}
	st := name.Runs[0].Style
	if st.Size != 60 || !st.Bold || !st.Underline || st.Color != (color.RGBA{R: 255, A: 255}) {
		t.Fatalf("name style wrong: %+v", st)
	}
	if blocks[1].Runs[0].Style.Size != 35 {
		t.Fatalf("body style wrong: %+v", blocks[1].Runs[0].Style)
	}
}

func TestParseInlineTags(t *testing.T) {
	blocks := Parse(`<div>plain <b>bold <u>both</u></b> tail</div>`, base)
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	runs := blocks[0].Runs
	if len(runs) != 4 {
		t.Fatalf("expected 4 runs, got %d: %+v", len(runs), runs)
	}
	if runs[0].Style.Bold || !runs[1].Style.Bold || runs[1].Style.Underline {
		t.Fatalf("bold nesting wrong: %+v", runs)
	}
	if !runs[2].Style.Bold || !runs[2].Style.Underline {
		t.Fatalf("nested underline lost: %+v", runs[2])
	}
	if runs[3].Style.Bold {
		t.Fatalf("style leaked past closing tag: %+v", runs[3])
	}
}

func TestParseBareTextAndMalformed(t *testing.T) {
	blocks := Parse("just text, no tags", base)
	if len(blocks) != 1 || blocks[0].Runs[0].Text != "just text, no tags" {
		t.Fatalf("bare text lost: %+v", blocks)
	}
	blocks = Parse("<div><b>never closed", base)
	if len(blocks) != 1 || blocks[0].Runs[0].Text != "never closed" {
		t.Fatalf("malformed input not salvaged: %+v", blocks)
	}
}

func TestParseColorForms(t *testing.T) {
	if c, ok := ParseColor("#800020"); !ok || c != (color.RGBA{R: 0x80, B: 0x20, A: 255}) {
		t.Fatalf("hex6 parse: %v %v", c, ok)
	}
	if c, ok := ParseColor("#f00"); !ok || c != (color.RGBA{R: 255, A: 255}) {
		t.Fatalf("hex3 parse: %v %v", c, ok)
	}
	if _, ok := ParseColor("oklch(0.6 0.2 30)"); ok {
		t.Fatalf("unsupported color space must be rejected, not guessed")
	}
}

func TestLayoutWrapsGreedily(t *testing.T) {
	blocks := Parse("<div>aa bb cc dd</div>", Style{Size: 20, LineHeight: 1.0, Align: "left"})
	// each word is 20 wide, a space 10: "aa bb" = 50 fits in 55, adding " cc" would need 80
	lines, total := Layout(blocks, 55, fixedMeasure)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %+v", len(lines), lines)
	}
	if lines[0].Runs[0].Text != "aa bb" || lines[1].Runs[0].Text != "cc dd" {
		t.Fatalf("wrap points wrong: %+v", lines)
	}
	if total != 40 {
		t.Fatalf("total height = %v, want 40", total)
	}
}

func TestLayoutCentersLines(t *testing.T) {
	blocks := Parse(`<div style="text-align: center;">hi</div>`, Style{Size: 20, LineHeight: 1.0})
	lines, _ := Layout(blocks, 100, fixedMeasure)
	// "hi" is 20 wide; centered in 100 leaves 40 on each side
	if x := lines[0].Runs[0].X; x != 40 {
		t.Fatalf("center shift = %v, want 40", x)
	}
}

func TestLayoutOverwideWordOverflows(t *testing.T) {
	blocks := Parse("<div>abcdefghij</div>", Style{Size: 20, LineHeight: 1.0, Align: "left"})
	lines, _ := Layout(blocks, 50, fixedMeasure)
	if len(lines) != 1 {
		t.Fatalf("overwide word must stay on one line, got %d", len(lines))
	}
	if lines[0].Width != 100 {
		t.Fatalf("overflow width = %v", lines[0].Width)
	}
}

func TestLayoutAppliesMargins(t *testing.T) {
	frag := `<div style="margin-top: -30px; margin-bottom: 25px; font-size: 60px; line-height: 0.8;">Name</div><div style="font-size: 35px; line-height: 1.0;">Body</div>`
	blocks := Parse(frag, base)
	lines, total := Layout(blocks, 720, fixedMeasure)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].Y != -30 {
		t.Fatalf("negative top margin lost: %v", lines[0].Y)
	}
	// name line: 60*0.8=48 tall, then +25 margin → body at -30+48+25 = 43
	if lines[1].Y != 43 {
		t.Fatalf("body line y = %v, want 43", lines[1].Y)
	}
	if total != 43+35 {
		t.Fatalf("total = %v", total)
	}
}

func TestLayoutMergesUniformRuns(t *testing.T) {
	blocks := Parse("<div>one two three</div>", Style{Size: 10, LineHeight: 1.0, Align: "left"})
	lines, _ := Layout(blocks, 10000, fixedMeasure)
	if len(lines) != 1 || len(lines[0].Runs) != 1 {
		t.Fatalf("uniform words should merge into one run: %+v", lines)
	}
	if lines[0].Runs[0].Text != "one two three" {
		t.Fatalf("merged text = %q", lines[0].Runs[0].Text)
	}
}
