/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package raster

import (
	"fmt"
	"image/color"

	"github.com/tdewolff/canvas"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"

	"flyerstudio/internal/richtext"
)

// FontSet bundles the canvas font family used for all flyer text. The Go
// fonts ship with the toolchain's blessing and cover Cyrillic, which the
// flyer wording requires.
type FontSet struct {
	family *canvas.FontFamily
}

// LoadFonts loads the bundled faces into one family.
func LoadFonts() (*FontSet, error) {
	fam := canvas.NewFontFamily("flyer")
	for _, f := range []struct {
		data  []byte
		style canvas.FontStyle
	}{
		{goregular.TTF, canvas.FontRegular},
		{gobold.TTF, canvas.FontBold},
		{goitalic.TTF, canvas.FontItalic},
		{gobolditalic.TTF, canvas.FontBold | canvas.FontItalic},
	} {
		if err := fam.LoadFont(f.data, 0, f.style); err != nil {
			return nil, fmt.Errorf("load font: %w", err)
		}
	}
	return &FontSet{family: fam}, nil
}

// Face resolves a styled face at the given pixel size.
func (fs *FontSet) Face(size float64, bold, italic bool, col color.Color) *canvas.FontFace {
	style := canvas.FontRegular
	if bold {
		style = canvas.FontBold
	}
	if italic {
		style |= canvas.FontItalic
	}
	return fs.family.Face(size, col, style, canvas.FontNormal)
}

// StyleFace resolves the face for a rich-text style.
func (fs *FontSet) StyleFace(st richtext.Style) *canvas.FontFace {
	style := canvas.FontRegular
	if st.Bold {
		style = canvas.FontBold
	}
	if st.Italic {
		style |= canvas.FontItalic
	}
	if st.Underline {
		return fs.family.Face(st.Size, st.Color, style, canvas.FontNormal, canvas.FontUnderline)
	}
	return fs.family.Face(st.Size, st.Color, style, canvas.FontNormal)
}

// Measurer adapts the font set to the rich-text layout contract.
func (fs *FontSet) Measurer() richtext.Measurer {
	return func(st richtext.Style, s string) float64 {
		return fs.StyleFace(st).TextWidth(s)
	}
}
