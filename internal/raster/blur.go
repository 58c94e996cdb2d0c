/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package raster

import (
	"image"
	"image/draw"

	"github.com/disintegration/imaging"
	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"

	"flyerstudio/internal/domain"
	"flyerstudio/internal/geom"
)

// Blur amount bounds in pixels.
const (
	BlurAmountMin     = 1
	BlurAmountMax     = 20
	BlurAmountDefault = 5
)

// ClampBlurAmount forces the amount into the supported range, falling back
// to the default for nonsensical values.
func ClampBlurAmount(amount int) int {
	if amount < BlurAmountMin || amount > BlurAmountMax {
		return BlurAmountDefault
	}
	return amount
}

// applyBlur blurs the whole capture, then redraws the template and date
// stamps sharp on top. The effect hides the person's details while keeping
// the flyer frame and the search dates legible.
func (r *Renderer) applyBlur(doc *domain.Document, m Measurer, captured *image.RGBA, images map[string]image.Image) (*image.RGBA, error) {
	amount := ClampBlurAmount(doc.Blur.AmountPx)
	sigma := float64(amount) / 2
	blurred := imaging.Blur(captured, sigma)

	overlay, err := r.sharpOverlay(doc, m, images)
	if err != nil {
		return nil, err
	}

	out := image.NewRGBA(captured.Bounds())
	draw.Draw(out, out.Bounds(), blurred, image.Point{}, draw.Src)
	draw.Draw(out, out.Bounds(), overlay, image.Point{}, draw.Over)
	return out, nil
}

// sharpOverlay renders only the sharp-exempt layers on a transparent ground.
// They are placed where the capture put them, plus the blur-stage offsets.
func (r *Renderer) sharpOverlay(doc *domain.Document, m Measurer, images map[string]image.Image) (*image.RGBA, error) {
	c := canvas.New(domain.CanvasWidth, domain.CanvasHeight)
	ctx := canvas.NewContext(c)
	ctx.SetCoordSystem(canvas.CartesianIV)

	if doc.Template != nil {
		if img, ok := images[doc.Template.ImageRef]; ok {
			rect := layerRect(doc, m, domain.KindTemplate, 0)
			corr := Correction(StageCapture, domain.KindTemplate)
			scaled := imaging.Resize(img, int(rect.Width), int(rect.Height), imaging.Lanczos)
			ctx.DrawImage(rect.X+corr.X, rect.Y+corr.Y, scaled, canvas.DPMM(1.0))
		}
	}
	for i, d := range doc.Dates {
		rect := layerRect(doc, m, domain.KindDate, i)
		capCorr := Correction(StageCapture, domain.KindDate)
		blurCorr := Correction(StageBlur, domain.KindDate)
		corr := geom.Pt{X: capCorr.X + blurCorr.X, Y: capCorr.Y + blurCorr.Y}
		r.drawDate(ctx, d, rect, corr)
	}
	return rasterizer.Draw(c, canvas.DPMM(1.0), canvas.DefaultColorSpace), nil
}
