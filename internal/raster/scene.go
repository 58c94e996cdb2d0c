/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package raster composes a flyer document into a flat bitmap. The scene is
// rebuilt off-screen from scratch at the canvas's native logical resolution,
// honoring measured geometry when an editor session is in flight, and
// captured at scale 1. Output is JPEG at quality 95.
package raster

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"sync/atomic"

	"github.com/disintegration/imaging"
	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"

	"flyerstudio/internal/domain"
	"flyerstudio/internal/geom"
	applog "flyerstudio/internal/log"
	"flyerstudio/internal/richtext"
)

// ErrExportPending is returned when an export is started while another one is
// still running. Callers disable their export control instead of queueing.
var ErrExportPending = errors.New("raster: export already in progress")

// JPEGQuality is the lossy encode quality of exported flyers.
const JPEGQuality = 95

const textPadding = 16.0

// Measurer supplies the real, possibly uncommitted geometry of a layer.
// The editor implements it; a nil Measurer falls back to stored geometry.
type Measurer interface {
	MeasuredRect(kind domain.LayerKind, index int) (domain.Rect, bool)
}

// Renderer captures flyer documents. Safe for reuse; only one export may run
// at a time.
type Renderer struct {
	fonts *FontSet
	busy  atomic.Bool
}

// New loads fonts and returns a ready renderer.
func New() (*Renderer, error) {
	fs, err := LoadFonts()
	if err != nil {
		return nil, err
	}
	return &Renderer{fonts: fs}, nil
}

// Export runs the full pipeline: capture, optional selective blur, JPEG
// encode. A second export while one is pending is refused.
func (r *Renderer) Export(doc *domain.Document, m Measurer, images map[string]image.Image) ([]byte, error) {
	if !r.busy.CompareAndSwap(false, true) {
		return nil, ErrExportPending
	}
	defer r.busy.Store(false)

	img, err := r.Capture(doc, m, images)
	if err != nil {
		return nil, err
	}
	if doc.Blur.Enabled {
		img, err = r.applyBlur(doc, m, img, images)
		if err != nil {
			return nil, err
		}
	}
	return EncodeJPEG(img)
}

// EncodeJPEG encodes the capture at the fixed export quality.
func EncodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// Capture rebuilds the scene off-screen and rasterizes it. The document is
// never mutated. Missing images leave their region blank; everything else
// still renders.
func (r *Renderer) Capture(doc *domain.Document, m Measurer, images map[string]image.Image) (*image.RGBA, error) {
	c := canvas.New(domain.CanvasWidth, domain.CanvasHeight)
	ctx := canvas.NewContext(c)
	ctx.SetCoordSystem(canvas.CartesianIV)

	// opaque white ground
	ctx.SetFillColor(canvas.White)
	ctx.DrawPath(0, 0, canvas.Rectangle(domain.CanvasWidth, domain.CanvasHeight))

	for _, kind := range domain.PaintOrder() {
		r.drawKind(ctx, doc, m, images, kind, StageCapture)
	}
	return rasterizer.Draw(c, canvas.DPMM(1.0), canvas.DefaultColorSpace), nil
}

func (r *Renderer) drawKind(ctx *canvas.Context, doc *domain.Document, m Measurer, images map[string]image.Image, kind domain.LayerKind, stage Stage) {
	log := applog.WithComponent("raster")
	corr := Correction(stage, kind)
	switch kind {
	case domain.KindTemplate:
		if doc.Template == nil {
			return
		}
		rect := layerRect(doc, m, kind, 0)
		img, ok := images[doc.Template.ImageRef]
		if !ok {
			log.Warn("template image unavailable, region skipped", "ref", doc.Template.ImageRef)
			return
		}
		// stretched to its box; a template wider than the canvas ends up
		// downscaled to the full 720 width this way
		scaled := imaging.Resize(img, int(rect.Width), int(rect.Height), imaging.Lanczos)
		ctx.DrawImage(rect.X+corr.X, rect.Y+corr.Y, scaled, canvas.DPMM(1.0))

	case domain.KindPhoto:
		for i, p := range doc.Photos {
			rect := layerRect(doc, m, kind, i)
			img, ok := images[p.ImageRef]
			if !ok {
				log.Warn("photo unavailable, region skipped", "ref", p.ImageRef)
				continue
			}
			// cover: fill the box, cropping the overflow
			filled := imaging.Fill(img, int(rect.Width), int(rect.Height), imaging.Center, imaging.Lanczos)
			ctx.DrawImage(rect.X+corr.X, rect.Y+corr.Y, filled, canvas.DPMM(1.0))
		}

	case domain.KindLogo:
		for i, l := range doc.Logos {
			rect := layerRect(doc, m, kind, i)
			img, ok := images[l.ImageRef]
			if !ok {
				log.Warn("logo unavailable, region skipped", "ref", l.ImageRef)
				continue
			}
			// contain, watermark opacity, centered in the box
			fitted := imaging.Fit(img, int(rect.Width), int(rect.Height), imaging.Lanczos)
			faded := fade(fitted, domain.LogoOpacity)
			ox := rect.X + (rect.Width-float64(faded.Bounds().Dx()))/2
			oy := rect.Y + (rect.Height-float64(faded.Bounds().Dy()))/2
			ctx.DrawImage(ox+corr.X, oy+corr.Y, faded, canvas.DPMM(1.0))
		}

	case domain.KindAdditional:
		if doc.Additional == nil {
			return
		}
		img, ok := images[doc.Additional.ImageRef]
		if !ok {
			log.Warn("additional template unavailable, region skipped", "ref", doc.Additional.ImageRef)
			return
		}
		// full width, aspect preserved, pinned to the bottom edge
		scaled := imaging.Resize(img, int(domain.CanvasWidth), 0, imaging.Lanczos)
		y := domain.CanvasHeight - float64(scaled.Bounds().Dy())
		ctx.DrawImage(corr.X, y+corr.Y, scaled, canvas.DPMM(1.0))

	case domain.KindText:
		rect := layerRect(doc, m, kind, 0)
		r.drawTextBlock(ctx, doc, rect, corr)

	case domain.KindLabel:
		r.drawLabel(ctx, doc.City, color.RGBA{R: 255, A: 255}, layerRect(doc, m, kind, 0), corr)
		r.drawLabel(ctx, doc.DateLabel, color.RGBA{A: 255}, layerRect(doc, m, kind, 1), corr)

	case domain.KindDate:
		for i, d := range doc.Dates {
			rect := layerRect(doc, m, kind, i)
			r.drawDate(ctx, d, rect, corr)
		}
	}
}

// layerRect prefers measured geometry and falls back to the stored rect.
func layerRect(doc *domain.Document, m Measurer, kind domain.LayerKind, i int) domain.Rect {
	if m != nil {
		if r, ok := m.MeasuredRect(kind, i); ok {
			return r
		}
	}
	return storedRect(doc, kind, i)
}

func storedRect(doc *domain.Document, kind domain.LayerKind, i int) domain.Rect {
	switch kind {
	case domain.KindTemplate:
		if doc.Template != nil {
			return doc.Template.Rect
		}
	case domain.KindPhoto:
		if i < len(doc.Photos) {
			return doc.Photos[i].Rect
		}
	case domain.KindLogo:
		if i < len(doc.Logos) {
			return doc.Logos[i].Rect
		}
	case domain.KindDate:
		if i < len(doc.Dates) {
			return doc.Dates[i].Rect
		}
	case domain.KindText:
		return doc.Text.Rect
	case domain.KindLabel:
		l := doc.City
		if i == 1 {
			l = doc.DateLabel
		}
		return domain.Rect{X: l.X, Y: l.Y, Width: domain.LabelBoxBreadth, Height: domain.LabelBoxLength}
	}
	return domain.Rect{}
}

func (r *Renderer) drawTextBlock(ctx *canvas.Context, doc *domain.Document, rect domain.Rect, corr geom.Pt) {
	if doc.Text.HTML == "" {
		return
	}
	x, y := rect.X+corr.X, rect.Y+corr.Y

	// white background with a light border, like the editable region
	ctx.SetFillColor(canvas.White)
	ctx.SetStrokeColor(color.RGBA{R: 0xd1, G: 0xd5, B: 0xdb, A: 255})
	ctx.SetStrokeWidth(1)
	ctx.DrawPath(x, y, canvas.Rectangle(rect.Width, rect.Height))
	ctx.SetStrokeWidth(0)
	base := richtext.Style{
		Size:  float64(doc.Text.FontSize),
		Align: doc.Text.Align,
		Color: color.RGBA{A: 255},
	}
	if c, ok := richtext.ParseColor(doc.Text.Color); ok {
		base.Color = c
	}
	blocks := richtext.Parse(doc.Text.HTML, base)
	lines, _ := richtext.Layout(blocks, rect.Width-2*textPadding, r.fonts.Measurer())
	for _, ln := range lines {
		for _, run := range ln.Runs {
			face := r.fonts.StyleFace(run.Style)
			baseline := y + textPadding + ln.Y + face.Metrics().Ascent
			ctx.DrawText(x+textPadding+run.X, baseline, canvas.NewTextLine(face, run.Text, canvas.Left))
		}
	}
}

// drawLabel renders a vertical side label, rotated 90° counter-clockwise
// about the bottom end of its box so the text reads bottom to top.
func (r *Renderer) drawLabel(ctx *canvas.Context, l domain.VerticalLabel, col color.RGBA, rect domain.Rect, corr geom.Pt) {
	if l.Text == "" {
		return
	}
	x, y := rect.X+corr.X, rect.Y+corr.Y
	pivotY := y + domain.LabelBoxLength
	face := r.fonts.Face(domain.LabelFontSize, true, false, col)

	ctx.Push()
	ctx.RotateAbout(-90, x, pivotY)
	// baseline offset keeps the glyphs inside the label breadth
	baseline := pivotY + face.Metrics().Ascent - domain.LabelBoxBreadth
	ctx.DrawText(x, baseline, canvas.NewTextLine(face, l.Text, canvas.Left))
	ctx.Pop()
}

func (r *Renderer) drawDate(ctx *canvas.Context, d domain.DateLayer, rect domain.Rect, corr geom.Pt) {
	col := color.RGBA{A: 255}
	if c, ok := richtext.ParseColor(d.Color); ok {
		col = c
	}
	face := r.fonts.Face(domain.DateFontSize, true, false, col)
	cx := rect.X + corr.X + rect.Width/2
	baseline := rect.Y + corr.Y + rect.Height/2 + face.Metrics().CapHeight/2
	ctx.DrawText(cx, baseline, canvas.NewTextLine(face, d.Text, canvas.Center))
}

// fade scales the alpha channel, producing the watermark look of logo layers.
func fade(img image.Image, opacity float64) *image.NRGBA {
	out := imaging.Clone(img)
	for i := 3; i < len(out.Pix); i += 4 {
		out.Pix[i] = uint8(float64(out.Pix[i]) * opacity)
	}
	return out
}
