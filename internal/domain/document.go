/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package domain defines the flyer document data model: one serializable
// description of a missing-person flyer composed of positioned layers on a
// fixed-size logical canvas. Pure data, no behavior beyond copying and the
// shared paint-order function.
package domain

// Logical canvas size in canvas units. Every document uses exactly this size;
// display scaling is handled elsewhere and never changes these values.
const (
	CanvasWidth  = 720.0
	CanvasHeight = 1280.0
)

// Fixed presentation constants shared by the editor and the rasterizer.
const (
	LogoOpacity     = 0.2
	DateBoxWidth    = 200.0
	DateBoxHeight   = 50.0
	DateFontSize    = 38.0
	LabelFontSize   = 34.0
	LabelBoxLength  = 200.0
	LabelBoxBreadth = 40.0
)

// Rect is an axis-aligned rectangle in logical canvas units.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// LayerKind discriminates layer types. The paint order of a document is fixed
// by kind, never by insertion order.
type LayerKind string

const (
	KindTemplate   LayerKind = "template"
	KindPhoto      LayerKind = "photo"
	KindLogo       LayerKind = "logo"
	KindAdditional LayerKind = "additional"
	KindText       LayerKind = "text"
	KindLabel      LayerKind = "label"
	KindDate       LayerKind = "date"
)

// zRank maps each kind to its paint priority. Date stamps are topmost.
var zRank = map[LayerKind]int{
	KindTemplate:   1,
	KindPhoto:      2,
	KindLogo:       3,
	KindAdditional: 4,
	KindText:       5,
	KindLabel:      6,
	KindDate:       7,
}

// ZRank returns the paint priority of the kind; higher paints later (on top).
func (k LayerKind) ZRank() int { return zRank[k] }

// PaintOrder returns all layer kinds sorted bottom to top. Both the editor
// enumeration and the rasterizer iterate this one ordering so the two
// pipelines cannot disagree.
func PaintOrder() []LayerKind {
	return []LayerKind{KindTemplate, KindPhoto, KindLogo, KindAdditional, KindText, KindLabel, KindDate}
}

// TemplateLayer is the background template image. At most one per document.
// X is pinned to 0 and Width to the canvas width; only Y and Height move.
type TemplateLayer struct {
	TemplateID int64  `json:"templateId"`
	ImageRef   string `json:"imageRef"`
	Rect       Rect   `json:"rect"`
}

// PhotoLayer is a freely positioned, freely resizable photograph.
type PhotoLayer struct {
	ImageRef string `json:"imageRef"`
	Rect     Rect   `json:"rect"`
}

// LogoLayer is a watermark-style organization logo drawn at LogoOpacity.
type LogoLayer struct {
	ImageRef string `json:"imageRef"`
	Rect     Rect   `json:"rect"`
}

// DateLayer is a date stamp with a fixed-size box; draggable but not
// resizable, and always painted topmost.
type DateLayer struct {
	Text  string `json:"text"`
	Rect  Rect   `json:"rect"`
	Color string `json:"color"` // hex, e.g. #000000
}

// AdditionalLayer is a secondary full-width template image pinned to the
// bottom edge of the canvas.
type AdditionalLayer struct {
	ImageRef string `json:"imageRef"`
}

// TextBlock is the main free-text region. Its bottom edge is invariant:
// Rect.Y + Rect.Height == CanvasHeight at all times (bottom anchored).
type TextBlock struct {
	Rect     Rect   `json:"rect"`
	HTML     string `json:"html"`
	FontSize int    `json:"fontSize"`
	Align    string `json:"align"` // left, center, right
	Color    string `json:"color"`
}

// VerticalLabel is a side label rendered rotated 90° counter-clockwise.
// The city label is draggable and red; the date label is fixed and black.
type VerticalLabel struct {
	Text string  `json:"text"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// BlurSettings controls the selective blur applied at export time.
type BlurSettings struct {
	Enabled  bool `json:"enabled"`
	AmountPx int  `json:"amount"`
}

// Document is one flyer. It maps 1:1 to a persisted flyer record. A document
// with zero layers is valid.
type Document struct {
	SearchID   int64            `json:"searchId,omitempty"`
	CanvasW    float64          `json:"canvasWidth"`
	CanvasH    float64          `json:"canvasHeight"`
	Template   *TemplateLayer   `json:"template,omitempty"`
	Photos     []PhotoLayer     `json:"photos,omitempty"`
	Logos      []LogoLayer      `json:"logos,omitempty"`
	Dates      []DateLayer      `json:"dates,omitempty"`
	Additional *AdditionalLayer `json:"additionalTemplate,omitempty"`
	Text       TextBlock        `json:"textBlock"`
	City       VerticalLabel    `json:"city"`
	DateLabel  VerticalLabel    `json:"dateLabel"`
	Blur       BlurSettings     `json:"blur"`
	Approved   bool             `json:"approved"`
	Exported   []string         `json:"exportedFiles,omitempty"`
}

// DefaultTextRect is the initial geometry of the text block; its bottom edge
// sits on the canvas bottom (427 + 853 == 1280).
func DefaultTextRect() Rect { return Rect{X: 0, Y: 427, Width: CanvasWidth, Height: 853} }

// DefaultTemplateRect is the initial geometry of the main template layer.
func DefaultTemplateRect() Rect { return Rect{X: 0, Y: 200, Width: CanvasWidth, Height: 400} }

// New returns an empty document with default geometry and label positions.
func New() *Document {
	return &Document{
		CanvasW: CanvasWidth,
		CanvasH: CanvasHeight,
		Text: TextBlock{
			Rect:     DefaultTextRect(),
			FontSize: 28,
			Align:    "center",
			Color:    "#000000",
		},
		City:      VerticalLabel{X: 10, Y: 20},
		DateLabel: VerticalLabel{X: 655, Y: 40},
		Blur:      BlurSettings{Enabled: false, AmountPx: 5},
	}
}

// Clone deep-copies the document. Used by the duplicate-flyer flow: new
// identity, same layer data, fresh export history is the caller's choice.
func (d *Document) Clone() *Document {
	c := *d
	if d.Template != nil {
		t := *d.Template
		c.Template = &t
	}
	if d.Additional != nil {
		a := *d.Additional
		c.Additional = &a
	}
	c.Photos = append([]PhotoLayer(nil), d.Photos...)
	c.Logos = append([]LogoLayer(nil), d.Logos...)
	c.Dates = append([]DateLayer(nil), d.Dates...)
	c.Exported = append([]string(nil), d.Exported...)
	return &c
}

// ImageRefs lists every image reference the document draws. Duplicates are
// kept; callers that cache images dedupe themselves.
func (d *Document) ImageRefs() []string {
	var refs []string
	if d.Template != nil && d.Template.ImageRef != "" {
		refs = append(refs, d.Template.ImageRef)
	}
	for _, p := range d.Photos {
		if p.ImageRef != "" {
			refs = append(refs, p.ImageRef)
		}
	}
	for _, l := range d.Logos {
		if l.ImageRef != "" {
			refs = append(refs, l.ImageRef)
		}
	}
	if d.Additional != nil && d.Additional.ImageRef != "" {
		refs = append(refs, d.Additional.ImageRef)
	}
	return refs
}

// LayerCount reports how many positioned layers the document carries.
func (d *Document) LayerCount() int {
	n := len(d.Photos) + len(d.Logos) + len(d.Dates)
	if d.Template != nil {
		n++
	}
	if d.Additional != nil {
		n++
	}
	return n
}
