/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package editor implements interactive manipulation of a flyer document as
// pure, synchronous state transitions. There is exactly one editor per
// document and no concurrent writers, so no locking is needed. Persistence is
// an explicit, separate action; nothing here performs I/O.
package editor

import (
	"fmt"
	"time"

	"flyerstudio/internal/domain"
	"flyerstudio/internal/geom"
)

// Label indexes within KindLabel refs.
const (
	LabelCity = 0
	LabelDate = 1
)

// Ref addresses one layer of the document. For singleton layers (template,
// text block, additional template) Index is 0; for the two vertical labels it
// is LabelCity or LabelDate.
type Ref struct {
	Kind  domain.LayerKind
	Index int
}

// Capabilities describes what interactions a layer kind permits.
type Capabilities struct {
	DragX        bool
	DragY        bool
	ResizeTop    bool
	ResizeBottom bool
	ResizeLeft   bool
	ResizeRight  bool
	Deletable    bool
	EditableText bool
}

// CapabilitiesFor returns the fixed capability set of a layer reference.
func CapabilitiesFor(ref Ref) Capabilities {
	switch ref.Kind {
	case domain.KindTemplate:
		// vertical drag only, top/bottom resize, width pinned to canvas
		return Capabilities{DragY: true, ResizeTop: true, ResizeBottom: true}
	case domain.KindPhoto:
		return Capabilities{DragX: true, DragY: true, ResizeTop: true, ResizeBottom: true, ResizeLeft: true, ResizeRight: true}
	case domain.KindLogo:
		return Capabilities{DragX: true, DragY: true, ResizeTop: true, ResizeBottom: true, ResizeLeft: true, ResizeRight: true, Deletable: true}
	case domain.KindDate:
		return Capabilities{DragX: true, DragY: true, Deletable: true}
	case domain.KindText:
		// never draggable; resizable from the top edge only
		return Capabilities{ResizeTop: true, EditableText: true}
	case domain.KindLabel:
		if ref.Index == LabelCity {
			return Capabilities{DragX: true, DragY: true, EditableText: true}
		}
		return Capabilities{EditableText: true} // date label: fixed position
	default:
		return Capabilities{}
	}
}

// Editor holds the document under edit plus any in-flight interaction
// sessions. Sessions carry uncommitted geometry that the rasterizer prefers
// over stored state.
type Editor struct {
	doc      *domain.Document
	mapper   geom.Mapper
	sessions map[Ref]*Session
}

// New wraps doc for editing at the given display container width.
func New(doc *domain.Document, containerWidth float64) *Editor {
	return &Editor{
		doc:      doc,
		mapper:   geom.NewMapper(containerWidth),
		sessions: map[Ref]*Session{},
	}
}

// Document returns the document under edit.
func (e *Editor) Document() *domain.Document { return e.doc }

// Mapper returns the current coordinate mapper.
func (e *Editor) Mapper() geom.Mapper { return e.mapper }

// SetContainerWidth recomputes the display scale. Stored logical geometry is
// not perturbed.
func (e *Editor) SetContainerWidth(w float64) { e.mapper = e.mapper.Rescale(w) }

// SetTemplate installs or replaces the background template layer at its
// default geometry.
func (e *Editor) SetTemplate(templateID int64, imageRef string) Ref {
	if e.doc.Template == nil {
		e.doc.Template = &domain.TemplateLayer{Rect: domain.DefaultTemplateRect()}
	}
	e.doc.Template.TemplateID = templateID
	e.doc.Template.ImageRef = imageRef
	return Ref{Kind: domain.KindTemplate}
}

// SetAdditional installs the bottom-pinned full-width additional template.
func (e *Editor) SetAdditional(imageRef string) Ref {
	e.doc.Additional = &domain.AdditionalLayer{ImageRef: imageRef}
	return Ref{Kind: domain.KindAdditional}
}

// AddPhoto appends a photo layer at the staggered default position.
func (e *Editor) AddPhoto(imageRef string) Ref {
	i := len(e.doc.Photos)
	off := float64(i) * 30
	e.doc.Photos = append(e.doc.Photos, domain.PhotoLayer{
		ImageRef: imageRef,
		Rect:     domain.Rect{X: 50 + off, Y: 50 + off, Width: 200, Height: 200},
	})
	return Ref{Kind: domain.KindPhoto, Index: i}
}

// AddLogo appends a logo layer; each call adds a new instance.
func (e *Editor) AddLogo(imageRef string) Ref {
	i := len(e.doc.Logos)
	off := float64(i) * 20
	e.doc.Logos = append(e.doc.Logos, domain.LogoLayer{
		ImageRef: imageRef,
		Rect:     domain.Rect{X: 50 + off, Y: 50 + off, Width: 150, Height: 150},
	})
	return Ref{Kind: domain.KindLogo, Index: i}
}

// AddDate appends a date stamp with the given color, stamped with now.
func (e *Editor) AddDate(color string, now time.Time) Ref {
	i := len(e.doc.Dates)
	off := float64(i) * 20
	e.doc.Dates = append(e.doc.Dates, domain.DateLayer{
		Text:  FormatStampDate(now),
		Color: color,
		Rect:  domain.Rect{X: 50 + off, Y: 50 + off, Width: domain.DateBoxWidth, Height: domain.DateBoxHeight},
	})
	return Ref{Kind: domain.KindDate, Index: i}
}

// FormatStampDate renders a date the way flyer stamps are written: DD.MM.YYYYр.
func FormatStampDate(t time.Time) string { return t.Format("02.01.2006") + "р." }

// Remove deletes the referenced layer; unknown ids are no-ops. The removed
// layer's open session is cancelled, and sessions on later layers of the same
// kind are re-keyed so each keeps following the layer it started on.
func (e *Editor) Remove(ref Ref) {
	removed := false
	switch ref.Kind {
	case domain.KindTemplate:
		removed = e.doc.Template != nil
		e.doc.Template = nil
	case domain.KindAdditional:
		removed = e.doc.Additional != nil
		e.doc.Additional = nil
	case domain.KindPhoto:
		if ref.Index >= 0 && ref.Index < len(e.doc.Photos) {
			e.doc.Photos = append(e.doc.Photos[:ref.Index], e.doc.Photos[ref.Index+1:]...)
			removed = true
		}
	case domain.KindLogo:
		if ref.Index >= 0 && ref.Index < len(e.doc.Logos) {
			e.doc.Logos = append(e.doc.Logos[:ref.Index], e.doc.Logos[ref.Index+1:]...)
			removed = true
		}
	case domain.KindDate:
		if ref.Index >= 0 && ref.Index < len(e.doc.Dates) {
			e.doc.Dates = append(e.doc.Dates[:ref.Index], e.doc.Dates[ref.Index+1:]...)
			removed = true
		}
	}
	if !removed {
		return
	}
	if s, ok := e.sessions[ref]; ok {
		s.Cancel()
	}
	e.rekeySessions(ref)
}

// rekeySessions shifts open sessions of the removed layer's kind down by one
// index so they keep addressing the same slice element.
func (e *Editor) rekeySessions(removed Ref) {
	var shifted []*Session
	for r, s := range e.sessions {
		if r.Kind == removed.Kind && r.Index > removed.Index {
			delete(e.sessions, r)
			shifted = append(shifted, s)
		}
	}
	for _, s := range shifted {
		s.ref.Index--
		e.sessions[s.ref] = s
	}
}

// UpdateText edits the text carried by the referenced layer.
func (e *Editor) UpdateText(ref Ref, s string) {
	switch ref.Kind {
	case domain.KindText:
		e.doc.Text.HTML = s
	case domain.KindDate:
		if ref.Index >= 0 && ref.Index < len(e.doc.Dates) {
			e.doc.Dates[ref.Index].Text = s
		}
	case domain.KindLabel:
		if ref.Index == LabelCity {
			e.doc.City.Text = s
		} else if ref.Index == LabelDate {
			e.doc.DateLabel.Text = s
		}
	}
}

// Geometry returns the stored logical geometry of the referenced layer.
func (e *Editor) Geometry(ref Ref) (domain.Rect, bool) {
	switch ref.Kind {
	case domain.KindTemplate:
		if e.doc.Template == nil {
			return domain.Rect{}, false
		}
		return e.doc.Template.Rect, true
	case domain.KindPhoto:
		if ref.Index < 0 || ref.Index >= len(e.doc.Photos) {
			return domain.Rect{}, false
		}
		return e.doc.Photos[ref.Index].Rect, true
	case domain.KindLogo:
		if ref.Index < 0 || ref.Index >= len(e.doc.Logos) {
			return domain.Rect{}, false
		}
		return e.doc.Logos[ref.Index].Rect, true
	case domain.KindDate:
		if ref.Index < 0 || ref.Index >= len(e.doc.Dates) {
			return domain.Rect{}, false
		}
		return e.doc.Dates[ref.Index].Rect, true
	case domain.KindText:
		return e.doc.Text.Rect, true
	case domain.KindLabel:
		l := e.doc.City
		if ref.Index == LabelDate {
			l = e.doc.DateLabel
		}
		return domain.Rect{X: l.X, Y: l.Y, Width: domain.LabelBoxBreadth, Height: domain.LabelBoxLength}, true
	}
	return domain.Rect{}, false
}

// UpdateGeometry writes new geometry for the referenced layer, applying the
// per-kind constraints and clamping to the canvas. Unknown refs are no-ops.
func (e *Editor) UpdateGeometry(ref Ref, r domain.Rect) {
	r = constrain(ref, r)
	switch ref.Kind {
	case domain.KindTemplate:
		if e.doc.Template != nil {
			e.doc.Template.Rect = r
		}
	case domain.KindPhoto:
		if ref.Index >= 0 && ref.Index < len(e.doc.Photos) {
			e.doc.Photos[ref.Index].Rect = r
		}
	case domain.KindLogo:
		if ref.Index >= 0 && ref.Index < len(e.doc.Logos) {
			e.doc.Logos[ref.Index].Rect = r
		}
	case domain.KindDate:
		if ref.Index >= 0 && ref.Index < len(e.doc.Dates) {
			e.doc.Dates[ref.Index].Rect = r
		}
	case domain.KindText:
		e.doc.Text.Rect = r
	case domain.KindLabel:
		if ref.Index == LabelCity {
			e.doc.City.X, e.doc.City.Y = r.X, r.Y
		}
		// the vertical date label has a fixed position
	}
}

// constrain applies layer-type invariants before clamping:
// template x/width pinned to the canvas, date stamps keep their fixed box,
// the text block keeps full width and re-anchors to the bottom edge.
func constrain(ref Ref, r domain.Rect) domain.Rect {
	switch ref.Kind {
	case domain.KindTemplate:
		r.X = 0
		r.Width = domain.CanvasWidth
	case domain.KindDate:
		r.Width = domain.DateBoxWidth
		r.Height = domain.DateBoxHeight
	case domain.KindText:
		r.X = 0
		r.Width = domain.CanvasWidth
		if r.Height < minLayerSize {
			r.Height = minLayerSize
		}
		if r.Height > domain.CanvasHeight {
			r.Height = domain.CanvasHeight
		}
		r.Y = domain.CanvasHeight - r.Height
		return r // bottom anchor already guarantees canvas bounds
	}
	if r.Width < minLayerSize {
		r.Width = minLayerSize
	}
	if r.Height < minLayerSize {
		r.Height = minLayerSize
	}
	return geom.ClampRect(r)
}

const minLayerSize = 20.0

// MeasuredRect implements the measured-geometry query used at export time:
// if an interaction session is in flight for the layer, its uncommitted
// geometry wins over the stored document state.
func (e *Editor) MeasuredRect(kind domain.LayerKind, index int) (domain.Rect, bool) {
	ref := Ref{Kind: kind, Index: index}
	if s, ok := e.sessions[ref]; ok && s.phase != phaseIdle {
		return s.Rect(), true
	}
	return e.Geometry(ref)
}

func (e *Editor) String() string {
	return fmt.Sprintf("editor(layers=%d scale=%.3f sessions=%d)", e.doc.LayerCount(), e.mapper.Scale(), len(e.sessions))
}
