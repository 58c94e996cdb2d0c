/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"errors"
	"fmt"

	"flyerstudio/internal/domain"
)

// Errors returned by session entry points.
var (
	ErrNoSuchLayer   = errors.New("editor: no such layer")
	ErrNotPermitted  = errors.New("editor: interaction not permitted for layer kind")
	ErrSessionActive = errors.New("editor: layer already has an active session")
	ErrSessionClosed = errors.New("editor: session already ended")
)

type phase int

const (
	phaseIdle phase = iota
	phaseDragging
	phaseResizing
)

// Edge names the grabbed resize handle.
type Edge int

const (
	EdgeTop Edge = iota
	EdgeBottom
	EdgeLeft
	EdgeRight
)

// Session is one in-flight drag or resize interaction. All deltas are screen
// pixels; the session converts them to logical units through the editor's
// mapper on every move, so a mid-interaction container resize stays correct.
type Session struct {
	e     *Editor
	ref   Ref
	phase phase
	edge  Edge
	start domain.Rect // geometry at BeginDrag/BeginResize
	dx    float64     // accumulated screen-pixel deltas
	dy    float64
}

// BeginDrag starts a drag session for the referenced layer.
func (e *Editor) BeginDrag(ref Ref) (*Session, error) {
	caps := CapabilitiesFor(ref)
	if !caps.DragX && !caps.DragY {
		return nil, fmt.Errorf("%w: drag %s", ErrNotPermitted, ref.Kind)
	}
	return e.begin(ref, phaseDragging, EdgeTop)
}

// BeginResize starts a resize session grabbing the given edge.
func (e *Editor) BeginResize(ref Ref, edge Edge) (*Session, error) {
	caps := CapabilitiesFor(ref)
	allowed := map[Edge]bool{
		EdgeTop:    caps.ResizeTop,
		EdgeBottom: caps.ResizeBottom,
		EdgeLeft:   caps.ResizeLeft,
		EdgeRight:  caps.ResizeRight,
	}
	if !allowed[edge] {
		return nil, fmt.Errorf("%w: resize %s edge %d", ErrNotPermitted, ref.Kind, edge)
	}
	return e.begin(ref, phaseResizing, edge)
}

func (e *Editor) begin(ref Ref, p phase, edge Edge) (*Session, error) {
	if _, ok := e.sessions[ref]; ok {
		return nil, ErrSessionActive
	}
	start, ok := e.Geometry(ref)
	if !ok {
		return nil, ErrNoSuchLayer
	}
	s := &Session{e: e, ref: ref, phase: p, edge: edge, start: start}
	e.sessions[ref] = s
	return s, nil
}

// Move accumulates a screen-pixel pointer delta.
func (s *Session) Move(dxScreen, dyScreen float64) error {
	if s.phase == phaseIdle {
		return ErrSessionClosed
	}
	s.dx += dxScreen
	s.dy += dyScreen
	return nil
}

// Rect returns the session's current uncommitted geometry in logical units,
// with per-kind constraints and canvas clamping already applied. This is what
// the measured-geometry query reports while the interaction is open.
func (s *Session) Rect() domain.Rect {
	m := s.e.mapper
	dx := m.ToLogical(s.dx)
	dy := m.ToLogical(s.dy)
	caps := CapabilitiesFor(s.ref)
	r := s.start
	switch s.phase {
	case phaseDragging:
		if caps.DragX {
			r.X += dx
		}
		if caps.DragY {
			r.Y += dy
		}
	case phaseResizing:
		switch s.edge {
		case EdgeTop:
			r.Y += dy
			r.Height -= dy
		case EdgeBottom:
			r.Height += dy
		case EdgeLeft:
			r.X += dx
			r.Width -= dx
		case EdgeRight:
			r.Width += dx
		}
	}
	return constrain(s.ref, r)
}

// End commits the session geometry to the document and closes the session.
func (s *Session) End() {
	if s.phase == phaseIdle {
		return
	}
	r := s.Rect()
	s.phase = phaseIdle
	delete(s.e.sessions, s.ref)
	s.e.UpdateGeometry(s.ref, r)
}

// Cancel discards the session; the stored geometry is left untouched.
func (s *Session) Cancel() {
	if s.phase == phaseIdle {
		return
	}
	s.phase = phaseIdle
	delete(s.e.sessions, s.ref)
}
