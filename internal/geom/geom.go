/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package geom provides logical-canvas geometry and the mapping between the
// fixed logical coordinate space and the scaled on-screen representation.
// All stored layer geometry is expressed in logical units; this package is
// the only place that knows about display scale.
package geom

import (
	"math"

	"flyerstudio/internal/domain"
)

// Pt is a 2D point in logical canvas units.
type Pt struct{ X, Y float64 }

// Mapper converts between screen pixels and logical canvas units for one
// display container. A zero Mapper is invalid; use NewMapper.
type Mapper struct {
	scale float64
}

// NewMapper computes the container-fit scale for the given container width:
// scale = min(containerWidth/canvasWidth, 1). The canvas is never upscaled.
func NewMapper(containerWidth float64) Mapper {
	s := containerWidth / domain.CanvasWidth
	if s > 1 {
		s = 1
	}
	if s <= 0 {
		// degenerate container; fall back to unscaled
		s = 1
	}
	return Mapper{scale: s}
}

// Scale returns the current display scale factor in (0, 1].
func (m Mapper) Scale() float64 { return m.scale }

// ToLogical converts a screen-pixel delta into a logical delta.
func (m Mapper) ToLogical(screen float64) float64 { return screen / m.scale }

// ToScreen converts a logical delta into screen pixels.
func (m Mapper) ToScreen(logical float64) float64 { return logical * m.scale }

// ToLogicalPt converts a screen-space point relative to the canvas origin.
func (m Mapper) ToLogicalPt(p Pt) Pt { return Pt{X: p.X / m.scale, Y: p.Y / m.scale} }

// ToScreenPt converts a logical point to screen space.
func (m Mapper) ToScreenPt(p Pt) Pt { return Pt{X: p.X * m.scale, Y: p.Y * m.scale} }

// Rescale returns a mapper for a new container width. Stored logical
// coordinates are untouched by a rescale; only the display factor changes.
func (m Mapper) Rescale(containerWidth float64) Mapper { return NewMapper(containerWidth) }

// ClampRect keeps r inside the canvas parent, shrinking it first if it is
// larger than the canvas in either dimension. Clamping never errors.
func ClampRect(r domain.Rect) domain.Rect {
	if r.Width > domain.CanvasWidth {
		r.Width = domain.CanvasWidth
	}
	if r.Height > domain.CanvasHeight {
		r.Height = domain.CanvasHeight
	}
	r.X = clamp(r.X, 0, domain.CanvasWidth-r.Width)
	r.Y = clamp(r.Y, 0, domain.CanvasHeight-r.Height)
	return r
}

// ClampPt keeps a point inside the canvas.
func ClampPt(p Pt) Pt {
	return Pt{X: clamp(p.X, 0, domain.CanvasWidth), Y: clamp(p.Y, 0, domain.CanvasHeight)}
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		hi = lo
	}
	return math.Min(math.Max(v, lo), hi)
}

// Round rounds v to n decimal places deterministically.
func Round(v float64, places int) float64 {
	if places < 0 {
		return v
	}
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}
