/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package raster

import (
	"flyerstudio/internal/domain"
	"flyerstudio/internal/geom"
)

// Stage names a rendering pipeline stage that carries its own offsets.
type Stage string

const (
	// StageCapture is the off-screen capture of the full scene.
	StageCapture Stage = "capture"
	// StageBlur is the sharp redraw pass after blurring.
	StageBlur Stage = "blur"
)

// corrections holds the empirically tuned per-kind offsets that compensate
// for systematic layout differences between the editable canvas and the
// export surface. These are configuration values, not derived quantities;
// adjust them only against reference output.
var corrections = map[Stage]map[domain.LayerKind]geom.Pt{
	StageCapture: {
		domain.KindTemplate: {Y: 100},
		domain.KindText:     {Y: 150},
		domain.KindLabel:    {X: -10, Y: 200},
	},
	StageBlur: {
		domain.KindDate: {Y: -29},
	},
}

// Correction returns the offset applied to a layer kind in a given stage.
// Kinds without an entry render at their measured position unchanged.
func Correction(stage Stage, kind domain.LayerKind) geom.Pt {
	return corrections[stage][kind]
}
