/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package backend

import (
	"context"
	"fmt"
	"image"
	"time"

	"flyerstudio/internal/domain"
	"flyerstudio/internal/export"
	applog "flyerstudio/internal/log"
	"flyerstudio/internal/raster"
)

// SaveOptions controls one save-with-export run.
type SaveOptions struct {
	FlyerID  int64 // 0 creates a new flyer record
	LastName string
	Now      time.Time // zero means time.Now()
}

// SaveResult reports what the pipeline produced.
type SaveResult struct {
	FlyerID  int64
	Remote   string // uploaded image reference; empty when the upload failed
	Filename string
	JPEG     []byte
	Degraded bool // true when the upload failed and the save went on without it
}

// SaveWithExport runs the export pipeline in its required order: rasterize,
// upload the bitmap, append its reference to the document's export history,
// then persist the document. An upload failure degrades gracefully: the save
// still happens, without the new reference. A rasterization failure aborts
// before anything is persisted.
func (c *Client) SaveWithExport(ctx context.Context, r *raster.Renderer, doc *domain.Document, m raster.Measurer, images map[string]image.Image, opt SaveOptions) (*SaveResult, error) {
	log := applog.WithOperation(applog.WithComponent("backend"), "save_with_export")

	now := opt.Now
	if now.IsZero() {
		now = time.Now()
	}

	data, err := r.Export(doc, m, images)
	if err != nil {
		return nil, fmt.Errorf("rasterize: %w", err)
	}
	res := &SaveResult{
		Filename: export.Filename(opt.LastName, now),
		JPEG:     data,
	}

	remote, uerr := c.Upload(ctx, res.Filename, data)
	if uerr != nil {
		// non-fatal: the document still gets saved, just without the new ref
		log.Warn("upload failed, saving without new image reference", "error", uerr)
		res.Degraded = true
	} else {
		res.Remote = remote
		doc.Exported = append(doc.Exported, remote)
	}

	payload := FlyerFromDocument(doc)
	if opt.FlyerID == 0 {
		id, cerr := c.CreateFlyer(ctx, payload)
		if cerr != nil {
			return res, fmt.Errorf("save flyer: %w", cerr)
		}
		res.FlyerID = id
	} else {
		if uerr := c.UpdateFlyer(ctx, opt.FlyerID, payload); uerr != nil {
			return res, fmt.Errorf("save flyer: %w", uerr)
		}
		res.FlyerID = opt.FlyerID
	}
	log.Info("flyer saved", "flyerId", res.FlyerID, "degraded", res.Degraded)
	return res, nil
}
