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
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"flyerstudio/internal/domain"
	"flyerstudio/internal/raster"
)

func newTestRenderer(t *testing.T) *raster.Renderer {
	t.Helper()
	r, err := raster.New()
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}
	return r
}

func TestSaveWithExportHappyPath(t *testing.T) {
	var order []string
	var savedFlyer Flyer
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/uploads" && r.Method == http.MethodPost:
			order = append(order, "upload")
			json.NewEncoder(w).Encode([]string{"/uploads/new.jpg"})
		case r.URL.Path == "/orientations" && r.Method == http.MethodPost:
			order = append(order, "save")
			json.NewDecoder(r.Body).Decode(&savedFlyer)
			savedFlyer.ID = 44
			json.NewEncoder(w).Encode(savedFlyer)
		default:
			t.Errorf("unexpected call %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	doc := domain.New()
	doc.SearchID = 5
	c := NewClient(srv.URL, "")

	res, err := c.SaveWithExport(context.Background(), newTestRenderer(t), doc, nil, nil, SaveOptions{
		LastName: "Шевченко",
		Now:      time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("pipeline: %v", err)
	}
	if res.FlyerID != 44 || res.Degraded || res.Remote != "/uploads/new.jpg" {
		t.Fatalf("result wrong: %+v", res)
	}
	if res.Filename != "Шевченко_2026-09-01.jpg" {
		t.Fatalf("filename = %q", res.Filename)
	}
	if len(order) != 2 || order[0] != "upload" || order[1] != "save" {
		t.Fatalf("pipeline order wrong: %v", order)
	}
	if len(savedFlyer.ExportedFiles) != 1 || savedFlyer.ExportedFiles[0] != "/uploads/new.jpg" {
		t.Fatalf("reference not appended before save: %+v", savedFlyer.ExportedFiles)
	}
}

func TestSaveWithExportDegradesOnUploadFailure(t *testing.T) {
	saved := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/uploads":
			http.Error(w, "storage down", http.StatusBadGateway)
		case r.URL.Path == "/orientations/9" && r.Method == http.MethodPut:
			saved = true
			var f Flyer
			json.NewDecoder(r.Body).Decode(&f)
			if len(f.ExportedFiles) != 0 {
				t.Errorf("failed upload must not add a reference: %+v", f.ExportedFiles)
			}
			w.WriteHeader(http.StatusOK)
		default:
			t.Errorf("unexpected call %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	doc := domain.New()
	c := NewClient(srv.URL, "")
	res, err := c.SaveWithExport(context.Background(), newTestRenderer(t), doc, nil, nil, SaveOptions{FlyerID: 9})
	if err != nil {
		t.Fatalf("save must not fail on upload error: %v", err)
	}
	if !saved {
		t.Fatalf("document was not saved after upload failure")
	}
	if !res.Degraded || res.Remote != "" {
		t.Fatalf("result should be degraded: %+v", res)
	}
	if len(doc.Exported) != 0 {
		t.Fatalf("export history mutated on failed upload: %v", doc.Exported)
	}
}
