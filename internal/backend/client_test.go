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

	"flyerstudio/internal/domain"
)

func TestGetSearchFull(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/searches/12/full" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("auth = %q", got)
		}
		json.NewEncoder(w).Encode(SearchFull{
			ID: 12,
			Case: CaseRecord{
				MissingLastName:   "Іванов",
				MissingSettlement: "Київ",
				MissingBirthdate:  "1980-05-05",
			},
			Photos: []string{"/uploads/p.jpg"},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok")
	s, err := c.GetSearchFull(context.Background(), 12)
	if err != nil {
		t.Fatalf("get search: %v", err)
	}
	if s.Case.MissingLastName != "Іванов" || len(s.Photos) != 1 {
		t.Fatalf("search wrong: %+v", s)
	}
	cd := s.Case.CaseData()
	if cd.Settlement != "Київ" || cd.BirthDate == nil || cd.BirthDate.Year() != 1980 {
		t.Fatalf("case data conversion wrong: %+v", cd)
	}
}

func TestCaseDataUnparseableDateIsAbsent(t *testing.T) {
	cd := CaseRecord{MissingBirthdate: "не відомо"}.CaseData()
	if cd.BirthDate != nil {
		t.Fatalf("garbage date should be nil, got %v", cd.BirthDate)
	}
}

func TestCreateAndUpdateFlyer(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		var f Flyer
		if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		if f.CanvasData == nil || f.TextContent != f.CanvasData.Text.HTML {
			t.Errorf("payload incoherent: %+v", f)
		}
		f.ID = 31
		json.NewEncoder(w).Encode(f)
	}))
	defer srv.Close()

	doc := domain.New()
	doc.SearchID = 12
	doc.Text.HTML = "<div>x</div>"
	c := NewClient(srv.URL, "")

	id, err := c.CreateFlyer(context.Background(), FlyerFromDocument(doc))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if id != 31 || gotMethod != http.MethodPost || gotPath != "/orientations" {
		t.Fatalf("create wrong: id=%d %s %s", id, gotMethod, gotPath)
	}

	if err := c.UpdateFlyer(context.Background(), 31, FlyerFromDocument(doc)); err != nil {
		t.Fatalf("update: %v", err)
	}
	if gotMethod != http.MethodPut || gotPath != "/orientations/31" {
		t.Fatalf("update wrong: %s %s", gotMethod, gotPath)
	}
}

func TestListTemplates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("type"); got != "logo" {
			t.Errorf("type = %q", got)
		}
		json.NewEncoder(w).Encode([]Template{{ID: 1, Kind: "logo", FilePath: "/static/l.png"}})
	}))
	defer srv.Close()

	list, err := NewClient(srv.URL, "").ListTemplates(context.Background(), "logo")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].FilePath != "/static/l.png" {
		t.Fatalf("templates wrong: %+v", list)
	}
}

func TestUploadReturnsFirstURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		f, hdr, err := r.FormFile("files")
		if err != nil {
			t.Errorf("form file: %v", err)
		} else {
			f.Close()
		}
		if hdr != nil && hdr.Filename != "x_2026-09-01.jpg" {
			t.Errorf("filename = %q", hdr.Filename)
		}
		json.NewEncoder(w).Encode([]string{"/uploads/x_2026-09-01.jpg"})
	}))
	defer srv.Close()

	url, err := NewClient(srv.URL, "").Upload(context.Background(), "x_2026-09-01.jpg", []byte("jpegdata"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if url != "/uploads/x_2026-09-01.jpg" {
		t.Fatalf("url = %q", url)
	}
}

func TestServerErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()
	if _, err := NewClient(srv.URL, "").GetFlyer(context.Background(), 9); err == nil {
		t.Fatalf("expected error on 500")
	}
}
