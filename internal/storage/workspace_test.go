/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"flyerstudio/internal/domain"
)

func TestInitOpenRoundTrip(t *testing.T) {
	root := t.TempDir()
	doc := domain.New()
	doc.SearchID = 7
	doc.City.Text = "Київ"
	doc.Photos = []domain.PhotoLayer{{ImageRef: "/p.jpg", Rect: domain.Rect{X: 50, Y: 50, Width: 200, Height: 200}}}

	if _, err := Init(root, doc); err != nil {
		t.Fatalf("init: %v", err)
	}
	for _, d := range []string{ExportsDirName, BackupsDirName} {
		if fi, err := os.Stat(filepath.Join(root, d)); err != nil || !fi.IsDir() {
			t.Fatalf("subdir %s missing: %v", d, err)
		}
	}

	h, err := Open(root)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if h.Doc.SearchID != 7 || h.Doc.City.Text != "Київ" || len(h.Doc.Photos) != 1 {
		t.Fatalf("round trip lost data: %+v", h.Doc)
	}
}

func TestInitStampsDateLabel(t *testing.T) {
	h, err := Init(t.TempDir(), domain.New())
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	got := h.Doc.DateLabel.Text
	if !strings.HasSuffix(got, "р.") {
		t.Fatalf("date label = %q", got)
	}
	if _, err := time.Parse("02.01.2006", strings.TrimSuffix(got, "р.")); err != nil {
		t.Fatalf("date label %q carries no date: %v", got, err)
	}

	// the stamped label survives a reload
	reopened, err := Open(h.Root)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.Doc.DateLabel.Text != got {
		t.Fatalf("date label lost on reload: %q", reopened.Doc.DateLabel.Text)
	}

	pre := domain.New()
	pre.DateLabel.Text = "31.12.2025р."
	h2, err := Init(t.TempDir(), pre)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if h2.Doc.DateLabel.Text != "31.12.2025р." {
		t.Fatalf("preset date label overwritten: %q", h2.Doc.DateLabel.Text)
	}
}

func TestSaveKeepsBackup(t *testing.T) {
	root := t.TempDir()
	doc := domain.New()
	h, err := Init(root, doc)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	h.Doc.Approved = true
	if err := Save(h); err != nil {
		t.Fatalf("second save: %v", err)
	}
	ents, err := os.ReadDir(filepath.Join(root, BackupsDirName))
	if err != nil {
		t.Fatalf("read backups: %v", err)
	}
	if len(ents) == 0 {
		t.Fatalf("no backup written on re-save")
	}
}

func TestOpenFallsBackToBackup(t *testing.T) {
	root := t.TempDir()
	doc := domain.New()
	doc.City.Text = "Львів"
	h, err := Init(root, doc)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := Save(h); err != nil { // creates a backup of the good manifest
		t.Fatalf("save: %v", err)
	}
	if err := os.WriteFile(h.DocPath, []byte("{corrupt"), 0o644); err != nil {
		t.Fatalf("corrupt: %v", err)
	}
	got, err := Open(root)
	if err != nil {
		t.Fatalf("open with backup: %v", err)
	}
	if got.Doc.City.Text != "Львів" {
		t.Fatalf("backup not used: %+v", got.Doc)
	}
}

func TestDecodeMergesOverDefaults(t *testing.T) {
	// a minimal payload from an older build: most fields absent
	doc, err := Decode([]byte(`{"searchId": 3, "textBlock": {"rect": {"x":0,"y":0,"width":720,"height":700}}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.SearchID != 3 {
		t.Fatalf("payload field lost: %+v", doc)
	}
	if doc.Blur.AmountPx != 5 || doc.Text.FontSize != 28 || doc.Text.Align != "center" {
		t.Fatalf("defaults not merged: %+v", doc)
	}
	if doc.CanvasW != domain.CanvasWidth || doc.CanvasH != domain.CanvasHeight {
		t.Fatalf("canvas size not pinned: %+v", doc)
	}
}

func TestNormalizeReanchorsTextBlock(t *testing.T) {
	// stored Y disagrees with the height; the height wins and Y is recomputed
	doc, err := Decode([]byte(`{"textBlock": {"rect": {"x":5,"y":100,"width":600,"height":700}}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	r := doc.Text.Rect
	if r.X != 0 || r.Width != domain.CanvasWidth {
		t.Fatalf("text block width not pinned: %+v", r)
	}
	if r.Y != domain.CanvasHeight-700 {
		t.Fatalf("text block not re-anchored: %+v", r)
	}
}

func TestNormalizeRepairsOutOfRangeValues(t *testing.T) {
	doc, err := Decode([]byte(`{"blur": {"enabled": true, "amount": 99}, "dates": [{"text":"x","rect":{"x":1,"y":2,"width":7,"height":7}}]}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.Blur.AmountPx != 5 {
		t.Fatalf("blur amount not clamped: %d", doc.Blur.AmountPx)
	}
	if doc.Dates[0].Rect.Width != domain.DateBoxWidth || doc.Dates[0].Rect.Height != domain.DateBoxHeight {
		t.Fatalf("date box not repaired: %+v", doc.Dates[0].Rect)
	}
}

func TestAutosaveCrashSnapshot(t *testing.T) {
	root := t.TempDir()
	doc := domain.New()
	doc.SearchID = 11
	path, err := AutosaveCrashSnapshot(root, doc)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	got, err := Decode(b)
	if err != nil {
		t.Fatalf("parse snapshot: %v", err)
	}
	if got.SearchID != 11 {
		t.Fatalf("snapshot lost data: %+v", got)
	}
}
