/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestInitOrOpenIndexCreatesFile(t *testing.T) {
	root := t.TempDir()
	db, err := InitOrOpenIndex(root)
	if err != nil {
		t.Fatalf("open index: %v", err)
	}
	defer db.Close()
	if _, err := os.Stat(IndexPath(root)); err != nil {
		t.Fatalf("index file missing: %v", err)
	}
}

func TestExportHistoryRoundTrip(t *testing.T) {
	root := t.TempDir()
	db, err := InitOrOpenIndex(root)
	if err != nil {
		t.Fatalf("open index: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	base := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	for i, rec := range []ExportRecord{
		{SearchID: 5, Path: "/w/exports/a.jpg", Remote: "/uploads/a.jpg"},
		{SearchID: 5, Path: "/w/exports/b.jpg"}, // upload failed, still recorded
		{SearchID: 9, Path: "/w/exports/c.jpg", Remote: "/uploads/c.jpg"},
	} {
		rec.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if _, err := RecordExport(ctx, db, rec); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	got, err := ListExports(ctx, db, 5)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records for search 5, got %d", len(got))
	}
	if got[0].Remote != "/uploads/a.jpg" || got[1].Remote != "" {
		t.Fatalf("history wrong: %+v", got)
	}
	if !got[0].CreatedAt.Before(got[1].CreatedAt) {
		t.Fatalf("history not ordered: %+v", got)
	}
}

func TestIndexSurvivesReopen(t *testing.T) {
	root := t.TempDir()
	db, err := InitOrOpenIndex(root)
	if err != nil {
		t.Fatalf("open index: %v", err)
	}
	if _, err := RecordExport(context.Background(), db, ExportRecord{SearchID: 1, Path: "/x.jpg"}); err != nil {
		t.Fatalf("record: %v", err)
	}
	db.Close()

	db2, err := InitOrOpenIndex(root)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db2.Close()
	got, err := ListExports(context.Background(), db2, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("history lost on reopen: %d", len(got))
	}
}
