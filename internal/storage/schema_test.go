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
	"testing"

	gojsonschema "github.com/xeipuuv/gojsonschema"

	"flyerstudio/internal/domain"
)

func TestStoredDocumentConformsToSchema(t *testing.T) {
	root := t.TempDir()
	doc := domain.New()
	doc.SearchID = 4
	doc.Template = &domain.TemplateLayer{TemplateID: 2, ImageRef: "/tpl.png", Rect: domain.DefaultTemplateRect()}
	doc.Photos = []domain.PhotoLayer{{ImageRef: "/p.jpg", Rect: domain.Rect{X: 50, Y: 50, Width: 200, Height: 200}}}
	doc.Dates = []domain.DateLayer{{Text: "01.09.2026р.", Color: "#000000", Rect: domain.Rect{X: 50, Y: 50, Width: 200, Height: 50}}}
	doc.Exported = []string{"/uploads/a.jpg"}

	h, err := Init(root, doc)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	data, err := os.ReadFile(h.DocPath)
	if err != nil {
		t.Fatalf("read document: %v", err)
	}

	schemaBytes, err := os.ReadFile(filepath.Join("..", "..", "docs", "flyer.schema.json"))
	if err != nil {
		t.Fatalf("read schema: %v", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaBytes),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		t.Fatalf("schema validate error: %v", err)
	}
	if !result.Valid() {
		for _, e := range result.Errors() {
			t.Logf("schema error: %s", e)
		}
		t.Fatalf("stored document does not conform to schema")
	}
}
