/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export writes rendered flyers to disk, as plain JPEG files and as
// single-page PDF wrappers for printing.
package export

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"flyerstudio/internal/domain"
)

// Filename builds the canonical export name: <lastname>_<yyyy-mm-dd>.jpg.
// An empty last name falls back to "flyer".
func Filename(lastName string, when time.Time) string {
	name := sanitize(lastName)
	if name == "" {
		name = "flyer"
	}
	return fmt.Sprintf("%s_%s.jpg", name, when.Format("2006-01-02"))
}

// sanitize strips path separators and whitespace from a name component.
func sanitize(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return -1
		case ' ':
			return '_'
		}
		return r
	}, s)
	return s
}

// WriteJPEG writes encoded flyer bytes under dir, creating it if needed, and
// returns the full path.
func WriteJPEG(dir, filename string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("ensure export dir: %w", err)
	}
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write jpeg: %w", err)
	}
	return path, nil
}

// WritePDF wraps an exported flyer JPEG in a single PDF page of exactly the
// canvas size, for direct printing.
func WritePDF(dir, filename string, jpegData []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("ensure export dir: %w", err)
	}
	path := filepath.Join(dir, filename)

	// points, 1:1 with logical canvas units
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: domain.CanvasWidth, Ht: domain.CanvasHeight},
		OrientationStr: "",
	})
	pdf.SetTitle("Орієнтування", true)
	pdf.AddPageFormat("", gofpdf.SizeType{Wd: domain.CanvasWidth, Ht: domain.CanvasHeight})

	opts := gofpdf.ImageOptions{ImageType: "JPG"}
	pdf.RegisterImageOptionsReader("flyer", opts, bytes.NewReader(jpegData))
	pdf.ImageOptions("flyer", 0, 0, domain.CanvasWidth, domain.CanvasHeight, false, opts, 0, "")

	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("write pdf: %w", err)
	}
	return path, nil
}
