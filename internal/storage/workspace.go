/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package storage persists flyer documents in a workspace directory:
// flyer.json as the manifest, timestamped backups, an exports folder, and a
// small SQLite index of export history under .fls/. Loading is defensive:
// missing or partial fields merge over defaults instead of failing.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"flyerstudio/internal/domain"
	"flyerstudio/internal/editor"
)

const (
	DocFileName    = "flyer.json"
	BackupsDirName = "backups"
	ExportsDirName = "exports"
)

var standardSubDirs = []string{
	ExportsDirName,
	BackupsDirName,
}

// Handle tracks a flyer workspace loaded from or saved to disk.
type Handle struct {
	Root    string
	DocPath string
	Doc     *domain.Document
}

// ExportsDir returns the workspace's export target directory.
func (h *Handle) ExportsDir() string { return filepath.Join(h.Root, ExportsDirName) }

// Init creates a workspace at root, scaffolds the standard subfolders, and
// writes the document transactionally.
func Init(root string, doc *domain.Document) (*Handle, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("root path is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace root: %w", err)
	}
	for _, d := range standardSubDirs {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			return nil, fmt.Errorf("create subdir %s: %w", d, err)
		}
	}
	// a fresh flyer carries today's date on its side label; a caller that
	// preset the text keeps its value
	if doc.DateLabel.Text == "" {
		doc.DateLabel.Text = editor.FormatStampDate(time.Now())
	}
	h := &Handle{
		Root:    root,
		DocPath: filepath.Join(root, DocFileName),
		Doc:     doc,
	}
	if err := Save(h); err != nil {
		return nil, err
	}
	return h, nil
}

// Open loads a workspace. A corrupt or unreadable document falls back to the
// latest backup. Loaded documents are normalized before use.
func Open(root string) (*Handle, error) {
	dpath := filepath.Join(root, DocFileName)
	b, err := os.ReadFile(dpath)
	if err != nil {
		doc, berr := openFromLatestBackup(root)
		if berr != nil {
			return nil, fmt.Errorf("open document: %w; backup attempt: %v", err, berr)
		}
		return &Handle{Root: root, DocPath: dpath, Doc: doc}, nil
	}
	doc, uerr := Decode(b)
	if uerr != nil {
		bdoc, berr := openFromLatestBackup(root)
		if berr != nil {
			return nil, fmt.Errorf("parse document: %w; backup attempt: %v", uerr, berr)
		}
		return &Handle{Root: root, DocPath: dpath, Doc: bdoc}, nil
	}
	return &Handle{Root: root, DocPath: dpath, Doc: doc}, nil
}

// Decode merges a stored payload over a fresh default document, so fields a
// newer build added (or an older build dropped) come out with sane values,
// then normalizes the result.
func Decode(data []byte) (*domain.Document, error) {
	doc := domain.New()
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, err
	}
	Normalize(doc)
	return doc, nil
}

// Normalize repairs invariants a stored document may have lost:
// canvas size is pinned, blur amount forced into range, and the text block is
// re-anchored to the bottom edge. The bottom anchoring deliberately discards
// a stored Y that disagrees with the height; the stored height wins.
func Normalize(doc *domain.Document) {
	doc.CanvasW = domain.CanvasWidth
	doc.CanvasH = domain.CanvasHeight

	if doc.Text.Rect.Width <= 0 || doc.Text.Rect.Height <= 0 {
		doc.Text.Rect = domain.DefaultTextRect()
	}
	doc.Text.Rect.X = 0
	doc.Text.Rect.Width = domain.CanvasWidth
	if doc.Text.Rect.Height > domain.CanvasHeight {
		doc.Text.Rect.Height = domain.CanvasHeight
	}
	doc.Text.Rect.Y = domain.CanvasHeight - doc.Text.Rect.Height

	if doc.Text.FontSize <= 0 {
		doc.Text.FontSize = 28
	}
	if doc.Text.Align == "" {
		doc.Text.Align = "center"
	}
	if doc.Text.Color == "" {
		doc.Text.Color = "#000000"
	}
	if doc.Blur.AmountPx < 1 || doc.Blur.AmountPx > 20 {
		doc.Blur.AmountPx = 5
	}
	for i := range doc.Dates {
		doc.Dates[i].Rect.Width = domain.DateBoxWidth
		doc.Dates[i].Rect.Height = domain.DateBoxHeight
	}
	if doc.Template != nil {
		doc.Template.Rect.X = 0
		doc.Template.Rect.Width = domain.CanvasWidth
	}
}

// Save writes the document to disk transactionally, keeping a timestamped
// backup of the previous manifest.
func Save(h *Handle) error {
	if h == nil {
		return errors.New("nil Handle")
	}
	if h.Root == "" || h.DocPath == "" {
		return errors.New("invalid Handle: missing paths")
	}
	data, err := json.MarshalIndent(h.Doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	data = append(data, '\n')

	bdir := filepath.Join(h.Root, BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return fmt.Errorf("ensure backups dir: %w", err)
	}
	if _, statErr := os.Stat(h.DocPath); statErr == nil {
		stamp := time.Now().Format("20060102-150405")
		bpath := filepath.Join(bdir, fmt.Sprintf("%s.%s.bak", DocFileName, stamp))
		if cerr := copyFile(h.DocPath, bpath); cerr != nil {
			return fmt.Errorf("backup current document: %w", cerr)
		}
	}

	dir := filepath.Dir(h.DocPath)
	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", DocFileName, os.Getpid(), rand.Int()))
	if werr := writeFileSync(temp, data); werr != nil {
		return fmt.Errorf("write temp document: %w", werr)
	}
	if _, err := os.Stat(h.DocPath); err == nil {
		_ = os.Remove(h.DocPath)
	}
	if rerr := os.Rename(temp, h.DocPath); rerr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace document: %w", rerr)
	}
	return nil
}

// AutosaveCrashSnapshot writes the in-memory document to the backups folder
// without touching flyer.json. Used by the crash handler; best effort.
func AutosaveCrashSnapshot(root string, doc *domain.Document) (string, error) {
	bdir := filepath.Join(root, BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return "", fmt.Errorf("ensure backups dir: %w", err)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	stamp := time.Now().Format("20060102-150405")
	path := filepath.Join(bdir, fmt.Sprintf("crash-%s.json", stamp))
	if err := writeFileSync(path, data); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return path, nil
}

func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return err
	}
	return nil
}

func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	if err := df.Sync(); err != nil {
		return err
	}
	return nil
}

func openFromLatestBackup(root string) (*domain.Document, error) {
	bdir := filepath.Join(root, BackupsDirName)
	ents, err := os.ReadDir(bdir)
	if err != nil {
		return nil, fmt.Errorf("read backups dir: %w", err)
	}
	var candidates []string
	for _, e := range ents {
		name := e.Name()
		if strings.HasPrefix(name, DocFileName+".") && strings.HasSuffix(name, ".bak") {
			candidates = append(candidates, filepath.Join(bdir, name))
		}
	}
	if len(candidates) == 0 {
		return nil, errors.New("no backups found")
	}
	sort.Strings(candidates) // timestamp in name yields lexicographic order
	latest := candidates[len(candidates)-1]
	b, err := os.ReadFile(latest)
	if err != nil {
		return nil, fmt.Errorf("read latest backup: %w", err)
	}
	doc, err := Decode(b)
	if err != nil {
		return nil, fmt.Errorf("parse latest backup: %w", err)
	}
	return doc, nil
}
