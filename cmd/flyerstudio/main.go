/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"flyerstudio/internal/assets"
	"flyerstudio/internal/backend"
	"flyerstudio/internal/compose"
	"flyerstudio/internal/config"
	"flyerstudio/internal/crash"
	"flyerstudio/internal/domain"
	"flyerstudio/internal/export"
	applog "flyerstudio/internal/log"
	"flyerstudio/internal/raster"
	"flyerstudio/internal/storage"
	"flyerstudio/internal/telemetry"
	"flyerstudio/internal/version"
)

func usage() {
	fmt.Println("Flyer Studio — orientation flyer compositor")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  flyerstudio version|-v|--version            Show version")
	fmt.Println("  flyerstudio init <dir>                       Create a new flyer workspace at <dir>")
	fmt.Println("  flyerstudio open <dir>                       Open workspace at <dir> and print summary")
	fmt.Println("  flyerstudio save <dir>                       Save document at <dir> (creates backup)")
	fmt.Println("  flyerstudio autofill <dir> <searchId>        Fill the text block from a search's case data")
	fmt.Println("  flyerstudio render <dir>                     Rasterize the flyer to exports/ as JPEG")
	fmt.Println("  flyerstudio pdf <dir>                        Rasterize the flyer to exports/ as PDF")
	fmt.Println("  flyerstudio publish <dir> [flyerId]          Export, upload and save the flyer record")
	fmt.Println("  flyerstudio history <dir>                    List recorded exports of this workspace")
}

func main() {
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("cli")
	var h *storage.Handle
	defer func() { crash.Recover(h) }()

	args := os.Args
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) < 2 {
		usage()
		return
	}

	cfg, token, _ := config.Load()
	if cfg.General.TelemetryOptIn {
		telemetry.InitDefault()
	}
	ctx := context.Background()

	switch args[1] {
	case "version", "--version", "-v":
		fmt.Println("Flyer Studio — orientation flyer compositor")
		fmt.Println(version.String())
		return
	case "init":
		abs := mustDir(args, 2, "init")
		l.Info("init workspace", slog.String("root", abs))
		nh, err := storage.Init(abs, domain.New())
		if err != nil {
			fail(l, "init failed", err)
		}
		h = nh
		fmt.Println("Created flyer workspace at", abs)
	case "open":
		abs := mustDir(args, 2, "open")
		h = openWorkspace(l, abs)
		fmt.Println("Opened flyer workspace:", h.Root)
		fmt.Printf("Layers: %d\n", h.Doc.LayerCount())
		fmt.Printf("Search: %d\n", h.Doc.SearchID)
		if h.Doc.Blur.Enabled {
			fmt.Printf("Blur: %dpx\n", h.Doc.Blur.AmountPx)
		}
	case "save":
		abs := mustDir(args, 2, "save")
		h = openWorkspace(l, abs)
		if err := storage.Save(h); err != nil {
			fail(l, "save failed", err)
		}
		fmt.Println("Saved document and backed up the previous revision (if any).")
	case "autofill":
		if len(args) < 4 {
			fmt.Println("autofill requires <dir> and <searchId>")
			usage()
			os.Exit(2)
		}
		abs, _ := filepath.Abs(args[2])
		searchID, err := strconv.ParseInt(args[3], 10, 64)
		if err != nil {
			fail(l, "bad search id", err)
		}
		h = openWorkspace(l, abs)
		c := backend.NewClient(cfg.Backend.BaseURL, token)
		s, err := c.GetSearchFull(ctx, searchID)
		if err != nil {
			fail(l, "fetch search failed", err)
		}
		h.Doc.SearchID = s.ID
		if compose.Apply(h.Doc, s.Case.CaseData(), time.Now()) {
			fmt.Println("Text block filled from case data.")
		} else {
			fmt.Println("Text block already has content; left unchanged.")
		}
		if err := storage.Save(h); err != nil {
			fail(l, "save failed", err)
		}
	case "render", "pdf":
		abs := mustDir(args, 2, args[1])
		h = openWorkspace(l, abs)
		data, name := renderFlyer(ctx, l, cfg, token, h)
		edir := h.ExportsDir()
		var path string
		var err error
		if args[1] == "pdf" {
			path, err = export.WritePDF(edir, name[:len(name)-len(".jpg")]+".pdf", data)
		} else {
			path, err = export.WriteJPEG(edir, name, data)
		}
		if err != nil {
			fail(l, "write export failed", err)
		}
		recordExport(ctx, l, h, path, "")
		telemetry.Exported(args[1])
		fmt.Println("Exported", path)
	case "publish":
		abs := mustDir(args, 2, "publish")
		h = openWorkspace(l, abs)
		var flyerID int64
		if len(args) >= 4 {
			id, err := strconv.ParseInt(args[3], 10, 64)
			if err != nil {
				fail(l, "bad flyer id", err)
			}
			flyerID = id
		}
		c := backend.NewClient(cfg.Backend.BaseURL, token)
		r, err := raster.New()
		if err != nil {
			fail(l, "renderer init failed", err)
		}
		images := loadImages(ctx, cfg, token, h.Doc)
		res, err := c.SaveWithExport(ctx, r, h.Doc, nil, images, backend.SaveOptions{FlyerID: flyerID})
		if res != nil && res.JPEG != nil {
			// keep a local copy regardless of what the backend did
			if path, werr := export.WriteJPEG(h.ExportsDir(), res.Filename, res.JPEG); werr == nil {
				recordExport(ctx, l, h, path, res.Remote)
			}
		}
		if err != nil {
			fail(l, "publish failed", err)
		}
		if serr := storage.Save(h); serr != nil {
			fail(l, "save failed", serr)
		}
		telemetry.Published(res.Degraded)
		if res.Degraded {
			fmt.Println("Published flyer record", res.FlyerID, "(image upload failed, saved without new reference)")
		} else {
			fmt.Println("Published flyer record", res.FlyerID, "with image", res.Remote)
		}
	case "history":
		abs := mustDir(args, 2, "history")
		h = openWorkspace(l, abs)
		db, err := storage.InitOrOpenIndex(h.Root)
		if err != nil {
			fail(l, "open export index failed", err)
		}
		defer db.Close()
		recs, err := storage.ListExports(ctx, db, h.Doc.SearchID)
		if err != nil {
			fail(l, "list exports failed", err)
		}
		if len(recs) == 0 {
			fmt.Println("No exports recorded.")
			return
		}
		for _, rec := range recs {
			remote := rec.Remote
			if remote == "" {
				remote = "(not uploaded)"
			}
			fmt.Printf("%s  %s  %s\n", rec.CreatedAt.Local().Format(time.RFC3339), rec.Path, remote)
		}
	default:
		usage()
	}
}

func mustDir(args []string, i int, cmd string) string {
	if len(args) <= i {
		fmt.Printf("%s requires <dir>\n", cmd)
		usage()
		os.Exit(2)
	}
	abs, _ := filepath.Abs(args[i])
	return abs
}

func openWorkspace(l *slog.Logger, abs string) *storage.Handle {
	l.Info("open workspace", slog.String("root", abs))
	h, err := storage.Open(abs)
	if err != nil {
		fail(l, "open failed", err)
	}
	return h
}

func renderFlyer(ctx context.Context, l *slog.Logger, cfg config.AppConfig, token string, h *storage.Handle) ([]byte, string) {
	r, err := raster.New()
	if err != nil {
		fail(l, "renderer init failed", err)
	}
	images := loadImages(ctx, cfg, token, h.Doc)
	data, err := r.Export(h.Doc, nil, images)
	if err != nil {
		fail(l, "rasterize failed", err)
	}
	return data, export.Filename("", time.Now())
}

func loadImages(ctx context.Context, cfg config.AppConfig, token string, doc *domain.Document) map[string]image.Image {
	cache := assets.NewCache(assets.NewHTTPFetcher(cfg.Backend.BaseURL, token))
	return cache.LoadAll(ctx, doc.ImageRefs())
}

func recordExport(ctx context.Context, l *slog.Logger, h *storage.Handle, path, remote string) {
	db, err := storage.InitOrOpenIndex(h.Root)
	if err != nil {
		l.Warn("export index unavailable", slog.Any("err", err))
		return
	}
	defer db.Close()
	if _, err := storage.RecordExport(ctx, db, storage.ExportRecord{
		SearchID: h.Doc.SearchID,
		Path:     path,
		Remote:   remote,
	}); err != nil {
		l.Warn("record export failed", slog.Any("err", err))
	}
}

func fail(l *slog.Logger, msg string, err error) {
	l.Error(msg, slog.Any("err", err))
	fmt.Println("Error:", err)
	os.Exit(1)
}
