package engine

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/anatolykoptev/go_podcast/internal/engine/catalog"
)

const exportSheet = "Podcasts"

// exportHeaders are the spreadsheet column titles, in column order.
var exportHeaders = []string{
	"Title", "Podcast", "Category", "Description",
	"Duration (min)", "Release Date", "Added", "URL", "Playlist", "Processed",
}

// ExportCatalog writes the catalog to path, picking the format from the
// extension: .csv for CSV, anything else Excel. An empty path gets a
// timestamped .xlsx name in the working directory. Empty playlistID
// exports everything. Returns the written path and row count.
func ExportCatalog(ctx context.Context, path, playlistID string) (string, int, error) {
	eps, err := cfg.Store.ListEpisodes(ctx, playlistID)
	if err != nil {
		return "", 0, fmt.Errorf("export: load catalog: %w", err)
	}

	if path == "" {
		path = fmt.Sprintf("podcasts_%s.xlsx", time.Now().Format("20060102_150405"))
	}

	if strings.EqualFold(filepath.Ext(path), ".csv") {
		err = writeCSV(path, eps)
	} else {
		err = writeXLSX(path, eps)
	}
	if err != nil {
		return "", 0, err
	}

	metrics.ExportRuns.Add(1)
	slog.Info("catalog exported", slog.String("path", path), slog.Int("episodes", len(eps)))
	return path, len(eps), nil
}

func exportRow(ep catalog.Episode) []any {
	added := ""
	if !ep.AddedAt.IsZero() {
		added = ep.AddedAt.Format("2006-01-02")
	}
	processed := ""
	if !ep.ProcessedAt.IsZero() {
		processed = ep.ProcessedAt.Format("2006-01-02")
	}
	return []any{
		ep.Title, ep.ShowName, ep.Category, ep.Description,
		ep.DurationMS / 60000, ep.ReleaseDate, added, ep.URL, ep.PlaylistID, processed,
	}
}

func writeXLSX(path string, eps []catalog.Episode) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return fmt.Errorf("export: %w", err)
	}

	widths := make([]int, len(exportHeaders))
	setCell := func(col, row int, v any) error {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if n := len([]rune(fmt.Sprint(v))); n > widths[col] {
			widths[col] = n
		}
		return f.SetCellValue(exportSheet, cell, v)
	}

	for i, h := range exportHeaders {
		if err := setCell(i, 1, h); err != nil {
			return fmt.Errorf("export: %w", err)
		}
	}
	for r, ep := range eps {
		for c, v := range exportRow(ep) {
			if err := setCell(c, r+2, v); err != nil {
				return fmt.Errorf("export: %w", err)
			}
		}
	}

	// Fit columns to content, capped so descriptions stay readable.
	for i := range exportHeaders {
		w := float64(widths[i]) + 2
		if w > 50 {
			w = 50
		}
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}
		if err := f.SetColWidth(exportSheet, col, col, w); err != nil {
			return fmt.Errorf("export: %w", err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("export: save %s: %w", path, err)
	}
	return nil
}

func writeCSV(path string, eps []catalog.Episode) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	defer out.Close()

	w := csv.NewWriter(out)
	if err := w.Write(exportHeaders); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	for _, ep := range eps {
		row := exportRow(ep)
		rec := make([]string, len(row))
		for i, v := range row {
			rec[i] = fmt.Sprint(v)
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("export: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return nil
}
