package main

import (
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"media-organizer/internal/config"
	"media-organizer/internal/manifest"
	"media-organizer/internal/organizer"
)

// renderReport formats the end-of-run summary.
func renderReport(stats *organizer.Stats, cfg *config.Config) string {
	rows := [][]string{
		{"Processed", strconv.Itoa(stats.Processed)},
		{"  with sidecar JSON", strconv.Itoa(stats.ProcessedWithJSON)},
		{"  without sidecar JSON", strconv.Itoa(stats.ProcessedWithoutJSON)},
		{"Photos", strconv.Itoa(stats.Photos)},
		{"Videos", strconv.Itoa(stats.Videos)},
		{"Renamed on collision", strconv.Itoa(stats.Renamed)},
		{"Skipped directories", strconv.Itoa(stats.SkippedDirectories)},
		{"Errors", strconv.Itoa(stats.Errors)},
	}
	if cfg.CleanupEmptyDirs && !cfg.DryRun {
		rows = append(rows, []string{"Empty folders removed", strconv.Itoa(stats.RemovedDirectories)})
	}
	if cfg.Manifest && !cfg.DryRun {
		rows = append(rows, []string{"Manifest rows added", strconv.Itoa(stats.ManifestRows)})
	}

	title := "Summary"
	if cfg.DryRun {
		title = "[DRY RUN] Summary"
	}

	var b strings.Builder
	b.WriteString(renderTable(title, []string{"Result", "Count"}, rows))
	b.WriteString("\n")
	b.WriteString("Target: " + cfg.TargetDir + "\n")
	if cfg.Manifest && !cfg.DryRun && stats.ManifestRows > 0 {
		b.WriteString("Manifest: " + manifest.Path(cfg.TargetDir) + "\n")
	}
	return b.String()
}

func renderTable(title string, headers []string, rows [][]string) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle(title)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	// Counts are right-aligned.
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})

	return tw.Render()
}
