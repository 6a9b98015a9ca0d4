package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/camptocamp/odoo-addons-analyzer/internal/analyze"
	"github.com/camptocamp/odoo-addons-analyzer/internal/shared"
)

// Table renders one row per module with per-language code counts, model and
// file counts, plus a totals row. Columns are padded with go-runewidth so
// non-ASCII module names stay aligned; the module column is truncated when
// the table would overflow maxWidth.
func Table(repo *analyze.Repository, maxWidth int) string {
	names := repo.ModuleNames()
	if len(names) == 0 {
		return shared.MutedStyle.Render("no addon modules found") + "\n"
	}

	langs := languageColumns(repo, names)
	header := append([]string{"Module"}, langs...)
	header = append(header, "Models", "Files")

	rows := make([][]string, 0, len(names)+1)
	for _, name := range names {
		mod := repo.Modules[name]
		row := []string{name}
		for _, lang := range langs {
			row = append(row, strconv.Itoa(mod.Code[lang]))
		}
		row = append(row, strconv.Itoa(len(mod.Models)), strconv.Itoa(mod.Files))
		rows = append(rows, row)
	}

	totals := repo.TotalCode()
	totalRow := []string{fmt.Sprintf("Total (%d modules)", len(names))}
	totalModels, totalFiles := 0, 0
	for _, name := range names {
		totalModels += len(repo.Modules[name].Models)
		totalFiles += repo.Modules[name].Files
	}
	for _, lang := range langs {
		totalRow = append(totalRow, strconv.Itoa(totals[lang]))
	}
	totalRow = append(totalRow, strconv.Itoa(totalModels), strconv.Itoa(totalFiles))

	widths := columnWidths(header, append(rows, totalRow), maxWidth)

	var sb strings.Builder
	writeRow(&sb, header, widths, shared.HeaderStyle)
	writeSeparator(&sb, widths)
	for _, row := range rows {
		writeRow(&sb, row, widths, shared.CellStyle)
	}
	writeSeparator(&sb, widths)
	writeRow(&sb, totalRow, widths, shared.TotalStyle)
	return sb.String()
}

// languageColumns returns the language buckets present in the report, in
// stable order.
func languageColumns(repo *analyze.Repository, names []string) []string {
	for _, name := range names {
		// All modules share the configured buckets; any module serves.
		return analyze.LanguageOrder(repo.Modules[name].Code)
	}
	return nil
}

const (
	columnGap      = 2
	minModuleWidth = 12
)

// columnWidths sizes every column to its longest cell, then shrinks the
// module column if the table overflows maxWidth.
func columnWidths(header []string, rows [][]string, maxWidth int) []int {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	if maxWidth <= 0 {
		return widths
	}
	total := columnGap * (len(widths) - 1)
	for _, w := range widths {
		total += w
	}
	if total > maxWidth {
		shrink := total - maxWidth
		if widths[0]-shrink < minModuleWidth {
			shrink = widths[0] - minModuleWidth
		}
		if shrink > 0 {
			widths[0] -= shrink
		}
	}
	return widths
}

func writeRow(sb *strings.Builder, row []string, widths []int, style lipgloss.Style) {
	parts := make([]string, len(row))
	for i, cell := range row {
		if runewidth.StringWidth(cell) > widths[i] {
			cell = runewidth.Truncate(cell, widths[i], "…")
		}
		if i == 0 {
			parts[i] = runewidth.FillRight(cell, widths[i])
		} else {
			parts[i] = runewidth.FillLeft(cell, widths[i])
		}
	}
	sb.WriteString(style.Render(strings.Join(parts, strings.Repeat(" ", columnGap))))
	sb.WriteString("\n")
}

func writeSeparator(sb *strings.Builder, widths []int) {
	total := columnGap * (len(widths) - 1)
	for _, w := range widths {
		total += w
	}
	sb.WriteString(shared.MutedStyle.Render(strings.Repeat("─", total)))
	sb.WriteString("\n")
}
