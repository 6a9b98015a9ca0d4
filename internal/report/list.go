package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/camptocamp/odoo-addons-analyzer/internal/analyze"
	"github.com/camptocamp/odoo-addons-analyzer/internal/shared"
)

// ListRenderer formats module and model listings for terminal output.
type ListRenderer struct {
	titleStyle  lipgloss.Style
	itemStyle   lipgloss.Style
	bulletStyle lipgloss.Style
	mutedStyle  lipgloss.Style
	bullet      string
	indent      string
}

// NewListRenderer creates a list renderer with the shared color palette.
func NewListRenderer() *ListRenderer {
	return &ListRenderer{
		titleStyle:  lipgloss.NewStyle().Bold(true).Foreground(shared.Mauve),
		itemStyle:   lipgloss.NewStyle().Foreground(shared.Text),
		bulletStyle: lipgloss.NewStyle().Foreground(shared.Cyan),
		mutedStyle:  shared.MutedStyle,
		bullet:      "•",
		indent:      "  ",
	}
}

// Modules renders one line per addon module: name, version and summary from
// the manifest, the module path, and a marker for uninstallable addons.
// Modules without a manifest name fall back to the directory name already
// carried by the analysis.
func (l *ListRenderer) Modules(repo *analyze.Repository) string {
	var sb strings.Builder

	title := fmt.Sprintf("%s (%d modules)", repo.Name, len(repo.Modules))
	sb.WriteString(l.titleStyle.Render(title))
	sb.WriteString("\n")

	for _, name := range repo.ModuleNames() {
		mod := repo.Modules[name]
		sb.WriteString(l.indent)
		sb.WriteString(l.bulletStyle.Render(l.bullet))
		sb.WriteString(" ")
		sb.WriteString(l.itemStyle.Render(name))
		if v := mod.Manifest.Version(); v != "" {
			sb.WriteString(" ")
			sb.WriteString(l.mutedStyle.Render(v))
		}
		if s := mod.Manifest.Summary(); s != "" {
			sb.WriteString(l.mutedStyle.Render(" · " + s))
		}
		if mod.Path != "" {
			sb.WriteString(l.mutedStyle.Render(" (" + mod.Path + ")"))
		}
		if !mod.Manifest.Installable() {
			sb.WriteString(" ")
			sb.WriteString(shared.WarningStyle.Render("[not installable]"))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// Models renders models grouped per module. Each entry shows the model key
// with its field and method counts.
func (l *ListRenderer) Models(repo *analyze.Repository) string {
	var sb strings.Builder

	for _, name := range repo.ModuleNames() {
		mod := repo.Modules[name]
		if len(mod.Models) == 0 {
			continue
		}

		sb.WriteString(l.titleStyle.Render(name))
		sb.WriteString("\n")

		keys := make([]string, 0, len(mod.Models))
		for key := range mod.Models {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			model := mod.Models[key]
			sb.WriteString(l.indent)
			sb.WriteString(l.bulletStyle.Render(key))
			sb.WriteString("\n")
			sb.WriteString(l.indent)
			sb.WriteString(l.indent)
			detail := fmt.Sprintf("%d fields, %d methods", len(model.Fields), len(model.Methods))
			if model.Name != "" {
				detail = model.Name + ": " + detail
			}
			sb.WriteString(l.mutedStyle.Render(detail))
			sb.WriteString("\n")
		}
	}

	if sb.Len() == 0 {
		return l.mutedStyle.Render("no models found") + "\n"
	}
	return sb.String()
}

// Stats renders key/value repository statistics with aligned keys.
func (l *ListRenderer) Stats(title string, items map[string]string) string {
	var sb strings.Builder

	if title != "" {
		sb.WriteString(l.titleStyle.Render(title))
		sb.WriteString("\n")
	}

	keys := make([]string, 0, len(items))
	maxKeyLen := 0
	for key := range items {
		keys = append(keys, key)
		if len(key) > maxKeyLen {
			maxKeyLen = len(key)
		}
	}
	sort.Strings(keys)

	for _, key := range keys {
		sb.WriteString(l.indent)
		sb.WriteString(l.bulletStyle.Render(fmt.Sprintf("%-*s", maxKeyLen, key)))
		sb.WriteString(": ")
		sb.WriteString(l.itemStyle.Render(items[key]))
		sb.WriteString("\n")
	}

	return sb.String()
}
