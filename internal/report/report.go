// Package report renders repository analyses as JSON, YAML or a styled
// terminal table.
package report

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/camptocamp/odoo-addons-analyzer/internal/analyze"
)

// Format selects an output encoding.
type Format string

// Supported output formats.
const (
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatTable Format = "table"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatJSON, FormatYAML, FormatTable:
		return Format(s), nil
	case "":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want json, yaml or table)", s)
	}
}

// Write renders the repository report to w in the requested format.
func Write(w io.Writer, repo *analyze.Repository, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(repo.Report()); err != nil {
			return fmt.Errorf("encode json report: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		if err := enc.Encode(repo.Report()); err != nil {
			return fmt.Errorf("encode yaml report: %w", err)
		}
		return nil
	case FormatTable:
		_, err := io.WriteString(w, Table(repo, TerminalWidth()))
		return err
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// WriteModels renders only the model declarations of the repository.
func WriteModels(w io.Writer, repo *analyze.Repository, format Format) error {
	if format == FormatTable {
		_, err := io.WriteString(w, NewListRenderer().Models(repo))
		return err
	}

	out := map[string]any{}
	for name, mod := range repo.Modules {
		if len(mod.Models) > 0 {
			out[name] = mod.Models
		}
	}
	if format == FormatYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("encode yaml models: %w", err)
		}
		return nil
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode json models: %w", err)
	}
	return nil
}

// WriteModules renders the module listing: name, version and summary per
// module for table output, the full manifests for json and yaml.
func WriteModules(w io.Writer, repo *analyze.Repository, format Format) error {
	if format == FormatTable {
		_, err := io.WriteString(w, NewListRenderer().Modules(repo))
		return err
	}

	out := make(map[string]any, len(repo.Modules))
	for name, mod := range repo.Modules {
		out[name] = map[string]any(mod.Manifest)
	}
	if format == FormatYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("encode yaml modules: %w", err)
		}
		return nil
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode json modules: %w", err)
	}
	return nil
}
