// Package loc counts source lines per language. It classifies every line of
// a file as code, comment or blank, and aggregates counts across files.
package loc

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Pseudo-languages for files that carry no countable source.
const (
	LanguageUnknown = "__unknown__"
	LanguageBinary  = "__binary__"
	LanguageEmpty   = "__empty__"
)

const binarySniffLen = 8192

// syntax describes how comments are written in a language.
type syntax struct {
	lineMarkers []string
	blockStart  string
	blockEnd    string
}

// language maps a file extension to a language name and comment syntax.
type language struct {
	name string
	syntax
}

var languagesByExt = map[string]language{
	".py":   {"Python", syntax{lineMarkers: []string{"#"}}},
	".xml":  {"XML", syntax{blockStart: "<!--", blockEnd: "-->"}},
	".html": {"HTML", syntax{blockStart: "<!--", blockEnd: "-->"}},
	".css":  {"CSS", syntax{blockStart: "/*", blockEnd: "*/"}},
	".scss": {"SCSS", syntax{lineMarkers: []string{"//"}, blockStart: "/*", blockEnd: "*/"}},
	".less": {"LESS", syntax{lineMarkers: []string{"//"}, blockStart: "/*", blockEnd: "*/"}},
	".js":   {"JavaScript", syntax{lineMarkers: []string{"//"}, blockStart: "/*", blockEnd: "*/"}},
	".mjs":  {"JavaScript", syntax{lineMarkers: []string{"//"}, blockStart: "/*", blockEnd: "*/"}},
	".jsx":  {"JavaScript", syntax{lineMarkers: []string{"//"}, blockStart: "/*", blockEnd: "*/"}},
	".ts":   {"TypeScript", syntax{lineMarkers: []string{"//"}, blockStart: "/*", blockEnd: "*/"}},
	".yml":  {"YAML", syntax{lineMarkers: []string{"#"}}},
	".yaml": {"YAML", syntax{lineMarkers: []string{"#"}}},
	".po":   {"PO", syntax{lineMarkers: []string{"#"}}},
	".pot":  {"PO", syntax{lineMarkers: []string{"#"}}},
	".sh":   {"Shell", syntax{lineMarkers: []string{"#"}}},
	".sql":  {"SQL", syntax{lineMarkers: []string{"--"}, blockStart: "/*", blockEnd: "*/"}},
	".csv":  {"CSV", syntax{}},
	".json": {"JSON", syntax{}},
	".md":   {"Markdown", syntax{}},
	".rst":  {"reStructuredText", syntax{}},
}

// FileAnalysis holds per-file line counts.
type FileAnalysis struct {
	Path     string
	Language string
	Code     int
	Comment  int
	Blank    int
}

// AnalyzeFile reads and counts a single source file.
func AnalyzeFile(fsys afero.Fs, path string) (FileAnalysis, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return FileAnalysis{}, fmt.Errorf("read %s: %w", path, err)
	}
	return AnalyzeBytes(path, data), nil
}

// AnalyzeBytes counts the given file content. Binary and empty files are
// tagged with pseudo-languages and carry zero counts.
func AnalyzeBytes(path string, data []byte) FileAnalysis {
	fa := FileAnalysis{Path: path}

	if len(data) == 0 {
		fa.Language = LanguageEmpty
		return fa
	}
	sniff := data
	if len(sniff) > binarySniffLen {
		sniff = sniff[:binarySniffLen]
	}
	if bytes.IndexByte(sniff, 0) >= 0 {
		fa.Language = LanguageBinary
		return fa
	}

	lang, ok := languagesByExt[strings.ToLower(filepath.Ext(path))]
	if !ok {
		lang = language{name: LanguageUnknown}
	}
	fa.Language = lang.name

	inBlock := false
	for line := range strings.Lines(string(data)) {
		kind, nowInBlock := classifyLine(strings.TrimSpace(strings.TrimRight(line, "\n")), lang.syntax, inBlock)
		inBlock = nowInBlock
		switch kind {
		case lineBlank:
			fa.Blank++
		case lineComment:
			fa.Comment++
		default:
			fa.Code++
		}
	}
	return fa
}

type lineKind int

const (
	lineCode lineKind = iota
	lineComment
	lineBlank
)

// classifyLine decides what a trimmed line counts as. Comment markers inside
// string literals are not recognized; that imprecision is shared with every
// line-based counter.
func classifyLine(trimmed string, syn syntax, inBlock bool) (lineKind, bool) {
	if trimmed == "" {
		return lineBlank, inBlock
	}

	if inBlock {
		end := strings.Index(trimmed, syn.blockEnd)
		if end < 0 {
			return lineComment, true
		}
		rest := strings.TrimSpace(trimmed[end+len(syn.blockEnd):])
		if rest == "" {
			return lineComment, false
		}
		// Code follows the closing marker; reclassify the remainder.
		return classifyLine(rest, syn, false)
	}

	for _, marker := range syn.lineMarkers {
		if strings.HasPrefix(trimmed, marker) {
			return lineComment, false
		}
	}

	if syn.blockStart != "" && strings.HasPrefix(trimmed, syn.blockStart) {
		inner := trimmed[len(syn.blockStart):]
		end := strings.Index(inner, syn.blockEnd)
		if end < 0 {
			return lineComment, true
		}
		rest := strings.TrimSpace(inner[end+len(syn.blockEnd):])
		if rest == "" {
			return lineComment, false
		}
		return classifyLine(rest, syn, false)
	}

	// Code line; it may still open a block comment partway through.
	if syn.blockStart != "" {
		if start := strings.LastIndex(trimmed, syn.blockStart); start >= 0 {
			if !strings.Contains(trimmed[start+len(syn.blockStart):], syn.blockEnd) {
				return lineCode, true
			}
		}
	}
	return lineCode, false
}
