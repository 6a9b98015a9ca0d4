package report

import (
	"os"
	"strconv"

	"golang.org/x/term"
)

// DefaultTableWidth is used when no terminal size can be determined, for
// example when output is piped.
const DefaultTableWidth = 120

// TerminalWidth returns the width table output should fit into. COLUMNS wins
// when set so callers can force a width in scripts; otherwise the first
// attached terminal among stdout, stderr and stdin decides.
func TerminalWidth() int {
	if cols := os.Getenv("COLUMNS"); cols != "" {
		if w, err := strconv.Atoi(cols); err == nil && w > 0 {
			return w
		}
	}

	for _, f := range []*os.File{os.Stdout, os.Stderr, os.Stdin} {
		if term.IsTerminal(int(f.Fd())) {
			if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
				return w
			}
		}
	}

	return DefaultTableWidth
}
