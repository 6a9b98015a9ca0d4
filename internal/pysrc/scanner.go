package pysrc

import "strings"

// logicalLine is a Python logical line: physical lines joined while a
// bracket pair, a triple-quoted string or a trailing backslash keeps the
// statement open. Comments are stripped.
type logicalLine struct {
	indent int // leading spaces of the first physical line, tabs as 8
	text   string
	num    int // 1-based first physical line number
}

// logicalLines splits Python source into logical lines. It tracks string
// and bracket state so brackets inside strings and comments never join
// lines, and docstrings spanning many physical lines stay one entry.
func logicalLines(src string) []logicalLine {
	var out []logicalLine

	var sb strings.Builder
	depth := 0
	line := 1
	startLine := 1
	indent := -1
	continued := false

	var quote byte
	triple := false
	inString := false

	flush := func() {
		text := strings.TrimRight(sb.String(), " \t")
		if strings.TrimSpace(text) != "" {
			out = append(out, logicalLine{indent: indent, text: text, num: startLine})
		}
		sb.Reset()
		indent = -1
	}

	i := 0
	for i < len(src) {
		c := src[i]

		if inString {
			sb.WriteByte(c)
			if c == '\n' {
				line++
			}
			switch {
			case c == '\\' && i+1 < len(src):
				sb.WriteByte(src[i+1])
				if src[i+1] == '\n' {
					line++
				}
				i += 2
				continue
			case c == quote && triple && strings.HasPrefix(src[i:], strings.Repeat(string(quote), 3)):
				sb.WriteString(src[i+1 : i+3])
				i += 3
				inString = false
				continue
			case c == quote && !triple:
				inString = false
			case c == '\n' && !triple:
				// Unterminated single-quoted string; recover.
				inString = false
			}
			i++
			continue
		}

		if indent == -1 && c != ' ' && c != '\t' && c != '\n' && c != '#' {
			indent = measureIndent(sb.String())
			startLine = line
		}

		switch c {
		case '#':
			for i < len(src) && src[i] != '\n' {
				i++
			}
			continue
		case '\'', '"':
			inString = true
			quote = c
			triple = strings.HasPrefix(src[i:], strings.Repeat(string(c), 3))
			if triple {
				sb.WriteString(src[i : i+3])
				i += 3
			} else {
				sb.WriteByte(c)
				i++
			}
			continue
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			if depth > 0 {
				depth--
			}
		case '\\':
			if i+1 < len(src) && src[i+1] == '\n' {
				continued = true
				sb.WriteByte(' ')
				line++
				i += 2
				continue
			}
		case '\n':
			line++
			if depth > 0 || continued {
				continued = false
				sb.WriteByte(' ')
				i++
				continue
			}
			flush()
			i++
			continue
		}

		sb.WriteByte(c)
		i++
	}
	flush()
	return out
}

func measureIndent(prefix string) int {
	n := 0
	for _, c := range prefix {
		switch c {
		case ' ':
			n++
		case '\t':
			n += 8
		}
	}
	return n
}
