// Package pysrc extracts Odoo data model declarations from Python source
// files: model type and identity (_name/_inherit/_inherits), fields and
// methods with their decorators and signatures.
package pysrc

import (
	"fmt"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/spf13/afero"

	"github.com/camptocamp/odoo-addons-analyzer/internal/pylit"
)

// baseClasses are the Odoo ORM classes a data model derives from.
var baseClasses = []string{"BaseModel", "AbstractModel", "Model", "TransientModel"}

// fieldTypes are the recognized Odoo field constructors.
var fieldTypes = []string{
	"Boolean", "Char", "Integer", "Float", "Date", "Datetime",
	"Selection", "Many2one", "One2many", "Many2many",
}

// Field is one declared field of a data model.
type Field struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"`
}

// Method is one method of a data model.
type Method struct {
	Name       string   `json:"name" yaml:"name"`
	Signature  []string `json:"signature" yaml:"signature"`
	Decorators []string `json:"decorators,omitempty" yaml:"decorators,omitempty"`
}

// Model is one Odoo data model or ORM base class declaration.
type Model struct {
	Type     string            `json:"type" yaml:"type"`
	Auto     *bool             `json:"auto,omitempty" yaml:"auto,omitempty"`
	Name     string            `json:"name,omitempty" yaml:"name,omitempty"`
	Inherit  any               `json:"inherit,omitempty" yaml:"inherit,omitempty"`
	Inherits map[string]any    `json:"inherits,omitempty" yaml:"inherits,omitempty"`
	Order    string            `json:"order,omitempty" yaml:"order,omitempty"`
	Fields   map[string]Field  `json:"fields,omitempty" yaml:"fields,omitempty"`
	Methods  map[string]Method `json:"methods,omitempty" yaml:"methods,omitempty"`
}

// File is the analysis of one Python source file.
//
// Models detected through _name/_inherit are keyed "path:ClassName" so the
// same model declared twice in one file keeps two entries; ORM base classes
// are keyed by bare class name.
type File struct {
	Path   string           `json:"path" yaml:"path"`
	Models map[string]Model `json:"models" yaml:"models"`
}

// ParseFile reads and analyzes one Python source file.
func ParseFile(fsys afero.Fs, path string) (File, error) {
	if !strings.HasSuffix(path, ".py") {
		return File{}, fmt.Errorf("%s is not a Python file", path)
	}
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return File{}, fmt.Errorf("read %s: %w", path, err)
	}
	return Parse(path, string(data)), nil
}

// Parse analyzes Python source text. Parsing is best effort: constructs the
// extractor does not understand are skipped, never fatal.
func Parse(path, src string) File {
	f := File{Path: path, Models: map[string]Model{}}
	lines := logicalLines(src)

	for i := 0; i < len(lines); i++ {
		ln := lines[i]
		if ln.indent != 0 {
			continue
		}
		name, bases, ok := parseClassHeader(ln.text)
		if !ok {
			continue
		}

		// Collect the class body: everything more indented than the header.
		body := []logicalLine{}
		j := i + 1
		for j < len(lines) && lines[j].indent > 0 {
			body = append(body, lines[j])
			j++
		}
		i = j - 1

		cls := parseClass(name, bases, body)
		switch {
		case cls.isModel():
			f.Models[filepath.ToSlash(path)+":"+name] = cls.model()
		case cls.isBaseClass():
			f.Models[name] = cls.model()
		}
	}
	return f
}

var classHeaderRe = regexp.MustCompile(`^class\s+([A-Za-z_]\w*)\s*(?:\(([^)]*)\))?\s*:`)

// parseClassHeader matches "class Name(bases):" and returns the class name
// and base expressions.
func parseClassHeader(text string) (string, []string, bool) {
	m := classHeaderRe.FindStringSubmatch(text)
	if m == nil {
		return "", nil, false
	}
	var bases []string
	for _, b := range splitTopLevel(m[2]) {
		b = strings.TrimSpace(b)
		if b != "" {
			bases = append(bases, b)
		}
	}
	return m[1], bases, true
}

// class carries everything extracted from one class body.
type class struct {
	name     string
	bases    []string
	attrName string
	inherit  any
	inherits map[string]any
	auto     *bool
	order    string
	fields   map[string]Field
	methods  map[string]Method
}

func (c *class) isModel() bool {
	return c.attrName != "" || !isEmptyValue(c.inherit)
}

func (c *class) isBaseClass() bool {
	if c.name == "BaseModel" && len(c.bases) == 0 {
		return true
	}
	if !slices.Contains(baseClasses, c.name) {
		return false
	}
	for _, b := range c.bases {
		if slices.Contains(baseClasses, lastComponent(b)) {
			return true
		}
	}
	return false
}

// model converts the extracted class into its report form.
func (c *class) model() Model {
	m := Model{
		Auto:     c.auto,
		Name:     c.attrName,
		Inherits: c.inherits,
		Order:    c.order,
	}
	if len(c.bases) > 0 {
		m.Type = lastComponent(c.bases[0])
	}
	if !isEmptyValue(c.inherit) {
		m.Inherit = c.inherit
	}
	if len(c.fields) > 0 {
		m.Fields = c.fields
	}
	if len(c.methods) > 0 {
		m.Methods = c.methods
	}
	return m
}

var (
	assignRe = regexp.MustCompile(`^([A-Za-z_]\w*)\s*=\s*(\S.*)$`)
	fieldRe  = regexp.MustCompile(`^(?:([A-Za-z_]\w*)\.)?([A-Za-z_]\w*)\s*\(`)
	defRe    = regexp.MustCompile(`^def\s+([A-Za-z_]\w*)\s*\((.*)\)\s*(?:->[^:]+)?:`)
)

func parseClass(name string, bases []string, body []logicalLine) *class {
	cls := &class{
		name:    name,
		bases:   bases,
		fields:  map[string]Field{},
		methods: map[string]Method{},
	}
	if len(body) == 0 {
		return cls
	}

	// Direct members sit at the body's minimal indent; deeper lines belong
	// to method bodies or nested classes.
	memberIndent := body[0].indent
	for _, ln := range body {
		if ln.indent < memberIndent {
			memberIndent = ln.indent
		}
	}

	var decorators []string
	for _, ln := range body {
		if ln.indent != memberIndent {
			continue
		}
		text := strings.TrimSpace(ln.text)

		if strings.HasPrefix(text, "@") {
			decorators = append(decorators, renderDecorator(text[1:]))
			continue
		}

		if m := defRe.FindStringSubmatch(text); m != nil {
			if !strings.HasPrefix(m[1], "__") {
				cls.methods[m[1]] = Method{
					Name:       m[1],
					Signature:  renderSignature(m[2]),
					Decorators: decorators,
				}
			}
			decorators = nil
			continue
		}
		decorators = nil

		if m := assignRe.FindStringSubmatch(text); m != nil {
			cls.handleAssign(m[1], strings.TrimSpace(m[2]))
		}
	}
	return cls
}

// handleAssign records a class attribute or field declaration. Attribute
// values that are not constants are ignored, matching the original behavior
// of only reading basic values.
func (cls *class) handleAssign(name, rhs string) {
	switch name {
	case "_name":
		if v, err := pylit.Parse(rhs); err == nil {
			if s, ok := v.(string); ok {
				cls.attrName = s
			}
		}
	case "_inherit":
		if v, err := pylit.Parse(rhs); err == nil {
			cls.inherit = v
		}
	case "_inherits":
		if v, err := pylit.Parse(rhs); err == nil {
			if d, ok := v.(map[string]any); ok && len(d) > 0 {
				cls.inherits = d
			}
		}
	case "_auto":
		if v, err := pylit.Parse(rhs); err == nil {
			if b, ok := v.(bool); ok {
				cls.auto = &b
			}
		}
	case "_order":
		if v, err := pylit.Parse(rhs); err == nil {
			if s, ok := v.(string); ok {
				cls.order = s
			}
		}
	default:
		m := fieldRe.FindStringSubmatch(rhs)
		if m == nil {
			return
		}
		if !slices.Contains(fieldTypes, m[2]) {
			return
		}
		cls.fields[name] = Field{Name: name, Type: m[2]}
	}
}

// renderSignature formats the positional parameters of a def, rendering
// defaulted parameters as "name=value". Keyword-only parameters, *args and
// **kwargs are excluded, as are annotations.
func renderSignature(params string) []string {
	sig := []string{}
	for _, p := range splitTopLevel(params) {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if strings.HasPrefix(p, "*") {
			// Everything from *args on is not positional.
			break
		}
		name, def, hasDef := splitDefault(p)
		if idx := strings.Index(name, ":"); idx >= 0 {
			name = strings.TrimSpace(name[:idx])
		}
		if hasDef {
			sig = append(sig, name+"="+exprString(def))
		} else {
			sig = append(sig, name)
		}
	}
	return sig
}

// renderDecorator formats a decorator expression: "model", "api.model" or
// "api.depends('partner_id', 'company_id')".
func renderDecorator(text string) string {
	text = strings.TrimSpace(text)
	open := strings.Index(text, "(")
	if open < 0 {
		return text
	}
	name := strings.TrimSpace(text[:open])
	inner := text[open+1:]
	if close := strings.LastIndex(inner, ")"); close >= 0 {
		inner = inner[:close]
	}
	var rendered []string
	for _, arg := range splitTopLevel(inner) {
		arg = strings.TrimSpace(arg)
		if arg == "" {
			continue
		}
		if k, v, ok := splitKwarg(arg); ok {
			rendered = append(rendered, k+"="+exprString(v))
		} else {
			rendered = append(rendered, exprString(arg))
		}
	}
	return fmt.Sprintf("%s(%s)", name, strings.Join(rendered, ", "))
}

var identRe = regexp.MustCompile(`^[A-Za-z_][\w.]*$`)
var callRe = regexp.MustCompile(`^[A-Za-z_][\w.]*\s*\(`)

// exprString renders an expression used as a default or decorator argument.
// Names stay verbatim, calls and lambdas collapse to <Call()>, list and
// tuple displays to <List()> and <Tuple()>, constants render as Python repr.
func exprString(s string) string {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return s
	case strings.HasPrefix(s, "lambda"):
		return "<Call()>"
	case s[0] == '[':
		return "<List()>"
	case s[0] == '(':
		return "<Tuple()>"
	case identRe.MatchString(s):
		return s
	case callRe.MatchString(s):
		return "<Call()>"
	}
	if v, err := pylit.Parse(s); err == nil {
		return pylit.Repr(v)
	}
	return s
}

// splitTopLevel splits on commas that are not nested in brackets or strings.
func splitTopLevel(s string) []string {
	var parts []string
	depth := 0
	var quote byte
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	if strings.TrimSpace(s[start:]) != "" {
		parts = append(parts, s[start:])
	}
	return parts
}

// splitDefault splits "name=value" at a top-level single '='.
func splitDefault(p string) (string, string, bool) {
	depth := 0
	var quote byte
	for i := 0; i < len(p); i++ {
		c := p[i]
		if quote != 0 {
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case '=':
			if depth == 0 {
				if i+1 < len(p) && p[i+1] == '=' || i > 0 && strings.ContainsRune("!<>=", rune(p[i-1])) {
					continue
				}
				return strings.TrimSpace(p[:i]), strings.TrimSpace(p[i+1:]), true
			}
		}
	}
	return strings.TrimSpace(p), "", false
}

var kwargNameRe = regexp.MustCompile(`^[A-Za-z_]\w*$`)

// splitKwarg splits "key=value" when key is a plain identifier.
func splitKwarg(arg string) (string, string, bool) {
	name, val, ok := splitDefault(arg)
	if !ok || !kwargNameRe.MatchString(name) {
		return "", "", false
	}
	return name, val, true
}

func lastComponent(expr string) string {
	expr = strings.TrimSpace(expr)
	if idx := strings.LastIndex(expr, "."); idx >= 0 {
		return expr[idx+1:]
	}
	return expr
}


func isEmptyValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	default:
		return false
	}
}
