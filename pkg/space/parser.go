package space

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode"
)

// ErrFormat is matched by every FormatError
var ErrFormat = errors.New("malformed space description")

// FormatError reports a line that does not follow
// `<name> {<v1>, <v2>, ...} [<default>]`.
type FormatError struct {
	Line   int
	Text   string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("line %d: %s: %q", e.Line, e.Reason, e.Text)
}

func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

// Parse reads one parameter per line. Blank lines are skipped, parameter
// order follows line order.
func Parse(text string) (*Space, error) {
	s := New()

	for n, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(strings.TrimSuffix(raw, "\r"))
		if line == "" {
			continue
		}

		p, reason := parseLine(line)
		if reason != "" {
			return nil, &FormatError{Line: n + 1, Text: line, Reason: reason}
		}
		if err := s.add(p); err != nil {
			return nil, &FormatError{Line: n + 1, Text: line, Reason: err.Error()}
		}
	}

	return s, nil
}

// ParseFile reads and parses a space description file
func ParseFile(path string) (*Space, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read space file: %w", err)
	}

	s, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse space file %s: %w", path, err)
	}
	return s, nil
}

// parseLine returns the parameter or a non-empty reason why the line is malformed
func parseLine(line string) (Param, string) {
	open := strings.IndexByte(line, '{')
	if open < 0 {
		return Param{}, "missing opening brace"
	}

	name := strings.TrimSpace(line[:open])
	if name == "" {
		return Param{}, "missing parameter name"
	}
	if strings.IndexFunc(name, unicode.IsSpace) >= 0 {
		return Param{}, "parameter name contains whitespace"
	}
	if strings.ContainsAny(name, "}[]") {
		return Param{}, "parameter name contains a bracket"
	}

	rest := line[open+1:]
	closing := strings.IndexByte(rest, '}')
	if closing < 0 {
		return Param{}, "missing closing brace"
	}
	body := rest[:closing]
	if strings.IndexByte(body, '{') >= 0 {
		return Param{}, "nested opening brace"
	}

	p := Param{Name: name}
	for _, tok := range strings.Split(body, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			return Param{}, "empty candidate value"
		}
		p.Values = append(p.Values, tok)
	}

	tail := strings.TrimSpace(rest[closing+1:])
	if tail == "" {
		return p, ""
	}
	if !strings.HasPrefix(tail, "[") || !strings.HasSuffix(tail, "]") {
		return Param{}, "unexpected text after candidate list"
	}
	def := strings.TrimSpace(tail[1 : len(tail)-1])
	if strings.ContainsAny(def, "[]{}") {
		return Param{}, "malformed default value"
	}
	p.Default = def
	p.HasDefault = true

	return p, ""
}
