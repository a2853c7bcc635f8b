// Package invocation renders a configuration as a command line for an
// external evaluator program.
package invocation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ishanwen-byte/gridsearch-go/internal/types"
)

// ErrEncodingPrecondition is matched by every PreconditionError
var ErrEncodingPrecondition = errors.New("configuration cannot be encoded as an invocation")

// PreconditionError reports a name or value containing a double quote.
// Such input has no unambiguous encoding and is rejected instead of escaped.
type PreconditionError struct {
	Name  string
	Value string
}

func (e *PreconditionError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("parameter name %q contains a double quote", e.Name)
	}
	return fmt.Sprintf("value %q of parameter %q contains a double quote", e.Value, e.Name)
}

func (e *PreconditionError) Is(target error) bool {
	return target == ErrEncodingPrecondition
}

// Encode builds `<command> -<name1> "'<value1>'" -<name2> "'<value2>'" ...`
// with parameters in configuration order. Neither names nor canonical values
// may contain a double quote.
func Encode(command string, cfg types.Configuration) (string, error) {
	var sb strings.Builder
	sb.WriteString(command)

	for name, value := range cfg.All() {
		rendered := value.String()
		if err := check(name, rendered); err != nil {
			return "", err
		}
		sb.WriteString(" -")
		sb.WriteString(name)
		sb.WriteString(` "'`)
		sb.WriteString(rendered)
		sb.WriteString(`'"`)
	}

	return sb.String(), nil
}

// MustEncode is Encode for input already known to be safe. It panics on a
// precondition violation.
func MustEncode(command string, cfg types.Configuration) string {
	line, err := Encode(command, cfg)
	if err != nil {
		panic(err)
	}
	return line
}

// Args returns the flag/value pairs of Encode as an argv slice, for callers
// that exec the evaluator without a shell. Values keep their single quotes
// so the program receives exactly what the shell form would deliver.
func Args(cfg types.Configuration) ([]string, error) {
	args := make([]string, 0, 2*cfg.Len())
	for name, value := range cfg.All() {
		rendered := value.String()
		if err := check(name, rendered); err != nil {
			return nil, err
		}
		args = append(args, "-"+name, "'"+rendered+"'")
	}
	return args, nil
}

func check(name, value string) error {
	if strings.ContainsRune(name, '"') {
		return &PreconditionError{Name: name}
	}
	if strings.ContainsRune(value, '"') {
		return &PreconditionError{Name: name, Value: value}
	}
	return nil
}
