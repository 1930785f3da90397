// Package expression computes counter names from inbound messages.
package expression

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	errspkg "github.com/drblury/fieldcounter/internal/runtime/errors"
)

// Env is the data an expression can reference as headers, uuid and payload.
type Env struct {
	Headers map[string]string
	UUID    string
	Payload any
}

func (e Env) toMap() map[string]any {
	headers := e.Headers
	if headers == nil {
		headers = map[string]string{}
	}
	return map[string]any{
		"headers": headers,
		"uuid":    e.UUID,
		"payload": e.Payload,
	}
}

// NameExpression evaluates to a counter name. It is either a compiled
// expression or a literal name and is safe for concurrent use.
type NameExpression struct {
	source  string
	program *vm.Program
	literal string
}

// Compile parses source once so evaluation does no parsing.
func Compile(source string) (*NameExpression, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, fmt.Errorf("%w: empty expression", errspkg.ErrNameExpression)
	}
	program, err := expr.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("%w: compile %q: %v", errspkg.ErrNameExpression, source, err)
	}
	return &NameExpression{source: source, program: program}, nil
}

// Literal returns an expression that always evaluates to name.
func Literal(name string) *NameExpression {
	return &NameExpression{source: name, literal: name}
}

// New compiles source when present, falling back to the literal name.
func New(source, name string) (*NameExpression, error) {
	if strings.TrimSpace(source) != "" {
		return Compile(source)
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: no expression or name configured", errspkg.ErrNameExpression)
	}
	return Literal(name), nil
}

func (e *NameExpression) String() string { return e.source }

// Evaluate runs the expression and coerces the result to a string. A nil or
// empty result is an error.
func (e *NameExpression) Evaluate(env Env) (string, error) {
	if e.program == nil {
		return e.literal, nil
	}

	out, err := expr.Run(e.program, env.toMap())
	if err != nil {
		return "", fmt.Errorf("%w: %v", errspkg.ErrNameExpression, err)
	}

	var name string
	switch v := out.(type) {
	case nil:
		return "", fmt.Errorf("%w: %q evaluated to nil", errspkg.ErrNameExpression, e.source)
	case string:
		name = v
	case fmt.Stringer:
		name = v.String()
	default:
		name = fmt.Sprint(v)
	}
	if name == "" {
		return "", fmt.Errorf("%w: %q evaluated to an empty name", errspkg.ErrNameExpression, e.source)
	}
	return name, nil
}
