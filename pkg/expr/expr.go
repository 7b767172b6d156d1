package expr

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
)

var ErrNotBool = errors.New("expression did not return a bool")

// Environment declares the variables expressions may use, on top of the
// package's function library. It is safe for concurrent use.
type Environment struct {
	env *cel.Env
	mu  sync.Mutex
}

// NewEnvironment creates a new [Environment] from the given options, usually
// [cel.Variable] declarations.
func NewEnvironment(opts ...cel.EnvOption) (*Environment, error) {
	env, err := cel.NewEnv(append(opts, cel.Lib(&lib{}))...)
	if err != nil {
		return nil, fmt.Errorf("create CEL environment: %w", err)
	}

	return &Environment{env: env}, nil
}

// MustNewEnvironment is like [NewEnvironment] but panics on error.
func MustNewEnvironment(opts ...cel.EnvOption) *Environment {
	env, err := NewEnvironment(opts...)
	if err != nil {
		panic(err)
	}

	return env
}

// Compile type-checks expression and plans it. When outputType is non-nil,
// the expression must evaluate to that type (or dyn).
func (e *Environment) Compile(expression string, outputType *cel.Type) (*Program, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile expression: %w", issues.Err())
	}

	out := ast.OutputType()
	if outputType != nil && !out.IsExactType(outputType) && !out.IsExactType(cel.DynType) {
		return nil, fmt.Errorf("compile expression: must return %s, got %s", outputType, out)
	}

	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("create program: %w", err)
	}

	return &Program{prg: prg, source: expression}, nil
}

// Program is a compiled expression.
type Program struct {
	prg    cel.Program
	source string
}

// Eval evaluates the program. Variable values are converted with
// [ConvertToCELValue].
func (p *Program) Eval(vars map[string]any) (any, error) {
	in := make(map[string]any, len(vars))
	for k, v := range vars {
		in[k] = ConvertToCELValue(v)
	}

	out, _, err := p.prg.Eval(in)
	if err != nil {
		return nil, fmt.Errorf("evaluate %q: %w", p.source, err)
	}

	return out.Value(), nil
}

// EvalBool evaluates a program that returns a bool.
func (p *Program) EvalBool(vars map[string]any) (bool, error) {
	v, err := p.Eval(vars)
	if err != nil {
		return false, err
	}

	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("evaluate %q: %w, got %T", p.source, ErrNotBool, v)
	}

	return b, nil
}

func (p *Program) String() string {
	return p.source
}
