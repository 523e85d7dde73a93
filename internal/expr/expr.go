package expr

import (
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"

	"github.com/vyrodovalexey/avaroute/internal/util"
)

// DefaultCostLimit bounds the runtime cost of a single evaluation.
const DefaultCostLimit uint64 = 10000

// Engine compiles filter expressions. It is safe for concurrent use.
type Engine struct {
	env       *cel.Env
	costLimit uint64
}

// Option is a functional option for the engine.
type Option func(*Engine)

// WithCostLimit sets the per-evaluation cost limit. Zero disables it.
func WithCostLimit(limit uint64) Option {
	return func(e *Engine) {
		e.costLimit = limit
	}
}

// NewEngine creates an engine.
func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{costLimit: DefaultCostLimit}
	for _, opt := range opts {
		opt(e)
	}

	envOpts := append(arithmeticFunctions(),
		cel.Function(containsFunc,
			cel.Overload(containsFunc+"_string_string",
				[]*cel.Type{cel.StringType, cel.StringType},
				cel.BoolType,
				cel.BinaryBinding(containsBinding),
			),
		),
	)
	env, err := cel.NewEnv(envOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	e.env = env
	return e, nil
}

// containsBinding reports whether the first string contains the second.
func containsBinding(haystack, needle ref.Val) ref.Val {
	h, ok := haystack.(types.String)
	if !ok {
		return types.MaybeNoSuchOverloadErr(haystack)
	}
	n, ok := needle.(types.String)
	if !ok {
		return types.MaybeNoSuchOverloadErr(needle)
	}
	return types.Bool(strings.Contains(string(h), string(n)))
}

// Expression is a compiled filter expression.
type Expression struct {
	source  string
	program cel.Program
}

// Compile parses src. The returned error wraps util.ErrInvalidExpression.
func (e *Engine) Compile(src string) (*Expression, error) {
	if strings.TrimSpace(src) == "" {
		return nil, util.NewExpressionError(src, fmt.Errorf("empty expression"))
	}

	translated, err := translate(src)
	if err != nil {
		return nil, util.NewExpressionError(src, err)
	}

	ast, iss := e.env.Parse(translated)
	if iss != nil && iss.Err() != nil {
		return nil, util.NewExpressionError(src, iss.Err())
	}
	rewriteArithmetic(ast.NativeRep())

	var progOpts []cel.ProgramOption
	if e.costLimit > 0 {
		progOpts = append(progOpts, cel.CostLimit(e.costLimit))
	}
	prg, err := e.env.Program(ast, progOpts...)
	if err != nil {
		return nil, util.NewExpressionError(src, err)
	}

	return &Expression{source: src, program: prg}, nil
}

// Source returns the expression as written.
func (x *Expression) Source() string {
	return x.source
}

// Eval evaluates the expression against vars. A true result or a non-zero
// number is a match. Referencing a variable missing from vars is an error.
func (x *Expression) Eval(vars Context) (bool, error) {
	out, _, err := x.program.Eval(vars.activation())
	if err != nil {
		return false, err
	}
	return truthy(out), nil
}

func truthy(v ref.Val) bool {
	switch val := v.(type) {
	case types.Bool:
		return bool(val)
	case types.Int:
		return val != 0
	case types.Uint:
		return val != 0
	case types.Double:
		return val != 0
	default:
		return false
	}
}
