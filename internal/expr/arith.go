package expr

import (
	"math"

	"github.com/google/cel-go/cel"
	celast "github.com/google/cel-go/common/ast"
	"github.com/google/cel-go/common/operators"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// Division and modulo follow number semantics rather than CEL's integer
// rules: "/" always yields a double and "mod" accepts doubles.
const (
	divideFunc = "num_divide"
	moduloFunc = "num_modulo"
)

// arithmeticOperators maps CEL operators to the functions that replace
// them after parsing.
var arithmeticOperators = map[string]string{
	operators.Divide: divideFunc,
	operators.Modulo: moduloFunc,
}

func arithmeticFunctions() []cel.EnvOption {
	return []cel.EnvOption{
		numericFunction(divideFunc, divideBinding),
		numericFunction(moduloFunc, moduloBinding),
	}
}

// numericFunction declares name over every int and double pairing.
func numericFunction(name string, binding func(lhs, rhs ref.Val) ref.Val) cel.EnvOption {
	pairs := []struct {
		id       string
		lhs, rhs *cel.Type
	}{
		{"int64_int64", cel.IntType, cel.IntType},
		{"double_double", cel.DoubleType, cel.DoubleType},
		{"int64_double", cel.IntType, cel.DoubleType},
		{"double_int64", cel.DoubleType, cel.IntType},
	}

	overloads := make([]cel.FunctionOpt, 0, len(pairs))
	for _, p := range pairs {
		overloads = append(overloads, cel.Overload(name+"_"+p.id,
			[]*cel.Type{p.lhs, p.rhs},
			cel.DynType,
			cel.BinaryBinding(binding),
		))
	}
	return cel.Function(name, overloads...)
}

func toFloat(v ref.Val) (float64, bool) {
	switch n := v.(type) {
	case types.Int:
		return float64(n), true
	case types.Double:
		return float64(n), true
	default:
		return 0, false
	}
}

func divideBinding(lhs, rhs ref.Val) ref.Val {
	a, ok := toFloat(lhs)
	if !ok {
		return types.MaybeNoSuchOverloadErr(lhs)
	}
	b, ok := toFloat(rhs)
	if !ok {
		return types.MaybeNoSuchOverloadErr(rhs)
	}
	return types.Double(a / b)
}

func moduloBinding(lhs, rhs ref.Val) ref.Val {
	if a, ok := lhs.(types.Int); ok {
		if b, ok := rhs.(types.Int); ok {
			if b == 0 {
				return types.NewErr("modulus by zero")
			}
			return a % b
		}
	}
	a, ok := toFloat(lhs)
	if !ok {
		return types.MaybeNoSuchOverloadErr(lhs)
	}
	b, ok := toFloat(rhs)
	if !ok {
		return types.MaybeNoSuchOverloadErr(rhs)
	}
	return types.Double(math.Mod(a, b))
}

// rewriteArithmetic replaces division and modulo calls in a parsed AST
// with the number-semantics functions.
func rewriteArithmetic(a *celast.AST) {
	fac := celast.NewExprFactory()
	celast.PostOrderVisit(a.Expr(), celast.NewExprVisitor(func(e celast.Expr) {
		if e.Kind() != celast.CallKind {
			return
		}
		call := e.AsCall()
		if call.IsMemberFunction() {
			return
		}
		if fn, ok := arithmeticOperators[call.FunctionName()]; ok {
			e.SetKindCase(fac.NewCall(e.ID(), fn, call.Args()...))
		}
	}))
}
