// Package expr compiles and evaluates route filter expressions.
//
// Expressions are written in a small infix dialect:
//
//	age >= 10 and x_id mod 20 == 0
//	name in ("tom", "lily") or not debug
//	contains(user_agent, "curl")
//
// The dialect is translated to CEL and evaluated with cel-go against a
// Context of request variables. Variables are resolved at evaluation time,
// so an expression that references a variable absent from the Context
// fails for that request only.
package expr
