package compiler

// Operator tables. Every operator the parser produces is either listed
// here or rejected with UnsupportedOperator.

const (
	modList = "aiken/collection/list"
	modMath = "aiken/math"
)

// binaryOps maps arithmetic operators to target spellings. True division
// has no integer meaning and is absent.
var binaryOps = map[string]string{
	"+":  "+",
	"-":  "-",
	"*":  "*",
	"%":  "%",
	"//": "/",
}

// compareOps maps comparison operators that translate to an infix operator.
// "in", "not in", "is" and "is not" are handled separately.
var compareOps = map[string]string{
	"==": "==",
	"!=": "!=",
	"<":  "<",
	"<=": "<=",
	">":  ">",
	">=": ">=",
}

var boolOps = map[string]string{
	"and": "&&",
	"or":  "||",
}

var unaryOps = map[string]string{
	"not": "!",
	"-":   "-",
}

// builtinCall is a source builtin with a library counterpart.
type builtinCall struct {
	Func   string
	Module string
	Arity  int
}

var builtinCalls = map[string]builtinCall{
	"len": {Func: "list.length", Module: modList, Arity: 1},
	"min": {Func: "math.min", Module: modMath, Arity: 2},
	"max": {Func: "math.max", Module: modMath, Arity: 2},
	"abs": {Func: "math.abs", Module: modMath, Arity: 1},
}

// listHas is the call `in` becomes.
const listHas = "list.has"
