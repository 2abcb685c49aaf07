package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pyken/internal/diag"
	"github.com/roach88/pyken/internal/ir"
	"github.com/roach88/pyken/internal/source"
)

func compileText(t *testing.T, text string, opts Options) (*ir.Module, diag.List) {
	t.Helper()
	file, diags := source.Load("test.py", text)
	require.NotNil(t, file, "parse failed: %v", diags)
	require.Empty(t, diags)
	return Compile(file, opts)
}

func onlyValidator(t *testing.T, mod *ir.Module) ir.ValidatorSpec {
	t.Helper()
	require.Len(t, mod.Validators, 1)
	return mod.Validators[0]
}

func TestScenarioGuardThenLiteral(t *testing.T) {
	mod, diags := compileText(t, `
@mint
def check(redeemer, ctx):
    assert redeemer == 42, "wrong redeemer"
    return True
`, Options{})

	assert.Empty(t, diags)
	v := onlyValidator(t, mod)
	assert.Equal(t, ir.KindMint, v.Kind)

	guard, ok := v.Body.(*ir.Guard)
	require.True(t, ok, "body is %T", v.Body)
	assert.Equal(t, "wrong redeemer", guard.Message)

	cond, ok := guard.Cond.(*ir.BinaryOp)
	require.True(t, ok)
	assert.Equal(t, "==", cond.Op)
	assert.Equal(t, "redeemer", cond.Left.(*ir.NameRef).Name)
	assert.Equal(t, "42", cond.Right.(*ir.Literal).Text)

	tail, ok := guard.Body.(*ir.TailValue)
	require.True(t, ok)
	assert.Equal(t, &ir.Literal{Kind: ir.LitBool, Text: "True", Pos: diag.Pos{Line: 5, Column: 12}}, tail.Value)
}

func TestScenarioSpendArity(t *testing.T) {
	t.Run("three parameters", func(t *testing.T) {
		mod, diags := compileText(t, `
@spend
def vault(datum, redeemer, context):
    return True
`, Options{})
		assert.Empty(t, diags)
		v := onlyValidator(t, mod)
		assert.Equal(t, ir.KindSpend, v.Kind)
		assert.Equal(t, "vault", v.Block)
		require.Len(t, v.Params, 3)
		assert.Equal(t, "Option<Data>", v.Params[0].Type.String())
		assert.Equal(t, "Data", v.Params[1].Type.String())
		assert.Equal(t, "ScriptContext", v.Params[2].Type.String())
		assert.Equal(t, "cardano/script_context", v.Params[2].Type.Module)
	})

	t.Run("two parameters", func(t *testing.T) {
		mod, diags := compileText(t, `
@spend
def vault(datum, redeemer):
    return True
`, Options{})
		assert.Empty(t, mod.Validators)
		require.Len(t, diags, 1)
		assert.Equal(t, diag.KindArityMismatch, diags[0].Kind)
		assert.Equal(t, "vault", diags[0].Function)
		assert.Equal(t, "spend handler takes 3 parameters (datum, redeemer, context), got 2", diags[0].Message)
	})
}

func TestArityOrder(t *testing.T) {
	tests := []struct {
		name   string
		params string
		msg    string
	}{
		{"redeemer in datum slot", "redeemer, datum, ctx", "parameter redeemer names the redeemer but is in the datum position of a spend handler"},
		{"context type in redeemer slot", "d, r: ScriptContext, ctx", "parameter r has a context type but is in the redeemer position of a spend handler"},
		{"underscored name", "_ctx, r, c", "parameter _ctx names the context but is in the datum position of a spend handler"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mod, diags := compileText(t, "@spend\ndef v("+tt.params+"):\n    return True\n", Options{})
			assert.Empty(t, mod.Validators)
			arity := diags.OfKind(diag.KindArityMismatch)
			require.NotEmpty(t, arity)
			assert.Equal(t, tt.msg, arity[0].Message)
		})
	}

	mod, diags := compileText(t, "@spend\ndef v(a, b, c):\n    return True\n", Options{})
	assert.Empty(t, diags)
	assert.Len(t, mod.Validators, 1)
}

func TestScenarioTagDispatch(t *testing.T) {
	mod, diags := compileText(t, `
class Action:
    Open = 0
    Close = 1
    Update = 2
    Burn = 3

@spend
def vault(datum, redeemer: Action, ctx):
    if redeemer == Action.Open:
        return True
    elif redeemer == Action.Close:
        return False
    elif redeemer == Action.Update:
        return True
    else:
        raise Exception("unsupported action")
`, Options{})

	assert.Empty(t, diags)
	v := onlyValidator(t, mod)
	assert.Equal(t, "Action", v.Params[1].Type.String())

	m, ok := v.Body.(*ir.Match)
	require.True(t, ok, "body is %T", v.Body)
	assert.Equal(t, "redeemer", m.Subject.(*ir.NameRef).Name)
	require.Len(t, m.Arms, 4)

	var tags []string
	for _, arm := range m.Arms[:3] {
		require.Len(t, arm.Patterns, 1)
		call := arm.Patterns[0].(*ir.Call)
		assert.True(t, call.Constructor)
		assert.Equal(t, "Action", call.Enum)
		tags = append(tags, call.Func)
	}
	assert.Equal(t, []string{"Open", "Close", "Update"}, tags)
	assert.True(t, m.Arms[3].Wildcard())
	assert.Equal(t, &ir.Fail{Message: "unsupported action", Pos: diag.Pos{Line: 17, Column: 9}}, m.Arms[3].Body)

	require.Len(t, mod.Types, 1)
	assert.Equal(t, []string{"Open", "Close", "Update", "Burn"}, mod.Types[0].Tags)
}

func TestScenarioUnsupportedSibling(t *testing.T) {
	mod, diags := compileText(t, `
def first(ctx):
    return True

def second(ctx):
    for x in ctx:
        pass
    return True
`, Options{})

	v := onlyValidator(t, mod)
	assert.Equal(t, "first", v.Name)
	assert.Equal(t, ir.KindFallback, v.Kind)

	require.Len(t, diags, 1)
	assert.Equal(t, diag.KindUnsupportedConstruct, diags[0].Kind)
	assert.Equal(t, "second", diags[0].Function)
}

func TestTailIfWithoutElse(t *testing.T) {
	t.Run("every branch terminates", func(t *testing.T) {
		mod, diags := compileText(t, `
def check(ctx):
    if ctx == 1:
        return True
`, Options{})
		assert.Empty(t, diags)
		cond, ok := onlyValidator(t, mod).Body.(*ir.Conditional)
		require.True(t, ok)
		assert.IsType(t, &ir.TailValue{}, cond.Then)
		assert.IsType(t, &ir.Fail{}, cond.Else)
	})

	t.Run("branch falls through", func(t *testing.T) {
		mod, diags := compileText(t, `
def check(ctx):
    if ctx == 1:
        x = 1
`, Options{})
		assert.Empty(t, mod.Validators)
		require.Len(t, diags, 1)
		assert.Equal(t, diag.KindNonExhaustiveBranches, diags[0].Kind)
		assert.Equal(t, diag.Pos{Line: 3, Column: 5}, diags[0].Pos)
	})

	t.Run("elif chain without else", func(t *testing.T) {
		mod, diags := compileText(t, `
def check(ctx):
    if ctx == 1:
        return True
    elif ctx == 2:
        y = 2
`, Options{})
		assert.Empty(t, mod.Validators)
		require.Len(t, diags.OfKind(diag.KindNonExhaustiveBranches), 1)
	})
}

func TestFallingOffTheEnd(t *testing.T) {
	mod, diags := compileText(t, `
def check(ctx):
    x = 1
`, Options{})
	assert.Empty(t, mod.Validators)
	require.Len(t, diags, 1)
	assert.Equal(t, diag.KindNonExhaustiveBranches, diags[0].Kind)
	assert.Equal(t, "check can reach its end without returning a value", diags[0].Message)
}

func TestNonTailIfContinuation(t *testing.T) {
	mod, diags := compileText(t, `
def check(ctx):
    if ctx == 0:
        raise Exception("empty")
    return ctx > 1
`, Options{})
	assert.Empty(t, diags)

	cond, ok := onlyValidator(t, mod).Body.(*ir.Conditional)
	require.True(t, ok)
	assert.Equal(t, "empty", cond.Then.(*ir.Fail).Message)
	tail, ok := cond.Else.(*ir.TailValue)
	require.True(t, ok)
	assert.Equal(t, ">", tail.Value.(*ir.BinaryOp).Op)
}

func TestContinuationIntoBothBranches(t *testing.T) {
	mod, diags := compileText(t, `
def check(ctx):
    if ctx:
        a = 1
    else:
        a = 2
    return a > 0
`, Options{})
	assert.Empty(t, diags)

	cond, ok := onlyValidator(t, mod).Body.(*ir.Conditional)
	require.True(t, ok)
	for _, branch := range []ir.Node{cond.Then, cond.Else} {
		let, ok := branch.(*ir.Let)
		require.True(t, ok, "branch is %T", branch)
		assert.Equal(t, "a", let.Name)
		assert.IsType(t, &ir.TailValue{}, let.Body)
	}
}

func TestUnreachableCode(t *testing.T) {
	src := `
def check(ctx):
    return True
    x = 1
`
	mod, diags := compileText(t, src, Options{})
	assert.Len(t, mod.Validators, 1)
	require.Len(t, diags, 1)
	assert.Equal(t, diag.KindUnreachableCode, diags[0].Kind)
	assert.Equal(t, diag.Warning, diags[0].Severity)
	assert.Equal(t, diag.Pos{Line: 4, Column: 5}, diags[0].Pos)

	mod, diags = compileText(t, src, Options{Strict: true})
	assert.Empty(t, mod.Validators)
	require.Len(t, diags, 1)
	assert.Equal(t, diag.Fatal, diags[0].Severity)
}

func TestStrictPromotesUnknownType(t *testing.T) {
	src := `
@helper
def scale(x: float) -> int:
    return 2
`
	mod, diags := compileText(t, src, Options{})
	require.Len(t, mod.Helpers, 1)
	assert.Equal(t, "Data", mod.Helpers[0].Params[0].Type.String())
	require.Len(t, diags, 1)
	assert.Equal(t, diag.KindUnknownType, diags[0].Kind)
	assert.Equal(t, "unknown type float for x, using Data", diags[0].Message)
	assert.False(t, diags.HasFatal())

	mod, diags = compileText(t, src, Options{Strict: true})
	assert.Empty(t, mod.Helpers)
	assert.True(t, diags.HasFatal())
}

func TestReassignment(t *testing.T) {
	t.Run("same type shadows", func(t *testing.T) {
		mod, diags := compileText(t, `
def check(ctx):
    x = 1
    x = x + 1
    x += 2
    return x > 3
`, Options{})
		assert.Empty(t, diags)

		var names []string
		ir.Walk(onlyValidator(t, mod).Body, func(n ir.Node) bool {
			if let, ok := n.(*ir.Let); ok {
				names = append(names, let.Name)
			}
			return true
		})
		assert.Equal(t, []string{"x", "x", "x"}, names)
	})

	t.Run("conflicting type", func(t *testing.T) {
		mod, diags := compileText(t, `
def check(ctx):
    x = 1
    x = "one"
    return True
`, Options{})
		assert.Empty(t, mod.Validators)
		require.Len(t, diags, 1)
		assert.Equal(t, diag.KindReassignmentTypeConflict, diags[0].Kind)
		assert.Equal(t, "x is bound as Int and reassigned as String", diags[0].Message)
	})

	t.Run("annotated conflict", func(t *testing.T) {
		_, diags := compileText(t, `
def check(ctx):
    flag = True
    flag: int = 3
    return True
`, Options{})
		assert.Len(t, diags.OfKind(diag.KindReassignmentTypeConflict), 1)
	})

	t.Run("data parameter accepts anything", func(t *testing.T) {
		_, diags := compileText(t, `
@helper
def f(a):
    a = 5
    return a
`, Options{})
		assert.Empty(t, diags)
	})
}

func TestOperatorTable(t *testing.T) {
	supported := []struct {
		src string
		op  string
	}{
		{"a + b", "+"},
		{"a - b", "-"},
		{"a * b", "*"},
		{"a % b", "%"},
		{"a // b", "/"},
		{"a == b", "=="},
		{"a != b", "!="},
		{"a < b", "<"},
		{"a <= b", "<="},
		{"a > b", ">"},
		{"a >= b", ">="},
		{"a and b", "&&"},
		{"a or b", "||"},
		{"a is None", "=="},
		{"a is not True", "!="},
	}
	for _, tt := range supported {
		t.Run(tt.src, func(t *testing.T) {
			mod, diags := compileText(t, "@helper\ndef f(a, b):\n    return "+tt.src+"\n", Options{})
			assert.Empty(t, diags)
			require.Len(t, mod.Helpers, 1)
			tail := mod.Helpers[0].Body.(*ir.TailValue)
			assert.Equal(t, tt.op, tail.Value.(*ir.BinaryOp).Op)
		})
	}

	unary := map[string]string{"not a": "!", "-a": "-"}
	for src, op := range unary {
		t.Run(src, func(t *testing.T) {
			mod, diags := compileText(t, "@helper\ndef f(a):\n    return "+src+"\n", Options{})
			assert.Empty(t, diags)
			tail := mod.Helpers[0].Body.(*ir.TailValue)
			assert.Equal(t, op, tail.Value.(*ir.UnaryOp).Op)
		})
	}

	unsupported := []string{"a / b", "a ** b", "a @ b", "a << b", "a >> b", "a & b", "a | b", "a ^ b", "~a", "+a", "a is b"}
	for _, src := range unsupported {
		t.Run(src, func(t *testing.T) {
			mod, diags := compileText(t, `
@helper
def ok(a):
    return a

@helper
def f(a, b):
    return `+src+"\n", Options{})
			require.Len(t, mod.Helpers, 1)
			assert.Equal(t, "ok", mod.Helpers[0].Name)
			require.Len(t, diags, 1)
			assert.Equal(t, diag.KindUnsupportedOperator, diags[0].Kind)
			assert.Equal(t, "f", diags[0].Function)
		})
	}
}

func TestMembership(t *testing.T) {
	mod, diags := compileText(t, `
@helper
def f(a, xs):
    return a in (1, 2) and a not in xs
`, Options{})
	assert.Empty(t, diags)
	and := mod.Helpers[0].Body.(*ir.TailValue).Value.(*ir.BinaryOp)

	has := and.Left.(*ir.Call)
	assert.Equal(t, "list.has", has.Func)
	assert.Equal(t, "aiken/collection/list", has.Module)
	assert.Equal(t, ir.LitList, has.Args[0].Value.(*ir.Literal).Kind)
	assert.Equal(t, "a", has.Args[1].Value.(*ir.NameRef).Name)

	not := and.Right.(*ir.UnaryOp)
	assert.Equal(t, "!", not.Op)
	assert.Equal(t, "list.has", not.Operand.(*ir.Call).Func)
}

func TestChainedComparison(t *testing.T) {
	mod, diags := compileText(t, "@helper\ndef f(a, b, c):\n    return a < b <= c\n", Options{})
	assert.Empty(t, diags)
	and := mod.Helpers[0].Body.(*ir.TailValue).Value.(*ir.BinaryOp)
	assert.Equal(t, "&&", and.Op)
	assert.Equal(t, "<", and.Left.(*ir.BinaryOp).Op)
	assert.Equal(t, "<=", and.Right.(*ir.BinaryOp).Op)
	assert.Equal(t, "b", and.Right.(*ir.BinaryOp).Left.(*ir.NameRef).Name)
}

func TestCalls(t *testing.T) {
	mod, diags := compileText(t, `
class Datum:
    owner: bytes
    amount: int

class Nothing:
    pass

@helper
def f(xs, key):
    a = len(xs)
    b = max(a, 3)
    d = Datum(key, amount=b)
    e = Some(d)
    g = Nothing
    return list.has(xs, key)
`, Options{})
	assert.Empty(t, diags)

	var calls []*ir.Call
	ir.Walk(mod.Helpers[0].Body, func(n ir.Node) bool {
		if c, ok := n.(*ir.Call); ok {
			calls = append(calls, c)
		}
		return true
	})
	require.Len(t, calls, 6)

	assert.Equal(t, "list.length", calls[0].Func)
	assert.Equal(t, "aiken/collection/list", calls[0].Module)
	assert.Equal(t, "math.max", calls[1].Func)
	assert.Equal(t, "aiken/math", calls[1].Module)

	assert.Equal(t, "Datum", calls[2].Func)
	assert.True(t, calls[2].Constructor)
	assert.Equal(t, []string{"owner", "amount"}, []string{calls[2].Args[0].Label, calls[2].Args[1].Label})

	assert.Equal(t, "Some", calls[3].Func)
	assert.True(t, calls[3].Constructor)
	assert.Equal(t, "Nothing", calls[4].Func)
	assert.True(t, calls[4].Constructor)
	assert.Equal(t, "list.has", calls[5].Func)
	assert.False(t, calls[5].Constructor)

	require.Len(t, mod.Types, 2)
	assert.Equal(t, ir.DeclRecord, mod.Types[0].Kind)
	assert.Equal(t, "ByteArray", mod.Types[0].Fields[0].Type.String())
	assert.Equal(t, ir.DeclUnit, mod.Types[1].Kind)
}

func TestValidatorClass(t *testing.T) {
	mod, diags := compileText(t, `
class CheckRedeemer:
    @staticmethod
    def spend(_datum, redeemer: str, _ctx) -> bool:
        return redeemer == "ok"

    @staticmethod
    def else_(_):
        raise Exception("Validation failed")
`, Options{})
	assert.Empty(t, diags)
	require.Len(t, mod.Validators, 2)
	assert.Equal(t, "CheckRedeemer", mod.Validators[0].Block)
	assert.Equal(t, ir.KindSpend, mod.Validators[0].Kind)
	assert.Equal(t, "String", mod.Validators[0].Params[1].Type.String())
	assert.Equal(t, "CheckRedeemer", mod.Validators[1].Block)
	assert.Equal(t, ir.KindFallback, mod.Validators[1].Kind)
	assert.Equal(t, &ir.Fail{Message: "Validation failed", Pos: diag.Pos{Line: 9, Column: 9}}, mod.Validators[1].Body)
}

func TestTestFunctions(t *testing.T) {
	mod, diags := compileText(t, `
def test_trace_then_pass():
    print("checking")
    x = 1
    assert x == 1
`, Options{})
	assert.Empty(t, diags)
	assert.Empty(t, mod.Validators)
	require.Len(t, mod.Tests, 1)

	trace, ok := mod.Tests[0].Body.(*ir.Trace)
	require.True(t, ok, "body is %T", mod.Tests[0].Body)
	assert.Equal(t, "checking", trace.Message)

	let := trace.Body.(*ir.Let)
	guard := let.Body.(*ir.Guard)
	tail := guard.Body.(*ir.TailValue)
	assert.Equal(t, "True", tail.Value.(*ir.Literal).Text)
}

func TestProjectTypes(t *testing.T) {
	extra := []TypeMapping{direct("Lovelace", ir.IntType)}
	mod, diags := compileText(t, `
@helper
def f(x: Lovelace) -> Lovelace:
    return x
`, Options{Types: extra})
	assert.Empty(t, diags)
	assert.Equal(t, "Int", mod.Helpers[0].Params[0].Type.String())
	assert.Equal(t, "Int", mod.Helpers[0].Return.String())
}

func TestDiagnosticsAreDeduplicated(t *testing.T) {
	// The continuation after the first if is translated once per branch.
	_, diags := compileText(t, `
def check(ctx):
    if ctx:
        a = 1
    else:
        a = 2
    y = a ** 2
    return True
`, Options{})
	require.Len(t, diags, 1)
	assert.Equal(t, diag.KindUnsupportedOperator, diags[0].Kind)
}

func TestSourceDigest(t *testing.T) {
	text := "def check(ctx):\n    return True\n"
	file, _ := source.Load("d.py", text)
	mod, _ := Compile(file, Options{})
	assert.Equal(t, ir.SourceDigest(text), mod.Digest)
	assert.Equal(t, "d.py", mod.Source)
}

func TestAssignmentWithoutTargets(t *testing.T) {
	file, diags := source.Load("a.py", "def check(ctx):\n    x = 1\n    return True\n")
	require.NotNil(t, file, "parse failed: %v", diags)
	assign, ok := file.Functions[0].Body[0].(*source.Assign)
	require.True(t, ok)
	assign.Targets = nil

	var mod *ir.Module
	require.NotPanics(t, func() { mod, diags = Compile(file, Options{}) })
	assert.Empty(t, mod.Validators)
	require.Len(t, diags, 1)
	assert.Equal(t, diag.KindUnsupportedConstruct, diags[0].Kind)
	assert.Contains(t, diags[0].Message, "assignment target is not supported")
}
