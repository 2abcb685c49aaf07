package emit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pyken/internal/compiler"
	"github.com/roach88/pyken/internal/diag"
	"github.com/roach88/pyken/internal/ir"
	"github.com/roach88/pyken/internal/source"
)

// compileFixture compiles testdata/<name>.py and returns its module and
// compile diagnostics.
func compileFixture(t *testing.T, name string) (*ir.Module, diag.List) {
	t.Helper()
	text, err := os.ReadFile(filepath.Join("testdata", name+".py"))
	require.NoError(t, err)
	file, diags := source.Load(name+".py", string(text))
	require.NotNil(t, file, "parse failed: %v", diags)
	mod, more := compiler.Compile(file, compiler.Options{})
	return mod, append(diags, more...)
}

func compileText(t *testing.T, text string) *ir.Module {
	t.Helper()
	file, diags := source.Load("inline.py", text)
	require.NotNil(t, file, "parse failed: %v", diags)
	mod, more := compiler.Compile(file, compiler.Options{})
	require.False(t, more.HasFatal(), "compile failed: %v", more)
	return mod
}

func TestRenderGolden(t *testing.T) {
	tests := []struct {
		name       string
		compile    int // diagnostics from compilation
		collisions int
	}{
		{name: "vault"},
		{name: "check_redeemer", collisions: 3},
		{name: "partial", compile: 1},
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mod, compileDiags := compileFixture(t, tt.name)
			assert.Len(t, compileDiags, tt.compile)

			out, diags := Render(mod)
			assert.Len(t, diags.OfKind(diag.KindIdentifierCollision), tt.collisions)
			assert.Equal(t, 0, diags.Count(diag.Fatal))
			g.Assert(t, tt.name, out)
		})
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	for _, name := range []string{"vault", "check_redeemer"} {
		mod, _ := compileFixture(t, name)
		first, firstDiags := Render(mod)
		for i := 0; i < 5; i++ {
			again, againDiags := Render(mod)
			assert.Equal(t, string(first), string(again))
			assert.Equal(t, firstDiags, againDiags)
		}
	}
}

func TestCollisionDiagnostics(t *testing.T) {
	mod, _ := compileFixture(t, "check_redeemer")
	_, diags := Render(mod)

	var messages []string
	for _, d := range diags {
		assert.Equal(t, diag.Info, d.Severity)
		assert.Equal(t, "check_redeemer.py", d.File)
		messages = append(messages, d.Function+": "+d.Message)
	}
	assert.Equal(t, []string{
		"test_trace: test_trace renamed to trace_: is a reserved word",
		"CheckRedeemer.spend: when renamed to when_: is a reserved word",
		"test_trace: my_value renamed to my_value_1: collides with my_value",
	}, messages)
}

func TestPassthroughImports(t *testing.T) {
	mod := compileText(t, `
from cardano.assets import PolicyId, quantity_of
from aiken.interval import Interval as Range
import aiken.math.rational as rational

@helper
def amount(v, p: PolicyId):
    return quantity_of(v, p, b"")
`)
	out, _ := Render(mod)
	text := string(out)
	assert.Contains(t, text, "use cardano/assets.{PolicyId, quantity_of}\n")
	assert.NotContains(t, text, "aiken/interval")
	assert.NotContains(t, text, "rational")
	assert.Contains(t, text, `quantity_of(v, p, "")`)
}

func TestRenderExpressions(t *testing.T) {
	mod := compileText(t, `
class Point:
    x: int
    y: int

@helper
def f(a: int, b: int, xs: list):
    p = Point(a, b)
    q = Point(1, y=2)
    first = xs[0]
    neg = -(a + b)
    mixed = (a + b) * (a - b)
    chained = a - (b - 1)
    flag = not (a < b) or a >= b and b != 0
    pick = a if a > b else b
    return p.x + q.y + pick + abs(neg) + mixed + chained
`)
	out, diags := Render(mod)
	assert.Empty(t, diags)
	text := string(out)

	for _, want := range []string{
		"use aiken/collection/list\n",
		"use aiken/math\n",
		"pub type Point {\n  x: Int,\n  y: Int,\n}\n",
		"fn f(a: Int, b: Int, xs: List<Data>) {\n",
		"  let p = Point { x: a, y: b }\n",
		"  let q = Point { x: 1, y: 2 }\n",
		"  let first = list.at(xs, 0)\n",
		"  let neg = -(a + b)\n",
		"  let mixed = (a + b) * (a - b)\n",
		"  let chained = a - (b - 1)\n",
		"  let flag = !(a < b) || a >= b && b != 0\n",
		"  let pick = if a > b { a } else { b }\n",
		"  p.x + q.y + pick + math.abs(neg) + mixed + chained\n",
	} {
		assert.Contains(t, text, want)
	}
}

func TestRenderLiterals(t *testing.T) {
	mod := compileText(t, `
@helper
def f():
    s = "say \"hi\"\n"
    raw = b"\x00\xff"
    plain = b"key"
    big = 0xff
    nothing = None
    pair = (1, "a")
    return [s, raw, plain, big, nothing, pair]
`)
	out, _ := Render(mod)
	text := string(out)
	assert.Contains(t, text, `let s = @"say \"hi\"\n"`)
	assert.Contains(t, text, `let raw = #"00ff"`)
	assert.Contains(t, text, `let plain = "key"`)
	assert.Contains(t, text, "let big = 255\n")
	assert.Contains(t, text, "let nothing = None\n")
	assert.Contains(t, text, `let pair = (1, @"a")`)
}

func TestUnusedTypesAreNotEmitted(t *testing.T) {
	mod := compileText(t, `
class Unused:
    pass

class Inner:
    n: int

class Outer:
    inner: Inner

@helper
def f(o: Outer):
    return o
`)
	out, _ := Render(mod)
	text := string(out)
	assert.NotContains(t, text, "Unused")
	assert.Contains(t, text, "pub type Inner {")
	assert.Contains(t, text, "pub type Outer {\n  inner: Inner,\n}")
	assert.Less(t, strings.Index(text, "pub type Inner"), strings.Index(text, "pub type Outer"))
}

func TestUnderscoreParameters(t *testing.T) {
	mod := compileText(t, `
@mint
def policy(_redeemer, _ctx):
    return _redeemer == 1
`)
	out, _ := Render(mod)
	assert.Contains(t, string(out), "mint(redeemer: Data, _ctx: ScriptContext) {\n    redeemer == 1\n  }")
}

func TestSourceOrder(t *testing.T) {
	mod := compileText(t, `
@helper
def b():
    return 1

def test_a():
    assert b() == 1

class V:
    def mint(self, r, c):
        return True

def gate(ctx):
    return True
`)
	out, _ := Render(mod)
	text := string(out)
	order := []int{
		strings.Index(text, "fn b()"),
		strings.Index(text, "test a()"),
		strings.Index(text, "validator v {"),
		strings.Index(text, "validator gate {"),
	}
	for i := 1; i < len(order); i++ {
		assert.Less(t, order[i-1], order[i])
	}
}

func TestLocalsAvoidModuleBindings(t *testing.T) {
	mod := compileText(t, `
import aiken.crypto as crypto
from cardano.assets import quantity_of

@helper
def f(redeemer: int, crypto: int):
    list = [1, 2, 3]
    assets = quantity_of(redeemer)
    return redeemer in list
`)
	out, diags := Render(mod)
	text := string(out)
	assert.Contains(t, text, "fn f(redeemer: Int, crypto_1: Int) {\n")
	assert.Contains(t, text, "  let list_1 = [1, 2, 3]\n")
	assert.Contains(t, text, "  let assets_1 = quantity_of(redeemer)\n")
	assert.Contains(t, text, "  list.has(list_1, redeemer)\n")

	var messages []string
	for _, d := range diags.OfKind(diag.KindIdentifierCollision) {
		assert.Equal(t, "f", d.Function)
		messages = append(messages, d.Message)
	}
	assert.Equal(t, []string{
		"crypto renamed to crypto_1: collides with crypto",
		"list renamed to list_1: collides with list",
		"assets renamed to assets_1: collides with assets",
	}, messages)
}

func TestConstructorsNeverCollide(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		want    []string
		renamed string
	}{
		{
			name: "shared enum tag",
			source: `
class Action:
    Claim = 0
    Close = 1

class Mode:
    Claim = 0
    Other = 1

@spend
def vault(datum: Mode, redeemer: Action, ctx):
    return datum == Mode.Claim and redeemer == Action.Claim
`,
			want: []string{
				"pub type Action {\n  Claim\n  Close\n}\n",
				"pub type Mode {\n  Claim_1\n  Other\n}\n",
				"    datum == Claim_1 && redeemer == Claim\n",
			},
			renamed: "Mode.Claim renamed to Claim_1: collides with Claim",
		},
		{
			name: "record named like a tag",
			source: `
class Action:
    Claim = 0
    Close = 1

class Claim:
    amount: int

@spend
def vault(datum: Claim, redeemer: Action, ctx):
    c = Claim(amount=5)
    return redeemer == Action.Claim and datum == c
`,
			want: []string{
				"pub type Action {\n  Claim\n  Close\n}\n",
				"pub type Claim_1 {\n  amount: Int,\n}\n",
				"spend(datum: Claim_1, ",
				"    let c = Claim_1 { amount: 5 }\n",
				"    redeemer == Claim && datum == c\n",
			},
			renamed: "Claim renamed to Claim_1: collides with Claim",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, diags := Render(compileText(t, tt.source))
			text := string(out)
			for _, want := range tt.want {
				assert.Contains(t, text, want)
			}

			collisions := diags.OfKind(diag.KindIdentifierCollision)
			require.Len(t, collisions, 1)
			assert.Equal(t, tt.renamed, collisions[0].Message)
			assert.Equal(t, diag.Info, collisions[0].Severity)
		})
	}
}

func TestRenderGrouping(t *testing.T) {
	mod := compileText(t, `
@helper
def f(a: int, c: bool):
    x = -(-a)
    y = (1 if c else 2) + 1
    z = a - -a
    w = 1 + (2 if c else 3)
    n = not (not c)
    return x + y + z + w
`)
	out, _ := Render(mod)
	text := string(out)
	for _, want := range []string{
		"  let x = -(-a)\n",
		"  let y = (if c { 1 } else { 2 }) + 1\n",
		"  let z = a - (-a)\n",
		"  let w = 1 + (if c { 2 } else { 3 })\n",
		"  let n = !(!c)\n",
	} {
		assert.Contains(t, text, want)
	}
}

func TestGuardRendering(t *testing.T) {
	mod := compileText(t, `
@helper
def positive(a: int) -> bool:
    assert a > 0
    return True

def test_guarded():
    assert positive(1), "one is positive"
`)
	out, _ := Render(mod)
	text := string(out)
	assert.Contains(t, text, "fn positive(a: Int) -> Bool {\n  if a > 0 {\n    True\n  } else {\n    fail\n  }\n}\n")
	assert.Contains(t, text, "test guarded() {\n  expect positive(1)\n  True\n}\n")
	assert.NotContains(t, text, "one is positive")
}

func TestUnexpectedNodePanics(t *testing.T) {
	f := (&emitter{}).newFunc("f", &ir.Fail{}, false)
	assert.Panics(t, func() { f.expr(&ir.Let{Name: "x", Value: ir.IntLit("1", diag.Pos{}), Body: &ir.Fail{}}) })
}
