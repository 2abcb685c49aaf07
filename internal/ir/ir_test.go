package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pyken/internal/diag"
)

func sampleModule() *Module {
	pos := diag.Pos{Line: 3, Column: 1}
	body := &Let{
		Name:  "limit",
		Type:  IntType,
		Value: IntLit("10", pos),
		Body: &Guard{
			Cond: &BinaryOp{Op: ">", Left: Ref("limit", pos), Right: IntLit("0", pos)},
			Body: &TailValue{Value: BoolLit(true, pos)},
		},
	}
	return &Module{
		Source:  "contracts/vault.py",
		Digest:  SourceDigest("x = 1\n"),
		Imports: []Import{{Module: "aiken/collection/list"}},
		Types: []TypeDecl{
			{Name: "Action", Kind: DeclEnum, Tags: []string{"Open", "Close"}},
			{Name: "Datum", Kind: DeclRecord, Fields: []FieldDecl{{Name: "owner", Type: ByteArrayType}}},
		},
		Validators: []ValidatorSpec{{
			Block:  "vault",
			Name:   "vault",
			Kind:   KindSpend,
			Roles:  KindSpend.Roles(),
			Params: []Param{{Name: "datum", Type: OptionOf(DataType)}, {Name: "redeemer", Type: DataType}, {Name: "ctx", Type: TypeRef{Name: "Transaction", Module: "cardano/transaction"}}},
			Body:   body,
			Pos:    pos,
		}},
	}
}

func TestTypeRefString(t *testing.T) {
	assert.Equal(t, "Int", IntType.String())
	assert.Equal(t, "Option<Data>", OptionOf(DataType).String())
	assert.Equal(t, "List<Option<Int>>", ListOf(OptionOf(IntType)).String())
	assert.True(t, TypeRef{}.IsZero())
	assert.True(t, ListOf(IntType).Same(TypeRef{Name: "List", Args: []TypeRef{{Name: "Int"}}}))
}

func TestTypeRefUses(t *testing.T) {
	ref := ListOf(TypeRef{Name: "OutputReference", Module: "cardano/transaction"})
	var got []string
	ref.Uses(func(module, name string) { got = append(got, module+"."+name) })
	assert.Equal(t, []string{"cardano/transaction.OutputReference"}, got)
}

func TestValidatorKindRoles(t *testing.T) {
	assert.Equal(t, []Role{RoleDatum, RoleRedeemer, RoleContext}, KindSpend.Roles())
	assert.Equal(t, []Role{RoleRedeemer, RoleContext}, KindMint.Roles())
	assert.Equal(t, []Role{RoleContext}, KindFallback.Roles())
	assert.Equal(t, "else", KindFallback.Handler())
	assert.Equal(t, "mint", KindMint.Handler())

	// Callers get a copy.
	roles := KindMint.Roles()
	roles[0] = RoleContext
	assert.Equal(t, RoleRedeemer, KindMint.Roles()[0])
}

func TestParseValidatorKind(t *testing.T) {
	for _, name := range []string{"else", "else_", "fallback"} {
		k, ok := ParseValidatorKind(name)
		require.True(t, ok, name)
		assert.Equal(t, KindFallback, k)
	}
	k, ok := ParseValidatorKind("withdraw")
	require.True(t, ok)
	assert.Equal(t, KindWithdraw, k)

	_, ok = ParseValidatorKind("vote")
	assert.False(t, ok)
}

func TestWalkOrder(t *testing.T) {
	var kinds []string
	Walk(sampleModule().Validators[0].Body, func(n Node) bool {
		switch v := n.(type) {
		case *Let:
			kinds = append(kinds, "let")
		case *Guard:
			kinds = append(kinds, "guard")
		case *BinaryOp:
			kinds = append(kinds, "op"+v.Op)
		case *NameRef:
			kinds = append(kinds, "ref:"+v.Name)
		case *Literal:
			kinds = append(kinds, "lit:"+v.Text)
		case *TailValue:
			kinds = append(kinds, "tail")
		}
		return true
	})
	assert.Equal(t, []string{"let", "lit:10", "guard", "op>", "ref:limit", "lit:0", "tail", "lit:True"}, kinds)
}

func TestWalkSkipsChildren(t *testing.T) {
	count := 0
	Walk(sampleModule().Validators[0].Body, func(n Node) bool {
		count++
		_, isGuard := n.(*Guard)
		return !isGuard
	})
	// let, lit:10, guard
	assert.Equal(t, 3, count)
}

func TestEncodeNodeShapes(t *testing.T) {
	got, err := MarshalCanonical(EncodeNode(&Call{
		Func:   "list.has",
		Module: "aiken/collection/list",
		Args:   []Arg{{Value: Ref("signers", diag.Pos{})}, {Value: StringLit("k", diag.Pos{})}},
	}))
	require.NoError(t, err)
	assert.Equal(t,
		`{"args":[{"value":{"name":"signers","node":"name"}},{"value":{"kind":"string","node":"literal","text":"k"}}],"func":"list.has","module":"aiken/collection/list","node":"call"}`,
		string(got))

	tag, err := MarshalCanonical(EncodeNode(&Call{Func: "Open", Enum: "Action", Constructor: true}))
	require.NoError(t, err)
	assert.Equal(t, `{"args":[],"constructor":true,"enum":"Action","func":"Open","node":"call"}`, string(tag))

	match, err := MarshalCanonical(EncodeNode(&Match{
		Subject: Ref("r", diag.Pos{}),
		Arms: []Arm{
			{Patterns: []Node{Ref("Open", diag.Pos{})}, Body: &TailValue{Value: BoolLit(true, diag.Pos{})}},
			{Body: &Fail{}},
		},
	}))
	require.NoError(t, err)
	assert.Contains(t, string(match), `"wildcard":true`)
	assert.Contains(t, string(match), `{"node":"fail"}`)
}

func TestFingerprintDeterministic(t *testing.T) {
	a, err := Fingerprint(sampleModule())
	require.NoError(t, err)
	b, err := Fingerprint(sampleModule())
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)

	changed := sampleModule()
	changed.Validators[0].Kind = KindMint
	c, err := Fingerprint(changed)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestDomainSeparation(t *testing.T) {
	data := []byte("same bytes")
	assert.NotEqual(t, hashWithDomain(DomainSource, data), hashWithDomain(DomainIR, data))
	assert.Equal(t, hashWithDomain(DomainSource, data), SourceDigest("same bytes"))
}

func TestModuleEmpty(t *testing.T) {
	assert.True(t, (&Module{}).Empty())
	assert.False(t, sampleModule().Empty())
}
