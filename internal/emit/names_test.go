package emit

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/pyken/internal/ir"
)

func TestSnake(t *testing.T) {
	tests := map[string]string{
		"owner":       "owner",
		"ownerPkh":    "owner_pkh",
		"HTTPServer":  "http_server",
		"CheckDatum":  "check_datum",
		"_datum":      "_datum",
		"value2Out":   "value2_out",
		"café":        "caf_",
		"already_set": "already_set",
	}
	for in, want := range tests {
		assert.Equal(t, want, snake(in), in)
	}
}

func TestPascal(t *testing.T) {
	tests := map[string]string{
		"Action":     "Action",
		"VaultDatum": "VaultDatum",
		"my_datum":   "MyDatum",
		"open":       "Open",
		"OPEN":       "OPEN",
		"_":          "T",
	}
	for in, want := range tests {
		assert.Equal(t, want, pascal(in), in)
	}
}

func TestEscape(t *testing.T) {
	assert.Equal(t, "when_", escape("when"))
	assert.Equal(t, "validator_", escape("validator"))
	assert.Equal(t, "spend", escape("spend"))
}

func TestNamer(t *testing.T) {
	n := newNamer()
	assert.Equal(t, "my_value", n.declare("myValue", "my_value"))
	assert.Equal(t, "my_value_1", n.declare("my_value", "my_value"))
	assert.Equal(t, "my_value", n.declare("myValue", "my_value"), "same source, same name")
	assert.Equal(t, "let_", n.declare("let", "let"))
	assert.Equal(t, "_", n.declare("_", "_"))
	assert.Equal(t, "_", n.declare("_x", "_"), "discards may repeat")
	assert.Equal(t, "value", n.declare("", ""))

	assert.Equal(t, []rename{
		{from: "my_value", to: "my_value_1", why: "collides with my_value"},
		{from: "let", to: "let_", why: "is a reserved word"},
	}, n.renames)
}

func TestNamerReserve(t *testing.T) {
	tests := []struct {
		name     string
		reserved []string
		source   string
		want     string
		renamed  bool
	}{
		{name: "library module", reserved: []string{"list", "math"}, source: "list", want: "list_1", renamed: true},
		{name: "import alias", reserved: []string{"crypto"}, source: "crypto", want: "crypto_1", renamed: true},
		{name: "suffix taken", reserved: []string{"math", "math_1"}, source: "math", want: "math_2", renamed: true},
		{name: "free name", reserved: []string{"list"}, source: "lists", want: "lists"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := newNamer()
			for _, r := range tt.reserved {
				n.reserve(r)
			}
			assert.Equal(t, tt.want, n.declare(tt.source, tt.source))
			if tt.renamed {
				assert.Equal(t, []rename{{from: tt.source, to: tt.want, why: "collides with " + tt.source}}, n.renames)
			} else {
				assert.Empty(t, n.renames)
			}
		})
	}
}

func TestReserveBindsNothing(t *testing.T) {
	n := newNamer()
	n.reserve("list")
	_, ok := n.lookup("list")
	assert.False(t, ok)
}

func TestModuleBindings(t *testing.T) {
	got := moduleBindings([]ir.Import{
		{Module: "aiken/crypto", Alias: "c"},
		{Module: "cardano/assets", Name: "PolicyId"},
		{Module: "aiken/interval", Name: "Interval", Alias: "Range"},
	})
	assert.Equal(t, []string{"list", "math", "crypto", "c", "assets", "PolicyId", "interval", "Interval", "Range"}, got)
}

func TestNamerIsIdempotent(t *testing.T) {
	sources := []string{"fooBar", "foo_bar", "foo_bar_1", "type", "type_"}
	run := func() []string {
		n := newNamer()
		out := make([]string, len(sources))
		for i, s := range sources {
			out[i] = n.declare(s, snake(s))
		}
		return out
	}
	first := run()
	assert.Equal(t, []string{"foo_bar", "foo_bar_1", "foo_bar_1_1", "type_", "type__1"}, first)
	assert.Equal(t, first, run())

	// Feeding the output back in changes nothing.
	n := newNamer()
	for _, name := range first {
		assert.Equal(t, escape(name), n.declare(name, name))
	}
}

func TestArtifactPath(t *testing.T) {
	tests := map[string]string{
		"vault.py":                        "vault.ak",
		"PyKen Validators/l2-datum.py":    "pyken_validators/l2_datum.ak",
		"Pymodule 201/l1-redeemer.py":     "pymodule_201/l1_redeemer.ak",
		"pkg/__init__.py":                 "pkg/init.ak",
		"2024/test.py":                    "m2024/test_.ak",
		"./nested/../flat/Check_Datum.py": "flat/check_datum.ak",
	}
	for in, want := range tests {
		assert.Equal(t, want, ArtifactPath(in), in)
	}
}

func TestPathsAssignSuffixes(t *testing.T) {
	p := NewPaths()
	assert.Equal(t, "a/vault.ak", p.Assign("a/vault.py"))
	assert.Equal(t, "a/vault_1.ak", p.Assign("a/Vault.py"))
	assert.Equal(t, "a/vault_2.ak", p.Assign("a/vault .py"))
	assert.Equal(t, "b/vault.ak", p.Assign("b/vault.py"))
}
