package pipeline

import (
	"github.com/roach88/pyken/internal/compiler"
	"github.com/roach88/pyken/internal/config"
	"github.com/roach88/pyken/internal/ir"
)

// TypeMappings converts project type entries to compiler mappings.
func TypeMappings(entries []config.NamedType) []compiler.TypeMapping {
	out := make([]compiler.TypeMapping, 0, len(entries))
	for _, e := range entries {
		target := ir.TypeRef{Name: e.Name, Module: e.Module}
		m := compiler.TypeMapping{Source: e.Source, Target: target, Rule: compiler.RuleDirect}
		if e.Option {
			m.Target = ir.OptionOf(target)
			m.Rule = compiler.RuleOption
		}
		out = append(out, m)
	}
	return out
}
