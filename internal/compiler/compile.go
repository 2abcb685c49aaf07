// Package compiler lowers analyzed Python functions to the validator IR.
package compiler

import (
	"log/slog"
	"strings"

	"github.com/roach88/pyken/internal/diag"
	"github.com/roach88/pyken/internal/ir"
	"github.com/roach88/pyken/internal/source"
)

// Options control one file's compilation.
type Options struct {
	// Strict promotes warnings to fatal before functions are excluded.
	Strict bool

	// Types are project mappings layered over the builtin table.
	Types []TypeMapping

	// Logger receives debug output about heuristic decisions. Nil discards.
	Logger *slog.Logger
}

// unit is the per-file context shared by every function's translator. It
// is read-only once built.
type unit struct {
	path    string
	types   *TypeTable
	enums   map[string][]string // enum name -> tags in declaration order
	records map[string][]string // record name -> field names
	units   map[string]bool
	log     *slog.Logger
}

func (u *unit) isConstructor(name string) bool {
	_, record := u.records[name]
	return record || u.units[name]
}

func (u *unit) isEnumTag(enum, tag string) bool {
	for _, t := range u.enums[enum] {
		if t == tag {
			return true
		}
	}
	return false
}

// Compile translates one analyzed file into IR. Every function is compiled
// independently: a fatal diagnostic excludes only the function it belongs
// to. The returned list holds every diagnostic, including the issues the
// analyzer recorded, with strict promotion already applied.
func Compile(file *source.File, opts Options) (*ir.Module, diag.List) {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	u := &unit{
		path:    file.Path,
		enums:   map[string][]string{},
		records: map[string][]string{},
		units:   map[string]bool{},
		log:     log,
	}
	declared := make([]TypeMapping, 0, len(file.Classes))
	for _, c := range file.Classes {
		declared = append(declared, direct(c.Name, ir.TypeRef{Name: c.Name}))
		switch c.Kind {
		case source.ClassEnum:
			u.enums[c.Name] = c.Tags
		case source.ClassRecord:
			fields := make([]string, len(c.Fields))
			for i, f := range c.Fields {
				fields[i] = f.Name
			}
			u.records[c.Name] = fields
		case source.ClassUnit:
			u.units[c.Name] = true
		}
	}
	u.types = BuiltinTypes().Extend(opts.Types...).Extend(declared...)

	mod := &ir.Module{
		Source:  file.Path,
		Digest:  ir.SourceDigest(file.Text),
		Imports: imports(file.Imports),
	}

	var diags diag.List
	mod.Types = u.typeDecls(file.Classes, &diags)

	for _, fn := range file.Functions {
		fnDiags := u.function(fn, mod, opts.Strict)
		diags.Append(fnDiags...)
	}

	if opts.Strict {
		diags = diags.Promote()
	}
	return mod, diags
}

// function compiles one function and appends it to mod unless one of its
// diagnostics is fatal.
func (u *unit) function(fn *source.FunctionMetadata, mod *ir.Module, strict bool) diag.List {
	t := &translator{u: u, fn: fn.QualifiedName()}
	t.diags.Append(fn.Issues...)

	cls := Classify(fn)
	u.log.Debug("classified function", "file", u.path, "function", t.fn, "kind", describe(cls), "via", cls.Via)

	var add func()
	if len(fn.Issues) == 0 {
		switch cls.Output {
		case OutputValidator:
			if params, ok := t.validatorParams(fn, cls.Kind); ok {
				spec := ir.ValidatorSpec{
					Block:  fn.Name,
					Name:   fn.Name,
					Kind:   cls.Kind,
					Roles:  cls.Kind.Roles(),
					Params: params,
					Body:   t.block(fn.Body, paramScope(params), nil, fn.Pos),
					Pos:    fn.Pos,
					Index:  fn.Index,
				}
				if fn.Owner != "" {
					spec.Block = fn.Owner
				}
				add = func() { mod.Validators = append(mod.Validators, spec) }
			}

		case OutputHelper:
			params := t.helperParams(fn)
			var ret ir.TypeRef
			if fn.Returns != nil {
				ret = t.resolveType(fn.Returns, fn.Pos, "return value")
			}
			spec := ir.HelperSpec{
				Name:   fn.Name,
				Params: params,
				Return: ret,
				Body:   t.block(fn.Body, paramScope(params), nil, fn.Pos),
				Pos:    fn.Pos,
				Index:  fn.Index,
			}
			add = func() { mod.Helpers = append(mod.Helpers, spec) }

		case OutputTest:
			// A test that falls off its end passes.
			pass := func(*scope) ir.Node {
				return &ir.TailValue{Value: ir.BoolLit(true, fn.Pos), Pos: fn.Pos}
			}
			spec := ir.TestSpec{
				Name:  fn.Name,
				Body:  t.block(fn.Body, nil, pass, fn.Pos),
				Pos:   fn.Pos,
				Index: fn.Index,
			}
			add = func() { mod.Tests = append(mod.Tests, spec) }
		}
	}

	diags := dedupe(t.diags)
	if strict {
		diags = diags.Promote()
	}
	if diags.HasFatal() || add == nil {
		u.log.Debug("function excluded", "file", u.path, "function", t.fn, "diagnostics", len(diags))
		return diags
	}
	add()
	return diags
}

func describe(c Classification) string {
	switch c.Output {
	case OutputHelper:
		return "helper"
	case OutputTest:
		return "test"
	default:
		return c.Kind.String()
	}
}

func paramScope(params []ir.Param) *scope {
	var sc *scope
	for _, p := range params {
		sc = sc.bind(p.Name, p.Type)
	}
	return sc
}

// dedupe drops repeated diagnostics. A continuation shared by several
// branches is translated once per branch and reports the same findings.
func dedupe(l diag.List) diag.List {
	seen := make(map[diag.Diagnostic]bool, len(l))
	out := make(diag.List, 0, len(l))
	for _, d := range l {
		if seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out
}

func (u *unit) typeDecls(classes []*source.ClassDecl, diags *diag.List) []ir.TypeDecl {
	decls := make([]ir.TypeDecl, 0, len(classes))
	for _, c := range classes {
		decl := ir.TypeDecl{Name: c.Name, Pos: c.Pos}
		switch c.Kind {
		case source.ClassRecord:
			decl.Kind = ir.DeclRecord
			for _, f := range c.Fields {
				typ, unknown := u.types.Resolve(f.Annotation)
				if unknown != "" {
					diags.Add(diag.KindUnknownType, u.path, f.Pos, c.Name,
						"unknown type %s for field %s, using Data", unknown, f.Name)
				}
				decl.Fields = append(decl.Fields, ir.FieldDecl{Name: f.Name, Type: typ})
			}
		case source.ClassEnum:
			decl.Kind = ir.DeclEnum
			decl.Tags = append([]string(nil), c.Tags...)
		default:
			decl.Kind = ir.DeclUnit
		}
		decls = append(decls, decl)
	}
	return decls
}

// imports converts passthrough imports to slash-separated target modules.
func imports(in []source.Import) []ir.Import {
	out := make([]ir.Import, 0, len(in))
	for _, imp := range in {
		out = append(out, ir.Import{
			Module: strings.ReplaceAll(strings.TrimLeft(imp.Module, "."), ".", "/"),
			Name:   imp.Name,
			Alias:  imp.Alias,
		})
	}
	return out
}
