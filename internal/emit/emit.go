package emit

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/roach88/pyken/internal/diag"
	"github.com/roach88/pyken/internal/ir"
)

const (
	modList = "aiken/collection/list"
	modMath = "aiken/math"
)

// item is one top-level definition, positioned by the source index of its
// first function.
type item struct {
	index int
	text  string
}

// emitter renders one module. It is not safe for concurrent use; each
// worker renders its own modules.
type emitter struct {
	mod   *ir.Module
	diags diag.List

	values  *namer            // validator, fn and test names
	helpers map[string]string // source helper name -> target name

	decls       map[string]*ir.TypeDecl
	types       *namer              // type and constructor names
	typeRenames map[string][]rename // declared type -> renames of it and its tags
	seen        map[string]bool     // declared types the output references

	// bindings are the module qualifiers the output can use. Locals never
	// take one of these names.
	bindings []string

	uses *useSet
	refs map[string]bool // free identifiers, for passthrough imports
}

// Render turns a module into target source text. The output depends only
// on mod: rendering the same module twice yields identical bytes. The
// returned diagnostics are informational renames.
func Render(mod *ir.Module) ([]byte, diag.List) {
	e := &emitter{
		mod:     mod,
		values:  newNamer(),
		helpers: map[string]string{},
		decls:       map[string]*ir.TypeDecl{},
		types:       newNamer(),
		typeRenames: map[string][]rename{},
		seen:        map[string]bool{},
		bindings:    moduleBindings(mod.Imports),
		uses:        newUseSet(),
		refs:        map[string]bool{},
	}
	e.nameTypes()

	blocks := groupBlocks(mod.Validators)
	e.nameValues(blocks)

	var items []item
	for _, b := range blocks {
		items = append(items, item{index: b.index, text: e.validator(b)})
	}
	for _, h := range mod.Helpers {
		items = append(items, item{index: h.Index, text: e.helper(h)})
	}
	for _, t := range mod.Tests {
		items = append(items, item{index: t.Index, text: e.test(t)})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].index < items[j].index })

	types := e.typeDecls()
	e.passthrough()

	var out strings.Builder
	fmt.Fprintf(&out, "// Code generated by pyken from %s. DO NOT EDIT.\n", mod.Source)
	fmt.Fprintf(&out, "// source sha256:%s\n", mod.Digest)
	if lines := e.uses.lines(); len(lines) > 0 {
		out.WriteString("\n")
		for _, l := range lines {
			out.WriteString(l)
			out.WriteString("\n")
		}
	}
	for _, t := range types {
		out.WriteString("\n")
		out.WriteString(t)
	}
	for _, it := range items {
		out.WriteString("\n")
		out.WriteString(it.text)
	}
	return []byte(out.String()), e.diags
}

// block is one validator block: the handlers sharing a Block name.
type block struct {
	name     string
	index    int
	handlers []ir.ValidatorSpec
}

func groupBlocks(specs []ir.ValidatorSpec) []*block {
	var blocks []*block
	byName := map[string]*block{}
	for _, v := range specs {
		b, ok := byName[v.Block]
		if !ok {
			b = &block{name: v.Block, index: v.Index}
			byName[v.Block] = b
			blocks = append(blocks, b)
		}
		if v.Index < b.index {
			b.index = v.Index
		}
		b.handlers = append(b.handlers, v)
	}
	for _, b := range blocks {
		sort.SliceStable(b.handlers, func(i, j int) bool { return b.handlers[i].Index < b.handlers[j].Index })
	}
	return blocks
}

type named struct {
	index  int
	source string
	base   string
	pos    diag.Pos
	helper bool
}

// nameValues assigns module-level names in source order, so a rename
// always falls on the later definition.
func (e *emitter) nameValues(blocks []*block) {
	var all []named
	for _, b := range blocks {
		all = append(all, named{index: b.index, source: "validator " + b.name, base: snake(b.name), pos: b.handlers[0].Pos})
	}
	for _, h := range e.mod.Helpers {
		all = append(all, named{index: h.Index, source: h.Name, base: snake(h.Name), pos: h.Pos, helper: true})
	}
	for _, t := range e.mod.Tests {
		all = append(all, named{index: t.Index, source: "test " + t.Name, base: snake(strings.TrimPrefix(t.Name, "test_")), pos: t.Pos})
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].index < all[j].index })

	for _, n := range all {
		target := e.declare(e.values, n.source, n.base, n.pos, strings.TrimPrefix(strings.TrimPrefix(n.source, "validator "), "test "))
		if n.helper {
			e.helpers[n.source] = target
		}
	}
}

// nameTypes assigns type and constructor names in declaration order.
// Record and unit names are also constructors, so one namer covers both
// and an enum tag can never repeat another type's constructor.
func (e *emitter) nameTypes() {
	for i := range e.mod.Types {
		d := &e.mod.Types[i]
		e.decls[d.Name] = d
		before := len(e.types.renames)
		e.types.declare(d.Name, pascal(d.Name))
		for _, tag := range d.Tags {
			e.types.declare(tagKey(d.Name, tag), pascal(tag))
		}
		e.typeRenames[d.Name] = e.types.renames[before:]
	}
}

func tagKey(enum, tag string) string {
	return enum + "." + tag
}

// typeTarget returns the target name of a declared type.
func (e *emitter) typeTarget(name string) string {
	target, _ := e.types.lookup(name)
	return target
}

// moduleBindings lists the qualifiers a module's output may reference:
// the library modules calls are rendered against and every passthrough
// import, which binds its last path segment and its alias.
func moduleBindings(imports []ir.Import) []string {
	out := []string{path.Base(modList), path.Base(modMath)}
	for _, imp := range imports {
		out = append(out, path.Base(imp.Module))
		if imp.Name != "" {
			out = append(out, imp.Name)
		}
		if imp.Alias != "" {
			out = append(out, imp.Alias)
		}
	}
	return out
}

// declare binds a name and reports any rename as IdentifierCollision.
func (e *emitter) declare(n *namer, source, base string, pos diag.Pos, fn string) string {
	before := len(n.renames)
	target := n.declare(source, base)
	for _, r := range n.renames[before:] {
		from := strings.TrimPrefix(strings.TrimPrefix(r.from, "validator "), "test ")
		e.diags.Add(diag.KindIdentifierCollision, e.mod.Source, pos, fn,
			"%s renamed to %s: %s", from, r.to, r.why)
	}
	return target
}

func qualified(v ir.ValidatorSpec) string {
	if v.Block == v.Name {
		return v.Name
	}
	return v.Block + "." + v.Name
}

func (e *emitter) validator(b *block) string {
	w := &writer{}
	name, _ := e.values.lookup("validator " + b.name)
	w.line("validator %s {", name)
	w.indent()
	for i, v := range b.handlers {
		if i > 0 {
			w.blank()
		}
		f := e.newFunc(qualified(v), v.Body, false)
		w.line("%s(%s) {", v.Kind.Handler(), f.params(v.Params))
		w.indent()
		f.block(w, v.Body)
		w.dedent()
		w.line("}")
	}
	w.dedent()
	w.line("}")
	return w.String()
}

func (e *emitter) helper(h ir.HelperSpec) string {
	w := &writer{}
	f := e.newFunc(h.Name, h.Body, false)
	sig := fmt.Sprintf("fn %s(%s)", e.helpers[h.Name], f.params(h.Params))
	if !h.Return.IsZero() {
		sig += " -> " + e.typeRef(h.Return)
	}
	w.line("%s {", sig)
	w.indent()
	f.block(w, h.Body)
	w.dedent()
	w.line("}")
	return w.String()
}

func (e *emitter) test(t ir.TestSpec) string {
	w := &writer{}
	name, _ := e.values.lookup("test " + t.Name)
	f := e.newFunc(t.Name, t.Body, true)
	w.line("test %s() {", name)
	w.indent()
	f.block(w, t.Body)
	w.dedent()
	w.line("}")
	return w.String()
}

// typeRef renders a type and records what it needs: imports for library
// types, declarations for file types.
func (e *emitter) typeRef(t ir.TypeRef) string {
	t.Uses(e.uses.add)
	return e.typeName(t)
}

func (e *emitter) typeName(t ir.TypeRef) string {
	name := t.Name
	if _, ok := e.decls[name]; ok && t.Module == "" {
		e.seen[name] = true
		name = e.typeTarget(name)
	}
	if len(t.Args) == 0 {
		return name
	}
	args := make([]string, len(t.Args))
	for i, a := range t.Args {
		args[i] = e.typeName(a)
	}
	return fmt.Sprintf("%s<%s>", name, strings.Join(args, ", "))
}

// typeDecls renders the declarations the output references, including
// those only reachable through record fields, in declaration order.
func (e *emitter) typeDecls() []string {
	rendered := map[string]string{}
	for {
		progress := false
		for _, d := range e.mod.Types {
			if e.seen[d.Name] && rendered[d.Name] == "" {
				rendered[d.Name] = e.typeDecl(d)
				progress = true
			}
		}
		if !progress {
			break
		}
	}
	var out []string
	for _, d := range e.mod.Types {
		r := rendered[d.Name]
		if r == "" {
			continue
		}
		out = append(out, r)
		for _, rn := range e.typeRenames[d.Name] {
			e.diags.Add(diag.KindIdentifierCollision, e.mod.Source, d.Pos, "",
				"%s renamed to %s: %s", rn.from, rn.to, rn.why)
		}
	}
	return out
}

func (e *emitter) typeDecl(d ir.TypeDecl) string {
	w := &writer{}
	name := e.typeTarget(d.Name)
	w.line("pub type %s {", name)
	w.indent()
	switch d.Kind {
	case ir.DeclRecord:
		for _, f := range d.Fields {
			w.line("%s: %s,", escape(snake(f.Name)), e.typeRef(f.Type))
		}
	case ir.DeclEnum:
		for _, tag := range d.Tags {
			w.line("%s", e.typeTarget(tagKey(d.Name, tag)))
		}
	default:
		w.line("%s", name)
	}
	w.dedent()
	w.line("}")
	return w.String()
}

// passthrough adds the source imports whose bound name the output uses.
func (e *emitter) passthrough() {
	for _, imp := range e.mod.Imports {
		switch {
		case imp.Name == "":
			binding := imp.Module[strings.LastIndex(imp.Module, "/")+1:]
			if imp.Alias != "" {
				binding = imp.Alias
			}
			if e.refs[binding] {
				e.uses.module(imp.Module, imp.Alias)
			}
		case imp.Alias != "":
			if e.refs[imp.Alias] {
				e.uses.add(imp.Module, imp.Name+" as "+imp.Alias)
			}
		default:
			if e.refs[imp.Name] {
				e.uses.add(imp.Module, imp.Name)
			}
		}
	}
}

// writer accumulates indented lines.
type writer struct {
	b     strings.Builder
	depth int
}

func (w *writer) indent() { w.depth++ }
func (w *writer) dedent() { w.depth-- }

func (w *writer) blank() { w.b.WriteString("\n") }

func (w *writer) line(format string, args ...any) {
	w.b.WriteString(strings.Repeat("  ", w.depth))
	fmt.Fprintf(&w.b, format, args...)
	w.b.WriteString("\n")
}

func (w *writer) String() string { return w.b.String() }
