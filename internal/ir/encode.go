package ir

import "fmt"

// Encode converts a module to its dump form. Slices keep source order;
// object keys are ordered by MarshalCanonical.
func Encode(m *Module) Object {
	obj := Object{
		"ir_version": Str(IRVersion),
		"source":     Str(m.Source),
		"digest":     Str(m.Digest),
	}

	imports := make(Array, 0, len(m.Imports))
	for _, imp := range m.Imports {
		o := Object{"module": Str(imp.Module)}
		if imp.Name != "" {
			o["name"] = Str(imp.Name)
		}
		if imp.Alias != "" {
			o["alias"] = Str(imp.Alias)
		}
		imports = append(imports, o)
	}
	obj["imports"] = imports

	types := make(Array, 0, len(m.Types))
	for _, t := range m.Types {
		o := Object{
			"name": Str(t.Name),
			"kind": Str(t.Kind.String()),
			"pos":  Str(t.Pos.String()),
		}
		switch t.Kind {
		case DeclRecord:
			fields := make(Array, 0, len(t.Fields))
			for _, f := range t.Fields {
				fields = append(fields, Object{"name": Str(f.Name), "type": Str(f.Type.String())})
			}
			o["fields"] = fields
		case DeclEnum:
			tags := make(Array, 0, len(t.Tags))
			for _, tag := range t.Tags {
				tags = append(tags, Str(tag))
			}
			o["tags"] = tags
		}
		types = append(types, o)
	}
	obj["types"] = types

	validators := make(Array, 0, len(m.Validators))
	for _, v := range m.Validators {
		params := encodeParams(v.Params)
		for i, r := range v.Roles {
			if i < len(params) {
				params[i].(Object)["role"] = Str(r.String())
			}
		}
		validators = append(validators, Object{
			"block":  Str(v.Block),
			"name":   Str(v.Name),
			"kind":   Str(v.Kind.String()),
			"params": params,
			"body":   EncodeNode(v.Body),
			"pos":    Str(v.Pos.String()),
		})
	}
	obj["validators"] = validators

	helpers := make(Array, 0, len(m.Helpers))
	for _, h := range m.Helpers {
		helpers = append(helpers, Object{
			"name":   Str(h.Name),
			"params": encodeParams(h.Params),
			"return": Str(h.Return.String()),
			"body":   EncodeNode(h.Body),
			"pos":    Str(h.Pos.String()),
		})
	}
	obj["helpers"] = helpers

	tests := make(Array, 0, len(m.Tests))
	for _, t := range m.Tests {
		tests = append(tests, Object{
			"name": Str(t.Name),
			"body": EncodeNode(t.Body),
			"pos":  Str(t.Pos.String()),
		})
	}
	obj["tests"] = tests

	return obj
}

func encodeParams(params []Param) Array {
	out := make(Array, 0, len(params))
	for _, p := range params {
		out = append(out, Object{"name": Str(p.Name), "type": Str(p.Type.String())})
	}
	return out
}

// EncodeNode converts one IR node to its dump form. Every object carries a
// "node" discriminator.
func EncodeNode(n Node) Value {
	switch v := n.(type) {
	case nil:
		return Object{"node": Str("empty")}
	case *Literal:
		o := Object{"node": Str("literal"), "kind": Str(v.Kind.String())}
		switch v.Kind {
		case LitList, LitTuple:
			o["elems"] = encodeNodes(v.Elems)
		default:
			o["text"] = Str(v.Text)
		}
		return o
	case *NameRef:
		o := Object{"node": Str("name"), "name": Str(v.Name)}
		if v.Field != "" {
			o["field"] = Str(v.Field)
		}
		if v.Index != nil {
			o["index"] = EncodeNode(v.Index)
		}
		return o
	case *BinaryOp:
		return Object{
			"node":  Str("binary"),
			"op":    Str(v.Op),
			"left":  EncodeNode(v.Left),
			"right": EncodeNode(v.Right),
		}
	case *UnaryOp:
		return Object{"node": Str("unary"), "op": Str(v.Op), "operand": EncodeNode(v.Operand)}
	case *Call:
		args := make(Array, 0, len(v.Args))
		for _, a := range v.Args {
			o := Object{"value": EncodeNode(a.Value)}
			if a.Label != "" {
				o["label"] = Str(a.Label)
			}
			args = append(args, o)
		}
		o := Object{"node": Str("call"), "func": Str(v.Func), "args": args}
		if v.Module != "" {
			o["module"] = Str(v.Module)
		}
		if v.Enum != "" {
			o["enum"] = Str(v.Enum)
		}
		if v.Constructor {
			o["constructor"] = Bool(true)
		}
		return o
	case *Let:
		o := Object{
			"node":  Str("let"),
			"name":  Str(v.Name),
			"value": EncodeNode(v.Value),
			"body":  EncodeNode(v.Body),
		}
		if !v.Type.IsZero() {
			o["type"] = Str(v.Type.String())
		}
		return o
	case *Conditional:
		return Object{
			"node": Str("if"),
			"cond": EncodeNode(v.Cond),
			"then": EncodeNode(v.Then),
			"else": EncodeNode(v.Else),
		}
	case *Match:
		arms := make(Array, 0, len(v.Arms))
		for _, arm := range v.Arms {
			o := Object{"body": EncodeNode(arm.Body)}
			if arm.Wildcard() {
				o["wildcard"] = Bool(true)
			} else {
				o["patterns"] = encodeNodes(arm.Patterns)
			}
			arms = append(arms, o)
		}
		return Object{"node": Str("match"), "subject": EncodeNode(v.Subject), "arms": arms}
	case *Guard:
		o := Object{"node": Str("guard"), "cond": EncodeNode(v.Cond), "body": EncodeNode(v.Body)}
		if v.Message != "" {
			o["message"] = Str(v.Message)
		}
		return o
	case *Fail:
		o := Object{"node": Str("fail")}
		if v.Message != "" {
			o["message"] = Str(v.Message)
		}
		return o
	case *TailValue:
		return Object{"node": Str("tail"), "value": EncodeNode(v.Value)}
	case *Trace:
		return Object{"node": Str("trace"), "message": Str(v.Message), "body": EncodeNode(v.Body)}
	default:
		return Object{"node": Str(fmt.Sprintf("%T", n))}
	}
}

func encodeNodes(nodes []Node) Array {
	out := make(Array, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, EncodeNode(n))
	}
	return out
}
