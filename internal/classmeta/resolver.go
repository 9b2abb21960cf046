package classmeta

import "github.com/oxhq/pyrechk/internal/types"

// Ancestors implements unify.ClassResolver: cls's MRO, cls itself first.
// Classes this table never computed metadata for (builtins, another
// module's classes reached only by reference) report no further
// ancestry — unify's subtype check then falls back to identity
// comparison for them, same as spec §4.5's "linearization failure ...
// leaves ancestry empty".
func (t *Table) Ancestors(cls *types.ClassObject) []*types.ClassObject {
	m, ok := t.metaOf(cls)
	if !ok || len(m.MRO) == 0 {
		return []*types.ClassObject{cls}
	}
	return m.MRO
}

// IsProtocol implements unify.ClassResolver.
func (t *Table) IsProtocol(cls *types.ClassObject) bool {
	if cls.IsProtocol {
		return true
	}
	m, ok := t.metaOf(cls)
	return ok && m.Flavor == FlavorProtocol
}

// Member implements unify.ClassResolver and backs ordinary attribute
// lookup: search cls's own fields, then each MRO ancestor in turn (spec
// §4.5 "Attribute lookup"), applying descriptor rules along the way.
func (t *Table) Member(cls *types.ClassObject, name string) (types.Type, bool) {
	for _, anc := range t.Ancestors(cls) {
		m, ok := t.metaOf(anc)
		if !ok {
			continue
		}
		if f, ok := m.Fields[name]; ok {
			return applyDescriptor(f), true
		}
	}
	return nil, false
}

// MemberOn looks up name as accessed through an instance of cls,
// returning the field's read-only-ness alongside its type (spec §4.5's
// write-side descriptor rules: a generic descriptor missing __set__
// marks the attribute read-only).
func (t *Table) MemberOn(cls *types.ClassObject, name string) (typ types.Type, readOnly bool, origin *types.ClassObject, ok bool) {
	for _, anc := range t.Ancestors(cls) {
		m, found := t.metaOf(anc)
		if !found {
			continue
		}
		if f, found := m.Fields[name]; found {
			return applyDescriptor(f), f.ReadOnly || (f.Decoration != nil && *f.Decoration == types.DecoPropertyGetter && !hasSetter(m, name)), anc, true
		}
	}
	return nil, false, nil, false
}

func hasSetter(m *Meta, name string) bool {
	f, ok := m.Fields[name+".setter"]
	return ok && f != nil
}

// applyDescriptor turns a property getter or setter field into the
// getter's return type and returns every other field's type unchanged:
// classmethods, staticmethods and plain functions are not bound here.
//
// This is the raw, un-bound signature both sides of satisfiesProtocol
// compare through Member; AccessMember below layers the real
// instance/classmethod/staticmethod binding rules on top without
// disturbing this symmetry.
func applyDescriptor(f *Field) types.Type {
	if f.Decoration == nil {
		return f.Type
	}
	switch *f.Decoration {
	case types.DecoPropertyGetter, types.DecoPropertySetter:
		if fn, ok := f.Type.(types.FunctionType); ok {
			return fn.Signature.ReturnType
		}
		return f.Type
	default:
		return f.Type
	}
}

// isCallableLike reports whether t is the shape of thing a descriptor
// binds (as opposed to a plain data attribute, which never gets wrapped
// into a bound method).
func isCallableLike(t types.Type) bool {
	switch t.(type) {
	case types.FunctionType, types.CallableType, types.OverloadType:
		return true
	}
	return false
}

// AccessMember resolves name as actually accessed through cls per spec
// §4.5's descriptor rules: classmethod reads always bind to the class
// object (even through an instance), staticmethod reads never bind
// anything, and a plain callable becomes a BoundMethodType only when
// instance is true. Unlike Member, this is deliberately asymmetric
// between the instance and class-object access paths, so it is kept
// separate rather than folded into Member, which satisfiesProtocol calls
// identically on both sides of a structural comparison.
func (t *Table) AccessMember(cls *types.ClassObject, name string, instance bool) (types.Type, bool) {
	for _, anc := range t.Ancestors(cls) {
		m, ok := t.metaOf(anc)
		if !ok {
			continue
		}
		f, ok := m.Fields[name]
		if !ok {
			continue
		}
		if f.Decoration != nil {
			switch *f.Decoration {
			case types.DecoPropertyGetter, types.DecoPropertySetter:
				return applyDescriptor(f), true
			case types.DecoClassMethod:
				return types.BoundMethodType{Object: types.ClassDef{Class: cls}, Method: f.Type}, true
			case types.DecoStaticMethod:
				return f.Type, true
			}
		}
		if instance && isCallableLike(f.Type) {
			return types.BoundMethodType{Object: types.ClassType{Class: cls}, Method: f.Type}, true
		}
		return f.Type, true
	}
	return nil, false
}

// HasMeta reports whether this table ever computed metadata for cls —
// true for classes this module defines, false for builtins and classes
// from modules whose internals aren't loaded. memberType uses this to
// tell "genuinely has no such attribute" apart from "this class's
// members simply aren't known here", since only the former should be
// reported as missing-attribute.
func (t *Table) HasMeta(cls *types.ClassObject) bool {
	_, ok := t.metaOf(cls)
	return ok
}

// ProtocolMembers implements unify.ClassResolver: every public name this
// protocol class declares directly (spec §4.5's structural check
// excludes names from `object` and dunder construction hooks, which a
// protocol declared purely from user syntax never carries anyway).
func (t *Table) ProtocolMembers(cls *types.ClassObject) []string {
	m, ok := t.metaOf(cls)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(m.Fields))
	for name := range m.Fields {
		if name == "__init__" || name == "__new__" {
			continue
		}
		out = append(out, name)
	}
	return out
}
