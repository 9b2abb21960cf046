package types

// Subst maps quantified-parameter names to the types replacing them.
// Grounded on the teacher's typesystem.Subst (internal/typesystem/replace.go):
// a plain map plus a cycle-checked Apply so a pathological self-referential
// substitution (possible while tying a recursive binding's knot, §4.3)
// degrades to "leave the occurrence as-is" instead of looping forever.
type Subst map[string]Type

func copyVisited(v map[string]bool) map[string]bool {
	out := make(map[string]bool, len(v)+1)
	for k := range v {
		out[k] = true
	}
	return out
}

// Apply substitutes every QuantifiedType, ParamSpecType and
// TypeVarTupleDecl occurrence in t whose name s maps, walking the whole
// structure; a TypeVarDecl is left as it is.
func Apply(t Type, s Subst) Type {
	if len(s) == 0 || t == nil {
		return t
	}
	return applyVisited(t, s, map[string]bool{})
}

func applyVisited(t Type, s Subst, visited map[string]bool) Type {
	if t == nil {
		return nil
	}
	switch v := t.(type) {
	case QuantifiedType:
		if visited[v.Name] {
			return v
		}
		if repl, ok := s[v.Name]; ok {
			if q, ok := repl.(QuantifiedType); ok && q.Name == v.Name {
				return v
			}
			nv := copyVisited(visited)
			nv[v.Name] = true
			return applyVisited(repl, s, nv)
		}
		return v

	case ParamSpecType:
		if repl, ok := s[v.Name]; ok {
			return repl
		}
		return v

	case TypeVarTupleDecl:
		if repl, ok := s[v.Name]; ok {
			return repl
		}
		return v

	case ClassType:
		args := make([]Type, len(v.Args))
		for i, a := range v.Args {
			args[i] = applyVisited(a, s, visited)
		}
		return ClassType{Class: v.Class, Args: args}

	case TypedDictT:
		args := make([]Type, len(v.Args))
		for i, a := range v.Args {
			args[i] = applyVisited(a, s, visited)
		}
		fields := make(map[string]TypedDictField, len(v.Fields))
		for k, f := range v.Fields {
			f.Type = applyVisited(f.Type, s, visited)
			fields[k] = f
		}
		return TypedDictT{Class: v.Class, Args: args, Fields: fields}

	case TupleType:
		nt := TupleType{Kind: v.Kind}
		nt.Elements = applyAll(v.Elements, s, visited)
		if v.Element != nil {
			nt.Element = applyVisited(v.Element, s, visited)
		}
		nt.Prefix = applyAll(v.Prefix, s, visited)
		if v.Middle != nil {
			nt.Middle = applyVisited(v.Middle, s, visited)
		}
		nt.Suffix = applyAll(v.Suffix, s, visited)
		return Simplify(nt)

	case CallableType:
		nc := CallableType{Shape: v.Shape, ReturnType: applyVisited(v.ReturnType, s, visited)}
		nc.Params = make([]Param, len(v.Params))
		for i, p := range v.Params {
			np := p
			if p.Type != nil {
				np.Type = applyVisited(p.Type, s, visited)
			}
			nc.Params[i] = np
		}
		if v.ParamSpec != nil {
			if repl, ok := s[v.ParamSpec.Name]; ok {
				if ps, ok := repl.(*ParamSpecType); ok {
					nc.ParamSpec = ps
				} else if ps, ok := repl.(ParamSpecType); ok {
					nc.ParamSpec = &ps
				}
			} else {
				nc.ParamSpec = v.ParamSpec
			}
		}
		return nc

	case FunctionType:
		sig := applyVisited(v.Signature, s, visited).(CallableType)
		return FunctionType{Signature: sig, Kind: v.Kind, SourceName: v.SourceName}

	case BoundMethodType:
		return BoundMethodType{
			Object: applyVisited(v.Object, s, visited),
			Method: applyVisited(v.Method, s, visited),
		}

	case OverloadType:
		return OverloadType{Members: applyAll(v.Members, s, visited)}

	case ForallType:
		// Parameters of this Forall shadow outer substitutions of the same
		// name — do not descend into them.
		inner := make(Subst, len(s))
		for k, val := range s {
			shadowed := false
			for _, p := range v.Params {
				if p.Name == k {
					shadowed = true
					break
				}
			}
			if !shadowed {
				inner[k] = val
			}
		}
		if len(inner) == 0 {
			return v
		}
		return ForallType{Params: v.Params, Body: applyVisited(v.Body, inner, visited)}

	case UnionType:
		return Canonicalize(applyAll(v.Members, s, visited)...)

	case IntersectType:
		return IntersectType{Members: applyAll(v.Members, s, visited)}

	case TypeOfType:
		return TypeOfType{Of: applyVisited(v.Of, s, visited)}

	case TypeAliasType:
		return TypeAliasType{Name: v.Name, Style: v.Style, Params: v.Params, Body: applyVisited(v.Body, s, visited)}

	case GuardType:
		return GuardType{Kind: v.Kind, Of: applyVisited(v.Of, s, visited)}

	case UnpackType:
		return UnpackType{Of: applyVisited(v.Of, s, visited)}

	case ConcatenateType:
		return ConcatenateType{Prefix: applyAll(v.Prefix, s, visited), ParamSpec: applyVisited(v.ParamSpec, s, visited)}

	case DecorationType:
		return DecorationType{Kind: v.Kind, Of: applyVisited(v.Of, s, visited)}

	default:
		// Any, Never, None, Ellipsis, Literal, LiteralString, ClassDef,
		// TypeVarDecl (by identity, not by name-in-Subst), ModuleType,
		// SpecialFormType, Var: none of these contain substitutable
		// occurrences.
		return t
	}
}

func applyAll(ts []Type, s Subst, visited map[string]bool) []Type {
	if ts == nil {
		return nil
	}
	out := make([]Type, len(ts))
	for i, t := range ts {
		out[i] = applyVisited(t, s, visited)
	}
	return out
}

// Apply implements Type.Apply for every variant via the package-level
// function above, so callers can use either style.
func (t AnyType) Apply(s Subst) Type           { return t }
func (t NeverType) Apply(s Subst) Type         { return t }
func (t NoneType) Apply(s Subst) Type          { return t }
func (t EllipsisType) Apply(s Subst) Type      { return t }
func (t Literal) Apply(s Subst) Type           { return t }
func (t LiteralStringType) Apply(s Subst) Type { return t }
func (t ClassType) Apply(s Subst) Type         { return Apply(t, s) }
func (t ClassDef) Apply(s Subst) Type          { return t }
func (t TypedDictT) Apply(s Subst) Type        { return Apply(t, s) }
func (t TupleType) Apply(s Subst) Type         { return Apply(t, s) }
func (t CallableType) Apply(s Subst) Type      { return Apply(t, s) }
func (t FunctionType) Apply(s Subst) Type      { return Apply(t, s) }
func (t BoundMethodType) Apply(s Subst) Type   { return Apply(t, s) }
func (t OverloadType) Apply(s Subst) Type      { return Apply(t, s) }
func (t ForallType) Apply(s Subst) Type        { return Apply(t, s) }
func (t QuantifiedType) Apply(s Subst) Type    { return Apply(t, s) }
func (t TypeVarDecl) Apply(s Subst) Type       { return t }
func (t TypeVarTupleDecl) Apply(s Subst) Type  { return Apply(t, s) }
func (t ParamSpecType) Apply(s Subst) Type     { return Apply(t, s) }
func (t UnionType) Apply(s Subst) Type         { return Apply(t, s) }
func (t IntersectType) Apply(s Subst) Type     { return Apply(t, s) }
func (t TypeOfType) Apply(s Subst) Type        { return Apply(t, s) }
func (t TypeAliasType) Apply(s Subst) Type     { return Apply(t, s) }
func (t ModuleType) Apply(s Subst) Type        { return t }
func (t GuardType) Apply(s Subst) Type         { return Apply(t, s) }
func (t UnpackType) Apply(s Subst) Type        { return Apply(t, s) }
func (t ConcatenateType) Apply(s Subst) Type   { return Apply(t, s) }
func (t SpecialFormType) Apply(s Subst) Type   { return t }
func (t Var) Apply(s Subst) Type               { return t }
func (t DecorationType) Apply(s Subst) Type    { return Apply(t, s) }

// Simplify collapses a TupleType with an empty prefix, no middle, and
// empty suffix to TupleConcrete, per the data-model invariant.
func Simplify(t TupleType) Type {
	if t.Kind == TupleUnpacked && t.Middle == nil && len(t.Prefix) == 0 && len(t.Suffix) == 0 {
		return TupleType{Kind: TupleConcrete, Elements: []Type{}}
	}
	if t.Kind == TupleUnpacked && t.Middle == nil {
		return TupleType{Kind: TupleConcrete, Elements: append(append([]Type{}, t.Prefix...), t.Suffix...)}
	}
	return t
}
