package types

// Canonicalize builds a UnionType from candidates, applying the
// data-model invariants: flatten nested unions, drop duplicates (by
// Equal), and collapse a one-element result down to that element. It does
// NOT absorb Any into the whole union — per §3, unions containing Any are
// preserved for subtyping and only collapsed in Display.
func Canonicalize(candidates ...Type) Type {
	var flat []Type
	var flatten func(Type)
	flatten = func(t Type) {
		if u, ok := t.(UnionType); ok {
			for _, m := range u.Members {
				flatten(m)
			}
			return
		}
		flat = append(flat, t)
	}
	for _, c := range candidates {
		flatten(c)
	}

	var deduped []Type
	for _, t := range flat {
		dup := false
		for _, u := range deduped {
			if Equal(t, u) {
				dup = true
				break
			}
		}
		if !dup {
			deduped = append(deduped, t)
		}
	}

	if len(deduped) == 0 {
		return NeverType{}
	}
	if len(deduped) == 1 {
		return deduped[0]
	}
	return UnionType{Members: deduped}
}

// Intersect builds an IntersectType the same way Canonicalize builds a
// union: flatten, dedup, collapse singletons.
func Intersect(candidates ...Type) Type {
	var flat []Type
	var flatten func(Type)
	flatten = func(t Type) {
		if i, ok := t.(IntersectType); ok {
			for _, m := range i.Members {
				flatten(m)
			}
			return
		}
		flat = append(flat, t)
	}
	for _, c := range candidates {
		flatten(c)
	}
	var deduped []Type
	for _, t := range flat {
		dup := false
		for _, u := range deduped {
			if Equal(t, u) {
				dup = true
				break
			}
		}
		if !dup {
			deduped = append(deduped, t)
		}
	}
	if len(deduped) == 0 {
		return AnyType{Provenance: ProvImplicit}
	}
	if len(deduped) == 1 {
		return deduped[0]
	}
	return IntersectType{Members: deduped}
}

// UnionModules merges the submodule sets of two ModuleType candidates
// that share a dotted path, per §4.4's union-construction rule for
// Module types.
func UnionModules(a, b ModuleType) ModuleType {
	out := ModuleType{Path: a.Path, Submodules: map[string]bool{}}
	for k := range a.Submodules {
		out.Submodules[k] = true
	}
	for k := range b.Submodules {
		out.Submodules[k] = true
	}
	return out
}
