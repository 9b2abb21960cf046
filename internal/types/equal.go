package types

import "reflect"

// Equal reports whether a and b are the same type up to alpha-equivalence
// of ForallType parameters (two Foralls are equal if renaming one's
// parameters to the other's yields structurally equal bodies) — grounded
// on the teacher's reflect.DeepEqual-based comparisons in
// internal/typesystem/unify.go, extended with the one case (Forall) where
// naive deep equality is wrong.
func Equal(a, b Type) bool {
	fa, aIsForall := a.(ForallType)
	fb, bIsForall := b.(ForallType)
	if aIsForall != bIsForall {
		return false
	}
	if aIsForall {
		return forallEqual(fa, fb)
	}
	return reflect.DeepEqual(a, b)
}

func forallEqual(a, b ForallType) bool {
	if len(a.Params) != len(b.Params) {
		return false
	}
	s := Subst{}
	for i, p := range a.Params {
		s[p.Name] = QuantifiedType{Name: b.Params[i].Name}
	}
	renamed := Apply(a.Body, s)
	return reflect.DeepEqual(renamed, b.Body)
}
