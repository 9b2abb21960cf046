package classmeta

import "github.com/oxhq/pyrechk/internal/types"

// linearize computes bases' combined C3 MRO, self prepended, per spec
// §4.5: "MRO is computed by the standard algorithm; linearization
// failure records an error and leaves ancestry empty." No third-party
// graph library in the example pack implements class linearization (the
// teacher's Funxy has single-dispatch traits, not nominal multiple
// inheritance); the algorithm itself is the well-known C3 merge, the same
// shape as CPython's own `mro()`.
func linearize(self *types.ClassObject, bases []*types.ClassObject, ancestryOf func(*types.ClassObject) []*types.ClassObject) ([]*types.ClassObject, bool) {
	sequences := make([][]*types.ClassObject, 0, len(bases)+1)
	for _, b := range bases {
		seq := ancestryOf(b)
		if len(seq) == 0 {
			seq = []*types.ClassObject{b}
		}
		sequences = append(sequences, append([]*types.ClassObject{}, seq...))
	}
	sequences = append(sequences, append([]*types.ClassObject{}, bases...))

	result := []*types.ClassObject{self}
	for {
		sequences = dropEmpty(sequences)
		if len(sequences) == 0 {
			return result, true
		}
		head, ok := c3Head(sequences)
		if !ok {
			return nil, false
		}
		result = append(result, head)
		for i, seq := range sequences {
			sequences[i] = removeFirstOccurrence(seq, head)
		}
	}
}

func c3Head(sequences [][]*types.ClassObject) (*types.ClassObject, bool) {
	for _, seq := range sequences {
		if len(seq) == 0 {
			continue
		}
		candidate := seq[0]
		if !appearsInTail(sequences, candidate) {
			return candidate, true
		}
	}
	return nil, false
}

func appearsInTail(sequences [][]*types.ClassObject, candidate *types.ClassObject) bool {
	for _, seq := range sequences {
		for i, c := range seq {
			if i == 0 {
				continue
			}
			if c == candidate {
				return true
			}
		}
	}
	return false
}

func removeFirstOccurrence(seq []*types.ClassObject, target *types.ClassObject) []*types.ClassObject {
	out := make([]*types.ClassObject, 0, len(seq))
	for _, c := range seq {
		if c == target {
			continue
		}
		out = append(out, c)
	}
	return out
}

func dropEmpty(sequences [][]*types.ClassObject) [][]*types.ClassObject {
	out := sequences[:0]
	for _, seq := range sequences {
		if len(seq) > 0 {
			out = append(out, seq)
		}
	}
	return out
}
