package genuprimer

import "strings"

// Expectation classifies accepted hits as expected or not against the
// locus the primers were designed for.
type Expectation struct {
	// SourceID is the id of the sequence the pair was designed from.
	// With loaded primer files it is only a user-supplied prefix of
	// that id; PrefixMatch selects the weaker comparison then.
	SourceID    string
	PrefixMatch bool

	// External is set when the design template came from outside the
	// validation collection: no hit against the collection can be a
	// true positive then
	External bool

	// IncludedBegin and IncludedEnd bound the design region derived
	// from the product-size range; an expected hit lies inside it
	IncludedBegin int
	IncludedEnd   int

	// TargetBegin and TargetEnd are the declared target window the
	// primers have to flank without overlapping it
	TargetBegin int
	TargetEnd   int
}

// Expected reports whether a hit is the one the pair was designed to
// produce: right reference, inside the design region, primers flanking
// the target window. A pair designed from an external template never
// yields an expected hit.
func (e Expectation) Expected(ins Insert) bool {
	if e.External {
		return false
	}

	if e.PrefixMatch {
		if !strings.HasPrefix(ins.Ref, e.SourceID) {
			return false
		}
	} else if ins.Ref != e.SourceID {
		return false
	}

	if ins.Start < e.IncludedBegin || ins.Stop > e.IncludedEnd {
		return false
	}

	// the primers must flank the target window, not reach into it
	fwdRightEdge := ins.Fwd.Pos + len(ins.Fwd.Seq) - 1
	return fwdRightEdge < e.TargetBegin && e.TargetEnd < ins.Rev.Pos
}
