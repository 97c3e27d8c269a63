package genuprimer

// Policy decides whether an observed mismatch pattern still counts as
// true primer binding. Only the primer's 3' terminal bases matter: they
// are the ones polymerase extension depends on.
type Policy struct {
	// MustMatch terminal bases have to be perfect
	MustMatch int

	// Window is how many terminal bases the error budget covers
	Window int

	// MaxError is the number of mismatches tolerated within Window
	MaxError int
}

// NewPolicy normalizes the parameters: the window can never be shorter
// than the stretch that has to match perfectly.
func NewPolicy(mustMatch, window, maxError int) Policy {
	if window < mustMatch {
		window = mustMatch
	}
	return Policy{MustMatch: mustMatch, Window: window, MaxError: maxError}
}

// terminal selects the n 3'-terminal positions of a decoded mismatch
// sequence and returns them innermost-first (index 0 is the 3' base).
//
// The decoded sequence is in reference left-to-right order. For a
// forward-strand alignment that is the primer's 5'->3' direction, so
// the 3' end is the tail. For a reverse-strand alignment the reference
// order runs 3'->5' of the primer, so the 3' end is the head. Getting
// this branch wrong silently evaluates the wrong end of every reverse
// primer.
func terminal(mismatches []bool, strand Strand, n int) []bool {
	if n > len(mismatches) {
		n = len(mismatches)
	}

	out := make([]bool, n)
	if strand == Reverse {
		copy(out, mismatches[:n])
		return out
	}
	for i := 0; i < n; i++ {
		out[i] = mismatches[len(mismatches)-1-i]
	}
	return out
}

// Accept reports whether one aligned primer's mismatch pattern is
// acceptable as true binding: none of the innermost MustMatch terminal
// bases mismatched, and at most MaxError mismatches within the Window
// terminal bases.
func (p Policy) Accept(mismatches []bool, strand Strand) bool {
	term := terminal(mismatches, strand, p.Window)

	errors := 0
	for i, mm := range term {
		if !mm {
			continue
		}
		if i < p.MustMatch {
			return false
		}
		errors++
	}
	return errors <= p.MaxError
}

// AcceptInsert applies the policy to both mates of a candidate insert;
// a hit stands only if the forward and the reverse primer each pass
// independently.
func (p Policy) AcceptInsert(ins Insert) bool {
	return p.Accept(ins.Fwd.Mismatches, ins.Fwd.Strand()) &&
		p.Accept(ins.Rev.Mismatches, ins.Rev.Strand())
}
