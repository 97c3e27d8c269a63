package genuprimer

import (
	"fmt"
	"strings"
)

// Strand is the orientation of an aligned primer relative to the
// reference sequence.
type Strand int

const (
	// Forward strand: reference left-to-right order is the primer's 5'->3'
	Forward Strand = iota

	// Reverse strand: reference left-to-right order is the primer's 3'->5'
	Reverse
)

func (s Strand) String() string {
	if s == Reverse {
		return "reverse"
	}
	return "forward"
}

// PrimerPair is one forward/reverse oligo pair as produced by the
// design engine or loaded from the primer files. Read-only after
// creation; downstream stages look it up by primer id.
type PrimerPair struct {
	// FwdID and RevID are the primer record ids (FASTA headers)
	FwdID string
	RevID string

	// FwdSeq and RevSeq are the primer sequences in 5'->3' direction
	FwdSeq string
	RevSeq string
}

// Key is the pair's identity for grouping hits: the sorted
// concatenation of the two primer ids
func (p PrimerPair) Key() string {
	if p.RevID < p.FwdID {
		return p.RevID + "+" + p.FwdID
	}
	return p.FwdID + "+" + p.RevID
}

// validate checks the source invariant: both sequences non-empty and
// drawn from the four-letter nucleotide alphabet, case-insensitive
func (p PrimerPair) validate() error {
	if err := validSeq(p.FwdSeq); err != nil {
		return fmt.Errorf("forward primer %s: %v", p.FwdID, err)
	}
	if err := validSeq(p.RevSeq); err != nil {
		return fmt.Errorf("reverse primer %s: %v", p.RevID, err)
	}
	return nil
}

func validSeq(seq string) error {
	if seq == "" {
		return fmt.Errorf("empty sequence")
	}
	for _, c := range strings.ToUpper(seq) {
		switch c {
		case 'A', 'C', 'G', 'T':
		default:
			return fmt.Errorf("non-nucleotide character %q in %s", c, seq)
		}
	}
	return nil
}

// pairIndex maps primer ids back to their pair and role so a flat
// stream of alignment records can be re-associated with its pairs
type pairIndex struct {
	pairs []PrimerPair

	// primer id -> index into pairs
	byFwd map[string]int
	byRev map[string]int
}

func newPairIndex(pairs []PrimerPair) *pairIndex {
	idx := &pairIndex{
		pairs: pairs,
		byFwd: make(map[string]int, len(pairs)),
		byRev: make(map[string]int, len(pairs)),
	}
	for i, p := range pairs {
		idx.byFwd[p.FwdID] = i
		idx.byRev[p.RevID] = i
	}
	return idx
}

// lookup resolves a record's primer id to its pair and the strand the
// primer was designed for. ok is false for ids no pair claims.
func (idx *pairIndex) lookup(id string) (pair PrimerPair, strand Strand, ok bool) {
	if i, found := idx.byFwd[id]; found {
		return idx.pairs[i], Forward, true
	}
	if i, found := idx.byRev[id]; found {
		return idx.pairs[i], Reverse, true
	}
	return PrimerPair{}, Forward, false
}
