package genuprimer

import "log"

// Insert is a candidate genomic match for a primer pair: a forward and
// a reverse record on the same reference, within the insert-size window
// the aligner was invoked with.
type Insert struct {
	Pair PrimerPair

	// Fwd and Rev are the alignment records of the pair's two primers
	Fwd Record
	Rev Record

	// Ref is the id of the reference sequence both mates aligned to
	Ref string

	// Start is the leftmost boundary: the forward record's position.
	// Stop is the right edge: the reverse record's reported (leftmost)
	// position plus its read length, since the aligner reports the
	// leftmost base of any alignment regardless of strand.
	Start int
	Stop  int

	// Length of the whole region enclosed by the primers, including
	// the primers themselves
	Length int
}

// pairSlots collects the forward and reverse records seen for one
// primer pair until both are present and a candidate can be finalized
type pairSlots struct {
	fwd *Record
	rev *Record
}

// reconstruct groups a flat stream of alignment records into Insert
// candidates, one per locus a primer pair matched. Unaligned records,
// records no pair claims, and mates whose partner never shows up with a
// consistent position are dropped (the last with a log line). A pair
// may yield zero, one, or many Inserts.
func reconstruct(records []Record, idx *pairIndex, debug bool) []Insert {
	var inserts []Insert
	slots := make(map[string]*pairSlots)

	for i := range records {
		rec := records[i]
		if !rec.Aligned() {
			continue
		}

		pair, role, ok := idx.lookup(rec.Name)
		if !ok {
			log.Printf("warning: alignment for unknown primer id %s dropped", rec.Name)
			continue
		}

		slot, found := slots[pair.Key()]
		if !found {
			slot = &pairSlots{}
			slots[pair.Key()] = slot
		}

		if role == Forward {
			if slot.fwd != nil && debug {
				log.Printf("unpaired forward alignment of %s at %s:%d replaced", rec.Name, slot.fwd.Ref, slot.fwd.Pos)
			}
			slot.fwd = &rec
		} else {
			if slot.rev != nil && debug {
				log.Printf("unpaired reverse alignment of %s at %s:%d replaced", rec.Name, slot.rev.Ref, slot.rev.Pos)
			}
			slot.rev = &rec
		}

		if slot.fwd == nil || slot.rev == nil {
			continue
		}

		ins, ok := finalize(pair, *slot.fwd, *slot.rev)
		if !ok {
			if debug {
				log.Printf(
					"records of pair %s at %s:%d / %s:%d are not mates, dropped",
					pair.Key(), slot.fwd.Ref, slot.fwd.Pos, slot.rev.Ref, slot.rev.Pos,
				)
			}
			slot.fwd, slot.rev = nil, nil
			continue
		}

		inserts = append(inserts, ins)
		slot.fwd, slot.rev = nil, nil
	}

	// whatever is left in a slot has no partner
	for key, slot := range slots {
		if slot.fwd != nil {
			log.Printf("warning: forward alignment of pair %s at %s:%d has no mate, dropped", key, slot.fwd.Ref, slot.fwd.Pos)
		}
		if slot.rev != nil {
			log.Printf("warning: reverse alignment of pair %s at %s:%d has no mate, dropped", key, slot.rev.Ref, slot.rev.Pos)
		}
	}

	return inserts
}

// finalize builds an Insert from a filled slot pair, checking that the
// two records really are mates: same reference and mutually consistent
// mate positions. The insert-size window itself was already enforced by
// the aligner invocation and is not re-validated here.
func finalize(pair PrimerPair, fwd, rev Record) (Insert, bool) {
	if !sameRef(fwd, rev) {
		return Insert{}, false
	}
	if fwd.MatePos != 0 && fwd.MatePos != rev.Pos {
		return Insert{}, false
	}
	if rev.MatePos != 0 && rev.MatePos != fwd.Pos {
		return Insert{}, false
	}

	start := fwd.Pos
	stop := rev.Pos + len(rev.Seq)
	if stop < start {
		return Insert{}, false
	}

	return Insert{
		Pair:   pair,
		Fwd:    fwd,
		Rev:    rev,
		Ref:    fwd.Ref,
		Start:  start,
		Stop:   stop,
		Length: stop - start,
	}, true
}

func sameRef(a, b Record) bool {
	if a.Ref != b.Ref {
		return false
	}
	// "=" in the mate reference field means "same as this record"
	if a.MateRef != "=" && a.MateRef != b.Ref {
		return false
	}
	if b.MateRef != "=" && b.MateRef != a.Ref {
		return false
	}
	return true
}
