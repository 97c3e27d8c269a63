package genuprimer

import (
	"testing"
)

var testPairs = []PrimerPair{
	{
		FwdID:  "PRIMER_LEFT_0_SEQUENCE",
		FwdSeq: "ACGTACGTACGTACGTACGT",
		RevID:  "PRIMER_RIGHT_0_SEQUENCE",
		RevSeq: "TGCATGCATGCATGCATGCA",
	},
	{
		FwdID:  "PRIMER_LEFT_1_SEQUENCE",
		FwdSeq: "AAAACCCCGGGGTTTTACGT",
		RevID:  "PRIMER_RIGHT_1_SEQUENCE",
		RevSeq: "ACGTAAAACCCCGGGGTTTT",
	},
}

func fwdRecord(name, ref string, pos, matePos int) Record {
	return Record{
		Name: name, Flag: 99, Ref: ref, Pos: pos, MapQ: 255,
		MateRef: "=", MatePos: matePos,
		Seq:        "ACGTACGTACGTACGTACGT",
		Mismatches: make([]bool, 20),
	}
}

func revRecord(name, ref string, pos, matePos int) Record {
	return Record{
		Name: name, Flag: 147, Ref: ref, Pos: pos, MapQ: 255,
		MateRef: "=", MatePos: matePos,
		Seq:        "TGCATGCATGCATGCATGCA",
		Mismatches: make([]bool, 20),
	}
}

func Test_reconstruct(t *testing.T) {
	idx := newPairIndex(testPairs)

	records := []Record{
		fwdRecord("PRIMER_LEFT_0_SEQUENCE", "chr1", 100, 580),
		revRecord("PRIMER_RIGHT_0_SEQUENCE", "chr1", 580, 100),
	}

	inserts := reconstruct(records, idx, false)
	if len(inserts) != 1 {
		t.Fatalf("reconstruct() produced %d inserts, want 1", len(inserts))
	}

	ins := inserts[0]
	if ins.Ref != "chr1" {
		t.Errorf("Insert.Ref = %s, want chr1", ins.Ref)
	}
	if ins.Start != 100 {
		t.Errorf("Insert.Start = %d, want 100", ins.Start)
	}
	// right edge: reverse record's leftmost position + its read length
	if ins.Stop != 600 {
		t.Errorf("Insert.Stop = %d, want 600", ins.Stop)
	}
	if ins.Length != 500 {
		t.Errorf("Insert.Length = %d, want 500", ins.Length)
	}
	if ins.Pair.Key() != testPairs[0].Key() {
		t.Errorf("Insert.Pair = %s, want %s", ins.Pair.Key(), testPairs[0].Key())
	}
}

func Test_reconstruct_multiMapping(t *testing.T) {
	idx := newPairIndex(testPairs)

	// the same pair matches two loci; both candidates are retained
	records := []Record{
		fwdRecord("PRIMER_LEFT_0_SEQUENCE", "chr1", 100, 580),
		revRecord("PRIMER_RIGHT_0_SEQUENCE", "chr1", 580, 100),
		fwdRecord("PRIMER_LEFT_0_SEQUENCE", "chr2", 9000, 9400),
		revRecord("PRIMER_RIGHT_0_SEQUENCE", "chr2", 9400, 9000),
	}

	inserts := reconstruct(records, idx, false)
	if len(inserts) != 2 {
		t.Fatalf("reconstruct() produced %d inserts, want 2", len(inserts))
	}
	if inserts[0].Ref != "chr1" || inserts[1].Ref != "chr2" {
		t.Errorf("insert refs = %s, %s; want chr1, chr2", inserts[0].Ref, inserts[1].Ref)
	}
}

func Test_reconstruct_dropsStrays(t *testing.T) {
	idx := newPairIndex(testPairs)

	tests := []struct {
		name    string
		records []Record
		want    int
	}{
		{
			"unaligned records never form inserts",
			[]Record{
				{Name: "PRIMER_LEFT_0_SEQUENCE", Flag: 77, Ref: "*"},
				{Name: "PRIMER_RIGHT_0_SEQUENCE", Flag: 141, Ref: "*"},
			},
			0,
		},
		{
			"forward mate without a reverse is not an insert",
			[]Record{
				fwdRecord("PRIMER_LEFT_0_SEQUENCE", "chr1", 100, 0),
			},
			0,
		},
		{
			"mates on different references are not an insert",
			[]Record{
				fwdRecord("PRIMER_LEFT_0_SEQUENCE", "chr1", 100, 580),
				revRecord("PRIMER_RIGHT_0_SEQUENCE", "chr2", 580, 100),
			},
			0,
		},
		{
			"inconsistent mate positions are not an insert",
			[]Record{
				fwdRecord("PRIMER_LEFT_0_SEQUENCE", "chr1", 100, 580),
				revRecord("PRIMER_RIGHT_0_SEQUENCE", "chr1", 999, 100),
			},
			0,
		},
		{
			"unknown primer ids are dropped",
			[]Record{
				fwdRecord("PRIMER_LEFT_9_SEQUENCE", "chr1", 100, 580),
				revRecord("PRIMER_RIGHT_9_SEQUENCE", "chr1", 580, 100),
			},
			0,
		},
		{
			"a stray does not poison the next locus",
			[]Record{
				fwdRecord("PRIMER_LEFT_0_SEQUENCE", "chr1", 100, 580),
				revRecord("PRIMER_RIGHT_0_SEQUENCE", "chr2", 580, 100),
				fwdRecord("PRIMER_LEFT_0_SEQUENCE", "chr3", 200, 700),
				revRecord("PRIMER_RIGHT_0_SEQUENCE", "chr3", 700, 200),
			},
			1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := reconstruct(tt.records, idx, false); len(got) != tt.want {
				t.Errorf("reconstruct() produced %d inserts, want %d", len(got), tt.want)
			}
		})
	}
}

func Test_pairIndex_lookup(t *testing.T) {
	idx := newPairIndex(testPairs)

	pair, role, ok := idx.lookup("PRIMER_RIGHT_1_SEQUENCE")
	if !ok {
		t.Fatal("lookup() ok = false for a known reverse primer")
	}
	if role != Reverse {
		t.Errorf("lookup() role = %v, want reverse", role)
	}
	if pair.FwdID != "PRIMER_LEFT_1_SEQUENCE" {
		t.Errorf("lookup() pair = %s", pair.FwdID)
	}

	if _, _, ok := idx.lookup("nobody"); ok {
		t.Error("lookup() ok = true for an unknown id")
	}
}
