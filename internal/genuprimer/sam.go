package genuprimer

import (
	"fmt"
	"strconv"
	"strings"
)

// mismatchTag is the optional-field key carrying the run-length encoded
// match/mismatch description of an aligned read
const mismatchTag = "MD"

// sam flag bits used here
const (
	flagUnmapped      = 0x4
	flagReverseStrand = 0x10
)

// the mandatory tab-separated fields of one alignment line
const mandatoryFields = 11

// Record is one aligned read from the aligner's tabular output.
// Positions are 1-based, leftmost, regardless of strand.
type Record struct {
	Name    string
	Flag    int
	Ref     string
	Pos     int
	MapQ    int
	Cigar   string
	MateRef string
	MatePos int
	Insert  int
	Seq     string

	// Mismatches is the decoded mismatch tag: one entry per aligned
	// base in reference left-to-right order, true where the read
	// disagrees with the reference
	Mismatches []bool
}

// Strand of the alignment, taken from the record's flag
func (r *Record) Strand() Strand {
	if r.Flag&flagReverseStrand != 0 {
		return Reverse
	}
	return Forward
}

// Aligned is false for records the aligner reported but did not place
func (r *Record) Aligned() bool {
	return r.Flag&flagUnmapped == 0 && r.Ref != "*"
}

// parseRecord converts one tab-separated aligner output line into a
// Record. Structural problems return a *MalformedRecordError; an
// aligned record without the mismatch tag returns a
// *MissingMismatchTagError. Both are recoverable for the run.
func parseRecord(line string) (Record, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < mandatoryFields {
		return Record{}, &MalformedRecordError{Line: line, Reason: "too few fields"}
	}

	flag, err := strconv.Atoi(fields[1])
	if err != nil {
		return Record{}, &MalformedRecordError{Line: line, Reason: "flag is not a number"}
	}
	pos, err := strconv.Atoi(fields[3])
	if err != nil {
		return Record{}, &MalformedRecordError{Line: line, Reason: "position is not a number"}
	}
	mapq, err := strconv.Atoi(fields[4])
	if err != nil {
		return Record{}, &MalformedRecordError{Line: line, Reason: "mapping quality is not a number"}
	}
	matePos, err := strconv.Atoi(fields[7])
	if err != nil {
		return Record{}, &MalformedRecordError{Line: line, Reason: "mate position is not a number"}
	}
	insert, err := strconv.Atoi(fields[8])
	if err != nil {
		return Record{}, &MalformedRecordError{Line: line, Reason: "insert size is not a number"}
	}

	rec := Record{
		Name:    fields[0],
		Flag:    flag,
		Ref:     fields[2],
		Pos:     pos,
		MapQ:    mapq,
		Cigar:   fields[5],
		MateRef: fields[6],
		MatePos: matePos,
		Insert:  insert,
		Seq:     fields[9],
	}

	if !rec.Aligned() {
		return rec, nil
	}
	if rec.Pos < 1 {
		return Record{}, &MalformedRecordError{Line: line, Reason: "aligned at position < 1"}
	}

	// the mismatch tag lives among the optional TAG:TYPE:VALUE fields
	for _, opt := range fields[mandatoryFields:] {
		parts := strings.SplitN(opt, ":", 3)
		if len(parts) != 3 || parts[0] != mismatchTag {
			continue
		}
		mm, err := decodeMismatches(parts[2])
		if err != nil {
			return Record{}, &MalformedRecordError{Line: line, Reason: err.Error()}
		}
		// no indels modeled: the alignment spans exactly the read
		if len(mm) != len(rec.Seq) {
			return Record{}, &MalformedRecordError{Line: line, Reason: "mismatch string length disagrees with read length"}
		}
		rec.Mismatches = mm
		return rec, nil
	}

	return Record{}, &MissingMismatchTagError{Line: line}
}

// decodeMismatches expands a run-length encoded mismatch string into a
// per-base match/mismatch sequence in reference left-to-right order.
// The token list alternates "N matched bases" and "single mismatched
// reference base", e.g. "3T7T8": 3 matches, a mismatch, 7 matches, a
// mismatch, 8 matches. Zero-length runs carry no information and are
// skipped.
func decodeMismatches(md string) ([]bool, error) {
	var decoded []bool
	i := 0
	for i < len(md) {
		c := md[i]
		switch {
		case c >= '0' && c <= '9':
			j := i
			for j < len(md) && md[j] >= '0' && md[j] <= '9' {
				j++
			}
			n, err := strconv.Atoi(md[i:j])
			if err != nil {
				return nil, fmt.Errorf("bad run length in mismatch string %q", md)
			}
			for k := 0; k < n; k++ {
				decoded = append(decoded, false)
			}
			i = j
		case c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z':
			decoded = append(decoded, true)
			i++
		default:
			return nil, fmt.Errorf("unexpected character %q in mismatch string %q", c, md)
		}
	}
	return decoded, nil
}

// encodeMismatches is the inverse of decodeMismatches. Mismatched
// positions are written as "N" since the original reference base is not
// recoverable from the boolean form; the match/mismatch structure
// round-trips.
func encodeMismatches(mismatches []bool) string {
	var b strings.Builder
	run := 0
	for _, mm := range mismatches {
		if !mm {
			run++
			continue
		}
		b.WriteString(strconv.Itoa(run))
		b.WriteByte('N')
		run = 0
	}
	b.WriteString(strconv.Itoa(run))
	return b.String()
}
