package genuprimer

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strconv"
)

// resultHeader is the column contract of the output file
var resultHeader = []string{"FWD_ID", "REV_ID", "MATCH_ID", "FWD", "REV", "START", "STOP", "LENGTH", "EXP"}

// ResultRow is one surviving evaluated hit, ready for output
type ResultRow struct {
	FwdID  string
	RevID  string
	Ref    string
	FwdSeq string
	RevSeq string
	Start  int
	Stop   int
	Length int

	// Expected is whether the hit matches the designed-for locus
	Expected bool
}

func newResultRow(ins Insert, expected bool) ResultRow {
	return ResultRow{
		FwdID:    ins.Pair.FwdID,
		RevID:    ins.Pair.RevID,
		Ref:      ins.Ref,
		FwdSeq:   ins.Pair.FwdSeq,
		RevSeq:   ins.Pair.RevSeq,
		Start:    ins.Start,
		Stop:     ins.Stop,
		Length:   ins.Length,
		Expected: expected,
	}
}

// aggregator groups result rows by primer pair and drops every pair
// whose hit count exceeds the limit: such a pair is too non-specific to
// report at all, not partially.
type aggregator struct {
	limit int

	// pair keys in original primer-pair order, so the output preserves
	// the ordering of the design engine / primer files
	order []string
	seen  map[string]bool
	hits  map[string][]ResultRow
}

func newAggregator(limit int, pairs []PrimerPair) *aggregator {
	a := &aggregator{
		limit: limit,
		seen:  make(map[string]bool, len(pairs)),
		hits:  make(map[string][]ResultRow),
	}
	for _, p := range pairs {
		if !a.seen[p.Key()] {
			a.seen[p.Key()] = true
			a.order = append(a.order, p.Key())
		}
	}
	return a
}

func (a *aggregator) add(pairKey string, row ResultRow) {
	if !a.seen[pairKey] {
		a.seen[pairKey] = true
		a.order = append(a.order, pairKey)
	}
	a.hits[pairKey] = append(a.hits[pairKey], row)
}

// rows returns the surviving hits: pairs in order, hits in discovery
// order within a pair. A pair over the limit is dropped whole.
func (a *aggregator) rows() []ResultRow {
	var out []ResultRow
	for _, key := range a.order {
		matches := a.hits[key]
		if len(matches) == 0 {
			continue
		}
		if len(matches) > a.limit {
			log.Printf("not printing results for %s because it has %d matches", key, len(matches))
			continue
		}
		out = append(out, matches...)
	}
	return out
}

// writeResults emits the final CSV: header plus one line per row
func writeResults(w io.Writer, rows []ResultRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(resultHeader); err != nil {
		return fmt.Errorf("failed to write result header: %w", err)
	}

	for _, r := range rows {
		exp := "0"
		if r.Expected {
			exp = "1"
		}
		record := []string{
			r.FwdID,
			r.RevID,
			r.Ref,
			r.FwdSeq,
			r.RevSeq,
			strconv.Itoa(r.Start),
			strconv.Itoa(r.Stop),
			strconv.Itoa(r.Length),
			exp,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write result row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
