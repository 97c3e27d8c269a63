// Package genuprimer designs primer pairs for a target region and
// verifies, by aligning them back against the reference collection,
// that each pair binds uniquely at the intended locus.
//
// The pipeline is strictly sequential: primer acquisition (design or
// load), paired-end alignment, record parsing, mate reconciliation into
// insert candidates, terminal-window specificity evaluation,
// expected/unexpected classification, and per-pair filtered CSV output.
package genuprimer

import (
	"errors"
	"io"
	"log"
	"os"
)

// stderr is for logging to Stderr (without an annoying timestamp)
var stderr = log.New(os.Stderr, "", 0)

// Pipeline wires the stages together. Designer and Aligner are the two
// external collaborators; everything in between is the reconciliation
// and evaluation engine.
type Pipeline struct {
	Aligner     Aligner
	Policy      Policy
	Expectation Expectation

	// MatchLimit is the maximum accepted-hit count per pair before the
	// pair is dropped from the output entirely
	MatchLimit int

	// Out receives the final CSV
	Out io.Writer

	// Debug enables per-record diagnostics
	Debug bool
}

// Run takes the primer pairs (already persisted to the primer files the
// aligner reads), aligns them, and writes the result rows. External
// tool failures are fatal; single bad records are dropped and counted.
func (p *Pipeline) Run(pairs []PrimerPair) error {
	lines, err := p.Aligner.Align()
	if err != nil {
		return err
	}

	records, dropped := p.parseAll(lines)
	if dropped > 0 {
		stderr.Printf("warning: %d alignment records dropped as unparseable or unevaluable", dropped)
	}

	idx := newPairIndex(pairs)
	inserts := reconstruct(records, idx, p.Debug)

	agg := newAggregator(p.MatchLimit, pairs)
	for _, ins := range inserts {
		if !p.Policy.AcceptInsert(ins) {
			if p.Debug {
				log.Printf("hit of pair %s at %s:%d rejected by specificity policy", ins.Pair.Key(), ins.Ref, ins.Start)
			}
			continue
		}
		agg.add(ins.Pair.Key(), newResultRow(ins, p.Expectation.Expected(ins)))
	}

	return writeResults(p.Out, agg.rows())
}

// parseAll converts the raw aligner lines into records, skipping and
// counting the individually recoverable failures
func (p *Pipeline) parseAll(lines []string) (records []Record, dropped int) {
	for _, line := range lines {
		if line == "" {
			continue
		}
		rec, err := parseRecord(line)
		if err != nil {
			var missingTag *MissingMismatchTagError
			if errors.As(err, &missingTag) {
				log.Printf("warning: record cannot be evaluated, dropped: %v", err)
			} else {
				log.Printf("warning: %v", err)
			}
			dropped++
			continue
		}
		records = append(records, rec)
	}
	return records, dropped
}
