package genuprimer

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// fastaRecord is a single FASTA record: id (first header token) and the
// concatenated sequence lines
type fastaRecord struct {
	ID  string
	Seq string
}

// readFasta reads all records from r. Headers begin with '>'; sequence
// lines are concatenated and stripped of whitespace.
func readFasta(r io.Reader) ([]fastaRecord, error) {
	var records []fastaRecord
	var current *fastaRecord

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, ">") {
			if current != nil && current.Seq != "" {
				records = append(records, *current)
			}
			id := strings.Fields(line[1:])
			if len(id) == 0 {
				current = &fastaRecord{}
				continue
			}
			current = &fastaRecord{ID: id[0]}
			continue
		}
		if current != nil {
			current.Seq += line
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read FASTA input: %w", err)
	}
	if current != nil && current.Seq != "" {
		records = append(records, *current)
	}
	return records, nil
}

// ExtractTemplate finds the design template in a FASTA stream: the
// first sequence, or the first whose id starts with idPrefix when one
// is given. The returned id is the record's exact id, which later
// drives the expected/unexpected classification.
func ExtractTemplate(r io.Reader, idPrefix string) (seq, id string, err error) {
	records, err := readFasta(r)
	if err != nil {
		return "", "", err
	}

	for _, rec := range records {
		if idPrefix == "" || strings.HasPrefix(rec.ID, idPrefix) {
			return rec.Seq, rec.ID, nil
		}
	}

	if idPrefix == "" {
		return "", "", fmt.Errorf("no sequences found in FASTA input")
	}
	return "", "", fmt.Errorf("no sequence with id prefix %q found in FASTA input", idPrefix)
}

// PrimerFileNames returns the paths of the persisted forward and
// reverse primer files for a prefix
func PrimerFileNames(prefix string) (left, right string) {
	return prefix + "_left.fas", prefix + "_right.fas"
}

// ReadPrimerPairs loads persisted primers from the forward and reverse
// streams and zips them into pairs by position. When the files hold
// different counts the longer one is truncated and the error is a
// *PrimerFileMismatch: callers log it and keep the returned pairs.
func ReadPrimerPairs(left, right io.Reader) ([]PrimerPair, error) {
	fwd, err := readFasta(left)
	if err != nil {
		return nil, fmt.Errorf("failed to read forward primer file: %w", err)
	}
	rev, err := readFasta(right)
	if err != nil {
		return nil, fmt.Errorf("failed to read reverse primer file: %w", err)
	}

	n := len(fwd)
	if len(rev) < n {
		n = len(rev)
	}

	pairs := make([]PrimerPair, 0, n)
	for i := 0; i < n; i++ {
		pair := PrimerPair{
			FwdID:  fwd[i].ID,
			FwdSeq: strings.ToUpper(fwd[i].Seq),
			RevID:  rev[i].ID,
			RevSeq: strings.ToUpper(rev[i].Seq),
		}
		if err := pair.validate(); err != nil {
			return nil, fmt.Errorf("invalid primer pair %d: %w", i, err)
		}
		pairs = append(pairs, pair)
	}

	if len(fwd) != len(rev) {
		return pairs, &PrimerFileMismatch{Forward: len(fwd), Reverse: len(rev)}
	}
	return pairs, nil
}

// WritePrimerFiles persists the pairs to <prefix>_left.fas and
// <prefix>_right.fas, one FASTA record per primer. The aligner reads
// these same two files as its paired-end input.
func WritePrimerFiles(prefix string, pairs []PrimerPair) error {
	leftName, rightName := PrimerFileNames(prefix)

	var left, right strings.Builder
	for _, p := range pairs {
		fmt.Fprintf(&left, ">%s\n%s\n\n", p.FwdID, p.FwdSeq)
		fmt.Fprintf(&right, ">%s\n%s\n\n", p.RevID, p.RevSeq)
	}

	if err := os.WriteFile(leftName, []byte(left.String()), 0666); err != nil {
		return fmt.Errorf("failed to write forward primer file %s: %w", leftName, err)
	}
	if err := os.WriteFile(rightName, []byte(right.String()), 0666); err != nil {
		return fmt.Errorf("failed to write reverse primer file %s: %w", rightName, err)
	}
	return nil
}
