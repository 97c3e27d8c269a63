package genuprimer

import "fmt"

// MalformedRecordError is returned when a single aligner output line
// fails structural parsing. It is recoverable: the record is dropped,
// the run continues.
type MalformedRecordError struct {
	Line   string
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed alignment record (%s): %q", e.Reason, e.Line)
}

// MissingMismatchTagError is returned when an aligned record lacks the
// mismatch tag needed for specificity evaluation. Such a record cannot
// be evaluated and is dropped with a warning.
type MissingMismatchTagError struct {
	Line string
}

func (e *MissingMismatchTagError) Error() string {
	return fmt.Sprintf("alignment record without a %s tag: %q", mismatchTag, e.Line)
}

// ExternalToolFailure is a fatal error from the design engine or the
// aligner: non-zero exit or unusable output. The tool's own diagnostic
// is carried in Output.
type ExternalToolFailure struct {
	Tool   string
	Err    error
	Output string
}

func (e *ExternalToolFailure) Error() string {
	if e.Output == "" {
		return fmt.Sprintf("%s failed: %v", e.Tool, e.Err)
	}
	return fmt.Sprintf("%s failed: %v: %s", e.Tool, e.Err, e.Output)
}

func (e *ExternalToolFailure) Unwrap() error { return e.Err }

// PrimerFileMismatch reports that the persisted forward and reverse
// primer files hold different record counts. The pairing is truncated
// to the shorter file; callers log this, they do not abort on it.
type PrimerFileMismatch struct {
	Forward int
	Reverse int
}

func (e *PrimerFileMismatch) Error() string {
	return fmt.Sprintf(
		"primer files hold %d forward but %d reverse records, trailing entries discarded",
		e.Forward, e.Reverse,
	)
}
