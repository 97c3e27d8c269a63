package genuprimer

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path"
	"regexp"
	"strconv"
	"strings"
)

// Aligner aligns the persisted primer pairs against the reference
// collection and returns the raw tabular output, one line per aligned
// mate. The production implementation wraps bowtie; tests substitute
// fakes.
type Aligner interface {
	Align() ([]string, error)
}

// Bowtie invokes the external bowtie aligner with the primer files as
// paired-end input
type Bowtie struct {
	// Exec is the bowtie executable; the index builder is expected at
	// Exec + "-build"
	Exec string

	// Index is the index prefix to align against
	Index string

	// Prefix locates the primer files written before alignment
	Prefix string

	// MinInsert and MaxInsert bound the accepted insert size
	MinInsert int
	MaxInsert int

	// Quiet suppresses the aligner's own summary output
	Quiet bool

	// ShowOutput dumps the raw alignment lines to stderr
	ShowOutput bool
}

// Align runs bowtie with the forward primers as read 1 and the reverse
// primers as read 2. A non-zero exit is fatal for the run and surfaces
// the tool's diagnostic via *ExternalToolFailure.
func (b *Bowtie) Align() ([]string, error) {
	left, right := PrimerFileNames(b.Prefix)

	args := []string{
		"-k", "5000", "-S", "-f", b.Index,
		"-1", left, "-2", right,
		"--sam-nohead",
		"--minins", strconv.Itoa(b.MinInsert),
		"--maxins", strconv.Itoa(b.MaxInsert),
	}
	if b.Quiet {
		args = append(args, "--quiet")
	}
	log.Printf("calling bowtie: %s %s", b.Exec, strings.Join(args, " "))

	cmd := exec.Command(b.Exec, args...)
	var errBuf bytes.Buffer
	cmd.Stderr = &errBuf
	out, err := cmd.Output()
	if err != nil {
		return nil, &ExternalToolFailure{Tool: "bowtie", Err: err, Output: errBuf.String()}
	}
	if errBuf.Len() > 0 && !b.Quiet {
		fmt.Fprint(os.Stderr, errBuf.String())
	}

	res := strings.Split(strings.TrimRight(string(out), "\n"), "\n")
	if len(res) == 1 && res[0] == "" {
		res = nil
	}

	if b.ShowOutput {
		log.Printf("printing bowtie result to stderr as requested")
		fmt.Fprintln(os.Stderr, strings.Join(res, "\n"))
	}

	return res, nil
}

// Build creates a bowtie index for the reference FASTA file at the
// receiver's index prefix
func (b *Bowtie) Build(fastaPath string, debug bool) error {
	if dir := path.Dir(b.Index); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create index directory %s: %w", dir, err)
		}
	}

	build := b.Exec + "-build"
	log.Printf("bowtie-build command: %s %s %s", build, fastaPath, b.Index)

	cmd := exec.Command(build, fastaPath, b.Index)
	if debug {
		cmd.Stdout = os.Stderr
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err != nil {
			return &ExternalToolFailure{Tool: "bowtie-build", Err: err}
		}
		return nil
	}

	if output, err := cmd.CombinedOutput(); err != nil {
		return &ExternalToolFailure{Tool: "bowtie-build", Err: err, Output: string(output)}
	}
	return nil
}

// IndexExists reports whether a usable index lives at the prefix
func IndexExists(prefix string) bool {
	_, err := os.Stat(prefix + ".1.ebwt")
	return err == nil
}

// DefaultIndexLocation constructs the conventional index prefix for a
// reference FASTA file name
func DefaultIndexLocation(fastaPath string) string {
	stem := regexp.MustCompile(`[/.]`).Split(fastaPath, -1)
	name := fastaPath
	if len(stem) >= 2 {
		name = stem[len(stem)-2]
	}
	return path.Join("bowtie-index", name+"_bowtie")
}
