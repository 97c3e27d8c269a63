package genuprimer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAligner substitutes the bowtie wrapper with canned output lines
type fakeAligner struct {
	lines []string
	err   error
}

func (f *fakeAligner) Align() ([]string, error) { return f.lines, f.err }

func samLine(fields ...string) string { return strings.Join(fields, "\t") }

func testPipeline(aligner Aligner, out *bytes.Buffer) *Pipeline {
	return &Pipeline{
		Aligner: aligner,
		Policy:  NewPolicy(3, 12, 5),
		Expectation: Expectation{
			SourceID:      "chr1",
			IncludedBegin: 50,
			IncludedEnd:   1000,
			TargetBegin:   300,
			TargetEnd:     400,
		},
		MatchLimit: 5,
		Out:        out,
	}
}

func TestPipeline_Run(t *testing.T) {
	fwdSeq := testPairs[0].FwdSeq
	revSeq := testPairs[0].RevSeq

	aligner := &fakeAligner{lines: []string{
		// the designed-for locus: clean alignments flanking 300-400
		samLine("PRIMER_LEFT_0_SEQUENCE", "99", "chr1", "100", "255", "20M", "=", "580", "500", fwdSeq, "IIIIIIIIIIIIIIIIIIII", "MD:Z:20"),
		samLine("PRIMER_RIGHT_0_SEQUENCE", "147", "chr1", "580", "255", "20M", "=", "100", "-500", revSeq, "IIIIIIIIIIIIIIIIIIII", "MD:Z:20"),
		// an off-target locus on another sequence, still specific
		samLine("PRIMER_LEFT_0_SEQUENCE", "99", "chr2", "9000", "255", "20M", "=", "9400", "420", fwdSeq, "IIIIIIIIIIIIIIIIIIII", "MD:Z:16T3"),
		samLine("PRIMER_RIGHT_0_SEQUENCE", "147", "chr2", "9400", "255", "20M", "=", "9000", "-420", revSeq, "IIIIIIIIIIIIIIIIIIII", "MD:Z:20"),
		// a noise locus: terminal mismatch on the forward mate
		samLine("PRIMER_LEFT_0_SEQUENCE", "99", "chr3", "700", "255", "20M", "=", "1100", "420", fwdSeq, "IIIIIIIIIIIIIIIIIIII", "MD:Z:19T"),
		samLine("PRIMER_RIGHT_0_SEQUENCE", "147", "chr3", "1100", "255", "20M", "=", "700", "-420", revSeq, "IIIIIIIIIIIIIIIIIIII", "MD:Z:20"),
	}}

	var out bytes.Buffer
	p := testPipeline(aligner, &out)
	require.NoError(t, p.Run(testPairs))

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 3)

	assert.Equal(t, "FWD_ID,REV_ID,MATCH_ID,FWD,REV,START,STOP,LENGTH,EXP", lines[0])
	assert.Equal(t,
		"PRIMER_LEFT_0_SEQUENCE,PRIMER_RIGHT_0_SEQUENCE,chr1,"+fwdSeq+","+revSeq+",100,600,500,1",
		lines[1])
	assert.Equal(t,
		"PRIMER_LEFT_0_SEQUENCE,PRIMER_RIGHT_0_SEQUENCE,chr2,"+fwdSeq+","+revSeq+",9000,9420,420,0",
		lines[2])
}

func TestPipeline_Run_limitDropsPair(t *testing.T) {
	fwdSeq := testPairs[0].FwdSeq
	revSeq := testPairs[0].RevSeq

	// six accepted loci with a limit of five: the pair vanishes whole
	var lines []string
	refs := []string{"chr1", "chr2", "chr3", "chr4", "chr5", "chr6"}
	for _, ref := range refs {
		lines = append(lines,
			samLine("PRIMER_LEFT_0_SEQUENCE", "99", ref, "100", "255", "20M", "=", "580", "500", fwdSeq, "IIIIIIIIIIIIIIIIIIII", "MD:Z:20"),
			samLine("PRIMER_RIGHT_0_SEQUENCE", "147", ref, "580", "255", "20M", "=", "100", "-500", revSeq, "IIIIIIIIIIIIIIIIIIII", "MD:Z:20"),
		)
	}

	var out bytes.Buffer
	p := testPipeline(&fakeAligner{lines: lines}, &out)
	require.NoError(t, p.Run(testPairs))

	got := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	assert.Len(t, got, 1, "only the header should survive")
}

func TestPipeline_Run_externalTemplate(t *testing.T) {
	fwdSeq := testPairs[0].FwdSeq
	revSeq := testPairs[0].RevSeq

	aligner := &fakeAligner{lines: []string{
		samLine("PRIMER_LEFT_0_SEQUENCE", "99", "chr1", "100", "255", "20M", "=", "580", "500", fwdSeq, "IIIIIIIIIIIIIIIIIIII", "MD:Z:20"),
		samLine("PRIMER_RIGHT_0_SEQUENCE", "147", "chr1", "580", "255", "20M", "=", "100", "-500", revSeq, "IIIIIIIIIIIIIIIIIIII", "MD:Z:20"),
	}}

	var out bytes.Buffer
	p := testPipeline(aligner, &out)
	// designed from a sequence outside the validation collection
	p.Expectation.External = true
	require.NoError(t, p.Run(testPairs))

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasSuffix(lines[1], ",0"), "external template hits must be EXP=0: %s", lines[1])
}

func TestPipeline_Run_skipsBadRecords(t *testing.T) {
	fwdSeq := testPairs[0].FwdSeq
	revSeq := testPairs[0].RevSeq

	aligner := &fakeAligner{lines: []string{
		"garbage line",
		// aligned but missing the mismatch tag: unevaluable, dropped
		samLine("PRIMER_LEFT_1_SEQUENCE", "99", "chr9", "10", "255", "20M", "=", "400", "410", fwdSeq, "IIIIIIIIIIIIIIIIIIII"),
		samLine("PRIMER_LEFT_0_SEQUENCE", "99", "chr1", "100", "255", "20M", "=", "580", "500", fwdSeq, "IIIIIIIIIIIIIIIIIIII", "MD:Z:20"),
		samLine("PRIMER_RIGHT_0_SEQUENCE", "147", "chr1", "580", "255", "20M", "=", "100", "-500", revSeq, "IIIIIIIIIIIIIIIIIIII", "MD:Z:20"),
	}}

	var out bytes.Buffer
	p := testPipeline(aligner, &out)
	require.NoError(t, p.Run(testPairs), "record-level failures are recoverable")

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	assert.Len(t, lines, 2, "the intact pair still produces its row")
}

func TestPipeline_Run_alignerFailureIsFatal(t *testing.T) {
	p := testPipeline(&fakeAligner{err: &ExternalToolFailure{Tool: "bowtie"}}, &bytes.Buffer{})

	err := p.Run(testPairs)
	require.Error(t, err)
	assert.ErrorAs(t, err, new(*ExternalToolFailure))
}
