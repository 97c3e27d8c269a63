package genuprimer

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/gilbus/genuprimer/config"
)

// Designer designs candidate primer pairs for a template sequence.
// The production implementation wraps primer3; tests substitute fakes.
type Designer interface {
	Design(template, id string) ([]PrimerPair, error)
}

// Primer3 runs the external primer3_core design engine
type Primer3 struct {
	conf *config.Config

	// path to the primer3_core executable
	p3Path string
}

// NewPrimer3 returns a Designer backed by the primer3_core executable
// configured in conf
func NewPrimer3(conf *config.Config) *Primer3 {
	return &Primer3{conf: conf, p3Path: conf.Tools.Primer3}
}

// Design creates primer pairs for the configured target window inside
// the template sequence. One invocation, no retries: any diagnostic
// from the engine is an *ExternalToolFailure.
func (d *Primer3) Design(template, id string) ([]PrimerPair, error) {
	in, err := os.CreateTemp("", id+".p3in-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create primer3 input file: %w", err)
	}
	out, err := os.CreateTemp("", id+".p3out-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create primer3 output file: %w", err)
	}
	defer os.Remove(in.Name())
	defer os.Remove(out.Name())

	file := d.settings(template, id)
	if _, err := in.Write(file); err != nil {
		return nil, fmt.Errorf("failed to write primer3 input file: %w", err)
	}
	if err := in.Close(); err != nil {
		return nil, fmt.Errorf("failed to write primer3 input file: %w", err)
	}

	if err := d.run(in.Name(), out.Name()); err != nil {
		return nil, err
	}

	return d.parse(out.Name())
}

// settings builds the key=value input file for primer3_core. The
// region constraints are computed from the target window and product
// size range; user passthrough options override computed ones.
func (d *Primer3) settings(template, id string) []byte {
	okRegion := d.conf.OKRegionList()
	includedBegin, includedEnd := d.conf.IncludedRegion()

	settings := map[string]string{
		"SEQUENCE_ID":       id,
		"SEQUENCE_TEMPLATE": strings.ToUpper(template),
		"PRIMER_PRODUCT_SIZE_RANGE": fmt.Sprintf(
			"%d-%d", d.conf.Product.Min, d.conf.Product.Max,
		),
		"SEQUENCE_PRIMER_PAIR_OK_REGION_LIST": fmt.Sprintf(
			"%d,%d,%d,%d", okRegion[0], okRegion[1], okRegion[2], okRegion[3],
		),
		"SEQUENCE_INCLUDED_REGION": fmt.Sprintf(
			"%d,%d", includedBegin, includedEnd-includedBegin,
		),
	}
	for key, val := range d.conf.Primer3Options {
		settings[strings.ToUpper(key)] = val
	}

	var fileBuffer bytes.Buffer
	for key, val := range settings {
		fmt.Fprintf(&fileBuffer, "%s=%s\n", key, val)
	}
	fileBuffer.WriteString("=") // required at file's end

	return fileBuffer.Bytes()
}

// run the primer3 executable against the input file
func (d *Primer3) run(in, out string) error {
	p3Cmd := exec.Command(
		d.p3Path,
		in,
		"-output", out,
		"-strict_tags",
	)

	// execute primer3 and wait on it to finish
	if output, err := p3Cmd.CombinedOutput(); err != nil {
		return &ExternalToolFailure{Tool: "primer3", Err: err, Output: string(output)}
	}
	return nil
}

// parse the output into primer pairs, kept in primer3's own ranking
// order. The record ids follow primer3's output keys so a pair can be
// traced back to its design rank.
func (d *Primer3) parse(out string) ([]PrimerPair, error) {
	fileBytes, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("failed to read primer3 output: %w", err)
	}

	// read in results into map, they're all 1:1
	results := make(map[string]string)
	for _, line := range strings.Split(string(fileBytes), "\n") {
		keyVal := strings.SplitN(line, "=", 2)
		if len(keyVal) > 1 {
			results[strings.TrimSpace(keyVal[0])] = strings.TrimSpace(keyVal[1])
		}
	}

	if p3Error := results["PRIMER_ERROR"]; p3Error != "" {
		return nil, &ExternalToolFailure{Tool: "primer3", Err: fmt.Errorf("PRIMER_ERROR"), Output: p3Error}
	}
	if p3Warnings := results["PRIMER_WARNING"]; p3Warnings != "" {
		return nil, &ExternalToolFailure{Tool: "primer3", Err: fmt.Errorf("PRIMER_WARNING"), Output: p3Warnings}
	}

	var pairs []PrimerPair
	for i := 0; ; i++ {
		leftKey := fmt.Sprintf("PRIMER_LEFT_%d_SEQUENCE", i)
		rightKey := fmt.Sprintf("PRIMER_RIGHT_%d_SEQUENCE", i)
		left, leftOK := results[leftKey]
		right, rightOK := results[rightKey]
		if !leftOK || !rightOK {
			break
		}
		pair := PrimerPair{
			FwdID:  leftKey,
			FwdSeq: strings.ToUpper(left),
			RevID:  rightKey,
			RevSeq: strings.ToUpper(right),
		}
		if err := pair.validate(); err != nil {
			return nil, &ExternalToolFailure{Tool: "primer3", Err: err}
		}
		pairs = append(pairs, pair)
	}

	if len(pairs) == 0 {
		return nil, &ExternalToolFailure{
			Tool: "primer3",
			Err:  fmt.Errorf("no primer pairs returned"),
		}
	}
	return pairs, nil
}
