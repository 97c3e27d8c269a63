// Package cmd is for command line interactions with the genuprimer application
package cmd

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/gilbus/genuprimer/config"
	"github.com/gilbus/genuprimer/internal/genuprimer"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	configPath      string
	seqID           string
	additionalFasta string
	indexPath       string
	outputPath      string
	primerPrefix    string
	keepPrimer      bool
	bowtiePath      string
	showBowtie      bool
	productSize     []int
	targetPos       []int
	primer3Options  map[string]string
	verbose         bool
	debug           bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "genuprimer <fasta_file>",
	Short: "Generate primer pairs and validate their uniqueness by alignment",
	Long: `genuprimer is able to generate new primer by calling primer3 and
afterwards validate their uniqueness among other sequences by calling
bowtie. The same can be accomplished for already existing primer pairs.`,
	Version: "1.0.0",
	Args:    cobra.ExactArgs(1),
	Run:     run,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("%v", err)
	}
}

func init() {
	log.SetFlags(0)

	rootCmd.Flags().StringVarP(&seqID, "sequence", "s", "", "partial id of the sequence the primer shall be or have been generated for")
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "config file with various parameters")
	rootCmd.Flags().StringVarP(&additionalFasta, "additional-fasta", "a", "", "separate FASTA file to take the design template from")
	rootCmd.Flags().IntSliceVar(&productSize, "size", nil, "min,max size of the product including primers")
	rootCmd.Flags().IntSliceVar(&targetPos, "pos", nil, "begin,end of the region between the primers which is not overlapped by them")
	rootCmd.Flags().StringVarP(&indexPath, "index", "i", "", "existing bowtie index; a new one is built when absent")
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "", "where the csv results are written (default: stdout)")
	rootCmd.Flags().StringVarP(&primerPrefix, "primerfiles", "p", "genuprimer", "prefix for the files the primer pairs are written to or read from")
	rootCmd.Flags().BoolVar(&keepPrimer, "keep-primer", false, "reuse the primers from the last run or custom ones instead of designing")
	rootCmd.Flags().StringVar(&bowtiePath, "bowtie", "", "the bowtie executable if not in PATH")
	rootCmd.Flags().BoolVar(&showBowtie, "show-bowtie", false, "write the raw bowtie output to stderr")
	rootCmd.Flags().Int("last-must-match", config.DefaultLastMustMatch, "how many of the last bases of a primer have to match to consider it a hit")
	rootCmd.Flags().Int("last-to-check", config.DefaultLastToCheck, "how many of the last bases of a primer are checked against last-max-error")
	rootCmd.Flags().Int("last-max-error", config.DefaultLastMaxError, "maximum mismatches allowed in the last last-to-check bases of a primer")
	rootCmd.Flags().IntP("limit-number-of-matches", "l", config.DefaultMatchLimit, "maximum number of hits of a primer pair before it is omitted from the results")
	rootCmd.Flags().StringToStringVar(&primer3Options, "primer3", nil, "custom key=value options forwarded to primer3")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "be verbose by showing INFO messages")
	rootCmd.Flags().BoolVarP(&debug, "debug", "d", false, "print lots of DEBUG messages")

	// the policy flags share one keyspace with the config file; CLI wins
	viper.BindPFlag("last-must-match", rootCmd.Flags().Lookup("last-must-match"))
	viper.BindPFlag("last-to-check", rootCmd.Flags().Lookup("last-to-check"))
	viper.BindPFlag("last-max-error", rootCmd.Flags().Lookup("last-max-error"))
	viper.BindPFlag("limit-number-of-matches", rootCmd.Flags().Lookup("limit-number-of-matches"))
	viper.BindPFlag("primer3", rootCmd.Flags().Lookup("primer3"))
}

func run(cmd *cobra.Command, args []string) {
	fastaPath := args[0]

	readConfigFile()

	if len(productSize) == 2 {
		viper.Set("primer-product-size-min", productSize[0])
		viper.Set("primer-product-size-max", productSize[1])
	}
	if len(targetPos) == 2 {
		viper.Set("target-position-begin", targetPos[0])
		viper.Set("target-position-end", targetPos[1])
	}
	if bowtiePath != "" {
		viper.Set("bowtie", bowtiePath)
	}

	conf, err := config.New()
	if err != nil {
		log.Fatalf("%v", err)
	}
	if err := conf.Validate(); err != nil {
		log.Fatalf("%v", err)
	}

	pairs, expectation := acquirePrimers(fastaPath, &conf)
	if len(pairs) == 0 {
		log.Fatalf("no primer pairs to validate")
	}

	index := indexPath
	if index == "" {
		index = genuprimer.DefaultIndexLocation(fastaPath)
	}

	bowtie := &genuprimer.Bowtie{
		Exec:       conf.Tools.Bowtie,
		Index:      index,
		Prefix:     primerPrefix,
		MinInsert:  conf.Product.Min,
		MaxInsert:  conf.Product.Max,
		Quiet:      !verbose,
		ShowOutput: showBowtie,
	}
	if !genuprimer.IndexExists(index) {
		if verbose {
			log.Printf("no existing bowtie index found, building a new one at %s", index)
		}
		if err := bowtie.Build(fastaPath, debug); err != nil {
			log.Fatalf("%v", err)
		}
	} else if verbose {
		log.Printf("using existing bowtie index at %s", index)
	}

	out := os.Stdout
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			log.Fatalf("failed to open output file: %v", err)
		}
		defer f.Close()
		out = f
	}

	pipeline := &genuprimer.Pipeline{
		Aligner: bowtie,
		Policy: genuprimer.NewPolicy(
			conf.Specificity.LastMustMatch,
			conf.Specificity.LastToCheck,
			conf.Specificity.LastMaxError,
		),
		Expectation: expectation,
		MatchLimit:  conf.Specificity.MatchLimit,
		Out:         out,
		Debug:       debug,
	}
	if err := pipeline.Run(pairs); err != nil {
		log.Fatalf("%v", err)
	}
}

// readConfigFile loads the config file into viper. A missing default
// file is fine; an unreadable explicitly named one is not.
func readConfigFile() {
	if configPath != "" {
		viper.SetConfigFile(configPath)
		if err := viper.ReadInConfig(); err != nil {
			log.Fatalf("failed to read config file %s: %v", configPath, err)
		}
		return
	}

	viper.SetConfigName("genuprimer")
	viper.AddConfigPath(".")
	if err := viper.ReadInConfig(); err == nil {
		if verbose {
			log.Printf("read config from file: %s", viper.ConfigFileUsed())
		}
	} else if verbose {
		log.Printf("no config passed to program")
	}
}

// acquirePrimers either designs new primer pairs for the template or
// loads the persisted ones, and derives how expected hits are
// recognized for that source
func acquirePrimers(fastaPath string, conf *config.Config) ([]genuprimer.PrimerPair, genuprimer.Expectation) {
	includedBegin, includedEnd := conf.IncludedRegion()
	expectation := genuprimer.Expectation{
		SourceID:      seqID,
		IncludedBegin: includedBegin,
		IncludedEnd:   includedEnd,
		TargetBegin:   conf.Target.Begin,
		TargetEnd:     conf.Target.End,
	}

	if keepPrimer {
		stderr("calculations whether a hit is expected or not are based on " +
			"the settings which would be used for normal primer generation")
		pairs, err := loadPrimerFiles()
		if err != nil {
			log.Fatalf("%v", err)
		}
		// only a user-given prefix of the source id is known here
		expectation.PrefixMatch = true
		return pairs, expectation
	}

	templatePath := fastaPath
	if additionalFasta != "" {
		templatePath = additionalFasta
		expectation.External = true
		stderr("it is not possible to say whether a match found by bowtie is " +
			"expected or not if an additional file for primer generation is passed")
	}

	template, err := os.Open(templatePath)
	if err != nil {
		log.Fatalf("failed to open template file: %v", err)
	}
	defer template.Close()

	seq, id, err := genuprimer.ExtractTemplate(template, seqID)
	if err != nil {
		log.Fatalf("could not find sequence with given id prefix: %v", err)
	}
	if verbose {
		log.Printf("successfully extracted sequence %s", id)
	}
	expectation.SourceID = id

	designer := genuprimer.NewPrimer3(conf)
	pairs, err := designer.Design(seq, id)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := genuprimer.WritePrimerFiles(primerPrefix, pairs); err != nil {
		log.Fatalf("%v", err)
	}
	return pairs, expectation
}

// loadPrimerFiles reads the persisted primer pairs from the files under
// the configured prefix
func loadPrimerFiles() ([]genuprimer.PrimerPair, error) {
	leftName, rightName := genuprimer.PrimerFileNames(primerPrefix)

	left, err := os.Open(leftName)
	if err != nil {
		return nil, fmt.Errorf("could not find or read the forward primer file %s: %w", leftName, err)
	}
	defer left.Close()
	right, err := os.Open(rightName)
	if err != nil {
		return nil, fmt.Errorf("could not find or read the reverse primer file %s: %w", rightName, err)
	}
	defer right.Close()

	pairs, err := genuprimer.ReadPrimerPairs(left, right)
	if err != nil {
		var mismatch *genuprimer.PrimerFileMismatch
		if errors.As(err, &mismatch) {
			stderr("%v", mismatch)
			return pairs, nil
		}
		return nil, err
	}
	return pairs, nil
}

// stderr prints a user-facing warning without log decoration
func stderr(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "WARNING: "+format+"\n", args...)
}
