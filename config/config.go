// Package config is for app wide settings that are unmarshalled
// from Viper (see: /cmd)
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Default specificity policy and match limit, used when neither the
// config file nor the command line sets them.
const (
	DefaultLastMustMatch = 3
	DefaultLastToCheck   = 12
	DefaultLastMaxError  = 5
	DefaultMatchLimit    = 5
)

// ConfigurationError means required numeric bounds are missing or
// inconsistent. It is fatal before any external tool is invoked.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

// TargetConfig is the window the primers have to flank
type TargetConfig struct {
	// Begin and End of the region between the primers which is not
	// overlapped by them
	Begin int `mapstructure:"target-position-begin"`
	End   int `mapstructure:"target-position-end"`
}

// ProductConfig bounds the size of the product including the primers
type ProductConfig struct {
	Min int `mapstructure:"primer-product-size-min"`
	Max int `mapstructure:"primer-product-size-max"`
}

// SpecificityConfig parameterizes the terminal-window hit policy and
// the per-pair reporting limit
type SpecificityConfig struct {
	// LastMustMatch terminal bases of a primer have to match for a hit
	LastMustMatch int `mapstructure:"last-must-match"`

	// LastToCheck terminal bases are checked against LastMaxError
	LastToCheck int `mapstructure:"last-to-check"`

	// LastMaxError mismatches are tolerated in the last LastToCheck bases
	LastMaxError int `mapstructure:"last-max-error"`

	// MatchLimit is the maximum number of hits of a primer pair before
	// the whole pair is omitted from the results
	MatchLimit int `mapstructure:"limit-number-of-matches"`
}

// ToolsConfig locates the external executables
type ToolsConfig struct {
	// Bowtie executable; the index builder is found by appending "-build"
	Bowtie string `mapstructure:"bowtie"`

	// Primer3 is the primer3_core executable
	Primer3 string `mapstructure:"primer3-core"`
}

// Config is the root-level settings struct, a mix of settings available
// in the config file and those from the command line
type Config struct {
	Target      TargetConfig      `mapstructure:",squash"`
	Product     ProductConfig     `mapstructure:",squash"`
	Specificity SpecificityConfig `mapstructure:",squash"`
	Tools       ToolsConfig       `mapstructure:",squash"`

	// Primer3Options are passed through to the design engine untouched
	// and take precedence over computed settings
	Primer3Options map[string]string `mapstructure:"primer3"`
}

// New returns a Config populated by Viper settings, either from the
// config file or from bound command line flags
func New() (Config, error) {
	viper.SetDefault("last-must-match", DefaultLastMustMatch)
	viper.SetDefault("last-to-check", DefaultLastToCheck)
	viper.SetDefault("last-max-error", DefaultLastMaxError)
	viper.SetDefault("limit-number-of-matches", DefaultMatchLimit)
	viper.SetDefault("bowtie", "bowtie")
	viper.SetDefault("primer3-core", "primer3_core")

	var c Config
	if err := viper.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unable to decode settings into struct: %w", err)
	}
	return c, nil
}

// Validate checks the numeric bounds before any external tool runs
func (c *Config) Validate() error {
	if c.Product.Min <= 0 || c.Product.Max <= 0 {
		return &ConfigurationError{Reason: "no desired size of the product has been passed"}
	}
	if c.Product.Min >= c.Product.Max {
		return &ConfigurationError{Reason: "product size range must be positive"}
	}
	if c.Target.Begin <= 0 && c.Target.End <= 0 {
		return &ConfigurationError{Reason: "no position of the product has been passed"}
	}
	if c.Target.Begin >= c.Target.End {
		return &ConfigurationError{Reason: "target position range must be positive"}
	}
	if c.Target.End-c.Target.Begin > c.Product.Min {
		return &ConfigurationError{Reason: "minimal product size must be larger than the target region"}
	}
	if c.Specificity.LastMustMatch < 0 || c.Specificity.LastToCheck < 0 ||
		c.Specificity.LastMaxError < 0 || c.Specificity.MatchLimit < 0 {
		return &ConfigurationError{Reason: "specificity settings must not be negative"}
	}
	return nil
}

// OKRegionList is the design engine's region constraint derived from
// the target window and the product size range: leftmost start and
// length for the forward primer, then start and length for the reverse
func (c *Config) OKRegionList() [4]int {
	targetLen := c.Target.End - c.Target.Begin
	return [4]int{
		// leftmost position a forward primer may start at
		c.Target.End - c.Product.Max,
		// how far it may reach toward the target
		c.Product.Max - targetLen,
		// the reverse primer has to start after the target
		c.Target.End,
		c.Product.Max - targetLen,
	}
}

// IncludedRegion is the stretch of the template the whole product has
// to lie in; hits outside it are not the designed-for locus
func (c *Config) IncludedRegion() (begin, end int) {
	ok := c.OKRegionList()
	return ok[0], c.Target.End + ok[3]
}
