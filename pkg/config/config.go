// Package config is for app wide settings that are unmarshalled
// from Viper (see: cmd/kmerml)
package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"

	"github.com/hed1ad/kmerml/pkg/genome"
	"github.com/hed1ad/kmerml/pkg/kmer"
)

// EncoderConfig settings for the k-mer encoder
type EncoderConfig struct {
	// symbols of the alphabet in index order
	Alphabet string `mapstructure:"alphabet"`

	// the k-mer length
	Order int `mapstructure:"order"`

	// what to do with symbols outside the alphabet: skip or fail
	Unknown string `mapstructure:"unknown"`

	// report frequencies instead of counts
	Normalize bool `mapstructure:"normalize"`

	// count lower-case (soft-masked) bases like upper-case ones
	FoldCase bool `mapstructure:"fold-case"`

	// encoding goroutines, 0 means one per CPU
	Workers int `mapstructure:"workers"`
}

// RegionConfig settings for tiling regions of interest into bins
type RegionConfig struct {
	Binsize      int  `mapstructure:"binsize"`
	Stepsize     int  `mapstructure:"stepsize"`
	Flank        int  `mapstructure:"flank"`
	VariableSize bool `mapstructure:"variable-size"`
}

// ModelConfig settings for the isolation forest
type ModelConfig struct {
	Trees         int     `mapstructure:"trees"`
	SampleSize    int     `mapstructure:"sample-size"`
	Contamination float64 `mapstructure:"contamination"`
	Seed          int64   `mapstructure:"seed"`
}

// Config is the root-level settings struct and is a mix
// of settings available in a settings file and those
// available from the command line
type Config struct {
	// directory for cached feature matrices, empty disables caching
	CacheDir string `mapstructure:"cache-dir"`

	Encoder EncoderConfig `mapstructure:"encoder"`
	Regions RegionConfig  `mapstructure:"regions"`
	Model   ModelConfig   `mapstructure:"model"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Encoder: EncoderConfig{
			Alphabet: kmer.DNA.String(),
			Order:    3,
			Unknown:  kmer.SkipUnknown.String(),
			FoldCase: true,
		},
		Regions: RegionConfig{
			Binsize:  200,
			Stepsize: 200,
		},
		Model: ModelConfig{
			Trees:         100,
			SampleSize:    256,
			Contamination: 0.1,
			Seed:          42,
		},
	}
}

// SetDefaults registers Default() with v so unset keys fall back to it.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("cache-dir", d.CacheDir)
	v.SetDefault("encoder.alphabet", d.Encoder.Alphabet)
	v.SetDefault("encoder.order", d.Encoder.Order)
	v.SetDefault("encoder.unknown", d.Encoder.Unknown)
	v.SetDefault("encoder.normalize", d.Encoder.Normalize)
	v.SetDefault("encoder.fold-case", d.Encoder.FoldCase)
	v.SetDefault("encoder.workers", d.Encoder.Workers)
	v.SetDefault("regions.binsize", d.Regions.Binsize)
	v.SetDefault("regions.stepsize", d.Regions.Stepsize)
	v.SetDefault("regions.flank", d.Regions.Flank)
	v.SetDefault("regions.variable-size", d.Regions.VariableSize)
	v.SetDefault("model.trees", d.Model.Trees)
	v.SetDefault("model.sample-size", d.Model.SampleSize)
	v.SetDefault("model.contamination", d.Model.Contamination)
	v.SetDefault("model.seed", d.Model.Seed)
}

// Load reads the optional settings file at path into v and returns
// the validated Config.
func Load(v *viper.Viper, path string) (Config, error) {
	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unable to decode into struct: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks settings that the encoder and indexer would reject later.
func (c Config) Validate() error {
	var errs []error

	if _, err := kmer.ParseUnknownPolicy(c.Encoder.Unknown); err != nil {
		errs = append(errs, err)
	}
	if c.Encoder.Workers < 0 {
		errs = append(errs, fmt.Errorf("encoder.workers must be >= 0, got %d", c.Encoder.Workers))
	}
	if c.Regions.Binsize < c.Encoder.Order {
		errs = append(errs, fmt.Errorf("regions.binsize %d is shorter than encoder.order %d",
			c.Regions.Binsize, c.Encoder.Order))
	}
	if c.Model.Contamination < 0 || c.Model.Contamination >= 1 {
		errs = append(errs, fmt.Errorf("model.contamination must be in [0, 1), got %v", c.Model.Contamination))
	}

	return errors.Join(errs...)
}

// NewEncoder builds the k-mer encoder described by c.
func (c Config) NewEncoder() (*kmer.Encoder, error) {
	policy, err := kmer.ParseUnknownPolicy(c.Encoder.Unknown)
	if err != nil {
		return nil, err
	}

	return kmer.New(kmer.Alphabet(c.Encoder.Alphabet), c.Encoder.Order,
		kmer.WithUnknownPolicy(policy),
		kmer.WithNormalize(c.Encoder.Normalize),
		kmer.WithFoldCase(c.Encoder.FoldCase),
	)
}

// NewIndexer tiles regions with the bin settings of c. Trailing bins too
// short for encoder.order are left out.
func (c Config) NewIndexer(regions []genome.Region) (*genome.Indexer, error) {
	return genome.NewIndexer(regions, c.Regions.Binsize, c.Regions.Stepsize,
		genome.WithFlank(c.Regions.Flank),
		genome.WithVariableSize(c.Regions.VariableSize),
		genome.WithMinSize(c.Encoder.Order),
	)
}
