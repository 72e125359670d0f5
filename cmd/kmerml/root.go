package main

import (
	"context"
	"log"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hed1ad/kmerml/pkg/config"
)

var (
	cfgFile string
	verbose bool

	settings = viper.New()
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "kmerml",
	Short: "Encode DNA as k-mer profiles and score binding-site classifiers",
	Long: `kmerml turns nucleotide sequences into dense k-mer count vectors.

Regions of interest are read from BED, their sequence from a FASTA reference,
and each region becomes one row of |alphabet|^order k-mer counts. The rows
can be written out as CSV (encode) or used to train and score a classifier
(evaluate).`,
	Version:      "0.1.0",
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		log.Fatalf("%v", err)
	}
}

func init() {
	log.SetFlags(0)
	log.SetPrefix("kmerml: ")

	d := config.Default()
	flags := rootCmd.PersistentFlags()

	flags.StringVarP(&cfgFile, "config", "c", "", "settings file (yaml, json or toml)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "log progress")

	flags.String("cache-dir", d.CacheDir, "directory for cached feature matrices (empty disables caching)")
	flags.String("alphabet", d.Encoder.Alphabet, "alphabet symbols in index order")
	flags.IntP("order", "k", d.Encoder.Order, "k-mer length")
	flags.String("unknown", d.Encoder.Unknown, "symbols outside the alphabet: skip their windows or fail")
	flags.Bool("normalize", d.Encoder.Normalize, "output k-mer frequencies instead of counts")
	flags.Bool("fold-case", d.Encoder.FoldCase, "count lower-case bases like upper-case ones")
	flags.IntP("workers", "j", d.Encoder.Workers, "encoding goroutines (0 = one per CPU)")

	// Bind the parameters to viper
	bind := map[string]string{
		"cache-dir":         "cache-dir",
		"encoder.alphabet":  "alphabet",
		"encoder.order":     "order",
		"encoder.unknown":   "unknown",
		"encoder.normalize": "normalize",
		"encoder.fold-case": "fold-case",
		"encoder.workers":   "workers",
	}
	for key, flag := range bind {
		settings.BindPFlag(key, flags.Lookup(flag))
	}
}

func loadConfig() (config.Config, error) {
	return config.Load(settings, cfgFile)
}

// vlogf logs only in verbose mode.
func vlogf(format string, args ...any) {
	if verbose {
		log.Printf(format, args...)
	}
}
