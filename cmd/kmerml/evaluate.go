package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/hed1ad/kmerml/pkg/cache"
	"github.com/hed1ad/kmerml/pkg/config"
	"github.com/hed1ad/kmerml/pkg/dataset"
	"github.com/hed1ad/kmerml/pkg/genome"
	"github.com/hed1ad/kmerml/pkg/io/csv"
	"github.com/hed1ad/kmerml/pkg/metrics"
	"github.com/hed1ad/kmerml/pkg/models"
	"github.com/hed1ad/kmerml/pkg/models/iforest"
)

// evaluateOptions are the inputs of one evaluation run.
type evaluateOptions struct {
	GenomePath  string
	RegionsPath string
	LabelPaths  []string
	LabelHeader bool
	LabelColumn int
	TestChroms  []string
	ModelOut    string
}

var evalOpts evaluateOptions

// evaluateCmd trains a classifier on k-mer profiles and reports AUC.
var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Train a classifier on k-mer profiles of regions and report ROC AUC",
	Long: `Train a classifier on k-mer profiles of regions and report ROC AUC.

Regions from --regions are tiled into bins (regions.binsize, regions.stepsize),
their sequence is read from --genome and encoded. --labels holds one label row
per bin, in bin order. Bins on --test-chrom are held out for scoring; without
it the model is scored on its training data.`,
	Example: "  kmerml evaluate --genome hg38.fa --regions roi.bed --labels ctcf.csv --test-chrom chr3",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return runEvaluate(cmd.Context(), cfg, evalOpts, cmd.OutOrStdout())
	},
}

func init() {
	d := config.Default()
	flags := evaluateCmd.Flags()

	flags.StringVarP(&evalOpts.GenomePath, "genome", "g", "", "reference genome FASTA")
	flags.StringVarP(&evalOpts.RegionsPath, "regions", "r", "", "regions of interest BED")
	flags.StringSliceVarP(&evalOpts.LabelPaths, "labels", "l", nil, "label CSV files, one or more columns each")
	flags.BoolVar(&evalOpts.LabelHeader, "label-header", false, "label files start with a header row")
	flags.IntVar(&evalOpts.LabelColumn, "label-column", 0, "label column to train on")
	flags.StringSliceVar(&evalOpts.TestChroms, "test-chrom", nil, "chromosomes held out for scoring")
	flags.StringVar(&evalOpts.ModelOut, "model-out", "", "write the trained model to this file")

	flags.Int("binsize", d.Regions.Binsize, "bin length in bases")
	flags.Int("stepsize", d.Regions.Stepsize, "distance between bin starts")
	flags.Int("flank", d.Regions.Flank, "bases added on both sides of each bin")
	flags.Bool("variable-size", d.Regions.VariableSize, "keep a shorter trailing bin per region")
	flags.Int("trees", d.Model.Trees, "isolation trees")
	flags.Int("sample-size", d.Model.SampleSize, "rows sampled per tree")
	flags.Int64("seed", d.Model.Seed, "random seed")

	evaluateCmd.MarkFlagRequired("genome")
	evaluateCmd.MarkFlagRequired("regions")
	evaluateCmd.MarkFlagRequired("labels")

	settings.BindPFlag("regions.binsize", flags.Lookup("binsize"))
	settings.BindPFlag("regions.stepsize", flags.Lookup("stepsize"))
	settings.BindPFlag("regions.flank", flags.Lookup("flank"))
	settings.BindPFlag("regions.variable-size", flags.Lookup("variable-size"))
	settings.BindPFlag("model.trees", flags.Lookup("trees"))
	settings.BindPFlag("model.sample-size", flags.Lookup("sample-size"))
	settings.BindPFlag("model.seed", flags.Lookup("seed"))

	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluate(ctx context.Context, cfg config.Config, opts evaluateOptions, out io.Writer) error {
	enc, err := cfg.NewEncoder()
	if err != nil {
		return err
	}

	g, err := loadGenome(opts.GenomePath)
	if err != nil {
		return err
	}
	vlogf("loaded %d chromosomes from %s", len(g.Chroms()), opts.GenomePath)

	regions, err := loadRegions(opts.RegionsPath)
	if err != nil {
		return err
	}
	ix, err := cfg.NewIndexer(regions)
	if err != nil {
		return err
	}
	vlogf("tiled %d regions into %d bins", len(regions), ix.Len())

	labels, err := csv.ReadLabels(opts.LabelPaths, csv.WithHeader(opts.LabelHeader))
	if err != nil {
		return err
	}

	var c *cache.Cache
	if cfg.CacheDir != "" {
		if c, err = cache.New(cfg.CacheDir); err != nil {
			return err
		}
	}

	ds, err := dataset.NewBuilder(enc,
		dataset.WithCache(c),
		dataset.WithWorkers(cfg.Encoder.Workers),
	).Build(ctx, g, ix, labels)
	if err != nil {
		return err
	}

	train, test := ds, ds
	if len(opts.TestChroms) > 0 {
		train = ds.Subset(ix.IdxByChrom(nil, opts.TestChroms))
		test = ds.Subset(ix.IdxByChrom(opts.TestChroms, nil))
	}
	if train.Len() == 0 || test.Len() == 0 {
		return fmt.Errorf("split by %v leaves %d training and %d test rows", opts.TestChroms, train.Len(), test.Len())
	}
	vlogf("training on %d rows, scoring %d rows", train.Len(), test.Len())

	yTrain, err := train.Target(opts.LabelColumn)
	if err != nil {
		return err
	}
	yTest, err := test.Target(opts.LabelColumn)
	if err != nil {
		return err
	}

	var clf models.Classifier = iforest.New(
		iforest.WithTrees(cfg.Model.Trees),
		iforest.WithSampleSize(cfg.Model.SampleSize),
		iforest.WithContamination(cfg.Model.Contamination),
		iforest.WithSeed(cfg.Model.Seed),
	)
	if err := clf.Fit(train.X, yTrain); err != nil {
		return err
	}

	scores, err := clf.PredictProba(test.X)
	if err != nil {
		return err
	}
	auc, err := metrics.AUC(yTest, scores)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "features: %d (%s)\n", enc.Dimension(), enc)
	fmt.Fprintf(out, "train: %d  test: %d\n", train.Len(), test.Len())
	fmt.Fprintf(out, "AUC: %.4f\n", auc)

	if opts.ModelOut != "" {
		data, err := clf.Save()
		if err != nil {
			return err
		}
		if err := os.WriteFile(opts.ModelOut, data, 0o644); err != nil {
			return err
		}
		vlogf("wrote model to %s", opts.ModelOut)
	}

	return nil
}

func loadGenome(path string) (*genome.Genome, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return genome.LoadGenome(f)
}

func loadRegions(path string) ([]genome.Region, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return genome.ReadRegions(f)
}
