package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/hed1ad/kmerml/pkg/config"
	"github.com/hed1ad/kmerml/pkg/genome"
	kio "github.com/hed1ad/kmerml/pkg/io"
	"github.com/hed1ad/kmerml/pkg/io/csv"
	"github.com/hed1ad/kmerml/pkg/kmer"
)

var encodeOut string

// encodeCmd writes the k-mer profile of every FASTA record as a CSV row.
var encodeCmd = &cobra.Command{
	Use:   "encode [fasta]",
	Short: "Write the k-mer profile of each FASTA record as CSV",
	Long: `Write the k-mer profile of each FASTA record as CSV.

The first column is the record ID, followed by one column per k-mer in index
order (AAA, AAC, ... for DNA). Records shorter than the order, or holding an
unknown symbol under --unknown=fail, are reported and left out.`,
	Example: "  kmerml encode -k 4 --normalize peaks.fa -o peaks.csv",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		in, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer in.Close()

		out := io.Writer(os.Stdout)
		if encodeOut != "" && encodeOut != "-" {
			f, err := os.Create(encodeOut)
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}

		return runEncode(cmd.Context(), cfg, in, csv.NewWriter(out))
	},
}

func init() {
	encodeCmd.Flags().StringVarP(&encodeOut, "out", "o", "", "output CSV file (default stdout)")

	rootCmd.AddCommand(encodeCmd)
}

func runEncode(ctx context.Context, cfg config.Config, in io.Reader, w kio.Writer) error {
	enc, err := cfg.NewEncoder()
	if err != nil {
		return err
	}

	records, err := genome.ReadRecords(in)
	if err != nil {
		return err
	}
	vlogf("read %d records, encoding with %s", len(records), enc)

	seqs := make([][]byte, len(records))
	for i, rec := range records {
		seqs[i] = rec.Seq
	}

	rows, encErr := enc.EncodeBatchContext(ctx, seqs, cfg.Encoder.Workers)
	var batchErr *kmer.BatchError
	if encErr != nil && !errors.As(encErr, &batchErr) {
		return encErr
	}

	if err := w.WriteHeader(enc.FeatureNames()); err != nil {
		return err
	}
	for i, row := range rows {
		if row == nil {
			continue
		}
		if err := w.WriteRow(records[i].ID, row); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if batchErr != nil {
		for _, f := range batchErr.Failures {
			log.Printf("skipped %s: %v", records[f.Index].ID, f.Err)
		}
		return fmt.Errorf("%d of %d records could not be encoded", len(batchErr.Failures), len(records))
	}
	return nil
}
