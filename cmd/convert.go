// cmd/convert.go
package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tiersim/tiersim/sim/trace"
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Normalize a trace file to the internal CSV record format",
	Long:  "Reads a trace in any supported format (msr, csv, synthetic) and writes normalized timestamp_ms,lba,size_bytes,op rows to stdout, mirroring the teacher's `convert` subcommand family.",
}

var (
	convertInputFormat string
	convertInputPath   string

	convertSynthCount       int64
	convertSynthTotalChunks int64
	convertSynthChunkSize   int64
	convertSynthLBASize     int64
	convertSynthMeanGapMs   float64
	convertSynthZipfSkew    float64
	convertSynthWriteFrac   float64
	convertSynthSeed        int64
)

var convertTraceCmd = &cobra.Command{
	Use:   "trace",
	Short: "Convert a msr/csv/synthetic trace to normalized CSV on stdout",
	Run: func(cmd *cobra.Command, args []string) {
		opts := trace.Options{
			Path:             convertInputPath,
			HasHeader:        false,
			TotalChunks:      convertSynthTotalChunks,
			ChunkSizeBytes:   convertSynthChunkSize,
			LBASizeBytes:     convertSynthLBASize,
			MeanInterarrival: convertSynthMeanGapMs,
			ZipfSkew:         convertSynthZipfSkew,
			WriteFraction:    convertSynthWriteFrac,
			Count:            convertSynthCount,
			Seed:             convertSynthSeed,
		}
		reader, err := trace.Open(convertInputFormat, opts)
		if err != nil {
			logrus.Fatalf("opening trace: %v", err)
		}
		defer reader.Close()

		for {
			rec, ok, err := reader.Read()
			if err != nil {
				logrus.WithError(err).Warn("ParseError: skipping malformed trace record")
				continue
			}
			if !ok {
				return
			}
			fmt.Printf("%d,%d,%d,%s\n", rec.TimestampMs, rec.LBA, rec.SizeBytes, rec.Op)
		}
	},
}

func init() {
	convertTraceCmd.Flags().StringVar(&convertInputFormat, "format", "msr", "Input trace format (msr, csv, synthetic)")
	convertTraceCmd.Flags().StringVar(&convertInputPath, "file", "", "Path to input trace file (ignored for synthetic)")
	convertTraceCmd.Flags().Int64Var(&convertSynthCount, "count", 100000, "Synthetic: number of records to generate")
	convertTraceCmd.Flags().Int64Var(&convertSynthTotalChunks, "total-chunks", 1000, "Synthetic: chunk population size")
	convertTraceCmd.Flags().Int64Var(&convertSynthChunkSize, "chunk-size-bytes", 4<<20, "Synthetic: chunk size in bytes")
	convertTraceCmd.Flags().Int64Var(&convertSynthLBASize, "lba-size-bytes", 512, "Synthetic: LBA size in bytes")
	convertTraceCmd.Flags().Float64Var(&convertSynthMeanGapMs, "mean-interarrival-ms", 10, "Synthetic: mean Poisson interarrival gap")
	convertTraceCmd.Flags().Float64Var(&convertSynthZipfSkew, "zipf-skew", 1.1, "Synthetic: Zipfian popularity skew (>1)")
	convertTraceCmd.Flags().Float64Var(&convertSynthWriteFrac, "write-fraction", 0.3, "Synthetic: fraction of accesses that are writes")
	convertTraceCmd.Flags().Int64Var(&convertSynthSeed, "seed", 1, "Synthetic: RNG seed")

	convertCmd.AddCommand(convertTraceCmd)
}
