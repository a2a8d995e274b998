// cmd/run.go
package cmd

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sim "github.com/tiersim/tiersim/sim"
	"github.com/tiersim/tiersim/sim/policy"
	"github.com/tiersim/tiersim/sim/trace"
)

var (
	configPath   string
	policyName   string
	csvHasHeader bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a tiering simulation from a YAML config and trace file",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadSimConfig(configPath)

		reader, err := trace.Open(cfg.TraceFormat, trace.Options{
			Path:           cfg.TracePath,
			HasHeader:      csvHasHeader,
			LBASizeBytes:   cfg.LBASizeBytes,
			ChunkSizeBytes: cfg.ChunkSizeBytes,
			TotalChunks:    cfg.TotalChunks,
			Seed:           cfg.Seed,
		})
		if err != nil {
			logrus.Fatalf("opening trace: %v", err)
		}

		var pol policy.Policy
		switch policyName {
		case "none":
			pol = nil
		case "lfu":
			pol = policy.NewLFU()
		case "lfu3":
			pol = policy.NewThreeTierLFU()
		default:
			logrus.Fatalf("unrecognized --policy %q (want none, lfu, lfu3)", policyName)
		}

		log := logrus.NewEntry(logrus.StandardLogger())
		s, err := sim.NewSimulation(cfg, reader, pol, log)
		if err != nil {
			logrus.Fatalf("startup: %v", err)
		}

		if err := s.Run(context.Background()); err != nil {
			logrus.Fatalf("simulation failed: %v", err)
		}

		s.Metrics().Print(s.DeviceReports())
		logrus.Info("simulation complete")
	},
}

func init() {
	runCmd.Flags().StringVar(&configPath, "config", "", "Path to simulation config YAML")
	runCmd.Flags().StringVar(&policyName, "policy", "lfu", "Migration policy (none, lfu, lfu3)")
	runCmd.Flags().BoolVar(&csvHasHeader, "csv-header", false, "Trace file's first line is a CSV header (csv format only)")
	_ = runCmd.MarkFlagRequired("config")
}
