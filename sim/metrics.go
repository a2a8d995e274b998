// sim/metrics.go
package sim

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// Metrics aggregates end-of-run statistics for reporting (spec.md §6
// "Outputs"): request counts and latency distribution, plus per-device
// utilization drawn straight from the Device bookkeeping Access()
// maintains during the run.
type Metrics struct {
	Generated int
	Completed int

	Latencies []int64

	MigrationsSucceeded int
	MigrationsFailed    int
}

// LatencyStats bundles the aggregate latency figures computed from
// Latencies: mean and P95, the latter via gonum's order-statistic
// quantile estimator rather than a hand-rolled interpolation (spec.md §9
// "Latency percentiles").
type LatencyStats struct {
	Mean float64
	P95  float64
}

// Compute sorts a copy of m.Latencies and returns the aggregate figures.
// Returns the zero value if no requests completed.
func (m *Metrics) Compute() LatencyStats {
	if len(m.Latencies) == 0 {
		return LatencyStats{}
	}
	data := make([]float64, len(m.Latencies))
	sum := 0.0
	for i, l := range m.Latencies {
		data[i] = float64(l)
		sum += data[i]
	}
	stat.SortWeighted(data, nil)
	return LatencyStats{
		Mean: sum / float64(len(data)),
		P95:  stat.Quantile(0.95, stat.Empirical, data, nil),
	}
}

// DeviceReport is one line of the per-device utilization table.
type DeviceReport struct {
	Tier        string
	Device      string
	Utilization float64
	Served      int64
}

// Print renders a human-readable summary to stdout at the end of a run.
func (m *Metrics) Print(devices []DeviceReport) {
	stats := m.Compute()
	fmt.Println("=== Simulation Metrics ===")
	fmt.Printf("Generated requests     : %d\n", m.Generated)
	fmt.Printf("Completed requests     : %d\n", m.Completed)
	fmt.Printf("Mean latency           : %.2f ms\n", stats.Mean)
	fmt.Printf("P95 latency            : %.2f ms\n", stats.P95)
	fmt.Printf("Migrations succeeded    : %d\n", m.MigrationsSucceeded)
	fmt.Printf("Migrations failed       : %d\n", m.MigrationsFailed)
	fmt.Println("--- Device utilization ---")
	for _, d := range devices {
		fmt.Printf("%-8s %-12s util=%.4f served=%d\n", d.Tier, d.Device, d.Utilization, d.Served)
	}
}
