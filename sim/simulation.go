// sim/simulation.go
package sim

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/tiersim/tiersim/sim/kernel"
	"github.com/tiersim/tiersim/sim/policy"
	"github.com/tiersim/tiersim/sim/trace"
)

// Simulation owns one run's kernel, orchestrator, and the two top-level
// concurrent activities (trace replay, migration control), joined with
// errgroup the way the example pack's multi-goroutine services do
// (spec.md §2 "Top-level concurrency"). This governs process lifetime
// only; the kernel's own scheduling is unaffected by errgroup semantics.
type Simulation struct {
	cfg          Config
	log          *logrus.Entry
	k            *kernel.Kernel
	orchestrator *Orchestrator
	stream       *RequestStream
	controller   *MigrationController
	reader       trace.Reader
}

// NewSimulation validates cfg, builds the kernel and orchestrator, and
// wires a RequestStream/MigrationController pair against the given trace
// reader and policy. pol may be nil.
func NewSimulation(cfg Config, reader trace.Reader, pol policy.Policy, log *logrus.Entry) (*Simulation, error) {
	cfg = cfg.Clone()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	k := kernel.New()
	o := NewOrchestrator(k, cfg, log.WithField("component", "orchestrator"))
	rs := NewRequestStream(k, o, cfg, log.WithField("component", "requeststream"))
	mc := NewMigrationController(k, o, rs, cfg, pol, log.WithField("component", "migrationcontroller"))

	sim := &Simulation{cfg: cfg, log: log, k: k, orchestrator: o, stream: rs, controller: mc, reader: reader}
	return sim, nil
}

// Run spawns RequestStream replay and MigrationController as the kernel's
// two top-level tasks and drives the kernel to completion.
//
// The kernel itself is single-owner-goroutine: k.Run must be called from
// the same goroutine for the lifetime of one run, so it cannot be handed
// to errgroup directly. Instead, errgroup supervises this call the way the
// example pack's services supervise a blocking main loop: it gives Run a
// ctx-cancellation-aware shutdown path and a single place callers check
// for the run's outcome, while the kernel's internal scheduling remains
// exactly as deterministic as a bare k.Run call (spec.md §2 "Top-level
// concurrency").
func (s *Simulation) Run(ctx context.Context) error {
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		defer s.reader.Close()
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("simulation panicked: %v", r)
			}
		}()

		s.k.Spawn(func(k *kernel.Kernel) {
			s.stream.Run(k, s.reader)
		})
		s.k.Spawn(func(k *kernel.Kernel) {
			s.controller.Run(k)
		})

		s.k.Run(int64(float64(s.cfg.SimulationTimeMs) * 1.1))
		return nil
	})
	return g.Wait()
}

// Metrics summarizes the completed run.
func (s *Simulation) Metrics() *Metrics {
	m := &Metrics{
		Generated:           s.stream.Generated(),
		Completed:           s.stream.CompletedCount(),
		Latencies:           s.stream.Latencies(),
		MigrationsSucceeded: s.controller.Succeeded(),
		MigrationsFailed:    s.controller.Failed(),
	}
	return m
}

// DeviceReports returns a utilization row for every configured device.
func (s *Simulation) DeviceReports() []DeviceReport {
	now := s.k.Now()
	var out []DeviceReport
	for _, t := range s.orchestrator.Tiers() {
		for _, d := range t.Devices() {
			out = append(out, DeviceReport{Tier: t.Name(), Device: d.Name(), Utilization: d.Utilization(now), Served: d.Served})
		}
	}
	return out
}
