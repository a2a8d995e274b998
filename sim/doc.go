// Package sim implements a discrete-event simulator for a multi-tier
// block-storage system, evaluating data-migration policies against
// replayed I/O traces.
//
// # Reading Guide
//
// Start with these files to understand the simulation:
//   - sim/kernel: the cooperative discrete-event scheduler (virtual clock,
//     timeout, spawn, FIFO resource queues).
//   - device.go, tier.go, chunk.go: the storage model — per-device service
//     time, per-tier capacity and residency, the chunk→tier PlacementMap.
//   - orchestrator.go: the single source of truth for placement; routes
//     foreground I/O and executes migrations with rollback.
//   - requeststream.go: paces and replays a trace against the orchestrator.
//   - migrationcontroller.go: fires the policy at each decision window and
//     dispatches the resulting moves.
//   - sim/policy: the decision interface and the reference LFU
//     implementation.
//   - sim/trace: normalized trace records and format parsers (MSR
//     Cambridge-style, generic CSV, synthetic Poisson/Zipfian generation).
//
// # Key Interfaces
//
// The extension points are small, single-purpose interfaces:
//   - policy.Policy: decide(now, window, view) -> migration commands.
//   - trace.Reader: a lazy, ordered sequence of normalized trace records.
package sim
