package sim

import (
	"github.com/sirupsen/logrus"
	"github.com/tiersim/tiersim/sim/kernel"
	"github.com/tiersim/tiersim/sim/policy"
)

// MigrationController is the periodic driver that invokes Policy at each
// decision window and dispatches the resulting commands to Orchestrator
// (spec.md §4.7).
type MigrationController struct {
	k            *kernel.Kernel
	orchestrator *Orchestrator
	stream       *RequestStream
	log          *logrus.Entry

	windowSizeMs     int64
	simulationTimeMs int64
	policy           policy.Policy

	lastLogIndex int
	succeeded    int
	failed       int
}

// NewMigrationController wires a MigrationController. pol may be nil, in
// which case every window is a no-op (spec.md §4.7 step 3 "empty list if
// no policy").
func NewMigrationController(k *kernel.Kernel, o *Orchestrator, rs *RequestStream, cfg Config, pol policy.Policy, log *logrus.Entry) *MigrationController {
	return &MigrationController{
		k:                k,
		orchestrator:     o,
		stream:           rs,
		log:              log,
		windowSizeMs:     cfg.WindowSizeMs,
		simulationTimeMs: cfg.SimulationTimeMs,
		policy:           pol,
	}
}

func (mc *MigrationController) Succeeded() int { return mc.succeeded }
func (mc *MigrationController) Failed() int    { return mc.failed }

// Run drives the per-window cycle described in spec.md §4.7, steps 1-5.
// It must be called from inside a kernel task and returns once a
// termination condition fires.
func (mc *MigrationController) Run(k *kernel.Kernel) {
	for {
		k.Timeout(mc.windowSizeMs)
		currentTime := k.Now()

		accessLog := mc.stream.AccessLog()
		windowCopy := append([]AccessRecord(nil), accessLog.Since(mc.lastLogIndex)...)
		accessLog.TruncateTo(accessLog.Len())
		mc.lastLogIndex = 0

		var commands []policy.Command
		if mc.policy != nil {
			commands = mc.policy.Decide(currentTime, toPolicyRecords(windowCopy), orchestratorView{o: mc.orchestrator})
		}

		var evictions, promotions []policy.Command
		for _, c := range commands {
			if c.Action == policy.ActionEvict {
				evictions = append(evictions, c)
			} else {
				promotions = append(promotions, c)
			}
		}
		for _, c := range append(evictions, promotions...) {
			mc.execute(k, c)
		}

		if currentTime > mc.simulationTimeMs && mc.stream.CompletedCount() >= mc.stream.Generated() {
			return
		}
		if currentTime > mc.simulationTimeMs*11/10 {
			mc.log.WithField("current_time", currentTime).Warn("MigrationController: forced stop at safety-valve horizon")
			return
		}
	}
}

func (mc *MigrationController) execute(k *kernel.Kernel, c policy.Command) {
	ok := mc.orchestrator.ExecuteMigration(k, ChunkID(c.ChunkID), c.Src, c.Dst, c.Reason)
	if ok {
		mc.succeeded++
	} else {
		mc.failed++
	}
}
