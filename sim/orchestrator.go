// sim/orchestrator.go
package sim

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/tiersim/tiersim/sim/kernel"
)

// completionNotifier is implemented by RequestStream; kept as a narrow
// interface so Orchestrator does not need to import RequestStream
// directly (spec.md §4.4 "set_request_stream").
type completionNotifier interface {
	onCompletion(req *Request)
}

// Orchestrator owns the PlacementMap, the authoritative chunk→tier
// mapping, and is the only component that mutates it. It serializes
// per-chunk moves and executes reads/writes/migrations against Tiers
// (spec.md §4.4).
type Orchestrator struct {
	k *kernel.Kernel
	log *logrus.Entry

	tiers           []*Tier
	bottomIndex     int
	placement       *PlacementMap
	chunkSizeBytes  int64
	lbasPerChunk    int64
	debugAssertions bool

	stream completionNotifier

	// chunkLocks serializes HandleIO against ExecuteMigration for the
	// same chunk (spec.md §4.4/§5/§9 "Per-chunk serialization" — a
	// REQUIRED invariant even though the reference source allows the
	// race). Each lock is a capacity-1 kernel.Resource, so a task waiting
	// on a held lock suspends through the kernel instead of blocking its
	// goroutine. Created up front for every chunk in [0, total_chunks),
	// and lazily for any other ID a request names; never removed.
	chunkLocksMu sync.Mutex
	chunkLocks   map[ChunkID]*kernel.Resource
}

// NewOrchestrator builds the tier fleet from cfg and synchronously
// populates every chunk's residency in the bottom tier with dirty=false,
// setting PlacementMap[c] = bottom for all c. No simulated time elapses
// during this call (spec.md §4.4).
func NewOrchestrator(k *kernel.Kernel, cfg Config, log *logrus.Entry) *Orchestrator {
	tiers := make([]*Tier, len(cfg.Tiers))
	bottomIndex := -1
	for i, tc := range cfg.Tiers {
		tc.Devices = append([]DeviceConfig(nil), tc.Devices...)
		for j := range tc.Devices {
			tc.Devices[j].LBASizeBytes = cfg.LBASizeBytes
		}
		tiers[i] = NewTier(k, i, tc, cfg.ChunkSizeBytes)
		if tc.IsBottom {
			bottomIndex = i
		}
	}
	o := &Orchestrator{
		k:               k,
		log:             log,
		tiers:           tiers,
		bottomIndex:     bottomIndex,
		placement:       NewPlacementMap(cfg.TotalChunks),
		chunkSizeBytes:  cfg.ChunkSizeBytes,
		lbasPerChunk:    cfg.ChunkSizeBytes / cfg.LBASizeBytes,
		chunkLocks:      make(map[ChunkID]*kernel.Resource, cfg.TotalChunks),
		debugAssertions: cfg.DebugAssertions,
	}
	bottom := tiers[bottomIndex]
	for c := ChunkID(0); int64(c) < cfg.TotalChunks; c++ {
		bottom.AddInitial(c, false)
		o.placement.Set(c, bottomIndex)
		o.chunkLocks[c] = k.NewResource(1)
	}
	return o
}

// SetRequestStream wires the completion callback (spec.md §4.4).
func (o *Orchestrator) SetRequestStream(rs completionNotifier) {
	o.stream = rs
}

func (o *Orchestrator) Tiers() []*Tier { return o.tiers }
func (o *Orchestrator) BottomIndex() int { return o.bottomIndex }
func (o *Orchestrator) Placement() *PlacementMap { return o.placement }

func (o *Orchestrator) chunkLock(c ChunkID) *kernel.Resource {
	o.chunkLocksMu.Lock()
	defer o.chunkLocksMu.Unlock()
	m, ok := o.chunkLocks[c]
	if !ok {
		m = o.k.NewResource(1)
		o.chunkLocks[c] = m
	}
	return m
}

// HandleIO services one foreground request (spec.md §4.4):
//  1. chunk_id = lba / lbas_per_chunk
//  2. find the resident tier (PlacementMap lookup, asserted in debug
//     builds against a tier scan)
//  3. acquire the device queue on that tier and perform the access
//  4. mark the chunk dirty on write
//  5. notify RequestStream of completion
//
// A critical PlacementMismatch (chunk not resident anywhere) is logged
// and the request is completed without device work, so the simulation
// can continue (spec.md §7).
func (o *Orchestrator) HandleIO(k *kernel.Kernel, req *Request) {
	chunk := ChunkID(req.LBA / o.lbasPerChunk)

	release := o.chunkLock(chunk).Guard()
	defer release()

	tierIdx, ok := o.placement.Lookup(chunk)
	if !ok || !o.tiers[tierIdx].Has(chunk) {
		o.log.WithFields(logrus.Fields{"chunk": chunk, "request": req.ID}).
			Error("PlacementMismatch: chunk not resident in its placed tier during HandleIO")
		o.complete(k, req)
		return
	}

	tier := o.tiers[tierIdx]
	switch req.Op {
	case OpRead:
		// Sub-chunk reads must be costed at req.SizeBytes, not a full
		// chunk_size_bytes access (spec.md §4.4 step 3, §9): using the
		// request's actual size also keeps the HDD striping divisor in
		// Device.serviceTimeMs from firing on anything but a true
		// full-chunk access.
		d := tier.nextDevice()
		d.Access(k, req.SizeBytes, OpRead)
	case OpWrite:
		d := tier.nextDevice()
		d.Access(k, req.SizeBytes, OpWrite)
		tier.SetDirty(chunk, true)
	}
	o.assertPlacementConsistent(chunk)
	o.complete(k, req)
}

// assertPlacementConsistent panics if tier.Has(c) disagrees with
// PlacementMap[c] == tier.index, for the chunk just touched. Only runs
// when Config.DebugAssertions is set (spec.md §9 "Placement map is
// authoritative"); never on the hot path otherwise.
func (o *Orchestrator) assertPlacementConsistent(c ChunkID) {
	if !o.debugAssertions {
		return
	}
	placed, ok := o.placement.Lookup(c)
	for i, t := range o.tiers {
		resident := t.Has(c)
		wantResident := ok && i == placed
		if resident != wantResident {
			panic(fmt.Sprintf("placement map inconsistent for chunk %d: tier %d resident=%v, PlacementMap says tier=%d ok=%v",
				c, i, resident, placed, ok))
		}
	}
}

func (o *Orchestrator) complete(k *kernel.Kernel, req *Request) {
	req.Completed = true
	req.CompletionTime = k.Now()
	req.Latency = req.CompletionTime - req.ArrivalTime
	if o.stream != nil {
		o.stream.onCompletion(req)
	}
}

// ExecuteMigration moves chunk from src to dst, per spec.md §4.4.
// Preconditions are checked in order, failing fast with false on any
// mismatch. Returns true iff the chunk ends up resident in dst with
// PlacementMap[chunk] == dst.
func (o *Orchestrator) ExecuteMigration(k *kernel.Kernel, chunk ChunkID, src, dst int, reason string) bool {
	if src < 0 || src >= len(o.tiers) || dst < 0 || dst >= len(o.tiers) {
		o.log.WithFields(logrus.Fields{"chunk": chunk, "src": src, "dst": dst}).
			Warn("ExecuteMigration: invalid tier index")
		return false
	}

	release := o.chunkLock(chunk).Guard()
	defer release()

	curTier, ok := o.placement.Lookup(chunk)
	if !ok || curTier != src {
		o.log.WithFields(logrus.Fields{"chunk": chunk, "src": src, "placed": curTier}).
			Warn("PlacementMismatch: ExecuteMigration src does not match PlacementMap")
		return false
	}
	srcTier, dstTier := o.tiers[src], o.tiers[dst]
	if !srcTier.Has(chunk) {
		o.log.WithFields(logrus.Fields{"chunk": chunk, "src": src}).
			Warn("PlacementMismatch: ExecuteMigration src tier does not have chunk resident")
		return false
	}

	movingToBottom := dst == o.bottomIndex
	if !movingToBottom && dstTier.FreeSpace() < o.chunkSizeBytes {
		o.log.WithFields(logrus.Fields{"chunk": chunk, "dst": dst}).
			Debug("CapacityDenied: destination tier has insufficient free space")
		return false
	}

	meta, ok := srcTier.RemoveChunk(chunk)
	if !ok {
		o.log.WithFields(logrus.Fields{"chunk": chunk, "src": src}).
			Warn("ExecuteMigration: RemoveChunk failed after Has() reported true")
		return false
	}

	// Clean eviction fast path: no physical write when moving down the
	// hierarchy with no unflushed writes.
	if movingToBottom && !meta.Dirty && src < dst {
		if _, already := dstTier.GetMeta(chunk); already {
			dstTier.SetDirty(chunk, false)
		} else {
			dstTier.AddInitial(chunk, false)
		}
		o.placement.Set(chunk, dst)
		o.assertPlacementConsistent(chunk)
		return true
	}

	writeDirty := meta.Dirty
	if movingToBottom {
		writeDirty = false
	}
	if dstTier.WriteChunk(k, chunk, writeDirty) {
		o.placement.Set(chunk, dst)
		o.assertPlacementConsistent(chunk)
		return true
	}

	// Rollback: attempt to restore src. If that also fails, the state is
	// declared inconsistent — logged, simulation continues (spec.md §7
	// DeviceWriteFailure).
	if !srcTier.WriteChunk(k, chunk, meta.Dirty) {
		o.log.WithFields(logrus.Fields{"chunk": chunk, "src": src, "dst": dst}).
			Error("DeviceWriteFailure: destination write failed and rollback to source also failed; state is inconsistent")
	}
	return false
}
