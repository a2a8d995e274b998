package sim

import "github.com/tiersim/tiersim/sim/policy"

// orchestratorView adapts Orchestrator to policy.View, the read-only
// projection a Policy is allowed to query (spec.md §4.6).
type orchestratorView struct {
	o *Orchestrator
}

func (v orchestratorView) TierCount() int { return len(v.o.tiers) }

func (v orchestratorView) FreeSpaceBytes(t int) int64 {
	return v.o.tiers[t].FreeSpace()
}

func (v orchestratorView) ChunkSizeBytes() int64 { return v.o.chunkSizeBytes }

func (v orchestratorView) ResidentChunks(t int) []policy.ChunkID {
	src := v.o.tiers[t].ResidentChunks()
	out := make([]policy.ChunkID, len(src))
	for i, c := range src {
		out[i] = policy.ChunkID(c)
	}
	return out
}

func (v orchestratorView) PlacementOf(c policy.ChunkID) (int, bool) {
	return v.o.placement.Lookup(ChunkID(c))
}

// toPolicyRecords converts an AccessRecord window to the policy package's
// own record type, so Policy implementations have no dependency on
// package sim.
func toPolicyRecords(recs []AccessRecord) []policy.AccessRecord {
	out := make([]policy.AccessRecord, len(recs))
	for i, r := range recs {
		out[i] = policy.AccessRecord{Time: r.Time, ChunkID: policy.ChunkID(r.ChunkID), Op: int(r.Op), SizeBytes: r.SizeBytes}
	}
	return out
}
