package policy

import "testing"

func newThreeTierFakeView() *fakeView {
	return &fakeView{
		tiers:     3,
		free:      map[int]int64{0: 0, 1: 0, 2: 1 << 30},
		chunkSize: 4096,
		resident:  map[int][]ChunkID{0: {100}, 1: {200}, 2: {2}},
		placement: map[ChunkID]int{100: 0, 200: 1, 2: 2},
	}
}

func TestThreeTierLFU_Decide_PromotesTier2IntoTier1WhenFreeSpaceAvailable(t *testing.T) {
	p := NewThreeTierLFU()
	v := newThreeTierFakeView()
	v.free[1] = 4096 // tier 1 has room for one chunk

	cmds := p.Decide(0, []AccessRecord{{ChunkID: 2}}, v)

	var sawPromote bool
	for _, c := range cmds {
		if c.Action == ActionPromote && c.ChunkID == 2 && c.Dst == 1 {
			sawPromote = true
		}
	}
	if !sawPromote {
		t.Errorf("cmds = %+v, want a promotion of chunk 2 into tier 1", cmds)
	}
}

func TestThreeTierLFU_Decide_EvictsFromTier1WhenTier2CandidateIsHotter(t *testing.T) {
	p := NewThreeTierLFU()
	v := newThreeTierFakeView()
	// tier 1 full, holding a cold chunk (200); tier 2's chunk 2 is accessed often
	window := []AccessRecord{{ChunkID: 2}, {ChunkID: 2}, {ChunkID: 2}, {ChunkID: 200}}

	cmds := p.Decide(0, window, v)

	var sawEvict, sawPromote bool
	for _, c := range cmds {
		if c.Action == ActionEvict && c.ChunkID == 200 && c.Src == 1 {
			sawEvict = true
		}
		if c.Action == ActionPromote && c.ChunkID == 2 && c.Dst == 1 {
			sawPromote = true
		}
	}
	if !sawEvict || !sawPromote {
		t.Errorf("cmds = %+v, want evict(200 from tier1) and promote(2 into tier1)", cmds)
	}
}

func TestThreeTierLFU_Decide_SkipsSecondPassWhenOnlyTwoTiersConfigured(t *testing.T) {
	p := NewThreeTierLFU()
	v := newThreeTierFakeView()
	v.tiers = 2

	cmds := p.Decide(0, []AccessRecord{{ChunkID: 2}}, v)
	for _, c := range cmds {
		if c.Src == 2 || c.Dst == 2 {
			t.Errorf("cmds = %+v, should not reference tier 2 when tierCount < 3", cmds)
		}
	}
}

func TestThreeTierLFU_Decide_PendingAccountingPreventsDoubleBookingTier1Space(t *testing.T) {
	// GIVEN tier 1 has exactly one chunk of free space and two hot tier-2
	// candidates compete for it: only the first should be promoted.
	p := NewThreeTierLFU()
	v := newThreeTierFakeView()
	v.free[1] = 4096
	v.resident[2] = []ChunkID{2, 3}
	v.placement[3] = 2

	window := []AccessRecord{{ChunkID: 2}, {ChunkID: 2}, {ChunkID: 3}, {ChunkID: 3}}
	cmds := p.Decide(0, window, v)

	promotions := 0
	for _, c := range cmds {
		if c.Action == ActionPromote && c.Dst == 1 {
			promotions++
		}
	}
	if promotions != 1 {
		t.Errorf("got %d promotions into tier 1, want exactly 1 (only one slot of free space)", promotions)
	}
}
