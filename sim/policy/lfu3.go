package policy

import "sort"

// ThreeTierLFU is the optional three-tier variant (spec.md §4.6): after the
// usual tier-0 promotion pass, it runs a second pass promoting tier 2 into
// tier 1, tracking pending moves from the first pass so the second pass's
// free-space estimate for tier 1 accounts for commands it hasn't executed
// yet.
type ThreeTierLFU struct {
	freq  map[ChunkID]int64
	order []ChunkID
	seen  map[ChunkID]bool
}

// NewThreeTierLFU creates a ThreeTierLFU policy with an empty frequency map.
func NewThreeTierLFU() *ThreeTierLFU {
	return &ThreeTierLFU{freq: make(map[ChunkID]int64), seen: make(map[ChunkID]bool)}
}

// Decide implements Policy.
func (p *ThreeTierLFU) Decide(now int64, window []AccessRecord, view View) []Command {
	tierCount := view.TierCount()

	for _, rec := range window {
		t, ok := view.PlacementOf(rec.ChunkID)
		if !ok || t < 0 || t >= tierCount {
			continue
		}
		p.freq[rec.ChunkID]++
		if !p.seen[rec.ChunkID] {
			p.seen[rec.ChunkID] = true
			p.order = append(p.order, rec.ChunkID)
		}
	}
	if len(p.freq) == 0 {
		return nil
	}

	hotList := make([]ChunkID, len(p.order))
	copy(hotList, p.order)
	sort.SliceStable(hotList, func(i, j int) bool {
		return p.freq[hotList[i]] > p.freq[hotList[j]]
	})

	pendingInto := make(map[int]int64)
	pendingOutOf := make(map[int]int64)
	chunkSize := view.ChunkSizeBytes()

	effectiveFree := func(tier int) int64 {
		return view.FreeSpaceBytes(tier)/chunkSize - pendingInto[tier] + pendingOutOf[tier]
	}

	var commands []Command
	rank := firstSeenRank(p.order)

	// Pass 1: promote into tier 0, same pattern as the single-tier LFU.
	tier0Coldest := sortedByFreqAsc(view.ResidentChunks(0), p.freq, rank)
	for _, c := range hotList {
		src, ok := view.PlacementOf(c)
		if !ok || src == 0 {
			continue
		}
		f := p.freq[c]
		if effectiveFree(0) >= 1 {
			commands = append(commands, Command{Action: ActionPromote, ChunkID: c, Src: src, Dst: 0, Reason: "lfu promote: tier 0 has space"})
			pendingInto[0]++
			pendingOutOf[src]++
			continue
		}
		if len(tier0Coldest) == 0 {
			continue
		}
		v := tier0Coldest[0]
		fv := p.freq[v]
		if fv < f {
			commands = append(commands, Command{Action: ActionEvict, ChunkID: v, Src: 0, Dst: 1, Reason: "lfu evict: colder than incoming candidate"})
			commands = append(commands, Command{Action: ActionPromote, ChunkID: c, Src: src, Dst: 0, Reason: "lfu promote: freed by eviction"})
			pendingOutOf[0]++
			pendingInto[1]++
			pendingInto[0]++
			pendingOutOf[src]++
			tier0Coldest = tier0Coldest[1:]
		} else {
			break
		}
	}

	if tierCount < 3 {
		return commands
	}

	// Pass 2: promote tier 2 into tier 1, using the same effective-free-space
	// accounting so it does not double-plan against pass 1's moves.
	tier1Coldest := sortedByFreqAsc(view.ResidentChunks(1), p.freq, rank)
	tier2Hot := sortedByFreqDesc(view.ResidentChunks(2), p.freq, rank)
	for _, c := range tier2Hot {
		freqC, ok := p.freq[c]
		if !ok {
			continue
		}
		if effectiveFree(1) >= 1 {
			commands = append(commands, Command{Action: ActionPromote, ChunkID: c, Src: 2, Dst: 1, Reason: "lfu promote: tier 1 has space"})
			pendingInto[1]++
			pendingOutOf[2]++
			continue
		}
		if len(tier1Coldest) == 0 {
			continue
		}
		v := tier1Coldest[0]
		fv := p.freq[v]
		if fv < freqC {
			commands = append(commands, Command{Action: ActionEvict, ChunkID: v, Src: 1, Dst: 2, Reason: "lfu evict: colder than incoming tier-2 candidate"})
			commands = append(commands, Command{Action: ActionPromote, ChunkID: c, Src: 2, Dst: 1, Reason: "lfu promote: freed by eviction"})
			pendingOutOf[1]++
			pendingInto[2]++
			pendingInto[1]++
			pendingOutOf[2]++
			tier1Coldest = tier1Coldest[1:]
		} else {
			break
		}
	}

	return commands
}

// sortedByFreqAsc sorts ascending by frequency, breaking ties by rank (the
// chunk's first-seen index) rather than the caller's (possibly
// map-iteration-derived) input order, so the result is deterministic.
func sortedByFreqAsc(chunks []ChunkID, freq map[ChunkID]int64, rank func(ChunkID) int) []ChunkID {
	out := make([]ChunkID, len(chunks))
	copy(out, chunks)
	sort.Slice(out, func(i, j int) bool {
		fi, fj := freq[out[i]], freq[out[j]]
		if fi != fj {
			return fi < fj
		}
		return rank(out[i]) < rank(out[j])
	})
	return out
}

func sortedByFreqDesc(chunks []ChunkID, freq map[ChunkID]int64, rank func(ChunkID) int) []ChunkID {
	out := make([]ChunkID, 0, len(chunks))
	for _, c := range chunks {
		if _, ok := freq[c]; ok {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		fi, fj := freq[out[i]], freq[out[j]]
		if fi != fj {
			return fi > fj
		}
		return rank(out[i]) < rank(out[j])
	})
	return out
}
