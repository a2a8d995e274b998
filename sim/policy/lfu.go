package policy

import "sort"

// LFU is the reference migration policy (spec.md §4.6): it maintains a
// cumulative access-frequency map across all windows and, on each call,
// tries to promote the hottest chunks into tier 0, evicting tier 0's
// coldest resident chunk when a hotter candidate needs the space.
type LFU struct {
	freq  map[ChunkID]int64
	order []ChunkID // first-seen order, for a stable tie-break on equal frequency
	seen  map[ChunkID]bool
}

// firstSeenRank returns a lookup from chunk to its index in order (i.e. the
// order accesses first established it). Chunks outside order (never
// accessed this run) rank after every seen chunk, broken by ChunkID itself,
// so tie-breaking stays deterministic given the input trace rather than
// depending on Go's randomized map iteration order (spec.md §4.1, §4.6
// "stable sort preserves first-seen order").
func firstSeenRank(order []ChunkID) func(ChunkID) int {
	idx := make(map[ChunkID]int, len(order))
	for i, c := range order {
		idx[c] = i
	}
	unseenBase := len(order)
	return func(c ChunkID) int {
		if i, ok := idx[c]; ok {
			return i
		}
		return unseenBase + int(c)
	}
}

// NewLFU creates an LFU policy with an empty frequency map.
func NewLFU() *LFU {
	return &LFU{freq: make(map[ChunkID]int64), seen: make(map[ChunkID]bool)}
}

// Decide implements Policy.
func (p *LFU) Decide(now int64, window []AccessRecord, view View) []Command {
	tierCount := view.TierCount()

	for _, rec := range window {
		t, ok := view.PlacementOf(rec.ChunkID)
		if !ok || t < 0 || t >= tierCount {
			continue // discard records with out-of-range chunk_id
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

	rank := firstSeenRank(p.order)
	tier1 := view.ResidentChunks(0)
	tier1LFU := make([]ChunkID, len(tier1))
	copy(tier1LFU, tier1)
	sort.SliceStable(tier1LFU, func(i, j int) bool {
		fi, fj := p.freq[tier1LFU[i]], p.freq[tier1LFU[j]]
		if fi != fj {
			return fi < fj
		}
		return rank(tier1LFU[i]) < rank(tier1LFU[j])
	})

	chunkSize := view.ChunkSizeBytes()
	var commands []Command

	for _, c := range hotList {
		src, ok := view.PlacementOf(c)
		if !ok {
			continue
		}
		if src == 0 {
			continue
		}
		f := p.freq[c]

		if view.FreeSpaceBytes(0) >= chunkSize {
			commands = append(commands, Command{Action: ActionPromote, ChunkID: c, Src: src, Dst: 0, Reason: "lfu promote: tier 0 has space"})
			continue
		}
		if len(tier1LFU) == 0 {
			continue
		}
		v := tier1LFU[0]
		fv := p.freq[v]
		if fv < f {
			commands = append(commands, Command{Action: ActionEvict, ChunkID: v, Src: 0, Dst: 1, Reason: "lfu evict: colder than incoming candidate"})
			commands = append(commands, Command{Action: ActionPromote, ChunkID: c, Src: src, Dst: 0, Reason: "lfu promote: freed by eviction"})
			tier1LFU = tier1LFU[1:]
		} else {
			break // no colder tier-0 chunk is weaker than any remaining candidate
		}
	}

	return commands
}
