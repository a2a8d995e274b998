// sim/tier.go
package sim

import (
	"fmt"

	"github.com/tiersim/tiersim/sim/kernel"
)

// TierConfig describes one tier's identity, capacity, and device fleet.
type TierConfig struct {
	Name          string         `yaml:"name"`
	CapacityBytes int64          `yaml:"capacity_bytes"` // ignored (unbounded) for the bottom tier
	Devices       []DeviceConfig `yaml:"devices"`
	IsBottom      bool           `yaml:"is_bottom"`
}

// Tier is a named collection of Devices sharing a capacity budget and a
// chunk-residency table (spec.md §3/§4.3).
type Tier struct {
	index         int
	name          string
	capacityBytes int64
	isBottom      bool

	devices       []*Device
	nextDeviceIdx int

	residency map[ChunkID]ChunkResidency
	usedBytes int64

	chunkSizeBytes int64
}

// NewTier constructs a Tier at the given index with devices registered
// against the supplied kernel.
func NewTier(k *kernel.Kernel, index int, cfg TierConfig, chunkSizeBytes int64) *Tier {
	if len(cfg.Devices) == 0 {
		panic(fmt.Sprintf("tier %s: must have at least one device", cfg.Name))
	}
	devices := make([]*Device, len(cfg.Devices))
	for i, dc := range cfg.Devices {
		dc.ChunkSizeBytes = chunkSizeBytes
		devices[i] = NewDevice(k, dc)
	}
	return &Tier{
		index:          index,
		name:           cfg.Name,
		capacityBytes:  cfg.CapacityBytes,
		isBottom:       cfg.IsBottom,
		devices:        devices,
		residency:      make(map[ChunkID]ChunkResidency),
		chunkSizeBytes: chunkSizeBytes,
	}
}

func (t *Tier) Index() int      { return t.index }
func (t *Tier) Name() string    { return t.name }
func (t *Tier) IsBottom() bool  { return t.isBottom }
func (t *Tier) UsedBytes() int64     { return t.usedBytes }
func (t *Tier) CapacityBytes() int64 { return t.capacityBytes }
func (t *Tier) ChunkCount() int      { return len(t.residency) }
func (t *Tier) Devices() []*Device   { return t.devices }

// Has reports whether chunk c is resident in this tier.
func (t *Tier) Has(c ChunkID) bool {
	_, ok := t.residency[c]
	return ok
}

// GetMeta returns the chunk's residency metadata, if resident.
func (t *Tier) GetMeta(c ChunkID) (ChunkResidency, bool) {
	m, ok := t.residency[c]
	return m, ok
}

// FreeSpace returns remaining capacity in bytes. The bottom tier reports
// an effectively unbounded amount of free space (spec.md I4).
func (t *Tier) FreeSpace() int64 {
	if t.isBottom {
		return int64(^uint64(0) >> 1) // math.MaxInt64, avoiding an import
	}
	return t.capacityBytes - t.usedBytes
}

// nextDevice selects a device by strict round-robin, advancing the cursor
// only on a successful selection (spec.md §4.3).
func (t *Tier) nextDevice() *Device {
	d := t.devices[t.nextDeviceIdx]
	t.nextDeviceIdx = (t.nextDeviceIdx + 1) % len(t.devices)
	return d
}

// AddInitial synchronously populates a chunk's residency at startup, with
// no simulated time elapsing and no device I/O. It is idempotent: calling
// it twice with the same dirty flag is a no-op on UsedBytes (spec.md §4.3,
// §8 "Idempotent initial population"). It panics if capacity would be
// exceeded, except for the designated bottom tier.
func (t *Tier) AddInitial(c ChunkID, dirty bool) {
	existing, exists := t.residency[c]
	if exists {
		t.residency[c] = ChunkResidency{Dirty: dirty, SizeBytes: existing.SizeBytes}
		return
	}
	if !t.isBottom && t.usedBytes+t.chunkSizeBytes > t.capacityBytes {
		panic(fmt.Sprintf("tier %s: initial population of chunk %d exceeds capacity (%d + %d > %d)",
			t.name, c, t.usedBytes, t.chunkSizeBytes, t.capacityBytes))
	}
	t.residency[c] = ChunkResidency{Dirty: dirty, SizeBytes: t.chunkSizeBytes}
	t.usedBytes += t.chunkSizeBytes
}

// WriteChunk performs a chunk_size_bytes device write against a
// round-robin-selected device, then inserts/updates residency. Returns
// false (CapacityDenied) without performing any I/O if the chunk is not
// yet resident and there isn't enough free space.
func (t *Tier) WriteChunk(k *kernel.Kernel, c ChunkID, dirty bool) bool {
	_, alreadyResident := t.residency[c]
	if !alreadyResident && !t.isBottom && t.FreeSpace() < t.chunkSizeBytes {
		return false
	}
	// Reserve the space before the device access suspends this task, so a
	// concurrent WriteChunk targeting the same tier sees accurate free
	// space rather than racing against this one's not-yet-applied usage.
	if !alreadyResident {
		t.usedBytes += t.chunkSizeBytes
	}

	d := t.nextDevice()
	d.Access(k, t.chunkSizeBytes, OpWrite)

	t.residency[c] = ChunkResidency{Dirty: dirty, SizeBytes: t.chunkSizeBytes}
	return true
}

// RemoveChunk removes a chunk's residency entry and returns the metadata
// that was removed. Pure bookkeeping: no device I/O.
func (t *Tier) RemoveChunk(c ChunkID) (ChunkResidency, bool) {
	m, ok := t.residency[c]
	if !ok {
		return ChunkResidency{}, false
	}
	delete(t.residency, c)
	t.usedBytes -= m.SizeBytes
	return m, true
}

// SetDirty marks a resident chunk dirty (used by Orchestrator.HandleIO on
// writes). No-op if the chunk is not resident.
func (t *Tier) SetDirty(c ChunkID, dirty bool) {
	if m, ok := t.residency[c]; ok {
		m.Dirty = dirty
		t.residency[c] = m
	}
}

// ResidentChunks returns the set of chunk IDs currently resident in this
// tier. Used by Policy views; callers must not mutate the result.
func (t *Tier) ResidentChunks() []ChunkID {
	out := make([]ChunkID, 0, len(t.residency))
	for c := range t.residency {
		out = append(out, c)
	}
	return out
}
