package kernel

import "sync"

// Resource is a FIFO permit queue: Acquire suspends the calling task until
// a permit is free, Release hands a freed permit to the longest-waiting
// acquirer (or returns it to the pool if nobody is waiting). A
// capacity-1 Resource is the per-Device mutual-exclusion queue from
// spec.md §3/§4.2; larger capacities are supported for completeness but
// unused at the Tier level in the reference configuration.
type Resource struct {
	k    *Kernel
	mu   sync.Mutex
	free int
	wait []chan struct{}
}

// NewResource creates a Resource with `capacity` immediately-available
// permits. capacity must be >= 1.
func (k *Kernel) NewResource(capacity int) *Resource {
	if capacity < 1 {
		panic("kernel: resource capacity must be >= 1")
	}
	return &Resource{k: k, free: capacity}
}

// Acquire takes a permit, suspending the calling task if none is
// immediately available. Acquisition is strictly FIFO: a task that calls
// Acquire first is granted the next freed permit first.
func (r *Resource) Acquire() {
	r.mu.Lock()
	if r.free > 0 {
		r.free--
		r.mu.Unlock()
		return
	}
	resume := make(chan struct{})
	r.wait = append(r.wait, resume)
	r.mu.Unlock()
	r.k.suspend(resume)
}

// Release returns a permit. If a task is waiting, the permit is handed
// directly to the longest-waiting one, which becomes runnable at the
// current virtual time (not some future tick) — this is what lets
// migration and foreground I/O interleave fairly on contended devices.
func (r *Resource) Release() {
	r.mu.Lock()
	if len(r.wait) > 0 {
		resume := r.wait[0]
		r.wait = r.wait[1:]
		r.mu.Unlock()
		r.k.mu.Lock()
		r.k.scheduleAtLocked(r.k.clock, resume)
		r.k.mu.Unlock()
		return
	}
	r.free++
	r.mu.Unlock()
}

// Guard acquires the resource and returns a release function, for
// scope-guarded acquisition: `release := res.Guard(); defer release()`
// (spec.md §9 "Scoped resource acquisition").
func (r *Resource) Guard() (release func()) {
	r.Acquire()
	var once sync.Once
	return func() {
		once.Do(r.Release)
	}
}
