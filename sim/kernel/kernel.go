// Package kernel implements the discrete-event simulation core: a monotonic
// virtual clock, a FIFO wake-time heap, and a cooperative task scheduler.
//
// Tasks are ordinary goroutines, not inline event callbacks. The Kernel
// hands exactly one of them control at a time over a private rendezvous
// channel, so "only one task's logic runs at a given virtual instant" holds
// even though call stacks are real goroutines. That single-active-task
// invariant is what lets two independently-suspending logical flows
// (foreground I/O replay and background migration, see sim.RequestStream
// and sim.MigrationController) contend on the same Device queues without
// manually threading continuations the way a single
// Event.Execute(*Simulator) callback would have to.
package kernel

import (
	"container/heap"
	"fmt"
	"sync"
)

// wakeEntry is a pending resumption, ordered by (Timestamp, Seq). Seq is
// assigned at registration time and gives the deterministic FIFO tie-break
// spec.md §4.1 requires for simultaneous wake-ups.
type wakeEntry struct {
	Timestamp int64
	Seq       int64
	resume    chan struct{}
}

// wakeHeap mirrors the shape of the teacher's EventQueue/EventHeap
// (sim's original simulator.go and cluster/event_heap.go), generalized from
// typed Events to opaque wake-ups for arbitrary suspended goroutines.
type wakeHeap []*wakeEntry

func (h wakeHeap) Len() int { return len(h) }
func (h wakeHeap) Less(i, j int) bool {
	if h[i].Timestamp != h[j].Timestamp {
		return h[i].Timestamp < h[j].Timestamp
	}
	return h[i].Seq < h[j].Seq
}
func (h wakeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *wakeHeap) Push(x any)   { *h = append(*h, x.(*wakeEntry)) }
func (h *wakeHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// Kernel is a single-threaded cooperative discrete-event scheduler.
// The exported methods (other than Run) are meant to be called from a task
// goroutine registered via Spawn, or from setup code that runs strictly
// before the first Run call; calling them concurrently with an in-flight
// Run from outside a managed task is a programmer error.
type Kernel struct {
	mu      sync.Mutex
	clock   int64
	seq     int64
	wakes   wakeHeap
	running int

	// events is signaled exactly once by whichever task Run just resumed,
	// either when that task suspends again or when it returns.
	events chan struct{}
}

// New creates a Kernel with the clock at zero and an empty wake heap.
func New() *Kernel {
	k := &Kernel{events: make(chan struct{})}
	heap.Init(&k.wakes)
	return k
}

// Now returns the current virtual time. Monotonic non-decreasing across
// the Kernel's lifetime (I6 / P4).
func (k *Kernel) Now() int64 {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.clock
}

// nextSeqLocked returns the next sequence number. Caller must hold k.mu.
func (k *Kernel) nextSeqLocked() int64 {
	k.seq++
	return k.seq
}

// scheduleAtLocked pushes a wake-up for resume at time `at`. Caller must
// hold k.mu.
func (k *Kernel) scheduleAtLocked(at int64, resume chan struct{}) {
	heap.Push(&k.wakes, &wakeEntry{Timestamp: at, Seq: k.nextSeqLocked(), resume: resume})
}

// suspend hands control back to Run and blocks the calling task until
// `resume` is closed. It must be called by the single task Run currently
// has active, exactly once per resumption.
func (k *Kernel) suspend(resume chan struct{}) {
	k.events <- struct{}{}
	<-resume
}

// Timeout suspends the calling task until Now() >= (time of call) + d.
// d must be >= 0; a negative duration is a programmer error (spec §4.1)
// and panics rather than silently moving the clock backwards.
func (k *Kernel) Timeout(d int64) {
	if d < 0 {
		panic(fmt.Sprintf("kernel: Timeout called with negative duration %d", d))
	}
	resume := make(chan struct{})
	k.mu.Lock()
	k.scheduleAtLocked(k.clock+d, resume)
	k.mu.Unlock()
	k.suspend(resume)
}

// Spawn registers a task to run concurrently with the caller under
// cooperative scheduling. Spawn does not suspend the caller: the new task
// becomes runnable at the current clock value and is picked up by a later
// Run iteration, preserving FIFO-by-spawn-order for same-time starts.
func (k *Kernel) Spawn(task func(k *Kernel)) {
	resume := make(chan struct{})
	k.mu.Lock()
	k.running++
	k.scheduleAtLocked(k.clock, resume)
	k.mu.Unlock()

	go func() {
		<-resume
		defer func() {
			k.mu.Lock()
			k.running--
			k.mu.Unlock()
			k.events <- struct{}{}
		}()
		task(k)
	}()
}

// Run advances the clock by processing the wake-time heap, resuming one
// task at a time, until the heap is empty or Now() >= until. It must be
// called from the goroutine that owns the Kernel, never from inside a
// spawned task.
func (k *Kernel) Run(until int64) {
	for {
		k.mu.Lock()
		if len(k.wakes) == 0 {
			k.mu.Unlock()
			return
		}
		next := k.wakes[0]
		if next.Timestamp > until {
			k.clock = until
			k.mu.Unlock()
			return
		}
		heap.Pop(&k.wakes)
		k.clock = next.Timestamp
		k.mu.Unlock()

		close(next.resume)
		<-k.events
	}
}
