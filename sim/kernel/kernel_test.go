package kernel

import (
	"testing"
)

func TestKernel_Timeout_OrdersByWakeTime(t *testing.T) {
	// GIVEN two tasks that sleep for different durations
	k := New()
	var order []string

	k.Spawn(func(k *Kernel) {
		k.Timeout(30)
		order = append(order, "slow")
	})
	k.Spawn(func(k *Kernel) {
		k.Timeout(10)
		order = append(order, "fast")
	})

	// WHEN the kernel runs to completion
	k.Run(1000)

	// THEN the shorter timeout resumes first, and the clock reflects the
	// last processed wake time
	want := []string{"fast", "slow"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %q, want %q", i, order[i], want[i])
		}
	}
	if k.Now() != 30 {
		t.Errorf("Now() = %d, want 30", k.Now())
	}
}

func TestKernel_Timeout_SameTime_FIFOBySpawnOrder(t *testing.T) {
	// GIVEN two tasks scheduled for the same wake time, spawned in order A, B
	k := New()
	var order []string

	k.Spawn(func(k *Kernel) {
		k.Timeout(5)
		order = append(order, "A")
	})
	k.Spawn(func(k *Kernel) {
		k.Timeout(5)
		order = append(order, "B")
	})

	// WHEN run
	k.Run(100)

	// THEN A resumes before B, since it was enqueued first (deterministic tie-break)
	if len(order) != 2 || order[0] != "A" || order[1] != "B" {
		t.Errorf("order = %v, want [A B]", order)
	}
}

func TestKernel_Timeout_NegativeDuration_Panics(t *testing.T) {
	// GIVEN a kernel and a negative duration
	k := New()
	defer func() {
		if recover() == nil {
			t.Error("expected panic for negative Timeout duration")
		}
	}()

	// WHEN Timeout is called with d < 0, THEN it panics immediately
	// (checked before any suspension, so this is safe to call synchronously)
	k.Timeout(-1)
}

func TestKernel_Run_StopsAtHorizon(t *testing.T) {
	// GIVEN a task that keeps sleeping well past the horizon
	k := New()
	ticks := 0
	k.Spawn(func(k *Kernel) {
		for i := 0; i < 100; i++ {
			k.Timeout(10)
			ticks++
		}
	})

	// WHEN run with a horizon shorter than the full chain
	k.Run(55)

	// THEN only the wake-ups at or before the horizon are processed
	if ticks != 5 {
		t.Errorf("ticks = %d, want 5", ticks)
	}
	if k.Now() != 55 {
		t.Errorf("Now() = %d, want 55 (clamped to the horizon)", k.Now())
	}
}

func TestResource_Acquire_NoContention_DoesNotSuspend(t *testing.T) {
	// GIVEN a resource with capacity 1 and a single task
	k := New()
	ran := false
	k.Spawn(func(k *Kernel) {
		res := k.NewResource(1)
		res.Acquire()
		ran = true
		res.Release()
	})

	// WHEN run
	k.Run(10)

	// THEN the task completes without any wake-time elapsing
	if !ran {
		t.Fatal("task did not run")
	}
	if k.Now() != 0 {
		t.Errorf("Now() = %d, want 0 (no contention means no suspension)", k.Now())
	}
}

func TestResource_Acquire_FIFO_ContendingTasks(t *testing.T) {
	// GIVEN a capacity-1 resource and three tasks contending for it, each
	// holding the permit for a different duration
	k := New()
	res := k.NewResource(1)
	var order []string

	hold := func(name string, dur int64) func(k *Kernel) {
		return func(k *Kernel) {
			res.Acquire()
			order = append(order, name)
			k.Timeout(dur)
			res.Release()
		}
	}

	k.Spawn(hold("first", 20))
	k.Spawn(hold("second", 5))
	k.Spawn(hold("third", 5))

	// WHEN run
	k.Run(1000)

	// THEN permits are granted in FIFO acquisition order, not in order of
	// hold duration — "second" and "third" must wait for "first" to
	// release even though their own work is shorter
	want := []string{"first", "second", "third"}
	if len(order) != 3 {
		t.Fatalf("order = %v, want 3 entries", order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %q, want %q", i, order[i], want[i])
		}
	}
	// first holds [0,20); second then runs starting at 20, holds [20,25);
	// third starts at 25, holds [25,30)
	if k.Now() != 30 {
		t.Errorf("Now() = %d, want 30", k.Now())
	}
}

func TestResource_Release_WakesWaiterAtCurrentTime(t *testing.T) {
	// GIVEN a capacity-1 resource; the current holder releases at t=10
	// while another task is already queued
	k := New()
	res := k.NewResource(1)
	var wakeTime int64 = -1

	k.Spawn(func(k *Kernel) {
		res.Acquire()
		k.Timeout(10)
		res.Release()
	})
	k.Spawn(func(k *Kernel) {
		res.Acquire()
		wakeTime = k.Now()
		res.Release()
	})

	// WHEN run
	k.Run(100)

	// THEN the waiter resumes at the release time, not some later tick
	if wakeTime != 10 {
		t.Errorf("wakeTime = %d, want 10", wakeTime)
	}
}

func TestResource_Guard_ReleasesOnce(t *testing.T) {
	// GIVEN a Guard-acquired resource
	k := New()
	res := k.NewResource(1)
	k.Spawn(func(k *Kernel) {
		release := res.Guard()
		release()
		release() // calling twice must not double-release (sync.Once)
	})
	k.Run(10)

	// WHEN a second task acquires afterwards
	acquired := false
	k.Spawn(func(k *Kernel) {
		res.Acquire()
		acquired = true
	})
	k.Run(10)

	// THEN it succeeds, proving exactly one permit was released
	if !acquired {
		t.Error("expected second acquire to succeed with exactly one outstanding permit")
	}
}
