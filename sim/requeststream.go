// sim/requeststream.go
package sim

import (
	"github.com/sirupsen/logrus"
	"github.com/tiersim/tiersim/sim/kernel"
	"github.com/tiersim/tiersim/sim/trace"
)

// AccessLog is the append-only record of submitted I/O, consumed in
// windows by MigrationController via a watermark index (spec.md §4.5/§5).
// Per spec.md §9 "Access log growth", entries are truncated to the
// watermark once a window has consumed them, rather than growing without
// bound as the reference source does.
type AccessLog struct {
	records []AccessRecord
}

func (l *AccessLog) append(r AccessRecord) {
	l.records = append(l.records, r)
}

// Since returns every record appended since index `from`.
func (l *AccessLog) Since(from int) []AccessRecord {
	return l.records[from:]
}

func (l *AccessLog) Len() int { return len(l.records) }

// TruncateTo drops every record before index `to`, the MigrationController
// watermark, keeping the log bounded by one window's worst-case size.
func (l *AccessLog) TruncateTo(to int) {
	l.records = append([]AccessRecord(nil), l.records[to:]...)
}

// RequestStream replays normalized trace records, pacing them on the
// simulation clock, and submits them to the Orchestrator (spec.md §4.5).
type RequestStream struct {
	k            *kernel.Kernel
	orchestrator *Orchestrator
	log          *logrus.Entry

	simulationTimeMs int64
	lbaSizeBytes     int64
	chunkSizeBytes   int64

	accessLog AccessLog

	nextID          int64
	lastTs          int64
	haveFirst       bool
	generated       int
	completedCount  int
	latencies       []int64
}

// NewRequestStream creates a RequestStream wired to orchestrator.
func NewRequestStream(k *kernel.Kernel, o *Orchestrator, cfg Config, log *logrus.Entry) *RequestStream {
	rs := &RequestStream{
		k:                k,
		orchestrator:     o,
		log:              log,
		simulationTimeMs: cfg.SimulationTimeMs,
		lbaSizeBytes:     cfg.LBASizeBytes,
		chunkSizeBytes:   cfg.ChunkSizeBytes,
	}
	o.SetRequestStream(rs)
	return rs
}

func (rs *RequestStream) AccessLog() *AccessLog { return &rs.accessLog }

// CompletedCount and Latencies report run-end statistics (spec.md §6).
func (rs *RequestStream) CompletedCount() int   { return rs.completedCount }
func (rs *RequestStream) Generated() int        { return rs.generated }
func (rs *RequestStream) Latencies() []int64    { return rs.latencies }

// Run pulls records from reader one at a time, pacing them on the kernel's
// virtual clock, and submits each as a spawned HandleIO task (spec.md §4.5
// steps 1-7). It must be called from inside a kernel task: reading from
// reader does not itself suspend the task, so interleaving with other
// tasks only happens at the k.Timeout call below, preserving the
// single-active-task invariant.
func (rs *RequestStream) Run(k *kernel.Kernel, reader trace.Reader) {
	for {
		rec, ok, err := reader.Read()
		if err != nil {
			rs.log.WithError(err).Warn("ParseError: skipping malformed trace record")
			continue
		}
		if !ok {
			return
		}
		ts := rec.TimestampMs

		if !rs.haveFirst {
			rs.lastTs = ts
			rs.haveFirst = true
			k.Timeout(0)
		} else {
			delta := ts - rs.lastTs
			if delta < 0 {
				delta = 0
			}
			rs.lastTs = ts
			k.Timeout(delta)
		}

		chunk := ChunkID((rec.LBA) / (rs.chunkSizeBytes / rs.lbaSizeBytes))
		req := &Request{
			ID:          rs.nextID,
			ArrivalTime: k.Now(),
			LBA:         rec.LBA,
			SizeBytes:   rec.SizeBytes,
			Op:          rec.Op,
		}
		rs.nextID++
		rs.generated++

		rs.accessLog.append(AccessRecord{Time: k.Now(), ChunkID: chunk, Op: rec.Op, SizeBytes: rec.SizeBytes})

		orchestrator := rs.orchestrator
		k.Spawn(func(k *kernel.Kernel) {
			orchestrator.HandleIO(k, req)
		})

		if k.Now() > rs.simulationTimeMs {
			return
		}
	}
}

// onCompletion is the Orchestrator completion callback (spec.md §4.5
// "On completion callback").
func (rs *RequestStream) onCompletion(req *Request) {
	rs.completedCount++
	rs.latencies = append(rs.latencies, req.Latency)
}
