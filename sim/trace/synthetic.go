package trace

import (
	"hash/fnv"
	"math"
	"math/rand"
)

// syntheticReader generates a Poisson-arrival, Zipfian-popularity workload
// in memory rather than reading a file, for experiments that don't need a
// recorded trace (spec.md §9 "Synthetic trace generation", supplementing
// the distilled spec's file-only replay model).
//
// Each of the three independent choices (interarrival gap, chunk, op) is
// drawn from its own rand.Rand, seeded by masterSeed (arrivals) or
// masterSeed XOR fnv1a64(name) (the others), so a change to write fraction
// never perturbs which chunks get touched.
type syntheticReader struct {
	opts    Options
	arrival *rand.Rand
	popular *rand.Rand
	opmix   *rand.Rand

	emitted int64
	lastTs  float64
	zipf    *rand.Zipf
}

func newSyntheticReader(opts Options) (Reader, error) {
	if opts.TotalChunks <= 0 {
		opts.TotalChunks = 1000
	}
	if opts.MeanInterarrival <= 0 {
		opts.MeanInterarrival = 10
	}
	if opts.ZipfSkew <= 0 {
		opts.ZipfSkew = 1.1
	}
	if opts.Count <= 0 {
		opts.Count = 100000
	}
	if opts.ChunkSizeBytes <= 0 {
		opts.ChunkSizeBytes = 4 << 20
	}
	if opts.LBASizeBytes <= 0 {
		opts.LBASizeBytes = 512
	}

	arrival := rand.New(rand.NewSource(opts.Seed))
	popular := rand.New(rand.NewSource(opts.Seed ^ fnv1a64("popularity")))
	opmix := rand.New(rand.NewSource(opts.Seed ^ fnv1a64("op_mix")))

	// rand.Zipf requires s > 1 and imax >= 0; v=1 gives support starting
	// at 0, matching ChunkID's zero-based range.
	zipf := rand.NewZipf(popular, opts.ZipfSkew, 1, uint64(opts.TotalChunks-1))

	return &syntheticReader{opts: opts, arrival: arrival, popular: popular, opmix: opmix, zipf: zipf}, nil
}

func (r *syntheticReader) Read() (NormalizedRecord, bool, error) {
	if r.emitted >= r.opts.Count {
		return NormalizedRecord{}, false, nil
	}
	r.emitted++

	// Exponential interarrival gap for a Poisson process with the
	// configured mean, in milliseconds.
	gap := -math.Log(1-r.arrival.Float64()) * r.opts.MeanInterarrival
	r.lastTs += gap

	chunk := int64(r.zipf.Uint64())
	lbasPerChunk := r.opts.ChunkSizeBytes / r.opts.LBASizeBytes
	lba := chunk * lbasPerChunk

	op := OpRead
	if r.opmix.Float64() < r.opts.WriteFraction {
		op = OpWrite
	}

	return NormalizedRecord{
		TimestampMs: int64(r.lastTs),
		LBA:         lba,
		SizeBytes:   r.opts.ChunkSizeBytes,
		Op:          op,
	}, true, nil
}

func (r *syntheticReader) Close() error { return nil }

func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
