package trace

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// csvReader parses a generic four-column trace: timestamp_ms, lba, size_bytes, op.
// Intended as the format of least resistance for hand-built or converted
// traces that don't match MSR Cambridge's layout (spec.md §6).
type csvReader struct {
	f   *os.File
	r   *csv.Reader
	row int
}

func newCSVReader(opts Options) (Reader, error) {
	f, err := os.Open(opts.Path)
	if err != nil {
		return nil, fmt.Errorf("trace: opening csv file: %w", err)
	}
	r := csv.NewReader(f)
	r.FieldsPerRecord = 4
	cr := &csvReader{f: f, r: r}
	if opts.HasHeader {
		if _, err := r.Read(); err != nil && err != io.EOF {
			f.Close()
			return nil, fmt.Errorf("trace: reading csv header: %w", err)
		}
	}
	return cr, nil
}

func (r *csvReader) Read() (NormalizedRecord, bool, error) {
	fields, err := r.r.Read()
	if err == io.EOF {
		return NormalizedRecord{}, false, nil
	}
	if err != nil {
		return NormalizedRecord{}, false, err
	}
	r.row++
	ts, err := strconv.ParseInt(strings.TrimSpace(fields[0]), 10, 64)
	if err != nil {
		return NormalizedRecord{}, true, fmt.Errorf("trace: csv row %d: bad timestamp_ms: %w", r.row, err)
	}
	lba, err := strconv.ParseInt(strings.TrimSpace(fields[1]), 10, 64)
	if err != nil {
		return NormalizedRecord{}, true, fmt.Errorf("trace: csv row %d: bad lba: %w", r.row, err)
	}
	size, err := strconv.ParseInt(strings.TrimSpace(fields[2]), 10, 64)
	if err != nil {
		return NormalizedRecord{}, true, fmt.Errorf("trace: csv row %d: bad size_bytes: %w", r.row, err)
	}
	op := OpRead
	if strings.EqualFold(strings.TrimSpace(fields[3]), "write") || strings.TrimSpace(fields[3]) == "1" {
		op = OpWrite
	}
	raw := RawRecord{TimestampRaw: float64(ts), LBA: lba, SizeBytes: size, Op: op}
	return Normalize(raw, UnitMilliseconds), true, nil
}

func (r *csvReader) Close() error { return r.f.Close() }
