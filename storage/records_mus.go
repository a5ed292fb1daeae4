package storage

import (
	"math"
	"slices"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// encoder is implemented by musSizer and musWriter so every record type has a
// single field list that drives both the size pass and the marshal pass.
type encoder interface {
	putString(v string)
	putBool(v bool)
	putInt(v int)
	putFloat(v float64)
	putTime(v time.Time)
}

type musSizer struct {
	size int
}

var _ encoder = (*musSizer)(nil)

func (s *musSizer) putString(v string)  { s.size += ord.String.Size(v) }
func (s *musSizer) putBool(v bool)      { s.size += ord.Bool.Size(v) }
func (s *musSizer) putInt(v int)        { s.size += varint.Int.Size(v) }
func (s *musSizer) putFloat(v float64)  { s.size += varint.Uint64.Size(math.Float64bits(v)) }
func (s *musSizer) putTime(v time.Time) { s.size += varint.Int64.Size(v.UnixMicro()) }

type musWriter struct {
	bs []byte
	n  int
}

var _ encoder = (*musWriter)(nil)

func (w *musWriter) putString(v string) { w.n += ord.String.Marshal(v, w.bs[w.n:]) }
func (w *musWriter) putBool(v bool)     { w.n += ord.Bool.Marshal(v, w.bs[w.n:]) }
func (w *musWriter) putInt(v int)       { w.n += varint.Int.Marshal(v, w.bs[w.n:]) }
func (w *musWriter) putFloat(v float64) {
	w.n += varint.Uint64.Marshal(math.Float64bits(v), w.bs[w.n:])
}
func (w *musWriter) putTime(v time.Time) { w.n += varint.Int64.Marshal(v.UnixMicro(), w.bs[w.n:]) }

// putStringMap writes a map as a length followed by key/value pairs in key order,
// so equal maps always encode to equal bytes.
func putStringMap(e encoder, m map[string]string) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	e.putInt(len(keys))
	for _, k := range keys {
		e.putString(k)
		e.putString(m[k])
	}
}

// musReader decodes fields in order and remembers the first error.
// Once an error is recorded every further read returns a zero value.
type musReader struct {
	bs  []byte
	n   int
	err error
}

func (r *musReader) str() string {
	if r.err != nil {
		return ""
	}
	v, n, err := ord.String.Unmarshal(r.bs[r.n:])
	r.n += n
	r.err = err
	return v
}

func (r *musReader) boolean() bool {
	if r.err != nil {
		return false
	}
	v, n, err := ord.Bool.Unmarshal(r.bs[r.n:])
	r.n += n
	r.err = err
	return v
}

func (r *musReader) integer() int {
	if r.err != nil {
		return 0
	}
	v, n, err := varint.Int.Unmarshal(r.bs[r.n:])
	r.n += n
	r.err = err
	return v
}

func (r *musReader) float() float64 {
	if r.err != nil {
		return 0
	}
	v, n, err := varint.Uint64.Unmarshal(r.bs[r.n:])
	r.n += n
	r.err = err
	return math.Float64frombits(v)
}

func (r *musReader) timestamp() time.Time {
	if r.err != nil {
		return time.Time{}
	}
	v, n, err := varint.Int64.Unmarshal(r.bs[r.n:])
	r.n += n
	r.err = err
	return time.UnixMicro(v).UTC()
}

func (r *musReader) stringMap() map[string]string {
	count := r.integer()
	if r.err != nil {
		return nil
	}
	if count < 0 || count > len(r.bs)-r.n {
		r.err = ErrTruncatedData
		return nil
	}
	if count == 0 {
		return nil
	}
	m := make(map[string]string, count)
	for range count {
		k := r.str()
		v := r.str()
		if r.err != nil {
			return nil
		}
		m[k] = v
	}
	return m
}
