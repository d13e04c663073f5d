// Package transport provides a fixed-capacity single-producer
// single-consumer ring of float32 samples. It decouples audio capture
// from audio render: writer and reader never block, never allocate and
// only synchronize through two atomic cursors.
package transport

import (
	"errors"
	"fmt"
	"sync/atomic"
)

var (
	// ErrOverrun is returned when a write doesn't fit into the ring.
	ErrOverrun = errors.New("overrun")
	// ErrUnderrun is returned when a read requests more samples than
	// available.
	ErrUnderrun = errors.New("underrun")
)

// Fault is a non-fatal transport error. Samples is the number of samples
// dropped on overrun or zero-filled on underrun.
type Fault struct {
	Err     error
	Samples int
}

func (f Fault) Error() string {
	if f.Err == ErrOverrun {
		return fmt.Sprintf("transport %v: %d samples dropped", f.Err, f.Samples)
	}
	return fmt.Sprintf("transport %v: %d samples zero-filled", f.Err, f.Samples)
}

// Unwrap allows to match fault with sentinel errors.
func (f Fault) Unwrap() error {
	return f.Err
}

// Ring is a circular buffer with independent write and read cursors.
// Write and WriteSilence must only be called by the producer, Read and
// Discard only by the consumer.
type Ring struct {
	buf []float32
	// cursors are monotonic, position in buf is cursor % len(buf).
	write atomic.Uint64
	read  atomic.Uint64
}

// New returns a ring of provided capacity in samples.
func New(capacity int) (*Ring, error) {
	if capacity < 0 {
		return nil, fmt.Errorf("ring capacity must be >= 0: %d", capacity)
	}
	return &Ring{buf: make([]float32, capacity)}, nil
}

// Prefilled returns a ring of capacity 2×latency samples that already
// holds latency samples of silence. This gives the consumer valid data
// before the producer delivers its first write.
func Prefilled(latency int) (*Ring, error) {
	r, err := New(2 * latency)
	if err != nil {
		return nil, err
	}
	r.WriteSilence(latency)
	return r, nil
}

// Cap returns ring capacity in samples.
func (r *Ring) Cap() int {
	return len(r.buf)
}

// Len returns the number of written, but not yet read samples.
func (r *Ring) Len() int {
	return int(r.write.Load() - r.read.Load())
}

// Free returns the number of samples that can be written without
// overrun.
func (r *Ring) Free() int {
	return len(r.buf) - r.Len()
}

// Write copies as many samples as fit. If not all samples fit, the
// excess is dropped and Fault with ErrOverrun is returned. The number of
// written samples is returned.
func (r *Ring) Write(samples []float32) (int, error) {
	w := r.write.Load()
	free := len(r.buf) - int(w-r.read.Load())
	n := min(free, len(samples))
	if n > 0 {
		start := int(w % uint64(len(r.buf)))
		copied := copy(r.buf[start:], samples[:n])
		copy(r.buf, samples[copied:n])
		r.write.Store(w + uint64(n))
	}
	if n < len(samples) {
		return n, Fault{Err: ErrOverrun, Samples: len(samples) - n}
	}
	return n, nil
}

// WriteSilence writes n zero samples, as many as fit. The number of
// written samples is returned.
func (r *Ring) WriteSilence(n int) int {
	w := r.write.Load()
	free := len(r.buf) - int(w-r.read.Load())
	n = min(free, n)
	if n <= 0 {
		return 0
	}
	start := int(w % uint64(len(r.buf)))
	end := min(start+n, len(r.buf))
	clear(r.buf[start:end])
	clear(r.buf[:n-(end-start)])
	r.write.Store(w + uint64(n))
	return n
}

// Read fills dst entirely. Slots that weren't produced yet are filled
// with zero and Fault with ErrUnderrun is returned. The number of read
// samples is returned.
func (r *Ring) Read(dst []float32) (int, error) {
	rd := r.read.Load()
	available := int(r.write.Load() - rd)
	n := min(available, len(dst))
	if n > 0 {
		start := int(rd % uint64(len(r.buf)))
		copied := copy(dst[:n], r.buf[start:])
		copy(dst[copied:n], r.buf)
		r.read.Store(rd + uint64(n))
	}
	if n < len(dst) {
		clear(dst[n:])
		return n, Fault{Err: ErrUnderrun, Samples: len(dst) - n}
	}
	return n, nil
}

// Discard drops up to n oldest samples. The number of dropped samples is
// returned.
func (r *Ring) Discard(n int) int {
	rd := r.read.Load()
	n = min(int(r.write.Load()-rd), n)
	if n <= 0 {
		return 0
	}
	r.read.Store(rd + uint64(n))
	return n
}
