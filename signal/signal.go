// Package signal provides an API to describe and manipulate interleaved
// float32 frames. It allows to:
//	- convert durations to sample counts for a stream configuration
//	- convert bit depth for int signals
//	- mix, scale and silence frames in place
package signal

import (
	"fmt"
	"math"
	"time"
)

const (
	// BitDepth8 is 8 bit depth.
	BitDepth8 = BitDepth(8)
	// BitDepth16 is 16 bit depth.
	BitDepth16 = BitDepth(16)
	// BitDepth24 is 24 bit depth.
	BitDepth24 = BitDepth(24)
	// BitDepth32 is 32 bit depth.
	BitDepth32 = BitDepth(32)
)

// StreamConfig describes the format of the interleaved frames that flow
// through the units.
type StreamConfig struct {
	SampleRate int
	Channels   int
}

// BitDepth contains values required for int-to-float and backward conversion.
type BitDepth int

// Validate returns an error if stream config cannot be used to size buffers.
func (c StreamConfig) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be > 0: %d", c.SampleRate)
	}
	if c.Channels <= 0 {
		return fmt.Errorf("channels must be > 0: %d", c.Channels)
	}
	return nil
}

// Samples returns the number of interleaved samples that corresponds to
// the duration in milliseconds. The number of frames is truncated first,
// so the result is always a multiple of channels.
func (c StreamConfig) Samples(ms uint32) int {
	frames := uint64(ms) * uint64(c.SampleRate) / 1000
	return int(frames) * c.Channels
}

// Duration returns the duration of interleaved samples.
func (c StreamConfig) Duration(samples int) time.Duration {
	if c.Channels == 0 {
		return 0
	}
	return DurationOf(c.SampleRate, int64(samples/c.Channels))
}

// DurationOf returns time duration of passed frames for this sample rate.
func DurationOf(sampleRate int, frames int64) time.Duration {
	return time.Duration(float64(frames) / float64(sampleRate) * float64(time.Second))
}

// divider is used when int to float conversion is done.
func (bitDepth BitDepth) divider() float32 {
	switch bitDepth {
	case BitDepth8:
		return math.MaxInt8 + 1
	case BitDepth16:
		return math.MaxInt16 + 1
	case BitDepth24:
		return 1 << 23
	case BitDepth32:
		return math.MaxInt32 + 1
	default:
		return 1
	}
}

// multiplier is used when float to int conversion is done.
func (bitDepth BitDepth) multiplier() float64 {
	switch bitDepth {
	case BitDepth8:
		return math.MaxInt8
	case BitDepth16:
		return math.MaxInt16
	case BitDepth24:
		return 1<<23 - 1
	case BitDepth32:
		return math.MaxInt32
	default:
		return 1
	}
}

// IntsAsFloats converts int samples of provided bit depth into dst. The
// number of converted samples is returned.
func IntsAsFloats(bitDepth BitDepth, ints []int, dst []float32) int {
	n := min(len(ints), len(dst))
	divider := bitDepth.divider()
	for i := 0; i < n; i++ {
		dst[i] = float32(ints[i]) / divider
	}
	return n
}

// FloatsAsInts converts float samples into ints of provided bit depth.
// Values outside of [-1, 1] are clipped. The number of converted samples
// is returned.
func FloatsAsInts(bitDepth BitDepth, floats []float32, dst []int) int {
	n := min(len(floats), len(dst))
	multiplier := bitDepth.multiplier()
	for i := 0; i < n; i++ {
		v := floats[i]
		switch {
		case v > 1:
			v = 1
		case v < -1:
			v = -1
		}
		dst[i] = int(float64(v) * multiplier)
	}
	return n
}

// Zero sets all samples of the frame to silence.
func Zero(frame []float32) {
	for i := range frame {
		frame[i] = 0
	}
}

// Add sums src into dst element-wise. Lengths must match.
func Add(dst, src []float32) {
	src = src[:len(dst)]
	for i := range dst {
		dst[i] += src[i]
	}
}

// Scale writes src multiplied by coefficient into dst.
func Scale(dst, src []float32, coefficient float32) {
	src = src[:len(dst)]
	for i := range dst {
		dst[i] = src[i] * coefficient
	}
}
