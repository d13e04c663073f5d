package control

import "time"

const (
	// DefaultTapWindow is the maximum gap between two taps that still
	// produces a tempo estimate.
	DefaultTapWindow = 2 * time.Second
	// DefaultClockPeriod is the number of clock pulses in a measure: 24
	// pulses per quarter note, four quarters.
	DefaultClockPeriod = 24 * 4
)

type (
	// Tempo is a beat duration estimate that started at the timestamp.
	// Both values are in microseconds.
	Tempo struct {
		Start uint64
		Beat  uint64
	}

	// TapTempo estimates tempo from the time between two consecutive taps
	// on a note binding.
	TapTempo struct {
		note   Note
		window uint64
		last   uint64
		tapped bool
	}

	// Clock counts timing clock pulses and signals every period.
	Clock struct {
		period int
		pulses int
	}
)

// BeatDuration returns the duration of a single beat.
func (t Tempo) BeatDuration() time.Duration {
	return time.Duration(t.Beat) * time.Microsecond
}

// BeatMs returns the beat duration in whole milliseconds.
func (t Tempo) BeatMs() uint32 {
	return uint32(t.Beat / 1000)
}

// NewTapTempo returns tap tempo for the note. If window is not positive,
// DefaultTapWindow is used.
func NewTapTempo(note Note, window time.Duration) *TapTempo {
	if window <= 0 {
		window = DefaultTapWindow
	}
	return &TapTempo{
		note:   note,
		window: uint64(window / time.Microsecond),
	}
}

// Handle processes matching taps in the batch order and returns the last
// tempo estimate. Every tap becomes the new anchor; a tap that comes
// later than the window after the anchor produces no estimate.
func (tt *TapTempo) Handle(events []Event) (tempo Tempo, ok bool) {
	for i := range events {
		if !tt.note.Matches(events[i]) {
			continue
		}
		if t, emitted := tt.tap(events[i].Timestamp); emitted {
			tempo, ok = t, true
		}
	}
	return tempo, ok
}

func (tt *TapTempo) tap(timestamp uint64) (Tempo, bool) {
	last, tapped := tt.last, tt.tapped
	tt.last, tt.tapped = timestamp, true
	if !tapped || timestamp < last {
		return Tempo{}, false
	}
	elapsed := timestamp - last
	if elapsed > tt.window {
		return Tempo{}, false
	}
	return Tempo{Start: timestamp, Beat: elapsed}, true
}

// NewClock returns a clock that signals every period pulses. If period is
// not positive, DefaultClockPeriod is used.
func NewClock(period int) *Clock {
	if period <= 0 {
		period = DefaultClockPeriod
	}
	return &Clock{period: period}
}

// Pulse counts a single clock pulse and returns true when it completes a
// period.
func (c *Clock) Pulse() bool {
	c.pulses++
	if c.pulses == c.period {
		c.pulses = 0
		return true
	}
	return false
}
