// Package control maps batches of incoming MIDI events to control values
// of the units: slider positions, discrete note triggers, tap tempo and
// clock-based measure quantization.
package control

import (
	"gitlab.com/gomidi/midi/v2"
)

// MaxControlValue is the upper bound of MIDI control-change values.
const MaxControlValue = 127

type (
	// Event is a decoded MIDI message with its arrival time in
	// microseconds since an arbitrary epoch.
	Event struct {
		Timestamp uint64
		Message   midi.Message
	}

	// Slider binds a control-change number on a MIDI channel to a
	// parameter. Channels are zero-based.
	Slider struct {
		Channel    uint8
		Controller uint8
	}

	// Note binds a note on a MIDI channel to a discrete action. Channels
	// are zero-based.
	Note struct {
		Channel uint8
		Key     uint8
	}

	// Number is a numeric type that control values can be mapped to.
	Number interface {
		~int | ~int8 | ~int16 | ~int32 | ~int64 |
			~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
			~float32 | ~float64
	}
)

// Matches returns true if event is a note-on with non-zero velocity for
// this binding.
func (n Note) Matches(e Event) bool {
	var channel, key, velocity uint8
	if !e.Message.GetNoteStart(&channel, &key, &velocity) {
		return false
	}
	return channel == n.Channel && key == n.Key
}

// LatestControlValue scans the batch from the most recent event and
// returns the value of the first control change that matches the slider.
// False is returned if there is no such event.
func LatestControlValue(slider Slider, events []Event) (uint8, bool) {
	var channel, controller, value uint8
	for i := len(events) - 1; i >= 0; i-- {
		if !events[i].Message.GetControlChange(&channel, &controller, &value) {
			continue
		}
		if channel == slider.Channel && controller == slider.Controller {
			return value, true
		}
	}
	return 0, false
}

// Interpolate maps a raw control value 0..127 into [min, max] with the
// arithmetic of T, integer division truncates towards zero.
// eg. Interpolate(50, 100, 64) == 75
func Interpolate[T Number](min, max T, raw uint8) T {
	const lowest = 0
	return (T(raw)-lowest)*(max-min)/(MaxControlValue-lowest) + min
}

// IsClock returns true if event is a MIDI timing clock pulse.
func IsClock(e Event) bool {
	return e.Message.Is(midi.TimingClockMsg)
}
