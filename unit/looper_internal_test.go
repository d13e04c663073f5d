package unit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLooperTransitions(t *testing.T) {
	tests := []struct {
		description string
		state       LooperState
		event       LooperEvent
		expected    LooperState
	}{
		{
			description: "off toggle",
			state:       LooperState{Mode: Off},
			event:       Toggle,
			expected:    LooperState{Mode: QueueRecording},
		},
		{
			description: "off tick",
			state:       LooperState{Mode: Off},
			event:       TickMeasure,
			expected:    LooperState{Mode: Off},
		},
		{
			description: "cancel queued recording",
			state:       LooperState{Mode: QueueRecording},
			event:       Toggle,
			expected:    LooperState{Mode: Off},
		},
		{
			description: "start recording",
			state:       LooperState{Mode: QueueRecording},
			event:       TickMeasure,
			expected:    LooperState{Mode: Recording},
		},
		{
			description: "recording tick",
			state:       LooperState{Mode: Recording, Position: 7},
			event:       TickMeasure,
			expected:    LooperState{Mode: Recording, Position: 7},
		},
		{
			description: "queue playing",
			state:       LooperState{Mode: Recording, Position: 7},
			event:       Toggle,
			expected:    LooperState{Mode: QueuePlaying, Position: 7},
		},
		{
			description: "queue playing toggle",
			state:       LooperState{Mode: QueuePlaying, Position: 7},
			event:       Toggle,
			expected:    LooperState{Mode: QueuePlaying, Position: 7},
		},
		{
			description: "start playing",
			state:       LooperState{Mode: QueuePlaying, Position: 7},
			event:       TickMeasure,
			expected:    LooperState{Mode: Playing, Total: 7},
		},
		{
			description: "empty loop",
			state:       LooperState{Mode: QueuePlaying},
			event:       TickMeasure,
			expected:    LooperState{Mode: Off},
		},
		{
			description: "queue overdub",
			state:       LooperState{Mode: Playing, Position: 3, Total: 7},
			event:       QueueOverdub,
			expected:    LooperState{Mode: PlayingAwaitingOverdub, Position: 3, Total: 7},
		},
		{
			description: "queue overdub twice",
			state:       LooperState{Mode: Overdubbing, Position: 3, Total: 7},
			event:       QueueOverdub,
			expected:    LooperState{Mode: Overdubbing, Position: 3, Total: 7},
		},
		{
			description: "playing tick",
			state:       LooperState{Mode: Playing, Position: 3, Total: 7},
			event:       TickMeasure,
			expected:    LooperState{Mode: Playing, Position: 3, Total: 7},
		},
		{
			description: "stop playing",
			state:       LooperState{Mode: Playing, Position: 3, Total: 7},
			event:       Toggle,
			expected:    LooperState{Mode: Off},
		},
		{
			description: "stop overdubbing",
			state:       LooperState{Mode: Overdubbing, Position: 3, Total: 7},
			event:       Toggle,
			expected:    LooperState{Mode: Off},
		},
	}

	for _, test := range tests {
		assert.Equal(t, test.expected, test.state.next(test.event), test.description)
	}
}

func TestLooperModeString(t *testing.T) {
	assert.Equal(t, "playing awaiting overdub", PlayingAwaitingOverdub.String())
	assert.Equal(t, "unknown", LooperMode(42).String())
}
