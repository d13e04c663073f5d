package wav

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/pipelined/pedals/control"
	"github.com/pipelined/pedals/unit"
)

// Render processes the source with the graph and writes the result into
// the sink, frame by frame. Events are sorted by timestamp in
// microseconds since the start of the file, each one is passed to the
// graph before the first frame that starts at or after it. The number of
// rendered samples is returned.
func Render(src *Source, dst *Sink, graph unit.Unit, frameSize int, events []control.Event) (int64, error) {
	if frameSize <= 0 {
		return 0, fmt.Errorf("%w: frame size must be > 0, but was %d", unit.ErrConfiguration, frameSize)
	}
	stream := src.Stream()
	handler, _ := graph.(unit.EventHandler)
	events = slices.Clone(events)
	slices.SortStableFunc(events, func(a, b control.Event) int {
		return cmp.Compare(a.Timestamp, b.Timestamp)
	})

	size := frameSize * stream.Channels
	input := make([]float32, size)
	output := make([]float32, size)
	var (
		samples int64
		faults  []error
	)
	for {
		n, err := src.Read(input)
		if errors.Is(err, io.EOF) {
			return samples, errors.Join(faults...)
		}
		if err != nil {
			return samples, err
		}

		if handler != nil {
			// timestamp of the frame start
			at := uint64(samples/int64(stream.Channels)) * 1e6 / uint64(stream.SampleRate)
			i := 0
			for i < len(events) && events[i].Timestamp <= at {
				i++
			}
			if err := handler.HandleEvents(events[:i]); err != nil {
				faults = append(faults, err)
			}
			events = events[i:]
		}

		if err := graph.Process(input[:n], output[:n]); err != nil {
			faults = append(faults, err)
		}
		if err := dst.Write(output[:n]); err != nil {
			return samples, err
		}
		samples += int64(n)
	}
}
