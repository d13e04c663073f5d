package unit

import "github.com/pipelined/pedals/signal"

// Gain multiplies every sample by a coefficient.
type Gain struct {
	Coefficient float32
}

// Process scales the input.
func (g Gain) Process(input, output []float32) error {
	signal.Scale(output, input, g.Coefficient)
	return nil
}
