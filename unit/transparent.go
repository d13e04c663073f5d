package unit

// Transparent copies input to output.
type Transparent struct{}

// Process copies the input.
func (Transparent) Process(input, output []float32) error {
	copy(output, input)
	return nil
}
