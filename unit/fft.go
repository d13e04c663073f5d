package unit

import (
	"gonum.org/v1/gonum/dsp/fourier"
)

// FFT transforms the frame into frequency domain and immediately back.
// Its output equals input within floating point tolerance.
type FFT struct {
	fft   *fourier.CmplxFFT
	seq   []complex128
	coeff []complex128
}

// Process does the round trip. The plan is re-created only when frame
// length changes.
func (f *FFT) Process(input, output []float32) error {
	n := len(input)
	if n == 0 {
		return nil
	}
	if f.fft == nil || f.fft.Len() != n {
		f.fft = fourier.NewCmplxFFT(n)
		f.seq = make([]complex128, n)
		f.coeff = make([]complex128, n)
	}
	for i, v := range input {
		f.seq[i] = complex(float64(v), 0)
	}
	f.fft.Coefficients(f.coeff, f.seq)
	// inverse transform is not normalized
	f.fft.Sequence(f.seq, f.coeff)
	scale := float64(n)
	for i := range output {
		// imaginary part is ~0 and discarded
		output[i] = float32(real(f.seq[i]) / scale)
	}
	return nil
}
