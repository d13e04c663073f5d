// Package wav renders wav files through the unit graph offline. It
// allows to test effects and their controls without audio devices.
package wav

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/pipelined/pedals/signal"
)

// ErrUnsupportedBitDepth is returned when unsupported bit depth is used.
var ErrUnsupportedBitDepth = errors.New("only 16, 24 and 32 bit depth is supported")

const pcmFormat = 1

type (
	// Source reads interleaved frames from wav file.
	Source struct {
		file     *os.File
		decoder  *wav.Decoder
		stream   signal.StreamConfig
		bitDepth signal.BitDepth
		ints     *audio.IntBuffer
	}

	// Sink writes interleaved frames to wav file.
	Sink struct {
		file     *os.File
		encoder  *wav.Encoder
		bitDepth signal.BitDepth
		ints     *audio.IntBuffer
	}
)

// Open opens wav file for reading.
func Open(path string) (*Source, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		return nil, errors.Join(fmt.Errorf("wav %s is not valid", path), file.Close())
	}
	bitDepth := signal.BitDepth(decoder.BitDepth)
	if err := validate(bitDepth); err != nil {
		return nil, errors.Join(err, file.Close())
	}
	format := decoder.Format()
	return &Source{
		file:    file,
		decoder: decoder,
		stream: signal.StreamConfig{
			SampleRate: format.SampleRate,
			Channels:   format.NumChannels,
		},
		bitDepth: bitDepth,
		ints: &audio.IntBuffer{
			Format:         format,
			SourceBitDepth: int(bitDepth),
		},
	}, nil
}

// Stream returns stream configuration of the file.
func (s *Source) Stream() signal.StreamConfig {
	return s.stream
}

// BitDepth returns bit depth of the file.
func (s *Source) BitDepth() signal.BitDepth {
	return s.bitDepth
}

// Read fills the frame with samples of the file and returns the number of
// read samples. It returns io.EOF if no samples were read.
func (s *Source) Read(frame []float32) (int, error) {
	if cap(s.ints.Data) < len(frame) {
		s.ints.Data = make([]int, len(frame))
	}
	s.ints.Data = s.ints.Data[:len(frame)]
	n, err := s.decoder.PCMBuffer(s.ints)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, io.EOF
	}
	return signal.IntsAsFloats(s.bitDepth, s.ints.Data[:n], frame), nil
}

// Close closes the file.
func (s *Source) Close() error {
	return s.file.Close()
}

// Create creates new wav file.
func Create(path string, stream signal.StreamConfig, bitDepth signal.BitDepth) (*Sink, error) {
	if err := validate(bitDepth); err != nil {
		return nil, err
	}
	if err := stream.Validate(); err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &Sink{
		file:     f,
		encoder:  wav.NewEncoder(f, stream.SampleRate, int(bitDepth), stream.Channels, pcmFormat),
		bitDepth: bitDepth,
		ints: &audio.IntBuffer{
			Format: &audio.Format{
				NumChannels: stream.Channels,
				SampleRate:  stream.SampleRate,
			},
			SourceBitDepth: int(bitDepth),
		},
	}, nil
}

// Write encodes the frame.
func (s *Sink) Write(frame []float32) error {
	if cap(s.ints.Data) < len(frame) {
		s.ints.Data = make([]int, len(frame))
	}
	s.ints.Data = s.ints.Data[:len(frame)]
	signal.FloatsAsInts(s.bitDepth, frame, s.ints.Data)
	return s.encoder.Write(s.ints)
}

// Close flushes encoder and closes the file.
func (s *Sink) Close() error {
	err := s.encoder.Close()
	return errors.Join(err, s.file.Close())
}

func validate(bitDepth signal.BitDepth) error {
	switch bitDepth {
	case signal.BitDepth16, signal.BitDepth24, signal.BitDepth32:
		return nil
	}
	return fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, bitDepth)
}
