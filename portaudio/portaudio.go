// Package portaudio connects the runner to audio devices. Capture and
// render run in separate device streams, each with its own callback.
package portaudio

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gordonklaus/portaudio"

	"github.com/pipelined/pedals/signal"
)

// ErrDeviceNotFound is returned when device with provided name doesn't
// exist or doesn't have required channels.
var ErrDeviceNotFound = errors.New("device not found")

type (
	// Callbacks are invoked by the device streams with interleaved
	// frames.
	Callbacks interface {
		Capture(input []float32)
		Render(output []float32)
	}

	// Device describes an audio device.
	Device struct {
		Name              string
		HostAPI           string
		MaxInputChannels  int
		MaxOutputChannels int
		SampleRate        float64
		DefaultInput      bool
		DefaultOutput     bool
	}

	// Config selects devices. Empty names select default devices, zero
	// channels select the largest number supported by both devices.
	Config struct {
		Input           string
		Output          string
		Channels        int
		FramesPerBuffer int
	}

	// Streams are the input and output streams of the board. Portaudio
	// is initialized while streams are open.
	Streams struct {
		params StreamParams
		input  *portaudio.Stream
		output *portaudio.Stream
	}

	// StreamParams are resolved parameters of the streams.
	StreamParams struct {
		Input           *portaudio.DeviceInfo
		Output          *portaudio.DeviceInfo
		Stream          signal.StreamConfig
		FramesPerBuffer int
	}
)

// Devices returns the list of available devices.
func Devices() ([]Device, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}
	defer portaudio.Terminate()

	infos, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	defaultIn, _ := portaudio.DefaultInputDevice()
	defaultOut, _ := portaudio.DefaultOutputDevice()
	devices := make([]Device, 0, len(infos))
	for _, info := range infos {
		d := Device{
			Name:              info.Name,
			MaxInputChannels:  info.MaxInputChannels,
			MaxOutputChannels: info.MaxOutputChannels,
			SampleRate:        info.DefaultSampleRate,
			DefaultInput:      defaultIn != nil && info.Index == defaultIn.Index,
			DefaultOutput:     defaultOut != nil && info.Index == defaultOut.Index,
		}
		if info.HostApi != nil {
			d.HostAPI = info.HostApi.Name
		}
		devices = append(devices, d)
	}
	return devices, nil
}

// Open initializes portaudio and resolves devices. Streams are started
// with Start.
func Open(cfg Config) (*Streams, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}
	params, err := resolve(cfg)
	if err != nil {
		portaudio.Terminate()
		return nil, err
	}
	return &Streams{params: params}, nil
}

// Params returns resolved parameters of the streams.
func (s *Streams) Params() StreamParams {
	return s.params
}

// Start opens and starts both streams. Output stream is started first,
// so the first render call happens as soon as possible. Streams must be
// closed even if Start fails.
func (s *Streams) Start(callbacks Callbacks) error {
	p := s.params
	var err error
	s.output, err = portaudio.OpenStream(portaudio.StreamParameters{
		Output: portaudio.StreamDeviceParameters{
			Device:   p.Output,
			Channels: p.Stream.Channels,
			Latency:  p.Output.DefaultLowOutputLatency,
		},
		SampleRate:      float64(p.Stream.SampleRate),
		FramesPerBuffer: p.FramesPerBuffer,
	}, callbacks.Render)
	if err != nil {
		return fmt.Errorf("open output %s: %w", p.Output.Name, err)
	}
	s.input, err = portaudio.OpenStream(portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   p.Input,
			Channels: p.Stream.Channels,
			Latency:  p.Input.DefaultLowInputLatency,
		},
		SampleRate:      float64(p.Stream.SampleRate),
		FramesPerBuffer: p.FramesPerBuffer,
	}, callbacks.Capture)
	if err != nil {
		return fmt.Errorf("open input %s: %w", p.Input.Name, err)
	}
	if err := s.output.Start(); err != nil {
		return fmt.Errorf("start output %s: %w", p.Output.Name, err)
	}
	if err := s.input.Start(); err != nil {
		return fmt.Errorf("start input %s: %w", p.Input.Name, err)
	}
	return nil
}

// Close stops streams and terminates portaudio.
func (s *Streams) Close() error {
	var errs []error
	for _, stream := range []*portaudio.Stream{s.input, s.output} {
		if stream == nil {
			continue
		}
		// stop fails if stream wasn't started, close still has to happen
		stream.Stop()
		if err := stream.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.input, s.output = nil, nil
	if err := portaudio.Terminate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func resolve(cfg Config) (StreamParams, error) {
	in, err := device(cfg.Input, true)
	if err != nil {
		return StreamParams{}, fmt.Errorf("input: %w", err)
	}
	out, err := device(cfg.Output, false)
	if err != nil {
		return StreamParams{}, fmt.Errorf("output: %w", err)
	}
	channels := cfg.Channels
	if channels == 0 {
		channels = min(in.MaxInputChannels, out.MaxOutputChannels)
	}
	if channels > in.MaxInputChannels || channels > out.MaxOutputChannels {
		return StreamParams{}, fmt.Errorf("%w: %d channels are not supported by %s and %s", ErrDeviceNotFound, channels, in.Name, out.Name)
	}
	framesPerBuffer := cfg.FramesPerBuffer
	if framesPerBuffer == 0 {
		framesPerBuffer = portaudio.FramesPerBufferUnspecified
	}
	return StreamParams{
		Input:  in,
		Output: out,
		Stream: signal.StreamConfig{
			// output device clocks the render callback
			SampleRate: int(out.DefaultSampleRate),
			Channels:   channels,
		},
		FramesPerBuffer: framesPerBuffer,
	}, nil
}

// device returns device by name or the default one if name is empty.
func device(name string, input bool) (*portaudio.DeviceInfo, error) {
	if name == "" {
		if input {
			return portaudio.DefaultInputDevice()
		}
		return portaudio.DefaultOutputDevice()
	}
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	for _, d := range devices {
		if !strings.EqualFold(d.Name, name) {
			continue
		}
		if input && d.MaxInputChannels > 0 || !input && d.MaxOutputChannels > 0 {
			return d, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrDeviceNotFound, name)
}
