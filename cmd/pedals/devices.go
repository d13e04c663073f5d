package main

import (
	"flag"
	"fmt"

	"gitlab.com/gomidi/midi/v2"

	"github.com/pipelined/pedals/midiport"
	"github.com/pipelined/pedals/portaudio"
)

type devicesCommand struct{}

func (cmd *devicesCommand) Name() string {
	return "devices"
}

func (cmd *devicesCommand) Help() string {
	return "Show available audio devices and MIDI ports"
}

func (cmd *devicesCommand) Register(*flag.FlagSet) {}

func (cmd *devicesCommand) Run() error {
	devices, err := portaudio.Devices()
	if err != nil {
		return err
	}
	fmt.Println("Audio devices:")
	for _, d := range devices {
		var defaults string
		if d.DefaultInput {
			defaults += " [default input]"
		}
		if d.DefaultOutput {
			defaults += " [default output]"
		}
		fmt.Printf("\t%s (%s): %d in, %d out, %v Hz%s\n",
			d.Name, d.HostAPI, d.MaxInputChannels, d.MaxOutputChannels, d.SampleRate, defaults)
	}

	defer midi.CloseDriver()
	fmt.Println("MIDI ports:")
	for _, p := range midiport.Ports() {
		fmt.Printf("\t%s\n", p)
	}
	return nil
}
