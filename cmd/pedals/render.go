package main

import (
	"errors"
	"flag"
	"fmt"

	"github.com/pipelined/pedals/config"
	"github.com/pipelined/pedals/log"
	"github.com/pipelined/pedals/wav"
)

type renderCommand struct {
	config    string
	in        string
	out       string
	frameSize int
}

func (cmd *renderCommand) Name() string {
	return "render"
}

func (cmd *renderCommand) Help() string {
	return "Render wav file through the board"
}

func (cmd *renderCommand) Register(fs *flag.FlagSet) {
	fs.StringVar(&cmd.config, "config", "pedals.yaml", "path to configuration file")
	fs.StringVar(&cmd.in, "in", "", "input wav file (required)")
	fs.StringVar(&cmd.out, "out", "", "output wav file (required)")
	fs.IntVar(&cmd.frameSize, "frames", 512, "frames per render call")
}

func (cmd *renderCommand) Validate() error {
	var errs []error
	if cmd.in == "" {
		errs = append(errs, errors.New("missing -in required flag"))
	}
	if cmd.out == "" {
		errs = append(errs, errors.New("missing -out required flag"))
	}
	if cmd.frameSize <= 0 {
		errs = append(errs, fmt.Errorf("-frames must be > 0, but was %d", cmd.frameSize))
	}
	return errors.Join(errs...)
}

func (cmd *renderCommand) Run() (err error) {
	if err := cmd.Validate(); err != nil {
		return err
	}
	cfg, err := config.Load(cmd.config)
	if err != nil {
		return err
	}
	src, err := wav.Open(cmd.in)
	if err != nil {
		return err
	}
	defer src.Close()
	graph, err := config.Build(cfg, src.Stream())
	if err != nil {
		return err
	}
	dst, err := wav.Create(cmd.out, src.Stream(), src.BitDepth())
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, dst.Close())
	}()

	samples, err := wav.Render(src, dst, graph, cmd.frameSize, nil)
	log.GetLogger().Infof("rendered %v of %s into %s", src.Stream().Duration(int(samples)), cmd.in, cmd.out)
	return err
}
