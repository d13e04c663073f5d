package main

import (
	"context"
	"errors"
	"expvar"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"gitlab.com/gomidi/midi/v2"

	"github.com/pipelined/pedals"
	"github.com/pipelined/pedals/config"
	"github.com/pipelined/pedals/log"
	"github.com/pipelined/pedals/midiport"
	"github.com/pipelined/pedals/portaudio"
)

type runCommand struct {
	config  string
	metrics string
}

func (cmd *runCommand) Name() string {
	return "run"
}

func (cmd *runCommand) Help() string {
	return "Run the board with audio devices and MIDI controller"
}

func (cmd *runCommand) Register(fs *flag.FlagSet) {
	fs.StringVar(&cmd.config, "config", "pedals.yaml", "path to configuration file")
	fs.StringVar(&cmd.metrics, "metrics", "", "address to serve expvar metrics, eg. localhost:8080")
}

func (cmd *runCommand) Run() error {
	cfg, err := config.Load(cmd.config)
	if err != nil {
		return err
	}
	logger := log.GetLogger()

	streams, err := portaudio.Open(portaudio.Config{
		Input:           cfg.Audio.Input,
		Output:          cfg.Audio.Output,
		Channels:        cfg.Audio.Channels,
		FramesPerBuffer: cfg.Audio.FramesPerBuffer,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := streams.Close(); err != nil {
			logger.Warnf("close audio streams: %v", err)
		}
	}()
	params := streams.Params()

	graph, err := config.Build(cfg, params.Stream)
	if err != nil {
		return err
	}
	r, err := pedals.New(params.Stream, cfg.Audio.LatencyMs, graph,
		pedals.WithLogger(logger),
		pedals.WithMetric(),
	)
	if err != nil {
		return err
	}

	if cfg.Midi != nil {
		defer midi.CloseDriver()
		l, err := midiport.Listen(cfg.Midi.Port, r.Events(), func(err error) {
			logger.Warnf("midi: %v", err)
		})
		if err != nil {
			return err
		}
		defer l.Close()
		logger.Infof("listening midi port %s channel %d", l.Port(), cfg.Midi.Channel)
	}

	if cmd.metrics != "" {
		go serveMetrics(cmd.metrics, logger)
	}

	if err := streams.Start(r); err != nil {
		return err
	}
	logger.Infof("runner %s: %s -> %s, %d Hz, %d channels, latency %d ms",
		r.ID(), params.Input.Name, params.Output.Name, params.Stream.SampleRate, params.Stream.Channels, cfg.Audio.LatencyMs)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	logger.Info("stopping")
	return nil
}

func serveMetrics(addr string, logger interface{ Warnf(string, ...interface{}) }) {
	mux := http.NewServeMux()
	mux.Handle("/debug/vars", expvar.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Warnf("metrics: %v", err)
	}
}
