//go:build !tinygo

// Command hosted runs the firmware against a simulated power stage on a
// regular Go host. It serves the protocol on stdin/stdout or on a serial
// device such as one end of a pty pair.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"

	"mcv4/boot"
	"mcv4/core"
	"mcv4/host/serial"
	"mcv4/sim"
	"mcv4/sim/config"
)

var configPath = flag.String("config", "", "YAML configuration file")

func main() {
	flag.Parse()
	defer glog.Flush()

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		glog.Exitf("config: %v", err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		glog.Exitf("config: %v", err)
	}

	core.SetDebugWriter(func(s string) { glog.Info(s) })
	core.SetDebugEnabled(cfg.Debug)

	stream, err := openStream(cfg)
	if err != nil {
		glog.Exitf("transport: %v", err)
	}
	defer stream.Close()

	if err := serve(cfg, stream, boardSerial(cfg)); err != nil {
		glog.Errorf("%v", err)
		glog.Flush()
		os.Exit(1)
	}
}

// serve boots the board until it stops without a reset, or enters the
// bootloader. A requested reset reruns the boot sequence in-process.
func serve(cfg *config.Config, stream io.ReadWriter, serialNumber string) error {
	store := boot.NewFileStore(cfg.FlagFile)
	for {
		handoff := boot.NewHandoff(store, boot.JumperFunc(func() {
			glog.Info("bootloader entered, flag cleared")
		}))
		if err := handoff.Startup(); err != nil {
			if errors.Is(err, boot.ErrEnteredBootloader) {
				return nil
			}
			return err
		}

		reset := false
		m := sim.New(sim.Config{
			Plant:        cfg.Plant(),
			SampleRateHz: cfg.SampleRateHz,
			Identity:     core.DefaultIdentity(serialNumber),
			Handoff:      handoff,
			Reset:        sim.ResetFunc(func() { reset = true }),
		}, stream, stream)

		glog.Infof("board up: %s", core.DefaultIdentity(serialNumber))
		err := m.Run(context.Background())
		if core.IsDebugEnabled() {
			core.DumpEvents()
		}
		if !reset {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		glog.Info("warm reset")
	}
}

type stdio struct {
	io.Reader
	io.Writer
}

func (stdio) Close() error { return nil }

func openStream(cfg *config.Config) (io.ReadWriteCloser, error) {
	if cfg.Device == "" {
		return stdio{os.Stdin, os.Stdout}, nil
	}
	port, err := serial.Open(&serial.Config{Device: cfg.Device, Baud: cfg.Baud})
	if err != nil {
		return nil, err
	}
	glog.Infof("serving %s at %d baud", cfg.Device, cfg.Baud)
	return port, nil
}

func boardSerial(cfg *config.Config) string {
	if cfg.Serial != "" {
		return cfg.Serial
	}
	id, err := machineid.ProtectedID("mcv4")
	if err != nil {
		glog.Warningf("machine id: %v", err)
		return ""
	}
	return config.SerialFromID(id)
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [-config sim.yaml]\n", os.Args[0])
		flag.PrintDefaults()
	}
}
