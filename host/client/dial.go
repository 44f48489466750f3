package client

import (
	"fmt"
	"time"

	"github.com/golang/glog"

	"mcv4/host/serial"
)

// Dial opens the serial device described by cfg and returns a client on it.
func Dial(cfg *serial.Config) (*Client, error) {
	port, err := serial.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port: %w", err)
	}

	// Discard anything the board sent before we attached
	if err := port.Flush(); err != nil {
		glog.Warningf("flush %s: %v", cfg.Device, err)
	}
	// Give the board time to finish a reset triggered by opening the port
	time.Sleep(100 * time.Millisecond)

	glog.V(1).Infof("connected to %s at %d baud", cfg.Device, cfg.Baud)
	return New(port), nil
}
