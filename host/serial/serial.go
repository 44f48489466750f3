// Package serial opens the serial link to a motor board.
package serial

import (
	"io"
)

// Port represents a serial port interface
// This abstraction allows for different implementations:
// - Native serial (using github.com/tarm/serial)
// - Pipes and pseudo-terminals (for the hosted simulator and tests)
type Port interface {
	io.ReadWriteCloser

	// Flush discards any unread input
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyUSB0", "COM3")
	Device string

	// Baud rate; the board runs 8N1 at 115200
	Baud int

	// Read timeout in milliseconds (0 = blocking)
	ReadTimeout int
}

// DefaultBaud is the board's serial rate.
const DefaultBaud = 115200

// DefaultConfig returns the board's serial configuration for device
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        DefaultBaud,
		ReadTimeout: 100,
	}
}
