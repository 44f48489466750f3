// Firmware main loop
// Receives bytes, frames them into lines, dispatches each line and sends
// the response. The loop also services the watchdog and performs the
// reset requested by *SYS:BOOTLOADER once its ACK is out.
package core

import (
	"mcv4/protocol"
)

// Board identity
const (
	Manufacturer = "Student Robotics"
	BoardName    = "MCv4B"

	// SerialPlaceholder is patched into the image by commissioning tools.
	SerialPlaceholder = "XXXXXXXXXXXXXXX"
)

// DefaultIdentity returns the identity reported by *IDN? for serial.
// An empty serial reports the placeholder.
func DefaultIdentity(serial string) protocol.Identity {
	if serial == "" {
		serial = SerialPlaceholder
	}
	return protocol.Identity{
		Manufacturer: Manufacturer,
		Board:        BoardName,
		Serial:       serial,
		Version:      protocol.Version,
	}
}

// Handoff is the bootloader handoff as seen by the main loop.
type Handoff interface {
	protocol.Bootloader
	RebootPending() bool
}

// Firmware ties the board to the serial link.
type Firmware struct {
	Board     *Board
	Transport Transport
	Watchdog  Watchdog
	Reset     ResetController
	Handoff   Handoff

	framer     *protocol.Framer
	dispatcher *protocol.Dispatcher
	response   *protocol.Response
	dropped    uint32
}

// NewFirmware wires the protocol to a board. watchdog may be nil. handoff
// may be nil, in which case *SYS:BOOTLOADER is refused.
func NewFirmware(board *Board, transport Transport, watchdog Watchdog, reset ResetController, handoff Handoff, identity protocol.Identity) *Firmware {
	if watchdog == nil {
		watchdog = noWatchdog{}
	}
	var bootloader protocol.Bootloader
	if handoff != nil {
		bootloader = handoff
	}
	return &Firmware{
		Board:      board,
		Transport:  transport,
		Watchdog:   watchdog,
		Reset:      reset,
		Handoff:    handoff,
		framer:     protocol.NewFramer(protocol.MaxMessage),
		dispatcher: protocol.NewDispatcher(board, bootloader, identity),
		response:   protocol.NewResponse(protocol.MaxResponse),
	}
}

// Run is the main loop. It returns the transport error that stopped it, or
// nil after a requested reset returned (hosted builds).
func (f *Firmware) Run() error {
	for {
		f.Watchdog.Pet()

		if f.rebootPending() {
			DebugAsync("[MAIN] reboot requested")
			f.Reset.Reset()
			return nil
		}

		c, err := f.Transport.RecvByte()
		if err != nil {
			return err
		}
		if err := f.HandleByte(c); err != nil {
			return err
		}
	}
}

// HandleByte feeds one received byte through the framer and, when it
// completes a line, dispatches it and sends the response.
func (f *Firmware) HandleByte(c byte) error {
	line, ok := f.framer.Push(c)
	if !ok {
		if d := f.framer.Dropped(); d != f.dropped {
			f.dropped = d
			RecordEvent(EvtOverflow, 0, f.Board.Ticks(), d)
		}
		return nil
	}

	pending := f.rebootPending()
	f.response.Reset()
	f.dispatcher.Handle(line, f.response)
	if !pending && f.rebootPending() {
		RecordEvent(EvtBootloader, 0, f.Board.Ticks(), 0)
	}
	return f.Transport.Send(f.response.Line())
}

func (f *Firmware) rebootPending() bool {
	return f.Handoff != nil && f.Handoff.RebootPending()
}

type noWatchdog struct{}

func (noWatchdog) Pet() {}
