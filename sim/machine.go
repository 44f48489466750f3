package sim

import (
	"context"
	"io"
	"time"

	"tinygo.org/x/drivers"

	"mcv4/core"
	"mcv4/protocol"
)

// DefaultSampleRateHz paces the simulated acquisition. The hardware trigger
// runs at core.SampleRateHz; a host timer cannot hold that rate.
const DefaultSampleRateHz = 1000

// ResetFunc adapts a function to core.ResetController.
type ResetFunc func()

func (f ResetFunc) Reset() { f() }

// Config assembles a simulated board.
type Config struct {
	Plant        Plant
	SampleRateHz int
	Identity     protocol.Identity

	// Handoff may be nil, in which case *SYS:BOOTLOADER is refused.
	Handoff core.Handoff
	// Reset is called once a requested reboot is due. May be nil.
	Reset core.ResetController
	// Watchdog is petted by the main loop. May be nil.
	Watchdog core.Watchdog
}

// Machine is a complete simulated board speaking the protocol over a stream.
type Machine struct {
	Bridge      *Bridge
	FrontEnd    *FrontEnd
	LEDs        *LEDs
	Board       *core.Board
	Acquisition *core.Acquisition
	Firmware    *core.Firmware

	samplePeriod time.Duration
}

// New builds a board that reads commands from r and writes responses to w.
func New(cfg Config, r io.Reader, w io.Writer) *Machine {
	if cfg.SampleRateHz <= 0 {
		cfg.SampleRateHz = DefaultSampleRateHz
	}
	if cfg.Identity == (protocol.Identity{}) {
		cfg.Identity = core.DefaultIdentity("")
	}
	if cfg.Reset == nil {
		cfg.Reset = ResetFunc(func() {})
	}

	bridge := NewBridge()
	leds := &LEDs{}
	board := core.NewBoard(bridge, leds)
	afe := NewFrontEnd(bridge, cfg.Plant)

	m := &Machine{
		Bridge:       bridge,
		FrontEnd:     afe,
		LEDs:         leds,
		Board:        board,
		Acquisition:  core.NewAcquisition(board, afe),
		samplePeriod: time.Second / time.Duration(cfg.SampleRateHz),
	}
	transport := core.NewStreamTransport(r, w)
	m.Firmware = core.NewFirmware(board, transport, cfg.Watchdog, cfg.Reset, cfg.Handoff, cfg.Identity)
	return m
}

// Run samples in the background and runs the main loop until the stream
// fails or a reboot is performed. Cancelling ctx stops the sampler only;
// close the stream to stop the main loop.
func (m *Machine) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go m.sampleLoop(ctx)
	return m.Firmware.Run()
}

func (m *Machine) sampleLoop(ctx context.Context) {
	ticker := time.NewTicker(m.samplePeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Acquisition.Update(drivers.Voltage)
		}
	}
}

// Settle runs n acquisition steps synchronously. Not for use while Run is
// sampling.
func (m *Machine) Settle(n int) {
	for i := 0; i < n; i++ {
		m.Acquisition.Update(drivers.Voltage)
	}
}
