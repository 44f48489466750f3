// Board state shared between the sample interrupt and the main loop.
package core

import (
	"errors"
	"sync/atomic"

	"mcv4/protocol"
)

// Board constants
const (
	NumChannels = 2

	MaxValue = 1000  // Largest commanded power magnitude
	MinValue = -1000 // Most negative commanded power

	// SpeedCoeff maps a commanded value onto the PWM compare range.
	// The PWM period is SpeedCoeff*MaxValue so full scale is 100% duty.
	SpeedCoeff = 2
	PWMPeriod  = SpeedCoeff * MaxValue
)

var (
	// ErrInvalidChannel is returned for a channel outside [0, NumChannels).
	ErrInvalidChannel = errors.New("invalid motor channel")
	// ErrInvalidPower is returned for a value outside [MinValue, MaxValue].
	ErrInvalidPower = errors.New("invalid motor power")
)

// Channel is the state of one motor output.
//
// enabled is written by the main loop and read by the sample interrupt.
// inFault and currentMA are written by the sample interrupt and read by the
// main loop. value and overCurrent each belong to a single context.
type Channel struct {
	enabled   uint32 // atomic bool
	inFault   uint32 // atomic bool
	currentMA uint32 // atomic, filtered current in mA

	value       int16 // main loop only
	overCurrent bool  // sample interrupt only
}

func (c *Channel) isEnabled() bool {
	return atomic.LoadUint32(&c.enabled) != 0
}

func (c *Channel) setEnabled(on bool) {
	atomic.StoreUint32(&c.enabled, boolWord(on))
}

func (c *Channel) current() uint16 {
	return uint16(atomic.LoadUint32(&c.currentMA))
}

// Telemetry holds board-level measurements written by the acquisition.
type Telemetry struct {
	inputVoltageMV uint32 // atomic
}

// Board owns both channels, the telemetry and the hardware they drive.
// A single Board is shared by the sample interrupt (Acquisition) and the
// main loop (Firmware).
type Board struct {
	channels  [NumChannels]Channel
	telemetry Telemetry
	ticks     uint32 // atomic sample counter

	bridge Bridge
	leds   Indicators
}

// NewBoard creates a Board with every channel disabled and all indicators
// off. leds may be nil.
func NewBoard(bridge Bridge, leds Indicators) *Board {
	if leds == nil {
		leds = noIndicators{}
	}
	b := &Board{
		bridge: bridge,
		leds:   leds,
	}
	for i := 0; i < NumChannels; i++ {
		b.bridge.DisableLines(i)
		b.bridge.SetDirection(i, DirectionBrake)
		b.bridge.SetDuty(i, 0)
	}
	for led := LED(0); led < numLEDs; led++ {
		b.leds.SetLED(led, false)
	}
	return b
}

// InputVoltage returns the last measured supply voltage in mV.
func (b *Board) InputVoltage() uint16 {
	return uint16(atomic.LoadUint32(&b.telemetry.inputVoltageMV))
}

// Ticks returns the number of samples taken since boot.
func (b *Board) Ticks() uint32 {
	return atomic.LoadUint32(&b.ticks)
}

// Status returns the fault flags and input voltage as one consistent
// snapshot with respect to the sample interrupt.
//
// The mask only covers a real interrupt handler. On rp2040 the sampler is
// the sampleLoop goroutine, which masking does not stop; the snapshot holds
// there because the scheduler is cooperative and nothing here yields.
// Hosted builds take the mask as a no-op and may see a torn snapshot.
func (b *Board) Status() protocol.StatusReport {
	var report protocol.StatusReport
	state := maskInterrupts()
	for i := range b.channels {
		report.Faults[i] = atomic.LoadUint32(&b.channels[i].inFault) != 0
	}
	report.InputVoltageMV = b.InputVoltage()
	unmaskInterrupts(state)
	return report
}

func validChannel(channel int) bool {
	return channel >= 0 && channel < NumChannels
}

func boolWord(v bool) uint32 {
	if v {
		return 1
	}
	return 0
}

var _ protocol.Motors = (*Board)(nil)
