// Analog acquisition
// Converts the injected ADC scan into supply voltage and filtered motor
// currents. Sample runs in interrupt context at SampleRateHz.
package core

import (
	"sync/atomic"

	"tinygo.org/x/drivers"
)

// Acquisition constants
const (
	SampleRateHz  = 24000 // Injected scan trigger rate
	OverCurrentMA = 5000  // Blue indicator threshold

	ADCMax = 4095 // 12-bit full scale
)

// ConvertVoltage converts a 12-bit ADC code to the supply voltage in mV.
// 3.3V reference over 4096 codes behind a 5400/1100 (about 4.9:1) divider:
// 3300/4096 * 5400/1100 ~= 2025/512 mV per code.
func ConvertVoltage(code uint16) uint16 {
	return uint16((uint32(code) * 2025) >> 9)
}

// ConvertCurrent converts a 12-bit ADC code from a current-sense output to
// mA. Results above 65535 wrap.
func ConvertCurrent(code uint16) uint16 {
	return uint16((uint32(code) * 2625) >> 9)
}

// DecayFilter is a first-order exponential filter with a coefficient of
// 7/256. The arithmetic shift rounds toward negative infinity, so a rising
// input stops short of x by up to 36 while a falling one converges fully.
func DecayFilter(x, prev uint16) uint16 {
	return uint16(int32(prev) + ((7 * (int32(x) - int32(prev))) >> 8))
}

// Acquisition is the sample step driven by the platform trigger.
type Acquisition struct {
	board *Board
	afe   AnalogFrontEnd
}

// NewAcquisition binds a front end to the board it updates.
func NewAcquisition(board *Board, afe AnalogFrontEnd) *Acquisition {
	return &Acquisition{board: board, afe: afe}
}

// Sample runs one acquisition step: fault polling, telemetry update,
// current filtering and over-current indication. Must not block.
func (a *Acquisition) Sample() {
	b := a.board
	b.CheckFaults()

	voltage, currentA, currentB := a.afe.ReadInjected()
	atomic.StoreUint32(&b.telemetry.inputVoltageMV, uint32(ConvertVoltage(voltage)))

	a.filter(0, currentA)
	a.filter(1, currentB)

	atomic.AddUint32(&b.ticks, 1)
}

func (a *Acquisition) filter(channel int, code uint16) {
	b := a.board
	c := &b.channels[channel]

	filtered := DecayFilter(ConvertCurrent(code), c.current())
	atomic.StoreUint32(&c.currentMA, uint32(filtered))

	over := filtered > OverCurrentMA
	if over != c.overCurrent {
		c.overCurrent = over
		if over {
			RecordEvent(EvtOverCurrent, uint8(channel), b.Ticks(), uint32(filtered))
		} else {
			RecordEvent(EvtOverCurrentClear, uint8(channel), b.Ticks(), uint32(filtered))
		}
	}
	b.leds.SetLED(loadLED(channel), over)
}

// Samples returns the number of completed sample steps.
func (a *Acquisition) Samples() uint32 {
	return a.board.Ticks()
}

// Update implements drivers.Sensor. A Voltage request runs one sample step;
// currents are refreshed alongside since they share the injected scan.
func (a *Acquisition) Update(which drivers.Measurement) error {
	if which&drivers.Voltage != 0 {
		a.Sample()
	}
	return nil
}

var _ drivers.Sensor = (*Acquisition)(nil)
