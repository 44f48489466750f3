// Package sim is a software model of the board's power stage and analog
// front end. It lets the firmware core run on a regular Go host.
package sim

import (
	"sync"
	"sync/atomic"

	"mcv4/core"
)

// Plant describes the simulated electrical environment.
type Plant struct {
	SupplyMV uint16
	// LoadMilliOhm per channel; 0 is an open circuit
	LoadMilliOhm [core.NumChannels]uint32
}

// DefaultPlant is a 12V supply driving two 2 ohm loads.
func DefaultPlant() Plant {
	return Plant{
		SupplyMV:     12000,
		LoadMilliOhm: [core.NumChannels]uint32{2000, 2000},
	}
}

type channelState struct {
	duty    uint16
	dir     core.Direction
	enabled bool
	faultA  bool
	faultB  bool
}

// Bridge models both H-bridges. Safe for use from the sampler and the main
// loop at the same time.
type Bridge struct {
	mu       sync.Mutex
	channels [core.NumChannels]channelState
}

// NewBridge returns a bridge with both channels disabled.
func NewBridge() *Bridge {
	return &Bridge{}
}

func (b *Bridge) SetDuty(channel int, duty uint16) {
	b.mu.Lock()
	b.channels[channel].duty = duty
	b.mu.Unlock()
}

func (b *Bridge) SetDirection(channel int, dir core.Direction) {
	b.mu.Lock()
	b.channels[channel].dir = dir
	b.mu.Unlock()
}

func (b *Bridge) EnableLines(channel int) {
	b.mu.Lock()
	b.channels[channel].enabled = true
	b.mu.Unlock()
}

func (b *Bridge) DisableLines(channel int) {
	b.mu.Lock()
	b.channels[channel].enabled = false
	b.mu.Unlock()
}

// EnableFeedback reports a half-bridge as healthy unless a fault was
// injected. A disabled channel reads low on both lines.
func (b *Bridge) EnableFeedback(channel int) (bool, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := b.channels[channel]
	if !ch.enabled {
		return false, false
	}
	return !ch.faultA, !ch.faultB
}

// InjectFault forces the enable feedback of one or both half-bridges low.
func (b *Bridge) InjectFault(channel int, halfA, halfB bool) {
	b.mu.Lock()
	b.channels[channel].faultA = halfA
	b.channels[channel].faultB = halfB
	b.mu.Unlock()
}

// Drive returns the effective duty (0 when braking or disabled) and
// direction of a channel.
func (b *Bridge) Drive(channel int) (uint16, core.Direction) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := b.channels[channel]
	if !ch.enabled || ch.dir == core.DirectionBrake {
		return 0, core.DirectionBrake
	}
	return ch.duty, ch.dir
}

// FrontEnd produces ADC codes from the bridge state and the plant.
type FrontEnd struct {
	bridge *Bridge

	mu    sync.Mutex
	plant Plant
}

// NewFrontEnd samples bridge against plant.
func NewFrontEnd(bridge *Bridge, plant Plant) *FrontEnd {
	return &FrontEnd{bridge: bridge, plant: plant}
}

// SetPlant replaces the simulated environment.
func (f *FrontEnd) SetPlant(plant Plant) {
	f.mu.Lock()
	f.plant = plant
	f.mu.Unlock()
}

// ReadInjected returns the codes a real scan would produce.
func (f *FrontEnd) ReadInjected() (uint16, uint16, uint16) {
	f.mu.Lock()
	plant := f.plant
	f.mu.Unlock()

	voltage := VoltageCode(plant.SupplyMV)
	a := CurrentCode(f.loadCurrent(0, plant))
	b := CurrentCode(f.loadCurrent(1, plant))
	return voltage, a, b
}

// loadCurrent is the average current through a resistive load at the
// channel's duty cycle, in mA.
func (f *FrontEnd) loadCurrent(channel int, plant Plant) uint32 {
	duty, _ := f.bridge.Drive(channel)
	load := plant.LoadMilliOhm[channel]
	if duty == 0 || load == 0 {
		return 0
	}
	return uint32(uint64(plant.SupplyMV) * uint64(duty) * 1000 / (uint64(core.PWMPeriod) * uint64(load)))
}

// VoltageCode is the inverse of core.ConvertVoltage, clamped to full scale.
func VoltageCode(mv uint16) uint16 {
	return clampCode((uint32(mv) << 9) / 2025)
}

// CurrentCode is the inverse of core.ConvertCurrent, clamped to full scale.
func CurrentCode(ma uint32) uint16 {
	return clampCode((ma << 9) / 2625)
}

func clampCode(code uint32) uint16 {
	if code > core.ADCMax {
		return core.ADCMax
	}
	return uint16(code)
}

// LEDs records indicator state.
type LEDs struct {
	on [4]uint32
}

func (l *LEDs) SetLED(led core.LED, on bool) {
	var v uint32
	if on {
		v = 1
	}
	atomic.StoreUint32(&l.on[led], v)
}

// On reports whether an indicator is lit.
func (l *LEDs) On(led core.LED) bool {
	return atomic.LoadUint32(&l.on[led]) == 1
}
