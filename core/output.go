// Motor output stage
// Translates signed power commands into H-bridge direction and duty, and
// latches the bridge fault feedback.
package core

import (
	"sync/atomic"

	"mcv4/x/mathx"
)

// Enable releases the bridge enable lines for a channel. The channel starts
// braked with a commanded value of 0. Enabling an enabled channel is a no-op.
func (b *Board) Enable(channel int) error {
	if !validChannel(channel) {
		return ErrInvalidChannel
	}
	c := &b.channels[channel]
	if c.isEnabled() {
		return nil
	}

	b.bridge.EnableLines(channel)
	c.setEnabled(true)
	c.value = 0
	b.bridge.SetDirection(channel, DirectionBrake)
	return nil
}

// Disable pulls both enable lines low and clears the fault flag.
// Disabling a disabled channel is a no-op apart from re-asserting the lines.
func (b *Board) Disable(channel int) error {
	if !validChannel(channel) {
		return ErrInvalidChannel
	}
	c := &b.channels[channel]

	// Clear enabled first so the sample interrupt never sees the low
	// enable lines of a channel it still considers enabled.
	c.setEnabled(false)
	b.bridge.DisableLines(channel)
	atomic.StoreUint32(&c.inFault, 0)
	return nil
}

// SetPower drives a channel with a signed power in [MinValue, MaxValue].
// Invalid arguments leave every piece of state untouched.
//
//	value > 0: forward, duty = value*SpeedCoeff
//	value < 0: reverse, duty = -value*SpeedCoeff
//	value = 0: brake, duty unchanged
func (b *Board) SetPower(channel int, value int) error {
	if !validChannel(channel) {
		return ErrInvalidChannel
	}
	if !mathx.Between(value, MinValue, MaxValue) {
		return ErrInvalidPower
	}

	c := &b.channels[channel]
	if !c.isEnabled() {
		b.bridge.EnableLines(channel)
		c.setEnabled(true)
	}

	switch {
	case value > 0:
		b.bridge.SetDirection(channel, DirectionForward)
		b.bridge.SetDuty(channel, uint16(value*SpeedCoeff))
	case value < 0:
		b.bridge.SetDirection(channel, DirectionReverse)
		b.bridge.SetDuty(channel, uint16(mathx.Abs(value)*SpeedCoeff))
	default:
		b.bridge.SetDirection(channel, DirectionBrake)
	}

	c.value = int16(value)
	return nil
}

// Enabled reports whether a channel is driving its bridge.
func (b *Board) Enabled(channel int) bool {
	if !validChannel(channel) {
		return false
	}
	return b.channels[channel].isEnabled()
}

// CommandedValue returns the last applied value, or 0 when the channel is
// disabled since a disabled bridge is not driven whatever was stored.
func (b *Board) CommandedValue(channel int) int {
	if !validChannel(channel) {
		return 0
	}
	c := &b.channels[channel]
	if !c.isEnabled() {
		return 0
	}
	return int(c.value)
}

// Current returns the filtered current estimate of a channel in mA.
func (b *Board) Current(channel int) uint16 {
	if !validChannel(channel) {
		return 0
	}
	return b.channels[channel].current()
}

// InFault reports the latched fault flag of a channel.
func (b *Board) InFault(channel int) bool {
	if !validChannel(channel) {
		return false
	}
	return atomic.LoadUint32(&b.channels[channel].inFault) != 0
}

// CheckFaults polls the enable feedback of every enabled channel and
// updates its fault flag and red indicator. Disabled channels are always
// fault-free. Runs in the sample interrupt: it must not block.
func (b *Board) CheckFaults() {
	for i := range b.channels {
		c := &b.channels[i]

		fault := false
		if c.isEnabled() {
			aOK, bOK := b.bridge.EnableFeedback(i)
			fault = !aOK || !bOK
		}

		prev := atomic.SwapUint32(&c.inFault, boolWord(fault))
		if prev != boolWord(fault) {
			if fault {
				RecordEvent(EvtFault, uint8(i), b.Ticks(), 0)
			} else {
				RecordEvent(EvtFaultClear, uint8(i), b.Ticks(), 0)
			}
		}
		b.leds.SetLED(faultLED(i), fault)
	}
}

// ResetAll disables every channel, clears fault flags and current
// estimates, and turns every indicator off.
func (b *Board) ResetAll() {
	for i := range b.channels {
		_ = b.Disable(i)
		c := &b.channels[i]
		atomic.StoreUint32(&c.inFault, 0)
		atomic.StoreUint32(&c.currentMA, 0)
	}
	for led := LED(0); led < numLEDs; led++ {
		b.leds.SetLED(led, false)
	}
	RecordEvent(EvtReset, 0, b.Ticks(), 0)
}
