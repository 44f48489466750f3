//go:build rp2040

package main

import (
	"machine"

	"mcv4/core"
)

// pwmFrequency is the motor drive switching frequency.
const pwmFrequency = 20000

// pwmPeripheral is an interface for PWM hardware peripherals
// This abstracts over TinyGo's unexported *pwmGroup type
type pwmPeripheral interface {
	Configure(config machine.PWMConfig) error
	Channel(pin machine.Pin) (uint8, error)
	Top() uint32
	Set(channel uint8, value uint32)
}

// bridgeChannel holds the pins of one H-bridge
type bridgeChannel struct {
	pwm     pwmPeripheral
	channel uint8
	inA     machine.Pin
	inB     machine.Pin
	enA     machine.Pin
	enB     machine.Pin
}

// RP2040Bridge implements core.Bridge for two VNH-style H-bridges. The
// ENa/ENb lines double as fault outputs: enabled they are inputs pulled
// high that the bridge drags low on a fault, disabled they are driven low.
type RP2040Bridge struct {
	ch [core.NumChannels]bridgeChannel
}

// NewRP2040Bridge configures both bridges disabled and braked.
func NewRP2040Bridge() (*RP2040Bridge, error) {
	b := &RP2040Bridge{
		ch: [core.NumChannels]bridgeChannel{
			{pwm: machine.PWM1, inA: m0INa, inB: m0INb, enA: m0ENa, enB: m0ENb},
			{pwm: machine.PWM4, inA: m1INa, inB: m1INb, enA: m1ENa, enB: m1ENb},
		},
	}
	pins := [core.NumChannels]machine.Pin{m0PWM, m1PWM}

	for i := range b.ch {
		c := &b.ch[i]
		err := c.pwm.Configure(machine.PWMConfig{
			Period: 1e9 / pwmFrequency,
		})
		if err != nil {
			return nil, err
		}
		c.channel, err = c.pwm.Channel(pins[i])
		if err != nil {
			return nil, err
		}
		c.pwm.Set(c.channel, 0)

		c.inA.Configure(machine.PinConfig{Mode: machine.PinOutput})
		c.inB.Configure(machine.PinConfig{Mode: machine.PinOutput})
		c.inA.Low()
		c.inB.Low()
		b.DisableLines(i)
	}
	return b, nil
}

// SetDuty scales a compare value in [0, core.PWMPeriod] onto the slice top.
func (b *RP2040Bridge) SetDuty(channel int, duty uint16) {
	c := &b.ch[channel]
	top := c.pwm.Top()
	c.pwm.Set(c.channel, uint32(duty)*top/core.PWMPeriod)
}

func (b *RP2040Bridge) SetDirection(channel int, dir core.Direction) {
	c := &b.ch[channel]
	switch dir {
	case core.DirectionForward:
		c.inB.Low()
		c.inA.High()
	case core.DirectionReverse:
		c.inA.Low()
		c.inB.High()
	default:
		c.inA.Low()
		c.inB.Low()
	}
}

func (b *RP2040Bridge) EnableLines(channel int) {
	c := &b.ch[channel]
	c.enA.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	c.enB.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
}

func (b *RP2040Bridge) DisableLines(channel int) {
	c := &b.ch[channel]
	c.enA.Configure(machine.PinConfig{Mode: machine.PinOutput})
	c.enB.Configure(machine.PinConfig{Mode: machine.PinOutput})
	c.enA.Low()
	c.enB.Low()
}

func (b *RP2040Bridge) EnableFeedback(channel int) (bool, bool) {
	c := &b.ch[channel]
	return c.enA.Get(), c.enB.Get()
}

// RP2040LEDs implements core.Indicators on four GPIOs.
type RP2040LEDs struct {
	pins [4]machine.Pin
}

func NewRP2040LEDs() *RP2040LEDs {
	l := &RP2040LEDs{pins: [4]machine.Pin{ledM0Red, ledM0Blue, ledM1Red, ledM1Blue}}
	for _, p := range l.pins {
		p.Configure(machine.PinConfig{Mode: machine.PinOutput})
		p.Low()
	}
	return l
}

func (l *RP2040LEDs) SetLED(led core.LED, on bool) {
	if int(led) < len(l.pins) {
		l.pins[led].Set(on)
	}
}
