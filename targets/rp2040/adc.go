//go:build rp2040

package main

import (
	"machine"
)

// RP2040FrontEnd implements core.AnalogFrontEnd with three single-shot
// conversions per scan.
type RP2040FrontEnd struct {
	vin machine.ADC
	m0  machine.ADC
	m1  machine.ADC
}

// NewRP2040FrontEnd initialises the ADC and the three sense inputs.
func NewRP2040FrontEnd() (*RP2040FrontEnd, error) {
	machine.InitADC()

	f := &RP2040FrontEnd{
		vin: machine.ADC{Pin: vinSense},
		m0:  machine.ADC{Pin: m0Sense},
		m1:  machine.ADC{Pin: m1Sense},
	}
	for _, adc := range []*machine.ADC{&f.vin, &f.m0, &f.m1} {
		if err := adc.Configure(machine.ADCConfig{}); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// ReadInjected returns 12-bit codes. machine.ADC scales results to 16 bits.
func (f *RP2040FrontEnd) ReadInjected() (voltage, currentA, currentB uint16) {
	return f.vin.Get() >> 4, f.m0.Get() >> 4, f.m1.Get() >> 4
}
