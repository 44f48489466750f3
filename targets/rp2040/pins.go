//go:build rp2040

package main

import "machine"

// Board pin assignment
const (
	uartTX = machine.GPIO0
	uartRX = machine.GPIO1

	// Motor 0
	m0PWM = machine.GPIO2 // PWM1 A
	m0INa = machine.GPIO4
	m0INb = machine.GPIO5
	m0ENa = machine.GPIO6
	m0ENb = machine.GPIO7

	// Motor 1
	m1PWM = machine.GPIO8 // PWM4 A
	m1INa = machine.GPIO10
	m1INb = machine.GPIO11
	m1ENa = machine.GPIO12
	m1ENb = machine.GPIO13

	ledM0Red  = machine.GPIO16
	ledM0Blue = machine.GPIO17
	ledM1Red  = machine.GPIO18
	ledM1Blue = machine.GPIO19

	// ADC inputs
	vinSense = machine.ADC0 // GPIO26, 5400/1100 divider
	m0Sense  = machine.ADC1 // GPIO27
	m1Sense  = machine.ADC2 // GPIO28
)

// Serial link
const baudRate = 115200
