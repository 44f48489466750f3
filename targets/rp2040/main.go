//go:build rp2040

package main

import (
	"machine"
	"runtime"
	"time"

	"mcv4/boot"
	"mcv4/core"
)

func main() {
	// The handoff check runs before anything else is touched
	handoff := boot.NewHandoff(scratchStore{}, enterBootloader)
	if err := handoff.Startup(); err != nil {
		halt()
	}

	// Debug output on USB CDC, the UART carries the protocol
	core.SetDebugWriter(func(s string) {
		machine.Serial.Write([]byte(s))
		machine.Serial.Write([]byte("\r\n"))
	})
	core.InitAsyncDebug()

	bridge, err := NewRP2040Bridge()
	if err != nil {
		halt()
	}
	board := core.NewBoard(bridge, NewRP2040LEDs())

	afe, err := NewRP2040FrontEnd()
	if err != nil {
		halt()
	}
	acq := core.NewAcquisition(board, afe)
	go sampleLoop(acq)

	wd, err := startWatchdog()
	if err != nil {
		halt()
	}
	transport, err := NewUARTTransport(baudRate, wd)
	if err != nil {
		halt()
	}

	fw := core.NewFirmware(board, transport, wd, watchdogReset{}, handoff, core.DefaultIdentity(""))
	for {
		if err := fw.Run(); err != nil {
			core.DebugAsync("[MAIN] transport: " + err.Error())
			core.DumpEvents()
		}
	}
}

// sampleLoop stands in for the injected-conversion interrupt. It yields
// between deadlines so the main loop keeps running.
func sampleLoop(acq *core.Acquisition) {
	trigger := newSampleTrigger()
	for {
		if trigger.due() {
			acq.Sample()
			continue
		}
		runtime.Gosched()
	}
}

// halt parks the firmware. A running watchdog then resets the board.
func halt() {
	for {
		time.Sleep(time.Second)
	}
}
