//go:build rp2040

package main

import (
	"device/rp"
	"machine"

	"mcv4/boot"
)

// scratchStore keeps the handoff flag in watchdog scratch register 4.
// The register survives watchdog and software resets and is cleared on
// power-on.
type scratchStore struct{}

func (scratchStore) Read() (uint32, error) {
	return rp.WATCHDOG.SCRATCH4.Get(), nil
}

func (scratchStore) Write(v uint32) error {
	rp.WATCHDOG.SCRATCH4.Set(v)
	return nil
}

func (s scratchStore) Clear() error {
	return s.Write(boot.Cleared)
}

// enterBootloader reboots into the ROM USB bootloader.
var enterBootloader = boot.JumperFunc(func() {
	machine.EnterBootloader()
})
