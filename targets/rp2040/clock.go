//go:build rp2040

package main

import (
	"runtime/volatile"
	"unsafe"

	"mcv4/core"
)

// RP2040 timer peripheral, a free-running 1MHz counter
const (
	timerBase     = 0x40054000
	timerTIMERAWL = timerBase + 0x0C // Raw timer low word
)

var timerRAWL = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))

// samplePeriodUs is the trigger period; 24kHz does not divide 1MHz, so the
// remainder is carried between periods.
const (
	samplePeriodUs  = 1000000 / core.SampleRateHz
	sampleRemainder = 1000000 % core.SampleRateHz
)

// hardwareTime returns the low 32 bits of the microsecond counter.
func hardwareTime() uint32 {
	return timerRAWL.Get()
}

// sampleTrigger paces the acquisition against the hardware timer.
type sampleTrigger struct {
	next  uint32
	carry uint32
}

func newSampleTrigger() *sampleTrigger {
	return &sampleTrigger{next: hardwareTime()}
}

// due reports whether the next sample is due, and advances the deadline
// when it is. Wraparound is handled by the signed difference.
func (t *sampleTrigger) due() bool {
	if int32(hardwareTime()-t.next) < 0 {
		return false
	}
	t.next += samplePeriodUs
	t.carry += sampleRemainder
	if t.carry >= core.SampleRateHz {
		t.carry -= core.SampleRateHz
		t.next++
	}
	return true
}
