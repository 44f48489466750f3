//go:build rp2040

package main

import (
	"context"
	"errors"
	"machine"
	"time"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"

	"mcv4/core"
)

// Bound each blocking receive so the watchdog keeps being serviced while
// the link is idle.
const recvPoll = core.IdlePollMs * time.Millisecond

// UARTTransport implements core.Transport on a uartx port.
type UARTTransport struct {
	u    *uartx.UART
	idle core.Watchdog
	buf  [1]byte
}

// NewUARTTransport configures UART0 for 8N1 at baud. idle is petted while
// RecvByte waits.
func NewUARTTransport(baud uint32, idle core.Watchdog) (*UARTTransport, error) {
	hw := uartx.UART0
	err := hw.Configure(uartx.UARTConfig{
		BaudRate: baud,
		TX:       uartTX,
		RX:       uartRX,
	})
	if err != nil {
		return nil, err
	}
	if err := hw.SetFormat(8, 1, uartx.ParityNone); err != nil {
		return nil, err
	}
	return &UARTTransport{u: hw, idle: idle}, nil
}

func (t *UARTTransport) RecvByte() (byte, error) {
	for {
		ctx, cancel := context.WithTimeout(context.Background(), recvPoll)
		n, err := t.u.RecvSomeContext(ctx, t.buf[:])
		cancel()
		if n > 0 {
			return t.buf[0], nil
		}
		if err != nil && !errors.Is(err, context.DeadlineExceeded) {
			return 0, err
		}
		t.idle.Pet()
	}
}

func (t *UARTTransport) Send(p []byte) error {
	for len(p) > 0 {
		n, err := t.u.Write(p)
		if err != nil {
			return err
		}
		p = p[n:]
	}
	return nil
}

// hwWatchdog services the RP2040 watchdog.
type hwWatchdog struct{}

func startWatchdog() (hwWatchdog, error) {
	err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: core.WatchdogTimeoutMs})
	if err != nil {
		return hwWatchdog{}, err
	}
	return hwWatchdog{}, machine.Watchdog.Start()
}

func (hwWatchdog) Pet() {
	machine.Watchdog.Update()
}

// watchdogReset resets through a 1ms watchdog expiry. Watchdog scratch
// registers survive this, unlike a power cycle.
type watchdogReset struct{}

func (watchdogReset) Reset() {
	err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 1})
	if err != nil {
		return
	}
	if err := machine.Watchdog.Start(); err != nil {
		return
	}
	for {
		time.Sleep(time.Millisecond)
	}
}
