package core

import (
	"errors"
	"io"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcv4/boot"
)

type testRig struct {
	board     *Board
	bridge    *MockBridge
	transport *MockTransport
	watchdog  *MockWatchdog
	reset     *MockReset
	handoff   *boot.Handoff
	store     *boot.MemoryStore
	fw        *Firmware
}

func newRig(t *testing.T) *testRig {
	t.Helper()
	b, bridge, _ := newTestBoard()
	r := &testRig{
		board:     b,
		bridge:    bridge,
		transport: &MockTransport{},
		watchdog:  &MockWatchdog{},
		reset:     &MockReset{},
		store:     &boot.MemoryStore{},
	}
	r.handoff = boot.NewHandoff(r.store, boot.JumperFunc(func() {}))
	require.NoError(t, r.handoff.Startup())
	r.fw = NewFirmware(b, r.transport, r.watchdog, r.reset, r.handoff, DefaultIdentity(""))
	return r
}

// run feeds input through the main loop until the transport runs dry.
func (r *testRig) run(t *testing.T, input string) []string {
	t.Helper()
	r.transport.rx = []byte(input)
	r.transport.sent = nil
	err := r.fw.Run()
	if err != nil {
		require.True(t, errors.Is(err, io.EOF), "unexpected error: %v", err)
	}
	return r.transport.sent
}

func TestFirmwareSetGetDisable(t *testing.T) {
	r := newRig(t)

	out := r.run(t, "MOT:0:SET:500\nMOT:0:GET?\n")
	assert.Equal(t, []string{"ACK\n", "1:500\n"}, out)
	assert.Equal(t, uint16(1000), r.bridge.duty[0])

	out = r.run(t, "MOT:0:DISABLE\nMOT:0:GET?\n")
	assert.Equal(t, []string{"ACK\n", "0:0\n"}, out)
	assert.False(t, r.bridge.lines[0])
}

func TestFirmwareRejectsWithoutMutation(t *testing.T) {
	r := newRig(t)

	out := r.run(t, "MOT:1:SET:-1001\nMOT:2:SET:5\nMOT:1:GET?\n")
	assert.Equal(t, []string{
		"NACK:Invalid motor power\n",
		"NACK:Invalid motor number\n",
		"0:0\n",
	}, out)
	assert.False(t, r.bridge.lines[1])
}

func TestFirmwareStatus(t *testing.T) {
	r := newRig(t)
	atomic.StoreUint32(&r.board.telemetry.inputVoltageMV, 12000)

	out := r.run(t, "*STATUS?\r\n")
	assert.Equal(t, []string{"0,0:12000\n"}, out)
}

func TestFirmwareIdentify(t *testing.T) {
	r := newRig(t)

	out := r.run(t, "*IDN?\n")
	assert.Equal(t, []string{"Student Robotics:MCv4B:XXXXXXXXXXXXXXX:" + DefaultIdentity("").Version + "\n"}, out)
}

func TestFirmwareEcho(t *testing.T) {
	r := newRig(t)

	out := r.run(t, "ECHO:hello:world\n")
	assert.Equal(t, []string{"hello:world\n"}, out)
}

func TestFirmwareCurrent(t *testing.T) {
	r := newRig(t)
	acq := NewAcquisition(r.board, &MockFrontEnd{currentA: 2048})
	acq.Sample()

	out := r.run(t, "MOT:0:I?\nMOT:1:I?\n")
	assert.Equal(t, []string{"287\n", "0\n"}, out)
}

func TestFirmwareOverflowDropsSilently(t *testing.T) {
	ClearEvents()
	r := newRig(t)

	out := r.run(t, strings.Repeat("X", 70))
	assert.Empty(t, out)
	assert.True(t, r.fw.framer.Len() < 64)

	events := Events()
	require.Len(t, events, 1)
	assert.Equal(t, uint8(EvtOverflow), events[0].Type)

	// The tail after the drop ends at the next newline, then framing is clean
	out = r.run(t, "\n*RESET\n")
	require.Len(t, out, 2)
	assert.True(t, strings.HasPrefix(out[0], "NACK:Unknown command: 'XXXXXX'"))
	assert.Equal(t, "ACK\n", out[1])
}

func TestFirmwareReset(t *testing.T) {
	r := newRig(t)

	out := r.run(t, "MOT:0:SET:10\nMOT:1:SET:-10\n*RESET\nMOT:0:GET?\nMOT:1:GET?\n")
	assert.Equal(t, []string{"ACK\n", "ACK\n", "ACK\n", "0:0\n", "0:0\n"}, out)
	assert.False(t, r.bridge.lines[0])
	assert.False(t, r.bridge.lines[1])
}

func TestFirmwareBootloaderHandoff(t *testing.T) {
	r := newRig(t)

	// The ACK goes out, then the next iteration resets before reading more
	out := r.run(t, "*SYS:BOOTLOADER\nMOT:0:SET:100\n")
	assert.Equal(t, []string{"ACK\n"}, out)
	assert.Equal(t, 1, r.reset.resets)
	assert.False(t, r.board.Enabled(0))

	v, err := r.store.Read()
	require.NoError(t, err)
	assert.Equal(t, boot.Magic, v)

	// The restarted image jumps instead of running normal init
	jumped := false
	restarted := boot.NewHandoff(r.store, boot.JumperFunc(func() { jumped = true }))
	assert.Equal(t, boot.ErrEnteredBootloader, restarted.Startup())
	assert.True(t, jumped)

	v, _ = r.store.Read()
	assert.Equal(t, boot.Cleared, v)
}

func TestLivenessTiming(t *testing.T) {
	// Deadline in the tens of milliseconds, with room for missed idle polls
	assert.True(t, WatchdogTimeoutMs >= 10 && WatchdogTimeoutMs < 100)
	assert.True(t, IdlePollMs*3 <= WatchdogTimeoutMs)
}

func TestFirmwarePetsWatchdog(t *testing.T) {
	r := newRig(t)

	r.run(t, "*IDN?\n")
	assert.True(t, r.watchdog.pets >= len("*IDN?\n"))
}

// process runs one line through the dispatcher without the transport.
func (r *testRig) process(line string) string {
	r.fw.response.Reset()
	r.fw.dispatcher.Handle([]byte(line), r.fw.response)
	return string(r.fw.response.Body())
}

func TestFirmwareDispatchLine(t *testing.T) {
	r := newRig(t)

	assert.Equal(t, "ACK", r.process("MOT:1:SET:250"))
	assert.Equal(t, "1:250", r.process("MOT:1:GET?"))
	assert.Empty(t, r.transport.sent)
}
