package protocol

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// fakeMotors records calls the way the output stage would react to them.
type fakeMotors struct {
	enabled [NumChannels]bool
	value   [NumChannels]int
	current [NumChannels]uint16
	status  StatusReport
	resets  int
	setErr  error
}

func (m *fakeMotors) SetPower(channel, value int) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.enabled[channel] = true
	m.value[channel] = value
	return nil
}

func (m *fakeMotors) Disable(channel int) error {
	m.enabled[channel] = false
	return nil
}

func (m *fakeMotors) Enabled(channel int) bool { return m.enabled[channel] }

func (m *fakeMotors) CommandedValue(channel int) int {
	if !m.enabled[channel] {
		return 0
	}
	return m.value[channel]
}

func (m *fakeMotors) Current(channel int) uint16 { return m.current[channel] }
func (m *fakeMotors) Status() StatusReport       { return m.status }

func (m *fakeMotors) ResetAll() {
	m.resets++
	m.enabled = [NumChannels]bool{}
}

type fakeBoot struct {
	requests int
	err      error
}

func (b *fakeBoot) Request() error {
	if b.err != nil {
		return b.err
	}
	b.requests++
	return nil
}

var testIdentity = Identity{
	Manufacturer: "Student Robotics",
	Board:        "MCv4B",
	Serial:       "XXXXXXXXXXXXXXX",
	Version:      Version,
}

func handle(d *Dispatcher, line string) string {
	resp := NewResponse(MaxResponse)
	d.Handle([]byte(line), resp)
	return string(resp.Line())
}

func TestDispatchSetGetDisable(t *testing.T) {
	motors := &fakeMotors{}
	d := NewDispatcher(motors, &fakeBoot{}, testIdentity)

	assert.Equal(t, "0:0\n", handle(d, "MOT:0:GET?"))
	assert.Equal(t, "ACK\n", handle(d, "MOT:0:SET:500"))
	assert.Equal(t, "1:500\n", handle(d, "MOT:0:GET?"))
	assert.Equal(t, "ACK\n", handle(d, "MOT:1:SET:-250"))
	assert.Equal(t, "1:-250\n", handle(d, "MOT:1:GET?"))
	assert.Equal(t, "ACK\n", handle(d, "MOT:0:DISABLE"))
	assert.Equal(t, "0:0\n", handle(d, "MOT:0:GET?"))
}

func TestDispatchInvalidLeavesStateAlone(t *testing.T) {
	motors := &fakeMotors{}
	d := NewDispatcher(motors, &fakeBoot{}, testIdentity)

	assert.Equal(t, "NACK:Invalid motor power\n", handle(d, "MOT:0:SET:1001"))
	assert.Equal(t, "NACK:Invalid motor number\n", handle(d, "MOT:2:SET:10"))
	assert.False(t, motors.enabled[0])
	assert.False(t, motors.enabled[1])

	motors.setErr = errors.New("rejected")
	assert.Equal(t, "NACK:Invalid motor power\n", handle(d, "MOT:0:SET:10"))
}

func TestDispatchCurrentAndStatus(t *testing.T) {
	motors := &fakeMotors{
		current: [NumChannels]uint16{1234, 0},
		status:  StatusReport{InputVoltageMV: 12000},
	}
	d := NewDispatcher(motors, &fakeBoot{}, testIdentity)

	assert.Equal(t, "1234\n", handle(d, "MOT:0:I?"))
	assert.Equal(t, "0\n", handle(d, "MOT:1:I?"))
	assert.Equal(t, "0,0:12000\n", handle(d, "*STATUS?"))

	motors.status.Faults[1] = true
	assert.Equal(t, "0,1:12000\n", handle(d, "*STATUS?"))
}

func TestDispatchIdentify(t *testing.T) {
	d := NewDispatcher(&fakeMotors{}, nil, testIdentity)
	assert.Equal(t, "Student Robotics:MCv4B:XXXXXXXXXXXXXXX:"+Version+"\n", handle(d, "*IDN?"))
}

func TestDispatchReset(t *testing.T) {
	motors := &fakeMotors{}
	d := NewDispatcher(motors, nil, testIdentity)

	handle(d, "MOT:1:SET:10")
	assert.Equal(t, "ACK\n", handle(d, "*RESET"))
	assert.Equal(t, 1, motors.resets)
	assert.Equal(t, "0:0\n", handle(d, "MOT:1:GET?"))
}

func TestDispatchBootloader(t *testing.T) {
	boot := &fakeBoot{}
	d := NewDispatcher(&fakeMotors{}, boot, testIdentity)

	assert.Equal(t, "ACK\n", handle(d, "*SYS:BOOTLOADER"))
	assert.Equal(t, 1, boot.requests)

	boot.err = errors.New("flag store unavailable")
	assert.Equal(t, "NACK:Invalid system command\n", handle(d, "*SYS:BOOTLOADER"))

	d = NewDispatcher(&fakeMotors{}, nil, testIdentity)
	assert.Equal(t, "NACK:Invalid system command\n", handle(d, "*SYS:BOOTLOADER"))
}

func TestDispatchEcho(t *testing.T) {
	d := NewDispatcher(&fakeMotors{}, nil, testIdentity)

	assert.Equal(t, "hello:world\n", handle(d, "ECHO:hello:world"))
	assert.Equal(t, "\n", handle(d, "ECHO"))
}

func TestDispatchUnknown(t *testing.T) {
	d := NewDispatcher(&fakeMotors{}, nil, testIdentity)

	assert.Equal(t, "NACK:Unknown command: 'HELLO'\n", handle(d, "HELLO"))
	assert.Equal(t, "NACK:Unknown command: ''\n", handle(d, ""))
}

func TestDispatchResponseTruncated(t *testing.T) {
	d := NewDispatcher(&fakeMotors{}, nil, testIdentity)

	long := strings.Repeat("z", 58)
	out := handle(d, "ECHO:"+long)
	assert.Equal(t, long+"\n", out)

	// NACK prefix pushes the unknown token past the bound
	out = handle(d, strings.Repeat("Q", 60))
	assert.Len(t, out, MaxResponse+1)
	assert.True(t, strings.HasPrefix(out, "NACK:Unknown command: 'QQQ"))
	assert.True(t, strings.HasSuffix(out, "Q\n"))
}
