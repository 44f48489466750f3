package core

import (
	"io"
)

// MockBridge is a test implementation of Bridge
type MockBridge struct {
	duty      [NumChannels]uint16
	dir       [NumChannels]Direction
	lines     [NumChannels]bool
	feedbackA [NumChannels]bool
	feedbackB [NumChannels]bool
	calls     []string
}

func NewMockBridge() *MockBridge {
	m := &MockBridge{}
	for i := range m.feedbackA {
		m.feedbackA[i] = true
		m.feedbackB[i] = true
	}
	return m
}

func (m *MockBridge) SetDuty(ch int, duty uint16) {
	m.duty[ch] = duty
	m.calls = append(m.calls, "duty")
}

func (m *MockBridge) SetDirection(ch int, dir Direction) {
	m.dir[ch] = dir
	m.calls = append(m.calls, "dir:"+dir.String())
}

func (m *MockBridge) EnableLines(ch int) {
	m.lines[ch] = true
	m.calls = append(m.calls, "enable")
}

func (m *MockBridge) DisableLines(ch int) {
	m.lines[ch] = false
	m.calls = append(m.calls, "disable")
}

func (m *MockBridge) EnableFeedback(ch int) (bool, bool) {
	return m.feedbackA[ch] && m.lines[ch], m.feedbackB[ch] && m.lines[ch]
}

func (m *MockBridge) resetCalls() {
	m.calls = nil
}

// MockFrontEnd is a test implementation of AnalogFrontEnd
type MockFrontEnd struct {
	voltage, currentA, currentB uint16
}

func (m *MockFrontEnd) ReadInjected() (uint16, uint16, uint16) {
	return m.voltage, m.currentA, m.currentB
}

// MockLEDs is a test implementation of Indicators
type MockLEDs struct {
	on [numLEDs]bool
}

func (m *MockLEDs) SetLED(led LED, on bool) {
	m.on[led] = on
}

// MockTransport feeds bytes from rx and collects everything sent
type MockTransport struct {
	rx   []byte
	sent []string
}

func (m *MockTransport) RecvByte() (byte, error) {
	if len(m.rx) == 0 {
		return 0, io.EOF
	}
	c := m.rx[0]
	m.rx = m.rx[1:]
	return c, nil
}

func (m *MockTransport) Send(p []byte) error {
	m.sent = append(m.sent, string(p))
	return nil
}

type MockWatchdog struct{ pets int }

func (m *MockWatchdog) Pet() { m.pets++ }

type MockReset struct{ resets int }

func (m *MockReset) Reset() { m.resets++ }

func newTestBoard() (*Board, *MockBridge, *MockLEDs) {
	bridge := NewMockBridge()
	leds := &MockLEDs{}
	return NewBoard(bridge, leds), bridge, leds
}
