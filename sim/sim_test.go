package sim

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcv4/core"
)

func newMachine(t *testing.T) *Machine {
	t.Helper()
	return New(Config{Plant: DefaultPlant()}, bytes.NewReader(nil), &bytes.Buffer{})
}

func TestCodesInvertConversions(t *testing.T) {
	for _, mv := range []uint16{0, 5000, 12000, 16000} {
		got := core.ConvertVoltage(VoltageCode(mv))
		assert.True(t, got <= mv && mv-got < 5, "%d mV read back as %d", mv, got)
	}
	for _, ma := range []uint32{0, 1000, 6000, 20000} {
		got := uint32(core.ConvertCurrent(CurrentCode(ma)))
		assert.True(t, got <= ma && ma-got < 6, "%d mA read back as %d", ma, got)
	}

	assert.Equal(t, uint16(core.ADCMax), VoltageCode(30000))
	assert.Equal(t, uint16(core.ADCMax), CurrentCode(100000))
}

func TestSupplyVoltage(t *testing.T) {
	m := newMachine(t)
	m.Settle(1)
	assert.Equal(t, uint16(11999), m.Board.InputVoltage())

	m.FrontEnd.SetPlant(Plant{SupplyMV: 0})
	m.Settle(1)
	assert.Equal(t, uint16(0), m.Board.InputVoltage())
}

func TestFullPowerCurrent(t *testing.T) {
	m := newMachine(t)
	require.NoError(t, m.Board.SetPower(0, 1000))

	duty, dir := m.Bridge.Drive(0)
	assert.Equal(t, uint16(core.PWMPeriod), duty)
	assert.Equal(t, core.DirectionForward, dir)

	m.Settle(1000)
	current := m.Board.Current(0)
	assert.True(t, current > 5900 && current <= 6000, "current %d", current)
	assert.Equal(t, uint16(0), m.Board.Current(1))

	assert.True(t, m.LEDs.On(core.LEDLoad0))
	assert.False(t, m.LEDs.On(core.LEDLoad1))
}

func TestHalfPowerReverse(t *testing.T) {
	m := newMachine(t)
	require.NoError(t, m.Board.SetPower(1, -500))

	duty, dir := m.Bridge.Drive(1)
	assert.Equal(t, uint16(1000), duty)
	assert.Equal(t, core.DirectionReverse, dir)

	m.Settle(1000)
	current := m.Board.Current(1)
	assert.True(t, current > 2900 && current <= 3000, "current %d", current)
	assert.False(t, m.LEDs.On(core.LEDLoad1))
}

func TestBrakeAndDisableDrawNothing(t *testing.T) {
	m := newMachine(t)
	require.NoError(t, m.Board.SetPower(0, 0))
	duty, dir := m.Bridge.Drive(0)
	assert.Equal(t, uint16(0), duty)
	assert.Equal(t, core.DirectionBrake, dir)

	require.NoError(t, m.Board.SetPower(0, 800))
	require.NoError(t, m.Board.Disable(0))
	duty, _ = m.Bridge.Drive(0)
	assert.Equal(t, uint16(0), duty)
}

func TestOpenCircuitLoad(t *testing.T) {
	m := newMachine(t)
	m.FrontEnd.SetPlant(Plant{SupplyMV: 12000})
	require.NoError(t, m.Board.SetPower(0, 1000))
	m.Settle(100)
	assert.Equal(t, uint16(0), m.Board.Current(0))
}

func TestInjectedFaultLatches(t *testing.T) {
	m := newMachine(t)
	require.NoError(t, m.Board.SetPower(0, 300))

	m.Settle(1)
	assert.False(t, m.Board.InFault(0))

	m.Bridge.InjectFault(0, false, true)
	m.Settle(1)
	assert.True(t, m.Board.InFault(0))
	assert.True(t, m.LEDs.On(core.LEDFault0))
	assert.False(t, m.Board.InFault(1))

	m.Bridge.InjectFault(0, false, false)
	m.Settle(1)
	assert.False(t, m.Board.InFault(0))
	assert.False(t, m.LEDs.On(core.LEDFault0))
}

func TestFaultIgnoredWhileDisabled(t *testing.T) {
	m := newMachine(t)
	m.Bridge.InjectFault(1, true, true)
	m.Settle(1)
	assert.False(t, m.Board.InFault(1))
}

func TestSamplesCount(t *testing.T) {
	m := newMachine(t)
	m.Settle(5)
	assert.Equal(t, uint32(5), m.Acquisition.Samples())
}
