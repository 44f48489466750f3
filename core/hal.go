package core

// Direction is the H-bridge drive direction.
type Direction uint8

const (
	// DirectionBrake clears both direction lines (low-side brake).
	DirectionBrake Direction = iota
	// DirectionForward drives INa high and INb low.
	DirectionForward
	// DirectionReverse drives INa low and INb high.
	DirectionReverse
)

func (d Direction) String() string {
	switch d {
	case DirectionForward:
		return "forward"
	case DirectionReverse:
		return "reverse"
	default:
		return "brake"
	}
}

// AnalogFrontEnd is the abstract ADC interface the acquisition uses.
// Platform code configures the injected scan and the sample trigger.
type AnalogFrontEnd interface {
	// ReadInjected returns the results of the last injected scan.
	// Each value is a 12-bit code right-aligned in 16 bits.
	ReadInjected() (voltage, currentA, currentB uint16)
}

// Bridge is the abstract H-bridge driver interface used by the output stage.
// Implementations must not block: EnableFeedback is called from the
// sample interrupt.
type Bridge interface {
	// SetDuty sets the PWM compare value for a channel (0 to 2*MaxValue).
	SetDuty(channel int, duty uint16)

	// SetDirection drives the INa/INb pair for a channel.
	SetDirection(channel int, dir Direction)

	// EnableLines releases (drives high) both ENa/ENb lines.
	EnableLines(channel int)

	// DisableLines pulls both ENa/ENb lines low.
	DisableLines(channel int)

	// EnableFeedback reads back ENa/ENb. The bridge pulls them low on
	// overcurrent, thermal shutdown or undervoltage.
	EnableFeedback(channel int) (aOK, bOK bool)
}

// LED identifies one of the board status indicators.
type LED uint8

const (
	LEDFault0 LED = iota // M0 red
	LEDLoad0             // M0 blue
	LEDFault1            // M1 red
	LEDLoad1             // M1 blue

	numLEDs
)

// Indicators drives the status LEDs.
type Indicators interface {
	SetLED(led LED, on bool)
}

// Transport is the byte-oriented serial link. RecvByte blocks until a byte
// without parity or framing errors is available.
type Transport interface {
	RecvByte() (byte, error)
	Send(p []byte) error
}

// Watchdog is the liveness signal the main loop must service.
type Watchdog interface {
	Pet()
}

// Liveness timing. A blocked receive pets the watchdog every IdlePollMs, so
// the deadline covers several missed polls plus a full response write.
const (
	WatchdogTimeoutMs = 50
	IdlePollMs        = 10
)

// ResetController performs a warm (software) system reset.
// On hardware Reset does not return.
type ResetController interface {
	Reset()
}

func faultLED(channel int) LED {
	if channel == 0 {
		return LEDFault0
	}
	return LEDFault1
}

func loadLED(channel int) LED {
	if channel == 0 {
		return LEDLoad0
	}
	return LEDLoad1
}

type noIndicators struct{}

func (noIndicators) SetLED(LED, bool) {}
