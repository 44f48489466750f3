package protocol

import (
	"strings"
)

// Reason is a NACK reason. It is sent to the host as NACK:<reason>.
type Reason string

func (r Reason) Error() string { return string(r) }

// NACK reasons
const (
	ReasonMissingMotorNumber   Reason = "Missing motor number"
	ReasonInvalidMotorNumber   Reason = "Invalid motor number"
	ReasonMissingMotorCommand  Reason = "Missing motor command"
	ReasonUnknownMotorCommand  Reason = "Unknown motor command"
	ReasonMissingMotorPower    Reason = "Missing motor power"
	ReasonInvalidMotorPower    Reason = "Invalid motor power"
	ReasonMissingSystemCommand Reason = "Missing system command"
	ReasonInvalidSystemCommand Reason = "Invalid system command"
)

// UnknownCommand is the reason reported for an unrecognised first token.
func UnknownCommand(token string) Reason {
	return Reason("Unknown command: '" + token + "'")
}

// Channel and power limits accepted by the parser
const (
	NumChannels = 2
	MinPower    = -1000
	MaxPower    = 1000
)

// Command is a parsed request line. The concrete types below are the only
// implementations.
type Command interface {
	command()
}

type (
	// MotorSet is MOT:<n>:SET:<v>
	MotorSet struct {
		Channel int
		Value   int
	}
	// MotorGet is MOT:<n>:GET?
	MotorGet struct{ Channel int }
	// MotorDisable is MOT:<n>:DISABLE
	MotorDisable struct{ Channel int }
	// MotorCurrent is MOT:<n>:I?
	MotorCurrent struct{ Channel int }
	// Identify is *IDN?
	Identify struct{}
	// Status is *STATUS?
	Status struct{}
	// Reset is *RESET
	Reset struct{}
	// EnterBootloader is *SYS:BOOTLOADER
	EnterBootloader struct{}
	// Echo is ECHO:<rest>
	Echo struct{ Text string }
)

func (MotorSet) command()        {}
func (MotorGet) command()        {}
func (MotorDisable) command()    {}
func (MotorCurrent) command()    {}
func (Identify) command()        {}
func (Status) command()          {}
func (Reset) command()           {}
func (EnterBootloader) command() {}
func (Echo) command()            {}

// Command family tokens
const (
	tokMotor      = "MOT"
	tokIdentify   = "*IDN?"
	tokStatus     = "*STATUS?"
	tokReset      = "*RESET"
	tokSystem     = "*SYS"
	tokEcho       = "ECHO"
	tokSet        = "SET"
	tokGet        = "GET?"
	tokDisable    = "DISABLE"
	tokCurrent    = "I?"
	tokBootloader = "BOOTLOADER"
)

// Tokenize splits a line on ':' without modifying it. Empty fields are
// skipped, so "MOT::0" and "MOT:0" tokenize alike.
func Tokenize(line string) []string {
	return strings.FieldsFunc(line, func(r rune) bool { return r == Separator })
}

// Parse turns a line (without its terminator) into a Command. The error is
// always a Reason.
func Parse(line string) (Command, error) {
	tokens := Tokenize(line)
	if len(tokens) == 0 {
		return nil, UnknownCommand("")
	}

	switch tokens[0] {
	case tokMotor:
		return parseMotor(tokens[1:])
	case tokIdentify:
		return Identify{}, nil
	case tokStatus:
		return Status{}, nil
	case tokReset:
		return Reset{}, nil
	case tokSystem:
		if len(tokens) < 2 {
			return nil, ReasonMissingSystemCommand
		}
		if tokens[1] == tokBootloader {
			return EnterBootloader{}, nil
		}
		return nil, ReasonInvalidSystemCommand
	case tokEcho:
		return Echo{Text: echoText(line)}, nil
	default:
		return nil, UnknownCommand(tokens[0])
	}
}

func parseMotor(args []string) (Command, error) {
	if len(args) == 0 || !isDigit(args[0][0]) {
		return nil, ReasonMissingMotorNumber
	}
	channel, _ := parseLeading(args[0])
	if channel < 0 || channel >= NumChannels {
		return nil, ReasonInvalidMotorNumber
	}

	if len(args) < 2 {
		return nil, ReasonMissingMotorCommand
	}
	switch args[1] {
	case tokSet:
		if len(args) < 3 {
			return nil, ReasonMissingMotorPower
		}
		value, ok := parseLeading(args[2])
		if !ok || value < MinPower || value > MaxPower {
			return nil, ReasonInvalidMotorPower
		}
		return MotorSet{Channel: channel, Value: value}, nil
	case tokGet:
		return MotorGet{Channel: channel}, nil
	case tokDisable:
		return MotorDisable{Channel: channel}, nil
	case tokCurrent:
		return MotorCurrent{Channel: channel}, nil
	default:
		return nil, ReasonUnknownMotorCommand
	}
}

// echoText returns everything after the ECHO token's separator, verbatim.
func echoText(line string) string {
	line = strings.TrimLeft(line, string(Separator))
	_, rest, _ := strings.Cut(line, tokEcho+string(Separator))
	return rest
}

// parseLeading converts an optional '-' followed by the leading run of
// decimal digits. Trailing characters are ignored. Magnitudes saturate well
// outside any accepted range. ok is false when no digit follows the sign.
func parseLeading(s string) (n int, ok bool) {
	const limit = 100000000

	neg := false
	if s != "" && s[0] == '-' {
		neg = true
		s = s[1:]
	}
	for i := 0; i < len(s) && isDigit(s[i]); i++ {
		ok = true
		if n < limit {
			n = n*10 + int(s[i]-'0')
		}
	}
	if neg {
		n = -n
	}
	return n, ok
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
