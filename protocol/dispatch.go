package protocol

// StatusReport is a consistent snapshot of the board fault flags and
// supply voltage.
type StatusReport struct {
	Faults         [NumChannels]bool
	InputVoltageMV uint16
}

// Motors is the output stage as seen by the dispatcher.
type Motors interface {
	SetPower(channel, value int) error
	Disable(channel int) error
	Enabled(channel int) bool
	CommandedValue(channel int) int
	Current(channel int) uint16
	Status() StatusReport
	ResetAll()
}

// Bootloader arms the reboot-to-update handoff.
type Bootloader interface {
	Request() error
}

// Identity is reported by *IDN? as Manufacturer:Board:Serial:Version.
type Identity struct {
	Manufacturer string
	Board        string
	Serial       string
	Version      string
}

func (id Identity) String() string {
	return id.Manufacturer + ":" + id.Board + ":" + id.Serial + ":" + id.Version
}

// Dispatcher executes parsed commands against the board.
type Dispatcher struct {
	motors   Motors
	boot     Bootloader
	identity Identity
}

// NewDispatcher creates a Dispatcher. boot may be nil, in which case
// *SYS:BOOTLOADER is rejected as an invalid system command.
func NewDispatcher(motors Motors, boot Bootloader, identity Identity) *Dispatcher {
	return &Dispatcher{
		motors:   motors,
		boot:     boot,
		identity: identity,
	}
}

// Handle parses line and writes the response body into resp. Nothing is
// mutated when parsing fails.
func (d *Dispatcher) Handle(line []byte, resp *Response) {
	cmd, err := Parse(string(line))
	if err != nil {
		resp.Nack(err)
		return
	}
	d.Execute(cmd, resp)
}

// Execute runs a parsed command and writes the response body into resp.
func (d *Dispatcher) Execute(cmd Command, resp *Response) {
	switch c := cmd.(type) {
	case MotorSet:
		if err := d.motors.SetPower(c.Channel, c.Value); err != nil {
			resp.Nack(ReasonInvalidMotorPower)
			return
		}
		resp.Ack()

	case MotorGet:
		resp.AppendBool(d.motors.Enabled(c.Channel))
		resp.WriteByte(Separator)
		resp.AppendInt(d.motors.CommandedValue(c.Channel))

	case MotorDisable:
		if err := d.motors.Disable(c.Channel); err != nil {
			resp.Nack(ReasonInvalidMotorNumber)
			return
		}
		resp.Ack()

	case MotorCurrent:
		resp.AppendUint(uint32(d.motors.Current(c.Channel)))

	case Identify:
		resp.WriteString(d.identity.String())

	case Status:
		resp.AppendStatus(d.motors.Status())

	case Reset:
		d.motors.ResetAll()
		resp.Ack()

	case EnterBootloader:
		if d.boot == nil || d.boot.Request() != nil {
			resp.Nack(ReasonInvalidSystemCommand)
			return
		}
		resp.Ack()

	case Echo:
		resp.WriteString(c.Text)
	}
}
