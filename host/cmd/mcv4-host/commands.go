package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/abiosoft/ishell"

	"mcv4/host/client"
	"mcv4/protocol"
)

const clientKey = "$client"

// Board is the client API the console drives.
type Board interface {
	Identify() (protocol.Identity, error)
	Status() (protocol.StatusReport, error)
	SetPower(channel, value int) error
	Get(channel int) (bool, int, error)
	Current(channel int) (uint16, error)
	Disable(channel int) error
	Reset() error
	EnterBootloader() error
	Echo(text string) (string, error)
	Command(line string) (string, error)
}

var _ Board = (*client.Client)(nil)

var commands = []*ishell.Cmd{
	{
		Name:    "idn",
		Aliases: []string{"identify"},
		Help:    "print board identity",
		Func:    run(cmdIdentify),
	},
	{
		Name: "status",
		Help: "print fault flags and supply voltage",
		Func: run(cmdStatus),
	},
	{
		Name:    "set",
		Help:    "set <ch> <power>, power in [-1000, 1000]",
		Func:    run(cmdSet),
		Aliases: []string{"power"},
	},
	{
		Name: "get",
		Help: "get <ch>",
		Func: run(cmdGet),
	},
	{
		Name:    "current",
		Aliases: []string{"i"},
		Help:    "current <ch>",
		Func:    run(cmdCurrent),
	},
	{
		Name: "disable",
		Help: "disable <ch>",
		Func: run(cmdDisable),
	},
	{
		Name: "reset",
		Help: "disable both channels and clear faults",
		Func: run(cmdReset),
	},
	{
		Name: "bootloader",
		Help: "reboot the board into its bootloader",
		Func: run(cmdBootloader),
	},
	{
		Name: "echo",
		Help: "echo <text>",
		Func: run(cmdEcho),
	},
	{
		Name: "raw",
		Help: "raw <line>, send a protocol line verbatim",
		Func: run(cmdRaw),
	},
}

func boardFrom(c *ishell.Context) Board {
	return c.Get(clientKey).(Board)
}

// run adapts a command to ishell, printing its output or error.
func run(fn func(b Board, args []string) (string, error)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		out, err := fn(boardFrom(c), c.Args)
		if err != nil {
			c.Err(err)
			return
		}
		if out != "" {
			c.Println(out)
		}
	}
}

func channelArg(args []string) (int, error) {
	if len(args) < 1 {
		return 0, fmt.Errorf("channel required")
	}
	ch, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("invalid channel %q: %v", args[0], err)
	}
	return ch, nil
}

func cmdIdentify(b Board, args []string) (string, error) {
	id, err := b.Identify()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s %s serial %s firmware %s", id.Manufacturer, id.Board, id.Serial, id.Version), nil
}

func cmdStatus(b Board, args []string) (string, error) {
	st, err := b.Status()
	if err != nil {
		return "", err
	}
	var w strings.Builder
	for ch, fault := range st.Faults {
		state := "ok"
		if fault {
			state = "FAULT"
		}
		fmt.Fprintf(&w, "motor %d: %s\n", ch, state)
	}
	fmt.Fprintf(&w, "supply: %d mV", st.InputVoltageMV)
	return w.String(), nil
}

func cmdSet(b Board, args []string) (string, error) {
	ch, err := channelArg(args)
	if err != nil {
		return "", err
	}
	if len(args) < 2 {
		return "", fmt.Errorf("power required")
	}
	power, err := strconv.Atoi(args[1])
	if err != nil {
		return "", fmt.Errorf("invalid power %q: %v", args[1], err)
	}
	return "", b.SetPower(ch, power)
}

func cmdGet(b Board, args []string) (string, error) {
	ch, err := channelArg(args)
	if err != nil {
		return "", err
	}
	enabled, value, err := b.Get(ch)
	if err != nil {
		return "", err
	}
	if !enabled {
		return fmt.Sprintf("motor %d: disabled", ch), nil
	}
	return fmt.Sprintf("motor %d: %d", ch, value), nil
}

func cmdCurrent(b Board, args []string) (string, error) {
	ch, err := channelArg(args)
	if err != nil {
		return "", err
	}
	ma, err := b.Current(ch)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("motor %d: %d mA", ch, ma), nil
}

func cmdDisable(b Board, args []string) (string, error) {
	ch, err := channelArg(args)
	if err != nil {
		return "", err
	}
	return "", b.Disable(ch)
}

func cmdReset(b Board, args []string) (string, error) {
	return "", b.Reset()
}

func cmdBootloader(b Board, args []string) (string, error) {
	if err := b.EnterBootloader(); err != nil {
		return "", err
	}
	return "board is rebooting into its bootloader", nil
}

func cmdEcho(b Board, args []string) (string, error) {
	return b.Echo(strings.Join(args, " "))
}

func cmdRaw(b Board, args []string) (string, error) {
	if len(args) < 1 {
		return "", fmt.Errorf("line required")
	}
	return b.Command(strings.Join(args, " "))
}
