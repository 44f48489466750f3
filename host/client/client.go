// Package client talks the line protocol to a motor board from the host.
package client

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang/glog"

	"mcv4/protocol"
)

// DefaultTimeout bounds the wait for a response line.
const DefaultTimeout = 2 * time.Second

// responseMax leaves room for responses from firmware with a larger buffer.
const responseMax = 256

var (
	// ErrTimeout is returned when no response arrives in time.
	ErrTimeout = errors.New("client: response timeout")
	// ErrClosed is returned once the client is closed.
	ErrClosed = errors.New("client: closed")
)

// NackError is a NACK response from the board.
type NackError struct {
	Reason string
}

func (e *NackError) Error() string {
	return "board refused command: " + e.Reason
}

// Client issues one command at a time and waits for its response line.
type Client struct {
	port    io.ReadWriteCloser
	timeout time.Duration

	// EOF from a serial port with a read timeout only means no data
	retryEOF bool

	// bufMutex guards inputBuffer and framer between readLoop and drain
	bufMutex    sync.Mutex
	inputBuffer *protocol.FifoBuffer
	framer      *protocol.Framer
	lines       chan string

	reqMutex   sync.Mutex
	writeMutex sync.Mutex

	stopChan chan struct{}
	doneChan chan struct{}
	stopOnce sync.Once
}

// New creates a client on port and starts its reader.
func New(port io.ReadWriteCloser) *Client {
	c := &Client{
		port:        port,
		timeout:     DefaultTimeout,
		inputBuffer: protocol.NewFifoBuffer(512),
		framer:      protocol.NewFramer(responseMax),
		lines:       make(chan string, 16),
		stopChan:    make(chan struct{}),
		doneChan:    make(chan struct{}),
	}
	_, c.retryEOF = port.(interface{ Flush() error })

	go c.readLoop()
	return c
}

// SetTimeout changes the response timeout.
func (c *Client) SetTimeout(d time.Duration) {
	c.timeout = d
}

// Command sends one line and returns the response body.
func (c *Client) Command(line string) (string, error) {
	return c.CommandWithTimeout(line, c.timeout)
}

// CommandWithTimeout sends one line and waits up to timeout for the response.
func (c *Client) CommandWithTimeout(line string, timeout time.Duration) (string, error) {
	c.reqMutex.Lock()
	defer c.reqMutex.Unlock()

	c.drain()
	if err := c.writeLine(line); err != nil {
		return "", err
	}
	glog.V(2).Infof("TX %q", line)

	select {
	case resp := <-c.lines:
		glog.V(2).Infof("RX %q", resp)
		return resp, nil
	case <-time.After(timeout):
		return "", fmt.Errorf("%q: %w", line, ErrTimeout)
	case <-c.stopChan:
		return "", ErrClosed
	}
}

func (c *Client) writeLine(line string) error {
	c.writeMutex.Lock()
	defer c.writeMutex.Unlock()

	msg := make([]byte, 0, len(line)+1)
	msg = append(msg, line...)
	msg = append(msg, protocol.Terminator)

	n, err := c.port.Write(msg)
	if err != nil {
		return fmt.Errorf("write %q: %w", line, err)
	}
	if n != len(msg) {
		return fmt.Errorf("incomplete write: %d/%d bytes", n, len(msg))
	}
	return nil
}

// drain drops responses nobody waited for, and any partial line left
// over from them.
func (c *Client) drain() {
	c.bufMutex.Lock()
	if n := c.inputBuffer.Available() + c.framer.Len(); n > 0 {
		glog.Warningf("dropping %d bytes of partial input", n)
	}
	c.inputBuffer.Reset()
	c.framer.Reset()
	c.bufMutex.Unlock()

	for {
		select {
		case stale := <-c.lines:
			glog.Warningf("dropping unsolicited line %q", stale)
		default:
			return
		}
	}
}

func (c *Client) readLoop() {
	defer close(c.doneChan)

	buffer := make([]byte, 256)
	for {
		select {
		case <-c.stopChan:
			return
		default:
		}

		n, err := c.port.Read(buffer)
		if n > 0 {
			c.bufMutex.Lock()
			c.inputBuffer.Write(buffer[:n])
			c.framer.Receive(c.inputBuffer, c.deliver)
			c.bufMutex.Unlock()
		}
		if err != nil {
			if errors.Is(err, io.EOF) && c.retryEOF {
				continue
			}
			select {
			case <-c.stopChan:
			default:
				glog.Warningf("serial read: %v", err)
			}
			c.stop()
			return
		}
	}
}

func (c *Client) deliver(line []byte) {
	select {
	case c.lines <- string(line):
	default:
		glog.Warningf("response queue full, dropping %q", line)
	}
}

func (c *Client) stop() {
	c.stopOnce.Do(func() { close(c.stopChan) })
}

// Close stops the reader and closes the port.
func (c *Client) Close() error {
	c.stop()
	err := c.port.Close()
	<-c.doneChan
	return err
}

// asNack returns a NackError if resp is a NACK.
func asNack(resp string) error {
	if reason, ok := strings.CutPrefix(resp, protocol.NackText+string(protocol.Separator)); ok {
		return &NackError{Reason: reason}
	}
	return nil
}

func expectAck(resp string) error {
	if resp == protocol.AckText {
		return nil
	}
	if err := asNack(resp); err != nil {
		return err
	}
	return fmt.Errorf("unexpected response %q", resp)
}

func (c *Client) ack(line string) error {
	resp, err := c.Command(line)
	if err != nil {
		return err
	}
	return expectAck(resp)
}

func motorCmd(channel int, cmd string) string {
	return "MOT:" + strconv.Itoa(channel) + ":" + cmd
}

// SetPower drives a channel with a value in [-1000, 1000].
func (c *Client) SetPower(channel, value int) error {
	return c.ack(motorCmd(channel, "SET:"+strconv.Itoa(value)))
}

// Disable disables a channel.
func (c *Client) Disable(channel int) error {
	return c.ack(motorCmd(channel, "DISABLE"))
}

// Get returns whether a channel is enabled and its commanded value.
func (c *Client) Get(channel int) (enabled bool, value int, err error) {
	resp, err := c.Command(motorCmd(channel, "GET?"))
	if err != nil {
		return false, 0, err
	}
	if err := asNack(resp); err != nil {
		return false, 0, err
	}
	state, v, ok := strings.Cut(resp, string(protocol.Separator))
	if !ok || (state != "0" && state != "1") {
		return false, 0, fmt.Errorf("malformed GET? response %q", resp)
	}
	value, err = strconv.Atoi(v)
	if err != nil {
		return false, 0, fmt.Errorf("malformed GET? response %q: %w", resp, err)
	}
	return state == "1", value, nil
}

// Current returns the filtered current of a channel in mA.
func (c *Client) Current(channel int) (uint16, error) {
	resp, err := c.Command(motorCmd(channel, "I?"))
	if err != nil {
		return 0, err
	}
	if err := asNack(resp); err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(resp, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("malformed I? response %q: %w", resp, err)
	}
	return uint16(v), nil
}

// Status returns the fault flags and supply voltage.
func (c *Client) Status() (protocol.StatusReport, error) {
	var report protocol.StatusReport
	resp, err := c.Command("*STATUS?")
	if err != nil {
		return report, err
	}
	if err := asNack(resp); err != nil {
		return report, err
	}
	return ParseStatus(resp)
}

// ParseStatus parses a *STATUS? response body.
func ParseStatus(resp string) (protocol.StatusReport, error) {
	var report protocol.StatusReport
	faults, mv, ok := strings.Cut(resp, string(protocol.Separator))
	if !ok {
		return report, fmt.Errorf("malformed status %q", resp)
	}
	flags := strings.Split(faults, ",")
	if len(flags) != protocol.NumChannels {
		return report, fmt.Errorf("malformed status %q", resp)
	}
	for i, f := range flags {
		switch f {
		case "0":
		case "1":
			report.Faults[i] = true
		default:
			return report, fmt.Errorf("malformed status %q", resp)
		}
	}
	v, err := strconv.ParseUint(mv, 10, 16)
	if err != nil {
		return report, fmt.Errorf("malformed status %q: %w", resp, err)
	}
	report.InputVoltageMV = uint16(v)
	return report, nil
}

// Identify returns the board identity.
func (c *Client) Identify() (protocol.Identity, error) {
	resp, err := c.Command("*IDN?")
	if err != nil {
		return protocol.Identity{}, err
	}
	parts := strings.SplitN(resp, string(protocol.Separator), 4)
	if len(parts) != 4 {
		return protocol.Identity{}, fmt.Errorf("malformed identity %q", resp)
	}
	return protocol.Identity{
		Manufacturer: parts[0],
		Board:        parts[1],
		Serial:       parts[2],
		Version:      parts[3],
	}, nil
}

// Reset disables both channels and clears faults.
func (c *Client) Reset() error {
	return c.ack("*RESET")
}

// EnterBootloader asks the board to reboot into its bootloader.
func (c *Client) EnterBootloader() error {
	return c.ack("*SYS:BOOTLOADER")
}

// Echo round-trips text through the board.
func (c *Client) Echo(text string) (string, error) {
	return c.Command("ECHO:" + text)
}
