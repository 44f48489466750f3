package core

import (
	"bufio"
	"io"
)

// StreamTransport adapts a byte stream (pipe, pty, host serial port) to
// Transport for hosted builds.
type StreamTransport struct {
	r *bufio.Reader
	w io.Writer
}

// NewStreamTransport reads from r and writes responses to w.
func NewStreamTransport(r io.Reader, w io.Writer) *StreamTransport {
	return &StreamTransport{r: bufio.NewReader(r), w: w}
}

// RecvByte blocks for the next byte. Errors from the stream end the loop.
func (t *StreamTransport) RecvByte() (byte, error) {
	return t.r.ReadByte()
}

// Send writes one response line.
func (t *StreamTransport) Send(p []byte) error {
	_, err := t.w.Write(p)
	return err
}
