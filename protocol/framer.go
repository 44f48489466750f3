package protocol

// Framer accumulates received bytes into newline-terminated lines.
//
// A '\n' completes a line, '\r' is discarded. Any other byte arriving while
// the buffer already holds max-1 bytes clears the buffer: the overlong
// message is dropped and nothing is reported to the sender.
type Framer struct {
	buf     []byte
	max     int
	dropped uint32
}

// NewFramer creates a Framer for messages of at most max bytes including
// the terminator slot.
func NewFramer(max int) *Framer {
	if max < 2 {
		max = 2
	}
	return &Framer{
		buf: make([]byte, 0, max),
		max: max,
	}
}

// Push feeds one byte. When it completes a line the line is returned with
// ok set. The returned slice aliases the framer buffer and is only valid
// until the next call.
func (f *Framer) Push(c byte) (line []byte, ok bool) {
	switch c {
	case Terminator:
		line = f.buf
		f.buf = f.buf[:0]
		return line, true
	case CarriageReturn:
		return nil, false
	}

	if len(f.buf) >= f.max-1 {
		f.buf = f.buf[:0]
		f.dropped++
		return nil, false
	}
	f.buf = append(f.buf, c)
	return nil, false
}

// Receive frames everything available in input, calling fn once per
// completed line, and consumes the input.
func (f *Framer) Receive(input InputBuffer, fn func(line []byte)) {
	data := input.Data()
	for _, c := range data {
		if line, ok := f.Push(c); ok {
			fn(line)
		}
	}
	input.Pop(len(data))
}

// Len returns the number of buffered bytes of the current partial line.
func (f *Framer) Len() int {
	return len(f.buf)
}

// Dropped returns the number of messages discarded for being too long.
func (f *Framer) Dropped() uint32 {
	return f.dropped
}

// Reset discards any partial line.
func (f *Framer) Reset() {
	f.buf = f.buf[:0]
}
