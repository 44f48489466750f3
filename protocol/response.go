package protocol

import "strconv"

// Response is a bounded, reusable response line. Writes past the bound are
// truncated; Line appends the single terminating newline.
type Response struct {
	buf [MaxResponse + 1]byte
	pos int
	max int
}

// NewResponse creates a Response holding at most max body bytes. max is
// capped at MaxResponse.
func NewResponse(max int) *Response {
	if max <= 0 || max > MaxResponse {
		max = MaxResponse
	}
	return &Response{max: max}
}

// Output appends data, truncating at the bound.
func (r *Response) Output(data []byte) {
	n := copy(r.buf[r.pos:r.max], data)
	r.pos += n
}

// WriteString appends s, truncating at the bound.
func (r *Response) WriteString(s string) {
	n := copy(r.buf[r.pos:r.max], s)
	r.pos += n
}

// WriteByte appends c unless the response is full.
func (r *Response) WriteByte(c byte) error {
	if r.pos < r.max {
		r.buf[r.pos] = c
		r.pos++
	}
	return nil
}

// AppendInt appends a signed decimal.
func (r *Response) AppendInt(v int) {
	var tmp [12]byte
	r.Output(strconv.AppendInt(tmp[:0], int64(v), 10))
}

// AppendUint appends an unsigned decimal.
func (r *Response) AppendUint(v uint32) {
	var tmp [12]byte
	r.Output(strconv.AppendUint(tmp[:0], uint64(v), 10))
}

// AppendBool appends 1 or 0.
func (r *Response) AppendBool(v bool) {
	if v {
		r.WriteByte('1')
	} else {
		r.WriteByte('0')
	}
}

// AppendStatus writes a status report as "f0,f1:mV".
func (r *Response) AppendStatus(st StatusReport) {
	for i, fault := range st.Faults {
		if i > 0 {
			r.WriteByte(',')
		}
		r.AppendBool(fault)
	}
	r.WriteByte(Separator)
	r.AppendUint(uint32(st.InputVoltageMV))
}

// Ack writes ACK.
func (r *Response) Ack() {
	r.WriteString(AckText)
}

// Nack writes NACK:<reason>.
func (r *Response) Nack(reason error) {
	r.WriteString(NackText)
	r.WriteByte(Separator)
	r.WriteString(reason.Error())
}

// Body returns the response without the terminator.
func (r *Response) Body() []byte {
	return r.buf[:r.pos]
}

// Line returns the response followed by a single newline. The slice aliases
// the response and is valid until the next Reset.
func (r *Response) Line() []byte {
	r.buf[r.pos] = Terminator
	return r.buf[:r.pos+1]
}

// Len returns the body length.
func (r *Response) Len() int {
	return r.pos
}

// Reset clears the response for reuse.
func (r *Response) Reset() {
	r.pos = 0
}
