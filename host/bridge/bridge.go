// Package bridge polls a board and republishes its telemetry.
package bridge

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/golang/glog"

	"mcv4/protocol"
)

// DefaultInterval is the poll period.
const DefaultInterval = 500 * time.Millisecond

// Board is the part of the client the bridge polls.
type Board interface {
	Status() (protocol.StatusReport, error)
	Current(channel int) (uint16, error)
}

// Publisher delivers one message.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// Bridge mirrors board telemetry onto topics under a prefix.
type Bridge struct {
	Interval time.Duration

	board  Board
	pub    Publisher
	prefix string
}

// New creates a Bridge. prefix is prepended verbatim to every topic.
func New(board Board, pub Publisher, prefix string) *Bridge {
	return &Bridge{
		Interval: DefaultInterval,
		board:    board,
		pub:      pub,
		prefix:   prefix,
	}
}

// StatusTopic carries the *STATUS? body.
func (b *Bridge) StatusTopic() string {
	return b.prefix + "status"
}

// CurrentTopic carries the filtered current of a channel in mA.
func (b *Bridge) CurrentTopic(channel int) string {
	return b.prefix + "motor/" + strconv.Itoa(channel) + "/current"
}

// Run polls until ctx is done. Poll errors are logged and retried on the
// next tick.
func (b *Bridge) Run(ctx context.Context) error {
	interval := b.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := b.Poll(); err != nil {
			glog.Warningf("poll: %v", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Poll reads the status and both currents once and publishes them.
func (b *Bridge) Poll() error {
	st, err := b.board.Status()
	if err != nil {
		return fmt.Errorf("status: %w", err)
	}
	if err := b.pub.Publish(b.StatusTopic(), FormatStatus(st)); err != nil {
		return fmt.Errorf("publish %s: %w", b.StatusTopic(), err)
	}

	for ch := 0; ch < protocol.NumChannels; ch++ {
		current, err := b.board.Current(ch)
		if err != nil {
			return fmt.Errorf("current %d: %w", ch, err)
		}
		topic := b.CurrentTopic(ch)
		if err := b.pub.Publish(topic, strconv.AppendUint(nil, uint64(current), 10)); err != nil {
			return fmt.Errorf("publish %s: %w", topic, err)
		}
	}
	return nil
}

// FormatStatus renders a report the way the board does: "f0,f1:mV".
func FormatStatus(st protocol.StatusReport) []byte {
	resp := protocol.NewResponse(protocol.MaxResponse)
	resp.AppendStatus(st)
	return append([]byte(nil), resp.Body()...)
}
