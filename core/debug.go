package core

import "sync/atomic"

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// Event captures a board event for post-mortem analysis
type Event struct {
	Type    uint8  // Event type code
	Channel uint8  // Motor channel, 0 for board-wide events
	Tick    uint32 // Sample counter at event
	Value   uint32 // Context-dependent value
}

// Event type codes
const (
	EvtFault            = 1 // Bridge pulled an enable line low
	EvtFaultClear       = 2 // Enable feedback recovered
	EvtOverCurrent      = 3 // Filtered current crossed OverCurrentMA
	EvtOverCurrentClear = 4 // Filtered current back under OverCurrentMA
	EvtReset            = 5 // *RESET
	EvtBootloader       = 6 // *SYS:BOOTLOADER
	EvtOverflow         = 7 // Message dropped by the framer
)

const (
	EventRingSize = 32 // Keep last 32 events for post-mortem
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether debug output is active
	debugEnabled bool = false

	// Event ring buffer. Written from both the sample interrupt and the
	// main loop, so slots are claimed with an atomic increment.
	eventRing     [EventRingSize]Event
	eventRingHead uint32

	// Async debug output channel
	debugChan chan string
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, stderr, etc.
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// InitAsyncDebug starts the async debug output goroutine
// Call this from main() after SetDebugWriter
func InitAsyncDebug() {
	debugChan = make(chan string, 64) // Room for a full event dump
	go debugOutputWorker(debugChan)
}

func debugOutputWorker(ch <-chan string) {
	for msg := range ch {
		if debugPrintln != nil {
			debugPrintln(msg)
		}
	}
}

// DebugPrintln writes a debug message using the platform-specific writer
// Blocks if debug is enabled (use DebugAsync from the protocol loop)
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// DebugAsync queues a debug message for the output worker and never
// blocks; a full queue drops the message. Without a worker it writes
// directly.
func DebugAsync(msg string) {
	if !debugEnabled {
		return
	}
	if debugChan == nil {
		DebugPrintln(msg)
		return
	}
	select {
	case debugChan <- msg:
	default:
	}
}

// RecordEvent captures an event in the ring buffer. Never blocks, safe to
// call from the sample interrupt.
func RecordEvent(eventType, channel uint8, tick, value uint32) {
	idx := (atomic.AddUint32(&eventRingHead, 1) - 1) % EventRingSize
	eventRing[idx] = Event{
		Type:    eventType,
		Channel: channel,
		Tick:    tick,
		Value:   value,
	}
}

// Events returns the recorded events, oldest first.
func Events() []Event {
	head := atomic.LoadUint32(&eventRingHead)
	out := make([]Event, 0, EventRingSize)
	for i := uint32(0); i < EventRingSize; i++ {
		evt := eventRing[(head+i)%EventRingSize]
		if evt.Type == 0 {
			continue // Empty slot
		}
		out = append(out, evt)
	}
	return out
}

func eventName(t uint8) string {
	switch t {
	case EvtFault:
		return "FAULT"
	case EvtFaultClear:
		return "FAULT_CLEAR"
	case EvtOverCurrent:
		return "OVERCURRENT"
	case EvtOverCurrentClear:
		return "OVERCURRENT_CLEAR"
	case EvtReset:
		return "RESET"
	case EvtBootloader:
		return "BOOTLOADER"
	case EvtOverflow:
		return "OVERFLOW"
	default:
		return "UNKNOWN"
	}
}

// DumpEvents queues the event ring for debug output
func DumpEvents() {
	DebugAsync("[EVENT] === Event Ring Dump ===")
	for _, evt := range Events() {
		DebugAsync("[EVENT] " + eventName(evt.Type) +
			" ch=" + itoa(int(evt.Channel)) +
			" tick=" + utoa(evt.Tick) +
			" v=" + utoa(evt.Value))
	}
	DebugAsync("[EVENT] === End Dump ===")
}

// ClearEvents clears the event ring
func ClearEvents() {
	for i := range eventRing {
		eventRing[i] = Event{}
	}
	atomic.StoreUint32(&eventRingHead, 0)
}
