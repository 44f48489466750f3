package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureDebug routes debug output into the returned slice until the test
// ends.
func captureDebug(t *testing.T, enabled bool) *[]string {
	t.Helper()
	var lines []string
	SetDebugWriter(func(s string) { lines = append(lines, s) })
	SetDebugEnabled(enabled)
	t.Cleanup(func() {
		SetDebugWriter(func(string) {})
		SetDebugEnabled(false)
	})
	return &lines
}

func TestDebugAsyncWithoutWorker(t *testing.T) {
	lines := captureDebug(t, true)

	DebugAsync("[MAIN] hello")
	assert.Equal(t, []string{"[MAIN] hello"}, *lines)
}

func TestDebugAsyncDisabled(t *testing.T) {
	lines := captureDebug(t, false)

	DebugAsync("[MAIN] hello")
	DebugPrintln("[MAIN] hello")
	assert.Empty(t, *lines)
}

func TestDebugAsyncWorker(t *testing.T) {
	got := make(chan string, 1)
	SetDebugWriter(func(s string) { got <- s })
	SetDebugEnabled(true)
	InitAsyncDebug()
	t.Cleanup(func() {
		close(debugChan)
		debugChan = nil
		SetDebugWriter(func(string) {})
		SetDebugEnabled(false)
	})

	DebugAsync("[MAIN] reboot requested")
	select {
	case s := <-got:
		assert.Equal(t, "[MAIN] reboot requested", s)
	case <-time.After(time.Second):
		t.Fatal("worker did not write the message")
	}
}

func TestDebugAsyncQueueFull(t *testing.T) {
	lines := captureDebug(t, true)
	debugChan = make(chan string, 1)
	t.Cleanup(func() { debugChan = nil })

	DebugAsync("first")
	DebugAsync("second")
	require.Len(t, debugChan, 1)
	assert.Equal(t, "first", <-debugChan)
	assert.Empty(t, *lines)
}

func TestDumpEvents(t *testing.T) {
	lines := captureDebug(t, true)
	ClearEvents()
	t.Cleanup(ClearEvents)

	RecordEvent(EvtOverCurrent, 1, 42, 12003)
	DumpEvents()

	assert.Equal(t, []string{
		"[EVENT] === Event Ring Dump ===",
		"[EVENT] OVERCURRENT ch=1 tick=42 v=12003",
		"[EVENT] === End Dump ===",
	}, *lines)
}
