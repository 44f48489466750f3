// Package boot implements the reboot-to-bootloader handoff.
//
// The request is a magic word in storage that survives a warm reset. The
// firmware checks it once at startup, before any other initialisation, and
// jumps to the bootloader when it is set.
package boot

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// Flag values
const (
	Magic   uint32 = 0xFACEBEE5
	Cleared uint32 = 0
)

// ErrEnteredBootloader is returned by Startup when control was handed to a
// bootloader that returned, which only happens in hosted builds.
var ErrEnteredBootloader = errors.New("boot: entered bootloader")

// FlagStore is reset-surviving storage for the handoff flag.
type FlagStore interface {
	Read() (uint32, error)
	Write(v uint32) error
	Clear() error
}

// Jumper transfers control to the bootloader. On hardware it does not return.
type Jumper interface {
	EnterBootloader()
}

// JumperFunc adapts a function to Jumper.
type JumperFunc func()

func (f JumperFunc) EnterBootloader() { f() }

// State is the handoff state.
type State uint8

const (
	StateNormal State = iota
	StatePendingReboot
)

func (s State) String() string {
	switch s {
	case StateNormal:
		return "normal"
	case StatePendingReboot:
		return "pending-reboot"
	default:
		return "unknown"
	}
}

// Handoff owns the flag and the NORMAL -> PENDING_REBOOT transition.
type Handoff struct {
	mu     sync.Mutex
	store  FlagStore
	jumper Jumper
	state  State
}

// NewHandoff creates a Handoff in the normal state.
func NewHandoff(store FlagStore, jumper Jumper) *Handoff {
	return &Handoff{store: store, jumper: jumper}
}

// Startup checks the flag. When it holds Magic the flag is cleared and the
// bootloader entered; normal initialisation must not run, which Startup
// signals with ErrEnteredBootloader if the jump returns. A store error also
// aborts startup.
func (h *Handoff) Startup() error {
	v, err := h.store.Read()
	if err != nil {
		return fmt.Errorf("boot: read flag: %w", err)
	}
	if v != Magic {
		return nil
	}

	if err := h.store.Clear(); err != nil {
		return fmt.Errorf("boot: clear flag: %w", err)
	}
	h.jumper.EnterBootloader()
	return ErrEnteredBootloader
}

// Request arms the handoff. The caller resets once the acknowledgement has
// been sent.
func (h *Handoff) Request() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.store.Write(Magic); err != nil {
		return fmt.Errorf("boot: write flag: %w", err)
	}
	h.state = StatePendingReboot
	return nil
}

// RebootPending reports whether a reset has been requested.
func (h *Handoff) RebootPending() bool {
	return h.State() == StatePendingReboot
}

// State returns the current state.
func (h *Handoff) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// MemoryStore keeps the flag in a variable. It survives a simulated reset
// within one process.
type MemoryStore struct {
	v uint32
}

func (m *MemoryStore) Read() (uint32, error) { return atomic.LoadUint32(&m.v), nil }

func (m *MemoryStore) Write(v uint32) error {
	atomic.StoreUint32(&m.v, v)
	return nil
}

func (m *MemoryStore) Clear() error { return m.Write(Cleared) }
