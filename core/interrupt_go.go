//go:build !tinygo

package core

// State is a placeholder for the interrupt mask on regular Go.
// Hosted builds share state through atomics only.
type State uintptr

// maskInterrupts is a no-op on regular Go (hosted simulator and tests)
func maskInterrupts() State {
	return 0
}

// unmaskInterrupts is a no-op on regular Go
func unmaskInterrupts(State) {}
