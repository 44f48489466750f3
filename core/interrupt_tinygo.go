//go:build tinygo

package core

import "runtime/interrupt"

// maskInterrupts holds off the sample interrupt and returns the previous mask
func maskInterrupts() interrupt.State {
	return interrupt.Disable()
}

// unmaskInterrupts restores the mask saved by maskInterrupts
func unmaskInterrupts(state interrupt.State) {
	interrupt.Restore(state)
}
