// Package protocol implements the MCv4 line protocol: newline-framed,
// colon-delimited ASCII commands with single-line responses.
package protocol

// Version represents the firmware version reported by *IDN?
const Version = "4.4"

// Protocol constants
const (
	MaxMessage  = 64 // Receive buffer size including the terminator slot
	MaxResponse = 62 // Longest response body, before the trailing newline

	Terminator     = '\n'
	CarriageReturn = '\r'
	Separator      = ':'
)

// Fixed response bodies
const (
	AckText  = "ACK"
	NackText = "NACK"
)
