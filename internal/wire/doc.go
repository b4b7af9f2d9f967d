// Package wire holds the byte-level encodings shared with relays and nodes:
// the reduced confirmable datagram message, the 21-byte telemetry sub-record
// with its 16-byte plaintext, and the narrowband firmware chunk frame.
package wire
