// Package protocol owns the APDU wire contract between host and device.
//
// Ownership boundary:
// - command header layout and chunk flags
// - opcode table
// - status words and their error mapping
//
// Only opcode selection, chunk boundaries and status signaling are
// load-bearing for the command engine. Everything else here is a
// pluggable transport detail.
package protocol
