// Package host is the computer side of the device protocol: it splits
// command streams into chunks, flags continuations, and reassembles paged
// replies.
package host
