// Package transports defines the framed-duplex boundary the connection
// core writes audio to and reads service events from. Implementations
// own their network lifecycle; the core owns exactly one Conn per
// connection and releases it on close or fault.
package transports

import (
	"context"
	"net/http"
)

// Conn is an established framed-duplex channel.
type Conn interface {
	// WriteBinary transmits one binary frame. Safe for use by a single
	// writer; the core serializes writers on its task queue.
	WriteBinary(p []byte) error

	// WriteText transmits one text frame.
	WriteText(p []byte) error

	// ReadMessage blocks until the next inbound frame arrives and
	// reports whether it is binary. Safe to call concurrently with
	// writes, but only from a single reader.
	ReadMessage() (binary bool, p []byte, err error)

	Close() error
}

// Dialer negotiates a secure channel to a service endpoint.
type Dialer interface {
	Dial(ctx context.Context, url string, header http.Header) (Conn, error)
}
