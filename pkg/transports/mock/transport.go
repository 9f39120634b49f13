// Package mock provides an in-memory transport for tests: captured
// writes, scriptable inbound messages, and failure injection.
package mock

import (
	"context"
	"net"
	"net/http"
	"sync"

	"github.com/harunnryd/uplink/pkg/transports"
)

type Dialer struct {
	// Err, when set, fails every dial attempt with this error.
	Err error

	mu      sync.Mutex
	conns   []*Conn
	urls    []string
	headers []http.Header
}

func (d *Dialer) Dial(ctx context.Context, url string, header http.Header) (transports.Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.urls = append(d.urls, url)
	d.headers = append(d.headers, header.Clone())
	if d.Err != nil {
		return nil, d.Err
	}
	c := NewConn()
	d.conns = append(d.conns, c)
	return c, nil
}

func (d *Dialer) DialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.urls)
}

func (d *Dialer) LastURL() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.urls) == 0 {
		return ""
	}
	return d.urls[len(d.urls)-1]
}

func (d *Dialer) LastHeader() http.Header {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.headers) == 0 {
		return nil
	}
	return d.headers[len(d.headers)-1]
}

func (d *Dialer) LastConn() *Conn {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.conns) == 0 {
		return nil
	}
	return d.conns[len(d.conns)-1]
}

type inbound struct {
	binary bool
	p      []byte
}

type Conn struct {
	mu         sync.Mutex
	binary     [][]byte
	texts      [][]byte
	writeErr   error
	writeGate  chan struct{}
	closed     bool
	closeCount int

	queue chan inbound
	done  chan struct{}
}

func NewConn() *Conn {
	return &Conn{
		queue: make(chan inbound, 64),
		done:  make(chan struct{}),
	}
}

func (c *Conn) WriteBinary(p []byte) error {
	c.waitGate()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return net.ErrClosed
	}
	if c.writeErr != nil {
		return c.writeErr
	}
	c.binary = append(c.binary, append([]byte(nil), p...))
	return nil
}

func (c *Conn) WriteText(p []byte) error {
	c.waitGate()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return net.ErrClosed
	}
	if c.writeErr != nil {
		return c.writeErr
	}
	c.texts = append(c.texts, append([]byte(nil), p...))
	return nil
}

func (c *Conn) ReadMessage() (bool, []byte, error) {
	select {
	case m := <-c.queue:
		return m.binary, m.p, nil
	case <-c.done:
		return false, nil, net.ErrClosed
	}
}

func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeCount++
	if !c.closed {
		c.closed = true
		close(c.done)
	}
	return nil
}

func (c *Conn) waitGate() {
	c.mu.Lock()
	gate := c.writeGate
	c.mu.Unlock()
	if gate != nil {
		<-gate
	}
}

// HoldWrites parks every subsequent write until ReleaseWrites.
func (c *Conn) HoldWrites() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writeGate = make(chan struct{})
}

func (c *Conn) ReleaseWrites() {
	c.mu.Lock()
	gate := c.writeGate
	c.writeGate = nil
	c.mu.Unlock()
	if gate != nil {
		close(gate)
	}
}

// FailWrites makes every subsequent write return err.
func (c *Conn) FailWrites(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writeErr = err
}

// PushText queues an inbound text message for ReadMessage.
func (c *Conn) PushText(p []byte) {
	c.queue <- inbound{binary: false, p: append([]byte(nil), p...)}
}

// PushBinary queues an inbound binary message for ReadMessage.
func (c *Conn) PushBinary(p []byte) {
	c.queue <- inbound{binary: true, p: append([]byte(nil), p...)}
}

func (c *Conn) BinaryWrites() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.binary))
	copy(out, c.binary)
	return out
}

func (c *Conn) TextWrites() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.texts))
	copy(out, c.texts)
	return out
}

func (c *Conn) CloseCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeCount
}
