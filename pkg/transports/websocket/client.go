// Package websocket dials TLS-secured WebSocket channels. Anything other
// than a successful upgrade surfaces as a connection error carrying the
// verbatim HTTP status.
package websocket

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/harunnryd/uplink/pkg/errorsx"
	"github.com/harunnryd/uplink/pkg/transports"
)

const defaultHandshakeTimeout = 15 * time.Second

type Dialer struct {
	HandshakeTimeout time.Duration
}

func (d Dialer) Dial(ctx context.Context, url string, header http.Header) (transports.Conn, error) {
	timeout := d.HandshakeTimeout
	if timeout <= 0 {
		timeout = defaultHandshakeTimeout
	}
	wd := websocket.Dialer{
		HandshakeTimeout: timeout,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	}
	ws, resp, err := wd.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil && resp.StatusCode != http.StatusSwitchingProtocols {
			return nil, errorsx.Wrap(
				fmt.Errorf("WebSocket Upgrade failed with HTTP status code: %d", resp.StatusCode),
				errorsx.ReasonConnection)
		}
		return nil, errorsx.Wrap(err, errorsx.ReasonConnection)
	}
	return &conn{ws: ws}, nil
}

type conn struct {
	ws   *websocket.Conn
	wmu  sync.Mutex
	once sync.Once
}

func (c *conn) WriteBinary(p []byte) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return c.ws.WriteMessage(websocket.BinaryMessage, p)
}

func (c *conn) WriteText(p []byte) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return c.ws.WriteMessage(websocket.TextMessage, p)
}

func (c *conn) ReadMessage() (bool, []byte, error) {
	mt, p, err := c.ws.ReadMessage()
	if err != nil {
		return false, nil, err
	}
	return mt == websocket.BinaryMessage, p, nil
}

func (c *conn) Close() error {
	c.once.Do(func() {
		c.wmu.Lock()
		deadline := time.Now().Add(time.Second)
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		c.wmu.Unlock()
	})
	return c.ws.Close()
}
