// Package speech implements a client-side streaming speech connection:
// session configuration, secure transport negotiation, ordered binary
// audio upload, inbound event dispatch, and callback-based error
// reporting. Connection setup and I/O run as tasks on a shared
// taskqueue.Service so multiple connections proceed independently.
package speech

import (
	"time"

	"github.com/harunnryd/uplink/pkg/errorsx"
	"github.com/harunnryd/uplink/pkg/taskqueue"
	"github.com/harunnryd/uplink/pkg/transports"
	wstransport "github.com/harunnryd/uplink/pkg/transports/websocket"
)

const (
	defaultConnectTimeout = 30 * time.Second
	defaultCloseTimeout   = 10 * time.Second
	defaultQueueDepth     = 64
)

// Client is a fluent builder for connections. Setters use value
// receivers and return an updated copy, so a configured Client can be
// shared across goroutines without mutation hazards. Connect is the
// only operation that performs I/O.
type Client struct {
	cfg            SessionConfig
	callbacks      Callbacks
	svc            *taskqueue.Service
	dialer         transports.Dialer
	stateListeners []StateListener
	connectTimeout time.Duration
	queueDepth     int
}

// NewClient starts a builder. connectionID must be unique per
// connection; see guid.WithoutDashes.
func NewClient(callbacks Callbacks, endpoint EndpointType, connectionID string, svc *taskqueue.Service) Client {
	return Client{
		cfg: SessionConfig{
			Mode:         ModeInteractive,
			Endpoint:     endpoint,
			ConnectionID: connectionID,
		},
		callbacks:      callbacks,
		svc:            svc,
		connectTimeout: defaultConnectTimeout,
		queueDepth:     defaultQueueDepth,
	}
}

func (c Client) SetRecognitionMode(mode RecognitionMode) Client {
	c.cfg.Mode = mode
	return c
}

func (c Client) SetRegion(region string) Client {
	c.cfg.Region = region
	return c
}

func (c Client) SetEndpointType(endpoint EndpointType) Client {
	c.cfg.Endpoint = endpoint
	return c
}

// SetEndpointURL points the connection at an explicit endpoint,
// overriding the region-derived default.
func (c Client) SetEndpointURL(url string) Client {
	c.cfg.EndpointURL = url
	return c
}

func (c Client) SetAuthentication(kind AuthenticationKind, credential string) Client {
	c.cfg.Auth = Authentication{Kind: kind, Credential: credential}
	return c
}

// SetDialer overrides the transport dialer. Defaults to the TLS
// WebSocket dialer.
func (c Client) SetDialer(d transports.Dialer) Client {
	c.dialer = d
	return c
}

func (c Client) SetConnectTimeout(d time.Duration) Client {
	if d > 0 {
		c.connectTimeout = d
	}
	return c
}

// SetQueueDepth bounds the outbound task queue; writers block when it
// fills.
func (c Client) SetQueueDepth(depth int) Client {
	if depth > 0 {
		c.queueDepth = depth
	}
	return c
}

// AddStateListener registers a listener for lifecycle transitions of
// the connection built by Connect.
func (c Client) AddStateListener(l StateListener) Client {
	listeners := make([]StateListener, 0, len(c.stateListeners)+1)
	listeners = append(listeners, c.stateListeners...)
	c.stateListeners = append(listeners, l)
	return c
}

// Connect validates the accumulated configuration, then performs the
// handshake on the task service with a bounded wait. It returns a
// connection in the Connected state, or an error. Handshake failures
// are also delivered once through the callback sink.
func (c Client) Connect() (*Connection, error) {
	if c.callbacks == nil {
		return nil, errorsx.New(errorsx.ReasonConfiguration, "callbacks are required")
	}
	if c.svc == nil {
		return nil, errorsx.New(errorsx.ReasonConfiguration, "task service is required")
	}
	if err := c.cfg.validate(); err != nil {
		return nil, err
	}
	dialer := c.dialer
	if dialer == nil {
		dialer = wstransport.Dialer{}
	}
	conn := newConnection(c, dialer)
	if err := conn.connect(); err != nil {
		return nil, err
	}
	return conn, nil
}
