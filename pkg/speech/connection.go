package speech

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/harunnryd/uplink/pkg/errorsx"
	"github.com/harunnryd/uplink/pkg/frames"
	"github.com/harunnryd/uplink/pkg/guid"
	"github.com/harunnryd/uplink/pkg/logging"
	"github.com/harunnryd/uplink/pkg/taskqueue"
	"github.com/harunnryd/uplink/pkg/transports"
)

// Connection is an established, authenticated streaming session. It is
// usable for writes only between a successful Connect and Close or a
// terminal error. The transport handle is exclusively owned by the
// connection and released on close or fault.
type Connection struct {
	cfg       SessionConfig
	callbacks Callbacks
	svc       *taskqueue.Service
	queue     *taskqueue.Queue
	dialer    transports.Dialer
	logger    *slog.Logger
	state     *stateMachine

	// requestID correlates all audio frames of this stream.
	requestID string
	seq       atomic.Uint64
	faulted   atomic.Bool

	connectTimeout time.Duration
	queueDepth     int

	closeOnce sync.Once
	closeErr  error

	mu        sync.Mutex
	transport transports.Conn
}

func newConnection(c Client, dialer transports.Dialer) *Connection {
	logger := logging.NewComponentLogger(slog.Default(), "speech_connection")
	return &Connection{
		cfg:            c.cfg,
		callbacks:      c.callbacks,
		svc:            c.svc,
		dialer:         dialer,
		logger:         logger.With(slog.String("connection_id", c.cfg.ConnectionID)),
		state:          newStateMachine(c.stateListeners...),
		requestID:      guid.WithoutDashes(),
		connectTimeout: c.connectTimeout,
		queueDepth:     c.queueDepth,
	}
}

// ID returns the connection identifier attached to the handshake.
func (c *Connection) ID() string { return c.cfg.ConnectionID }

// State returns the current lifecycle state.
func (c *Connection) State() State { return c.state.Current() }

func (c *Connection) connect() error {
	q, err := c.svc.NewQueue("conn-"+c.cfg.ConnectionID, c.queueDepth)
	if err != nil {
		return err
	}
	c.queue = q
	if err := c.state.Transition(StateConnecting, "connect requested"); err != nil {
		return err
	}

	err = c.svc.SubmitWait(c.queue, c.connectTimeout, func(ctx context.Context) error {
		t, derr := c.dialer.Dial(ctx, c.cfg.url(), c.cfg.handshakeHeader())
		if derr != nil {
			derr = errorsx.Wrap(derr, errorsx.ReasonConnection)
			c.fault(derr, true)
			return derr
		}
		// The bounded wait may have expired while the dial was in flight;
		// the fault path saw a nil transport then, so the handle must be
		// released here. The second check covers a fault racing the store.
		if c.faulted.Load() {
			_ = t.Close()
			return errorsx.New(errorsx.ReasonConnection, "connect abandoned")
		}
		c.setTransport(t)
		if c.faulted.Load() {
			if tt := c.takeTransport(); tt != nil {
				_ = tt.Close()
			}
			return errorsx.New(errorsx.ReasonConnection, "connect abandoned")
		}
		msg := textMessage(pathSpeechConfig, c.requestID, contentTypeJSON, speechConfigPayload())
		if werr := t.WriteText(msg); werr != nil {
			werr = errorsx.Wrap(werr, errorsx.ReasonConnection)
			c.fault(werr, true)
			return werr
		}
		return nil
	})
	if err != nil {
		// Bounded-wait expiry and service shutdown fault the connection
		// from here; dial failures already faulted inside the task.
		err = errorsx.Wrap(err, errorsx.ReasonConnection)
		c.fault(err, true)
		return err
	}

	_ = c.state.Transition(StateConnected, "handshake complete")
	c.logger.Info("connected",
		slog.String("endpoint_type", c.cfg.Endpoint.String()),
		slog.String("mode", c.cfg.Mode.String()))
	if obs, ok := c.callbacks.(ConnectionObserver); ok {
		obs.OnConnected()
	}
	go c.readLoop(c.transportRef())
	return nil
}

// WriteAudio enqueues the given bytes as the next outbound audio frame.
// Safe to call from any goroutine; frames from a single caller reach
// the transport in submission order. Zero-length input is a no-op.
// Failures are reported through the callback sink, never returned:
// writes outside the Connected state transmit nothing, and a full queue
// applies backpressure by blocking the caller.
func (c *Connection) WriteAudio(p []byte) {
	if len(p) == 0 {
		return
	}
	if c.faulted.Load() || c.state.Current() != StateConnected {
		c.report(false, errorsx.ReasonSend,
			"audio write rejected: connection is "+c.state.Current().String())
		return
	}
	f := frames.NewAudioFrameFromPool(c.seq.Add(1), p)
	if err := c.svc.Submit(c.queue, func(ctx context.Context) {
		c.sendFrame(ctx, f)
	}); err != nil {
		f.Release()
		c.report(false, errorsx.ReasonShutdown, "audio write rejected: "+err.Error())
	}
}

func (c *Connection) sendFrame(ctx context.Context, f frames.AudioFrame) {
	defer f.Release()
	if c.faulted.Load() || ctx.Err() != nil {
		return
	}
	t := c.transportRef()
	if t == nil {
		return
	}
	msg := binaryAudioMessage(c.requestID, f.RawPayload())
	if err := t.WriteBinary(msg); err != nil {
		c.fault(errorsx.Wrap(err, errorsx.ReasonTransport), true)
	}
}

// Close flushes queued frames, sends the end-of-stream indication,
// releases the transport, and moves the connection to Closed.
// Idempotent and safe after a fault.
func (c *Connection) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.doClose()
	})
	return c.closeErr
}

func (c *Connection) doClose() error {
	switch c.state.Current() {
	case StateFaulted:
		// Transport was already released when the fault was delivered.
		_ = c.state.Transition(StateClosed, "closed after fault")
		return nil
	case StateClosed, StateIdle:
		return nil
	}

	_ = c.state.Transition(StateClosing, "close requested")
	err := c.svc.SubmitWait(c.queue, defaultCloseTimeout, func(ctx context.Context) error {
		t := c.transportRef()
		if t == nil {
			return nil
		}
		if !c.faulted.Load() {
			// Queued audio frames ran ahead of this task in FIFO order;
			// the empty-body audio message marks end of stream.
			if werr := t.WriteBinary(binaryAudioMessage(c.requestID, nil)); werr != nil {
				_ = t.Close()
				return errorsx.Wrap(werr, errorsx.ReasonTransport)
			}
		}
		return t.Close()
	})
	if errorsx.HasReason(err, errorsx.ReasonShutdown) || errors.Is(err, taskqueue.ErrWaitTimeout) {
		// Service terminated or drain stuck; release the transport directly.
		if t := c.transportRef(); t != nil {
			_ = t.Close()
		}
		err = nil
	}
	_ = c.state.Transition(StateClosed, "closed")
	c.logger.Info("closed", slog.Uint64("frames_sent", c.seq.Load()))
	if obs, ok := c.callbacks.(ConnectionObserver); ok {
		obs.OnDisconnected()
	}
	return err
}

// readLoop pulls inbound messages off the transport and hands event
// dispatch to the task queue so callbacks are serialized with the
// connection's other work.
func (c *Connection) readLoop(t transports.Conn) {
	if t == nil {
		return
	}
	for {
		binary, payload, err := t.ReadMessage()
		if err != nil {
			st := c.state.Current()
			if st == StateClosing || st == StateClosed {
				return
			}
			c.asyncFault(errorsx.Wrap(err, errorsx.ReasonTransport), true)
			return
		}
		if binary {
			c.logger.Debug("binary event ignored", slog.Int("size_bytes", len(payload)))
			continue
		}
		p := payload
		if err := c.svc.Submit(c.queue, func(ctx context.Context) {
			c.dispatchEvent(p)
		}); err != nil {
			return
		}
	}
}

func (c *Connection) dispatchEvent(p []byte) {
	path, body, err := parseTextMessage(p)
	if err != nil {
		c.report(false, errorsx.ReasonProtocol, err.Error())
		return
	}
	c.logger.Debug("event received",
		slog.String("path", path),
		slog.Int("size_bytes", len(body)))
	if obs, ok := c.callbacks.(MessageObserver); ok {
		obs.OnMessage(path, body)
	}
}

// fault permanently disables the connection and delivers the error to
// the sink exactly once. Faults racing a deliberate close are dropped.
func (c *Connection) fault(err error, transportLevel bool) {
	if !c.faulted.CompareAndSwap(false, true) {
		return
	}
	st := c.state.Current()
	if st == StateClosing || st == StateClosed {
		return
	}
	_ = c.state.Transition(StateFaulted, err.Error())
	c.logger.Error("connection faulted",
		slog.String("reason_code", string(errorsx.Reason(err))),
		slog.String("error", err.Error()))
	c.report(transportLevel, errorsx.Reason(err), err.Error())
	if t := c.takeTransport(); t != nil {
		_ = t.Close()
	}
}

// asyncFault routes a fault detected off the task context (the read
// loop) onto the queue so delivery stays on the dispatch context.
func (c *Connection) asyncFault(err error, transportLevel bool) {
	if serr := c.svc.Submit(c.queue, func(ctx context.Context) {
		c.fault(err, transportLevel)
	}); serr != nil {
		c.fault(err, transportLevel)
	}
}

// report delivers an error event without ever blocking a queue worker:
// a full queue falls back to a detached goroutine rather than a
// deadlock or a silent drop. The fallback can overtake deliveries still
// queued; ordering is guaranteed only on the queue path.
func (c *Connection) report(transportLevel bool, code errorsx.ReasonCode, msg string) {
	deliver := func(context.Context) {
		c.callbacks.OnError(transportLevel, code, msg)
	}
	if err := c.svc.TrySubmit(c.queue, deliver); err != nil {
		go deliver(context.Background())
	}
}

func (c *Connection) setTransport(t transports.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transport = t
}

func (c *Connection) transportRef() transports.Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transport
}

// takeTransport removes the handle so exactly one caller closes it.
func (c *Connection) takeTransport() transports.Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.transport
	c.transport = nil
	return t
}
