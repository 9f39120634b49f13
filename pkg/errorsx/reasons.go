package errorsx

// ReasonCode is a short machine-readable error reason.
type ReasonCode string

const (
	ReasonUnknown ReasonCode = "unknown"

	// ReasonConfiguration marks invalid or missing builder inputs,
	// detected before any network activity.
	ReasonConfiguration ReasonCode = "configuration"

	// ReasonConnection marks a failed transport handshake, including
	// non-success WebSocket upgrade responses.
	ReasonConnection ReasonCode = "connection"

	// ReasonTransport marks a mid-session socket or TLS failure.
	ReasonTransport ReasonCode = "transport"

	// ReasonProtocol marks a malformed or unexpected server event.
	ReasonProtocol ReasonCode = "protocol"

	// ReasonShutdown marks an operation attempted during or after
	// termination of the owning service or connection.
	ReasonShutdown ReasonCode = "shutdown"

	// ReasonSend marks a rejected outbound write.
	ReasonSend ReasonCode = "send"
)
