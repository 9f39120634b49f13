package speech

import "github.com/harunnryd/uplink/pkg/errorsx"

// Callbacks is the consumer-supplied sink for connection lifecycle
// failures. OnError is invoked on the task service's dispatch context,
// never reentrant into the write path, and at most once per failure
// occurrence. After the first fatal error the connection stops issuing
// traffic.
type Callbacks interface {
	OnError(transport bool, code errorsx.ReasonCode, message string)
}

// ConnectionObserver is an optional capability a sink may implement to
// observe connect and disconnect.
type ConnectionObserver interface {
	OnConnected()
	OnDisconnected()
}

// MessageObserver is an optional capability a sink may implement to
// receive parsed service events. path is the event's Path header.
type MessageObserver interface {
	OnMessage(path string, body []byte)
}
