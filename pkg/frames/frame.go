package frames

import "sync"

// AudioFrame is one outbound unit scheduled for transmission. Sequence
// numbers are per-connection and strictly increasing in enqueue order.
type AudioFrame struct {
	seq    uint64
	data   []byte
	pooled bool
}

// NewAudioFrame wraps caller-owned bytes without copying. The caller must
// keep the buffer alive until the frame is transmitted.
func NewAudioFrame(seq uint64, data []byte) AudioFrame {
	return AudioFrame{seq: seq, data: data}
}

// NewAudioFrameFromPool copies caller bytes into a pooled buffer so the
// caller may reuse its buffer immediately after the call returns.
func NewAudioFrameFromPool(seq uint64, data []byte) AudioFrame {
	buf := AcquireAudioBuf(len(data))
	copy(buf, data)
	return AudioFrame{seq: seq, data: buf, pooled: true}
}

func (a AudioFrame) Seq() uint64        { return a.seq }
func (a AudioFrame) RawPayload() []byte { return a.data }
func (a AudioFrame) Data() []byte       { return append([]byte(nil), a.data...) }

// Release returns a pooled frame's buffer to the pool. Reports whether the
// frame was pooled. The frame must not be used after Release.
func (a AudioFrame) Release() bool {
	if a.pooled {
		ReleaseAudioBuf(a.data)
		return true
	}
	return false
}

var audioBufPool = sync.Pool{
	New: func() any {
		return make([]byte, 0, 8192)
	},
}

func AcquireAudioBuf(size int) []byte {
	b := audioBufPool.Get().([]byte)
	if cap(b) < size {
		return make([]byte, size)
	}
	return b[:size]
}

func ReleaseAudioBuf(b []byte) {
	audioBufPool.Put(b[:0])
}
