package frames

import (
	"bytes"
	"testing"
)

func TestPooledFrameCopiesCallerBytes(t *testing.T) {
	src := []byte("RIFF1234567890")
	f := NewAudioFrameFromPool(1, src)

	// Caller mutates its buffer after enqueue; the frame must not see it.
	src[0] = 'X'
	if !bytes.Equal(f.RawPayload(), []byte("RIFF1234567890")) {
		t.Fatalf("pooled frame shares caller buffer: %q", f.RawPayload())
	}
	if !f.Release() {
		t.Fatalf("expected pooled frame release")
	}
}

func TestBorrowedFrameIsNotPooled(t *testing.T) {
	f := NewAudioFrame(7, []byte{1, 2, 3})
	if f.Seq() != 7 {
		t.Fatalf("seq mismatch: %d", f.Seq())
	}
	if f.Release() {
		t.Fatalf("borrowed frame must not release to pool")
	}
}

func TestAcquireGrowsForLargePayloads(t *testing.T) {
	b := AcquireAudioBuf(1 << 15)
	if len(b) != 1<<15 {
		t.Fatalf("expected %d bytes, got %d", 1<<15, len(b))
	}
	ReleaseAudioBuf(b)
}
