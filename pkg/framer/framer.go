// Package framer reads and writes discrete JSON-RPC messages on top of a
// continuous byte stream, using either a single-byte delimiter or an
// HTTP-like Content-Length header block.
package framer

// Framer delineates one message from the next on a byte stream. ReadFrame
// returns io.EOF (wrapped or bare) when the stream ends cleanly between
// frames. ErrMissingContentLength (without the fatal option) marks one bad
// frame the enclosing loop may skip; any other error is fatal to it.
type Framer interface {
	ReadFrame() ([]byte, error)
	WriteFrame(payload []byte) error
}

// Buffer is scratch storage owned by a framer across reads: the raw header
// bytes, the parsed header map, and the offset at which content begins.
// It is reset between frames rather than reallocated, matching spec.md
// §3's FrameBuffer.
type Buffer struct {
	raw           []byte
	headers       map[string]string
	contentOffset int
}

func (b *Buffer) reset() {
	b.raw = b.raw[:0]
	for k := range b.headers {
		delete(b.headers, k)
	}
	b.contentOffset = 0
}

func (b *Buffer) ensureHeaders() {
	if b.headers == nil {
		b.headers = make(map[string]string, 4)
	}
}
