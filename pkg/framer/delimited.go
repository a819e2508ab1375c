package framer

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
)

// DelimitedFramer frames messages with a single delimiter byte, default LF.
// A message payload must not contain the delimiter byte; callers producing
// newline-delimited JSON get this for free since encoding/json never emits
// a raw newline inside a compact value.
type DelimitedFramer struct {
	r         *bufio.Reader
	w         io.Writer
	delim     byte
	skipEmpty bool
}

// DelimitedOption configures a DelimitedFramer.
type DelimitedOption func(*DelimitedFramer)

// WithDelimiter overrides the default LF delimiter.
func WithDelimiter(b byte) DelimitedOption {
	return func(f *DelimitedFramer) { f.delim = b }
}

// SkipEmptyFrames causes ReadFrame to silently skip zero-length frames
// (e.g. a stray blank line) instead of returning them to the caller.
func SkipEmptyFrames() DelimitedOption {
	return func(f *DelimitedFramer) { f.skipEmpty = true }
}

// NewDelimited builds a framer over r/w using LF by default.
func NewDelimited(r io.Reader, w io.Writer, opts ...DelimitedOption) *DelimitedFramer {
	f := &DelimitedFramer{r: bufio.NewReader(r), w: w, delim: '\n'}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// ReadFrame reads up to and including the delimiter, returning the payload
// with the delimiter and surrounding whitespace trimmed. A clean
// end-of-stream with no bytes read returns io.EOF.
func (f *DelimitedFramer) ReadFrame() ([]byte, error) {
	for {
		line, err := f.r.ReadBytes(f.delim)
		if len(line) == 0 && err != nil {
			return nil, err
		}
		trimmed := bytes.TrimSpace(bytes.TrimSuffix(line, []byte{f.delim}))
		if len(trimmed) == 0 {
			if err != nil {
				return nil, err
			}
			if f.skipEmpty {
				continue
			}
			return trimmed, nil
		}
		return trimmed, err
	}
}

// WriteFrame writes payload followed by the delimiter. It returns an error
// if payload itself contains the delimiter byte, since that would desync
// the peer's reader.
func (f *DelimitedFramer) WriteFrame(payload []byte) error {
	if bytes.IndexByte(payload, f.delim) != -1 {
		return fmt.Errorf("framer: payload contains delimiter byte %q", f.delim)
	}
	if _, err := f.w.Write(payload); err != nil {
		return err
	}
	_, err := f.w.Write([]byte{f.delim})
	return err
}
