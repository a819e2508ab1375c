package framer

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrMissingContentLength is returned by ReadFrame when a header block has
// no Content-Length and the framer was not built WithFatalMissingLength.
// Because the stream position after a headerless block is unknowable (there
// is no length to skip by), "recoverable" here means the caller may keep
// looping and attempt to resync on the next header line, not that the
// stream is guaranteed to still be aligned.
var ErrMissingContentLength = errors.New("framer: missing Content-Length header")

// ErrMissingContentLengthFatal is ErrMissingContentLength's fatal sibling,
// returned instead when the framer was built WithFatalMissingLength.
var ErrMissingContentLengthFatal = fmt.Errorf("framer: missing Content-Length header (fatal): %w", ErrMissingContentLength)

// ContentLengthFramer frames messages the way LSP and similar protocols do:
// an HTTP-style header block terminated by a blank line, followed by
// exactly Content-Length bytes of payload.
type ContentLengthFramer struct {
	r               *bufio.Reader
	w               io.Writer
	expectReqLine   bool
	fatalMissingLen bool
	buf             Buffer
}

type ContentLengthOption func(*ContentLengthFramer)

// WithRequestLine tells the reader to tolerate (and discard) an optional
// leading "METHOD /path HTTP/1.1" line before the header block, for mild
// HTTP compatibility.
func WithRequestLine() ContentLengthOption {
	return func(f *ContentLengthFramer) { f.expectReqLine = true }
}

// WithFatalMissingLength makes a missing Content-Length header terminate
// the read loop instead of being treated as one recoverable bad frame.
func WithFatalMissingLength() ContentLengthOption {
	return func(f *ContentLengthFramer) { f.fatalMissingLen = true }
}

func NewContentLength(r io.Reader, w io.Writer, opts ...ContentLengthOption) *ContentLengthFramer {
	f := &ContentLengthFramer{r: bufio.NewReader(r), w: w}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// ReadFrame reads one Content-Length-framed message. End-of-stream at a
// header boundary (before any header bytes were read) returns io.EOF
// cleanly. A missing Content-Length header returns ErrMissingContentLength,
// which callers should treat as fatal or recoverable per
// WithFatalMissingLength. A short read before EOF is reported as
// io.ErrUnexpectedEOF.
func (f *ContentLengthFramer) ReadFrame() ([]byte, error) {
	f.buf.reset()
	f.buf.ensureHeaders()

	sawAnyLine := false
	firstLine := true
	for {
		line, err := f.r.ReadString('\n')
		if line == "" && err != nil {
			if !sawAnyLine {
				return nil, io.EOF
			}
			return nil, err
		}
		sawAnyLine = true
		line = strings.TrimRight(line, "\r\n")

		if firstLine && f.expectReqLine && looksLikeRequestLine(line) {
			firstLine = false
			if err != nil {
				return nil, err
			}
			continue
		}
		firstLine = false

		if line == "" {
			break
		}
		name, value, ok := splitHeader(line)
		if ok {
			f.buf.headers[strings.ToLower(name)] = value
		}
		if err != nil {
			return nil, err
		}
	}

	lenStr, ok := f.buf.headers["content-length"]
	if !ok {
		if f.fatalMissingLen {
			return nil, ErrMissingContentLengthFatal
		}
		return nil, ErrMissingContentLength
	}
	n, err := strconv.Atoi(strings.TrimSpace(lenStr))
	if err != nil || n < 0 {
		return nil, fmt.Errorf("framer: invalid Content-Length %q: %w", lenStr, err)
	}

	body := make([]byte, n)
	if _, err := io.ReadFull(f.r, body); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return body, nil
}

// WriteFrame writes the Content-Length header block followed by payload.
func (f *ContentLengthFramer) WriteFrame(payload []byte) error {
	header := fmt.Sprintf("Content-Length: %d\r\n\r\n", len(payload))
	if _, err := io.WriteString(f.w, header); err != nil {
		return err
	}
	_, err := f.w.Write(payload)
	return err
}

func looksLikeRequestLine(line string) bool {
	return strings.HasSuffix(line, "HTTP/1.1") || strings.HasSuffix(line, "HTTP/1.0")
}

func splitHeader(line string) (name, value string, ok bool) {
	idx := strings.IndexByte(line, ':')
	if idx < 0 {
		return "", "", false
	}
	return strings.TrimSpace(line[:idx]), strings.TrimSpace(line[idx+1:]), true
}
