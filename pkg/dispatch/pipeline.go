package dispatch

import (
	"bytes"
	"io"

	"github.com/richard-senior/jrpc/pkg/jsonrpc"
)

// Logger is the minimal surface the pipeline needs for recoverable
// anomalies it doesn't otherwise get to report (a dispatcher error on a
// notification, a handler that returned no result for a request expecting
// one). It is satisfied by
// internal/logger's default logger and by testify-friendly fakes alike, so
// this package stays independent of any concrete logging library.
type Logger interface {
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Warnf(string, ...any)  {}
func (nopLogger) Errorf(string, ...any) {}

// RunStatus reports what RunRequest actually did, since "nothing was
// written" is a normal, successful outcome for an all-notification request.
type RunStatus struct {
	Wrote     bool
	EndStream bool
}

// RequestPipeline orchestrates parse -> dispatch -> compose for one
// request or request batch, per spec.md §4.4.
type RequestPipeline struct {
	Dispatcher RequestDispatcher
	Log        Logger
}

// NewRequestPipeline builds a pipeline around a dispatcher, typically a
// *registry.Registry. A nil Log is replaced with a no-op logger.
func NewRequestPipeline(d RequestDispatcher, log Logger) *RequestPipeline {
	if log == nil {
		log = nopLogger{}
	}
	return &RequestPipeline{Dispatcher: d, Log: log}
}

// RunRequest parses data as a request or request batch, dispatches each
// item, and writes the composed reply (if any) to w. It never returns a
// JSON-RPC-level failure as a Go error: malformed input becomes a written
// error envelope, not a returned error. A returned error means the
// underlying writer failed.
func (p *RequestPipeline) RunRequest(data []byte, w io.Writer) (RunStatus, error) {
	msg := jsonrpc.ParseRequest(data)
	if msg.Batch {
		return p.runBatch(msg.Items, w)
	}
	return p.runSingle(msg.Single, w)
}

// RunRequestString is RunRequest with the write captured into a string,
// for callers that want the reply as a value rather than a stream.
func (p *RequestPipeline) RunRequestString(data []byte) (string, RunStatus, error) {
	var buf bytes.Buffer
	status, err := p.RunRequest(data, &buf)
	return buf.String(), status, err
}

func (p *RequestPipeline) runSingle(req *jsonrpc.RpcRequest, w io.Writer) (RunStatus, error) {
	if req.ParseError != nil {
		if err := jsonrpc.WriteRpcError(w, req.Id, req.ParseError); err != nil {
			return RunStatus{}, err
		}
		return RunStatus{Wrote: true}, nil
	}

	result, token, err := p.Dispatcher.Dispatch(req)
	defer p.Dispatcher.DispatchEnd(req, token)
	if err != nil {
		if req.IsNotification() {
			p.Log.Errorf("dispatch failed for method %q: %v", req.Method, err)
		}
		result = Error(jsonrpc.InternalError, "internal error")
	}

	status := RunStatus{EndStream: result.EndStream}

	// Notifications never produce a response byte, regardless of what the
	// dispatcher returned: a value, an error, or nothing at all.
	if req.IsNotification() {
		return status, nil
	}

	switch result.Kind {
	case KindNone:
		// A void handler produces no reply even for a non-notification
		// request: spec.md §4.4/§4.6 treat KindNone as "no reply", full stop.
		p.Log.Warnf("handler for method %q returned no result for a request expecting one", req.Method)
		return status, nil
	case KindValue:
		if err := jsonrpc.WriteSuccess(w, req.Id, result.Json); err != nil {
			return status, err
		}
	case KindError:
		if err := jsonrpc.WriteRpcError(w, req.Id, result.Err); err != nil {
			return status, err
		}
	}
	status.Wrote = true
	return status, nil
}

// runBatch dispatches every item independently and assembles whatever
// non-notification replies resulted into a single JSON array, via
// jsonrpc.BatchWriter so an all-notification batch writes nothing at all.
func (p *RequestPipeline) runBatch(items []*jsonrpc.RpcRequest, w io.Writer) (RunStatus, error) {
	bw := jsonrpc.NewBatchWriter(w)
	var endStream bool

	for _, req := range items {
		var entry bytes.Buffer
		st, err := p.runSingle(req, &entry)
		if err != nil {
			return RunStatus{}, err
		}
		if st.Wrote {
			if werr := bw.WriteEntry(entry.Bytes()); werr != nil {
				return RunStatus{}, werr
			}
		}
		if st.EndStream {
			endStream = true
			break
		}
	}

	wrote, err := bw.Close()
	if err != nil {
		return RunStatus{}, err
	}
	return RunStatus{Wrote: wrote, EndStream: endStream}, nil
}
