package jsonrpc

import (
	"encoding/json"
	"io"
)

type wireRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	Id      json.RawMessage `json:"id,omitempty"`
}

type wireError struct {
	Code    ErrorCode       `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type wireResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *wireError      `json:"error,omitempty"`
	Id      json.RawMessage `json:"id"`
}

// WriteRequest composes a JSON-RPC 2.0 request (or, when id is the
// notification id, a notification — the id field is omitted entirely, not
// written as null). params, if non-nil, is marshaled as-is; pass a
// json.RawMessage to forward an already-serialized value without
// re-encoding.
func WriteRequest(w io.Writer, method string, params any, id RpcId) error {
	wire := wireRequest{JSONRPC: "2.0", Method: method}
	if params != nil {
		raw, err := marshalParam(params)
		if err != nil {
			return err
		}
		wire.Params = raw
	}
	if !id.IsNotification() {
		wire.Id = id.marshalWire()
	}
	return writeJSON(w, wire)
}

// WriteNotification is WriteRequest with id fixed to the notification id.
func WriteNotification(w io.Writer, method string, params any) error {
	return WriteRequest(w, method, params, NoId())
}

// WriteSuccess composes a success response envelope, inlining the
// already-serialized result payload verbatim (it must never be
// re-serialized — see spec.md §4.6 on pre-wrapped results).
func WriteSuccess(w io.Writer, id RpcId, resultJSON json.RawMessage) error {
	if len(resultJSON) == 0 {
		resultJSON = json.RawMessage("null")
	}
	wire := wireResponse{JSONRPC: "2.0", Result: resultJSON, Id: id.marshalWire()}
	return writeJSON(w, wire)
}

// WriteError composes an error response envelope. id is serialized as null
// when it could not be recovered from the request.
func WriteError(w io.Writer, id RpcId, code ErrorCode, message string, data any) error {
	werr := &wireError{Code: code, Message: message}
	if data != nil {
		raw, err := marshalParam(data)
		if err == nil {
			werr.Data = raw
		}
	}
	wire := wireResponse{JSONRPC: "2.0", Error: werr, Id: id.marshalWire()}
	return writeJSON(w, wire)
}

// WriteRpcError is WriteError taking an already-built *RpcError.
func WriteRpcError(w io.Writer, id RpcId, err *RpcError) error {
	wire := wireResponse{
		JSONRPC: "2.0",
		Error:   &wireError{Code: err.Code, Message: err.Message, Data: err.Data},
		Id:      id.marshalWire(),
	}
	return writeJSON(w, wire)
}

func marshalParam(v any) (json.RawMessage, error) {
	if raw, ok := v.(json.RawMessage); ok {
		return raw, nil
	}
	return json.Marshal(v)
}

// writeJSON marshals v and writes it with no trailing newline, leaving
// message termination to the framer rather than encoding/json's Encoder
// (which always appends "\n").
func writeJSON(w io.Writer, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = w.Write(raw)
	return err
}

// BatchWriter streams a JSON array of response (or request) entries
// without buffering the whole batch in memory. Per spec.md §4.4, a batch
// that produces no entries at all (every member was a notification) must
// be suppressed entirely — not even an empty "[]" is written — so the
// opening bracket is only emitted lazily, on the first WriteEntry call.
type BatchWriter struct {
	w       io.Writer
	started bool
}

func NewBatchWriter(w io.Writer) *BatchWriter {
	return &BatchWriter{w: w}
}

// WriteEntry appends one already-serialized entry to the batch.
func (b *BatchWriter) WriteEntry(raw json.RawMessage) error {
	var prefix string
	if !b.started {
		prefix = "["
		b.started = true
	} else {
		prefix = ","
	}
	if _, err := io.WriteString(b.w, prefix); err != nil {
		return err
	}
	_, err := b.w.Write(raw)
	return err
}

// Close finishes the batch, writing the closing bracket only if at least
// one entry was written. Returns whether anything was emitted.
func (b *BatchWriter) Close() (bool, error) {
	if !b.started {
		return false, nil
	}
	_, err := io.WriteString(b.w, "]")
	return true, err
}
