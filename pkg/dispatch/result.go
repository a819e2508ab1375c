// Package dispatch orchestrates the request and response pipelines: it
// turns parsed JSON-RPC messages into dispatcher calls and dispatcher
// outcomes back into wire bytes, per spec.md §4.3–§4.5.
package dispatch

import (
	"encoding/json"

	"github.com/richard-senior/jrpc/pkg/jsonrpc"
)

// ResultKind is the reply half of a DispatchResult: whether the dispatcher
// has nothing to say, a value, or an error. EndStream is modeled as an
// orthogonal flag (see spec.md §9 Design Notes: "Notifications vs
// EndStream... orthogonal"), not a fourth kind, because a terminating
// handler still needs to say whether it succeeded or failed before the
// pipeline stops looping.
type ResultKind int

const (
	KindNone ResultKind = iota
	KindValue
	KindError
)

// DispatchResult is what a RequestDispatcher hands back to the pipeline for
// one request.
type DispatchResult struct {
	Kind      ResultKind
	Json      json.RawMessage // valid when Kind == KindValue
	Err       *jsonrpc.RpcError // valid when Kind == KindError
	EndStream bool
}

// None is the "no reply" result, used for notifications and handlers that
// intentionally stay silent.
func None() DispatchResult { return DispatchResult{Kind: KindNone} }

// Value wraps an already-serialized result payload. It is never
// re-serialized by the pipeline.
func Value(raw json.RawMessage) DispatchResult {
	return DispatchResult{Kind: KindValue, Json: raw}
}

// Error builds a structured error result.
func Error(code jsonrpc.ErrorCode, message string) DispatchResult {
	return DispatchResult{Kind: KindError, Err: jsonrpc.NewRpcError(code, message)}
}

// ErrorWithData builds a structured error result carrying a data payload.
func ErrorWithData(code jsonrpc.ErrorCode, message string, data any) DispatchResult {
	return DispatchResult{Kind: KindError, Err: jsonrpc.NewRpcErrorWithData(code, message, data)}
}

// FromRpcError wraps an existing *jsonrpc.RpcError as a result.
func FromRpcError(err *jsonrpc.RpcError) DispatchResult {
	return DispatchResult{Kind: KindError, Err: err}
}

// Ending marks a result as the last one the pipeline should write before
// stopping its read loop.
func (r DispatchResult) Ending() DispatchResult {
	r.EndStream = true
	return r
}
