// Package jsonrpc implements the JSON-RPC 2.0 message codec: parsing and
// composing request, response and batch messages per
// https://www.jsonrpc.org/specification.
package jsonrpc

import (
	"encoding/json"
	"fmt"
)

// ErrorCode is one of the standard JSON-RPC 2.0 error codes, or a value in
// the reserved ServerError range (-32099 to -32000) for implementation
// defined conditions. The taxonomy is closed; anything else is a bug in the
// caller.
type ErrorCode int32

const (
	ParseError     ErrorCode = -32700
	InvalidRequest ErrorCode = -32600
	MethodNotFound ErrorCode = -32601
	InvalidParams  ErrorCode = -32602
	InternalError  ErrorCode = -32603

	// ServerError is the top of the reserved -32099..-32000 range for
	// implementation-specific conditions (a handler returning a plain Go
	// error, for instance). Implementations that need to distinguish several such
	// conditions on the wire may use any code in that range; this library
	// always emits ServerError itself and relies on Message for detail.
	ServerError ErrorCode = -32000
)

// RpcError is a JSON-RPC 2.0 error object: exactly one of Result/Error is
// present on the enclosing response, and this type models the Error side.
type RpcError struct {
	Code    ErrorCode
	Message string
	Data    json.RawMessage
}

func (e *RpcError) Error() string {
	return fmt.Sprintf("jsonrpc: code %d: %s", e.Code, e.Message)
}

// NewRpcError builds an error with no data payload.
func NewRpcError(code ErrorCode, message string) *RpcError {
	return &RpcError{Code: code, Message: message}
}

// NewRpcErrorWithData builds an error carrying a JSON-serializable data
// value. Marshaling failures collapse the data silently (the error itself
// must never fail to construct).
func NewRpcErrorWithData(code ErrorCode, message string, data any) *RpcError {
	raw, err := json.Marshal(data)
	if err != nil {
		return &RpcError{Code: code, Message: message}
	}
	return &RpcError{Code: code, Message: message, Data: raw}
}

var (
	errParseError     = NewRpcError(ParseError, "Parse error")
	errInvalidRequest = NewRpcError(InvalidRequest, "Invalid Request")
)
