package jsonrpc

import (
	"bytes"
	"encoding/json"
)

// RpcResponse is a single parsed JSON-RPC 2.0 response. Exactly one of
// HasResult/Err is meaningful: a well-formed response always sets one.
type RpcResponse struct {
	Version   string
	Id        RpcId
	HasResult bool
	Result    json.RawMessage
	Err       *RpcError
}

// RpcResponseMessage is the parsed result of one wire message: either a
// single response or a non-empty batch.
type RpcResponseMessage struct {
	Batch  bool
	Single *RpcResponse
	Items  []*RpcResponse
}

func (m *RpcResponseMessage) ForEach(fn func(*RpcResponse)) {
	if m.Batch {
		for _, r := range m.Items {
			fn(r)
		}
		return
	}
	fn(m.Single)
}

// ParseResponse parses a JSON-RPC 2.0 response message, single or batched,
// with the same "never return a bare error" recovery policy as
// ParseRequest.
func ParseResponse(data []byte) *RpcResponseMessage {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return &RpcResponseMessage{Single: parseErrorResponse("Parse error")}
	}

	switch trimmed[0] {
	case '[':
		var elems []json.RawMessage
		if err := json.Unmarshal(trimmed, &elems); err != nil {
			return &RpcResponseMessage{Single: parseErrorResponse("Parse error")}
		}
		if len(elems) == 0 {
			return &RpcResponseMessage{Single: parseErrorResponse("Invalid Request")}
		}
		items := make([]*RpcResponse, len(elems))
		for i, e := range elems {
			items[i] = parseOneResponse(e)
		}
		return &RpcResponseMessage{Batch: true, Items: items}
	case '{':
		return &RpcResponseMessage{Single: parseOneResponse(trimmed)}
	default:
		return &RpcResponseMessage{Single: parseErrorResponse("Invalid Request")}
	}
}

func parseErrorResponse(message string) *RpcResponse {
	return &RpcResponse{Id: NoId(), Err: NewRpcError(InvalidRequest, message)}
}

func parseOneResponse(data json.RawMessage) *RpcResponse {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return parseErrorResponse("Invalid Request")
	}

	var wire struct {
		JSONRPC json.RawMessage `json:"jsonrpc"`
		Id      json.RawMessage `json:"id"`
		Result  json.RawMessage `json:"result"`
		Error   *struct {
			Code    ErrorCode       `json:"code"`
			Message string          `json:"message"`
			Data    json.RawMessage `json:"data,omitempty"`
		} `json:"error"`
	}
	if err := json.Unmarshal(trimmed, &wire); err != nil {
		return parseErrorResponse("Invalid Request")
	}

	id, idOk := parseIdBytes(wire.Id)
	if !idOk {
		id = NoId()
	}

	resp := &RpcResponse{Version: "2.0", Id: id}
	if wire.Error != nil {
		resp.Err = &RpcError{Code: wire.Error.Code, Message: wire.Error.Message, Data: wire.Error.Data}
		return resp
	}
	if len(wire.Result) > 0 {
		resp.HasResult = true
		resp.Result = wire.Result
		return resp
	}
	// Neither result nor error: malformed per spec, but we still hand back
	// the recovered id rather than discarding it.
	resp.Err = NewRpcError(InvalidRequest, "Invalid Request: missing result/error")
	return resp
}
