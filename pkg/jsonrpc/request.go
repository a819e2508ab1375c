package jsonrpc

import (
	"bytes"
	"encoding/json"
)

// ParamsKind identifies the shape of a request's params member.
type ParamsKind int

const (
	ParamsAbsent ParamsKind = iota
	ParamsArray
	ParamsObject
)

// Params is the decoded `params` member of a request: absent, a positional
// array, or a named object. Raw holds the original bytes for handlers that
// opt into raw passthrough.
type Params struct {
	Kind   ParamsKind
	Array  []json.RawMessage
	Object map[string]json.RawMessage
	Raw    json.RawMessage
}

func (p Params) IsAbsent() bool { return p.Kind == ParamsAbsent }

// RpcRequest is a single parsed (or parse-failed) JSON-RPC 2.0 request.
// ParseError is non-nil when the message failed structural validation; in
// that case Method/Params may be zero values, but Id is populated whenever
// it could be recovered from the wire.
type RpcRequest struct {
	Version    string
	Method     string
	Params     Params
	Id         RpcId
	ParseError *RpcError
}

// IsNotification reports whether this request expects no response. A
// request whose id could not be recovered during parsing is never treated
// as a notification, because the caller cannot prove it was one.
func (r *RpcRequest) IsNotification() bool {
	if r.ParseError != nil {
		return false
	}
	return r.Id.IsNotification()
}

// RpcRequestMessage is the parsed result of one wire message: either a
// single request or a non-empty batch.
type RpcRequestMessage struct {
	Batch  bool
	Single *RpcRequest
	Items  []*RpcRequest
}

// ForEach visits every request in the message in wire order, whether it is
// a lone request or a batch.
func (m *RpcRequestMessage) ForEach(fn func(*RpcRequest)) {
	if m.Batch {
		for _, r := range m.Items {
			fn(r)
		}
		return
	}
	fn(m.Single)
}

func newParseErrorRequest(code ErrorCode, message string, id RpcId) *RpcRequest {
	return &RpcRequest{Id: id, ParseError: NewRpcError(code, message)}
}

// ParseRequest parses a JSON-RPC 2.0 request message, single or batched.
// It always returns a usable result: malformed input becomes a request (or
// batch element) carrying a ParseError, never a bare Go error.
func ParseRequest(data []byte) *RpcRequestMessage {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return &RpcRequestMessage{Single: newParseErrorRequest(ParseError, "Parse error", NoId())}
	}

	switch trimmed[0] {
	case '[':
		var elems []json.RawMessage
		if err := json.Unmarshal(trimmed, &elems); err != nil {
			return &RpcRequestMessage{Single: newParseErrorRequest(ParseError, "Parse error", NoId())}
		}
		if len(elems) == 0 {
			return &RpcRequestMessage{Single: newParseErrorRequest(InvalidRequest, "Invalid Request", NoId())}
		}
		items := make([]*RpcRequest, len(elems))
		for i, e := range elems {
			items[i] = parseOneRequest(e)
		}
		return &RpcRequestMessage{Batch: true, Items: items}
	case '{':
		return &RpcRequestMessage{Single: parseOneRequest(trimmed)}
	default:
		// Root prescribed by spec.md §9 Open Questions: InvalidRequest, not
		// InternalError, when the root is neither object nor array.
		return &RpcRequestMessage{Single: newParseErrorRequest(InvalidRequest, "Invalid Request", NoId())}
	}
}

func parseOneRequest(data json.RawMessage) *RpcRequest {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return newParseErrorRequest(InvalidRequest, "Invalid Request", NoId())
	}
	if hasDuplicateTopLevelKeys(trimmed) {
		return newParseErrorRequest(InvalidRequest, "Invalid Request", NoId())
	}

	var wire struct {
		JSONRPC json.RawMessage `json:"jsonrpc"`
		Method  json.RawMessage `json:"method"`
		Params  json.RawMessage `json:"params"`
		Id      json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(trimmed, &wire); err != nil {
		if !json.Valid(trimmed) {
			return newParseErrorRequest(ParseError, "Parse error", NoId())
		}
		return newParseErrorRequest(InvalidRequest, "Invalid Request", NoId())
	}

	id, idOk := parseIdBytes(wire.Id)
	if !idOk {
		return newParseErrorRequest(InvalidRequest, "Invalid Request", NoId())
	}

	var version string
	if len(wire.JSONRPC) > 0 {
		_ = json.Unmarshal(wire.JSONRPC, &version)
	}
	if version != "2.0" {
		return newParseErrorRequest(InvalidRequest, "Invalid Request", id)
	}

	var method string
	if len(wire.Method) == 0 {
		return newParseErrorRequest(InvalidRequest, "Invalid Request", id)
	}
	if err := json.Unmarshal(wire.Method, &method); err != nil || method == "" {
		return newParseErrorRequest(InvalidRequest, "Invalid Request", id)
	}

	req := &RpcRequest{Version: version, Method: method, Id: id}

	if len(wire.Params) == 0 {
		return req
	}
	params := bytes.TrimSpace(wire.Params)
	switch {
	case string(params) == "null":
		// absent
	case params[0] == '[':
		var arr []json.RawMessage
		if err := json.Unmarshal(params, &arr); err != nil {
			req.ParseError = NewRpcError(InvalidParams, "Invalid params")
			return req
		}
		req.Params = Params{Kind: ParamsArray, Array: arr, Raw: params}
	case params[0] == '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(params, &obj); err != nil {
			req.ParseError = NewRpcError(InvalidParams, "Invalid params")
			return req
		}
		req.Params = Params{Kind: ParamsObject, Object: obj, Raw: params}
	default:
		req.ParseError = NewRpcError(InvalidParams, "Invalid params")
	}
	return req
}

// hasDuplicateTopLevelKeys reports whether a JSON object's top-level keys
// repeat. encoding/json silently keeps the last value for a repeated key
// when decoding into a map or struct, so this walks the token stream
// directly to catch what spec.md §4.1 requires rejecting.
func hasDuplicateTopLevelKeys(data []byte) bool {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return false
	}
	delim, ok := tok.(json.Delim)
	if !ok || delim != '{' {
		return false
	}
	seen := make(map[string]bool, 4)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return false
		}
		key, _ := keyTok.(string)
		if seen[key] {
			return true
		}
		seen[key] = true
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return false
		}
	}
	return false
}
