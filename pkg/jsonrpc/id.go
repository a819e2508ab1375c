package jsonrpc

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// IdKind identifies which variant an RpcId holds.
type IdKind int

const (
	// IdAbsent means the message is a notification: no id was present on
	// the wire, or it was explicitly null.
	IdAbsent IdKind = iota
	IdInt
	IdString
)

// RpcId is a JSON-RPC message identifier. Identity equality is
// variant-and-value: an int id of 1 is never equal to a string id of "1".
type RpcId struct {
	Kind IdKind
	Int  int64
	Str  string
}

// NoId returns the notification identifier.
func NoId() RpcId { return RpcId{Kind: IdAbsent} }

// IntId wraps an integer id.
func IntId(v int64) RpcId { return RpcId{Kind: IdInt, Int: v} }

// StringId wraps a string id.
func StringId(v string) RpcId { return RpcId{Kind: IdString, Str: v} }

// IsNotification reports whether this id means "no response expected".
func (id RpcId) IsNotification() bool { return id.Kind == IdAbsent }

// Equal compares two ids by variant and value.
func (id RpcId) Equal(other RpcId) bool {
	if id.Kind != other.Kind {
		return false
	}
	switch id.Kind {
	case IdInt:
		return id.Int == other.Int
	case IdString:
		return id.Str == other.Str
	default:
		return true
	}
}

func (id RpcId) String() string {
	switch id.Kind {
	case IdInt:
		return fmt.Sprintf("%d", id.Int)
	case IdString:
		return id.Str
	default:
		return "<notification>"
	}
}

// marshalWire renders the id the way it must appear on the wire for a
// response (null when absent) as a json.RawMessage, never an error.
func (id RpcId) marshalWire() json.RawMessage {
	switch id.Kind {
	case IdInt:
		return json.RawMessage(fmt.Sprintf("%d", id.Int))
	case IdString:
		raw, _ := json.Marshal(id.Str)
		return raw
	default:
		return json.RawMessage("null")
	}
}

// safe 64-bit integer bound JSON-RPC ids are validated against: IEEE-754
// doubles only represent integers exactly up to 2^53, and many JSON-RPC
// peers round-trip ids through floating point, so ids outside that range
// are rejected as malformed per spec.md rather than merely "wide i64".
const maxSafeInteger = int64(1) << 53

// parseIdBytes decodes a raw `id` field per the JSON-RPC 2.0 rules: number,
// string or null/absent. Anything else, or a number outside the safe
// integer range, is reported as unrecoverable.
func parseIdBytes(raw json.RawMessage) (RpcId, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return NoId(), true
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return NoId(), false
		}
		return StringId(s), true
	}
	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	if err := dec.Decode(&n); err != nil {
		return NoId(), false
	}
	i, err := n.Int64()
	if err != nil {
		return NoId(), false
	}
	if i > maxSafeInteger || i < -maxSafeInteger {
		return NoId(), false
	}
	return IntId(i), true
}
