// Package registry implements the reflective handler registry (spec.md
// §4.6): native Go functions of varying shape are bound to JSON-RPC method
// names, with JSON parameters mapped to typed arguments and return values
// mapped back to JSON, under a per-invocation arena.
package registry

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/richard-senior/jrpc/pkg/dispatch"
	"github.com/richard-senior/jrpc/pkg/jsonrpc"
)

// Registry maps method names to reflectively-bound handlers and implements
// dispatch.RequestDispatcher. It is not safe for concurrent registration
// and dispatch; register every method before starting a pipeline (see
// spec.md §5).
type Registry struct {
	entries map[string]*handlerEntry

	onBefore   func(*jsonrpc.RpcRequest)
	onAfter    func(*jsonrpc.RpcRequest, dispatch.DispatchResult)
	onFallback func(*jsonrpc.RpcRequest) dispatch.DispatchResult
}

// New builds an empty registry.
func New() *Registry {
	return &Registry{entries: make(map[string]*handlerEntry)}
}

// OnBefore installs a hook run synchronously before every dispatch.
func (r *Registry) OnBefore(fn func(*jsonrpc.RpcRequest)) { r.onBefore = fn }

// OnAfter installs a hook run synchronously after every successful
// dispatch, given the result that will be reported.
func (r *Registry) OnAfter(fn func(*jsonrpc.RpcRequest, dispatch.DispatchResult)) { r.onAfter = fn }

// OnFallback installs a handler invoked when no registered method matches.
// A registered entry always takes priority over the fallback.
func (r *Registry) OnFallback(fn func(*jsonrpc.RpcRequest) dispatch.DispatchResult) { r.onFallback = fn }

// Register binds handler to method. ctx, when non-nil, is the fixed
// context.Context value supplied as the handler's first argument on every
// dispatch; handler's signature must then declare context.Context first.
// ctx == nil means the handler takes no context parameter.
//
// handler's remaining parameters (after an optional context.Context and an
// optional *Arena) are mapped from JSON params per spec.md §4.6; its return
// values may be any combination of (T), (error), (T, error), or
// (dispatch.DispatchResult) — the last requires an *Arena parameter.
func (r *Registry) Register(method string, ctx any, handler any) error {
	if strings.HasPrefix(method, "rpc.") {
		return &RegistrationError{Kind: InvalidMethodName, Method: method, Detail: `method names beginning with "rpc." are reserved`}
	}
	entry, err := newHandlerEntry(method, ctx, handler)
	if err != nil {
		return err
	}
	r.entries[method] = entry
	return nil
}

// Dispatch implements dispatch.RequestDispatcher. The returned token is the
// matched handlerEntry (or nil, for a miss or fallback hit) and must be
// passed back to DispatchEnd once the caller is done with the result.
func (r *Registry) Dispatch(req *jsonrpc.RpcRequest) (dispatch.DispatchResult, any, error) {
	entry, ok := r.entries[req.Method]
	if !ok {
		if r.onFallback != nil {
			return r.onFallback(req), nil, nil
		}
		return dispatch.Error(jsonrpc.MethodNotFound, "Method not found."), nil, nil
	}

	if r.onBefore != nil {
		r.onBefore(req)
	}

	args, bindFailure, ok := entry.bindArgs(req.Params)
	if !ok {
		return bindFailure, entry, nil
	}

	ins := make([]reflect.Value, 0, len(args)+2)
	if entry.hasCtx {
		ins = append(ins, entry.ctxValue)
	}
	if entry.hasArena {
		ins = append(ins, reflect.ValueOf(entry.arena))
	}
	ins = append(ins, args...)

	outs := entry.fn.Call(ins)
	result := entry.translateOutputs(outs)

	if r.onAfter != nil {
		r.onAfter(req, result)
	}
	return result, entry, nil
}

// DispatchEnd resets the matched entry's arena, per spec.md §4.6's
// cleanup contract. token is whatever Dispatch returned; a nil or
// unrecognized token (a fallback hit, a method-not-found miss) is a no-op.
func (r *Registry) DispatchEnd(_ *jsonrpc.RpcRequest, token any) {
	entry, ok := token.(*handlerEntry)
	if !ok || entry == nil {
		return
	}
	entry.arena.reset()
}

// bindArgs selects the parameter-mapping strategy for req's params shape
// and decodes it into reflect.Values ready to pass to entry.fn.Call, per
// spec.md §4.6's four binding strategies.
func (e *handlerEntry) bindArgs(params jsonrpc.Params) ([]reflect.Value, dispatch.DispatchResult, bool) {
	// Raw passthrough: a handler with exactly one json.RawMessage parameter
	// bypasses shape validation entirely and receives params verbatim.
	if len(e.params) == 1 && e.params[0].kind == paramRaw {
		raw := params.Raw
		if params.IsAbsent() || len(raw) == 0 {
			raw = json.RawMessage("null")
		}
		return []reflect.Value{reflect.ValueOf(raw)}, dispatch.DispatchResult{}, true
	}

	switch params.Kind {
	case jsonrpc.ParamsAbsent:
		if len(e.params) != 0 {
			return nil, mismatchedParamCount(e.method), false
		}
		return nil, dispatch.DispatchResult{}, true

	case jsonrpc.ParamsArray:
		if len(params.Array) != len(e.params) {
			return nil, mismatchedParamCount(e.method), false
		}
		args := make([]reflect.Value, len(e.params))
		for i, p := range e.params {
			v, err := decodeParam(p, params.Array[i])
			if err != nil {
				return nil, invalidParams(e.method, err), false
			}
			args[i] = v
		}
		return args, dispatch.DispatchResult{}, true

	case jsonrpc.ParamsObject:
		if len(e.params) != 1 || e.params[0].kind != paramStruct {
			return nil, mismatchedParamCount(e.method), false
		}
		v, err := decodeParam(e.params[0], params.Raw)
		if err != nil {
			return nil, invalidParams(e.method, err), false
		}
		return []reflect.Value{v}, dispatch.DispatchResult{}, true

	default:
		return nil, mismatchedParamCount(e.method), false
	}
}

// translateOutputs maps a handler's raw return values to a DispatchResult,
// per spec.md §4.6's `returns` classification.
func (e *handlerEntry) translateOutputs(outs []reflect.Value) dispatch.DispatchResult {
	if e.hasError {
		errOut := outs[len(outs)-1]
		if !errOut.IsNil() {
			err := errOut.Interface().(error)
			if rpcErr, ok := err.(*jsonrpc.RpcError); ok {
				return dispatch.FromRpcError(rpcErr)
			}
			return dispatch.Error(jsonrpc.ServerError, err.Error())
		}
		outs = outs[:len(outs)-1]
	}

	if e.returnsDispatchResult {
		return outs[0].Interface().(dispatch.DispatchResult)
	}
	if !e.hasValue {
		return dispatch.None()
	}

	raw, err := json.Marshal(outs[0].Interface())
	if err != nil {
		return dispatch.Error(jsonrpc.InternalError, "failed to serialize result")
	}
	buf := e.arena.Alloc(len(raw))
	copy(buf, raw)
	return dispatch.Value(json.RawMessage(buf))
}

func mismatchedParamCount(method string) dispatch.DispatchResult {
	return dispatch.Error(jsonrpc.InvalidParams, fmt.Sprintf("%s: mismatched parameter count", method))
}

func invalidParams(method string, err error) dispatch.DispatchResult {
	return dispatch.Error(jsonrpc.InvalidParams, fmt.Sprintf("%s: %v", method, err))
}
