package dispatch

import "github.com/richard-senior/jrpc/pkg/jsonrpc"

// RequestDispatcher is the server-side half of the core: something that can
// take a parsed request and produce a DispatchResult. Dispatch returns an
// opaque token alongside the result; the pipeline passes that token back to
// DispatchEnd once it has finished consuming the result, so a dispatcher
// that owns per-invocation scratch storage (the registry's arena, for
// instance) knows exactly when it is safe to reclaim it. A dispatcher with
// nothing to reclaim is free to return a nil token and an empty DispatchEnd.
//
// Dispatch returning a non-nil error is distinct from returning a KindError
// result: the former means the dispatcher itself malfunctioned (a handler
// panicked, a lookup exploded) and the pipeline is responsible for folding
// that into an InternalError envelope; the latter is a well-formed RPC error
// the dispatcher chose to report.
type RequestDispatcher interface {
	Dispatch(req *jsonrpc.RpcRequest) (result DispatchResult, token any, err error)
	DispatchEnd(req *jsonrpc.RpcRequest, token any)
}

// ResponseDispatcher is the client-side half: given a parsed response, do
// whatever correlation/delivery the caller needs (resolve a pending call,
// feed a channel, log an orphan). It has no result to report back to the
// pipeline; a returned error is logged and otherwise swallowed, since a
// malformed correlation on one response must not abort the whole stream.
type ResponseDispatcher interface {
	Dispatch(resp *jsonrpc.RpcResponse) error
}

// RequestDispatcherFunc adapts a plain function to RequestDispatcher for
// dispatchers that need no token/cleanup step.
type RequestDispatcherFunc func(req *jsonrpc.RpcRequest) (DispatchResult, error)

func (f RequestDispatcherFunc) Dispatch(req *jsonrpc.RpcRequest) (DispatchResult, any, error) {
	result, err := f(req)
	return result, nil, err
}

func (f RequestDispatcherFunc) DispatchEnd(*jsonrpc.RpcRequest, any) {}

// ResponseDispatcherFunc adapts a plain function to ResponseDispatcher.
type ResponseDispatcherFunc func(resp *jsonrpc.RpcResponse) error

func (f ResponseDispatcherFunc) Dispatch(resp *jsonrpc.RpcResponse) error { return f(resp) }
