package registry

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richard-senior/jrpc/pkg/dispatch"
	"github.com/richard-senior/jrpc/pkg/jsonrpc"
)

func arrayParams(t *testing.T, values ...any) jsonrpc.Params {
	t.Helper()
	arr := make([]json.RawMessage, len(values))
	for i, v := range values {
		raw, err := json.Marshal(v)
		require.NoError(t, err)
		arr[i] = raw
	}
	return jsonrpc.Params{Kind: jsonrpc.ParamsArray, Array: arr}
}

func objectParams(t *testing.T, v any) jsonrpc.Params {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return jsonrpc.Params{Kind: jsonrpc.ParamsObject, Raw: raw}
}

func mustRegister(t *testing.T, r *Registry, method string, ctx any, handler any) {
	t.Helper()
	require.NoError(t, r.Register(method, ctx, handler))
}

func TestRegisterRejectsRpcPrefix(t *testing.T) {
	r := New()
	err := r.Register("rpc.internal", nil, func() {})
	require.Error(t, err)
	var regErr *RegistrationError
	require.ErrorAs(t, err, &regErr)
	assert.Equal(t, InvalidMethodName, regErr.Kind)
}

func TestRegisterRejectsNonFunction(t *testing.T) {
	r := New()
	err := r.Register("echo", nil, "not a function")
	var regErr *RegistrationError
	require.ErrorAs(t, err, &regErr)
	assert.Equal(t, HandlerNotFunction, regErr.Kind)
}

func TestRegisterRejectsTooManyParameters(t *testing.T) {
	r := New()
	fn := func(a, b, c, d, e, f, g, h, i, j int) int { return a }
	err := r.Register("toomany", nil, fn)
	var regErr *RegistrationError
	require.ErrorAs(t, err, &regErr)
	assert.Equal(t, TooManyParameters, regErr.Kind)
}

func TestRegisterDispatchResultWithoutArenaIsMissingArena(t *testing.T) {
	r := New()
	fn := func() dispatch.DispatchResult { return dispatch.None() }
	err := r.Register("needs_arena", nil, fn)
	var regErr *RegistrationError
	require.ErrorAs(t, err, &regErr)
	assert.Equal(t, MissingArena, regErr.Kind)
}

func TestDispatchPositionalParams(t *testing.T) {
	r := New()
	mustRegister(t, r, "add", nil, func(a, b int) int { return a + b })

	result, token, err := r.Dispatch(&jsonrpc.RpcRequest{Method: "add", Params: arrayParams(t, 1, 2)})
	require.NoError(t, err)
	require.Equal(t, dispatch.KindValue, result.Kind)
	assert.JSONEq(t, "3", string(result.Json))
	r.DispatchEnd(nil, token)
}

func TestDispatchNamedObjectParams(t *testing.T) {
	type greetArgs struct {
		Name string `json:"name"`
	}
	r := New()
	mustRegister(t, r, "greet", nil, func(args greetArgs) string { return "hello " + args.Name })

	result, _, err := r.Dispatch(&jsonrpc.RpcRequest{Method: "greet", Params: objectParams(t, greetArgs{Name: "Ada"})})
	require.NoError(t, err)
	assert.JSONEq(t, `"hello Ada"`, string(result.Json))
}

func TestDispatchOptionalParamAcceptsNull(t *testing.T) {
	r := New()
	var gotNil bool
	mustRegister(t, r, "maybe", nil, func(s *string) string {
		gotNil = s == nil
		if s == nil {
			return "none"
		}
		return *s
	})

	result, _, err := r.Dispatch(&jsonrpc.RpcRequest{Method: "maybe", Params: arrayParams(t, nil)})
	require.NoError(t, err)
	assert.True(t, gotNil)
	assert.JSONEq(t, `"none"`, string(result.Json))
}

func TestDispatchRawPassthroughBypassesShapeValidation(t *testing.T) {
	r := New()
	var seen json.RawMessage
	mustRegister(t, r, "raw", nil, func(p json.RawMessage) {
		seen = p
	})

	result, _, err := r.Dispatch(&jsonrpc.RpcRequest{
		Method: "raw",
		Params: jsonrpc.Params{Kind: jsonrpc.ParamsObject, Raw: json.RawMessage(`{"x":1}`)},
	})
	require.NoError(t, err)
	assert.Equal(t, dispatch.KindNone, result.Kind)
	assert.JSONEq(t, `{"x":1}`, string(seen))
}

func TestDispatchMismatchedArrayLengthIsInvalidParams(t *testing.T) {
	r := New()
	mustRegister(t, r, "add", nil, func(a, b int) int { return a + b })

	result, _, err := r.Dispatch(&jsonrpc.RpcRequest{Method: "add", Params: arrayParams(t, 1)})
	require.NoError(t, err)
	require.Equal(t, dispatch.KindError, result.Kind)
	assert.Equal(t, jsonrpc.InvalidParams, result.Err.Code)
}

func TestDispatchAbsentParamsForZeroArgHandler(t *testing.T) {
	r := New()
	called := false
	mustRegister(t, r, "ping", nil, func() { called = true })

	result, _, err := r.Dispatch(&jsonrpc.RpcRequest{Method: "ping", Params: jsonrpc.Params{Kind: jsonrpc.ParamsAbsent}})
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, dispatch.KindNone, result.Kind)
}

func TestDispatchErrorReturnBecomesServerError(t *testing.T) {
	r := New()
	mustRegister(t, r, "boom", nil, func() (int, error) { return 0, errors.New("kaboom") })

	result, _, err := r.Dispatch(&jsonrpc.RpcRequest{Method: "boom", Params: jsonrpc.Params{Kind: jsonrpc.ParamsAbsent}})
	require.NoError(t, err)
	require.Equal(t, dispatch.KindError, result.Kind)
	assert.Equal(t, jsonrpc.ServerError, result.Err.Code)
	assert.Contains(t, result.Err.Message, "kaboom")
}

func TestDispatchRpcErrorReturnIsPassedThroughVerbatim(t *testing.T) {
	r := New()
	mustRegister(t, r, "strict", nil, func() (int, error) {
		return 0, jsonrpc.NewRpcError(jsonrpc.InvalidParams, "bad value")
	})

	result, _, err := r.Dispatch(&jsonrpc.RpcRequest{Method: "strict", Params: jsonrpc.Params{Kind: jsonrpc.ParamsAbsent}})
	require.NoError(t, err)
	assert.Equal(t, jsonrpc.InvalidParams, result.Err.Code)
	assert.Equal(t, "bad value", result.Err.Message)
}

func TestDispatchWithContextPassesStoredValue(t *testing.T) {
	type ctxKey struct{}
	ctx := context.WithValue(context.Background(), ctxKey{}, "tenant-1")

	r := New()
	var seen string
	mustRegister(t, r, "who", ctx, func(c context.Context) string {
		seen = c.Value(ctxKey{}).(string)
		return seen
	})

	result, _, err := r.Dispatch(&jsonrpc.RpcRequest{Method: "who", Params: jsonrpc.Params{Kind: jsonrpc.ParamsAbsent}})
	require.NoError(t, err)
	assert.Equal(t, "tenant-1", seen)
	assert.JSONEq(t, `"tenant-1"`, string(result.Json))
}

func TestDispatchResultPassthroughUsesArena(t *testing.T) {
	r := New()
	mustRegister(t, r, "raw_result", nil, func(a *Arena) dispatch.DispatchResult {
		buf := a.Alloc(1)
		buf[0] = '1'
		return dispatch.Value(json.RawMessage(buf))
	})

	result, token, err := r.Dispatch(&jsonrpc.RpcRequest{Method: "raw_result", Params: jsonrpc.Params{Kind: jsonrpc.ParamsAbsent}})
	require.NoError(t, err)
	assert.Equal(t, "1", string(result.Json))
	r.DispatchEnd(nil, token)
}

func TestDispatchMethodNotFoundUsesFallbackWhenInstalled(t *testing.T) {
	r := New()
	r.OnFallback(func(req *jsonrpc.RpcRequest) dispatch.DispatchResult {
		return dispatch.Error(jsonrpc.MethodNotFound, "no such thing: "+req.Method)
	})

	result, _, err := r.Dispatch(&jsonrpc.RpcRequest{Method: "ghost", Params: jsonrpc.Params{Kind: jsonrpc.ParamsAbsent}})
	require.NoError(t, err)
	assert.Equal(t, jsonrpc.MethodNotFound, result.Err.Code)
	assert.Contains(t, result.Err.Message, "ghost")
}

func TestDispatchRegisteredMethodWinsOverFallback(t *testing.T) {
	r := New()
	mustRegister(t, r, "real", nil, func() string { return "real" })
	r.OnFallback(func(req *jsonrpc.RpcRequest) dispatch.DispatchResult {
		t.Fatal("fallback should not run for a registered method")
		return dispatch.None()
	})

	result, _, err := r.Dispatch(&jsonrpc.RpcRequest{Method: "real", Params: jsonrpc.Params{Kind: jsonrpc.ParamsAbsent}})
	require.NoError(t, err)
	assert.JSONEq(t, `"real"`, string(result.Json))
}

func TestHooksRunAroundDispatch(t *testing.T) {
	r := New()
	var order []string
	r.OnBefore(func(*jsonrpc.RpcRequest) { order = append(order, "before") })
	r.OnAfter(func(*jsonrpc.RpcRequest, dispatch.DispatchResult) { order = append(order, "after") })
	mustRegister(t, r, "noop", nil, func() { order = append(order, "handler") })

	_, _, err := r.Dispatch(&jsonrpc.RpcRequest{Method: "noop", Params: jsonrpc.Params{Kind: jsonrpc.ParamsAbsent}})
	require.NoError(t, err)
	assert.Equal(t, []string{"before", "handler", "after"}, order)
}

func TestDispatchEndResetsArenaRetainingCeiling(t *testing.T) {
	r := New()
	mustRegister(t, r, "big", nil, func() string {
		return string(make([]byte, 4096))
	})

	_, token, err := r.Dispatch(&jsonrpc.RpcRequest{Method: "big", Params: jsonrpc.Params{Kind: jsonrpc.ParamsAbsent}})
	require.NoError(t, err)
	entry := token.(*handlerEntry)
	require.Greater(t, cap(entry.arena.buf), arenaRetainCeiling)

	r.DispatchEnd(nil, token)
	assert.Equal(t, 0, len(entry.arena.buf))
	assert.LessOrEqual(t, cap(entry.arena.buf), arenaRetainCeiling)
}
