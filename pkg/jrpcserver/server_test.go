package jrpcserver

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richard-senior/jrpc/pkg/dispatch"
	"github.com/richard-senior/jrpc/pkg/framer"
	"github.com/richard-senior/jrpc/pkg/jsonrpc"
)

type echoDispatcher struct{}

func (echoDispatcher) Dispatch(req *jsonrpc.RpcRequest) (dispatch.DispatchResult, any, error) {
	raw, _ := jsonrpcMarshalParams(req)
	return dispatch.Value(raw), nil, nil
}

func (echoDispatcher) DispatchEnd(*jsonrpc.RpcRequest, any) {}

func jsonrpcMarshalParams(req *jsonrpc.RpcRequest) ([]byte, error) {
	if req.Params.Kind == jsonrpc.ParamsArray && len(req.Params.Array) > 0 {
		return req.Params.Array[0], nil
	}
	return []byte("null"), nil
}

func TestServerRunProcessesFramesUntilEOF(t *testing.T) {
	var in bytes.Buffer
	in.WriteString("{\"jsonrpc\":\"2.0\",\"method\":\"echo\",\"params\":[1],\"id\":1}\n")
	in.WriteString("{\"jsonrpc\":\"2.0\",\"method\":\"echo\",\"params\":[2],\"id\":2}\n")

	var out bytes.Buffer
	f := framer.NewDelimited(&in, &out)
	p := dispatch.NewRequestPipeline(echoDispatcher{}, nil)
	s := New(f, p)

	err := s.run()
	require.NoError(t, err)

	assert.Equal(t,
		"{\"jsonrpc\":\"2.0\",\"result\":1,\"id\":1}\n{\"jsonrpc\":\"2.0\",\"result\":2,\"id\":2}\n",
		out.String(),
	)
}

type endStreamDispatcher struct{}

func (endStreamDispatcher) Dispatch(req *jsonrpc.RpcRequest) (dispatch.DispatchResult, any, error) {
	raw, _ := jsonrpcMarshalParams(req)
	return dispatch.Value(raw).Ending(), nil, nil
}

func (endStreamDispatcher) DispatchEnd(*jsonrpc.RpcRequest, any) {}

func TestServerRunStopsOnEndStream(t *testing.T) {
	var in bytes.Buffer
	in.WriteString("{\"jsonrpc\":\"2.0\",\"method\":\"shutdown\",\"params\":[\"bye\"],\"id\":1}\n")
	in.WriteString("{\"jsonrpc\":\"2.0\",\"method\":\"shutdown\",\"params\":[\"unreachable\"],\"id\":2}\n")

	var out bytes.Buffer
	f := framer.NewDelimited(&in, &out)
	p := dispatch.NewRequestPipeline(endStreamDispatcher{}, nil)
	s := New(f, p)

	err := s.run()
	require.NoError(t, err)
	assert.Equal(t, "{\"jsonrpc\":\"2.0\",\"result\":\"bye\",\"id\":1}\n", out.String())
}
