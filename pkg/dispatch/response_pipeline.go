package dispatch

import "github.com/richard-senior/jrpc/pkg/jsonrpc"

// ResponsePipeline is the client-side counterpart to RequestPipeline: it
// parses incoming bytes as a response or response batch and hands each one
// to a ResponseDispatcher for correlation, per spec.md §4.5. Unlike the
// request side there is no reply to compose; a dispatcher error is logged
// and does not abort the rest of the batch.
type ResponsePipeline struct {
	Dispatcher ResponseDispatcher
	Log        Logger
}

func NewResponsePipeline(d ResponseDispatcher, log Logger) *ResponsePipeline {
	if log == nil {
		log = nopLogger{}
	}
	return &ResponsePipeline{Dispatcher: d, Log: log}
}

// RunResponse parses data as a response or response batch and dispatches
// every item it can. It never returns a Go error for malformed input;
// dispatcher errors are logged per-item rather than aggregated, since one
// bad correlation in a batch must not hide the rest.
func (p *ResponsePipeline) RunResponse(data []byte) {
	msg := jsonrpc.ParseResponse(data)
	msg.ForEach(func(resp *jsonrpc.RpcResponse) {
		if err := p.Dispatcher.Dispatch(resp); err != nil {
			p.Log.Errorf("response dispatch failed for id %s: %v", resp.Id.String(), err)
		}
	})
}
