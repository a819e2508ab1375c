package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/richard-senior/jrpc/pkg/dispatch"
)

var (
	contextType        = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType          = reflect.TypeOf((*error)(nil)).Elem()
	arenaType          = reflect.TypeOf((*Arena)(nil))
	dispatchResultType = reflect.TypeOf(dispatch.DispatchResult{})
	rawMessageType     = reflect.TypeOf(json.RawMessage(nil))
)

// maxPositionalParams caps user-declared positional parameters, per
// spec.md §4.6's TooManyParameters registration failure.
const maxPositionalParams = 9

// paramKind classifies one user-declared parameter's JSON mapping
// strategy, per spec.md §4.6.
type paramKind int

const (
	paramRaw paramKind = iota
	paramPrimitive
	paramStruct
	paramOptional
	paramSequence
)

type paramDescriptor struct {
	kind paramKind
	typ  reflect.Type
}

// handlerEntry is the bound, type-erased invoker for one registered
// method, plus its own arena (spec.md §4.6: "the arena is owned per
// registered method entry").
type handlerEntry struct {
	method string
	fn     reflect.Value

	hasCtx   bool
	ctxValue reflect.Value

	hasArena bool
	arena    *Arena

	params []paramDescriptor

	hasValue              bool
	hasError              bool
	returnsDispatchResult bool
}

// newHandlerEntry reflects on handler's signature and builds its
// descriptor, per the registration contract in spec.md §4.6. ctx is the
// fixed context value to supply on every dispatch when the handler expects
// one; nil means the handler takes no context.Context parameter.
func newHandlerEntry(method string, ctx any, handler any) (*handlerEntry, error) {
	fnVal := reflect.ValueOf(handler)
	if fnVal.Kind() != reflect.Func {
		return nil, &RegistrationError{Kind: HandlerNotFunction, Method: method, Detail: fmt.Sprintf("%T", handler)}
	}
	fnType := fnVal.Type()
	entry := &handlerEntry{method: method, fn: fnVal, arena: &Arena{}}

	idx := 0
	if ctx != nil {
		if idx >= fnType.NumIn() || fnType.In(idx) != contextType {
			return nil, &RegistrationError{Kind: UnsupportedParameterType, Method: method, Detail: "context provided at registration but handler's first parameter is not context.Context"}
		}
		entry.hasCtx = true
		entry.ctxValue = reflect.ValueOf(ctx)
		idx++
	}

	if idx < fnType.NumIn() && fnType.In(idx) == arenaType {
		entry.hasArena = true
		idx++
	}

	for ; idx < fnType.NumIn(); idx++ {
		t := fnType.In(idx)
		kind, err := classifyParam(t)
		if err != nil {
			return nil, &RegistrationError{Kind: UnsupportedParameterType, Method: method, Detail: err.Error()}
		}
		entry.params = append(entry.params, paramDescriptor{kind: kind, typ: t})
	}
	if len(entry.params) > maxPositionalParams {
		return nil, &RegistrationError{Kind: TooManyParameters, Method: method, Detail: fmt.Sprintf("%d declared, max %d", len(entry.params), maxPositionalParams)}
	}

	totalOut := fnType.NumOut()
	entry.hasError = totalOut > 0 && fnType.Out(totalOut-1) == errorType
	valueCount := totalOut
	if entry.hasError {
		valueCount--
	}
	if valueCount > 1 {
		return nil, &RegistrationError{Kind: HandlerNotFunction, Method: method, Detail: "more than one non-error return value"}
	}
	if valueCount == 1 {
		if fnType.Out(0) == dispatchResultType {
			entry.returnsDispatchResult = true
		} else {
			entry.hasValue = true
		}
	}

	if entry.returnsDispatchResult && !entry.hasArena {
		return nil, &RegistrationError{Kind: MissingArena, Method: method, Detail: "handlers returning DispatchResult must declare an *registry.Arena parameter"}
	}

	return entry, nil
}

func classifyParam(t reflect.Type) (paramKind, error) {
	switch {
	case t == rawMessageType:
		return paramRaw, nil
	case t.Kind() == reflect.Ptr:
		return paramOptional, nil
	case t.Kind() == reflect.Slice || t.Kind() == reflect.Array:
		return paramSequence, nil
	case t.Kind() == reflect.Struct || t.Kind() == reflect.Map:
		return paramStruct, nil
	case isPrimitiveKind(t.Kind()):
		return paramPrimitive, nil
	default:
		return 0, fmt.Errorf("unsupported parameter type %s", t)
	}
}

func isPrimitiveKind(k reflect.Kind) bool {
	switch k {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64,
		reflect.String:
		return true
	default:
		return false
	}
}

func decodeParam(p paramDescriptor, raw json.RawMessage) (reflect.Value, error) {
	ptr := reflect.New(p.typ)
	if err := json.Unmarshal(raw, ptr.Interface()); err != nil {
		return reflect.Value{}, err
	}
	return ptr.Elem(), nil
}
