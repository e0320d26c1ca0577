package jsonrpc

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/mnehpets/openrpcserve/endpoint"
)

const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

type JSONRPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *JSONRPCError) Error() string {
	return e.Message
}

func NewError(code int, message string) *JSONRPCError {
	return &JSONRPCError{Code: code, Message: message}
}

// HandlerFunc is a raw JSON-RPC method handler. It receives the undecoded
// params value (nil when the request omits params) and returns the result
// value to serialize. Returning a json.RawMessage emits those bytes
// verbatim, which is how the discovery responder guarantees a byte-stable
// document.
type HandlerFunc func(ctx context.Context, params json.RawMessage) (interface{}, error)

// method is one registered dispatch target: either a raw HandlerFunc or a
// reflected receiver method.
type method struct {
	raw HandlerFunc

	receiver    reflect.Value
	fn          reflect.Method
	paramType   reflect.Type
	paramNames  []string // JSON tag names for validation and named params
	paramFields []int    // field indices for positional params
}

func (m *method) call(ctx context.Context, params json.RawMessage) (result interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("jsonrpc panic: %v", r)
			err = NewError(CodeInternalError, "internal error")
		}
	}()

	if m.raw != nil {
		return m.raw(ctx, params)
	}

	args := make([]reflect.Value, 0, 3)
	args = append(args, m.receiver)
	args = append(args, reflect.ValueOf(ctx))

	if m.paramType != nil {
		if params == nil {
			params = json.RawMessage("null")
		}

		param := reflect.New(m.paramType)

		var paramList []json.RawMessage
		if err := json.Unmarshal(params, &paramList); err == nil {
			// Positional params: array elements map to struct fields by
			// declaration order.
			if len(paramList) != len(m.paramFields) {
				return nil, NewError(CodeInvalidParams, "invalid number of params")
			}
			for i, rawElem := range paramList {
				field := param.Elem().Field(m.paramFields[i])
				if err := json.Unmarshal(rawElem, field.Addr().Interface()); err != nil {
					return nil, NewError(CodeInvalidParams, "invalid params")
				}
			}
		} else {
			// Named params: JSON object keys map to struct fields by json tags.
			if err := json.Unmarshal(params, param.Interface()); err != nil {
				return nil, NewError(CodeInvalidParams, "invalid params")
			}
			var paramMap map[string]json.RawMessage
			if err := json.Unmarshal(params, &paramMap); err == nil {
				for _, name := range m.paramNames {
					if _, ok := paramMap[name]; !ok {
						return nil, NewError(CodeInvalidParams, "missing param: "+name)
					}
				}
			}
		}
		args = append(args, param.Elem())
	}

	results := m.fn.Func.Call(args)

	retResult := results[0].Interface()
	var retErr error
	if !results[1].IsNil() {
		retErr = results[1].Interface().(error)
	}

	return retResult, retErr
}

// Endpoint is a registry of JSON-RPC methods.
// Use endpoint.Handler(e.Endpoint, processors...) to create an http.Handler.
type Endpoint struct {
	mu      sync.RWMutex
	methods map[string]*method
}

// NewEndpoint creates an empty JSON-RPC method registry.
func NewEndpoint() *Endpoint {
	return &Endpoint{
		methods: make(map[string]*method),
	}
}

// Handle registers a raw handler under an exact wire method name. A name
// collision is an error: registration happens at startup and a collision
// means the dispatch surface has diverged from the method catalog.
func (e *Endpoint) Handle(name string, fn HandlerFunc) error {
	if name == "" {
		return fmt.Errorf("jsonrpc: empty method name")
	}
	if fn == nil {
		return fmt.Errorf("jsonrpc: nil handler for method %q", name)
	}
	return e.add(name, &method{raw: fn})
}

// Register adds methods from a receiver struct to the endpoint.
// The namespace prefixes all method names (e.g., "chain" + "GetBlock" ->
// "chain.GetBlock"); use the empty string for no namespace. Only exported
// methods with the signature
//
//	func(ctx context.Context, params <StructType>) (result, error)
//
// are registered. A `_ struct{}` params field with a `jsonrpc:"name"` tag
// overrides the method-name segment.
func (e *Endpoint) Register(namespace string, receiver interface{}) error {
	val := reflect.ValueOf(receiver)
	typ := val.Type()

	registered := 0
	for i := 0; i < val.NumMethod(); i++ {
		fn := typ.Method(i)
		if !fn.IsExported() {
			continue
		}

		handler, methodName := parseMethod(val, fn)
		if handler == nil {
			continue
		}

		name := methodName
		if namespace != "" {
			name = namespace + "." + methodName
		}

		if err := e.add(name, handler); err != nil {
			return err
		}
		registered++
	}
	if registered == 0 {
		return fmt.Errorf("jsonrpc: %s has no registrable methods", typ)
	}
	return nil
}

func (e *Endpoint) add(name string, m *method) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.methods[name]; exists {
		return fmt.Errorf("jsonrpc: method name collision: %s", name)
	}
	e.methods[name] = m
	return nil
}

// Names returns the registered wire method names, sorted. The discovery
// responder uses this to verify the method catalog covers the dispatch
// surface.
func (e *Endpoint) Names() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, 0, len(e.methods))
	for name := range e.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// rpcParams captures the raw JSON-RPC request body. Parsing is deferred
// until inside the endpoint handler, as JSON-RPC requires different handling
// of JSON parse errors than the default body decoding.
type rpcParams struct {
	Body []byte `body:""`
}

// Endpoint is the endpoint function that processes JSON-RPC requests.
// Pass to endpoint.Handler() to create an http.Handler.
func (e *Endpoint) Endpoint(w http.ResponseWriter, r *http.Request, params rpcParams) (endpoint.Renderer, error) {
	if r.Method != http.MethodPost {
		return nil, endpoint.Error(http.StatusMethodNotAllowed, "JSON-RPC requires POST method", nil)
	}

	// Per JSON-RPC over HTTP, Content-Type must be application/json.
	contentType := r.Header.Get("Content-Type")
	if contentType != "" && !strings.HasPrefix(contentType, "application/json") {
		return nil, endpoint.Error(http.StatusUnsupportedMediaType, "Content-Type must be application/json", nil)
	}

	return e.handleBody(r.Context(), params.Body)
}

// handleBody processes the JSON-RPC request body and returns a renderer.
func (e *Endpoint) handleBody(ctx context.Context, body []byte) (endpoint.Renderer, error) {
	var reqs []json.RawMessage
	var single bool

	if len(body) > 0 && body[0] == '[' {
		if err := json.Unmarshal(body, &reqs); err != nil {
			return &rpcRenderer{err: NewError(CodeParseError, "parse error")}, nil
		}
	} else {
		reqs = []json.RawMessage{body}
		single = true
	}

	if len(reqs) == 0 {
		return &rpcRenderer{err: NewError(CodeInvalidRequest, "invalid request")}, nil
	}

	responses := make([]response, 0, len(reqs))
	for _, rawReq := range reqs {
		var req request
		if err := json.Unmarshal(rawReq, &req); err != nil {
			responses = append(responses, response{
				JSONRPC: "2.0",
				Error:   NewError(CodeParseError, "parse error"),
				ID:      nil,
			})
			continue
		}

		if req.JSONRPC != "2.0" {
			responses = append(responses, response{
				JSONRPC: "2.0",
				Error:   NewError(CodeInvalidRequest, "invalid request"),
				ID:      req.ID,
			})
			continue
		}

		if req.Method == "" {
			responses = append(responses, response{
				JSONRPC: "2.0",
				Error:   NewError(CodeInvalidRequest, "method required"),
				ID:      req.ID,
			})
			continue
		}

		// Notification: no id means no response expected.
		if req.ID == nil {
			e.invoke(ctx, req.Method, req.Params)
			continue
		}

		result, err := e.invoke(ctx, req.Method, req.Params)
		resp := response{
			JSONRPC: "2.0",
			ID:      req.ID,
		}
		if err != nil {
			resp.Error = mapError(err)
		} else {
			resp.Result = result
		}
		responses = append(responses, resp)
	}

	// No responses means all requests were notifications.
	if len(responses) == 0 {
		return &rpcRenderer{noContent: true}, nil
	}

	return &rpcRenderer{responses: responses, single: single}, nil
}

type request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      interface{}     `json:"id"`
}

type response struct {
	JSONRPC string      `json:"jsonrpc"`
	Result  interface{} `json:"result,omitempty"`
	Error   interface{} `json:"error,omitempty"`
	ID      interface{} `json:"id,omitempty"`
}

// rpcRenderer renders JSON-RPC responses.
type rpcRenderer struct {
	responses []response
	single    bool
	noContent bool
	err       *JSONRPCError
}

func (r *rpcRenderer) Render(w http.ResponseWriter, req *http.Request) error {
	w.Header().Set("Content-Type", "application/json")

	// HTML escaping off so json.RawMessage results pass through byte-exact.
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if r.err != nil {
		w.WriteHeader(http.StatusOK)
		return enc.Encode(response{
			JSONRPC: "2.0",
			Error:   r.err,
			ID:      nil,
		})
	}

	if r.noContent {
		w.WriteHeader(http.StatusNoContent)
		return nil
	}

	w.WriteHeader(http.StatusOK)
	if r.single {
		return enc.Encode(r.responses[0])
	}
	return enc.Encode(r.responses)
}

// parseMethod extracts method signature information via reflection.
// Valid signature: func(ctx context.Context, params <struct>) (result, error)
// Returns nil for invalid signatures.
func parseMethod(receiver reflect.Value, fn reflect.Method) (*method, string) {
	ft := fn.Func.Type()

	if ft.NumIn() != 3 {
		return nil, ""
	}
	if ft.In(1) != reflect.TypeOf((*context.Context)(nil)).Elem() {
		return nil, ""
	}
	if ft.NumOut() != 2 {
		return nil, ""
	}
	if ft.Out(1) != reflect.TypeOf((*error)(nil)).Elem() {
		return nil, ""
	}

	paramType := ft.In(2)
	if paramType.Kind() != reflect.Struct {
		return nil, ""
	}

	m := &method{
		receiver:  receiver,
		fn:        fn,
		paramType: paramType,
	}
	name := fn.Name

	paramNames := make([]string, 0)
	paramFields := make([]int, 0)
	for i := 0; i < paramType.NumField(); i++ {
		field := paramType.Field(i)
		if field.Name == "_" {
			if tag := field.Tag.Get("jsonrpc"); tag != "" {
				name = tag
			}
			continue
		}
		jsonTag := field.Tag.Get("json")
		if jsonTag == "" {
			paramNames = append(paramNames, field.Name)
			paramFields = append(paramFields, i)
		} else {
			tagName := strings.Split(jsonTag, ",")[0]
			if tagName == "" || tagName == "-" {
				continue
			}
			paramNames = append(paramNames, tagName)
			paramFields = append(paramFields, i)
		}
	}
	m.paramNames = paramNames
	m.paramFields = paramFields

	return m, name
}

func (e *Endpoint) invoke(ctx context.Context, name string, params json.RawMessage) (interface{}, error) {
	e.mu.RLock()
	m, ok := e.methods[name]
	e.mu.RUnlock()

	if !ok {
		return nil, NewError(CodeMethodNotFound, "method not found: "+name)
	}

	return m.call(ctx, params)
}

// mapError converts any error to a JSON-RPC error.
// JSONRPCError values preserve their code; other errors become InternalError.
func mapError(err error) interface{} {
	if rpcErr, ok := err.(*JSONRPCError); ok {
		return rpcErr
	}
	return &JSONRPCError{
		Code:    CodeInternalError,
		Message: err.Error(),
	}
}
