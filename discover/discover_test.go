package discover

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mnehpets/openrpcserve/endpoint"
	"github.com/mnehpets/openrpcserve/jsonrpc"
	"github.com/mnehpets/openrpcserve/methodmap"
	"github.com/mnehpets/openrpcserve/openrpc"
)

func testMap() *methodmap.Map {
	return &methodmap.Map{
		Methods: []methodmap.Method{
			{
				Name:        "getinfo",
				Description: "Returns node status.",
				Result:      &methodmap.Result{Type: methodmap.Named("Info")},
			},
			{
				Name:        "ping",
				Description: "Liveness check.",
				Result:      &methodmap.Result{Type: methodmap.String()},
			},
		},
		Types: []methodmap.TypeDef{
			{
				Name: "Info",
				Fields: []methodmap.Field{
					{Name: "version", Type: methodmap.String(), Required: true},
				},
			},
		},
	}
}

func testConfig() openrpc.Config {
	return openrpc.Config{Title: "Node API", Version: "1.0.0"}
}

func newResponder(t *testing.T) *Responder {
	t.Helper()
	r, err := New(testMap(), testConfig())
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestNewFailsOnInvalidMap(t *testing.T) {
	m := testMap()
	m.Methods[0].Result.Type = methodmap.Named("Ghost")
	if _, err := New(m, testConfig()); err == nil {
		t.Fatal("responder constructed from an invalid map")
	}
}

func TestNewFailsOnInvalidConfig(t *testing.T) {
	if _, err := New(testMap(), openrpc.Config{}); err == nil {
		t.Fatal("responder constructed from an empty config")
	}
}

func TestJSONIsACopy(t *testing.T) {
	r := newResponder(t)
	a := r.JSON()
	b := r.JSON()
	if !bytes.Equal(a, b) {
		t.Fatal("JSON() not stable")
	}
	a[0] = 'X'
	if bytes.Equal(a[:1], b[:1]) {
		t.Error("JSON() returned shared backing array")
	}
}

func TestDiscoverOverHTTP(t *testing.T) {
	r := newResponder(t)
	e := jsonrpc.NewEndpoint()
	if err := r.Attach(e); err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewServer(endpoint.Handler(e.Endpoint))
	defer srv.Close()

	call := func() json.RawMessage {
		t.Helper()
		resp, err := http.Post(srv.URL, "application/json",
			strings.NewReader(`{"jsonrpc":"2.0","method":"rpc.discover","id":1}`))
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()

		var body struct {
			Result json.RawMessage `json:"result"`
			Error  json.RawMessage `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatal(err)
		}
		if body.Error != nil {
			t.Fatalf("rpc error: %s", body.Error)
		}
		return body.Result
	}

	first := call()
	if !bytes.Equal(first, r.JSON()) {
		t.Errorf("served document differs from built document:\n%s\nvs\n%s", first, r.JSON())
	}
	// Byte-identical across requests.
	if second := call(); !bytes.Equal(first, second) {
		t.Error("two rpc.discover calls returned different bytes")
	}

	doc, err := openrpc.Parse(first)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Methods) != 2 || doc.Methods[0].Name != "getinfo" {
		t.Errorf("unexpected parsed document: %+v", doc.Methods)
	}
}

func TestCheckCoverage(t *testing.T) {
	r := newResponder(t)

	tests := []struct {
		name       string
		registered []string
		wantErr    string
	}{
		{"exact", []string{"getinfo", "ping"}, ""},
		{"discover exempt", []string{"getinfo", "ping", MethodName}, ""},
		{"undescribed", []string{"getinfo", "ping", "shutdown"}, "not described"},
		{"unregistered", []string{"getinfo"}, "not dispatched"},
		{"empty", nil, "not dispatched"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.CheckCoverage(tt.registered)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("got %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestDocumentEndpoint(t *testing.T) {
	r := newResponder(t)
	srv := httptest.NewServer(endpoint.Handler(r.Endpoint))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf.Bytes(), r.JSON()) {
		t.Error("document endpoint body differs from built document")
	}
}

func TestDocumentEndpointPretty(t *testing.T) {
	r := newResponder(t)
	srv := httptest.NewServer(endpoint.Handler(r.Endpoint))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "?pretty=true")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("\n  ")) {
		t.Error("pretty output not indented")
	}

	// Same document, different whitespace.
	compact := new(bytes.Buffer)
	if err := json.Compact(compact, buf.Bytes()); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(compact.Bytes(), r.JSON()) {
		t.Error("pretty output compacts to a different document")
	}
}

func TestDocumentEndpointRejectsPost(t *testing.T) {
	r := newResponder(t)
	srv := httptest.NewServer(endpoint.Handler(r.Endpoint))
	defer srv.Close()

	resp, err := http.Post(srv.URL, "application/json", strings.NewReader("{}"))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}
}
