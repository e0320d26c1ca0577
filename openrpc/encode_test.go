package openrpc

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEncodeJSONStable(t *testing.T) {
	doc, err := Build(nodeMap(), testConfig())
	if err != nil {
		t.Fatal(err)
	}

	var a, b bytes.Buffer
	if err := doc.EncodeJSON(&a); err != nil {
		t.Fatal(err)
	}
	if err := doc.EncodeJSON(&b); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Error("encoding the same document twice produced different bytes")
	}
	if !strings.HasPrefix(a.String(), "{\n  \"openrpc\": \"1.3.2\"") {
		t.Errorf("unexpected prefix: %q", a.String()[:40])
	}
}

func TestMarshalCompact(t *testing.T) {
	doc, err := Build(nodeMap(), testConfig())
	if err != nil {
		t.Fatal(err)
	}
	raw, err := doc.MarshalCompact()
	if err != nil {
		t.Fatal(err)
	}
	if bytes.ContainsAny(raw, "\n") {
		t.Error("compact form contains newlines")
	}
	if !bytes.HasPrefix(raw, []byte(`{"openrpc":"1.3.2"`)) {
		t.Errorf("unexpected prefix: %s", raw[:30])
	}
}

func TestParseRoundTrip(t *testing.T) {
	doc, err := Build(nodeMap(), testConfig())
	if err != nil {
		t.Fatal(err)
	}
	raw, err := doc.MarshalCompact()
	if err != nil {
		t.Fatal(err)
	}

	parsed, err := Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	if parsed.OpenRPC != doc.OpenRPC {
		t.Errorf("openrpc = %q", parsed.OpenRPC)
	}
	if len(parsed.Methods) != len(doc.Methods) {
		t.Fatalf("methods = %d, want %d", len(parsed.Methods), len(doc.Methods))
	}
	for i := range doc.Methods {
		if parsed.Methods[i].Name != doc.Methods[i].Name {
			t.Errorf("method %d = %q, want %q", i, parsed.Methods[i].Name, doc.Methods[i].Name)
		}
		if len(parsed.Methods[i].Params) != len(doc.Methods[i].Params) {
			t.Errorf("method %q param count changed", doc.Methods[i].Name)
		}
	}
	if diff := cmp.Diff(doc.Info, parsed.Info); diff != "" {
		t.Errorf("info (-want +got):\n%s", diff)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse([]byte(`{"openrpc":`)); err == nil {
		t.Fatal("truncated document accepted")
	}
}

func TestEncodeYAML(t *testing.T) {
	doc, err := Build(nodeMap(), testConfig())
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := doc.EncodeYAML(&buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"openrpc: 1.3.2",
		"title: Node API",
		"name: getblock",
		"#/components/schemas/InfoResult",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("yaml output missing %q:\n%s", want, out)
		}
	}
}

func TestEncodeYAMLDeterministic(t *testing.T) {
	doc, err := Build(nodeMap(), testConfig())
	if err != nil {
		t.Fatal(err)
	}
	var a, b bytes.Buffer
	if err := doc.EncodeYAML(&a); err != nil {
		t.Fatal(err)
	}
	if err := doc.EncodeYAML(&b); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Error("encoding the same document twice produced different YAML")
	}
}
