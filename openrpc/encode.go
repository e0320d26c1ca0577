package openrpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// EncodeJSON writes the document as stable JSON: map keys sorted (the
// encoding/json default), HTML escaping off, two-space indent. Equal
// documents encode to identical bytes.
func (d *Document) EncodeJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("openrpc: encode document: %w", err)
	}
	return nil
}

// MarshalCompact returns the document as compact JSON, the form served over
// the wire by the discovery endpoint.
func (d *Document) MarshalCompact() (json.RawMessage, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(d); err != nil {
		return nil, fmt.Errorf("openrpc: encode document: %w", err)
	}
	return json.RawMessage(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// EncodeYAML writes the document as YAML. The document is routed through its
// JSON form so json tags, omitempty handling, and raw schema fragments apply
// identically; yaml.v3 sorts map keys, so the output is deterministic too.
func (d *Document) EncodeYAML(w io.Writer) error {
	raw, err := d.MarshalCompact()
	if err != nil {
		return err
	}
	var tree any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return fmt.Errorf("openrpc: reparse document: %w", err)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(tree); err != nil {
		return fmt.Errorf("openrpc: encode yaml: %w", err)
	}
	return enc.Close()
}

// Parse decodes a serialized OpenRPC document. Raw schema fragments lose
// keywords outside the structured Schema subset; parsed documents are meant
// for inspection (tests, tooling), not re-serialization.
func Parse(data []byte) (*Document, error) {
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("openrpc: parse document: %w", err)
	}
	return &d, nil
}
