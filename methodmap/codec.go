package methodmap

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

// Format selects the artifact encoding for a Map.
type Format string

const (
	// FormatJSON is the human-readable artifact form, suitable for review
	// diffs in a build pipeline.
	FormatJSON Format = "json"
	// FormatCBOR is the compact binary artifact form.
	FormatCBOR Format = "cbor"
)

// cbor encoding options: deterministic (core deterministic encoding) so the
// binary artifact is byte-stable for equal maps, like the JSON form.
var cborEnc cbor.EncMode

func init() {
	var err error
	cborEnc, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("methodmap: cbor encoder options: " + err.Error())
	}
}

// Encode writes the map to w in the given format. The JSON form is indented;
// both forms are deterministic for equal maps.
func (m *Map) Encode(w io.Writer, f Format) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(m)
	case FormatCBOR:
		b, err := cborEnc.Marshal(m)
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	default:
		return fmt.Errorf("methodmap: unknown artifact format %q", f)
	}
}

// Decode reads a map from r in the given format and validates it. A map that
// fails validation is never returned.
func Decode(r io.Reader, f Format) (*Map, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("methodmap: read artifact: %w", err)
	}
	var m Map
	switch f {
	case FormatJSON:
		if err := json.Unmarshal(b, &m); err != nil {
			return nil, fmt.Errorf("methodmap: decode json artifact: %w", err)
		}
	case FormatCBOR:
		if err := cbor.Unmarshal(b, &m); err != nil {
			return nil, fmt.Errorf("methodmap: decode cbor artifact: %w", err)
		}
	default:
		return nil, fmt.Errorf("methodmap: unknown artifact format %q", f)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// FormatForPath guesses the artifact format from a file extension. ".cbor"
// selects CBOR; everything else (including ".json") selects JSON.
func FormatForPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".cbor") {
		return FormatCBOR
	}
	return FormatJSON
}

// Load reads and validates a map artifact from disk, picking the format from
// the file extension.
func Load(path string) (*Map, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("methodmap: open artifact: %w", err)
	}
	defer f.Close()
	return Decode(f, FormatForPath(path))
}

// WriteFile writes the map artifact to disk, picking the format from the
// file extension.
func (m *Map) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("methodmap: create artifact: %w", err)
	}
	if err := m.Encode(f, FormatForPath(path)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
