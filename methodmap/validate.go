package methodmap

import (
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

var (
	// ErrDuplicateMethod reports two methods sharing a wire name.
	ErrDuplicateMethod = errors.New("methodmap: duplicate method name")
	// ErrDuplicateParam reports two params sharing a name within one method.
	ErrDuplicateParam = errors.New("methodmap: duplicate param name")
	// ErrDuplicateType reports one identifier bound to two divergent shapes.
	ErrDuplicateType = errors.New("methodmap: duplicate type identifier with divergent shape")
	// ErrUndefinedType reports a named TypeRef with no matching TypeDef.
	ErrUndefinedType = errors.New("methodmap: undefined type identifier")
	// ErrInvalidTypeRef reports a structurally malformed TypeRef.
	ErrInvalidTypeRef = errors.New("methodmap: invalid type reference")
)

// Validate checks the map's integrity invariants and fails fast on the first
// violation. A validated map is safe to hand to the document builder; a map
// that fails validation must never be used to serve discovery responses.
//
// Identical duplicate TypeDefs (same identifier, same structural fingerprint)
// are collapsed in place rather than rejected, since they satisfy the
// one-identifier-one-shape invariant.
func (m *Map) Validate() error {
	seen := make(map[string]struct{}, len(m.Methods))
	for i := range m.Methods {
		mm := &m.Methods[i]
		if mm.Name == "" {
			return fmt.Errorf("methodmap: method %d: empty name", i)
		}
		if _, dup := seen[mm.Name]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateMethod, mm.Name)
		}
		seen[mm.Name] = struct{}{}

		params := make(map[string]struct{}, len(mm.Params))
		for _, p := range mm.Params {
			if p.Name == "" {
				return fmt.Errorf("methodmap: method %q: param with empty name", mm.Name)
			}
			if _, dup := params[p.Name]; dup {
				return fmt.Errorf("%w: %q in method %q", ErrDuplicateParam, p.Name, mm.Name)
			}
			params[p.Name] = struct{}{}
			if err := p.Type.check(); err != nil {
				return fmt.Errorf("method %q param %q: %w", mm.Name, p.Name, err)
			}
			if len(p.Default) > 0 && !json.Valid(p.Default) {
				return fmt.Errorf("methodmap: method %q param %q: default is not valid JSON", mm.Name, p.Name)
			}
		}
		if mm.Result != nil {
			if err := mm.Result.Type.check(); err != nil {
				return fmt.Errorf("method %q result: %w", mm.Name, err)
			}
		}
	}

	if err := m.collapseTypes(); err != nil {
		return err
	}

	// Every named reference, including those inside type definitions, must
	// resolve to a definition in this map.
	defined := make(map[string]struct{}, len(m.Types))
	for _, td := range m.Types {
		defined[td.Name] = struct{}{}
	}
	check := func(t TypeRef, where string) error {
		for _, name := range t.namedRefs(nil) {
			if _, ok := defined[name]; !ok {
				return fmt.Errorf("%w: %q referenced by %s", ErrUndefinedType, name, where)
			}
		}
		return nil
	}
	for _, mm := range m.Methods {
		for _, p := range mm.Params {
			if err := check(p.Type, fmt.Sprintf("method %q param %q", mm.Name, p.Name)); err != nil {
				return err
			}
		}
		if mm.Result != nil {
			if err := check(mm.Result.Type, fmt.Sprintf("method %q result", mm.Name)); err != nil {
				return err
			}
		}
	}
	for _, td := range m.Types {
		for _, f := range td.Fields {
			if err := f.Type.check(); err != nil {
				return fmt.Errorf("type %q field %q: %w", td.Name, f.Name, err)
			}
			if err := check(f.Type, fmt.Sprintf("type %q field %q", td.Name, f.Name)); err != nil {
				return err
			}
		}
		if len(td.Raw) > 0 && !json.Valid(td.Raw) {
			return fmt.Errorf("methodmap: type %q: raw fragment is not valid JSON", td.Name)
		}
	}
	return nil
}

// collapseTypes deduplicates identical TypeDefs and rejects divergent ones.
func (m *Map) collapseTypes() error {
	kept := m.Types[:0]
	prints := make(map[string][32]byte, len(m.Types))
	for _, td := range m.Types {
		if td.Name == "" {
			return errors.New("methodmap: type definition with empty name")
		}
		fp, err := td.fingerprint()
		if err != nil {
			return fmt.Errorf("methodmap: type %q: %w", td.Name, err)
		}
		if prev, ok := prints[td.Name]; ok {
			if prev != fp {
				return fmt.Errorf("%w: %q", ErrDuplicateType, td.Name)
			}
			continue // identical duplicate, drop it
		}
		prints[td.Name] = fp
		kept = append(kept, td)
	}
	m.Types = kept
	return nil
}

// fingerprint hashes the definition's canonical JSON form. Two definitions
// describe the same shape iff their fingerprints are equal: json.Marshal of
// the struct is deterministic, and descriptions participate so a doc change
// on a shared type is also flagged as divergence.
func (td *TypeDef) fingerprint() ([32]byte, error) {
	b, err := json.Marshal(td)
	if err != nil {
		return [32]byte{}, err
	}
	return blake2b.Sum256(b), nil
}

// check verifies the structural well-formedness of a single TypeRef.
func (t TypeRef) check() error {
	switch t.Kind {
	case KindString, KindBoolean, KindNull:
		return nil
	case KindInteger:
		switch t.Format {
		case "", "int32", "int64", "uint32", "uint64":
			return nil
		}
		return fmt.Errorf("%w: unknown integer format %q", ErrInvalidTypeRef, t.Format)
	case KindNumber:
		switch t.Format {
		case "", "float", "double":
			return nil
		}
		return fmt.Errorf("%w: unknown number format %q", ErrInvalidTypeRef, t.Format)
	case KindNamed:
		if t.Name == "" {
			return fmt.Errorf("%w: named reference with empty identifier", ErrInvalidTypeRef)
		}
		return nil
	case KindArray, KindMap, KindOptional:
		if t.Elem == nil {
			return fmt.Errorf("%w: %s with nil element", ErrInvalidTypeRef, t.Kind)
		}
		return t.Elem.check()
	case KindRaw:
		if len(t.Raw) == 0 || !json.Valid(t.Raw) {
			return fmt.Errorf("%w: raw fragment is not valid JSON", ErrInvalidTypeRef)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidTypeRef, t.Kind)
	}
}

// namedRefs appends the identifiers of all named composites reachable from
// this TypeRef without following definitions (one level of references).
func (t TypeRef) namedRefs(acc []string) []string {
	switch t.Kind {
	case KindNamed:
		return append(acc, t.Name)
	case KindArray, KindMap, KindOptional:
		if t.Elem != nil {
			return t.Elem.namedRefs(acc)
		}
	}
	return acc
}
