package openrpc

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mnehpets/openrpcserve/methodmap"
)

var (
	// ErrConfig reports an unusable document configuration.
	ErrConfig = errors.New("openrpc: invalid config")
	// ErrMissingDoc reports an undocumented parameter under StrictDocs.
	ErrMissingDoc = errors.New("openrpc: missing parameter documentation")
)

// Config carries the document-level settings supplied by the embedding
// application. It is not derived from the method map.
type Config struct {
	// Title and Version populate the info block and are required.
	Title   string
	Version string

	// Description optionally populates info.description.
	Description string

	// Servers lists the endpoints the described API is reachable at, in
	// order.
	Servers []Server

	// StrictDocs makes an undocumented parameter a build error. When false,
	// undocumented parameters are emitted with an empty description. In
	// neither mode is prose invented from identifiers.
	StrictDocs bool
}

func (c Config) check() error {
	if c.Title == "" {
		return fmt.Errorf("%w: title is required", ErrConfig)
	}
	if c.Version == "" {
		return fmt.Errorf("%w: version is required", ErrConfig)
	}
	for _, s := range c.Servers {
		if s.URL == "" {
			return fmt.Errorf("%w: server %q has no url", ErrConfig, s.Name)
		}
	}
	return nil
}

// Build assembles an OpenRPC document from a method map and settings.
//
// Methods and params keep the map's declaration order; component schemas are
// keyed by type identifier. Any integrity violation in the map, unresolved
// type reference, or (under StrictDocs) undocumented parameter aborts the
// build. The returned document must be treated as read-only.
func Build(m *methodmap.Map, cfg Config) (*Document, error) {
	if err := cfg.check(); err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}

	gen := newGenerator(m)
	methods := make([]Method, 0, len(m.Methods))
	for _, mm := range m.Methods {
		method, err := buildMethod(gen, mm, cfg)
		if err != nil {
			return nil, err
		}
		methods = append(methods, method)
	}

	return &Document{
		OpenRPC: Version,
		Info: Info{
			Title:       cfg.Title,
			Description: cfg.Description,
			Version:     cfg.Version,
		},
		Servers:    cfg.Servers,
		Methods:    methods,
		Components: Components{Schemas: gen.components()},
	}, nil
}

func buildMethod(gen *generator, mm methodmap.Method, cfg Config) (Method, error) {
	method := Method{
		Name:        mm.Name,
		Summary:     summaryOf(mm.Summary, mm.Description),
		Description: strings.TrimSpace(mm.Description),
		Params:      make([]*ContentDescriptor, 0, len(mm.Params)),
		Deprecated:  mm.Deprecated,
	}
	for _, tag := range mm.Tags {
		method.Tags = append(method.Tags, Tag{Name: tag})
	}

	for _, p := range mm.Params {
		if cfg.StrictDocs && p.Description == "" {
			return Method{}, fmt.Errorf("%w: method %q param %q", ErrMissingDoc, mm.Name, p.Name)
		}
		schema, err := gen.schemaFor(p.Type)
		if err != nil {
			return Method{}, fmt.Errorf("openrpc: method %q param %q: %w", mm.Name, p.Name, err)
		}
		method.Params = append(method.Params, &ContentDescriptor{
			Name:        p.Name,
			Summary:     summaryOf("", p.Description),
			Description: strings.TrimSpace(p.Description),
			Required:    p.Required,
			Schema:      withDefault(schema, p.Default),
		})
	}

	if mm.Result != nil {
		schema, err := gen.schemaFor(mm.Result.Type)
		if err != nil {
			return Method{}, fmt.Errorf("openrpc: method %q result: %w", mm.Name, err)
		}
		name := mm.Result.Name
		if name == "" {
			name = mm.Name + "_result"
		}
		method.Result = &ContentDescriptor{
			Name:        name,
			Summary:     summaryOf("", mm.Result.Description),
			Description: strings.TrimSpace(mm.Result.Description),
			Schema:      schema,
		}
	}
	return method, nil
}

// summaryOf picks the explicit summary, falling back to the first line of
// the description.
func summaryOf(summary, description string) string {
	if summary != "" {
		return strings.TrimSpace(summary)
	}
	description = strings.TrimSpace(description)
	if first, _, found := strings.Cut(description, "\n"); found {
		return strings.TrimSpace(first)
	}
	return description
}
