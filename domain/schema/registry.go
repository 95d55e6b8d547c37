package schema

import (
	"errors"
	"fmt"

	apperrors "formintake/internal/errors"
)

// ErrSchemaNotFound signals that a schema name (after at most one alias
// substitution) has no entry in the registry. Callers recover from this
// per-tab; it never aborts a whole parse.
var ErrSchemaNotFound = errors.New("schema not found")

// Registry is the process-wide, read-only mapping of schema names to
// schemas, plus a one-level alias table. Loaded once at startup; safe for
// concurrent readers because it is never mutated after construction.
type Registry struct {
	schemas map[string]Schema
	aliases map[string]string
}

// NewRegistry builds a registry from schema and alias maps. Every schema
// must validate; alias targets are not checked here because single-hop
// resolution reports dangling aliases at lookup time.
func NewRegistry(schemas map[string]Schema, aliases map[string]string) (*Registry, error) {
	reg := &Registry{
		schemas: make(map[string]Schema, len(schemas)),
		aliases: make(map[string]string, len(aliases)),
	}
	for name, s := range schemas {
		if err := s.Validate(); err != nil {
			return nil, apperrors.Wrapf(err, "registry schema %q", name)
		}
		reg.schemas[name] = s
	}
	for alias, target := range aliases {
		reg.aliases[alias] = target
	}
	return reg, nil
}

// Resolve maps a schema name to its schema. Resolution is: substitute the
// name through the alias table at most once, then look the result up
// directly. An alias pointing at another alias resolves to not-found —
// chains are rejected to keep cycles impossible.
func (r *Registry) Resolve(name string) (Schema, error) {
	if r == nil {
		return Schema{}, apperrors.ConfigInvalid("schema registry is nil")
	}

	canonical := name
	if target, ok := r.aliases[name]; ok {
		canonical = target
	}

	s, ok := r.schemas[canonical]
	if !ok {
		return Schema{}, fmt.Errorf("%w: %q", ErrSchemaNotFound, name)
	}
	return s, nil
}

// Names returns every canonical schema name in the registry.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.schemas))
	for name := range r.schemas {
		names = append(names, name)
	}
	return names
}

// Len returns the number of canonical schemas.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.schemas)
}
