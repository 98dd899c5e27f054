// Package catalog provides the static source catalogs bundled with the
// service and the registry that serves lookups over them. Catalogs are
// loaded once and never mutated afterwards.
package catalog

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"sedcat-backend/internal/domain"
	appErrors "sedcat-backend/pkg/errors"
)

// Catalog is an immutable mapping from source identifier to source record.
type Catalog struct {
	variant     string
	description string
	names       []string
	byName      map[string]*domain.SourceRecord
}

// Variant returns the catalog variant identifier, e.g. "gamma-cat".
func (c *Catalog) Variant() string { return c.variant }

// Description returns the human-readable catalog description.
func (c *Catalog) Description() string { return c.description }

// Len returns the number of records in the catalog.
func (c *Catalog) Len() int { return len(c.names) }

// Names returns the source identifiers in catalog order.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// Lookup returns the record for the given identifier. An unknown, empty or
// malformed identifier yields a not-found error, never a default record.
func (c *Catalog) Lookup(name string) (*domain.SourceRecord, error) {
	rec, ok := c.byName[name]
	if !ok {
		return nil, appErrors.NewNotFound(fmt.Sprintf("source %q not found in catalog %q", name, c.variant))
	}
	return rec, nil
}

// Registry holds the loaded catalogs, keyed by variant. It is safe for
// concurrent use; catalogs themselves are immutable once added.
type Registry struct {
	mu       sync.RWMutex
	catalogs map[string]*Catalog
	logger   *zap.Logger
}

// NewRegistry creates an empty catalog registry.
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		catalogs: make(map[string]*Catalog),
		logger:   logger,
	}
}

// LoadBundled loads the requested bundled variants into the registry.
// With no arguments it loads every bundled catalog.
func (r *Registry) LoadBundled(variants ...string) error {
	if len(variants) == 0 {
		variants = BundledVariants()
	}
	for _, variant := range variants {
		cat, err := Load(variant)
		if err != nil {
			return err
		}
		r.Add(cat)
		r.logger.Info("Catalog loaded",
			zap.String("variant", cat.Variant()),
			zap.Int("sources", cat.Len()),
		)
	}
	return nil
}

// Add registers a catalog, replacing any previous catalog of the same variant.
func (r *Registry) Add(c *Catalog) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.catalogs[c.variant] = c
}

// Get returns the catalog for a variant, or a not-found error.
func (r *Registry) Get(variant string) (*Catalog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cat, ok := r.catalogs[variant]
	if !ok {
		return nil, appErrors.NewNotFound(fmt.Sprintf("catalog %q not found", variant))
	}
	return cat, nil
}

// Variants returns the registered variants in sorted order.
func (r *Registry) Variants() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.catalogs))
	for v := range r.catalogs {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
