package providers

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrProviderExists is returned when attempting to register a provider type more than once.
var ErrProviderExists = errors.New("provider registry: provider already registered")

// Registration binds a provider's metadata to its settings flag and URL builder.
type Registration struct {
	Metadata Metadata
	Enabled  Enabled
	Build    URLBuilder
}

// Registry maintains the catalogue of social login providers.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Registration
}

// NewRegistry constructs an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]Registration),
	}
}

// Register adds a provider, enforcing uniqueness by provider type.
func (r *Registry) Register(reg Registration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	meta := normaliseMetadata(reg.Metadata)
	if meta.Type == "" {
		return errors.New("provider registry: metadata type is required")
	}
	if reg.Build == nil {
		return fmt.Errorf("provider registry: %s has no url builder", meta.Type)
	}

	if _, exists := r.entries[meta.Type]; exists {
		return fmt.Errorf("%w: %s", ErrProviderExists, meta.Type)
	}

	reg.Metadata = meta
	r.entries[meta.Type] = reg
	return nil
}

// Registrations returns every provider ordered by Order, then type.
func (r *Registry) Registrations() []Registration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]Registration, 0, len(r.entries))
	for _, reg := range r.entries {
		items = append(items, reg)
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Metadata.Order == items[j].Metadata.Order {
			return items[i].Metadata.Type < items[j].Metadata.Type
		}
		return items[i].Metadata.Order < items[j].Metadata.Order
	})

	return items
}

// Metadata returns all registered provider metadata in registration order.
func (r *Registry) Metadata() []Metadata {
	regs := r.Registrations()
	out := make([]Metadata, len(regs))
	for i, reg := range regs {
		out[i] = reg.Metadata
	}
	return out
}

// Lookup retrieves the registration for a provider type.
func (r *Registry) Lookup(providerType string) (Registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reg, ok := r.entries[strings.ToLower(strings.TrimSpace(providerType))]
	return reg, ok
}

func normaliseMetadata(meta Metadata) Metadata {
	meta.Type = strings.ToLower(strings.TrimSpace(meta.Type))
	meta.DisplayName = strings.TrimSpace(meta.DisplayName)
	if meta.Order == 0 {
		meta.Order = 100
	}
	return meta
}
