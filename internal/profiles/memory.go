package profiles

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryRegistry keeps profiles in process memory
type MemoryRegistry struct {
	mu       sync.RWMutex
	profiles map[string]Profile
	now      func() time.Time
}

// NewMemoryRegistry creates an empty in-memory registry
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{profiles: make(map[string]Profile), now: time.Now}
}

// Get returns the stored profile of backpack, or ErrNotFound
func (r *MemoryRegistry) Get(_ context.Context, backpack string) (*Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.profiles[backpack]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, backpack)
	}
	return &p, nil
}

// Put validates and stores p, stamping UpdatedAt on both the stored copy and p
func (r *MemoryRegistry) Put(_ context.Context, p *Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	stored := *p
	stored.Default = false
	stored.UpdatedAt = r.now().UTC()

	r.mu.Lock()
	r.profiles[p.Backpack] = stored
	r.mu.Unlock()

	p.UpdatedAt = stored.UpdatedAt
	return nil
}

// Delete removes the profile of backpack, or returns ErrNotFound
func (r *MemoryRegistry) Delete(_ context.Context, backpack string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.profiles[backpack]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, backpack)
	}
	delete(r.profiles, backpack)
	return nil
}

// List returns every profile ordered by backpack code
func (r *MemoryRegistry) List(_ context.Context) ([]*Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Profile, 0, len(r.profiles))
	for _, p := range r.profiles {
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Backpack < out[j].Backpack })
	return out, nil
}

// Close is a no-op
func (r *MemoryRegistry) Close() error { return nil }
