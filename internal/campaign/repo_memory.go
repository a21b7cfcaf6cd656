package campaign

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is a simple in-memory campaign registry for tests and early
// development.
type MemoryRepo struct {
	mu        sync.Mutex
	campaigns []Campaign
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) Create(ctx context.Context, c Campaign) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.campaigns = append(r.campaigns, c)
	return nil
}

func (r *MemoryRepo) List(ctx context.Context) ([]Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Campaign, len(r.campaigns))
	copy(out, r.campaigns)
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
