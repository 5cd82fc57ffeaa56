package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/geocoder89/univault/internal/domain/resource"
)

// ResourcesRepo mirrors the postgres repo's filter semantics in memory.
// Used by handler tests; the uploader name join is resolved against a
// caller-supplied name table.
type ResourcesRepo struct {
	mu    sync.RWMutex
	items map[string]resource.Resource
	order []string // insertion order, tiebreak for equal timestamps
	names map[string]string
}

func NewResourcesRepo(uploaderNames map[string]string) *ResourcesRepo {
	if uploaderNames == nil {
		uploaderNames = make(map[string]string)
	}
	return &ResourcesRepo{
		items: make(map[string]resource.Resource),
		names: uploaderNames,
	}
}

func (r *ResourcesRepo) Create(ctx context.Context, res resource.Resource) (resource.Resource, error) {
	r.mu.Lock()
	r.items[res.ID] = res
	r.order = append(r.order, res.ID)
	r.mu.Unlock()

	return res, nil
}

func (r *ResourcesRepo) List(ctx context.Context, filter resource.ListFilter) ([]resource.View, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]resource.View, 0)

	for _, id := range r.order {
		res := r.items[id]

		if !matches(res, filter) {
			continue
		}

		out = append(out, r.view(res))
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	return out, nil
}

func (r *ResourcesRepo) GetByID(ctx context.Context, id string) (resource.View, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res, ok := r.items[id]

	if !ok {
		return resource.View{}, resource.ErrNotFound
	}

	return r.view(res), nil
}

func (r *ResourcesRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return resource.ErrNotFound
	}

	delete(r.items, id)

	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	return nil
}

func (r *ResourcesRepo) view(res resource.Resource) resource.View {
	return resource.View{
		Resource:     res,
		UploaderName: r.names[res.UploadedBy],
	}
}

func matches(res resource.Resource, f resource.ListFilter) bool {
	if f.Branch != nil && res.Branch != *f.Branch {
		return false
	}
	if f.Semester != nil && res.Semester != *f.Semester {
		return false
	}
	if f.Subject != nil && !containsFold(res.Subject, *f.Subject) {
		return false
	}
	if f.Year != nil && res.Year != *f.Year {
		return false
	}
	if f.Search != nil {
		if !containsFold(res.Title, *f.Search) && !containsFold(res.Description, *f.Search) {
			return false
		}
	}
	return true
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
