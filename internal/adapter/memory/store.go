// Package memory is an in-process backing store. It keeps every table in maps behind one
// lock and emits a change event for each written row of the watched tables, the way the
// postgres triggers do. It serves the demo mode and the service tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/YelzhanWeb/menuapp/internal/domain"
	"github.com/YelzhanWeb/menuapp/internal/interfaces"
)

type itemRecord struct {
	item domain.OrderItem
	seq  uint64
}

type requestRecord struct {
	req domain.ServiceRequest
	seq uint64
}

type Store struct {
	mu          sync.RWMutex
	restaurants map[uuid.UUID]domain.Restaurant
	profiles    map[uuid.UUID]domain.Profile
	categories  map[uuid.UUID]domain.Category
	products    map[uuid.UUID]domain.Product
	tables      map[uuid.UUID]domain.Table
	sessions    map[uuid.UUID]domain.Session
	items       map[uuid.UUID]itemRecord
	requests    map[uuid.UUID]requestRecord
	payments    map[uuid.UUID]domain.Payment
	seq         uint64

	publisher interfaces.ChangePublisher
}

// New returns an empty store. publisher may be nil when nobody listens for changes.
func New(publisher interfaces.ChangePublisher) *Store {
	return &Store{
		restaurants: make(map[uuid.UUID]domain.Restaurant),
		profiles:    make(map[uuid.UUID]domain.Profile),
		categories:  make(map[uuid.UUID]domain.Category),
		products:    make(map[uuid.UUID]domain.Product),
		tables:      make(map[uuid.UUID]domain.Table),
		sessions:    make(map[uuid.UUID]domain.Session),
		items:       make(map[uuid.UUID]itemRecord),
		requests:    make(map[uuid.UUID]requestRecord),
		payments:    make(map[uuid.UUID]domain.Payment),
		publisher:   publisher,
	}
}

// Repositories exposes the store through the repository ports.
func (s *Store) Repositories() interfaces.Store {
	return interfaces.Store{
		Restaurants:     restaurantRepo{s},
		Profiles:        profileRepo{s},
		Categories:      categoryRepo{s},
		Products:        productRepo{s},
		Tables:          tableRepo{s},
		Sessions:        sessionRepo{s},
		OrderItems:      orderItemRepo{s},
		ServiceRequests: serviceRequestRepo{s},
		Payments:        paymentRepo{s},
		Snapshots:       snapshotReader{s},
	}
}

// Ping always succeeds; the store lives in this process.
func (s *Store) Ping(context.Context) error {
	return nil
}

func (s *Store) nextSeq() uint64 {
	s.seq++
	return s.seq
}

// emit is called without the lock held.
func (s *Store) emit(ctx context.Context, table string, typ domain.ChangeType, ids ...uuid.UUID) {
	if s.publisher == nil {
		return
	}
	for _, id := range ids {
		_ = s.publisher.PublishChange(ctx, domain.ChangeEvent{
			Type:       typ,
			Table:      table,
			RowID:      id,
			OccurredAt: time.Now().UTC(),
		})
	}
}

func notFound(entity string, id uuid.UUID) error {
	return fmt.Errorf("%s %s: %w", entity, id, domain.ErrNotFound)
}

type restaurantRepo struct{ s *Store }

func (r restaurantRepo) Create(_ context.Context, rest *domain.Restaurant) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.restaurants {
		if existing.Slug == rest.Slug {
			return fmt.Errorf("restaurant slug %q already taken: %w", rest.Slug, domain.ErrValidation)
		}
	}
	r.s.restaurants[rest.ID] = copyRestaurant(*rest)
	return nil
}

func (r restaurantRepo) FindByID(_ context.Context, id uuid.UUID) (*domain.Restaurant, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rest, ok := r.s.restaurants[id]
	if !ok {
		return nil, notFound("restaurant", id)
	}
	out := copyRestaurant(rest)
	return &out, nil
}

func (r restaurantRepo) List(_ context.Context) ([]*domain.Restaurant, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*domain.Restaurant, 0, len(r.s.restaurants))
	for _, rest := range r.s.restaurants {
		c := copyRestaurant(rest)
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r restaurantRepo) Update(_ context.Context, rest *domain.Restaurant) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.restaurants[rest.ID]; !ok {
		return notFound("restaurant", rest.ID)
	}
	r.s.restaurants[rest.ID] = copyRestaurant(*rest)
	return nil
}

func (r restaurantRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.restaurants[id]; !ok {
		return notFound("restaurant", id)
	}
	delete(r.s.restaurants, id)
	return nil
}

func copyRestaurant(r domain.Restaurant) domain.Restaurant {
	r.Features = append(make([]string, 0, len(r.Features)), r.Features...)
	return r
}

type profileRepo struct{ s *Store }

func (r profileRepo) FindByUserID(_ context.Context, userID uuid.UUID) (*domain.Profile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.profiles[userID]
	if !ok {
		return nil, notFound("profile", userID)
	}
	return &p, nil
}

func (r profileRepo) Upsert(_ context.Context, p *domain.Profile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.profiles[p.UserID] = *p
	return nil
}

type categoryRepo struct{ s *Store }

func (r categoryRepo) Create(_ context.Context, c *domain.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.categories[c.ID] = *c
	return nil
}

func (r categoryRepo) FindByID(_ context.Context, id uuid.UUID) (*domain.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.categories[id]
	if !ok {
		return nil, notFound("category", id)
	}
	return &c, nil
}

func (r categoryRepo) ListByRestaurant(_ context.Context, restaurantID uuid.UUID) ([]*domain.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*domain.Category
	for _, c := range r.s.categories {
		if c.RestaurantID == restaurantID {
			c := c
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r categoryRepo) Update(_ context.Context, c *domain.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.categories[c.ID]; !ok {
		return notFound("category", c.ID)
	}
	r.s.categories[c.ID] = *c
	return nil
}

func (r categoryRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.categories[id]; !ok {
		return notFound("category", id)
	}
	delete(r.s.categories, id)
	for pid, p := range r.s.products {
		if p.CategoryID != nil && *p.CategoryID == id {
			p.CategoryID = nil
			r.s.products[pid] = p
		}
	}
	return nil
}

type productRepo struct{ s *Store }

func (r productRepo) Create(_ context.Context, p *domain.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.products[p.ID] = *p
	return nil
}

func (r productRepo) FindByID(_ context.Context, id uuid.UUID) (*domain.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, notFound("product", id)
	}
	return &p, nil
}

func (r productRepo) ListByRestaurant(_ context.Context, restaurantID uuid.UUID) ([]*domain.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*domain.Product
	for _, p := range r.s.products {
		if p.RestaurantID == restaurantID {
			p := p
			out = append(out, &p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r productRepo) Update(_ context.Context, p *domain.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.products[p.ID]; !ok {
		return notFound("product", p.ID)
	}
	r.s.products[p.ID] = *p
	return nil
}

func (r productRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.products[id]; !ok {
		return notFound("product", id)
	}
	delete(r.s.products, id)
	return nil
}

type tableRepo struct{ s *Store }

func (r tableRepo) Create(_ context.Context, t *domain.Table) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.tables {
		if existing.RestaurantID == t.RestaurantID && existing.TableNumber == t.TableNumber {
			return fmt.Errorf("table number %d already exists: %w", t.TableNumber, domain.ErrValidation)
		}
	}
	r.s.tables[t.ID] = *t
	return nil
}

func (r tableRepo) FindByID(_ context.Context, id uuid.UUID) (*domain.Table, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.tables[id]
	if !ok {
		return nil, notFound("table", id)
	}
	return &t, nil
}

func (r tableRepo) ListByRestaurant(_ context.Context, restaurantID uuid.UUID) ([]*domain.Table, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*domain.Table
	for _, t := range r.s.tables {
		if t.RestaurantID == restaurantID {
			t := t
			out = append(out, &t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TableNumber < out[j].TableNumber })
	return out, nil
}

func (r tableRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tables[id]; !ok {
		return notFound("table", id)
	}
	delete(r.s.tables, id)
	return nil
}
