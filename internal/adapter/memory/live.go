package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/YelzhanWeb/menuapp/internal/domain"
)

type sessionRepo struct{ s *Store }

func (r sessionRepo) Create(ctx context.Context, sess *domain.Session) error {
	r.s.mu.Lock()
	if sess.Status == domain.SessionOrdering {
		for _, existing := range r.s.sessions {
			if existing.TableID == sess.TableID && existing.Status == domain.SessionOrdering {
				r.s.mu.Unlock()
				return domain.Validationf("table already has an ordering session")
			}
		}
	}
	r.s.sessions[sess.ID] = *sess
	r.s.mu.Unlock()

	r.s.emit(ctx, domain.TableSessions, domain.ChangeInsert, sess.ID)
	return nil
}

func (r sessionRepo) FindByID(_ context.Context, id uuid.UUID) (*domain.Session, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	sess, ok := r.s.sessions[id]
	if !ok {
		return nil, notFound("session", id)
	}
	return &sess, nil
}

func (r sessionRepo) FindOrdering(_ context.Context, tableID uuid.UUID) (*domain.Session, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, sess := range r.s.sessions {
		if sess.TableID == tableID && sess.Status == domain.SessionOrdering {
			return &sess, nil
		}
	}
	return nil, notFound("ordering session for table", tableID)
}

func (r sessionRepo) UpdateStatus(ctx context.Context, sess *domain.Session) error {
	r.s.mu.Lock()
	if _, ok := r.s.sessions[sess.ID]; !ok {
		r.s.mu.Unlock()
		return notFound("session", sess.ID)
	}
	r.s.sessions[sess.ID] = *sess
	r.s.mu.Unlock()

	r.s.emit(ctx, domain.TableSessions, domain.ChangeUpdate, sess.ID)
	return nil
}

// Delete removes the session together with its items and requests, like the
// ON DELETE CASCADE of the schema.
func (r sessionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	if _, ok := r.s.sessions[id]; !ok {
		r.s.mu.Unlock()
		return notFound("session", id)
	}
	delete(r.s.sessions, id)
	var itemIDs, requestIDs []uuid.UUID
	for iid, rec := range r.s.items {
		if rec.item.SessionID == id {
			delete(r.s.items, iid)
			itemIDs = append(itemIDs, iid)
		}
	}
	for rid, rec := range r.s.requests {
		if rec.req.SessionID == id {
			delete(r.s.requests, rid)
			requestIDs = append(requestIDs, rid)
		}
	}
	r.s.mu.Unlock()

	r.s.emit(ctx, domain.TableOrderItems, domain.ChangeDelete, itemIDs...)
	r.s.emit(ctx, domain.TableServiceRequests, domain.ChangeDelete, requestIDs...)
	r.s.emit(ctx, domain.TableSessions, domain.ChangeDelete, id)
	return nil
}

func (r sessionRepo) Close(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	sess, ok := r.s.sessions[id]
	if !ok {
		r.s.mu.Unlock()
		return notFound("session", id)
	}
	if err := sess.TransitionTo(domain.SessionClosed); err != nil {
		r.s.mu.Unlock()
		return err
	}
	r.s.sessions[id] = sess

	var itemIDs, requestIDs []uuid.UUID
	for iid, rec := range r.s.items {
		if rec.item.SessionID != id {
			continue
		}
		if rec.item.Status == domain.ItemClosed || rec.item.Status == domain.ItemCancelled {
			continue
		}
		if rec.item.Status == domain.ItemDraft {
			rec.item.Status = domain.ItemCancelled
		} else {
			rec.item.Status = domain.ItemClosed
		}
		r.s.items[iid] = rec
		itemIDs = append(itemIDs, iid)
	}
	for rid, rec := range r.s.requests {
		if rec.req.SessionID == id && rec.req.Status == domain.RequestPending {
			rec.req.Resolve()
			r.s.requests[rid] = rec
			requestIDs = append(requestIDs, rid)
		}
	}
	r.s.mu.Unlock()

	r.s.emit(ctx, domain.TableSessions, domain.ChangeUpdate, id)
	r.s.emit(ctx, domain.TableOrderItems, domain.ChangeUpdate, itemIDs...)
	r.s.emit(ctx, domain.TableServiceRequests, domain.ChangeUpdate, requestIDs...)
	return nil
}

type orderItemRepo struct{ s *Store }

func (r orderItemRepo) Create(ctx context.Context, item *domain.OrderItem) error {
	r.s.mu.Lock()
	if _, ok := r.s.sessions[item.SessionID]; !ok {
		r.s.mu.Unlock()
		return notFound("session", item.SessionID)
	}
	r.s.items[item.ID] = itemRecord{item: *item, seq: r.s.nextSeq()}
	r.s.mu.Unlock()

	r.s.emit(ctx, domain.TableOrderItems, domain.ChangeInsert, item.ID)
	return nil
}

func (r orderItemRepo) FindByID(_ context.Context, id uuid.UUID) (*domain.OrderItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rec, ok := r.s.items[id]
	if !ok {
		return nil, notFound("order item", id)
	}
	item := rec.item
	return &item, nil
}

func (r orderItemRepo) ListBySession(_ context.Context, sessionID uuid.UUID) ([]domain.OrderItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.sessionItemsLocked(sessionID, nil), nil
}

func (r orderItemRepo) Update(ctx context.Context, item *domain.OrderItem) error {
	r.s.mu.Lock()
	rec, ok := r.s.items[item.ID]
	if !ok {
		r.s.mu.Unlock()
		return notFound("order item", item.ID)
	}
	rec.item = *item
	r.s.items[item.ID] = rec
	r.s.mu.Unlock()

	r.s.emit(ctx, domain.TableOrderItems, domain.ChangeUpdate, item.ID)
	return nil
}

func (r orderItemRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	if _, ok := r.s.items[id]; !ok {
		r.s.mu.Unlock()
		return notFound("order item", id)
	}
	delete(r.s.items, id)
	r.s.mu.Unlock()

	r.s.emit(ctx, domain.TableOrderItems, domain.ChangeDelete, id)
	return nil
}

func (r orderItemRepo) TransitionAll(ctx context.Context, sessionID uuid.UUID, from, to domain.OrderItemStatus) (int64, error) {
	r.s.mu.Lock()
	var changed []uuid.UUID
	for iid, rec := range r.s.items {
		if rec.item.SessionID == sessionID && rec.item.Status == from {
			rec.item.Status = to
			r.s.items[iid] = rec
			changed = append(changed, iid)
		}
	}
	r.s.mu.Unlock()

	r.s.emit(ctx, domain.TableOrderItems, domain.ChangeUpdate, changed...)
	return int64(len(changed)), nil
}

type serviceRequestRepo struct{ s *Store }

func (r serviceRequestRepo) Create(ctx context.Context, req *domain.ServiceRequest) error {
	r.s.mu.Lock()
	if _, ok := r.s.sessions[req.SessionID]; !ok {
		r.s.mu.Unlock()
		return notFound("session", req.SessionID)
	}
	r.s.requests[req.ID] = requestRecord{req: *req, seq: r.s.nextSeq()}
	r.s.mu.Unlock()

	r.s.emit(ctx, domain.TableServiceRequests, domain.ChangeInsert, req.ID)
	return nil
}

func (r serviceRequestRepo) FindByID(_ context.Context, id uuid.UUID) (*domain.ServiceRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rec, ok := r.s.requests[id]
	if !ok {
		return nil, notFound("service request", id)
	}
	req := rec.req
	return &req, nil
}

func (r serviceRequestRepo) Update(ctx context.Context, req *domain.ServiceRequest) error {
	r.s.mu.Lock()
	rec, ok := r.s.requests[req.ID]
	if !ok {
		r.s.mu.Unlock()
		return notFound("service request", req.ID)
	}
	rec.req = *req
	r.s.requests[req.ID] = rec
	r.s.mu.Unlock()

	r.s.emit(ctx, domain.TableServiceRequests, domain.ChangeUpdate, req.ID)
	return nil
}

func (r serviceRequestRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	if _, ok := r.s.requests[id]; !ok {
		r.s.mu.Unlock()
		return notFound("service request", id)
	}
	delete(r.s.requests, id)
	r.s.mu.Unlock()

	r.s.emit(ctx, domain.TableServiceRequests, domain.ChangeDelete, id)
	return nil
}

type paymentRepo struct{ s *Store }

func (r paymentRepo) Create(_ context.Context, p *domain.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.payments[p.ID] = *p
	return nil
}

func (r paymentRepo) ListBySession(_ context.Context, sessionID uuid.UUID) ([]*domain.Payment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*domain.Payment
	for _, p := range r.s.payments {
		if p.SessionID == sessionID {
			p := p
			out = append(out, &p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

type snapshotReader struct{ s *Store }

func (r snapshotReader) ReadFloor(_ context.Context, restaurantID uuid.UUID) (*domain.Restaurant, []domain.Table, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rest, ok := r.s.restaurants[restaurantID]
	if !ok {
		return nil, nil, notFound("restaurant", restaurantID)
	}
	out := copyRestaurant(rest)

	tables := make([]domain.Table, 0)
	for _, t := range r.s.tables {
		if t.RestaurantID == restaurantID {
			tables = append(tables, t)
		}
	}
	sort.Slice(tables, func(i, j int) bool { return tables[i].TableNumber < tables[j].TableNumber })
	return &out, tables, nil
}

// ReadOpenSessions returns the restaurant's unclosed sessions, oldest first, with their
// items and pending requests in creation order.
func (r snapshotReader) ReadOpenSessions(_ context.Context, restaurantID uuid.UUID) ([]domain.SessionView, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	views := make([]domain.SessionView, 0)
	for _, sess := range r.s.sessions {
		if sess.RestaurantID != restaurantID || !sess.IsOpen() {
			continue
		}
		pending := domain.RequestPending
		views = append(views, domain.SessionView{
			Session:         sess,
			OrderItems:      r.s.sessionItemsLocked(sess.ID, nil),
			ServiceRequests: r.s.sessionRequestsLocked(sess.ID, &pending),
		})
	}
	sort.Slice(views, func(i, j int) bool {
		return lessByTime(views[i].CreatedAt, views[j].CreatedAt, views[i].ID, views[j].ID)
	})
	return views, nil
}

func (s *Store) sessionItemsLocked(sessionID uuid.UUID, status *domain.OrderItemStatus) []domain.OrderItem {
	recs := make([]itemRecord, 0)
	for _, rec := range s.items {
		if rec.item.SessionID != sessionID {
			continue
		}
		if status != nil && rec.item.Status != *status {
			continue
		}
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq < recs[j].seq })
	out := make([]domain.OrderItem, len(recs))
	for i, rec := range recs {
		out[i] = rec.item
	}
	return out
}

func (s *Store) sessionRequestsLocked(sessionID uuid.UUID, status *domain.RequestStatus) []domain.ServiceRequest {
	recs := make([]requestRecord, 0)
	for _, rec := range s.requests {
		if rec.req.SessionID != sessionID {
			continue
		}
		if status != nil && rec.req.Status != *status {
			continue
		}
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq < recs[j].seq })
	out := make([]domain.ServiceRequest, len(recs))
	for i, rec := range recs {
		out[i] = rec.req
	}
	return out
}

func lessByTime(a, b time.Time, aid, bid uuid.UUID) bool {
	if !a.Equal(b) {
		return a.Before(b)
	}
	return aid.String() < bid.String()
}
