package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/YelzhanWeb/menuapp/internal/domain"
)

// snapshotReader reads a dashboard snapshot in one round trip per entity group: nested rows
// are loaded for all open sessions at once and stitched together here.
type snapshotReader struct {
	db DB
}

func (r *snapshotReader) ReadFloor(ctx context.Context, restaurantID uuid.UUID) (*domain.Restaurant, []domain.Table, error) {
	rest, err := scanRestaurant(r.db.QueryRow(ctx, `SELECT `+restaurantColumns+` FROM restaurants WHERE id = $1`, restaurantID))
	if err != nil {
		return nil, nil, wrapErr("find restaurant", err)
	}
	tables, err := queryTables(ctx, r.db, restaurantID)
	if err != nil {
		return nil, nil, err
	}
	return rest, tables, nil
}

func (r *snapshotReader) ReadOpenSessions(ctx context.Context, restaurantID uuid.UUID) ([]domain.SessionView, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE restaurant_id = $1 AND status <> 'closed'
		ORDER BY created_at ASC
	`
	rows, err := r.db.Query(ctx, query, restaurantID)
	if err != nil {
		return nil, wrapErr("query sessions", err)
	}

	views := []domain.SessionView{}
	index := map[uuid.UUID]int{}
	ids := []string{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			rows.Close()
			return nil, wrapErr("scan session", err)
		}
		index[s.ID] = len(views)
		ids = append(ids, s.ID.String())
		views = append(views, domain.SessionView{
			Session:         *s,
			OrderItems:      []domain.OrderItem{},
			ServiceRequests: []domain.ServiceRequest{},
		})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, wrapErr("read sessions", err)
	}
	if len(views) == 0 {
		return views, nil
	}

	if err := r.attachItems(ctx, ids, index, views); err != nil {
		return nil, err
	}
	if err := r.attachRequests(ctx, ids, index, views); err != nil {
		return nil, err
	}
	return views, nil
}

func (r *snapshotReader) attachItems(ctx context.Context, ids []string, index map[uuid.UUID]int, views []domain.SessionView) error {
	query := `
		SELECT ` + orderItemColumns + `
		FROM order_items
		WHERE session_id = ANY($1::uuid[])
		ORDER BY created_at ASC, id
	`
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return wrapErr("query order items", err)
	}
	defer rows.Close()

	for rows.Next() {
		item, err := scanOrderItem(rows)
		if err != nil {
			return wrapErr("scan order item", err)
		}
		v := &views[index[item.SessionID]]
		v.OrderItems = append(v.OrderItems, *item)
	}
	return rows.Err()
}

func (r *snapshotReader) attachRequests(ctx context.Context, ids []string, index map[uuid.UUID]int, views []domain.SessionView) error {
	query := `
		SELECT ` + serviceRequestColumns + `
		FROM service_requests
		WHERE session_id = ANY($1::uuid[]) AND status = 'pending'
		ORDER BY created_at ASC
	`
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return wrapErr("query service requests", err)
	}
	defer rows.Close()

	for rows.Next() {
		req, err := scanServiceRequest(rows)
		if err != nil {
			return wrapErr("scan service request", err)
		}
		v := &views[index[req.SessionID]]
		v.ServiceRequests = append(v.ServiceRequests, *req)
	}
	return rows.Err()
}
