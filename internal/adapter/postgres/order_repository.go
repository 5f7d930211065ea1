package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/YelzhanWeb/menuapp/internal/domain"
)

type sessionRepository struct {
	db DB
}

const sessionColumns = `id, table_id, restaurant_id, status, created_at, closed_at`

func scanSession(row Row) (*domain.Session, error) {
	var s domain.Session
	if err := row.Scan(&s.ID, &s.TableID, &s.RestaurantID, &s.Status, &s.CreatedAt, &s.ClosedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepository) Create(ctx context.Context, s *domain.Session) error {
	query := `
		INSERT INTO sessions (id, table_id, restaurant_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := r.db.Exec(ctx, query, s.ID, s.TableID, s.RestaurantID, s.Status, s.CreatedAt); err != nil {
		return wrapErr("insert session", err)
	}
	return nil
}

func (r *sessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	s, err := scanSession(r.db.QueryRow(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id))
	if err != nil {
		return nil, wrapErr("find session", err)
	}
	return s, nil
}

func (r *sessionRepository) FindOrdering(ctx context.Context, tableID uuid.UUID) (*domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE table_id = $1 AND status = 'ordering'`
	s, err := scanSession(r.db.QueryRow(ctx, query, tableID))
	if err != nil {
		return nil, wrapErr("find ordering session", err)
	}
	return s, nil
}

func (r *sessionRepository) UpdateStatus(ctx context.Context, s *domain.Session) error {
	tag, err := r.db.Exec(ctx, `UPDATE sessions SET status = $1, closed_at = $2 WHERE id = $3`, s.Status, s.ClosedAt, s.ID)
	return expectOne("update session", tag, err)
}

func (r *sessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return expectOne("delete session", tag, err)
}

// Close runs the three writes of a table close in one transaction.
func (r *sessionRepository) Close(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// 1. Сессия
	tag, err := tx.Exec(ctx, `
		UPDATE sessions SET status = 'closed', closed_at = now()
		WHERE id = $1 AND status <> 'closed'
	`, id)
	if err != nil {
		return wrapErr("close session", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM sessions WHERE id = $1)`, id).Scan(&exists); err != nil {
			return wrapErr("check session", err)
		}
		if !exists {
			return fmt.Errorf("close session: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("close session: %w", domain.ErrInvalidStatusTransition)
	}

	// 2. Позиции заказа: черновики отменяются, остальные закрываются
	_, err = tx.Exec(ctx, `
		UPDATE order_items
		SET status = CASE WHEN status = 'draft' THEN 'cancelled' ELSE 'closed' END
		WHERE session_id = $1 AND status NOT IN ('closed', 'cancelled')
	`, id)
	if err != nil {
		return wrapErr("close order items", err)
	}

	// 3. Вызовы официанта
	_, err = tx.Exec(ctx, `
		UPDATE service_requests SET status = 'resolved', resolved_at = now()
		WHERE session_id = $1 AND status = 'pending'
	`, id)
	if err != nil {
		return wrapErr("resolve service requests", err)
	}

	return tx.Commit(ctx)
}

type orderItemRepository struct {
	db DB
}

const orderItemColumns = `id, session_id, product_id, product_name, quantity, unit_price, status, notes, created_at`

func scanOrderItem(row Row) (*domain.OrderItem, error) {
	var i domain.OrderItem
	err := row.Scan(&i.ID, &i.SessionID, &i.ProductID, &i.ProductName, &i.Quantity,
		&i.UnitPrice, &i.Status, &i.Notes, &i.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

func (r *orderItemRepository) Create(ctx context.Context, item *domain.OrderItem) error {
	query := `
		INSERT INTO order_items (id, session_id, product_id, product_name, quantity, unit_price, status, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.Exec(ctx, query,
		item.ID, item.SessionID, item.ProductID, item.ProductName, item.Quantity,
		item.UnitPrice, item.Status, item.Notes, item.CreatedAt,
	)
	if err != nil {
		return wrapErr("insert order item", err)
	}
	return nil
}

func (r *orderItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.OrderItem, error) {
	item, err := scanOrderItem(r.db.QueryRow(ctx, `SELECT `+orderItemColumns+` FROM order_items WHERE id = $1`, id))
	if err != nil {
		return nil, wrapErr("find order item", err)
	}
	return item, nil
}

func (r *orderItemRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]domain.OrderItem, error) {
	query := `SELECT ` + orderItemColumns + ` FROM order_items WHERE session_id = $1 ORDER BY created_at, id`
	rows, err := r.db.Query(ctx, query, sessionID)
	if err != nil {
		return nil, wrapErr("query order items", err)
	}
	defer rows.Close()

	items := []domain.OrderItem{}
	for rows.Next() {
		item, err := scanOrderItem(rows)
		if err != nil {
			return nil, wrapErr("scan order item", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// Update never touches unit_price: the captured price is final.
func (r *orderItemRepository) Update(ctx context.Context, item *domain.OrderItem) error {
	query := `UPDATE order_items SET quantity = $1, notes = $2, status = $3 WHERE id = $4`
	tag, err := r.db.Exec(ctx, query, item.Quantity, item.Notes, item.Status, item.ID)
	return expectOne("update order item", tag, err)
}

func (r *orderItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM order_items WHERE id = $1`, id)
	return expectOne("delete order item", tag, err)
}

func (r *orderItemRepository) TransitionAll(ctx context.Context, sessionID uuid.UUID, from, to domain.OrderItemStatus) (int64, error) {
	tag, err := r.db.Exec(ctx, `UPDATE order_items SET status = $1 WHERE session_id = $2 AND status = $3`, to, sessionID, from)
	if err != nil {
		return 0, wrapErr("transition order items", err)
	}
	return tag.RowsAffected(), nil
}

type serviceRequestRepository struct {
	db DB
}

const serviceRequestColumns = `id, restaurant_id, table_id, session_id, type, status, created_at, resolved_at`

func scanServiceRequest(row Row) (*domain.ServiceRequest, error) {
	var s domain.ServiceRequest
	err := row.Scan(&s.ID, &s.RestaurantID, &s.TableID, &s.SessionID, &s.Type, &s.Status, &s.CreatedAt, &s.ResolvedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *serviceRequestRepository) Create(ctx context.Context, req *domain.ServiceRequest) error {
	query := `
		INSERT INTO service_requests (id, restaurant_id, table_id, session_id, type, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(ctx, query, req.ID, req.RestaurantID, req.TableID, req.SessionID, req.Type, req.Status, req.CreatedAt)
	if err != nil {
		return wrapErr("insert service request", err)
	}
	return nil
}

func (r *serviceRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.ServiceRequest, error) {
	req, err := scanServiceRequest(r.db.QueryRow(ctx, `SELECT `+serviceRequestColumns+` FROM service_requests WHERE id = $1`, id))
	if err != nil {
		return nil, wrapErr("find service request", err)
	}
	return req, nil
}

func (r *serviceRequestRepository) Update(ctx context.Context, req *domain.ServiceRequest) error {
	tag, err := r.db.Exec(ctx, `UPDATE service_requests SET status = $1, resolved_at = $2 WHERE id = $3`, req.Status, req.ResolvedAt, req.ID)
	return expectOne("update service request", tag, err)
}

func (r *serviceRequestRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM service_requests WHERE id = $1`, id)
	return expectOne("delete service request", tag, err)
}

type paymentRepository struct {
	db DB
}

func (r *paymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	query := `
		INSERT INTO payments (id, session_id, method, amount, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := r.db.Exec(ctx, query, p.ID, p.SessionID, p.Method, p.Amount, p.Status, p.CreatedAt); err != nil {
		return wrapErr("insert payment", err)
	}
	return nil
}

func (r *paymentRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*domain.Payment, error) {
	query := `
		SELECT id, session_id, method, amount, status, created_at
		FROM payments
		WHERE session_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.db.Query(ctx, query, sessionID)
	if err != nil {
		return nil, wrapErr("query payments", err)
	}
	defer rows.Close()

	var out []*domain.Payment
	for rows.Next() {
		var p domain.Payment
		if err := rows.Scan(&p.ID, &p.SessionID, &p.Method, &p.Amount, &p.Status, &p.CreatedAt); err != nil {
			return nil, wrapErr("scan payment", err)
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}
