package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/YelzhanWeb/menuapp/internal/adapter/logger"
	"github.com/YelzhanWeb/menuapp/internal/app/mutation"
	"github.com/YelzhanWeb/menuapp/internal/domain"
	"github.com/YelzhanWeb/menuapp/internal/interfaces"
)

const (
	entitySession = "session"
	entityItem    = "order item"
	entityRequest = "service request"
)

// Service runs the session, order item and service request writes. Each operation touches a
// single entity and fails fast; dashboards learn about the result from the change feed.
type Service struct {
	store     interfaces.Store
	payments  interfaces.PaymentProcessor
	refresher interfaces.Refresher
	reporter  *mutation.Reporter
	logger    logger.Logger
}

func NewService(
	store interfaces.Store,
	payments interfaces.PaymentProcessor,
	refresher interfaces.Refresher,
	reporter *mutation.Reporter,
	logger logger.Logger,
) *Service {
	return &Service{
		store:     store,
		payments:  payments,
		refresher: refresher,
		reporter:  reporter,
		logger:    logger,
	}
}

// OpenSession returns the table's ordering session, creating it when there is none.
func (s *Service) OpenSession(ctx context.Context, tableID uuid.UUID) (*domain.Session, error) {
	const op = "open"

	existing, err := s.store.Sessions.FindOrdering(ctx, tableID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, s.reporter.Fail(ctx, op, entitySession, err)
	}

	table, err := s.store.Tables.FindByID(ctx, tableID)
	if err != nil {
		return nil, s.reporter.Fail(ctx, op, entitySession, err)
	}

	session := domain.NewSession(table)
	if err := s.store.Sessions.Create(ctx, session); err != nil {
		// another device may have seated the table first
		if existing, findErr := s.store.Sessions.FindOrdering(ctx, tableID); findErr == nil {
			return existing, nil
		}
		return nil, s.reporter.Fail(ctx, op, entitySession, err)
	}

	s.reporter.Done(ctx, op, entitySession, session.ID)
	return session, nil
}

// GetSession returns the session with its items and pending requests.
func (s *Service) GetSession(ctx context.Context, id uuid.UUID) (*domain.SessionView, error) {
	session, err := s.store.Sessions.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	items, err := s.store.OrderItems.ListBySession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list order items: %w", err)
	}
	if items == nil {
		items = []domain.OrderItem{}
	}
	return &domain.SessionView{
		Session:         *session,
		OrderItems:      items,
		ServiceRequests: []domain.ServiceRequest{},
	}, nil
}

// UpdateSessionStatus moves the session between ordering and payment_pending. Closing goes
// through CloseTableSession so that items and requests are closed with it.
func (s *Service) UpdateSessionStatus(ctx context.Context, id uuid.UUID, status domain.SessionStatus) (*domain.Session, error) {
	const op = "update"

	if status == domain.SessionClosed {
		if err := s.CloseTableSession(ctx, id); err != nil {
			return nil, err
		}
		return s.store.Sessions.FindByID(ctx, id)
	}

	session, err := s.store.Sessions.FindByID(ctx, id)
	if err != nil {
		return nil, s.reporter.Fail(ctx, op, entitySession, err)
	}
	if err := session.TransitionTo(status); err != nil {
		return nil, s.reporter.Fail(ctx, op, entitySession, err)
	}
	if err := s.store.Sessions.UpdateStatus(ctx, session); err != nil {
		return nil, s.reporter.Fail(ctx, op, entitySession, err)
	}

	s.reporter.Done(ctx, op, entitySession, id)
	return session, nil
}

func (s *Service) DeleteSession(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Sessions.Delete(ctx, id); err != nil {
		return s.reporter.Fail(ctx, "delete", entitySession, err)
	}
	s.reporter.Done(ctx, "delete", entitySession, id)
	return nil
}

// AddOrderItem adds a draft line priced at the product's current price.
func (s *Service) AddOrderItem(ctx context.Context, cmd interfaces.AddOrderItemCommand) (*domain.OrderItem, error) {
	const op = "add"

	// 1. Сессия и её ресторан
	session, err := s.store.Sessions.FindByID(ctx, cmd.SessionID)
	if err != nil {
		return nil, s.reporter.Fail(ctx, op, entityItem, err)
	}
	if err := s.requireCapability(ctx, session.RestaurantID, domain.CapabilityOrdering); err != nil {
		return nil, s.reporter.Fail(ctx, op, entityItem, err)
	}

	// 2. Продукт (цена фиксируется в момент добавления)
	product, err := s.store.Products.FindByID(ctx, cmd.ProductID)
	if err != nil {
		return nil, s.reporter.Fail(ctx, op, entityItem, err)
	}

	item, err := domain.NewOrderItem(session, product, cmd.Quantity, cmd.Notes)
	if err != nil {
		return nil, s.reporter.Fail(ctx, op, entityItem, err)
	}

	// 3. Сохранение
	if err := s.store.OrderItems.Create(ctx, item); err != nil {
		return nil, s.reporter.Fail(ctx, op, entityItem, err)
	}

	s.reporter.Done(ctx, op, entityItem, item.ID)
	return item, nil
}

// UpdateOrderItem edits quantity and notes while the item is a draft, and applies a status
// change when one is given.
func (s *Service) UpdateOrderItem(ctx context.Context, id uuid.UUID, cmd interfaces.UpdateOrderItemCommand) (*domain.OrderItem, error) {
	const op = "update"

	item, err := s.store.OrderItems.FindByID(ctx, id)
	if err != nil {
		return nil, s.reporter.Fail(ctx, op, entityItem, err)
	}

	if cmd.Quantity != nil || cmd.Notes != nil {
		if item.Status != domain.ItemDraft {
			return nil, s.reporter.Fail(ctx, op, entityItem, domain.ErrInvalidStatusTransition)
		}
		if cmd.Quantity != nil {
			item.Quantity = *cmd.Quantity
		}
		if cmd.Notes != nil {
			item.Notes = *cmd.Notes
		}
		if err := item.Validate(); err != nil {
			return nil, s.reporter.Fail(ctx, op, entityItem, err)
		}
	}
	if cmd.Status != nil {
		if err := item.TransitionTo(*cmd.Status); err != nil {
			return nil, s.reporter.Fail(ctx, op, entityItem, err)
		}
	}

	if err := s.store.OrderItems.Update(ctx, item); err != nil {
		return nil, s.reporter.Fail(ctx, op, entityItem, err)
	}

	s.reporter.Done(ctx, op, entityItem, id)
	return item, nil
}

// DeleteOrderItem removes a draft or cancelled item. Sent items must be cancelled instead.
func (s *Service) DeleteOrderItem(ctx context.Context, id uuid.UUID) error {
	const op = "delete"

	item, err := s.store.OrderItems.FindByID(ctx, id)
	if err != nil {
		return s.reporter.Fail(ctx, op, entityItem, err)
	}
	if item.Status != domain.ItemDraft && item.Status != domain.ItemCancelled {
		return s.reporter.Fail(ctx, op, entityItem, domain.ErrInvalidStatusTransition)
	}
	if err := s.store.OrderItems.Delete(ctx, id); err != nil {
		return s.reporter.Fail(ctx, op, entityItem, err)
	}

	s.reporter.Done(ctx, op, entityItem, id)
	return nil
}

// ServeOrderItem marks a confirmed item as brought to the table.
func (s *Service) ServeOrderItem(ctx context.Context, id uuid.UUID) (*domain.OrderItem, error) {
	served := domain.ItemServed
	item, err := s.UpdateOrderItem(ctx, id, interfaces.UpdateOrderItemCommand{Status: &served})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// SubmitDraftOrders sends every draft item of the session to the kitchen. Submitting with
// no drafts left is not an error.
func (s *Service) SubmitDraftOrders(ctx context.Context, sessionID uuid.UUID) (int64, error) {
	return s.transitionAll(ctx, "submit", sessionID, domain.ItemDraft, domain.ItemPending)
}

// ConfirmOrderItems accepts every pending item of the session.
func (s *Service) ConfirmOrderItems(ctx context.Context, sessionID uuid.UUID) (int64, error) {
	return s.transitionAll(ctx, "confirm", sessionID, domain.ItemPending, domain.ItemConfirmed)
}

func (s *Service) transitionAll(ctx context.Context, op string, sessionID uuid.UUID, from, to domain.OrderItemStatus) (int64, error) {
	session, err := s.store.Sessions.FindByID(ctx, sessionID)
	if err != nil {
		return 0, s.reporter.Fail(ctx, op, entityItem, err)
	}
	if !session.IsOpen() {
		return 0, s.reporter.Fail(ctx, op, entityItem, domain.ErrSessionClosed)
	}

	n, err := s.store.OrderItems.TransitionAll(ctx, sessionID, from, to)
	if err != nil {
		return 0, s.reporter.Fail(ctx, op, entityItem, err)
	}

	if n > 0 {
		s.reporter.Done(ctx, op, entityItem, sessionID)
	}
	s.logger.Debug("order_items_"+op, fmt.Sprintf("%d items moved to %s", n, to), "", map[string]interface{}{
		"session_id": sessionID.String(),
	})
	return n, nil
}

// CloseTableSession closes the session, closes its items and resolves its requests in one
// atomic store operation.
func (s *Service) CloseTableSession(ctx context.Context, sessionID uuid.UUID) error {
	if err := s.store.Sessions.Close(ctx, sessionID); err != nil {
		return s.reporter.Fail(ctx, "close", entitySession, err)
	}
	s.reporter.Done(ctx, "close", entitySession, sessionID)
	return nil
}

func (s *Service) CreateServiceRequest(ctx context.Context, cmd interfaces.CreateServiceRequestCommand) (*domain.ServiceRequest, error) {
	const op = "create"

	session, err := s.store.Sessions.FindByID(ctx, cmd.SessionID)
	if err != nil {
		return nil, s.reporter.Fail(ctx, op, entityRequest, err)
	}

	capability := domain.CapabilityCallWaiter
	if cmd.Type == domain.RequestBill {
		capability = domain.CapabilityBillRequest
	}
	if err := s.requireCapability(ctx, session.RestaurantID, capability); err != nil {
		return nil, s.reporter.Fail(ctx, op, entityRequest, err)
	}

	req, err := domain.NewServiceRequest(session, cmd.Type)
	if err != nil {
		return nil, s.reporter.Fail(ctx, op, entityRequest, err)
	}
	if err := s.store.ServiceRequests.Create(ctx, req); err != nil {
		return nil, s.reporter.Fail(ctx, op, entityRequest, err)
	}

	s.reporter.Done(ctx, op, entityRequest, req.ID)
	return req, nil
}

// ResolveServiceRequest is idempotent: resolving a resolved request writes nothing.
func (s *Service) ResolveServiceRequest(ctx context.Context, id uuid.UUID) (*domain.ServiceRequest, error) {
	const op = "resolve"

	req, err := s.store.ServiceRequests.FindByID(ctx, id)
	if err != nil {
		return nil, s.reporter.Fail(ctx, op, entityRequest, err)
	}
	if req.Status == domain.RequestResolved {
		return req, nil
	}

	req.Resolve()
	if err := s.store.ServiceRequests.Update(ctx, req); err != nil {
		return nil, s.reporter.Fail(ctx, op, entityRequest, err)
	}

	s.reporter.Done(ctx, op, entityRequest, id)
	return req, nil
}

func (s *Service) DeleteServiceRequest(ctx context.Context, id uuid.UUID) error {
	if err := s.store.ServiceRequests.Delete(ctx, id); err != nil {
		return s.reporter.Fail(ctx, "delete", entityRequest, err)
	}
	s.reporter.Done(ctx, "delete", entityRequest, id)
	return nil
}

// Checkout charges the billable total of the session and closes it. The acting user's
// dashboards refetch right away instead of waiting for the change feed.
func (s *Service) Checkout(ctx context.Context, sessionID uuid.UUID, method domain.PaymentMethod) (*domain.PaymentResult, error) {
	const op = "checkout"

	if !method.Valid() {
		return nil, s.reporter.Fail(ctx, op, entitySession, domain.Validationf("payment method must be one of: cash, card, online"))
	}

	// 1. Проверка сессии
	session, err := s.store.Sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, s.reporter.Fail(ctx, op, entitySession, err)
	}
	if !session.IsOpen() {
		return nil, s.reporter.Fail(ctx, op, entitySession, domain.ErrSessionClosed)
	}

	// 2. Сумма по позициям (цены зафиксированы при создании)
	items, err := s.store.OrderItems.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, s.reporter.Fail(ctx, op, entitySession, err)
	}
	total := domain.SessionTotal(items)
	if !total.IsPositive() {
		return nil, s.reporter.Fail(ctx, op, entitySession, domain.Validationf("nothing to pay for"))
	}

	// 3. Оплата (a retry after a failed close reuses the earlier charge)
	result, err := s.settledPayment(ctx, sessionID, total)
	if err != nil {
		return nil, s.reporter.Fail(ctx, op, entitySession, err)
	}
	if result == nil {
		result, err = s.payments.ProcessPayment(ctx, sessionID, method, total)
		if err != nil {
			return nil, s.reporter.Fail(ctx, op, entitySession, err)
		}
		if !result.Success {
			return result, s.reporter.Fail(ctx, op, entitySession, fmt.Errorf("payment declined: %s", result.Message))
		}
	}

	// 4. Закрытие сессии
	if err := s.store.Sessions.Close(ctx, sessionID); err != nil {
		s.logger.Error("checkout_close_failed", "Session paid but not closed", "", map[string]interface{}{
			"session_id": sessionID.String(),
			"payment_id": result.PaymentID.String(),
		}, err)
		return result, s.reporter.Fail(ctx, op, entitySession, err)
	}

	s.reporter.Done(ctx, op, entitySession, sessionID)
	s.logger.Info("session_checked_out", "Session paid and closed", "", map[string]interface{}{
		"session_id": sessionID.String(),
		"amount":     total.StringFixed(2),
		"method":     string(method),
	})

	if user := s.reporter.User(ctx); user != nil && s.refresher != nil {
		s.refresher.RefreshUser(user.ID)
	}
	return result, nil
}

// settledPayment returns the session's succeeded payment for exactly total, or nil.
func (s *Service) settledPayment(ctx context.Context, sessionID uuid.UUID, total decimal.Decimal) (*domain.PaymentResult, error) {
	payments, err := s.store.Payments.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	for _, p := range payments {
		if p.Status == domain.PaymentSucceeded && p.Amount.Equal(total) {
			return &domain.PaymentResult{
				Success:   true,
				PaymentID: p.ID,
				Amount:    p.Amount,
				Message:   "already paid",
			}, nil
		}
	}
	return nil, nil
}

func (s *Service) requireCapability(ctx context.Context, restaurantID uuid.UUID, c domain.Capability) error {
	restaurant, err := s.store.Restaurants.FindByID(ctx, restaurantID)
	if err != nil {
		return fmt.Errorf("failed to find restaurant: %w", err)
	}
	caps, _ := domain.ResolveCapabilities(restaurant.Features)
	if !caps.Enabled(c) {
		return fmt.Errorf("%s: %w", c, domain.ErrCapabilityDisabled)
	}
	return nil
}
