package order_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/YelzhanWeb/menuapp/internal/adapter/auth"
	"github.com/YelzhanWeb/menuapp/internal/adapter/logger"
	"github.com/YelzhanWeb/menuapp/internal/adapter/memory"
	"github.com/YelzhanWeb/menuapp/internal/app/mutation"
	"github.com/YelzhanWeb/menuapp/internal/app/order"
	"github.com/YelzhanWeb/menuapp/internal/app/payment"
	"github.com/YelzhanWeb/menuapp/internal/domain"
	"github.com/YelzhanWeb/menuapp/internal/interfaces"
)

type auditLog struct {
	mu      sync.Mutex
	records []domain.MutationRecord
}

func (a *auditLog) Record(_ context.Context, rec domain.MutationRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = append(a.records, rec)
	return nil
}

func (a *auditLog) ops() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.records))
	for i, r := range a.records {
		out[i] = r.Op + " " + r.Entity
	}
	return out
}

type refreshLog struct {
	mu    sync.Mutex
	users []uuid.UUID
}

func (r *refreshLog) RefreshUser(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = append(r.users, id)
}

type fixture struct {
	ctx       context.Context
	repos     interfaces.Store
	svc       *order.Service
	audit     *auditLog
	refreshes *refreshLog
	user      *domain.User
	rest      *domain.Restaurant
	table     *domain.Table
	soup      *domain.Product
}

func newFixture(c *qt.C, features ...string) *fixture {
	repos := memory.New(nil).Repositories()
	user := &domain.User{ID: uuid.New()}
	ctx := auth.WithUser(context.Background(), user)

	rest, err := domain.NewRestaurant("Blue Door", "blue-door", features)
	c.Assert(err, qt.IsNil)
	c.Assert(repos.Restaurants.Create(ctx, rest), qt.IsNil)
	table, err := domain.NewTable(rest.ID, 12)
	c.Assert(err, qt.IsNil)
	c.Assert(repos.Tables.Create(ctx, table), qt.IsNil)
	soup := &domain.Product{
		ID:           uuid.New(),
		RestaurantID: rest.ID,
		Name:         "Tomato soup",
		Price:        decimal.RequireFromString("6.50"),
		Available:    true,
	}
	c.Assert(repos.Products.Create(ctx, soup), qt.IsNil)

	audit := &auditLog{}
	refreshes := &refreshLog{}
	reporter := mutation.NewReporter(auth.ContextAuthenticator{}, audit, nil, logger.Nop())
	processor := payment.NewProcessor(repos.Sessions, repos.Restaurants, repos.Payments, logger.Nop())

	return &fixture{
		ctx:       ctx,
		repos:     repos,
		svc:       order.NewService(repos, processor, refreshes, reporter, logger.Nop()),
		audit:     audit,
		refreshes: refreshes,
		user:      user,
		rest:      rest,
		table:     table,
		soup:      soup,
	}
}

func (f *fixture) addSoup(c *qt.C, sessionID uuid.UUID, qty int) *domain.OrderItem {
	item, err := f.svc.AddOrderItem(f.ctx, interfaces.AddOrderItemCommand{
		SessionID: sessionID,
		ProductID: f.soup.ID,
		Quantity:  qty,
	})
	c.Assert(err, qt.IsNil)
	return item
}

func assertMutationError(c *qt.C, err error, target error) *domain.MutationError {
	c.Helper()
	var mErr *domain.MutationError
	c.Assert(errors.As(err, &mErr), qt.IsTrue, qt.Commentf("got %v", err))
	c.Assert(err, qt.ErrorIs, target)
	c.Assert(mErr.Notification, qt.Not(qt.Equals), "")
	return mErr
}

func TestOpenSessionReusesOrderingSession(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c, "ordering")

	first, err := f.svc.OpenSession(f.ctx, f.table.ID)
	c.Assert(err, qt.IsNil)
	second, err := f.svc.OpenSession(f.ctx, f.table.ID)
	c.Assert(err, qt.IsNil)
	c.Check(second.ID, qt.Equals, first.ID)

	_, err = f.svc.OpenSession(f.ctx, uuid.New())
	assertMutationError(c, err, domain.ErrNotFound)
}

func TestSubmitDraftOrdersIsIdempotent(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c, "ordering")
	sess, err := f.svc.OpenSession(f.ctx, f.table.ID)
	c.Assert(err, qt.IsNil)
	f.addSoup(c, sess.ID, 1)
	f.addSoup(c, sess.ID, 2)

	n, err := f.svc.SubmitDraftOrders(f.ctx, sess.ID)
	c.Assert(err, qt.IsNil)
	c.Check(n, qt.Equals, int64(2))

	n, err = f.svc.SubmitDraftOrders(f.ctx, sess.ID)
	c.Assert(err, qt.IsNil)
	c.Check(n, qt.Equals, int64(0))

	items, err := f.repos.OrderItems.ListBySession(f.ctx, sess.ID)
	c.Assert(err, qt.IsNil)
	for _, item := range items {
		c.Check(item.Status, qt.Equals, domain.ItemPending)
	}

	n, err = f.svc.ConfirmOrderItems(f.ctx, sess.ID)
	c.Assert(err, qt.IsNil)
	c.Check(n, qt.Equals, int64(2))
}

func TestUnitPriceIsCapturedAtCreation(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c, "ordering")
	sess, err := f.svc.OpenSession(f.ctx, f.table.ID)
	c.Assert(err, qt.IsNil)
	item := f.addSoup(c, sess.ID, 2)

	f.soup.Price = decimal.RequireFromString("9.00")
	c.Assert(f.repos.Products.Update(f.ctx, f.soup), qt.IsNil)

	got, err := f.repos.OrderItems.FindByID(f.ctx, item.ID)
	c.Assert(err, qt.IsNil)
	c.Check(got.UnitPrice.Equal(decimal.RequireFromString("6.50")), qt.IsTrue)

	_, err = f.svc.SubmitDraftOrders(f.ctx, sess.ID)
	c.Assert(err, qt.IsNil)
	result, err := f.svc.Checkout(f.ctx, sess.ID, domain.PaymentCash)
	c.Assert(err, qt.IsNil)
	c.Check(result.Amount.Equal(decimal.RequireFromString("13.00")), qt.IsTrue)
}

func TestDraftEditsOnly(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c, "ordering")
	sess, err := f.svc.OpenSession(f.ctx, f.table.ID)
	c.Assert(err, qt.IsNil)
	item := f.addSoup(c, sess.ID, 1)

	qty := 3
	updated, err := f.svc.UpdateOrderItem(f.ctx, item.ID, interfaces.UpdateOrderItemCommand{Quantity: &qty})
	c.Assert(err, qt.IsNil)
	c.Check(updated.Quantity, qt.Equals, 3)

	tooMany := 51
	_, err = f.svc.UpdateOrderItem(f.ctx, item.ID, interfaces.UpdateOrderItemCommand{Quantity: &tooMany})
	assertMutationError(c, err, domain.ErrValidation)

	_, err = f.svc.SubmitDraftOrders(f.ctx, sess.ID)
	c.Assert(err, qt.IsNil)
	_, err = f.svc.UpdateOrderItem(f.ctx, item.ID, interfaces.UpdateOrderItemCommand{Quantity: &qty})
	assertMutationError(c, err, domain.ErrInvalidStatusTransition)
	assertMutationError(c, f.svc.DeleteOrderItem(f.ctx, item.ID), domain.ErrInvalidStatusTransition)

	// pending items cannot be served before confirmation
	_, err = f.svc.ServeOrderItem(f.ctx, item.ID)
	assertMutationError(c, err, domain.ErrInvalidStatusTransition)
	_, err = f.svc.ConfirmOrderItems(f.ctx, sess.ID)
	c.Assert(err, qt.IsNil)
	served, err := f.svc.ServeOrderItem(f.ctx, item.ID)
	c.Assert(err, qt.IsNil)
	c.Check(served.Status, qt.Equals, domain.ItemServed)
}

func TestOrderingCapabilityRequired(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c)
	sess, err := f.svc.OpenSession(f.ctx, f.table.ID)
	c.Assert(err, qt.IsNil)

	_, err = f.svc.AddOrderItem(f.ctx, interfaces.AddOrderItemCommand{SessionID: sess.ID, ProductID: f.soup.ID, Quantity: 1})
	mErr := assertMutationError(c, err, domain.ErrCapabilityDisabled)
	c.Check(mErr.Op, qt.Equals, "add")
	c.Check(mErr.Entity, qt.Equals, "order item")

	_, err = f.svc.CreateServiceRequest(f.ctx, interfaces.CreateServiceRequestCommand{SessionID: sess.ID, Type: domain.RequestCallWaiter})
	assertMutationError(c, err, domain.ErrCapabilityDisabled)
}

func TestServiceRequestResolveIsIdempotent(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c, "ordering", "bill_request")
	sess, err := f.svc.OpenSession(f.ctx, f.table.ID)
	c.Assert(err, qt.IsNil)

	req, err := f.svc.CreateServiceRequest(f.ctx, interfaces.CreateServiceRequestCommand{SessionID: sess.ID, Type: domain.RequestBill})
	c.Assert(err, qt.IsNil)

	first, err := f.svc.ResolveServiceRequest(f.ctx, req.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(first.ResolvedAt, qt.Not(qt.IsNil))
	second, err := f.svc.ResolveServiceRequest(f.ctx, req.ID)
	c.Assert(err, qt.IsNil)
	c.Check(second.ResolvedAt.Equal(*first.ResolvedAt), qt.IsTrue)

	_, err = f.svc.CreateServiceRequest(f.ctx, interfaces.CreateServiceRequestCommand{SessionID: sess.ID, Type: "dance"})
	assertMutationError(c, err, domain.ErrValidation)
}

func TestCloseTableSession(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c, "ordering", "call_waiter")
	sess, err := f.svc.OpenSession(f.ctx, f.table.ID)
	c.Assert(err, qt.IsNil)
	item := f.addSoup(c, sess.ID, 1)
	_, err = f.svc.SubmitDraftOrders(f.ctx, sess.ID)
	c.Assert(err, qt.IsNil)
	req, err := f.svc.CreateServiceRequest(f.ctx, interfaces.CreateServiceRequestCommand{SessionID: sess.ID, Type: domain.RequestCallWaiter})
	c.Assert(err, qt.IsNil)

	c.Assert(f.svc.CloseTableSession(f.ctx, sess.ID), qt.IsNil)

	view, err := f.svc.GetSession(f.ctx, sess.ID)
	c.Assert(err, qt.IsNil)
	c.Check(view.Status, qt.Equals, domain.SessionClosed)
	c.Check(view.OrderItems[0].ID, qt.Equals, item.ID)
	c.Check(view.OrderItems[0].Status, qt.Equals, domain.ItemClosed)
	gotReq, err := f.repos.ServiceRequests.FindByID(f.ctx, req.ID)
	c.Assert(err, qt.IsNil)
	c.Check(gotReq.Status, qt.Equals, domain.RequestResolved)

	_, err = f.svc.SubmitDraftOrders(f.ctx, sess.ID)
	assertMutationError(c, err, domain.ErrSessionClosed)
	_, err = f.svc.AddOrderItem(f.ctx, interfaces.AddOrderItemCommand{SessionID: sess.ID, ProductID: f.soup.ID, Quantity: 1})
	assertMutationError(c, err, domain.ErrSessionClosed)

	// the table can be seated again
	next, err := f.svc.OpenSession(f.ctx, f.table.ID)
	c.Assert(err, qt.IsNil)
	c.Check(next.ID, qt.Not(qt.Equals), sess.ID)
}

func TestCheckoutClosesSessionAndRefreshesDashboards(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c, "ordering")
	sess, err := f.svc.OpenSession(f.ctx, f.table.ID)
	c.Assert(err, qt.IsNil)
	f.addSoup(c, sess.ID, 2)
	cancelled := f.addSoup(c, sess.ID, 5)
	_, err = f.svc.SubmitDraftOrders(f.ctx, sess.ID)
	c.Assert(err, qt.IsNil)
	status := domain.ItemCancelled
	_, err = f.svc.UpdateOrderItem(f.ctx, cancelled.ID, interfaces.UpdateOrderItemCommand{Status: &status})
	c.Assert(err, qt.IsNil)

	result, err := f.svc.Checkout(f.ctx, sess.ID, domain.PaymentCard)
	c.Assert(err, qt.IsNil)
	c.Check(result.Success, qt.IsTrue)
	c.Check(result.Amount.Equal(decimal.RequireFromString("13")), qt.IsTrue)

	got, err := f.repos.Sessions.FindByID(f.ctx, sess.ID)
	c.Assert(err, qt.IsNil)
	c.Check(got.Status, qt.Equals, domain.SessionClosed)

	payments, err := f.repos.Payments.ListBySession(f.ctx, sess.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(payments, qt.HasLen, 1)
	c.Check(payments[0].ID, qt.Equals, result.PaymentID)
	c.Check(payments[0].Method, qt.Equals, domain.PaymentCard)

	c.Check(f.refreshes.users, qt.DeepEquals, []uuid.UUID{f.user.ID})
	c.Check(f.audit.ops()[len(f.audit.ops())-1], qt.Equals, "checkout session")

	_, err = f.svc.Checkout(f.ctx, sess.ID, domain.PaymentCard)
	assertMutationError(c, err, domain.ErrSessionClosed)
}

// flakySessions fails the first Close call.
type flakySessions struct {
	interfaces.SessionRepository
	mu     sync.Mutex
	failed bool
}

func (f *flakySessions) Close(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	first := !f.failed
	f.failed = true
	f.mu.Unlock()
	if first {
		return errors.New("connection reset by peer")
	}
	return f.SessionRepository.Close(ctx, id)
}

func TestCheckoutRetryDoesNotChargeTwice(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c, "ordering")
	sess, err := f.svc.OpenSession(f.ctx, f.table.ID)
	c.Assert(err, qt.IsNil)
	f.addSoup(c, sess.ID, 2)
	_, err = f.svc.SubmitDraftOrders(f.ctx, sess.ID)
	c.Assert(err, qt.IsNil)

	repos := f.repos
	repos.Sessions = &flakySessions{SessionRepository: f.repos.Sessions}
	reporter := mutation.NewReporter(auth.ContextAuthenticator{}, f.audit, nil, logger.Nop())
	processor := payment.NewProcessor(repos.Sessions, repos.Restaurants, repos.Payments, logger.Nop())
	svc := order.NewService(repos, processor, f.refreshes, reporter, logger.Nop())

	first, err := svc.Checkout(f.ctx, sess.ID, domain.PaymentCash)
	c.Assert(err, qt.ErrorMatches, ".*connection reset by peer")
	c.Assert(first, qt.Not(qt.IsNil))
	got, err := f.repos.Sessions.FindByID(f.ctx, sess.ID)
	c.Assert(err, qt.IsNil)
	c.Check(got.Status, qt.Equals, domain.SessionOrdering)

	second, err := svc.Checkout(f.ctx, sess.ID, domain.PaymentCash)
	c.Assert(err, qt.IsNil)
	c.Check(second.PaymentID, qt.Equals, first.PaymentID)
	c.Check(second.Amount.Equal(decimal.RequireFromString("13")), qt.IsTrue)

	payments, err := f.repos.Payments.ListBySession(f.ctx, sess.ID)
	c.Assert(err, qt.IsNil)
	c.Check(payments, qt.HasLen, 1)
	got, err = f.repos.Sessions.FindByID(f.ctx, sess.ID)
	c.Assert(err, qt.IsNil)
	c.Check(got.Status, qt.Equals, domain.SessionClosed)
}

func TestCheckoutRejectsEmptyBill(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c, "ordering")
	sess, err := f.svc.OpenSession(f.ctx, f.table.ID)
	c.Assert(err, qt.IsNil)
	// drafts are not billable
	f.addSoup(c, sess.ID, 1)

	_, err = f.svc.Checkout(f.ctx, sess.ID, domain.PaymentCash)
	assertMutationError(c, err, domain.ErrValidation)
	c.Check(f.refreshes.users, qt.HasLen, 0)
}

func TestOnlinePaymentNeedsCapability(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c, "ordering")
	sess, err := f.svc.OpenSession(f.ctx, f.table.ID)
	c.Assert(err, qt.IsNil)
	f.addSoup(c, sess.ID, 1)
	_, err = f.svc.SubmitDraftOrders(f.ctx, sess.ID)
	c.Assert(err, qt.IsNil)

	_, err = f.svc.Checkout(f.ctx, sess.ID, domain.PaymentOnline)
	mErr := assertMutationError(c, err, domain.ErrCapabilityDisabled)
	c.Check(mErr.Notification, qt.Equals, "This feature is not enabled for the restaurant.")

	got, err := f.repos.Sessions.FindByID(f.ctx, sess.ID)
	c.Assert(err, qt.IsNil)
	c.Check(got.Status, qt.Equals, domain.SessionOrdering)

	f.rest.Features = append(f.rest.Features, "online_payment")
	c.Assert(f.repos.Restaurants.Update(f.ctx, f.rest), qt.IsNil)
	result, err := f.svc.Checkout(f.ctx, sess.ID, domain.PaymentOnline)
	c.Assert(err, qt.IsNil)
	c.Check(result.Success, qt.IsTrue)
}

func TestSuccessfulWritesAreAudited(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c, "ordering")
	sess, err := f.svc.OpenSession(f.ctx, f.table.ID)
	c.Assert(err, qt.IsNil)
	f.addSoup(c, sess.ID, 1)
	_, err = f.svc.AddOrderItem(f.ctx, interfaces.AddOrderItemCommand{SessionID: sess.ID, ProductID: uuid.New(), Quantity: 1})
	c.Assert(err, qt.Not(qt.IsNil))

	c.Check(f.audit.ops(), qt.DeepEquals, []string{"open session", "add order item"})
	c.Check(f.audit.records[0].UserID, qt.Equals, f.user.ID.String())
}
