package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/juju/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"github.com/YelzhanWeb/menuapp/internal/adapter/auth"
	httpadapter "github.com/YelzhanWeb/menuapp/internal/adapter/http"
	"github.com/YelzhanWeb/menuapp/internal/adapter/inproc"
	"github.com/YelzhanWeb/menuapp/internal/adapter/logger"
	"github.com/YelzhanWeb/menuapp/internal/adapter/memory"
	"github.com/YelzhanWeb/menuapp/internal/app/catalog"
	"github.com/YelzhanWeb/menuapp/internal/app/dashboard"
	"github.com/YelzhanWeb/menuapp/internal/app/mutation"
	"github.com/YelzhanWeb/menuapp/internal/app/order"
	"github.com/YelzhanWeb/menuapp/internal/app/payment"
	"github.com/YelzhanWeb/menuapp/internal/config"
	"github.com/YelzhanWeb/menuapp/internal/domain"
)

const longWait = 5 * time.Second

type memoryAudit struct {
	mu      sync.Mutex
	records []domain.MutationRecord
}

func (a *memoryAudit) Record(_ context.Context, rec domain.MutationRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = append(a.records, rec)
	return nil
}

func (a *memoryAudit) ListByEntity(_ context.Context, entityID string, limit int) ([]domain.MutationRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []domain.MutationRecord
	for i := len(a.records) - 1; i >= 0 && len(out) < limit; i-- {
		if a.records[i].EntityID == entityID {
			out = append(out, a.records[i])
		}
	}
	return out, nil
}

type harness struct {
	server *httptest.Server
	client *http.Client
	hub    *dashboard.Hub
	user   uuid.UUID
}

func newHarness(c *qt.C) *harness {
	lg := logger.Nop()
	notifier := inproc.NewNotifier()
	store := memory.New(notifier)
	repos := store.Repositories()
	hub := dashboard.NewHub()
	audit := &memoryAudit{}
	reporter := mutation.NewReporter(auth.ContextAuthenticator{}, audit, nil, lg)

	collector := dashboard.NewMetricsCollector()
	registry := prometheus.NewRegistry()
	c.Assert(registry.Register(collector), qt.IsNil)

	processor := payment.NewProcessor(repos.Sessions, repos.Restaurants, repos.Payments, lg)
	fetcher := dashboard.NewFetcher(auth.ContextAuthenticator{}, repos.Profiles, repos.Snapshots, clock.WallClock, lg)

	router := httpadapter.NewRouter(httpadapter.RouterConfig{
		Catalog: httpadapter.NewCatalogHandler(catalog.NewService(repos, reporter, lg), lg),
		Orders:  httpadapter.NewOrderHandler(order.NewService(repos, processor, hub, reporter, lg), lg),
		Dashboards: httpadapter.NewDashboardHandler(httpadapter.DashboardConfig{
			Hub:      hub,
			Fetcher:  fetcher,
			Notifier: notifier,
			Pinger:   store,
			Realtime: config.RealtimeConfig{
				DebounceWindow:  20 * time.Millisecond,
				DisconnectGrace: 5 * time.Second,
				ProbeInterval:   time.Hour,
			},
			Observer: collector,
			Logger:   lg,
		}),
		Audit:   audit,
		Store:   store,
		Metrics: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		Logger:  lg,
	})

	server := httptest.NewServer(router)
	c.Cleanup(func() {
		hub.CloseAll()
		server.Close()
	})
	return &harness{
		server: server,
		client: &http.Client{
			CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
		},
		hub:  hub,
		user: uuid.New(),
	}
}

// call sends body as JSON with the harness user and decodes the response into out.
func (h *harness) call(c *qt.C, method, path string, body, out any) int {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		c.Assert(err, qt.IsNil)
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, h.server.URL+path, rd)
	c.Assert(err, qt.IsNil)
	req.Header.Set(auth.UserHeader, h.user.String())
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	c.Assert(err, qt.IsNil)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode != http.StatusNoContent {
		c.Assert(json.NewDecoder(resp.Body).Decode(out), qt.IsNil)
	}
	return resp.StatusCode
}

type floor struct {
	restaurant domain.Restaurant
	table      domain.Table
	product    domain.Product
}

func (h *harness) seed(c *qt.C, role domain.Role, features ...string) floor {
	var f floor
	c.Assert(h.call(c, http.MethodPost, "/api/v1/restaurants", map[string]any{
		"name": "Harbour", "slug": "Harbour", "features": features,
	}, &f.restaurant), qt.Equals, http.StatusCreated)
	c.Assert(f.restaurant.Slug, qt.Equals, "harbour")

	c.Assert(h.call(c, http.MethodPut, "/api/v1/profiles/"+h.user.String(), map[string]any{
		"restaurant_id": f.restaurant.ID, "role": role,
	}, nil), qt.Equals, http.StatusOK)

	c.Assert(h.call(c, http.MethodPost, "/api/v1/tables", map[string]any{
		"restaurant_id": f.restaurant.ID, "table_number": 4,
	}, &f.table), qt.Equals, http.StatusCreated)

	c.Assert(h.call(c, http.MethodPost, "/api/v1/products", map[string]any{
		"restaurant_id": f.restaurant.ID, "name": "Soup", "price": "7.50",
	}, &f.product), qt.Equals, http.StatusCreated)
	c.Assert(f.product.Available, qt.IsTrue)
	return f
}

func TestSessionLifecycleOverHTTP(t *testing.T) {
	c := qt.New(t)
	h := newHarness(c)
	f := h.seed(c, domain.RoleWaiter, "ordering", "call_waiter")

	var session domain.Session
	c.Assert(h.call(c, http.MethodPost, "/api/v1/sessions", map[string]any{"table_id": f.table.ID}, &session), qt.Equals, http.StatusOK)
	c.Check(session.Status, qt.Equals, domain.SessionOrdering)

	var again domain.Session
	h.call(c, http.MethodPost, "/api/v1/sessions", map[string]any{"table_id": f.table.ID}, &again)
	c.Check(again.ID, qt.Equals, session.ID)

	var item domain.OrderItem
	c.Assert(h.call(c, http.MethodPost, "/api/v1/order-items", map[string]any{
		"session_id": session.ID, "product_id": f.product.ID, "quantity": 2,
	}, &item), qt.Equals, http.StatusCreated)
	c.Check(item.Status, qt.Equals, domain.ItemDraft)

	var moved httpadapter.TransitionResponse
	h.call(c, http.MethodPost, "/api/v1/sessions/"+session.ID.String()+"/submit", nil, &moved)
	c.Check(moved.Affected, qt.Equals, int64(1))
	h.call(c, http.MethodPost, "/api/v1/sessions/"+session.ID.String()+"/submit", nil, &moved)
	c.Check(moved.Affected, qt.Equals, int64(0))

	c.Assert(h.call(c, http.MethodPost, "/api/v1/service-requests", map[string]any{
		"session_id": session.ID, "type": "call_waiter",
	}, nil), qt.Equals, http.StatusCreated)

	var view domain.SessionView
	c.Assert(h.call(c, http.MethodGet, "/api/v1/sessions/"+session.ID.String(), nil, &view), qt.Equals, http.StatusOK)
	c.Assert(view.OrderItems, qt.HasLen, 1)
	c.Check(view.OrderItems[0].Status, qt.Equals, domain.ItemPending)
	c.Check(view.ServiceRequests, qt.HasLen, 1)

	var result domain.PaymentResult
	c.Assert(h.call(c, http.MethodPost, "/api/v1/sessions/"+session.ID.String()+"/checkout", map[string]any{"method": "cash"}, &result), qt.Equals, http.StatusOK)
	c.Check(result.Success, qt.IsTrue)
	c.Check(result.Amount.Equal(decimal.NewFromInt(15)), qt.IsTrue)

	h.call(c, http.MethodGet, "/api/v1/sessions/"+session.ID.String(), nil, &view)
	c.Check(view.Status, qt.Equals, domain.SessionClosed)

	var errResp httpadapter.ErrorResponse
	c.Assert(h.call(c, http.MethodPost, "/api/v1/sessions/"+session.ID.String()+"/checkout", map[string]any{"method": "cash"}, &errResp), qt.Equals, http.StatusConflict)
	c.Check(errResp.Notification, qt.Equals, "The table session is already closed.")

	var trail []domain.MutationRecord
	c.Assert(h.call(c, http.MethodGet, "/api/v1/audit/"+session.ID.String(), nil, &trail), qt.Equals, http.StatusOK)
	c.Assert(len(trail) > 0, qt.IsTrue)
	c.Check(trail[0].Op, qt.Equals, "checkout")
	c.Check(trail[0].UserID, qt.Equals, h.user.String())
}

func TestMutationErrorsCarryNotification(t *testing.T) {
	c := qt.New(t)
	h := newHarness(c)
	f := h.seed(c, domain.RoleWaiter)

	var errResp httpadapter.ErrorResponse
	c.Assert(h.call(c, http.MethodPost, "/api/v1/order-items", map[string]any{
		"session_id": uuid.New(), "product_id": f.product.ID, "quantity": 1,
	}, &errResp), qt.Equals, http.StatusNotFound)
	c.Check(errResp.Notification, qt.Equals, "The order item no longer exists.")

	var session domain.Session
	h.call(c, http.MethodPost, "/api/v1/sessions", map[string]any{"table_id": f.table.ID}, &session)
	c.Assert(h.call(c, http.MethodPost, "/api/v1/order-items", map[string]any{
		"session_id": session.ID, "product_id": f.product.ID, "quantity": 1,
	}, &errResp), qt.Equals, http.StatusForbidden)
	c.Check(errResp.Notification, qt.Equals, "This feature is not enabled for the restaurant.")

	c.Check(h.call(c, http.MethodPost, "/api/v1/tables", map[string]any{"bogus": true}, nil), qt.Equals, http.StatusBadRequest)
	c.Check(h.call(c, http.MethodGet, "/api/v1/tables/not-a-uuid", nil, nil), qt.Equals, http.StatusBadRequest)
}

func TestMalformedUserHeaderRejected(t *testing.T) {
	c := qt.New(t)
	h := newHarness(c)

	req, err := http.NewRequest(http.MethodGet, h.server.URL+"/api/v1/restaurants", nil)
	c.Assert(err, qt.IsNil)
	req.Header.Set(auth.UserHeader, "someone")
	resp, err := h.client.Do(req)
	c.Assert(err, qt.IsNil)
	resp.Body.Close()
	c.Check(resp.StatusCode, qt.Equals, http.StatusUnauthorized)
}

func TestAnonymousCallers(t *testing.T) {
	c := qt.New(t)
	h := newHarness(c)

	send := func(method, path string, body string) int {
		req, err := http.NewRequest(method, h.server.URL+path, strings.NewReader(body))
		c.Assert(err, qt.IsNil)
		resp, err := h.client.Do(req)
		c.Assert(err, qt.IsNil)
		resp.Body.Close()
		return resp.StatusCode
	}

	c.Check(send(http.MethodPost, "/api/v1/restaurants", `{"name":"Pier","slug":"pier"}`), qt.Equals, http.StatusCreated)
	c.Check(send(http.MethodGet, "/api/v1/dashboards/waiter/snapshot", ""), qt.Equals, http.StatusUnauthorized)
}

func TestDashboardRoleMismatchRedirects(t *testing.T) {
	c := qt.New(t)
	h := newHarness(c)
	h.seed(c, domain.RoleChef, "ordering")

	req, err := http.NewRequest(http.MethodGet, h.server.URL+"/api/v1/dashboards/waiter/snapshot", nil)
	c.Assert(err, qt.IsNil)
	req.Header.Set(auth.UserHeader, h.user.String())
	resp, err := h.client.Do(req)
	c.Assert(err, qt.IsNil)
	resp.Body.Close()
	c.Check(resp.StatusCode, qt.Equals, http.StatusTemporaryRedirect)
	c.Check(resp.Header.Get("Location"), qt.Equals, "/api/v1/dashboards/chef/snapshot")

	c.Check(h.call(c, http.MethodGet, "/api/v1/dashboards/customer/snapshot", nil, nil), qt.Equals, http.StatusNotFound)

	var msg httpadapter.DashboardMessage
	c.Assert(h.call(c, http.MethodGet, "/api/v1/dashboards/chef/snapshot", nil, &msg), qt.Equals, http.StatusOK)
	c.Check(msg.Type, qt.Equals, httpadapter.MessageSnapshot)
	c.Check(msg.Snapshot.Tables, qt.HasLen, 1)
	c.Check(msg.Capabilities, qt.DeepEquals, []domain.Capability{domain.CapabilityOrdering})
}

func readUntil(c *qt.C, conn *websocket.Conn, match func(httpadapter.DashboardMessage) bool) httpadapter.DashboardMessage {
	deadline := time.Now().Add(longWait)
	for {
		c.Assert(conn.SetReadDeadline(deadline), qt.IsNil)
		var msg httpadapter.DashboardMessage
		c.Assert(conn.ReadJSON(&msg), qt.IsNil)
		if match(msg) {
			return msg
		}
	}
}

func TestDashboardStreamsSnapshots(t *testing.T) {
	c := qt.New(t)
	h := newHarness(c)
	f := h.seed(c, domain.RoleWaiter, "ordering")

	header := http.Header{}
	header.Set(auth.UserHeader, h.user.String())
	wsURL := "ws" + strings.TrimPrefix(h.server.URL, "http") + "/api/v1/dashboards/waiter"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	c.Assert(err, qt.IsNil)
	resp.Body.Close()

	status := readUntil(c, conn, func(m httpadapter.DashboardMessage) bool { return m.Type == httpadapter.MessageConnectivity })
	c.Check(status.Connectivity.Alert, qt.IsFalse)

	first := readUntil(c, conn, func(m httpadapter.DashboardMessage) bool { return m.Type == httpadapter.MessageSnapshot })
	c.Check(first.Snapshot.Sessions, qt.HasLen, 0)
	c.Check(h.hub.Count(), qt.Equals, 1)

	var session domain.Session
	h.call(c, http.MethodPost, "/api/v1/sessions", map[string]any{"table_id": f.table.ID}, &session)
	c.Assert(h.call(c, http.MethodPost, "/api/v1/order-items", map[string]any{
		"session_id": session.ID, "product_id": f.product.ID, "quantity": 3,
	}, nil), qt.Equals, http.StatusCreated)

	withItem := readUntil(c, conn, func(m httpadapter.DashboardMessage) bool {
		if m.Type != httpadapter.MessageSnapshot {
			return false
		}
		view, ok := m.Snapshot.SessionForTable(f.table.ID)
		return ok && len(view.OrderItems) == 1
	})
	c.Check(withItem.Snapshot.Sequence > first.Snapshot.Sequence, qt.IsTrue)

	c.Assert(conn.WriteJSON(httpadapter.ClientMessage{Type: "refresh"}), qt.IsNil)
	refreshed := readUntil(c, conn, func(m httpadapter.DashboardMessage) bool { return m.Type == httpadapter.MessageSnapshot })
	c.Check(refreshed.Snapshot.Sequence > withItem.Snapshot.Sequence, qt.IsTrue)

	metrics, err := http.Get(h.server.URL + "/metrics")
	c.Assert(err, qt.IsNil)
	body, err := io.ReadAll(metrics.Body)
	metrics.Body.Close()
	c.Assert(err, qt.IsNil)
	c.Check(string(body), qt.Contains, `menu_dashboard_mounted{role="waiter"} 1`)

	c.Assert(conn.Close(), qt.IsNil)
	deadline := time.Now().Add(longWait)
	for h.hub.Count() != 0 {
		if time.Now().After(deadline) {
			c.Fatal("dashboard still mounted after the client left")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHealth(t *testing.T) {
	c := qt.New(t)
	h := newHarness(c)

	var body map[string]string
	c.Assert(h.call(c, http.MethodGet, "/health", nil, &body), qt.Equals, http.StatusOK)
	c.Check(body["status"], qt.Equals, "ok")
}
