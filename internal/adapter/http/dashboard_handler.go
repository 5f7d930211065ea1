package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/juju/clock"

	"github.com/YelzhanWeb/menuapp/internal/adapter/auth"
	"github.com/YelzhanWeb/menuapp/internal/adapter/logger"
	"github.com/YelzhanWeb/menuapp/internal/app/connectivity"
	"github.com/YelzhanWeb/menuapp/internal/app/dashboard"
	"github.com/YelzhanWeb/menuapp/internal/config"
	"github.com/YelzhanWeb/menuapp/internal/domain"
	"github.com/YelzhanWeb/menuapp/internal/interfaces"
)

const writeWait = 10 * time.Second

var websocketUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

const (
	MessageSnapshot     = "snapshot"
	MessageConnectivity = "connectivity"
	MessageError        = "error"
)

// DashboardMessage is what the server streams to a mounted dashboard.
type DashboardMessage struct {
	Type         string               `json:"type"`
	Snapshot     *domain.Snapshot     `json:"snapshot,omitempty"`
	Capabilities []domain.Capability  `json:"capabilities,omitempty"`
	Connectivity *connectivity.Status `json:"connectivity,omitempty"`
	Error        string               `json:"error,omitempty"`
}

// ClientMessage is what a dashboard client may send: "refresh" refetches at once and
// "reset" clears a latched connectivity alert.
type ClientMessage struct {
	Type string `json:"type"`
}

type DashboardConfig struct {
	Hub      *dashboard.Hub
	Fetcher  *dashboard.Fetcher
	Notifier interfaces.ChangeNotifier
	Pinger   connectivity.Pinger
	Realtime config.RealtimeConfig
	Clock    clock.Clock
	Observer dashboard.Observer
	Logger   logger.Logger
}

type DashboardHandler struct {
	cfg DashboardConfig
}

func NewDashboardHandler(cfg DashboardConfig) *DashboardHandler {
	if cfg.Clock == nil {
		cfg.Clock = clock.WallClock
	}
	return &DashboardHandler{cfg: cfg}
}

func (h *DashboardHandler) Routes(r chi.Router) {
	r.Get("/dashboards/{role}", h.mount)
	r.Get("/dashboards/{role}/snapshot", h.snapshot)
}

// resolveRole is the only gate in front of a dashboard: a user whose profile names another
// staff role is redirected to that role's dashboard.
func (h *DashboardHandler) resolveRole(w http.ResponseWriter, r *http.Request) (domain.Role, bool) {
	role := domain.Role(chi.URLParam(r, "role"))
	if !role.HasDashboard() {
		respondError(w, http.StatusNotFound, "no dashboard for role "+string(role), "")
		return "", false
	}
	if auth.UserFrom(r.Context()) == nil {
		respondError(w, http.StatusUnauthorized, domain.ErrAuthMissing.Error(), "Please sign in again.")
		return "", false
	}

	_, profile, err := h.cfg.Fetcher.ResolveRestaurant(r.Context())
	if err != nil && !errors.Is(err, domain.ErrNoRestaurantAssociation) {
		h.cfg.Logger.Debug("profile_unresolved", "Mounting without a resolved profile", middleware.GetReqID(r.Context()), map[string]interface{}{
			"error": err.Error(),
		})
	}
	if profile != nil && profile.Role != role && profile.Role.HasDashboard() {
		target := strings.Replace(r.URL.Path, "/dashboards/"+string(role), "/dashboards/"+string(profile.Role), 1)
		http.Redirect(w, r, target, http.StatusTemporaryRedirect)
		return "", false
	}
	return role, true
}

func (h *DashboardHandler) snapshot(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.resolveRole(w, r); !ok {
		return
	}
	snap, err := h.cfg.Fetcher.Fetch(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, snapshotMessage(*snap))
}

func (h *DashboardHandler) mount(w http.ResponseWriter, r *http.Request) {
	role, ok := h.resolveRole(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetReqID(r.Context())
	user := auth.UserFrom(r.Context())

	conn, err := websocketUpgrader.Upgrade(w, r, nil)
	if err != nil {
		h.cfg.Logger.Error("websocket_upgrade_failed", "Problem initiating websocket", requestID, nil, err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	out := newOutbox()
	monitor := connectivity.NewMonitor(h.cfg.Clock, h.cfg.Realtime.DisconnectGrace, out.setStatus)
	defer monitor.Stop()
	out.setStatus(monitor.Status())

	d, err := h.cfg.Hub.Mount(ctx, user.ID, dashboard.Config{
		Role:             role,
		Fetcher:          h.cfg.Fetcher,
		Notifier:         h.cfg.Notifier,
		Clock:            h.cfg.Clock,
		DebounceWindow:   h.cfg.Realtime.DebounceWindow,
		Logger:           h.cfg.Logger,
		Observer:         h.cfg.Observer,
		OnSnapshot:       out.setSnapshot,
		OnRealtimeStatus: monitor.SetRealtimeConnected,
	})
	if err != nil {
		h.cfg.Logger.Error("dashboard_mount_failed", "Failed to mount dashboard", requestID, map[string]interface{}{
			"role": string(role),
		}, err)
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		conn.WriteJSON(DashboardMessage{Type: MessageError, Error: err.Error()})
		return
	}
	defer d.Close()

	h.cfg.Logger.Info("dashboard_connected", "Dashboard client connected", requestID, map[string]interface{}{
		"role":    string(role),
		"user_id": user.ID.String(),
	})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		connectivity.Probe(ctx, h.cfg.Clock, h.cfg.Realtime.ProbeInterval, h.cfg.Pinger, monitor)
	}()
	go func() {
		defer wg.Done()
		h.writeLoop(ctx, conn, out)
	}()

	h.readLoop(conn, d, monitor)
	cancel()
	wg.Wait()

	h.cfg.Logger.Info("dashboard_disconnected", "Dashboard client disconnected", requestID, map[string]interface{}{
		"role": string(role),
	})
}

// readLoop returns when the client goes away.
func (h *DashboardHandler) readLoop(conn *websocket.Conn, d *dashboard.Dashboard, monitor *connectivity.Monitor) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		switch msg.Type {
		case "refresh":
			d.Refresh()
		case "reset":
			monitor.Reset()
		}
	}
}

// writeLoop is the only writer of data frames on conn.
func (h *DashboardHandler) writeLoop(ctx context.Context, conn *websocket.Conn, out *outbox) {
	for {
		select {
		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			return
		case <-out.wake:
		}

		snap, status := out.take()
		var msgs []DashboardMessage
		if status != nil {
			msgs = append(msgs, DashboardMessage{Type: MessageConnectivity, Connectivity: status})
		}
		if snap != nil {
			msgs = append(msgs, snapshotMessage(*snap))
		}
		for _, msg := range msgs {
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				h.cfg.Logger.Debug("websocket_write_failed", "Dropping dashboard client", "", map[string]interface{}{
					"error": err.Error(),
				})
				// unblocks readLoop
				conn.Close()
				return
			}
		}
	}
}

func snapshotMessage(snap domain.Snapshot) DashboardMessage {
	return DashboardMessage{
		Type:         MessageSnapshot,
		Snapshot:     &snap,
		Capabilities: snap.Capabilities.List(),
	}
}

// outbox keeps only the latest snapshot and status; a slow client skips intermediate ones.
type outbox struct {
	mu       sync.Mutex
	snapshot *domain.Snapshot
	status   *connectivity.Status
	wake     chan struct{}
}

func newOutbox() *outbox {
	return &outbox{wake: make(chan struct{}, 1)}
}

func (o *outbox) setSnapshot(snap domain.Snapshot) {
	o.mu.Lock()
	o.snapshot = &snap
	o.mu.Unlock()
	o.signal()
}

func (o *outbox) setStatus(st connectivity.Status) {
	o.mu.Lock()
	o.status = &st
	o.mu.Unlock()
	o.signal()
}

func (o *outbox) signal() {
	select {
	case o.wake <- struct{}{}:
	default:
	}
}

func (o *outbox) take() (*domain.Snapshot, *connectivity.Status) {
	o.mu.Lock()
	defer o.mu.Unlock()
	snap, st := o.snapshot, o.status
	o.snapshot, o.status = nil, nil
	return snap, st
}
