package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/YelzhanWeb/menuapp/internal/adapter/logger"
	"github.com/YelzhanWeb/menuapp/internal/domain"
	"github.com/YelzhanWeb/menuapp/internal/interfaces"
)

// OrderHandler serves the live floor writes: sessions, order items and service requests.
type OrderHandler struct {
	service interfaces.OrderService
	logger  logger.Logger
}

func NewOrderHandler(service interfaces.OrderService, logger logger.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger,
	}
}

type OpenSessionRequest struct {
	TableID uuid.UUID `json:"table_id"`
}

type UpdateSessionRequest struct {
	Status domain.SessionStatus `json:"status"`
}

type CheckoutRequest struct {
	Method domain.PaymentMethod `json:"method"`
}

type TransitionResponse struct {
	Affected int64 `json:"affected"`
}

func (h *OrderHandler) Routes(r chi.Router) {
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", h.openSession)
		r.Get("/{id}", h.getSession)
		r.Patch("/{id}", h.updateSession)
		r.Delete("/{id}", h.deleteSession)
		r.Post("/{id}/submit", h.submitDrafts)
		r.Post("/{id}/confirm", h.confirmItems)
		r.Post("/{id}/close", h.closeSession)
		r.Post("/{id}/checkout", h.checkout)
	})
	r.Route("/order-items", func(r chi.Router) {
		r.Post("/", h.addItem)
		r.Patch("/{id}", h.updateItem)
		r.Delete("/{id}", h.deleteItem)
		r.Post("/{id}/serve", h.serveItem)
	})
	r.Route("/service-requests", func(r chi.Router) {
		r.Post("/", h.createRequest)
		r.Post("/{id}/resolve", h.resolveRequest)
		r.Delete("/{id}", h.deleteRequest)
	})
}

func (h *OrderHandler) openSession(w http.ResponseWriter, r *http.Request) {
	var req OpenSessionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.TableID == uuid.Nil {
		respondError(w, http.StatusBadRequest, "table_id is required", "")
		return
	}
	s, err := h.service.OpenSession(r.Context(), req.TableID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, s)
}

func (h *OrderHandler) getSession(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	view, err := h.service.GetSession(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *OrderHandler) updateSession(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req UpdateSessionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s, err := h.service.UpdateSessionStatus(r.Context(), id, req.Status)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, s)
}

func (h *OrderHandler) deleteSession(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteSession(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *OrderHandler) submitDrafts(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	n, err := h.service.SubmitDraftOrders(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, TransitionResponse{Affected: n})
}

func (h *OrderHandler) confirmItems(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	n, err := h.service.ConfirmOrderItems(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, TransitionResponse{Affected: n})
}

func (h *OrderHandler) closeSession(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.CloseTableSession(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *OrderHandler) checkout(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req CheckoutRequest
	if !decodeBody(w, r, &req) {
		return
	}
	result, err := h.service.Checkout(r.Context(), id, req.Method)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *OrderHandler) addItem(w http.ResponseWriter, r *http.Request) {
	var cmd interfaces.AddOrderItemCommand
	if !decodeBody(w, r, &cmd) {
		return
	}
	item, err := h.service.AddOrderItem(r.Context(), cmd)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, item)
}

func (h *OrderHandler) updateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var cmd interfaces.UpdateOrderItemCommand
	if !decodeBody(w, r, &cmd) {
		return
	}
	item, err := h.service.UpdateOrderItem(r.Context(), id, cmd)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

func (h *OrderHandler) deleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteOrderItem(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *OrderHandler) serveItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	item, err := h.service.ServeOrderItem(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

func (h *OrderHandler) createRequest(w http.ResponseWriter, r *http.Request) {
	var cmd interfaces.CreateServiceRequestCommand
	if !decodeBody(w, r, &cmd) {
		return
	}
	req, err := h.service.CreateServiceRequest(r.Context(), cmd)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, req)
}

func (h *OrderHandler) resolveRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	req, err := h.service.ResolveServiceRequest(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, req)
}

func (h *OrderHandler) deleteRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteServiceRequest(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
