package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/YelzhanWeb/menuapp/internal/adapter/logger"
	"github.com/YelzhanWeb/menuapp/internal/interfaces"
)

// CatalogHandler serves restaurant setup: restaurants, menu, tables and staff profiles.
type CatalogHandler struct {
	service interfaces.CatalogService
	logger  logger.Logger
}

func NewCatalogHandler(service interfaces.CatalogService, logger logger.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: service,
		logger:  logger,
	}
}

func (h *CatalogHandler) Routes(r chi.Router) {
	r.Route("/restaurants", func(r chi.Router) {
		r.Get("/", h.listRestaurants)
		r.Post("/", h.createRestaurant)
		r.Get("/{id}", h.getRestaurant)
		r.Patch("/{id}", h.updateRestaurant)
		r.Delete("/{id}", h.deleteRestaurant)
	})
	r.Route("/categories", func(r chi.Router) {
		r.Get("/", h.listCategories)
		r.Post("/", h.createCategory)
		r.Patch("/{id}", h.updateCategory)
		r.Delete("/{id}", h.deleteCategory)
	})
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.listProducts)
		r.Post("/", h.createProduct)
		r.Get("/{id}", h.getProduct)
		r.Patch("/{id}", h.updateProduct)
		r.Delete("/{id}", h.deleteProduct)
	})
	r.Route("/tables", func(r chi.Router) {
		r.Get("/", h.listTables)
		r.Post("/", h.createTable)
		r.Get("/{id}", h.getTable)
		r.Delete("/{id}", h.deleteTable)
	})
	r.Get("/profiles/{id}", h.getProfile)
	r.Put("/profiles/{id}", h.assignProfile)
}

func (h *CatalogHandler) listRestaurants(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListRestaurants(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (h *CatalogHandler) createRestaurant(w http.ResponseWriter, r *http.Request) {
	var cmd interfaces.CreateRestaurantCommand
	if !decodeBody(w, r, &cmd) {
		return
	}
	rest, err := h.service.CreateRestaurant(r.Context(), cmd)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, rest)
}

func (h *CatalogHandler) getRestaurant(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	rest, err := h.service.GetRestaurant(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rest)
}

func (h *CatalogHandler) updateRestaurant(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var cmd interfaces.UpdateRestaurantCommand
	if !decodeBody(w, r, &cmd) {
		return
	}
	rest, err := h.service.UpdateRestaurant(r.Context(), id, cmd)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rest)
}

func (h *CatalogHandler) deleteRestaurant(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteRestaurant(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CatalogHandler) listCategories(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := queryID(w, r, "restaurant_id")
	if !ok {
		return
	}
	list, err := h.service.ListCategories(r.Context(), restaurantID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (h *CatalogHandler) createCategory(w http.ResponseWriter, r *http.Request) {
	var cmd interfaces.CategoryCommand
	if !decodeBody(w, r, &cmd) {
		return
	}
	cat, err := h.service.CreateCategory(r.Context(), cmd)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, cat)
}

func (h *CatalogHandler) updateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var cmd interfaces.CategoryCommand
	if !decodeBody(w, r, &cmd) {
		return
	}
	cat, err := h.service.UpdateCategory(r.Context(), id, cmd)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cat)
}

func (h *CatalogHandler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteCategory(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CatalogHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := queryID(w, r, "restaurant_id")
	if !ok {
		return
	}
	list, err := h.service.ListProducts(r.Context(), restaurantID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (h *CatalogHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	var cmd interfaces.ProductCommand
	if !decodeBody(w, r, &cmd) {
		return
	}
	p, err := h.service.CreateProduct(r.Context(), cmd)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, p)
}

func (h *CatalogHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	p, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *CatalogHandler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var cmd interfaces.ProductCommand
	if !decodeBody(w, r, &cmd) {
		return
	}
	p, err := h.service.UpdateProduct(r.Context(), id, cmd)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *CatalogHandler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteProduct(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CatalogHandler) listTables(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := queryID(w, r, "restaurant_id")
	if !ok {
		return
	}
	list, err := h.service.ListTables(r.Context(), restaurantID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (h *CatalogHandler) createTable(w http.ResponseWriter, r *http.Request) {
	var cmd interfaces.CreateTableCommand
	if !decodeBody(w, r, &cmd) {
		return
	}
	t, err := h.service.CreateTable(r.Context(), cmd)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, t)
}

func (h *CatalogHandler) getTable(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	t, err := h.service.GetTable(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, t)
}

func (h *CatalogHandler) deleteTable(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteTable(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CatalogHandler) getProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	p, err := h.service.GetProfile(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *CatalogHandler) assignProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var cmd interfaces.ProfileCommand
	if !decodeBody(w, r, &cmd) {
		return
	}
	p, err := h.service.AssignProfile(r.Context(), userID, cmd)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}
