package supplier

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/georgemunganga/restaurant-pos/internal/modules/auth"
	"github.com/georgemunganga/restaurant-pos/internal/platform/apperr"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	view := auth.Require(auth.PermInventoryView)
	manage := auth.Require(auth.PermSuppliersManage)

	router.Route("/api/v1/suppliers", func(r chi.Router) {
		r.With(view).Get("/", h.listSuppliers) // ?active=true
		r.With(manage).Post("/", h.createSupplier)
		r.With(view).Get("/{id}", h.getSupplier)
		r.With(manage).Put("/{id}", h.updateSupplier)
		r.With(manage).Patch("/{id}/active", h.setActive)
	})
}

func (h *Handler) createSupplier(w http.ResponseWriter, r *http.Request) {
	var req SupplierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	sup, err := h.service.CreateSupplier(r.Context(), req)
	if err != nil {
		writeJSON(w, apperr.Status(err), apperr.Body(err))
		return
	}
	writeJSON(w, http.StatusCreated, sup)
}

func (h *Handler) listSuppliers(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListSuppliers(r.Context(), r.URL.Query().Get("active") == "true")
	if err != nil {
		writeJSON(w, apperr.Status(err), apperr.Body(err))
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) getSupplier(w http.ResponseWriter, r *http.Request) {
	sup, err := h.service.GetSupplier(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, apperr.Status(err), apperr.Body(err))
		return
	}
	writeJSON(w, http.StatusOK, sup)
}

func (h *Handler) updateSupplier(w http.ResponseWriter, r *http.Request) {
	var req SupplierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	sup, err := h.service.UpdateSupplier(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeJSON(w, apperr.Status(err), apperr.Body(err))
		return
	}
	writeJSON(w, http.StatusOK, sup)
}

func (h *Handler) setActive(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Active bool `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	sup, err := h.service.SetActive(r.Context(), chi.URLParam(r, "id"), body.Active)
	if err != nil {
		writeJSON(w, apperr.Status(err), apperr.Body(err))
		return
	}
	writeJSON(w, http.StatusOK, sup)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
