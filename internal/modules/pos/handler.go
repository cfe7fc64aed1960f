package pos

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/georgemunganga/restaurant-pos/internal/modules/auth"
	"github.com/georgemunganga/restaurant-pos/internal/platform/apperr"
	"github.com/georgemunganga/restaurant-pos/internal/platform/cache"
)

const idempotencyTTL = 24 * time.Hour

// Handler exposes POS HTTP endpoints.
type Handler struct {
	service Service
	idem    cache.IdempotencyStore
}

func NewHandler(service Service, idem cache.IdempotencyStore) *Handler {
	return &Handler{service: service, idem: idem}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/pos", func(r chi.Router) {
		r.Use(auth.Require(auth.PermPaymentsManage))
		r.With(cache.Idempotent(h.idem, "payment", idempotencyTTL)).Post("/transactions", h.recordPayment)
		r.Get("/transactions", h.listTransactions) // ?from=&to=
		r.Get("/transactions/{id}", h.getTransaction)
		r.Get("/orders/{order_id}/transactions", h.listByOrder)
		r.Post("/transactions/{id}/refund", h.refund)
	})
}

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	var req PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	tx, err := h.service.RecordPayment(r.Context(), req)
	if err != nil {
		respond(w, apperr.Status(err), apperr.Body(err))
		return
	}
	respond(w, http.StatusCreated, tx)
}

func (h *Handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var from, to time.Time
	var err error
	if raw := q.Get("from"); raw != "" {
		if from, err = time.Parse(time.RFC3339, raw); err != nil {
			respond(w, http.StatusBadRequest, map[string]string{"error": "invalid from: " + err.Error()})
			return
		}
	}
	if raw := q.Get("to"); raw != "" {
		if to, err = time.Parse(time.RFC3339, raw); err != nil {
			respond(w, http.StatusBadRequest, map[string]string{"error": "invalid to: " + err.Error()})
			return
		}
	}
	txs, err := h.service.ListTransactions(r.Context(), from, to)
	if err != nil {
		respond(w, apperr.Status(err), apperr.Body(err))
		return
	}
	respond(w, http.StatusOK, txs)
}

func (h *Handler) getTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := h.service.GetTransaction(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond(w, apperr.Status(err), apperr.Body(err))
		return
	}
	respond(w, http.StatusOK, tx)
}

func (h *Handler) listByOrder(w http.ResponseWriter, r *http.Request) {
	txs, err := h.service.ListOrderTransactions(r.Context(), chi.URLParam(r, "order_id"))
	if err != nil {
		respond(w, apperr.Status(err), apperr.Body(err))
		return
	}
	respond(w, http.StatusOK, txs)
}

func (h *Handler) refund(w http.ResponseWriter, r *http.Request) {
	var req RefundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	tx, err := h.service.RefundTransaction(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		respond(w, apperr.Status(err), apperr.Body(err))
		return
	}
	respond(w, http.StatusOK, tx)
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
