package inventory

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/georgemunganga/restaurant-pos/internal/modules/auth"
	"github.com/georgemunganga/restaurant-pos/internal/platform/apperr"
	"github.com/georgemunganga/restaurant-pos/internal/platform/cache"
)

const idempotencyTTL = 24 * time.Hour

// Handler exposes inventory HTTP endpoints.
type Handler struct {
	service Service
	idem    cache.IdempotencyStore
}

func NewHandler(service Service, idem cache.IdempotencyStore) *Handler {
	return &Handler{service: service, idem: idem}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	view := auth.Require(auth.PermInventoryView)
	manage := auth.Require(auth.PermInventoryManage)

	r.Route("/api/v1/inventory", func(r chi.Router) {
		// Items
		r.With(manage).Post("/items", h.createItem)
		r.With(view).Get("/items", h.listItems) // ?category_id=&active=&low_stock=&q=
		r.With(view).Get("/items/{id}", h.getItem)
		r.With(manage).Patch("/items/{id}", h.updateItem)
		r.With(manage).Patch("/items/{id}/active", h.setActive)
		r.With(manage).Delete("/items/{id}", h.deleteItem)

		// Ledger
		r.With(manage).Post("/items/{id}/stock-in", h.addStock)
		r.With(manage, cache.Idempotent(h.idem, "stock-out", idempotencyTTL)).Post("/items/{id}/stock-out", h.useStock)
		r.With(manage).Post("/items/{id}/adjust", h.adjustStock)
		r.With(manage, cache.Idempotent(h.idem, "waste", idempotencyTTL)).Post("/items/{id}/waste", h.recordWaste)
		r.With(view).Get("/items/{id}/movements", h.listMovements) // ?type=&from=&to=&limit=

		// Sale deductions
		r.With(auth.Require(auth.PermOrdersManage), cache.Idempotent(h.idem, "deduct", idempotencyTTL)).
			Post("/deductions", h.deductForSale)

		// Categories
		r.With(manage).Post("/categories", h.createCategory)
		r.With(view).Get("/categories", h.listCategories)
	})

	// Ingredient mappings live under the menu item they belong to.
	const menuItem = "/api/v1/menu/items/{menu_item_id}"
	r.With(auth.Require(auth.PermMenuView)).Get(menuItem+"/ingredients", h.listIngredients)
	r.With(auth.Require(auth.PermMenuManage)).Post(menuItem+"/ingredients", h.linkIngredient)
	r.With(auth.Require(auth.PermMenuManage)).Delete(menuItem+"/ingredients/{id}", h.unlinkIngredient)
	r.With(auth.Require(auth.PermMenuView)).Get(menuItem+"/availability", h.availability)
}

func (h *Handler) createItem(w http.ResponseWriter, r *http.Request) {
	var req CreateItemRequest
	if !decode(w, r, &req) {
		return
	}
	item, err := h.service.CreateItem(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, item)
}

func (h *Handler) listItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := ItemFilter{
		ActiveOnly: q.Get("active") == "true",
		LowStock:   q.Get("low_stock") == "true",
		Search:     q.Get("q"),
	}
	if raw := q.Get("category_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respond(w, http.StatusBadRequest, map[string]string{"error": "invalid category_id"})
			return
		}
		f.CategoryID = &id
	}
	items, err := h.service.ListItems(r.Context(), f)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, withStatus(items))
}

func (h *Handler) getItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.service.GetItem(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, withStatus([]*Item{item})[0])
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	var req UpdateItemRequest
	if !decode(w, r, &req) {
		return
	}
	item, err := h.service.UpdateItem(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, item)
}

func (h *Handler) setActive(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Active bool `json:"active"`
	}
	if !decode(w, r, &body) {
		return
	}
	if err := h.service.SetActive(r.Context(), chi.URLParam(r, "id"), body.Active); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteItem(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteItem(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) addStock(w http.ResponseWriter, r *http.Request) {
	var req AddStockRequest
	if !decode(w, r, &req) {
		return
	}
	m, err := h.service.AddStock(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, m)
}

func (h *Handler) useStock(w http.ResponseWriter, r *http.Request) {
	var req UseStockRequest
	if !decode(w, r, &req) {
		return
	}
	m, err := h.service.UseStock(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, m)
}

func (h *Handler) adjustStock(w http.ResponseWriter, r *http.Request) {
	var req AdjustStockRequest
	if !decode(w, r, &req) {
		return
	}
	m, err := h.service.AdjustStock(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, m)
}

func (h *Handler) recordWaste(w http.ResponseWriter, r *http.Request) {
	var req UseStockRequest
	if !decode(w, r, &req) {
		return
	}
	m, err := h.service.RecordWaste(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, m)
}

func (h *Handler) listMovements(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := MovementFilter{Type: MovementType(q.Get("type"))}
	var err error
	if f.From, err = parseTime(q.Get("from")); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid from: " + err.Error()})
		return
	}
	if f.To, err = parseTime(q.Get("to")); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid to: " + err.Error()})
		return
	}
	if raw := q.Get("limit"); raw != "" {
		if f.Limit, err = strconv.Atoi(raw); err != nil || f.Limit < 0 {
			respond(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
	}
	movements, err := h.service.ListMovements(r.Context(), chi.URLParam(r, "id"), f)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, movements)
}

func (h *Handler) deductForSale(w http.ResponseWriter, r *http.Request) {
	var body struct {
		MenuItemID string `json:"menu_item_id"`
		Units      int    `json:"units"`
	}
	if !decode(w, r, &body) {
		return
	}
	results, err := h.service.DeductForSale(r.Context(), body.MenuItemID, body.Units)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{
		"results":  results,
		"complete": len(Shortfalls(results)) == 0,
	})
}

func (h *Handler) linkIngredient(w http.ResponseWriter, r *http.Request) {
	var req LinkIngredientRequest
	if !decode(w, r, &req) {
		return
	}
	ing, err := h.service.LinkIngredient(r.Context(), chi.URLParam(r, "menu_item_id"), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, ing)
}

func (h *Handler) listIngredients(w http.ResponseWriter, r *http.Request) {
	ings, err := h.service.ListIngredients(r.Context(), chi.URLParam(r, "menu_item_id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, ings)
}

func (h *Handler) unlinkIngredient(w http.ResponseWriter, r *http.Request) {
	if err := h.service.UnlinkIngredient(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) availability(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.Availability(r.Context(), chi.URLParam(r, "menu_item_id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, out)
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	var req CreateCategoryRequest
	if !decode(w, r, &req) {
		return
	}
	c, err := h.service.CreateCategory(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, c)
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	cs, err := h.service.ListCategories(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, cs)
}

// itemView adds the derived stock status to an item response.
type itemView struct {
	*Item
	Status     StockStatus `json:"stock_status"`
	StockValue string      `json:"stock_value"`
}

func withStatus(items []*Item) []itemView {
	out := make([]itemView, 0, len(items))
	for _, it := range items {
		out = append(out, itemView{Item: it, Status: it.Status(), StockValue: it.StockValue().StringFixed(2)})
	}
	return out
}

func parseTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return false
	}
	return true
}

func respondError(w http.ResponseWriter, err error) {
	respond(w, apperr.Status(err), apperr.Body(err))
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
