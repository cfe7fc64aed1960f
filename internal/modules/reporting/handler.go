package reporting

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/georgemunganga/restaurant-pos/internal/modules/auth"
	"github.com/georgemunganga/restaurant-pos/internal/platform/apperr"
)

// Handler exposes reporting endpoints. Every route is read-only.
type Handler struct {
	service Service
	now     func() time.Time
}

func NewHandler(service Service) *Handler { return &Handler{service: service, now: time.Now} }

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/reports", func(r chi.Router) {
		r.Use(auth.Require(auth.PermReportsView))
		r.Get("/low-stock", h.lowStock) // ?limit=
		r.Get("/inventory-stats", h.inventoryStats)
		r.Get("/sales", h.periodSales)
		r.Get("/top-sellers", h.topSellers)
		r.Get("/stock-summary", h.stockSummary)
		r.Get("/stock-summary.pdf", h.stockSummaryPDF)
	})
}

func (h *Handler) lowStock(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondError(w, apperr.Invalid("limit", "must be a non-negative integer"))
			return
		}
		limit = n
	}
	items, err := h.service.LowStock(r.Context(), limit)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, items)
}

func (h *Handler) inventoryStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.InventoryStats(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, stats)
}

func (h *Handler) periodSales(w http.ResponseWriter, r *http.Request) {
	sales, err := h.service.PeriodSales(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, sales)
}

func (h *Handler) topSellers(w http.ResponseWriter, r *http.Request) {
	start, end, err := h.parseRange(r)
	if err != nil {
		respondError(w, err)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	top, err := h.service.TopSellers(r.Context(), start, end, limit)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, top)
}

func (h *Handler) stockSummary(w http.ResponseWriter, r *http.Request) {
	start, end, err := h.parseRange(r)
	if err != nil {
		respondError(w, err)
		return
	}
	summary, err := h.service.StockPeriodSummary(r.Context(), start, end)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, summary)
}

func (h *Handler) stockSummaryPDF(w http.ResponseWriter, r *http.Request) {
	start, end, err := h.parseRange(r)
	if err != nil {
		respondError(w, err)
		return
	}
	doc, err := h.service.StockReportPDF(r.Context(), start, end)
	if err != nil {
		respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=stock-summary-%s.pdf", start.Format("20060102")))
	w.WriteHeader(http.StatusOK)
	w.Write(doc)
}

// parseRange reads ?start=&end=. Missing start means the first of the
// current month; missing end means now. A date-only end covers that whole day.
func (h *Handler) parseRange(r *http.Request) (time.Time, time.Time, error) {
	now := h.now()
	q := r.URL.Query()

	start := monthWindow(now).start
	if raw := q.Get("start"); raw != "" {
		t, _, err := parseTime(raw)
		if err != nil {
			return time.Time{}, time.Time{}, apperr.Invalid("start", "must be RFC3339 or YYYY-MM-DD")
		}
		start = t
	}
	end := now
	if raw := q.Get("end"); raw != "" {
		t, dateOnly, err := parseTime(raw)
		if err != nil {
			return time.Time{}, time.Time{}, apperr.Invalid("end", "must be RFC3339 or YYYY-MM-DD")
		}
		if dateOnly {
			t = t.AddDate(0, 0, 1).Add(-time.Microsecond)
		}
		end = t
	}
	return start, end, nil
}

func parseTime(raw string) (t time.Time, dateOnly bool, err error) {
	if t, err = time.Parse(time.RFC3339, raw); err == nil {
		return t, false, nil
	}
	t, err = time.Parse("2006-01-02", raw)
	return t, true, err
}

func respondError(w http.ResponseWriter, err error) {
	respond(w, apperr.Status(err), apperr.Body(err))
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
