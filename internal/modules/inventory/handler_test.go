package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/georgemunganga/restaurant-pos/internal/modules/auth"
	"github.com/georgemunganga/restaurant-pos/internal/modules/menu"
	"github.com/georgemunganga/restaurant-pos/internal/modules/user"
	"github.com/georgemunganga/restaurant-pos/internal/platform/cache"
)

func newTestRouter(t *testing.T, role user.Role) (*chi.Mux, Service) {
	svc, _ := newTestService(t)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := auth.WithPrincipal(req.Context(), auth.Principal{UserID: uuid.New(), Role: role})
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	NewHandler(svc, cache.NewMemoryStore()).RegisterRoutes(r)
	return r, svc
}

func doJSON(r http.Handler, method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandler_CreateAndStockOut(t *testing.T) {
	r, _ := newTestRouter(t, user.RoleManager)

	rec := doJSON(r, http.MethodPost, "/api/v1/inventory/items", map[string]interface{}{
		"name": "Tomatoes", "current_stock": "4", "minimum_stock": 2, "unit_cost": "1.5",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var item Item
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &item))
	assertDec(t, "4", item.CurrentStock)

	path := "/api/v1/inventory/items/" + item.ID.String() + "/stock-out"
	rec = doJSON(r, http.MethodPost, path, map[string]interface{}{"quantity": 6})
	require.Equal(t, http.StatusConflict, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "insufficient_stock", body["code"])
	assert.Equal(t, "6", body["required"])
	assert.Equal(t, "4", body["available"])

	rec = doJSON(r, http.MethodPost, path, map[string]interface{}{"quantity": 1}, cache.IdempotencyHeader, "tab-7")
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = doJSON(r, http.MethodPost, path, map[string]interface{}{"quantity": 1}, cache.IdempotencyHeader, "tab-7")
	assert.Equal(t, http.StatusConflict, rec.Code, "retried request is not applied twice")

	rec = doJSON(r, http.MethodGet, "/api/v1/inventory/items/"+item.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var view map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "3", view["current_stock"])
	assert.Equal(t, string(StatusInStock), view["stock_status"])
	assert.Equal(t, "4.50", view["stock_value"])
}

func TestHandler_ValidationAndNotFound(t *testing.T) {
	r, _ := newTestRouter(t, user.RoleAdmin)

	rec := doJSON(r, http.MethodPost, "/api/v1/inventory/items", map[string]interface{}{"name": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(r, http.MethodPost, "/api/v1/inventory/items/"+uuid.NewString()+"/stock-in",
		map[string]interface{}{"quantity": 1, "unit_cost": 1})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(r, http.MethodGet, "/api/v1/inventory/items/"+uuid.NewString()+"/movements?from=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_PermissionGate(t *testing.T) {
	r, svc := newTestRouter(t, user.RoleKitchen)
	item, err := svc.CreateItem(context.Background(), CreateItemRequest{Name: "Beef", CurrentStock: dec("5")})
	require.NoError(t, err)

	rec := doJSON(r, http.MethodGet, "/api/v1/inventory/items", nil)
	assert.Equal(t, http.StatusOK, rec.Code, "kitchen may view inventory")

	rec = doJSON(r, http.MethodPost, "/api/v1/inventory/items/"+item.ID.String()+"/adjust",
		map[string]interface{}{"new_quantity": 0})
	assert.Equal(t, http.StatusForbidden, rec.Code, "kitchen may not manage inventory")
}

func TestHandler_DeductForSale(t *testing.T) {
	r, svc := newTestRouter(t, user.RoleManager)
	ctx := context.Background()
	menuItem := uuid.New()
	patty, err := svc.CreateItem(ctx, CreateItemRequest{Name: "Patty", CurrentStock: dec("1")})
	require.NoError(t, err)
	_, err = svc.LinkIngredient(ctx, menuItem.String(), LinkIngredientRequest{InventoryItemID: patty.ID.String(), QuantityUsed: dec("1")})
	require.NoError(t, err)

	rec := doJSON(r, http.MethodPost, "/api/v1/inventory/deductions", map[string]interface{}{
		"menu_item_id": menuItem.String(), "units": 2,
	})
	require.Equal(t, http.StatusOK, rec.Code, "partial deduction is a designed outcome")
	var body struct {
		Results  []DeductionResult `json:"results"`
		Complete bool              `json:"complete"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Complete)
	require.Len(t, body.Results, 1)
	assert.Equal(t, DeductErrInsufficientStock, body.Results[0].Error)

	rec = doJSON(r, http.MethodGet, "/api/v1/menu/items/"+menuItem.String()+"/ingredients", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHandler_IngredientRoutesShareMenuPrefix(t *testing.T) {
	ctx := context.Background()
	log := zaptest.NewLogger(t)
	menuRepo := menu.NewMemoryRepository()
	menuSvc := menu.NewService(menuRepo, log)
	invRepo := NewMemoryRepository()
	svc := NewService(invRepo, invRepo, log, WithMenuCatalog(menuRepo))

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := auth.WithPrincipal(req.Context(), auth.Principal{UserID: uuid.New(), Role: user.RoleAdmin})
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	menu.NewHandler(menuSvc).RegisterRoutes(r)
	NewHandler(svc, cache.NewMemoryStore()).RegisterRoutes(r)

	burger, err := menuSvc.CreateItem(ctx, menu.CreateItemRequest{Name: "Burger", Price: dec("85")})
	require.NoError(t, err)
	patty, err := svc.CreateItem(ctx, CreateItemRequest{Name: "Patty", CurrentStock: dec("4")})
	require.NoError(t, err)

	base := "/api/v1/menu/items/" + burger.ID.String()
	rec := doJSON(r, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusOK, rec.Code, "menu item itself")

	rec = doJSON(r, http.MethodPost, base+"/ingredients", map[string]interface{}{
		"inventory_item_id": patty.ID.String(), "quantity_used": "1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(r, http.MethodGet, base+"/availability", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"max_portions":4`)

	rec = doJSON(r, http.MethodPost, "/api/v1/menu/items/"+uuid.NewString()+"/ingredients", map[string]interface{}{
		"inventory_item_id": patty.ID.String(), "quantity_used": "1",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(r, http.MethodPost, "/api/v1/inventory/deductions", map[string]interface{}{
		"menu_item_id": uuid.NewString(), "units": 1,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
