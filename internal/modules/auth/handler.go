package auth

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/georgemunganga/restaurant-pos/internal/platform/apperr"
)

// Handler exposes login and the current caller's identity.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

// RegisterRoutes mounts the public login route on r and the identity route on
// protected, which must already run Authenticate.
func (h *Handler) RegisterRoutes(r chi.Router, protected chi.Router) {
	r.Post("/api/v1/auth/login", h.login)
	protected.Get("/api/v1/auth/me", h.me)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if body.Email == "" || body.Password == "" {
		respond(w, http.StatusBadRequest, map[string]string{"error": "email and password are required"})
		return
	}
	token, err := h.service.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		respond(w, apperr.Status(err), apperr.Body(err))
		return
	}
	respond(w, http.StatusOK, token)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFrom(r.Context())
	if !ok {
		respond(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{
		"user_id":     p.UserID,
		"role":        p.Role,
		"permissions": PermissionsFor(p.Role),
	})
}
