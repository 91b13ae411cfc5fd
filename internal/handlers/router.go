package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mwalther/equipcore/internal/buildinfo"
	"github.com/mwalther/equipcore/internal/config"
	"github.com/mwalther/equipcore/internal/database"
	"github.com/mwalther/equipcore/internal/errs"
	"github.com/mwalther/equipcore/internal/middleware"
	"github.com/mwalther/equipcore/internal/services/assets"
	ws "github.com/mwalther/equipcore/internal/websocket"
)

// Router wraps the mux router and the service dependencies
type Router struct {
	*mux.Router
	db     *database.DB
	cfg    *config.Config
	svc    *assets.Service
	prober *assets.Prober
	hub    *ws.Hub
}

// NewRouter creates a new HTTP router with all routes
func NewRouter(cfg *config.Config, db *database.DB, svc *assets.Service, prober *assets.Prober, hub *ws.Hub) *Router {
	r := &Router{
		Router: mux.NewRouter(),
		db:     db,
		cfg:    cfg,
		svc:    svc,
		prober: prober,
		hub:    hub,
	}

	// Health check endpoint
	r.HandleFunc("/health", r.healthCheck).Methods("GET")

	// Auth routes
	auth := r.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/login", r.login).Methods("POST")
	auth.HandleFunc("/refresh", r.refresh).Methods("POST")
	auth.HandleFunc("/logout", r.logout).Methods("POST")

	// API routes (protected)
	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.Auth(cfg.JWTSecret))

	// Item lifecycle routes
	api.HandleFunc("/items", r.listItems).Methods("GET")
	api.HandleFunc("/items", r.createItem).Methods("POST")
	api.HandleFunc("/items/meta/next-asset-tag", r.nextAssetTag).Methods("GET")
	api.HandleFunc("/items/{id}", r.getItem).Methods("GET")
	api.HandleFunc("/items/{id}", r.updateItem).Methods("PUT")
	api.HandleFunc("/items/{id}", r.deleteItem).Methods("DELETE")
	api.HandleFunc("/items/{id}/history", r.itemHistory).Methods("GET")
	api.HandleFunc("/items/{id}/documents", r.itemDocuments).Methods("GET")
	api.HandleFunc("/items/{id}/assign", r.assignItem).Methods("POST")
	api.HandleFunc("/items/{id}/return", r.returnItem).Methods("POST")

	// Document download
	api.HandleFunc("/documents/{id}/download", r.downloadDocument).Methods("GET")

	// User routes
	api.HandleFunc("/users", r.listUsers).Methods("GET")
	api.HandleFunc("/users", r.createUser).Methods("POST")
	api.HandleFunc("/users/{id}", r.getUser).Methods("GET")

	// Category routes
	api.HandleFunc("/categories", r.listCategories).Methods("GET")
	api.HandleFunc("/categories", r.createCategory).Methods("POST")
	api.HandleFunc("/categories/{id}", r.updateCategory).Methods("PUT")
	api.HandleFunc("/categories/{id}", r.deleteCategory).Methods("DELETE")

	// Company settings
	api.HandleFunc("/settings", r.getSettings).Methods("GET")
	api.HandleFunc("/settings", r.updateSettings).Methods("PUT")

	// Lifecycle event feed
	api.HandleFunc("/events/ws", func(w http.ResponseWriter, req *http.Request) {
		ws.ServeWs(r.hub, w, req)
	}).Methods("GET")

	return r
}

// healthCheck returns the health status of the API
func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"commit":    buildinfo.CommitHash,
		"buildTime": buildinfo.BuildTime,
		"startedAt": buildinfo.StartTime,
	})
}

// actorFrom extracts the authenticated identity from the request context.
func actorFrom(req *http.Request) assets.Actor {
	var actor assets.Actor
	claims, ok := middleware.ClaimsFromContext(req.Context())
	if !ok {
		return actor
	}
	if id, ok := claims["id"].(string); ok {
		actor.ID = id
	}
	if role, ok := claims["role"].(string); ok {
		actor.Role = role
	}
	return actor
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// respondServiceError maps the error taxonomy to HTTP statuses. Internal
// detail is hidden in production mode.
func (r *Router) respondServiceError(w http.ResponseWriter, err error) {
	msg := err.Error()
	body := map[string]string{"error": msg}
	if field := errs.FieldOf(err); field != "" {
		body["field"] = field
	}

	switch errs.KindOf(err) {
	case errs.Validation:
		respondJSON(w, http.StatusBadRequest, body)
	case errs.Conflict, errs.NotAssigned:
		respondJSON(w, http.StatusConflict, body)
	case errs.NotFound:
		respondJSON(w, http.StatusNotFound, body)
	case errs.Forbidden:
		respondJSON(w, http.StatusForbidden, body)
	default:
		if r.cfg.IsProduction() {
			body["error"] = "internal server error"
		}
		respondJSON(w, http.StatusInternalServerError, body)
	}
}
