package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/mwalther/equipcore/internal/models"
	"github.com/mwalther/equipcore/internal/services/assets"
	"github.com/mwalther/equipcore/internal/utils"
)

func canModify(actor assets.Actor) bool {
	return models.CanModify(actor.Role)
}

// CreateUserRequest represents a user creation request
type CreateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

// listUsers returns all active users
func (r *Router) listUsers(w http.ResponseWriter, req *http.Request) {
	var users []models.User
	if err := r.db.Where("is_active = ?", true).Order("username").Find(&users).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch users")
		return
	}
	respondJSON(w, http.StatusOK, users)
}

// getUser returns a single user by ID
func (r *Router) getUser(w http.ResponseWriter, req *http.Request) {
	var user models.User
	if err := r.db.First(&user, "id = ?", mux.Vars(req)["id"]).Error; err != nil {
		respondError(w, http.StatusNotFound, "User not found")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// createUser creates a new account. Admin only; managers manage
// equipment, not accounts.
func (r *Router) createUser(w http.ResponseWriter, req *http.Request) {
	if actorFrom(req).Role != models.RoleAdmin {
		respondError(w, http.StatusForbidden, "insufficient role")
		return
	}

	var body CreateUserRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if body.Username == "" || body.Email == "" || body.Password == "" {
		respondError(w, http.StatusBadRequest, "username, email and password are required")
		return
	}

	role := body.Role
	if role == "" {
		role = models.RoleProduct
	}
	switch role {
	case models.RoleAdmin, models.RoleManager, models.RoleProduct:
	default:
		respondError(w, http.StatusBadRequest, "unknown role")
		return
	}

	hashed, err := utils.HashPassword(body.Password)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to hash password")
		return
	}

	user := models.User{
		ID:       uuid.NewString(),
		Username: body.Username,
		Email:    body.Email,
		Password: hashed,
		Name:     body.Name,
		Role:     role,
		IsActive: true,
	}
	if err := r.db.Create(&user).Error; err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") ||
			strings.Contains(strings.ToLower(err.Error()), "duplicate") {
			respondError(w, http.StatusConflict, "username or email already exists")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	respondJSON(w, http.StatusCreated, user)
}
