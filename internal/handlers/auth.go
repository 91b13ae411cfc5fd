package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/mwalther/equipcore/internal/models"
	"github.com/mwalther/equipcore/internal/services/assets"
	"github.com/mwalther/equipcore/internal/utils"
)

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest carries a refresh token
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// login handles user login
func (r *Router) login(w http.ResponseWriter, req *http.Request) {
	var loginReq LoginRequest
	if err := json.NewDecoder(req.Body).Decode(&loginReq); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	// 1. Find User
	var user models.User
	if err := r.db.Where("email = ? AND is_active = ?", loginReq.Email, true).First(&user).Error; err != nil {
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	// 2. Check Password
	if !utils.CheckPasswordHash(loginReq.Password, user.Password) {
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	// 3. Update Last Login
	now := time.Now()
	user.LastLogin = &now
	r.db.Model(&user).Update("last_login", &now)

	// 4. Generate Tokens
	accessToken, refreshToken, err := utils.GenerateTokens(&user, r.cfg.JWTSecret)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to generate tokens")
		return
	}

	r.storeRefreshToken(user.ID, refreshToken, req.UserAgent())

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"tokens": map[string]string{
			"accessToken":  accessToken,
			"refreshToken": refreshToken,
		},
		"user": user,
	})
}

// storeRefreshToken persists a refresh token. The audit columns
// (revoked_at, user_agent) may be missing on older databases; the prober
// decides whether they can be written.
func (r *Router) storeRefreshToken(userID, token, userAgent string) {
	record := models.RefreshToken{
		UserID:    userID,
		Token:     token,
		ExpiresAt: time.Now().Add(utils.RefreshTokenTTL),
		UserAgent: userAgent,
	}

	columns := []string{"user_id", "token", "expires_at", "created_at"}
	if r.prober.IsAvailable(assets.RefreshTokenColumns) {
		columns = append(columns, "user_agent")
	}
	r.db.Model(&models.RefreshToken{}).Select(columns).Create(&record)
}

// refresh exchanges a valid refresh token for a new access token
func (r *Router) refresh(w http.ResponseWriter, req *http.Request) {
	var body RefreshRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.RefreshToken == "" {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	claims, err := utils.ValidateToken(body.RefreshToken, r.cfg.JWTSecret)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Invalid or expired refresh token")
		return
	}
	userID, _ := claims["id"].(string)

	var record models.RefreshToken
	if err := r.db.Where("token = ?", body.RefreshToken).First(&record).Error; err != nil {
		respondError(w, http.StatusUnauthorized, "Unknown refresh token")
		return
	}
	if record.ExpiresAt.Before(time.Now()) || record.RevokedAt != nil || record.UserID != userID {
		respondError(w, http.StatusUnauthorized, "Refresh token no longer valid")
		return
	}

	var user models.User
	if err := r.db.First(&user, "id = ?", userID).Error; err != nil {
		respondError(w, http.StatusUnauthorized, "Unknown user")
		return
	}

	accessToken, _, err := utils.GenerateTokens(&user, r.cfg.JWTSecret)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to generate tokens")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"accessToken": accessToken,
	})
}

// logout revokes the presented refresh token
func (r *Router) logout(w http.ResponseWriter, req *http.Request) {
	var body RefreshRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.RefreshToken == "" {
		respondJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
		return
	}

	// Mark revoked where the column exists, otherwise drop the row.
	if r.prober.EnsureAvailable(assets.RefreshTokenColumns) {
		now := time.Now()
		r.db.Model(&models.RefreshToken{}).
			Where("token = ?", body.RefreshToken).
			Update("revoked_at", &now)
	} else {
		r.db.Where("token = ?", body.RefreshToken).Delete(&models.RefreshToken{})
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}
