package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/mwalther/equipcore/internal/models"
)

// getSettings returns the company profile used in document headers
func (r *Router) getSettings(w http.ResponseWriter, req *http.Request) {
	var settings models.CompanySettings
	r.db.First(&settings)
	respondJSON(w, http.StatusOK, settings)
}

// updateSettings replaces the company profile
func (r *Router) updateSettings(w http.ResponseWriter, req *http.Request) {
	if !canModify(actorFrom(req)) {
		respondError(w, http.StatusForbidden, "insufficient role")
		return
	}

	var body models.CompanySettings
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	var settings models.CompanySettings
	if err := r.db.First(&settings).Error; err == nil {
		body.ID = settings.ID
	}

	if err := r.db.Save(&body).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to update settings")
		return
	}
	respondJSON(w, http.StatusOK, body)
}
