package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mwalther/equipcore/internal/models"
)

// listCategories returns all categories
func (r *Router) listCategories(w http.ResponseWriter, req *http.Request) {
	var categories []models.Category
	if err := r.db.Order("name").Find(&categories).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch categories")
		return
	}
	respondJSON(w, http.StatusOK, categories)
}

// createCategory creates a new category
func (r *Router) createCategory(w http.ResponseWriter, req *http.Request) {
	if !canModify(actorFrom(req)) {
		respondError(w, http.StatusForbidden, "insufficient role")
		return
	}

	var category models.Category
	if err := json.NewDecoder(req.Body).Decode(&category); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if category.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	if err := r.db.Create(&category).Error; err != nil {
		respondError(w, http.StatusConflict, "Category might already exist")
		return
	}
	respondJSON(w, http.StatusCreated, category)
}

// updateCategory updates an existing category
func (r *Router) updateCategory(w http.ResponseWriter, req *http.Request) {
	if !canModify(actorFrom(req)) {
		respondError(w, http.StatusForbidden, "insufficient role")
		return
	}

	id, err := strconv.ParseUint(mux.Vars(req)["id"], 10, 32)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid category ID")
		return
	}

	var category models.Category
	if err := r.db.First(&category, id).Error; err != nil {
		respondError(w, http.StatusNotFound, "Category not found")
		return
	}

	if err := json.NewDecoder(req.Body).Decode(&category); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	category.ID = uint(id)

	if err := r.db.Save(&category).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to update category")
		return
	}
	respondJSON(w, http.StatusOK, category)
}

// deleteCategory deletes a category
func (r *Router) deleteCategory(w http.ResponseWriter, req *http.Request) {
	if !canModify(actorFrom(req)) {
		respondError(w, http.StatusForbidden, "insufficient role")
		return
	}

	id, err := strconv.ParseUint(mux.Vars(req)["id"], 10, 32)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid category ID")
		return
	}

	if err := r.db.Delete(&models.Category{}, id).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to delete category")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Category deleted successfully",
	})
}
