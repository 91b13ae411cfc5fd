package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mwalther/equipcore/internal/services/assets"
)

// listItems returns all items, newest first
func (r *Router) listItems(w http.ResponseWriter, req *http.Request) {
	items, err := r.svc.List(req.Context())
	if err != nil {
		r.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, items)
}

// getItem returns a single item by ID
func (r *Router) getItem(w http.ResponseWriter, req *http.Request) {
	item, err := r.svc.Get(req.Context(), mux.Vars(req)["id"])
	if err != nil {
		r.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

// nextAssetTag previews the next tag without reserving it. Advisory only:
// the tag actually allocated at creation may differ under concurrency.
func (r *Router) nextAssetTag(w http.ResponseWriter, req *http.Request) {
	actor := actorFrom(req)
	if !canModify(actor) {
		respondError(w, http.StatusForbidden, "insufficient role")
		return
	}
	tag, err := r.svc.PeekNextTag(req.Context())
	if err != nil {
		r.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"nextAssetTag": tag})
}

// createItem registers a new piece of equipment
func (r *Router) createItem(w http.ResponseWriter, req *http.Request) {
	var input assets.CreateItemInput
	if err := json.NewDecoder(req.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	item, err := r.svc.Create(req.Context(), actorFrom(req), input)
	if err != nil {
		r.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, item)
}

// updateItem patches item fields
func (r *Router) updateItem(w http.ResponseWriter, req *http.Request) {
	var input assets.UpdateItemInput
	if err := json.NewDecoder(req.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	item, err := r.svc.Update(req.Context(), actorFrom(req), mux.Vars(req)["id"], input)
	if err != nil {
		r.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

// deleteItem hard-removes an item
func (r *Router) deleteItem(w http.ResponseWriter, req *http.Request) {
	if err := r.svc.Delete(req.Context(), actorFrom(req), mux.Vars(req)["id"]); err != nil {
		r.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Item deleted successfully",
	})
}

// itemHistory lists an item's history events, newest first
func (r *Router) itemHistory(w http.ResponseWriter, req *http.Request) {
	events, err := r.svc.History(req.Context(), mux.Vars(req)["id"])
	if err != nil {
		r.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, events)
}

// itemDocuments lists an item's documents
func (r *Router) itemDocuments(w http.ResponseWriter, req *http.Request) {
	docs, err := r.svc.Documents(req.Context(), mux.Vars(req)["id"])
	if err != nil {
		r.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, docs)
}

// assignItem hands an item to a user and returns the receipt document ID
func (r *Router) assignItem(w http.ResponseWriter, req *http.Request) {
	var input assets.AssignInput
	if err := json.NewDecoder(req.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	docID, err := r.svc.Assign(req.Context(), actorFrom(req), mux.Vars(req)["id"], input)
	if err != nil {
		r.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"documentId": docID})
}

// returnItem takes an item back to stock
func (r *Router) returnItem(w http.ResponseWriter, req *http.Request) {
	var input assets.ReturnInput
	if req.ContentLength != 0 {
		if err := json.NewDecoder(req.Body).Decode(&input); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request payload")
			return
		}
	}

	if err := r.svc.Return(req.Context(), actorFrom(req), mux.Vars(req)["id"], input); err != nil {
		r.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Item returned"})
}

// downloadDocument streams a generated document
func (r *Router) downloadDocument(w http.ResponseWriter, req *http.Request) {
	doc, err := r.svc.GetDocument(req.Context(), mux.Vars(req)["id"])
	if err != nil {
		r.respondServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s-%s.pdf", doc.Type, doc.ID))
	w.WriteHeader(http.StatusOK)
	w.Write(doc.Content)
}
