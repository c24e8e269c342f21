package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"studentmarket/internal/handler/mw"
	"studentmarket/internal/model"
	"studentmarket/internal/service"
)

type addItemRequest struct {
	Name      string   `json:"name" validate:"required"`
	Category  string   `json:"category" validate:"required"`
	Condition string   `json:"condition" validate:"required"`
	Grade     string   `json:"grade" validate:"required"`
	Subject   string   `json:"subject" validate:"required"`
	Price     float64  `json:"price" validate:"required,gt=0"`
	Images    []string `json:"images" validate:"required,min=1"`
}

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	// The owner is the authenticated user; an owner_id in the body is ignored.
	ownerID := mw.MustGetUserID(r.Context())

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "all fields are required")
		return
	}

	item, err := h.service.AddItem(r.Context(), service.NewItem{
		Name:      req.Name,
		Category:  req.Category,
		Condition: req.Condition,
		Grade:     req.Grade,
		Subject:   req.Subject,
		OwnerID:   ownerID,
		Price:     req.Price,
		Images:    req.Images,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "item added successfully",
		"item":    item,
	})
}

func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListItems(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	writeJSON(w, http.StatusOK, map[string][]model.Item{"items": items})
}

func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	item, err := h.service.GetItem(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]*model.Item{"item": item})
}

type editItemRequest struct {
	ID        string   `json:"id" validate:"required"`
	Name      *string  `json:"name"`
	Category  *string  `json:"category"`
	Condition *string  `json:"condition"`
	Grade     *string  `json:"grade"`
	Subject   *string  `json:"subject"`
	Price     *float64 `json:"price"`
	Images    []string `json:"images"`
}

func (h *Handler) EditItem(w http.ResponseWriter, r *http.Request) {
	var req editItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "item id is required to identify the item")
		return
	}

	item, err := h.service.EditItem(r.Context(), req.ID, model.ItemPatch{
		Name:      req.Name,
		Category:  req.Category,
		Condition: req.Condition,
		Grade:     req.Grade,
		Subject:   req.Subject,
		Price:     req.Price,
		Images:    req.Images,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "item updated successfully",
		"item":    item,
	})
}

type markUnavailableRequest struct {
	IDs []string `json:"ids" validate:"required,min=1"`
}

func (h *Handler) MarkUnavailable(w http.ResponseWriter, r *http.Request) {
	var req markUnavailableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "a non-empty list of item IDs is required")
		return
	}

	if err := h.service.MarkUnavailable(r.Context(), req.IDs); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "items marked unavailable"})
}

type addCommentsRequest struct {
	Comments []struct {
		ItemID  string `json:"id" validate:"required"`
		Comment string `json:"comment" validate:"required"`
	} `json:"comments" validate:"required,min=1,dive"`
}

func (h *Handler) AddComments(w http.ResponseWriter, r *http.Request) {
	var req addCommentsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "at least one comment is required")
		return
	}

	comments := make([]service.ItemComment, 0, len(req.Comments))
	for _, c := range req.Comments {
		comments = append(comments, service.ItemComment{ItemID: c.ItemID, Comment: c.Comment})
	}

	if err := h.service.AddComments(r.Context(), comments); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "comments added successfully"})
}
