package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

type addRatingRequest struct {
	SellerID int `json:"sellerId" validate:"required"`
	Points   int `json:"points" validate:"required,min=1,max=5"`
}

func (h *Handler) AddRating(w http.ResponseWriter, r *http.Request) {
	var req addRatingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "sellerId and points between 1 and 5 are required")
		return
	}

	if err := h.service.AddRating(r.Context(), req.SellerID, req.Points); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "rating recorded"})
}

func (h *Handler) SellerRating(w http.ResponseWriter, r *http.Request) {
	sellerID, err := strconv.Atoi(chi.URLParam(r, "sellerID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "seller id must be a number")
		return
	}

	rating, err := h.service.SellerAverage(r.Context(), sellerID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rating)
}
