package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"studentmarket/internal/handler/mw"
	"studentmarket/internal/model"
	"studentmarket/internal/service"
)

type placeOrderRequest struct {
	DeliveryAddress string `json:"delivery_address" validate:"required"`
	Items           []struct {
		ItemID   string `json:"item_id" validate:"required"`
		Quantity int    `json:"quantity" validate:"required,gt=0"`
	} `json:"items" validate:"required,min=1,dive"`
}

func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	buyerID := mw.MustGetUserID(r.Context())

	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "delivery address and at least one item are required")
		return
	}

	lines := make([]service.OrderLineRequest, 0, len(req.Items))
	for _, it := range req.Items {
		lines = append(lines, service.OrderLineRequest{ItemID: it.ItemID, Quantity: it.Quantity})
	}

	order, err := h.service.PlaceOrder(r.Context(), buyerID, service.OrderRequest{
		DeliveryAddress: req.DeliveryAddress,
		Lines:           lines,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "order placed successfully",
		"order":   order,
	})
}

func (h *Handler) OrdersByUser(w http.ResponseWriter, r *http.Request) {
	userID := mw.MustGetUserID(r.Context())

	// A user_id query param is accepted for compatibility but must match
	// the token identity; order history is never readable cross-user.
	if q := r.URL.Query().Get("user_id"); q != "" {
		requested, err := strconv.Atoi(q)
		if err != nil || requested != userID {
			writeError(w, http.StatusUnauthorized, "cannot read another user's orders")
			return
		}
	}

	orders, err := h.service.OrdersByUser(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if orders == nil {
		orders = []model.Order{}
	}
	writeJSON(w, http.StatusOK, map[string][]model.Order{"orders": orders})
}
