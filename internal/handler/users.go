package handler

import (
	"encoding/json"
	"net/http"

	"studentmarket/internal/handler/mw"
)

type registerRequest struct {
	Username string `json:"username" validate:"required"`
	Usermail string `json:"usermail" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "all fields are required")
		return
	}

	user, err := h.service.Register(r.Context(), req.Username, req.Usermail, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "user registered successfully",
		"user":    user,
	})
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	user, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	token, err := mw.GenerateJWT(user.ID, user.Username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "login successful",
		"token":   token,
		"user":    user,
	})
}

type updateProfileRequest struct {
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required"`
	About    *string `json:"about"`
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID := mw.MustGetUserID(r.Context())

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), userID, req.Email, req.Password, req.About)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "user updated successfully",
		"user":    user,
	})
}

type addBalanceRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

func (h *Handler) AddBalance(w http.ResponseWriter, r *http.Request) {
	userID := mw.MustGetUserID(r.Context())

	var req addBalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "a positive amount is required")
		return
	}

	balance, err := h.service.AddBalance(r.Context(), userID, req.Amount)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "balance updated successfully",
		"balance": balance,
	})
}

func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID := mw.MustGetUserID(r.Context())

	balance, err := h.service.GetBalance(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"balance": balance})
}

type emailsRequest struct {
	UserIDs []int `json:"userIds" validate:"required,min=1,max=10"`
}

func (h *Handler) EmailsByUserIDs(w http.ResponseWriter, r *http.Request) {
	var req emailsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "between 1 and 10 user IDs are required")
		return
	}

	emails, err := h.service.EmailsByUserIDs(r.Context(), req.UserIDs)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"emails": emails})
}
