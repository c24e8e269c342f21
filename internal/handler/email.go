package handler

import (
	"encoding/json"
	"net/http"
)

type sendEmailRequest struct {
	To      string `json:"to" validate:"required,email"`
	Subject string `json:"subject" validate:"required"`
	Text    string `json:"text"`
	HTML    string `json:"html"`
}

func (h *Handler) SendTextEmail(w http.ResponseWriter, r *http.Request) {
	var req sendEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil || req.Text == "" {
		writeError(w, http.StatusBadRequest, "to, subject and text are required")
		return
	}

	id, err := h.mail.SendText(r.Context(), req.To, req.Subject, req.Text)
	if err != nil {
		writeError(w, http.StatusBadGateway, "failed to send email")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"messageId": id,
	})
}

func (h *Handler) SendHTMLEmail(w http.ResponseWriter, r *http.Request) {
	var req sendEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil || req.HTML == "" {
		writeError(w, http.StatusBadRequest, "to, subject and html are required")
		return
	}

	id, err := h.mail.SendHTML(r.Context(), req.To, req.Subject, req.HTML)
	if err != nil {
		writeError(w, http.StatusBadGateway, "failed to send email")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"messageId": id,
	})
}
