package client

import (
	"fmt"

	"studentmarket/internal/model"
)

// APIError is a non-2xx response decoded from the server's error body.
type APIError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"error"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (%d): %s", e.StatusCode, e.Message)
}

type userEnvelope struct {
	User *model.User `json:"user"`
}

type loginEnvelope struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

type itemsEnvelope struct {
	Items []model.Item `json:"items"`
}

type itemEnvelope struct {
	Item *model.Item `json:"item"`
}

type balanceEnvelope struct {
	Balance float64 `json:"balance"`
}

type orderEnvelope struct {
	Order *model.Order `json:"order"`
}

type emailsEnvelope struct {
	Emails []string `json:"emails"`
}

type placeOrderPayload struct {
	DeliveryAddress string      `json:"delivery_address"`
	Items           []orderItem `json:"items"`
}

type orderItem struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

type commentsPayload struct {
	Comments []commentEntry `json:"comments"`
}

type commentEntry struct {
	ItemID  string `json:"id"`
	Comment string `json:"comment"`
}
