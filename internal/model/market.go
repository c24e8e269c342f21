package model

import "time"

type User struct {
	ID           int     `json:"userId"`
	Username     string  `json:"username"`
	Usermail     string  `json:"usermail"`
	PasswordHash string  `json:"-"`
	Balance      float64 `json:"balance"`
	About        string  `json:"about,omitempty"`
}

type Item struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Category  string   `json:"category"`
	Condition string   `json:"condition"`
	Grade     string   `json:"grade"`
	Subject   string   `json:"subject"`
	OwnerID   int      `json:"owner_id"`
	Price     float64  `json:"price"`
	Images    []string `json:"images"`
	Reviews   []string `json:"reviews"`
	Available bool     `json:"available"`
}

type Order struct {
	ID              string      `json:"order_id"`
	UserID          int         `json:"user_id"`
	DeliveryAddress string      `json:"delivery_address"`
	Lines           []OrderLine `json:"items"`
	TotalPrice      float64     `json:"total_price"`
	CreatedAt       time.Time   `json:"created_at"`
}

type OrderLine struct {
	ItemID   string  `json:"item_id"`
	ItemName string  `json:"item_name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	SellerID int     `json:"seller_id"`
}

type Rating struct {
	ID        int       `json:"id"`
	SellerID  int       `json:"seller_id"`
	Points    int       `json:"points"`
	CreatedAt time.Time `json:"created_at"`
}

// ItemPatch carries the optional fields of an item edit. Nil means
// "leave unchanged".
type ItemPatch struct {
	Name      *string
	Category  *string
	Condition *string
	Grade     *string
	Subject   *string
	Price     *float64
	Images    []string
}
