package cart

import (
	"time"
)

// Cart holds a shopper's items. A cart with a nil UserID is a guest cart,
// identified only by the session token; an owned cart persists with its
// user. ItemsCount caches the sum of item quantities and is maintained in
// the same transaction as every item write.
type Cart struct {
	ID         string    `json:"id" db:"cart_id"`
	UserID     *string   `json:"-" db:"user_id"`
	ItemsCount int       `json:"itemsCount" db:"items_count"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt" db:"updated_at"`
}

// IsEmpty reports whether the cart holds no items, from the cached counter.
func (c Cart) IsEmpty() bool {
	return c.ItemsCount == 0
}

// Item is one product in one cart. Quantity is strictly positive for as
// long as the row exists; driving it to zero deletes the row.
type Item struct {
	CartID    string    `json:"-" db:"cart_id"`
	ProductID string    `json:"productId" db:"product_id"`
	Quantity  int       `json:"quantity" db:"quantity"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// ItemView is an item joined with its product, for rendering the cart.
type ItemView struct {
	ProductID string `json:"productId" db:"product_id"`
	Title     string `json:"title" db:"title"`
	Brand     string `json:"brand" db:"brand"`
	Price     int    `json:"price" db:"price"`
	ImageURL  string `json:"imageUrl" db:"image_url"`
	Quantity  int    `json:"quantity" db:"quantity"`
}

type ItemNew struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Quantity  *int   `json:"quantity" validate:"omitempty,gte=1"`
}

type ItemUp struct {
	Quantity *int `json:"quantity" validate:"required,gte=0"`
}

type ItemDec struct {
	Quantity *int `json:"quantity" validate:"omitempty,gte=1"`
}

// View is the payload returned by GET /cart.
type View struct {
	ID         string     `json:"id"`
	Items      []ItemView `json:"items"`
	TotalItems int        `json:"totalItems"`
	TotalPrice int        `json:"totalPrice"`
}
