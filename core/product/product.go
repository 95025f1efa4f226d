package product

import "time"

// Vocabularies offered by the listing form. Price is in cents.
var (
	Brands     = []string{"Ferrari", "Opel", "Lenovo", "Fossil"}
	Conditions = []string{"New", "Excellent", "Mint", "Used", "Fair", "Poor"}
	Finishes   = []string{"Black", "White", "Navy", "Blue", "Red", "Clear", "Satin", "Yellow", "Seafoam"}
)

type Product struct {
	ID          string    `json:"id" db:"product_id"`
	UserID      *string   `json:"userId" db:"user_id"`
	Title       string    `json:"title" db:"title"`
	Brand       string    `json:"brand" db:"brand"`
	Model       string    `json:"model" db:"model"`
	Description string    `json:"description" db:"description"`
	Condition   string    `json:"condition" db:"condition"`
	Finish      string    `json:"finish" db:"finish"`
	Price       int       `json:"price" db:"price"`
	ImageURL    string    `json:"imageUrl" db:"image_url"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

type ProductNew struct {
	Title       string `json:"title" validate:"required,lte=140"`
	Brand       string `json:"brand" validate:"required"`
	Model       string `json:"model" validate:"required"`
	Description string `json:"description" validate:"lte=1000"`
	Condition   string `json:"condition" validate:"required,oneof=New Excellent Mint Used Fair Poor"`
	Finish      string `json:"finish" validate:"omitempty,oneof=Black White Navy Blue Red Clear Satin Yellow Seafoam"`
	Price       int    `json:"price" validate:"required,gte=0"`
	ImageURL    string `json:"imageUrl" validate:"omitempty,url"`
}

type ProductUp struct {
	Title       *string `json:"title" validate:"omitempty,lte=140"`
	Brand       *string `json:"brand"`
	Model       *string `json:"model"`
	Description *string `json:"description" validate:"omitempty,lte=1000"`
	Condition   *string `json:"condition" validate:"omitempty,oneof=New Excellent Mint Used Fair Poor"`
	Finish      *string `json:"finish" validate:"omitempty,oneof=Black White Navy Blue Red Clear Satin Yellow Seafoam"`
	Price       *int    `json:"price" validate:"omitempty,gte=0"`
	ImageURL    *string `json:"imageUrl" validate:"omitempty,url"`
}
