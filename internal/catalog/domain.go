package catalog

import "time"

// ProductStatus marks whether a product is offered in the storefront.
type ProductStatus string

const (
	ProductActive   ProductStatus = "active"
	ProductInactive ProductStatus = "inactive"
)

// CategoryActive is the stored status of a visible category.
const CategoryActive = "activa"

// Product is a sellable item. Price is in minor currency units.
type Product struct {
	ID           int64         `json:"id"`
	Name         string        `json:"name"`
	Description  string        `json:"description"`
	Price        int64         `json:"price"`
	Stock        int           `json:"stock"`
	Sales        int           `json:"sales"`
	Tags         string        `json:"tags"`
	Image        string        `json:"image"`
	CategoryID   *int64        `json:"category_id,omitempty"`
	CategoryName *string       `json:"category_name"`
	Status       ProductStatus `json:"status"`
	CreatedAt    time.Time     `json:"created_at"`
}

// Category groups products.
type Category struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// SortKey selects the ordering of a product listing.
type SortKey string

const (
	SortNewest     SortKey = ""
	SortPriceAsc   SortKey = "price_asc"
	SortPriceDesc  SortKey = "price_desc"
	SortNameAsc    SortKey = "name_asc"
	SortNameDesc   SortKey = "name_desc"
	SortPopularity SortKey = "popularity"
)

// ProductFilter narrows a product listing. Nil or zero CategoryID, MinPrice
// and MaxPrice are treated as not supplied. Offset only applies together with
// a positive Limit; a zero Limit lists everything.
type ProductFilter struct {
	CategoryID  *int64
	Search      string
	MinPrice    *int64
	MaxPrice    *int64
	InStockOnly bool
	Sort        SortKey
	Limit       int
	Offset      int
}

const (
	defaultRelatedLimit = 4
	defaultTopLimit     = 10
)
