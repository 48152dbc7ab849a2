// Package favorites stores the products a user has marked as wished for.
package favorites

import (
	"time"

	"github.com/odyssey-erp/storefront/internal/catalog"
)

// Favorite pairs a product with the moment the user saved it.
type Favorite struct {
	catalog.Product
	FavoritedAt time.Time `json:"favorited_at"`
}
