package catalog_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/storefront/internal/catalog"
	"github.com/odyssey-erp/storefront/internal/platform/db/dbtest"
)

func productIDs(ps []catalog.Product) []int64 {
	out := make([]int64, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.ID)
	}
	return out
}

func TestPGRepositoryListAndSearch(t *testing.T) {
	pool := dbtest.Open(t)
	fx := dbtest.Fixture{Pool: pool}
	ctx := context.Background()

	shirts := fx.Category(t, "Shirts", "activa")
	blue := fx.Product(t, dbtest.Product{Name: "Blue Shirt", Price: 2000, Stock: 3, Sales: 5, CategoryID: &shirts})
	jeans := fx.Product(t, dbtest.Product{Name: "Jeans", Tags: "denim,shirt", Price: 4000, Stock: 0, Sales: 50})
	red := fx.Product(t, dbtest.Product{Name: "Red Shirt", Price: 3000, Stock: 1, Sales: 10, CategoryID: &shirts})
	hidden := fx.Product(t, dbtest.Product{Name: "Old Shirt", Price: 100, Stock: 9, Status: "inactive"})

	repo := catalog.NewRepository(pool)
	svc := catalog.NewService(repo, nil, nil)

	t.Run("search ranks and hides inactive", func(t *testing.T) {
		got := svc.Search(ctx, "shirt")
		assert.Equal(t, []int64{red, blue, jeans}, productIDs(got))
	})

	t.Run("listing includes inactive and honours filters", func(t *testing.T) {
		minPrice := int64(1000)
		got := svc.ListProducts(ctx, catalog.ProductFilter{Search: "shirt", MinPrice: &minPrice, InStockOnly: true, Sort: catalog.SortPriceAsc})
		assert.Equal(t, []int64{blue, red}, productIDs(got))

		all := svc.ListProducts(ctx, catalog.ProductFilter{Sort: catalog.SortPriceAsc})
		assert.Equal(t, []int64{hidden, blue, red, jeans}, productIDs(all))
	})

	t.Run("offset without limit is ignored", func(t *testing.T) {
		got := svc.ListProducts(ctx, catalog.ProductFilter{Offset: 2, Sort: catalog.SortPriceAsc})
		assert.Len(t, got, 4)

		paged := svc.ListProducts(ctx, catalog.ProductFilter{Limit: 2, Offset: 2, Sort: catalog.SortPriceAsc})
		assert.Equal(t, []int64{red, jeans}, productIDs(paged))
	})

	t.Run("missing category reads null name", func(t *testing.T) {
		p, err := svc.GetProduct(ctx, jeans)
		require.NoError(t, err)
		assert.Nil(t, p.CategoryName)
	})

	t.Run("related and by category", func(t *testing.T) {
		assert.Equal(t, []int64{red}, productIDs(svc.Related(ctx, blue, 4)))
		assert.Equal(t, []int64{red, blue}, productIDs(svc.ProductsByCategory(ctx, shirts, 0)))
	})
}
