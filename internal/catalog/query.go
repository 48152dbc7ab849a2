package catalog

import (
	"fmt"
	"strings"
)

const productColumns = `p.id, p.name, p.description, p.price, p.stock, p.sales, p.tags, p.image,
       p.category_id, c.name, p.status, p.created_at`

// Predicate tags identify which filters contributed to a query.
const (
	PredCategory = "category"
	PredSearch   = "search"
	PredMinPrice = "min_price"
	PredMaxPrice = "max_price"
	PredInStock  = "in_stock"
	PredActive   = "active"
	PredExclude  = "exclude"
)

type predicate struct {
	tag      string
	fragment string
	args     []any
}

// Query accumulates predicate fragments with their bound arguments and renders
// a positional SQL statement. Fragments use '?' for each argument; values are
// never spliced into the text.
type Query struct {
	from    string
	preds   []predicate
	orderBy string
	limit   int
	offset  int
}

// NewQuery starts a product query over the given FROM clause.
func NewQuery(from string) *Query {
	return &Query{from: from}
}

// Where ANDs a fragment onto the query.
func (q *Query) Where(tag, fragment string, args ...any) *Query {
	q.preds = append(q.preds, predicate{tag: tag, fragment: fragment, args: args})
	return q
}

// OrderBy replaces the ORDER BY clause.
func (q *Query) OrderBy(clause string) *Query {
	q.orderBy = clause
	return q
}

// Page sets LIMIT/OFFSET. A non-positive limit clears both.
func (q *Query) Page(limit, offset int) *Query {
	if limit <= 0 {
		q.limit, q.offset = 0, 0
		return q
	}
	q.limit = limit
	if offset < 0 {
		offset = 0
	}
	q.offset = offset
	return q
}

// Tags lists predicate tags in insertion order.
func (q *Query) Tags() []string {
	tags := make([]string, 0, len(q.preds))
	for _, p := range q.preds {
		tags = append(tags, p.tag)
	}
	return tags
}

// Build renders the statement and its positional arguments.
func (q *Query) Build() (string, []any) {
	var sb strings.Builder
	args := make([]any, 0, len(q.preds)+2)

	sb.WriteString("SELECT ")
	sb.WriteString(productColumns)
	sb.WriteString("\nFROM ")
	sb.WriteString(q.from)

	for i, p := range q.preds {
		if i == 0 {
			sb.WriteString("\nWHERE ")
		} else {
			sb.WriteString("\n  AND ")
		}
		sb.WriteString(bind(p.fragment, len(args)))
		args = append(args, p.args...)
	}
	if q.orderBy != "" {
		sb.WriteString("\nORDER BY ")
		sb.WriteString(q.orderBy)
	}
	if q.limit > 0 {
		args = append(args, q.limit)
		fmt.Fprintf(&sb, "\nLIMIT $%d", len(args))
		if q.offset > 0 {
			args = append(args, q.offset)
			fmt.Fprintf(&sb, " OFFSET $%d", len(args))
		}
	}
	return sb.String(), args
}

// bind rewrites each '?' into $n starting after offset.
func bind(fragment string, offset int) string {
	var sb strings.Builder
	n := offset
	for _, r := range fragment {
		if r == '?' {
			n++
			fmt.Fprintf(&sb, "$%d", n)
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern wraps term for a substring ILIKE match with wildcards
// in the term escaped.
func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}

func orderClause(key SortKey) string {
	switch key {
	case SortPriceAsc:
		return "p.price ASC, p.id ASC"
	case SortPriceDesc:
		return "p.price DESC, p.id ASC"
	case SortNameAsc:
		return "p.name ASC, p.id ASC"
	case SortNameDesc:
		return "p.name DESC, p.id ASC"
	case SortPopularity:
		return "p.sales DESC, p.id ASC"
	default:
		return "p.created_at DESC, p.id DESC"
	}
}

const listFrom = "products p LEFT JOIN categories c ON c.id = p.category_id"

// NewProductQuery composes the listing query for a filter. Every supplied
// field contributes exactly one predicate.
func NewProductQuery(f ProductFilter) *Query {
	q := NewQuery(listFrom)
	if f.CategoryID != nil && *f.CategoryID != 0 {
		q.Where(PredCategory, "p.category_id = ?", *f.CategoryID)
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		pattern := containsPattern(term)
		q.Where(PredSearch, `(p.name ILIKE ? ESCAPE '\' OR p.description ILIKE ? ESCAPE '\' OR p.tags ILIKE ? ESCAPE '\')`,
			pattern, pattern, pattern)
	}
	if f.MinPrice != nil && *f.MinPrice != 0 {
		q.Where(PredMinPrice, "p.price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil && *f.MaxPrice != 0 {
		q.Where(PredMaxPrice, "p.price <= ?", *f.MaxPrice)
	}
	if f.InStockOnly {
		q.Where(PredInStock, "p.stock > 0")
	}
	return q.OrderBy(orderClause(f.Sort)).Page(f.Limit, f.Offset)
}

// NewSearchQuery matches active products whose name, description, tags or
// category name contain term. Rows come back in id order; ranking happens in
// RankResults.
func NewSearchQuery(term string) *Query {
	pattern := containsPattern(strings.TrimSpace(term))
	return NewQuery(listFrom).
		Where(PredActive, "p.status = ?", string(ProductActive)).
		Where(PredSearch, `(p.name ILIKE ? ESCAPE '\' OR p.description ILIKE ? ESCAPE '\' OR p.tags ILIKE ? ESCAPE '\' OR c.name ILIKE ? ESCAPE '\')`,
			pattern, pattern, pattern, pattern).
		OrderBy("p.id ASC")
}

// NewRelatedQuery lists active products sharing a category, excluding one.
func NewRelatedQuery(productID, categoryID int64, limit int) *Query {
	if limit <= 0 {
		limit = defaultRelatedLimit
	}
	return NewQuery(listFrom).
		Where(PredCategory, "p.category_id = ?", categoryID).
		Where(PredExclude, "p.id <> ?", productID).
		Where(PredActive, "p.status = ?", string(ProductActive)).
		OrderBy("p.sales DESC, p.created_at DESC, p.id ASC").
		Page(limit, 0)
}

const innerFrom = "products p INNER JOIN categories c ON c.id = p.category_id"

// NewCategoryQuery lists active products of one category by sales. A zero
// limit lists all of them.
func NewCategoryQuery(categoryID int64, limit int) *Query {
	return NewQuery(innerFrom).
		Where(PredCategory, "p.category_id = ?", categoryID).
		Where(PredActive, "p.status = ?", string(ProductActive)).
		OrderBy("p.sales DESC, p.id ASC").
		Page(limit, 0)
}

// NewTopSellersQuery lists the best selling active products.
func NewTopSellersQuery(limit int) *Query {
	if limit <= 0 {
		limit = defaultTopLimit
	}
	return NewQuery(innerFrom).
		Where(PredActive, "p.status = ?", string(ProductActive)).
		OrderBy("p.sales DESC, p.id ASC").
		Page(limit, 0)
}
