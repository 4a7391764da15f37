package requests

import (
	"fmt"
	"strings"
)

// Cache key families. Every key written by the service starts with one of
// these, so a prefix sweep over the four clears every page, limit and query.
const (
	FamilyAll        = "requests:all:"
	FamilySortedAsc  = "requests:sorted:asc:"
	FamilySortedDesc = "requests:sorted:desc:"
	FamilySearch     = "requests:search:"
)

var families = []string{FamilyAll, FamilySortedAsc, FamilySortedDesc, FamilySearch}

// Order is the resolved direction of a title-sorted listing.
type Order string

const (
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

// ParseOrder treats anything other than the exact string "desc" as ascending.
func ParseOrder(s string) Order {
	if s == string(OrderDesc) {
		return OrderDesc
	}
	return OrderAsc
}

func (o Order) sort() Sort {
	if o == OrderDesc {
		return SortTitleDesc
	}
	return SortTitleAsc
}

func (o Order) family() string {
	if o == OrderDesc {
		return FamilySortedDesc
	}
	return FamilySortedAsc
}

// NormalizeQuery trims and lower-cases a search query for use in cache keys.
func NormalizeQuery(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}

func pageKey(family string, q PageQuery) string {
	return fmt.Sprintf("%spage:%d:limit:%d", family, q.Page, q.Limit)
}

func allKey(q PageQuery) string {
	return pageKey(FamilyAll, q)
}

func sortedKey(o Order, q PageQuery) string {
	return pageKey(o.family(), q)
}

func searchKey(query string, q PageQuery) string {
	return fmt.Sprintf("%s%s:page:%d:limit:%d", FamilySearch, NormalizeQuery(query), q.Page, q.Limit)
}
