package requests

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCacheKeys(t *testing.T) {
	q := PageQuery{Page: 2, Limit: 5}

	assert.Equal(t, "requests:all:page:2:limit:5", allKey(q))
	assert.Equal(t, "requests:sorted:asc:page:2:limit:5", sortedKey(OrderAsc, q))
	assert.Equal(t, "requests:sorted:desc:page:2:limit:5", sortedKey(OrderDesc, q))
	assert.Equal(t, "requests:search:cuet prep:page:2:limit:5", searchKey("  CUET Prep ", q))
	assert.Equal(t, "requests:search::page:1:limit:5", searchKey("", PageQuery{Page: 1, Limit: 5}))

	for _, key := range []string{allKey(q), sortedKey(OrderAsc, q), sortedKey(OrderDesc, q), searchKey("x", q)} {
		matched := 0
		for _, family := range families {
			if len(key) >= len(family) && key[:len(family)] == family {
				matched++
			}
		}
		assert.Equal(t, 1, matched, key)
	}
}

func TestParseOrder(t *testing.T) {
	assert.Equal(t, OrderDesc, ParseOrder("desc"))
	for _, raw := range []string{"", "asc", "DESC", " desc", "up"} {
		assert.Equal(t, OrderAsc, ParseOrder(raw), raw)
	}
}

func TestNewPageResult(t *testing.T) {
	res := NewPageResult(nil, 0, PageQuery{Page: 1, Limit: 5})
	assert.Equal(t, 0, res.TotalPages)
	assert.NotNil(t, res.Items)

	assert.Equal(t, 2, NewPageResult(nil, 7, PageQuery{Page: 1, Limit: 5}).TotalPages)
	assert.Equal(t, 1, NewPageResult(nil, 5, PageQuery{Page: 1, Limit: 5}).TotalPages)
	assert.Equal(t, 3, NewPageResult(nil, 11, PageQuery{Page: 1, Limit: 5}).TotalPages)
}
