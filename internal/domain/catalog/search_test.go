package catalog

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func products(n int) []Product {
	out := make([]Product, n)
	for i := range out {
		out[i] = Product{ID: int64(i), Name: fmt.Sprintf("Product %d", i)}
	}
	return out
}

func TestPaginate(t *testing.T) {
	all := products(12)

	tests := []struct {
		name        string
		page        int
		size        int
		wantLen     int
		hasNext     bool
		hasPrevious bool
	}{
		{"first page", 1, 5, 5, true, false},
		{"middle page", 2, 5, 5, true, true},
		{"last partial page", 3, 5, 2, false, true},
		{"past the end", 4, 5, 0, false, true},
		{"no pagination", 1, 0, 12, false, false},
		{"no pagination second page", 2, 0, 0, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := Paginate(all, BrowseQuery{PageNum: tt.page, PageSize: tt.size})
			assert.Len(t, page.Products, tt.wantLen)
			assert.Equal(t, tt.hasNext, page.HasNext())
			assert.Equal(t, tt.hasPrevious, page.HasPrevious())
			assert.Equal(t, 12, page.Total)
		})
	}
}

func TestPaginateKeepsOrder(t *testing.T) {
	page := Paginate(products(12), NewBrowseQuery().Page(2))
	assert.Equal(t, int64(5), page.Products[0].ID)
	assert.Equal(t, int64(9), page.Products[4].ID)
	assert.Equal(t, 3, page.NumPages())
}

func TestPaginateEmpty(t *testing.T) {
	page := Paginate(nil, NewBrowseQuery())
	assert.True(t, page.IsEmpty())
	assert.NotNil(t, page.Products)
	assert.Equal(t, 0, page.NumPages())
	assert.False(t, page.HasNext())
}

func TestBrowseQueryNormalized(t *testing.T) {
	q := BrowseQuery{PageNum: 0, PageSize: -3}.Normalized()
	assert.Equal(t, 1, q.PageNum)
	assert.Equal(t, 0, q.PageSize)

	scoped := NewBrowseQuery().InCategory(4).WithText("tee")
	assert.Equal(t, int64(4), *scoped.CategoryID)
	assert.Equal(t, "tee", scoped.Query)
	assert.Equal(t, DefaultPageSize, scoped.PageSize)
}
