package catalog

// Default browsing parameters
const (
	DefaultPageNum  = 1
	DefaultPageSize = 5
)

// BrowseQuery filters and paginates a product listing.
// PageSize zero disables pagination: everything lands on page 1.
type BrowseQuery struct {
	Query      string
	CategoryID *int64
	PageNum    int
	PageSize   int
}

// NewBrowseQuery returns a query with the default page settings
func NewBrowseQuery() BrowseQuery {
	return BrowseQuery{PageNum: DefaultPageNum, PageSize: DefaultPageSize}
}

// InCategory scopes the query to a category
func (q BrowseQuery) InCategory(id int64) BrowseQuery {
	q.CategoryID = &id
	return q
}

// WithText sets the free-text filter
func (q BrowseQuery) WithText(text string) BrowseQuery {
	q.Query = text
	return q
}

// Page sets the 1-based page number
func (q BrowseQuery) Page(num int) BrowseQuery {
	q.PageNum = num
	return q
}

// Normalized clamps the page number to at least 1 and negative sizes to 0
func (q BrowseQuery) Normalized() BrowseQuery {
	if q.PageNum < 1 {
		q.PageNum = DefaultPageNum
	}
	if q.PageSize < 0 {
		q.PageSize = 0
	}
	return q
}

// Offset returns the index of the first product on the page
func (q BrowseQuery) Offset() int {
	return (q.PageNum - 1) * q.PageSize
}

// SearchPage is one page of a product listing
type SearchPage struct {
	Products []Product `json:"products"`
	PageNum  int       `json:"page_num"`
	PageSize int       `json:"page_size"`
	Total    int       `json:"total"`
}

// NumPages returns the number of pages needed to show every match
func (p SearchPage) NumPages() int {
	if p.Total == 0 {
		return 0
	}
	if p.PageSize <= 0 {
		return 1
	}
	return (p.Total + p.PageSize - 1) / p.PageSize
}

// HasPrevious returns true if a page precedes this one
func (p SearchPage) HasPrevious() bool {
	return p.PageNum > 1
}

// HasNext returns true if a page follows this one
func (p SearchPage) HasNext() bool {
	return p.PageNum < p.NumPages()
}

// IsEmpty returns true if the page holds no products
func (p SearchPage) IsEmpty() bool {
	return len(p.Products) == 0
}

// Paginate cuts the page described by q out of the full ordered match list
func Paginate(matches []Product, q BrowseQuery) SearchPage {
	q = q.Normalized()
	page := SearchPage{
		PageNum:  q.PageNum,
		PageSize: q.PageSize,
		Total:    len(matches),
		Products: []Product{},
	}
	if q.PageSize == 0 {
		if q.PageNum == 1 {
			page.Products = matches
		}
		return page
	}
	start := q.Offset()
	if start >= len(matches) {
		return page
	}
	end := min(start+q.PageSize, len(matches))
	page.Products = matches[start:end]
	return page
}
