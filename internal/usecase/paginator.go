package usecase

// Paginator implements the listing's asymmetric paging: a larger first page
// followed by fixed-size pages.
type Paginator struct {
	FirstPageLimit int
	PageLimit      int
}

// NewPaginator creates a paginator, defaulting to 40 then 10
func NewPaginator(firstPageLimit, pageLimit int) Paginator {
	if firstPageLimit <= 0 {
		firstPageLimit = 40
	}
	if pageLimit <= 0 {
		pageLimit = 10
	}
	return Paginator{FirstPageLimit: firstPageLimit, PageLimit: pageLimit}
}

// Limit is the number of items requested for page
func (p Paginator) Limit(page int) int {
	if page == 0 {
		return p.FirstPageLimit
	}
	return p.PageLimit
}

// Offset is the index of the first item of page
func (p Paginator) Offset(page int) int {
	if page == 0 {
		return 0
	}
	return (page-1)*p.PageLimit + p.FirstPageLimit
}

// TotalPages derives the page count from an item total
func (p Paginator) TotalPages(total int) int {
	if total <= 0 {
		return 0
	}
	if total <= p.FirstPageLimit {
		return 1
	}
	rest := total - p.FirstPageLimit
	return (rest+p.PageLimit-1)/p.PageLimit + 1
}

// NextPage returns the page after page, if there is one
func (p Paginator) NextPage(page, totalPages int) (int, bool) {
	if totalPages > page+1 {
		return page + 1, true
	}
	return 0, false
}
