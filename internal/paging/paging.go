// Package paging implements the pagination arithmetic shared by the listing
// views, independent of any rendering.
package paging

// TotalPages returns the number of pages needed for count entries. An empty
// listing still has one page.
func TotalPages(count, perPage int) int {
	if perPage <= 0 || count <= 0 {
		return 1
	}
	return (count + perPage - 1) / perPage
}

// Clamp keeps page inside [1, total].
func Clamp(page, total int) int {
	if total < 1 {
		total = 1
	}
	if page < 1 {
		return 1
	}
	if page > total {
		return total
	}
	return page
}

// Slice returns the half-open index range [lo, hi) covered by the given page
// of a count-long listing.
func Slice(count, page, perPage int) (int, int) {
	if perPage <= 0 || count <= 0 {
		return 0, 0
	}
	page = Clamp(page, TotalPages(count, perPage))
	lo := (page - 1) * perPage
	hi := lo + perPage
	if hi > count {
		hi = count
	}
	return lo, hi
}

// Window returns the page numbers to render: at most size entries centered on
// current, shifted so the window never leaves [1, total].
func Window(current, total, size int) []int {
	if size <= 0 || total <= 0 {
		return nil
	}
	if size > total {
		size = total
	}
	current = Clamp(current, total)

	start := current - size/2
	if start < 1 {
		start = 1
	}
	if start+size-1 > total {
		start = total - size + 1
	}

	pages := make([]int, size)
	for i := range pages {
		pages[i] = start + i
	}
	return pages
}
