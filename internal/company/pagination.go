package company

// PageEllipsis marks a gap in a paginated page list.
const PageEllipsis = -1

// PageNumbers builds the page strip for listing views: every page when there
// are at most seven, otherwise page 1 and the last page bracketing a window
// around the current page, with ellipses where the gaps exceed one.
func PageNumbers(current, total int) []int {
	if total <= 0 {
		return nil
	}

	if total <= 7 {
		pages := make([]int, 0, total)
		for i := 1; i <= total; i++ {
			pages = append(pages, i)
		}
		return pages
	}

	pages := []int{1}
	if current > 3 {
		pages = append(pages, PageEllipsis)
	}
	lo := current - 1
	if lo < 2 {
		lo = 2
	}
	hi := current + 1
	if hi > total-1 {
		hi = total - 1
	}
	for i := lo; i <= hi; i++ {
		pages = append(pages, i)
	}
	if current < total-2 {
		pages = append(pages, PageEllipsis)
	}
	return append(pages, total)
}
