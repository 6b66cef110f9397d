package paging

// Params is the shared list/filter contract used by every paginated endpoint.
type Params struct {
	Page int
	Size int
}

// Calculate normalizes page/size and returns the offset/limit pair.
func Calculate(page, size int) (offset, limit int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 10
	}
	return (page - 1) * size, size
}

func (p Params) OffsetLimit() (int, int) {
	return Calculate(p.Page, p.Size)
}
