package domain

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

type PageRequest struct {
	Page  int
	Limit int
}

// Normalize fills defaults: page 1 and DefaultPageLimit, capping the limit at MaxPageLimit.
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p
}

func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Page is the single list contract returned by every paginated query.
type Page[T any] struct {
	Items      []T
	Page       int
	Limit      int
	TotalPages int
	TotalItems int
}

func NewPage[T any](items []T, req PageRequest, totalItems int) Page[T] {
	totalPages := 0
	if req.Limit > 0 {
		totalPages = (totalItems + req.Limit - 1) / req.Limit
	}

	if items == nil {
		items = []T{}
	}

	return Page[T]{
		Items:      items,
		Page:       req.Page,
		Limit:      req.Limit,
		TotalPages: totalPages,
		TotalItems: totalItems,
	}
}

// MapPage converts the items of a page keeping its paging metadata.
func MapPage[T, R any](p Page[T], fn func(T) R) Page[R] {
	items := make([]R, 0, len(p.Items))
	for _, item := range p.Items {
		items = append(items, fn(item))
	}

	return Page[R]{
		Items:      items,
		Page:       p.Page,
		Limit:      p.Limit,
		TotalPages: p.TotalPages,
		TotalItems: p.TotalItems,
	}
}
