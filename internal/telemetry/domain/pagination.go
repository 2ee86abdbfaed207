package telemetry

const (
	// DefaultLimit applies when the caller supplies no page size.
	DefaultLimit = 10
	// MaxLimit caps one page of results.
	MaxLimit = 2000
)

// Page is a 1-indexed pagination request.
type Page struct {
	Page  int
	Limit int
}

// Normalize clamps the request into valid bounds.
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// Offset is the number of rows to skip for this page.
func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Meta describes a paginated result set.
type Meta struct {
	Total           int  `json:"total"`
	Page            int  `json:"page"`
	LastPage        int  `json:"lastPage"`
	HasNextPage     bool `json:"hasNextPage"`
	HasPreviousPage bool `json:"hasPreviousPage"`
}

// NewMeta computes pagination metadata for a normalized page.
func NewMeta(total int, page Page) Meta {
	page = page.Normalize()
	lastPage := (total + page.Limit - 1) / page.Limit
	return Meta{
		Total:           total,
		Page:            page.Page,
		LastPage:        lastPage,
		HasNextPage:     page.Page < lastPage,
		HasPreviousPage: page.Page > 1,
	}
}

// PaginatedMeasurements is one page of measurements plus metadata.
type PaginatedMeasurements struct {
	Data []Measurement `json:"data"`
	Meta Meta          `json:"meta"`
}
