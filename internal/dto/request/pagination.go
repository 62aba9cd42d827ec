package request

import "vehicle-rental/pkg/utils"

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

type PaginatedRequest struct {
	Page    int `json:"page" validate:"omitempty,min=1"`
	PerPage int `json:"per_page" validate:"omitempty,min=1,max=100"`
}

// CurrentPage is the 1-based page, defaulting to the first.
func (p PaginatedRequest) CurrentPage() int {
	if p.Page < 1 {
		return 1
	}
	return p.Page
}

func (p PaginatedRequest) Offset() int {
	return utils.CalculateOffset(p.CurrentPage(), p.Limit())
}

func (p PaginatedRequest) Limit() int {
	if p.PerPage < 1 {
		return defaultPerPage
	}
	if p.PerPage > maxPerPage {
		return maxPerPage
	}
	return p.PerPage
}
