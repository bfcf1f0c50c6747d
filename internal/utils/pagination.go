package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// DefaultLimit is the default number of items per page
const DefaultLimit = 20

// MaxLimit is the maximum number of items per page
const MaxLimit = 100

// PaginationRequest holds pagination parameters
type PaginationRequest struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}

// Offset returns the row offset for the requested page
func (p PaginationRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}

// PaginatedResponse represents a paginated API response
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

// Pagination holds pagination metadata
type Pagination struct {
	CurrentPage int   `json:"current_page"`
	TotalPages  int   `json:"total_pages"`
	TotalItems  int64 `json:"total_items"`
	PerPage     int   `json:"per_page"`
}

// GetPaginationFromContext extracts pagination parameters from the gin context
func GetPaginationFromContext(ctx *gin.Context) PaginationRequest {
	page, err := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	limit, err := strconv.Atoi(ctx.DefaultQuery("limit", strconv.Itoa(DefaultLimit)))
	if err != nil || limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	return PaginationRequest{Page: page, Limit: limit}
}

// NewPaginatedResponse creates a new paginated response
func NewPaginatedResponse(data interface{}, pagination PaginationRequest, totalItems int64) PaginatedResponse {
	totalPages := int(totalItems) / pagination.Limit
	if int(totalItems)%pagination.Limit > 0 {
		totalPages++
	}

	return PaginatedResponse{
		Data: data,
		Pagination: Pagination{
			CurrentPage: pagination.Page,
			TotalPages:  totalPages,
			TotalItems:  totalItems,
			PerPage:     pagination.Limit,
		},
	}
}
