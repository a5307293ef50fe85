package utils

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// ListQuery holds the query, sort, and pagination parameters of a list request.
type ListQuery struct {
	Search   string
	SortKey  string
	SortDesc bool
	Page     int
	Limit    int
}

// ParseListQuery reads search, sort, page and limit query params with sane defaults.
func ParseListQuery(c *fiber.Ctx) ListQuery {
	page := parseInt(c.Query("page", "1"), 1)
	limit := parseInt(c.Query("limit", "10"), 10)
	if limit <= 0 {
		limit = 10
	}
	if page <= 0 {
		page = 1
	}

	sortKey := c.Query("sort", "name")
	sortDesc := false
	if strings.HasPrefix(sortKey, "-") {
		sortKey = strings.TrimPrefix(sortKey, "-")
		sortDesc = true
	}
	if strings.EqualFold(c.Query("order"), "desc") {
		sortDesc = true
	}

	return ListQuery{
		Search:   c.Query("search"),
		SortKey:  sortKey,
		SortDesc: sortDesc,
		Page:     page,
		Limit:    limit,
	}
}

func parseInt(value string, fallback int) int {
	if parsed, err := strconv.Atoi(value); err == nil {
		return parsed
	}
	return fallback
}
