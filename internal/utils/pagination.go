package utils

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// Pagination holds pagination parameters. Requested is false when the client
// asked for neither page nor limit, in which case lists are returned whole.
type Pagination struct {
	Page      int
	Limit     int
	Offset    int
	Requested bool
}

// ParsePagination reads page and limit query params with sane defaults.
func ParsePagination(c *fiber.Ctx) Pagination {
	requested := c.Query("page") != "" || c.Query("limit") != ""

	page := parseInt(c.Query("page", "1"), 1)
	limit := parseInt(c.Query("limit", "50"), 50)
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	if page <= 0 {
		page = 1
	}

	return Pagination{
		Page:      page,
		Limit:     limit,
		Offset:    (page - 1) * limit,
		Requested: requested,
	}
}

func parseInt(value string, fallback int) int {
	if parsed, err := strconv.Atoi(value); err == nil {
		return parsed
	}
	return fallback
}
