package util

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// ParseInt parses a string to an integer, returning defaultValue if parsing fails
func ParseInt(s string, defaultValue int) int {
	if val, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		return val
	}
	return defaultValue
}

// ParseBool parses common truthy strings ("1", "true", "yes")
func ParseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// ClampLimit applies the default when limit is unset or invalid and caps it at max
func ClampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

// MaxOffset bounds ?offset= so offset+limit arithmetic cannot overflow
const MaxOffset = 1 << 30

// ParsePagination reads ?limit= and ?offset= with soft bounds.
// A negative or malformed offset becomes 0; a huge one is capped at MaxOffset.
func ParsePagination(c *gin.Context, defaultLimit, maxLimit int) (limit, offset int) {
	limit = ClampLimit(ParseInt(c.Query("limit"), defaultLimit), defaultLimit, maxLimit)
	offset = ParseInt(c.Query("offset"), 0)
	if offset < 0 {
		offset = 0
	}
	if offset > MaxOffset {
		offset = MaxOffset
	}
	return limit, offset
}
