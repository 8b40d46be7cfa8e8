package util

import "strconv"

// ParseInt parses s, falling back to defaultValue on garbage
func ParseInt(s string, defaultValue int) int {
	if val, err := strconv.Atoi(s); err == nil {
		return val
	}
	return defaultValue
}

// ParsePagination extracts limit/offset query values with bounds
func ParsePagination(limitStr, offsetStr string) (limit, offset int) {
	limit = ParseInt(limitStr, 20)
	if limit < 1 {
		limit = 1
	}
	if limit > 100 {
		limit = 100
	}
	offset = ParseInt(offsetStr, 0)
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
