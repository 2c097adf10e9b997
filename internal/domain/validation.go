package domain

// Pagination bounds shared by list operations.
const (
	DefaultPageSize = 50
	MaxPageSize     = 500
)

// ValidatePagination clamps pagination parameters.
func ValidatePagination(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}

// ClampInt returns value, or def when value is not positive, never above max.
func ClampInt(value, def, max int) int {
	if value <= 0 {
		value = def
	}
	if value > max {
		value = max
	}
	return value
}
