package utils

import (
	"strconv"
	"strings"
	"time"
)

// ParseIntOption parses a string value to an integer, returning 0 if the string is empty or invalid
func ParseIntOption(value string) int {
	if value == "" {
		return 0
	}
	num, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return num
}

// SortColumn maps an API sort key onto a database column, defaulting to
// created_at for unknown keys so user input never reaches the query raw.
func SortColumn(sortBy string) string {
	switch sortBy {
	case "createdAt", "created_at", "":
		return "created_at"
	case "updatedAt", "updated_at":
		return "updated_at"
	case "name", "filename":
		return "filename"
	case "size":
		return "size"
	case "type":
		return "type"
	default:
		return "created_at"
	}
}

// SortDirection normalizes a sort order to ASC or DESC (default DESC).
func SortDirection(sortOrder string) string {
	if strings.EqualFold(sortOrder, "asc") {
		return "ASC"
	}
	return "DESC"
}

// ParseFromDate parses an RFC3339 or unix-millisecond from_date query value.
func ParseFromDate(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, true
	}
	if ms, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.UnixMilli(ms), true
	}
	return time.Time{}, false
}
