package activerest

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Pagination is the canonical pagination block extracted from a collection
// response's pagination envelope. Wire values arriving as strings are
// converted to integers.
type Pagination struct {
	TotalCount  int
	PageCount   int
	CurrentPage int
	PerPage     int
	Links       interface{}
}

// remapPagination translates a raw pagination envelope into the canonical
// block using the schema's canonical-to-wire key mapping. Only declared
// canonical keys are consulted; unknown wire fields are ignored.
func remapPagination(raw map[string]interface{}, keys map[string]string) *Pagination {
	page := &Pagination{}

	if wire, ok := keys[PaginationTotalCount]; ok {
		page.TotalCount, _ = toInt(raw[wire])
	}

	if wire, ok := keys[PaginationPageCount]; ok {
		page.PageCount, _ = toInt(raw[wire])
	}

	if wire, ok := keys[PaginationCurrentPage]; ok {
		page.CurrentPage, _ = toInt(raw[wire])
	}

	if wire, ok := keys[PaginationPerPageCount]; ok {
		page.PerPage, _ = toInt(raw[wire])
	}

	if wire, ok := keys[PaginationLinks]; ok {
		page.Links = raw[wire]
	}

	return page
}

// toInt converts scalar wire values (numbers, numeric strings, JSON
// numbers) to an int. The second return value reports success.
func toInt(value interface{}) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	case json.Number:
		if n, err := strconv.Atoi(v.String()); err == nil {
			return n, true
		}

		if f, err := v.Float64(); err == nil {
			return int(f), true
		}

		return 0, false
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, false
		}

		if n, err := strconv.Atoi(trimmed); err == nil {
			return n, true
		}

		if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return int(f), true
		}

		return 0, false
	default:
		return 0, false
	}
}
