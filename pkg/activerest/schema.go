package activerest

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Canonical pagination field names. Responses and headers are remapped
// onto these regardless of what the server calls them on the wire.
const (
	PaginationTotalCount   = "totalCount"
	PaginationPageCount    = "pageCount"
	PaginationCurrentPage  = "currPage"
	PaginationPerPageCount = "perPageCount"
	PaginationLinks        = "links"
)

// Default wire names for the canonical pagination fields. The totalCount
// wire name doubles as the response header consulted by Count.
func DefaultPaginationKeys() map[string]string {
	return map[string]string{
		PaginationTotalCount:   "X-Pagination-Total-Count",
		PaginationPageCount:    "X-Pagination-Page-Count",
		PaginationCurrentPage:  "X-Pagination-Current-Page",
		PaginationPerPageCount: "X-Pagination-Per-Page",
		PaginationLinks:        "Link",
	}
}

// Schema describes how one resource type maps onto the remote API: where
// it lives, how it is identified, and which envelopes its responses use.
//
// A Schema with only APIURL and Resource set is usable; every other field
// has a default applied at query construction.
type Schema struct {
	// APIURL is the API root the resource lives under, e.g.
	// "https://api.example.com/v1". A trailing slash is optional.
	APIURL string

	// Resource is the collection path segment, e.g. "users".
	Resource string

	// PrimaryKey is the attribute holding the resource identity.
	// Defaults to "id".
	PrimaryKey string

	// CollectionEnvelope is the response field wrapping collection
	// results, e.g. "items". Empty means collections arrive as bare
	// arrays only.
	CollectionEnvelope string

	// PaginationEnvelope is the response field carrying the pagination
	// block, e.g. "_meta". Empty disables envelope-based pagination.
	PaginationEnvelope string

	// PaginationKeys maps canonical pagination field names to their wire
	// names. Missing entries fall back to DefaultPaginationKeys.
	PaginationKeys map[string]string

	// LimitParam and OffsetParam are the query parameter names for
	// pagination. Default to "limit" and "offset".
	LimitParam  string
	OffsetParam string

	// FieldsParam is the query parameter name for field selection.
	// Defaults to "fields".
	FieldsParam string

	// ContentType is the resource's data type, used to pick the
	// unserializer and as the default Accept header. Defaults to
	// "application/json".
	ContentType string
}

// Validate checks that the schema is usable.
func (s *Schema) Validate() error {
	return validation.ValidateStruct(s,
		validation.Field(&s.APIURL, validation.Required, is.URL),
		validation.Field(&s.Resource, validation.Required),
		validation.Field(&s.PaginationKeys, validation.By(canonicalPaginationKeys)),
	)
}

// withDefaults returns a copy with every unset field defaulted. The
// receiver is left untouched so callers can share Schema values between
// queries.
func (s *Schema) withDefaults() *Schema {
	out := *s

	if out.PrimaryKey == "" {
		out.PrimaryKey = "id"
	}

	if out.LimitParam == "" {
		out.LimitParam = "limit"
	}

	if out.OffsetParam == "" {
		out.OffsetParam = "offset"
	}

	if out.FieldsParam == "" {
		out.FieldsParam = "fields"
	}

	if out.ContentType == "" {
		out.ContentType = "application/json"
	}

	keys := DefaultPaginationKeys()
	for canonical, wire := range s.PaginationKeys {
		keys[canonical] = wire
	}

	out.PaginationKeys = keys
	out.Resource = strings.Trim(out.Resource, "/")

	return &out
}

func canonicalPaginationKeys(value interface{}) error {
	keys, _ := value.(map[string]string)
	defaults := DefaultPaginationKeys()

	for canonical := range keys {
		if _, ok := defaults[canonical]; !ok {
			return validation.NewError(
				"validation_pagination_key",
				"unknown canonical pagination field: "+canonical,
			)
		}
	}

	return nil
}
