package activerest

import (
	"fmt"
	"strings"
)

// apiBaseURL normalizes an API root to end with exactly one trailing
// slash, as required for relative-URL resolution. Idempotent.
func apiBaseURL(raw string) string {
	return strings.TrimRight(raw, "/") + "/"
}

// collectionURL is the resource's collection path segment with no
// trailing slash.
func collectionURL(resource string) string {
	return strings.Trim(resource, "/")
}

// elementURL is the element path for an id, or the collection URL when
// the id is absent. Never ends with a trailing slash.
func elementURL(resource string, id interface{}) string {
	collection := collectionURL(resource)

	segment := ""
	if id != nil {
		segment = strings.Trim(fmt.Sprint(id), "/")
	}

	if segment == "" {
		return collection
	}

	return collection + "/" + segment
}
