// Package activerest provides a query-builder style client for REST-ish
// HTTP APIs: describe a resource once with a Schema, then read and write
// it through chainable queries.
//
// Basic usage:
//
//	client, err := activerest.New(&activerest.Config{
//		BaseURL: "https://api.example.com/v1",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	users, err := activerest.ModelQuery(client, &activerest.Schema{
//		Resource:           "users",
//		CollectionEnvelope: "items",
//		PaginationEnvelope: "_meta",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	active, err := users.Where(map[string]interface{}{"status": "active"}).
//		Limit(20).
//		All(ctx)
//
// Responses are decoded by content type, collection envelopes are
// unwrapped, and pagination metadata is remapped onto canonical names so
// Count can answer from the cheapest available source. Server-sent error
// statuses become HTTPError values; failures to reach the server at all
// become TransportError values; a single-field 422 validation failure is
// attached to the record instead of surfacing as an error.
package activerest
