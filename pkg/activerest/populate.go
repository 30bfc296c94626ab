package activerest

import (
	"fmt"
	nethttp "net/http"
)

// interpret turns a raw response into records.
//
// supplied, when non-nil, is the caller's in-flight record: it becomes the
// target of single-element population and of 422 validation-error
// attachment, instead of a freshly minted instance.
func (q *Query[T]) interpret(resp *Response, supplied *T, collection bool) ([]T, error) {
	decoded := q.client.codecs.Decode(resp.ContentType(), resp.Body)

	if resp.StatusCode >= 400 {
		if resp.StatusCode == nethttp.StatusUnprocessableEntity && supplied != nil {
			if field, message, ok := validationFailure(decoded); ok {
				(*supplied).AddError(field, message)

				return []T{*supplied}, nil
			}
		}

		return nil, httpErrorFrom(resp.StatusCode, decoded)
	}

	switch body := decoded.(type) {
	case []interface{}:
		// Bare, unenveloped collection.
		return q.instantiate(body), nil

	case map[string]interface{}:
		if collection {
			var items []interface{}

			if q.schema.CollectionEnvelope != "" {
				items, _ = body[q.schema.CollectionEnvelope].([]interface{})
			}

			if q.schema.PaginationEnvelope != "" {
				if block, ok := body[q.schema.PaginationEnvelope].(map[string]interface{}); ok {
					q.pagination = remapPagination(block, q.schema.PaginationKeys)
				}
			}

			return q.instantiate(items), nil
		}

		record := q.target(supplied)
		q.populateRecord(record, body)

		return []T{record}, nil

	default:
		if collection {
			return []T{}, nil
		}

		return nil, fmt.Errorf("%w: expected an object, got %T", ErrUnexpectedResponseBody, decoded)
	}
}

// target picks the record to populate for single-element semantics.
func (q *Query[T]) target(supplied *T) T {
	if supplied != nil {
		return *supplied
	}

	return q.newRecord()
}

// instantiate builds one record per object element. Non-object elements
// are skipped.
func (q *Query[T]) instantiate(items []interface{}) []T {
	records := make([]T, 0, len(items))

	for _, item := range items {
		attrs, ok := item.(map[string]interface{})
		if !ok {
			continue
		}

		record := q.newRecord()
		q.populateRecord(record, attrs)
		records = append(records, record)
	}

	return records
}

// populateRecord merges attributes and copies the primary-key attribute
// into the record's identity field.
func (q *Query[T]) populateRecord(record T, attrs map[string]interface{}) {
	record.SetAttributes(attrs)

	if id, ok := attrs[q.schema.PrimaryKey]; ok {
		record.SetID(id)
	}
}

// validationFailure inspects a decoded 422 body for the recoverable
// single-field shape: [{"field": ..., "message": ...}].
func validationFailure(decoded interface{}) (string, string, bool) {
	list, ok := decoded.([]interface{})
	if !ok || len(list) != 1 {
		return "", "", false
	}

	item, ok := list[0].(map[string]interface{})
	if !ok {
		return "", "", false
	}

	field, fieldOK := item["field"].(string)
	message, messageOK := item["message"].(string)

	if !fieldOK || !messageOK {
		return "", "", false
	}

	return field, message, true
}

// httpErrorFrom builds an HTTPError, pulling the message from a decoded
// error object when one is present, or from the decoded string body.
func httpErrorFrom(status int, decoded interface{}) *HTTPError {
	message := ""

	switch body := decoded.(type) {
	case map[string]interface{}:
		if msg, ok := body["message"].(string); ok {
			message = msg
		}
	case string:
		message = body
	}

	return &HTTPError{
		Status:  status,
		Message: message,
	}
}
