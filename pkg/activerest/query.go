package activerest

import (
	"context"
	"fmt"
	nethttp "net/http"
	"net/url"
)

// Query builds and executes requests against one remote resource. The
// builder methods (Select, Where, Limit, Offset) accumulate filter state
// and return the receiver for chaining; the terminals (All, One, Create,
// Update, Delete, Count) issue the request.
//
// A Query is not safe for concurrent use; mint one per goroutine.
type Query[T Record] struct {
	client    *Client
	schema    *Schema
	newRecord func() T

	selects []string
	where   map[string]interface{}
	limit   *int
	offset  *int

	pagination *Pagination
	subquery   bool
}

// NewQuery creates a query bound to a client, a schema, and a record
// factory. The schema is defaulted and validated once, here; the caller's
// Schema value is never mutated.
func NewQuery[T Record](client *Client, schema *Schema, factory func() T) (*Query[T], error) {
	if client == nil {
		return nil, ErrClientRequired
	}

	if schema == nil {
		return nil, ErrSchemaRequired
	}

	if factory == nil {
		return nil, ErrRecordFactoryRequired
	}

	bound := *schema
	if bound.APIURL == "" {
		bound.APIURL = client.BaseURL()
	}

	full := bound.withDefaults()
	if err := full.Validate(); err != nil {
		return nil, fmt.Errorf("invalid schema for %q: %w", schema.Resource, err)
	}

	return &Query[T]{
		client:    client,
		schema:    full,
		newRecord: factory,
		where:     make(map[string]interface{}),
	}, nil
}

// ModelQuery creates a query producing generic Model records.
func ModelQuery(client *Client, schema *Schema) (*Query[*Model], error) {
	return NewQuery(client, schema, NewModel)
}

// Select adds fields to the selection list. Duplicates are ignored.
func (q *Query[T]) Select(fields ...string) *Query[T] {
	for _, field := range fields {
		if field == "" || q.selected(field) {
			continue
		}

		q.selects = append(q.selects, field)
	}

	return q
}

func (q *Query[T]) selected(field string) bool {
	for _, existing := range q.selects {
		if existing == field {
			return true
		}
	}

	return false
}

// Where merges filter conditions into the query. A later condition on the
// same field replaces the earlier one.
func (q *Query[T]) Where(conditions map[string]interface{}) *Query[T] {
	for field, condition := range conditions {
		q.where[field] = condition
	}

	return q
}

// Limit caps the number of collection results. Negative values clear it.
func (q *Query[T]) Limit(n int) *Query[T] {
	if n < 0 {
		q.limit = nil

		return q
	}

	q.limit = &n

	return q
}

// Offset skips results from the start of the collection. Negative values
// clear it.
func (q *Query[T]) Offset(n int) *Query[T] {
	if n < 0 {
		q.offset = nil

		return q
	}

	q.offset = &n

	return q
}

// Pagination returns the pagination block extracted from the last
// collection response, or nil when none has been seen.
func (q *Query[T]) Pagination() *Pagination {
	return q.pagination
}

// clone copies the filter state into a fresh query. The pagination block
// and the subquery flag do not carry over.
func (q *Query[T]) clone() *Query[T] {
	out := &Query[T]{
		client:    q.client,
		schema:    q.schema,
		newRecord: q.newRecord,
		selects:   append([]string(nil), q.selects...),
		where:     make(map[string]interface{}, len(q.where)),
	}

	for field, condition := range q.where {
		out.where[field] = condition
	}

	if q.limit != nil {
		limit := *q.limit
		out.limit = &limit
	}

	if q.offset != nil {
		offset := *q.offset
		out.offset = &offset
	}

	return out
}

// asSubquery clones the query and marks the clone as a count probe.
func (q *Query[T]) asSubquery() *Query[T] {
	out := q.clone()
	out.subquery = true

	return out
}

func (q *Query[T]) baseURL() string {
	return apiBaseURL(q.schema.APIURL)
}

func (q *Query[T]) collectionPath() string {
	return q.baseURL() + collectionURL(q.schema.Resource)
}

func (q *Query[T]) elementPath(id interface{}) string {
	return q.baseURL() + elementURL(q.schema.Resource, id)
}

func (q *Query[T]) request(method, requestURL string, params url.Values, body interface{}) *Request {
	return &Request{
		Method:  method,
		URL:     requestURL,
		Query:   params,
		Headers: map[string]string{"Accept": q.schema.ContentType},
		Body:    body,
	}
}

func (q *Query[T]) params() (url.Values, error) {
	return buildParams(q.schema, q.selects, q.where, q.limit, q.offset)
}

// All fetches the collection matching the query's filter state. Enveloped
// responses are unwrapped and their pagination block is retained for
// Pagination and Count.
func (q *Query[T]) All(ctx context.Context) ([]T, error) {
	params, err := q.params()
	if err != nil {
		return nil, err
	}

	resp, err := q.client.do(ctx, q.baseURL(), q.request(nethttp.MethodGet, q.collectionPath(), params, nil))
	if err != nil {
		return nil, err
	}

	return q.interpret(resp, nil, true)
}

// One fetches a single element by id. Filter conditions do not apply to
// element fetches; a query carrying any fails before issuing the request.
func (q *Query[T]) One(ctx context.Context, id interface{}) (T, error) {
	var zero T

	if len(q.where) > 0 {
		return zero, ErrFilteredElementFetch
	}

	params, err := q.params()
	if err != nil {
		return zero, err
	}

	resp, err := q.client.do(ctx, q.baseURL(), q.request(nethttp.MethodGet, q.elementPath(id), params, nil))
	if err != nil {
		return zero, err
	}

	records, err := q.interpret(resp, nil, false)
	if err != nil {
		return zero, err
	}

	if len(records) == 0 {
		return zero, fmt.Errorf("%w: empty element response", ErrUnexpectedResponseBody)
	}

	return records[0], nil
}

// Create posts the record's attributes to the collection. The server's
// representation is merged back onto the supplied record. A recoverable
// validation failure (422) attaches the error to the record and returns
// it without an error.
func (q *Query[T]) Create(ctx context.Context, record T) (T, error) {
	var zero T

	resp, err := q.client.do(ctx, q.baseURL(), q.request(nethttp.MethodPost, q.collectionPath(), nil, record.Attributes()))
	if err != nil {
		return zero, err
	}

	records, err := q.interpret(resp, &record, false)
	if err != nil {
		return zero, err
	}

	if len(records) == 0 {
		return record, nil
	}

	return records[0], nil
}

// Update puts the record's attributes to its element URL. The record must
// carry a primary-key value. Validation failures behave as in Create.
func (q *Query[T]) Update(ctx context.Context, record T) (T, error) {
	var zero T

	id, err := recordID(record, q.schema.PrimaryKey)
	if err != nil {
		return zero, err
	}

	resp, err := q.client.do(ctx, q.baseURL(), q.request(nethttp.MethodPut, q.elementPath(id), nil, record.Attributes()))
	if err != nil {
		return zero, err
	}

	records, err := q.interpret(resp, &record, false)
	if err != nil {
		return zero, err
	}

	if len(records) == 0 {
		return record, nil
	}

	return records[0], nil
}

// Delete removes the record's element. It reports true only when the
// server answers 204 No Content; any other status the server actually
// sent reports false without an error.
func (q *Query[T]) Delete(ctx context.Context, record T) (bool, error) {
	id, err := recordID(record, q.schema.PrimaryKey)
	if err != nil {
		return false, err
	}

	resp, err := q.client.do(ctx, q.baseURL(), q.request(nethttp.MethodDelete, q.elementPath(id), nil, record.Attributes()))
	if err != nil {
		return false, err
	}

	return resp.StatusCode == nethttp.StatusNoContent, nil
}

// Count discovers how many elements match the filter state, cheapest
// source first:
//
//  1. a pagination block already cached on this query answers without any
//     request;
//  2. a count probe (subquery) answers zero without any request;
//  3. a HEAD request answers from the totalCount wire header;
//  4. with a pagination envelope configured, a one-element probe query
//     fetches the collection and reads the count from its envelope.
//
// When every source is exhausted the count is zero.
func (q *Query[T]) Count(ctx context.Context) (int, error) {
	if q.pagination != nil {
		return q.pagination.TotalCount, nil
	}

	if q.subquery {
		return 0, nil
	}

	params, err := q.params()
	if err != nil {
		return 0, err
	}

	resp, err := q.client.do(ctx, q.baseURL(), q.request(nethttp.MethodHead, q.collectionPath(), params, nil))
	if err != nil {
		return 0, err
	}

	header := resp.Header(q.schema.PaginationKeys[PaginationTotalCount])
	if count, ok := toInt(header); ok {
		return count, nil
	}

	if q.schema.PaginationEnvelope == "" {
		return 0, nil
	}

	probe := q.asSubquery().Offset(0).Limit(1)
	if _, err := probe.All(ctx); err != nil {
		return 0, err
	}

	return probe.Count(ctx)
}

// recordID resolves a record's identity from its identity slot, falling
// back to the primary-key attribute.
func recordID(record Record, primaryKey string) (interface{}, error) {
	id := record.ID()
	if id == nil || fmt.Sprint(id) == "" {
		id = record.Attribute(primaryKey)
	}

	if id == nil || fmt.Sprint(id) == "" {
		return nil, ErrMissingPrimaryKey
	}

	return id, nil
}
