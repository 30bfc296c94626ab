package activerest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBuilderQuery(t *testing.T) *Query[*Model] {
	t.Helper()

	client, err := New(&Config{BaseURL: "https://api.example.com/v1"})
	require.NoError(t, err)

	query, err := ModelQuery(client, &Schema{Resource: "users"})
	require.NoError(t, err)

	return query
}

func TestQuery_Builders(t *testing.T) {
	t.Parallel()

	t.Run("select deduplicates", func(t *testing.T) {
		t.Parallel()

		query := newBuilderQuery(t)
		query.Select("id", "name").Select("name", "email", "")

		assert.Equal(t, []string{"id", "name", "email"}, query.selects)
	})

	t.Run("where merges with replacement", func(t *testing.T) {
		t.Parallel()

		query := newBuilderQuery(t)
		query.Where(map[string]interface{}{"status": "active", "age": 30})
		query.Where(map[string]interface{}{"status": "blocked"})

		assert.Equal(t, "blocked", query.where["status"])
		assert.Equal(t, 30, query.where["age"])
	})

	t.Run("negative limit clears", func(t *testing.T) {
		t.Parallel()

		query := newBuilderQuery(t).Limit(5).Limit(-1)
		assert.Nil(t, query.limit)

		query = newBuilderQuery(t).Offset(5).Offset(-1)
		assert.Nil(t, query.offset)
	})
}

func TestQuery_Clone(t *testing.T) {
	t.Parallel()

	query := newBuilderQuery(t)
	query.Select("id").Where(map[string]interface{}{"status": "active"}).Limit(10).Offset(5)
	query.pagination = &Pagination{TotalCount: 99}

	cloned := query.clone()

	// Filter state copies; the pagination block does not carry over.
	assert.Equal(t, query.selects, cloned.selects)
	assert.Equal(t, query.where, cloned.where)
	assert.Equal(t, *query.limit, *cloned.limit)
	assert.Equal(t, *query.offset, *cloned.offset)
	assert.Nil(t, cloned.pagination)
	assert.False(t, cloned.subquery)

	// Mutating the clone leaves the original untouched.
	cloned.Where(map[string]interface{}{"status": "blocked"}).Limit(1)
	assert.Equal(t, "active", query.where["status"])
	assert.Equal(t, 10, *query.limit)
}

func TestQuery_AsSubquery(t *testing.T) {
	t.Parallel()

	query := newBuilderQuery(t)
	probe := query.asSubquery()

	assert.True(t, probe.subquery)
	assert.False(t, query.subquery)

	// A count probe without a cached pagination block answers zero
	// without touching the network; the client base URL here does not
	// resolve, so any request would fail the test.
	count, err := probe.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestSchema_WithDefaults(t *testing.T) {
	t.Parallel()

	schema := &Schema{
		APIURL:   "https://api.example.com",
		Resource: "/users/",
	}

	full := schema.withDefaults()

	assert.Equal(t, "id", full.PrimaryKey)
	assert.Equal(t, "limit", full.LimitParam)
	assert.Equal(t, "offset", full.OffsetParam)
	assert.Equal(t, "fields", full.FieldsParam)
	assert.Equal(t, "application/json", full.ContentType)
	assert.Equal(t, "users", full.Resource)
	assert.Equal(t, DefaultPaginationKeys(), full.PaginationKeys)

	// The caller's schema is untouched.
	assert.Empty(t, schema.PrimaryKey)

	t.Run("partial pagination keys merge", func(t *testing.T) {
		t.Parallel()

		custom := (&Schema{
			APIURL:         "https://api.example.com",
			Resource:       "users",
			PaginationKeys: map[string]string{PaginationTotalCount: "total"},
		}).withDefaults()

		assert.Equal(t, "total", custom.PaginationKeys[PaginationTotalCount])
		assert.Equal(t, "Link", custom.PaginationKeys[PaginationLinks])
	})
}
