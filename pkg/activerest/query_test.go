package activerest_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/activerest-io/activerest/pkg/activerest"
)

func newTestClient(t *testing.T, baseURL string) *activerest.Client {
	t.Helper()

	client, err := activerest.New(&activerest.Config{BaseURL: baseURL})
	require.NoError(t, err)

	return client
}

func newUsersQuery(t *testing.T, baseURL string, schema *activerest.Schema) *activerest.Query[*activerest.Model] {
	t.Helper()

	if schema == nil {
		schema = &activerest.Schema{Resource: "users"}
	}

	query, err := activerest.ModelQuery(newTestClient(t, baseURL), schema)
	require.NoError(t, err)

	return query
}

func TestNewQuery_Validation(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, "https://api.example.com")

	t.Run("nil client", func(t *testing.T) {
		t.Parallel()

		_, err := activerest.ModelQuery(nil, &activerest.Schema{Resource: "users"})
		require.ErrorIs(t, err, activerest.ErrClientRequired)
	})

	t.Run("nil schema", func(t *testing.T) {
		t.Parallel()

		_, err := activerest.ModelQuery(client, nil)
		require.ErrorIs(t, err, activerest.ErrSchemaRequired)
	})

	t.Run("nil factory", func(t *testing.T) {
		t.Parallel()

		_, err := activerest.NewQuery[*activerest.Model](client, &activerest.Schema{Resource: "users"}, nil)
		require.ErrorIs(t, err, activerest.ErrRecordFactoryRequired)
	})

	t.Run("missing resource", func(t *testing.T) {
		t.Parallel()

		_, err := activerest.ModelQuery(client, &activerest.Schema{})
		require.Error(t, err)
	})

	t.Run("unknown canonical pagination key", func(t *testing.T) {
		t.Parallel()

		_, err := activerest.ModelQuery(client, &activerest.Schema{
			Resource:       "users",
			PaginationKeys: map[string]string{"pageTotal": "X-Total"},
		})
		require.Error(t, err)
	})

	t.Run("schema APIURL overrides client base", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "/v2/users", request.URL.Path)
			writer.Header().Set("Content-Type", "application/json")
			_, _ = writer.Write([]byte(`[]`))
		}))
		defer server.Close()

		query := newUsersQuery(t, "https://unused.invalid", &activerest.Schema{
			APIURL:   server.URL + "/v2",
			Resource: "users",
		})

		_, err := query.All(context.Background())
		require.NoError(t, err)
	})
}

func TestQuery_All(t *testing.T) {
	t.Parallel()

	t.Run("bare array", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "/users", request.URL.Path)
			writer.Header().Set("Content-Type", "application/json")
			_, _ = writer.Write([]byte(`[{"id": 1, "name": "alice"}, {"id": 2, "name": "bob"}]`))
		}))
		defer server.Close()

		query := newUsersQuery(t, server.URL, nil)

		records, err := query.All(context.Background())
		require.NoError(t, err)
		require.Len(t, records, 2)

		// Integral JSON numbers decode as int, so identities stay intact.
		assert.Equal(t, 1, records[0].ID())
		assert.Equal(t, 2, records[1].ID())
		assert.Equal(t, "alice", records[0].Attribute("name"))
		assert.Nil(t, query.Pagination())
	})

	t.Run("enveloped collection with pagination", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.Header().Set("Content-Type", "application/json")
			_, _ = writer.Write([]byte(`{
				"items": [{"id": 1}, {"id": 2}],
				"_meta": {"totalCount": "42", "pageCount": 21, "currentPage": 1, "perPage": 2}
			}`))
		}))
		defer server.Close()

		query := newUsersQuery(t, server.URL, &activerest.Schema{
			Resource:           "users",
			CollectionEnvelope: "items",
			PaginationEnvelope: "_meta",
			PaginationKeys: map[string]string{
				activerest.PaginationTotalCount:   "totalCount",
				activerest.PaginationPageCount:    "pageCount",
				activerest.PaginationCurrentPage:  "currentPage",
				activerest.PaginationPerPageCount: "perPage",
			},
		})

		records, err := query.All(context.Background())
		require.NoError(t, err)
		assert.Len(t, records, 2)

		page := query.Pagination()
		require.NotNil(t, page)
		assert.Equal(t, 42, page.TotalCount)
		assert.Equal(t, 21, page.PageCount)
		assert.Equal(t, 1, page.CurrentPage)
		assert.Equal(t, 2, page.PerPage)
	})

	t.Run("missing envelope field yields empty collection", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.Header().Set("Content-Type", "application/json")
			_, _ = writer.Write([]byte(`{"unexpected": true}`))
		}))
		defer server.Close()

		query := newUsersQuery(t, server.URL, &activerest.Schema{
			Resource:           "users",
			CollectionEnvelope: "items",
		})

		records, err := query.All(context.Background())
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("filter state on the wire", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			params := request.URL.Query()
			assert.Equal(t, "active", params.Get("status"))
			assert.Equal(t, "30", params.Get("age"))
			assert.Equal(t, "id,name", params.Get("fields"))
			assert.Equal(t, "2", params.Get("limit"))
			assert.Equal(t, "4", params.Get("offset"))

			writer.Header().Set("Content-Type", "application/json")
			_, _ = writer.Write([]byte(`[]`))
		}))
		defer server.Close()

		query := newUsersQuery(t, server.URL, nil)

		_, err := query.
			Where(map[string]interface{}{"status": "active", "age": "30"}).
			Select("id", "name").
			Limit(2).
			Offset(4).
			All(context.Background())
		require.NoError(t, err)
	})

	t.Run("unsupported condition fails before any request", func(t *testing.T) {
		t.Parallel()

		var requests atomic.Int64

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			requests.Add(1)
		}))
		defer server.Close()

		query := newUsersQuery(t, server.URL, nil)

		_, err := query.Where(map[string]interface{}{"ids": []int{1, 2}}).All(context.Background())
		require.ErrorIs(t, err, activerest.ErrUnsupportedConditionValue)
		assert.Zero(t, requests.Load())
	})

	t.Run("server error becomes HTTPError", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.Header().Set("Content-Type", "application/json")
			writer.WriteHeader(http.StatusInternalServerError)
			_, _ = writer.Write([]byte(`{"message": "database exploded"}`))
		}))
		defer server.Close()

		query := newUsersQuery(t, server.URL, nil)

		_, err := query.All(context.Background())
		require.Error(t, err)
		assert.True(t, activerest.IsHTTPError(err))
		assert.Equal(t, 500, activerest.HTTPStatus(err))
		assert.Contains(t, err.Error(), "database exploded")
	})

	t.Run("unreachable server becomes TransportError", func(t *testing.T) {
		t.Parallel()

		query := newUsersQuery(t, "http://127.0.0.1:1", nil)

		_, err := query.All(context.Background())
		require.Error(t, err)
		assert.True(t, activerest.IsTransportError(err))
		assert.Contains(t, err.Error(), "server unreachable at")
	})
}

func TestQuery_One(t *testing.T) {
	t.Parallel()

	t.Run("fetches element by id", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "/users/5", request.URL.Path)
			writer.Header().Set("Content-Type", "application/json")
			_, _ = writer.Write([]byte(`{"id": 5, "name": "alice"}`))
		}))
		defer server.Close()

		query := newUsersQuery(t, server.URL, nil)

		record, err := query.One(context.Background(), 5)
		require.NoError(t, err)
		assert.Equal(t, 5, record.ID())
		assert.Equal(t, "alice", record.Attribute("name"))
	})

	t.Run("filter conditions fail before any request", func(t *testing.T) {
		t.Parallel()

		var requests atomic.Int64

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			requests.Add(1)
		}))
		defer server.Close()

		query := newUsersQuery(t, server.URL, nil)

		_, err := query.Where(map[string]interface{}{"status": "active"}).One(context.Background(), 5)
		require.ErrorIs(t, err, activerest.ErrFilteredElementFetch)
		assert.Zero(t, requests.Load())
	})

	t.Run("missing element", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.Header().Set("Content-Type", "application/json")
			writer.WriteHeader(http.StatusNotFound)
			_, _ = writer.Write([]byte(`{"message": "no such user"}`))
		}))
		defer server.Close()

		query := newUsersQuery(t, server.URL, nil)

		_, err := query.One(context.Background(), 999)
		require.Error(t, err)
		assert.True(t, activerest.IsNotFound(err))
	})
}

func TestQuery_Create(t *testing.T) {
	t.Parallel()

	t.Run("posts attributes and merges response", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, http.MethodPost, request.Method)
			assert.Equal(t, "/users", request.URL.Path)

			var body map[string]interface{}

			require.NoError(t, json.NewDecoder(request.Body).Decode(&body))
			assert.Equal(t, "alice", body["name"])

			writer.Header().Set("Content-Type", "application/json")
			writer.WriteHeader(http.StatusCreated)
			_, _ = writer.Write([]byte(`{"id": 7, "name": "alice", "created_at": "2026-01-01"}`))
		}))
		defer server.Close()

		query := newUsersQuery(t, server.URL, nil)
		record := activerest.NewModelWith(map[string]interface{}{"name": "alice"})

		created, err := query.Create(context.Background(), record)
		require.NoError(t, err)
		assert.Equal(t, 7, created.ID())
		assert.Equal(t, "2026-01-01", created.Attribute("created_at"))

		// The supplied record is the one populated.
		assert.Same(t, record, created)
	})

	t.Run("validation failure attaches to the record", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.Header().Set("Content-Type", "application/json")
			writer.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = writer.Write([]byte(`[{"field": "email", "message": "is invalid"}]`))
		}))
		defer server.Close()

		query := newUsersQuery(t, server.URL, nil)
		record := activerest.NewModelWith(map[string]interface{}{"email": "not-an-email"})

		created, err := query.Create(context.Background(), record)
		require.NoError(t, err)
		assert.True(t, created.HasErrors())
		assert.Equal(t, []string{"is invalid"}, created.Errors()["email"])
	})

	t.Run("multi-error 422 is not recoverable", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.Header().Set("Content-Type", "application/json")
			writer.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = writer.Write([]byte(`[{"field": "email", "message": "is invalid"}, {"field": "name", "message": "is required"}]`))
		}))
		defer server.Close()

		query := newUsersQuery(t, server.URL, nil)

		_, err := query.Create(context.Background(), activerest.NewModel())
		require.Error(t, err)
		assert.Equal(t, 422, activerest.HTTPStatus(err))
	})
}

func TestQuery_Update(t *testing.T) {
	t.Parallel()

	t.Run("puts to the element URL", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, http.MethodPut, request.Method)
			assert.Equal(t, "/users/7", request.URL.Path)

			writer.Header().Set("Content-Type", "application/json")
			_, _ = writer.Write([]byte(`{"id": 7, "name": "alice2"}`))
		}))
		defer server.Close()

		query := newUsersQuery(t, server.URL, nil)
		record := activerest.NewModelWith(map[string]interface{}{"id": 7, "name": "alice2"})

		updated, err := query.Update(context.Background(), record)
		require.NoError(t, err)
		assert.Equal(t, "alice2", updated.Attribute("name"))
	})

	t.Run("requires a primary key", func(t *testing.T) {
		t.Parallel()

		query := newUsersQuery(t, "https://api.example.com", nil)

		_, err := query.Update(context.Background(), activerest.NewModelWith(map[string]interface{}{"name": "alice"}))
		require.ErrorIs(t, err, activerest.ErrMissingPrimaryKey)
	})

	t.Run("custom primary key", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "/users/u-99", request.URL.Path)
			writer.Header().Set("Content-Type", "application/json")
			_, _ = writer.Write([]byte(`{"uuid": "u-99"}`))
		}))
		defer server.Close()

		query := newUsersQuery(t, server.URL, &activerest.Schema{Resource: "users", PrimaryKey: "uuid"})
		record := activerest.NewModelWith(map[string]interface{}{"uuid": "u-99"})

		_, err := query.Update(context.Background(), record)
		require.NoError(t, err)
	})
}

func TestQuery_Delete(t *testing.T) {
	t.Parallel()

	t.Run("204 reports success", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, http.MethodDelete, request.Method)
			assert.Equal(t, "/users/7", request.URL.Path)
			writer.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		query := newUsersQuery(t, server.URL, nil)

		deleted, err := query.Delete(context.Background(), activerest.NewModelWith(map[string]interface{}{"id": 7}))
		require.NoError(t, err)
		assert.True(t, deleted)
	})

	t.Run("other statuses report failure without error", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		query := newUsersQuery(t, server.URL, nil)

		deleted, err := query.Delete(context.Background(), activerest.NewModelWith(map[string]interface{}{"id": 7}))
		require.NoError(t, err)
		assert.False(t, deleted)
	})

	t.Run("requires a primary key", func(t *testing.T) {
		t.Parallel()

		query := newUsersQuery(t, "https://api.example.com", nil)

		_, err := query.Delete(context.Background(), activerest.NewModel())
		require.ErrorIs(t, err, activerest.ErrMissingPrimaryKey)
	})
}

func TestQuery_Count(t *testing.T) {
	t.Parallel()

	t.Run("cached pagination answers without a request", func(t *testing.T) {
		t.Parallel()

		var requests atomic.Int64

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			requests.Add(1)
			writer.Header().Set("Content-Type", "application/json")
			_, _ = writer.Write([]byte(`{"items": [{"id": 1}], "_meta": {"totalCount": 42}}`))
		}))
		defer server.Close()

		query := newUsersQuery(t, server.URL, &activerest.Schema{
			Resource:           "users",
			CollectionEnvelope: "items",
			PaginationEnvelope: "_meta",
			PaginationKeys:     map[string]string{activerest.PaginationTotalCount: "totalCount"},
		})

		_, err := query.All(context.Background())
		require.NoError(t, err)
		require.Equal(t, int64(1), requests.Load())

		count, err := query.Count(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 42, count)
		assert.Equal(t, int64(1), requests.Load())
	})

	t.Run("HEAD header answers with one request", func(t *testing.T) {
		t.Parallel()

		var requests atomic.Int64

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			requests.Add(1)
			assert.Equal(t, http.MethodHead, request.Method)
			assert.Equal(t, "active", request.URL.Query().Get("status"))

			writer.Header().Set("X-Pagination-Total-Count", "7")
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		query := newUsersQuery(t, server.URL, nil)

		count, err := query.Where(map[string]interface{}{"status": "active"}).Count(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 7, count)
		assert.Equal(t, int64(1), requests.Load())
	})

	t.Run("falls back to a one-element probe", func(t *testing.T) {
		t.Parallel()

		var (
			heads atomic.Int64
			gets  atomic.Int64
		)

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if request.Method == http.MethodHead {
				heads.Add(1)
				writer.WriteHeader(http.StatusOK)

				return
			}

			gets.Add(1)
			assert.Equal(t, "1", request.URL.Query().Get("limit"))
			assert.Equal(t, "0", request.URL.Query().Get("offset"))

			writer.Header().Set("Content-Type", "application/json")
			_, _ = writer.Write([]byte(`{"items": [{"id": 1}], "_meta": {"totalCount": "13"}}`))
		}))
		defer server.Close()

		query := newUsersQuery(t, server.URL, &activerest.Schema{
			Resource:           "users",
			CollectionEnvelope: "items",
			PaginationEnvelope: "_meta",
			PaginationKeys:     map[string]string{activerest.PaginationTotalCount: "totalCount"},
		})

		count, err := query.Count(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 13, count)
		assert.Equal(t, int64(1), heads.Load())
		assert.Equal(t, int64(1), gets.Load())
	})

	t.Run("no header and no envelope yields zero", func(t *testing.T) {
		t.Parallel()

		var requests atomic.Int64

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			requests.Add(1)
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		query := newUsersQuery(t, server.URL, nil)

		count, err := query.Count(context.Background())
		require.NoError(t, err)
		assert.Zero(t, count)
		assert.Equal(t, int64(1), requests.Load())
	})

	t.Run("probe without pagination block yields zero", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if request.Method == http.MethodHead {
				writer.WriteHeader(http.StatusOK)

				return
			}

			writer.Header().Set("Content-Type", "application/json")
			_, _ = writer.Write([]byte(`{"items": []}`))
		}))
		defer server.Close()

		query := newUsersQuery(t, server.URL, &activerest.Schema{
			Resource:           "users",
			CollectionEnvelope: "items",
			PaginationEnvelope: "_meta",
		})

		count, err := query.Count(context.Background())
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}
