package notion

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(baseURL string) *Client {
	return NewClient(ClientOptions{
		BaseURL:    baseURL,
		APIKey:     "secret-key",
		DatabaseID: "db123",
		BaseDelay:  time.Millisecond,
		MaxDelay:   2 * time.Millisecond,
	})
}

func TestQueryPages_RequestAndResponse(t *testing.T) {
	var gotPath, gotMethod string
	var gotHeader http.Header
	var gotBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		gotHeader = r.Header.Clone()
		_ = json.NewDecoder(r.Body).Decode(&gotBody)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"results": [
				{"id": "page-1", "properties": {"Event ID": {"rich_text": [{"text": {"content": "evt-1"}}]}}},
				{"id": "page-2", "properties": {"Event ID": {"rich_text": []}}}
			],
			"has_more": true,
			"next_cursor": "cursor-2"
		}`))
	}))
	defer server.Close()

	result, err := testClient(server.URL).QueryPages(context.Background(), "cursor-1", 50)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/v1/databases/db123/query", gotPath)
	assert.Equal(t, "Bearer secret-key", gotHeader.Get("Authorization"))
	assert.Equal(t, "2022-06-28", gotHeader.Get("Notion-Version"))
	assert.Equal(t, float64(50), gotBody["page_size"])
	assert.Equal(t, "cursor-1", gotBody["start_cursor"])

	require.Len(t, result.Pages, 2)
	assert.Equal(t, "page-1", result.Pages[0].ID)
	assert.Equal(t, "evt-1", result.Pages[0].RichTextContent(PropEventID))
	assert.Empty(t, result.Pages[1].RichTextContent(PropEventID))
	assert.True(t, result.HasMore)
	assert.Equal(t, "cursor-2", result.NextCursor)
}

func TestQueryPages_FirstRequestOmitsCursor(t *testing.T) {
	var gotBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"results": [], "has_more": false, "next_cursor": null}`))
	}))
	defer server.Close()

	result, err := testClient(server.URL).QueryPages(context.Background(), "", 0)
	require.NoError(t, err)

	_, hasCursor := gotBody["start_cursor"]
	assert.False(t, hasCursor, "first request must not send a start_cursor")
	assert.Equal(t, float64(100), gotBody["page_size"], "page size defaults to 100")
	assert.False(t, result.HasMore)
	assert.Empty(t, result.NextCursor)
}

func TestCreatePage_SendsParentAndReturnsID(t *testing.T) {
	var gotBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"id": "page-9"}`))
	}))
	defer server.Close()

	id, err := testClient(server.URL).CreatePage(context.Background(), Properties{
		PropName: TitleProperty("Standup"),
	})
	require.NoError(t, err)
	assert.Equal(t, "page-9", id)

	parent, ok := gotBody["parent"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "db123", parent["database_id"])
	assert.Contains(t, gotBody, "properties")
}

func TestArchivePage_SendsArchivedFlagOnly(t *testing.T) {
	var gotPath, gotMethod string
	var gotBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"id": "page-1", "archived": true}`))
	}))
	defer server.Close()

	err := testClient(server.URL).ArchivePage(context.Background(), "page-1")
	require.NoError(t, err)

	assert.Equal(t, http.MethodPatch, gotMethod)
	assert.Equal(t, "/v1/pages/page-1", gotPath)
	assert.Equal(t, true, gotBody["archived"])
	assert.NotContains(t, gotBody, "properties")
}

func TestDoJSON_RetriesOn429(t *testing.T) {
	var calls int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"code": "rate_limited", "message": "slow down"}`))
			return
		}
		_, _ = w.Write([]byte(`{"id": "page-9"}`))
	}))
	defer server.Close()

	id, err := testClient(server.URL).CreatePage(context.Background(), Properties{})
	require.NoError(t, err)
	assert.Equal(t, "page-9", id)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestDoJSON_ExhaustsRetriesOnServerError(t *testing.T) {
	var calls int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"code": "internal_server_error", "message": "something went wrong"}`))
	}))
	defer server.Close()

	client := NewClient(ClientOptions{
		BaseURL:    server.URL,
		APIKey:     "secret-key",
		DatabaseID: "db123",
		MaxRetries: 2,
		BaseDelay:  time.Millisecond,
		MaxDelay:   2 * time.Millisecond,
	})

	err := client.UpdatePage(context.Background(), "page-1", Properties{PropName: TitleProperty("x")})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "internal_server_error", apiErr.Code)
	assert.Equal(t, "something went wrong", apiErr.Message)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls), "initial attempt plus two retries")
}

func TestDoJSON_FailsFastOnClientError(t *testing.T) {
	var calls int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code": "validation_error", "message": "body failed validation"}`))
	}))
	defer server.Close()

	_, err := testClient(server.URL).QueryPages(context.Background(), "", 100)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "validation_error", apiErr.Code)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls), "4xx responses are not retried")
}
