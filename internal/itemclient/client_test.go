package itemclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"duallist/internal/domain"
)

func TestListItemsSendsQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/items", r.URL.Path)
		assert.Equal(t, "4", r.URL.Query().Get("filter"))
		assert.Equal(t, "20", r.URL.Query().Get("offset"))
		assert.Equal(t, "20", r.URL.Query().Get("limit"))
		w.Write([]byte(`{"items":[{"id":4},{"id":14}],"total":45}`))
	}))
	defer srv.Close()

	c := New(srv.URL+"/", time.Second)
	page, err := c.ListItems(context.Background(), domain.PageRequest{Filter: "4", Offset: 20, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, domain.Page{Items: []domain.Item{{ID: 4}, {ID: 14}}, Total: 45}, page)
}

func TestListSelectedOmitsFilter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/selected", r.URL.Path)
		_, hasFilter := r.URL.Query()["filter"]
		assert.False(t, hasFilter)
		w.Write([]byte(`{"items":null,"total":0}`))
	}))
	defer srv.Close()

	page, err := New(srv.URL, time.Second).ListSelected(context.Background(), domain.PageRequest{Limit: 20})
	require.NoError(t, err)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
}

func TestMutationBodies(t *testing.T) {
	var got []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		raw, _ := json.Marshal(body)
		got = append(got, r.URL.Path+" "+string(raw))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	ctx := context.Background()
	require.NoError(t, c.Select(ctx, 7))
	require.NoError(t, c.Add(ctx, 42))
	require.NoError(t, c.Reorder(ctx, []int{9, 5, 7}))
	require.NoError(t, c.Reorder(ctx, nil))

	assert.Equal(t, []string{
		`/select {"id":7}`,
		`/add {"id":42}`,
		`/reorder {"newOrder":[9,5,7]}`,
		`/reorder {"newOrder":[]}`,
	}, got)
}

func TestConflictAndRequestErrors(t *testing.T) {
	status := http.StatusConflict
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write([]byte(`{"error":"nope"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)

	err := c.Add(context.Background(), 42)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConflict))

	status = http.StatusInternalServerError
	err = c.Add(context.Background(), 42)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrConflict))
	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, http.StatusInternalServerError, reqErr.StatusCode)
	assert.Contains(t, reqErr.Error(), "nope")
}

func TestTransportErrorIsNotRetriedForMutations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := New(url, time.Second)
	c.Retries = 3
	err := c.Select(context.Background(), 1)
	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.Equal(t, "/select", transportErr.Path)
}

func TestGetRetriesTransportFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			// drop the connection without a response
			hj, ok := w.(http.Hijacker)
			require.True(t, ok)
			conn, _, err := hj.Hijack()
			require.NoError(t, err)
			conn.Close()
			return
		}
		w.Write([]byte(`{"items":[{"id":1}],"total":1}`))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	c.Retries = 2
	c.RetryDelay = time.Millisecond

	page, err := c.ListSelected(context.Background(), domain.PageRequest{Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGetDoesNotRetryHTTPErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	c.Retries = 5
	_, err := c.ListItems(context.Background(), domain.PageRequest{Limit: 20})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}
