package request

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientFetch(t *testing.T) {
	var gotMethod, gotQuery, gotType string
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotQuery = r.URL.RawQuery
		gotType = r.Header.Get("Content-Type")
		if data, _ := io.ReadAll(r.Body); len(data) > 0 {
			_ = json.Unmarshal(data, &gotBody)
		}
		switch r.URL.Path {
		case "/login":
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":1234}`))
		case "/broken":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", time.Second)
	out := c.Fetch(context.Background(), "/login", Options{
		Method: http.MethodPost,
		Body:   map[string]string{"username": "demo"},
	})
	require.True(t, out.OK())
	assert.Equal(t, http.StatusCreated, out.Code)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "application/json", gotType)
	assert.Equal(t, map[string]string{"username": "demo"}, gotBody)

	var user struct{ ID int }
	require.NoError(t, out.Decode(&user))
	assert.Equal(t, 1234, user.ID)

	out = c.Fetch(context.Background(), "/posts", Options{Query: map[string][]string{"id": {"1"}}})
	assert.False(t, out.OK())
	assert.Equal(t, "404", out.Status)
	assert.Equal(t, http.MethodGet, gotMethod)
	assert.Equal(t, "id=1", gotQuery)
	assert.NoError(t, out.Err)

	out = c.Fetch(context.Background(), "/broken", Options{})
	assert.Equal(t, "500", out.Status)
}

func TestClientFetchTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	out := NewClient(url, time.Second).Fetch(context.Background(), "/x", Options{})
	assert.Equal(t, StatusUnavailable, out.Status)
	assert.Error(t, out.Err)
}

func TestClientFetchCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := NewClient(srv.URL, time.Second).Fetch(ctx, "/x", Options{})
	assert.Equal(t, StatusUnavailable, out.Status)
	assert.ErrorIs(t, out.Err, context.Canceled)
}

func TestClassify(t *testing.T) {
	for _, code := range []int{200, 201, 202} {
		assert.True(t, Classify(code, nil).OK(), "%d", code)
	}
	for _, code := range []int{204, 301, 403, 404, 500} {
		assert.False(t, Classify(code, nil).OK(), "%d", code)
	}
	assert.Equal(t, "403", Classify(403, nil).Status)
}

func TestMessage(t *testing.T) {
	msgs := map[string]string{
		"404": "No posts found",
		"5":   "Error retrieving posts",
	}
	assert.Equal(t, "No posts found", Message(msgs, "404"))
	assert.Equal(t, "Error retrieving posts", Message(msgs, "503"))
	assert.Equal(t, "", Message(msgs, "403"))
	assert.Equal(t, "", Message(msgs, ""))
}

func TestDecodeErrors(t *testing.T) {
	var v map[string]any
	assert.Error(t, Outcome{}.Decode(&v))
	assert.Error(t, Outcome{Body: []byte("{")}.Decode(&v))
}

func TestHandlerFetch(t *testing.T) {
	h := Handler{http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id") == "" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		_, _ = w.Write([]byte(`{"id":7}`))
	})}

	out := h.Fetch(context.Background(), "/posts", Options{Query: map[string][]string{"id": {"7"}}})
	require.True(t, out.OK())
	assert.JSONEq(t, `{"id":7}`, string(out.Body))

	out = h.Fetch(context.Background(), "/posts", Options{})
	assert.Equal(t, "403", out.Status)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out = h.Fetch(ctx, "/posts", Options{})
	assert.Equal(t, StatusUnavailable, out.Status)
}
