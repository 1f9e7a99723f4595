package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	Name string `json:"name"`
}

func TestCallDecodesEnvelopeAndQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/items", r.URL.Path)
		assert.Equal(t, "7", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`{"success":true,"data":{"name":"a"},"message":"ok"}`))
	}))
	defer srv.Close()

	c := New(srv.URL + "/")
	env, err := Call[item](context.Background(), c, "/items", Options{Query: url.Values{"limit": {"7"}}})
	require.NoError(t, err)
	assert.True(t, env.Success)
	assert.Equal(t, "a", env.Data.Name)
	assert.Equal(t, "ok", env.Message)
	assert.Equal(t, http.StatusOK, env.Status)
}

func TestCallSendsJSONBodyAndToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var in item
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "b", in.Name)

		if r.Header.Get("Authorization") == "" {
			w.Header().Set("X-Session-Token", "tok")
		} else {
			assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		}
		_, _ = w.Write([]byte(`{"success":true,"data":{"name":"b"}}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	for i := 0; i < 2; i++ {
		got, err := Do[item](context.Background(), c, "/", Options{Method: http.MethodPost, Body: item{Name: "b"}})
		require.NoError(t, err)
		assert.Equal(t, "b", got.Name)
	}
	assert.Equal(t, "tok", c.Token())
}

func TestCallMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		b, _ := io.ReadAll(f)
		assert.Equal(t, "bytes", string(b))
		assert.Equal(t, "a.webm", hdr.Filename)
		assert.Equal(t, "u1", r.FormValue("userId"))
		_, _ = w.Write([]byte(`{"success":true,"data":{"name":"saved"}}`))
	}))
	defer srv.Close()

	got, err := Do[item](context.Background(), New(srv.URL), "/", Options{
		Method: http.MethodPost,
		Fields: map[string]string{"userId": "u1"},
		File:   &File{Field: "file", Name: "a.webm", Reader: strings.NewReader("bytes")},
	})
	require.NoError(t, err)
	assert.Equal(t, "saved", got.Name)
}

func TestResultFoldsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"success":false,"error":"User not found"}`))
		case "/broken":
			_, _ = w.Write([]byte(`<html>`))
		default:
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"success":false,"error":"Amount mismatch"}`))
		}
	}))
	c := New(srv.URL)
	ctx := context.Background()

	_, err := Do[item](ctx, c, "/missing", Options{})
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, "User not found (status 404)", err.Error())

	_, err = Do[item](ctx, c, "/bad", Options{})
	var ge *Error
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, http.StatusBadRequest, ge.Status)
	assert.Equal(t, "Amount mismatch", ge.Message)
	assert.False(t, IsNotFound(err))

	_, err = Do[item](ctx, c, "/broken", Options{})
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, http.StatusOK, ge.Status)

	srv.Close()
	_, err = Do[item](ctx, c, "/gone", Options{})
	require.ErrorAs(t, err, &ge)
	assert.Zero(t, ge.Status)
}
