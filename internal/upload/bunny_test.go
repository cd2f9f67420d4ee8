package upload

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBunnyUpload(t *testing.T) {
	var req *http.Request
	var body []byte
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req = r
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"HttpCode":201,"Message":"File uploaded."}`))
	}))
	defer ts.Close()

	backend := NewBunnyBackend(BunnyOpts{
		StorageZone: "my-zone",
		AccessKey:   "secret",
		CDNHostname: "cdn.example.net",
		BaseURL:     ts.URL,
	})

	uploadReq := NewRequest("cat.png", []byte("PNGDATA"), "img", time.Now())
	result, err := backend.Upload(context.Background(), uploadReq)
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example.net/img/cat.png", result.URL)
	assert.Equal(t, "img/cat.png", result.Key)
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/my-zone/img/cat.png", req.URL.Path)
	assert.Equal(t, "secret", req.Header.Get("AccessKey"))
	assert.Equal(t, "application/octet-stream", req.Header.Get("Content-Type"))
	assert.Equal(t, []byte("PNGDATA"), body)
}

func TestBunnyUploadTransferError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"HttpCode":401,"Message":"Unauthorized"}`))
	}))
	defer ts.Close()

	backend := NewBunnyBackend(BunnyOpts{StorageZone: "z", AccessKey: "bad", CDNHostname: "cdn", BaseURL: ts.URL})
	_, err := backend.Upload(context.Background(), NewRequest("a.png", []byte("x"), "", time.Now()))

	var transferErr *TransferError
	require.True(t, errors.As(err, &transferErr))
	assert.Equal(t, http.StatusUnauthorized, transferErr.StatusCode)
	assert.Contains(t, transferErr.Message, "Unauthorized")
	assert.Contains(t, err.Error(), "(401)")
}

func TestBunnyUploadNetworkError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close()

	backend := NewBunnyBackend(BunnyOpts{StorageZone: "z", BaseURL: url, Timeout: time.Second})
	_, err := backend.Upload(context.Background(), NewRequest("a.png", []byte("x"), "", time.Now()))
	assert.Error(t, err)

	var transferErr *TransferError
	assert.False(t, errors.As(err, &transferErr))
}

func TestBunnyPublicURLDefaults(t *testing.T) {
	backend := NewBunnyBackend(BunnyOpts{StorageZone: "z", CDNHostname: "z.b-cdn.net"})
	assert.Equal(t, "https://z.b-cdn.net/a/b.png", backend.PublicURL("a/b.png"))
	assert.Equal(t, "https://storage.bunnycdn.com", backend.httpClient.BaseURL)
}

func TestBunnyPing(t *testing.T) {
	var path string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}))
	defer ts.Close()

	backend := NewBunnyBackend(BunnyOpts{StorageZone: "zone", AccessKey: "k", BaseURL: ts.URL})
	require.NoError(t, backend.Ping(context.Background()))
	assert.Equal(t, "/zone/", path)
}
