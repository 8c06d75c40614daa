package fetcher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"feedfilter/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHTTPFetcher_Fetch_Success(t *testing.T) {
	var gotUA string
	testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.UserAgent()
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("test response data"))
	}))
	defer testServer.Close()
	fetcher := NewHTTPFetcher(discardLogger(), "", 0)

	data, err := fetcher.Fetch(context.Background(), testServer.URL)

	require.NoError(t, err)
	assert.Equal(t, "test response data", string(data))
	assert.Equal(t, DefaultUserAgent, gotUA)
}

func TestHTTPFetcher_Fetch_AcceptsAny2xx(t *testing.T) {
	testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNonAuthoritativeInfo)
		w.Write([]byte("ok"))
	}))
	defer testServer.Close()
	fetcher := NewHTTPFetcher(discardLogger(), "custom-agent", time.Second)

	data, err := fetcher.Fetch(context.Background(), testServer.URL)

	require.NoError(t, err)
	assert.Equal(t, "ok", string(data))
}

func TestHTTPFetcher_Fetch_NotFound(t *testing.T) {
	testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer testServer.Close()
	fetcher := NewHTTPFetcher(discardLogger(), "", 0)

	data, err := fetcher.Fetch(context.Background(), testServer.URL)

	require.Error(t, err)
	var statusErr *domain.UpstreamStatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.Contains(t, err.Error(), "HTTP 404")
	assert.Nil(t, data)
}

func TestHTTPFetcher_InvalidURL(t *testing.T) {
	fetcher := NewHTTPFetcher(discardLogger(), "", 0)

	data, err := fetcher.Fetch(context.Background(), "invalid://url")

	require.Error(t, err)
	var transportErr *domain.TransportError
	assert.True(t, errors.As(err, &transportErr))
	assert.Nil(t, data)
}

func TestHTTPFetcher_ContextCancelled(t *testing.T) {
	testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("slow response"))
	}))
	defer testServer.Close()
	fetcher := NewHTTPFetcher(discardLogger(), "", 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	data, err := fetcher.Fetch(ctx, testServer.URL)

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Nil(t, data)
}

func TestHTTPFetcher_Timeout(t *testing.T) {
	release := make(chan struct{})
	testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer testServer.Close()
	defer close(release)
	fetcher := NewHTTPFetcher(discardLogger(), "", 50*time.Millisecond)

	_, err := fetcher.Fetch(context.Background(), testServer.URL)

	var transportErr *domain.TransportError
	require.True(t, errors.As(err, &transportErr))
}
