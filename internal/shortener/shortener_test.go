package shortener

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
)

const longURL = "https://t.me/somebot?start=ZmlsZV9hYmM="

func discardLogger() *log.Logger { return log.New(io.Discard) }

func TestDisabledPassesThrough(t *testing.T) {
	s := New(false, "tinyurl.com", "", discardLogger())
	assert.Equal(t, longURL, s.Shorten(context.Background(), longURL))
}

func TestUnsupportedSiteFallsBack(t *testing.T) {
	s := New(true, "example.invalid", "", discardLogger())
	assert.Equal(t, longURL, s.Shorten(context.Background(), longURL))
}

func TestMissingKeyFallsBack(t *testing.T) {
	s := New(true, "bit.ly", "", discardLogger())
	assert.Equal(t, longURL, s.Shorten(context.Background(), longURL))
}

func TestSimpleGetSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, longURL, r.URL.Query().Get("url"))
		io.WriteString(w, "https://tinyurl.com/abc123\n")
	}))
	defer srv.Close()

	s := New(true, "tinyurl.com", "", discardLogger())
	s.sites["tinyurl.com"] = site{endpoint: srv.URL}

	assert.Equal(t, "https://tinyurl.com/abc123", s.Shorten(context.Background(), longURL))
}

func TestNonURLBodyFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, "Error: invalid request")
	}))
	defer srv.Close()

	s := New(true, "is.gd", "", discardLogger())
	s.sites["is.gd"] = site{endpoint: srv.URL}

	assert.Equal(t, longURL, s.Shorten(context.Background(), longURL))
}

func TestServerErrorFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	s := New(true, "v.gd", "", discardLogger())
	s.sites["v.gd"] = site{endpoint: srv.URL}

	assert.Equal(t, longURL, s.Shorten(context.Background(), longURL))
}

func TestBitlySuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		io.WriteString(w, `{"link":"https://bit.ly/xyz"}`)
	}))
	defer srv.Close()

	s := New(true, "bit.ly", "secret", discardLogger())
	s.sites["bit.ly"] = site{endpoint: srv.URL, requiresKey: true}

	assert.Equal(t, "https://bit.ly/xyz", s.Shorten(context.Background(), longURL))
}

func TestCuttlyRejectedStatusFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, `{"url":{"status":3}}`)
	}))
	defer srv.Close()

	s := New(true, "cutt.ly", "secret", discardLogger())
	s.sites["cutt.ly"] = site{endpoint: srv.URL, requiresKey: true}

	assert.Equal(t, longURL, s.Shorten(context.Background(), longURL))
}

func TestUnreachableServiceFallsBack(t *testing.T) {
	s := New(true, "tinyurl.com", "", discardLogger())
	s.sites["tinyurl.com"] = site{endpoint: "http://127.0.0.1:1"}

	assert.Equal(t, longURL, s.Shorten(context.Background(), longURL))
}
