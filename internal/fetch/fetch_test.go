package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSite(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/manga/chapter-1/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body><div class="entry-content">one</div></body></html>`))
	})
	mux.HandleFunc("/manga/chapter-2", func(w http.ResponseWriter, r *http.Request) {
		// the site sends unknown chapters to its catch-all page
		http.Redirect(w, r, "/manga/", http.StatusFound)
	})
	mux.HandleFunc("/manga/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body>index</body></html>`))
	})
	mux.HandleFunc("/manga/chapter-3", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	})
	mux.HandleFunc("/manga/chapter-4", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/manga/chapter-4/", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/manga/chapter-4/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`four`))
	})
	mux.HandleFunc("/manga/chapter-5", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`five`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv
}

func newFetcher() *Fetcher {
	return New(Options{UserAgent: "comicdl-test", Timeout: 5 * time.Second}, zerolog.Nop())
}

func TestFetch_OK(t *testing.T) {
	srv := newSite(t)

	// requested without the trailing slash the server would redirect, so ask
	// for the canonical form
	page, err := newFetcher().Fetch(context.Background(), srv.URL+"/manga/chapter-1/")
	require.NoError(t, err)

	assert.Contains(t, string(page.Body), "entry-content")
	assert.Equal(t, srv.URL+"/manga/chapter-1/", page.URL)
}

func TestFetch_RedirectIsNotFound(t *testing.T) {
	srv := newSite(t)

	_, err := newFetcher().Fetch(context.Background(), srv.URL+"/manga/chapter-2")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrChapterNotFound))

	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, 200, nf.StatusCode)
	assert.Equal(t, srv.URL+"/manga/", nf.FinalURL)
}

func TestFetch_StatusIsNotFound(t *testing.T) {
	srv := newSite(t)

	for _, path := range []string{"/manga/chapter-3", "/manga/chapter-5"} {
		_, err := newFetcher().Fetch(context.Background(), srv.URL+path)
		assert.True(t, errors.Is(err, ErrChapterNotFound), "path %s: %v", path, err)
	}
}

func TestFetch_TrailingSlashRedirectAccepted(t *testing.T) {
	srv := newSite(t)

	page, err := newFetcher().Fetch(context.Background(), srv.URL+"/manga/chapter-4")
	require.NoError(t, err)
	assert.Equal(t, "four", string(page.Body))
}

func TestFetch_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	_, err := newFetcher().Fetch(context.Background(), addr+"/manga/chapter-1/")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrChapterNotFound))
}

func TestFetch_CancelledContext(t *testing.T) {
	srv := newSite(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newFetcher().Fetch(ctx, srv.URL+"/manga/chapter-1/")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSameURL(t *testing.T) {
	assert.True(t, SameURL("https://example.com/a", "https://example.com/a/"))
	assert.True(t, SameURL("https://example.com/a/", "https://example.com/a"))
	assert.False(t, SameURL("https://example.com/a", "https://example.com/manga/"))
}
