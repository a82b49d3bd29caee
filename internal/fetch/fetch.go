package fetch

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"comicdl/internal/sharedhttp"

	"github.com/gocolly/colly"
	"github.com/gocolly/colly/extensions"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// ErrChapterNotFound matches every NotFoundError.
var ErrChapterNotFound = errors.New("chapter not found")

// NotFoundError means the site answered, but not with the requested chapter:
// either the status was not 200 or the request was redirected elsewhere.
type NotFoundError struct {
	URL        string
	FinalURL   string
	StatusCode int
}

func (e *NotFoundError) Error() string {
	if e.StatusCode != 200 {
		return fmt.Sprintf("chapter not found: %s returned status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("chapter not found: %s redirected to %s", e.URL, e.FinalURL)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrChapterNotFound
}

type Page struct {
	URL  string
	Body []byte
}

type Options struct {
	// UserAgent is sent with every request; empty picks a random browser user agent.
	UserAgent string
	Timeout   time.Duration
}

type Fetcher struct {
	Collector *colly.Collector
	userAgent string
	log       zerolog.Logger
}

func New(opts Options, log zerolog.Logger) *Fetcher {
	collector := colly.NewCollector(
		colly.AllowURLRevisit(),
	)
	collector.ParseHTTPErrorResponse = true
	collector.WithTransport(sharedhttp.Transport)

	if opts.Timeout > 0 {
		collector.SetRequestTimeout(opts.Timeout)
	}
	if opts.UserAgent != "" {
		collector.UserAgent = opts.UserAgent
	}

	return &Fetcher{
		Collector: collector,
		userAgent: opts.UserAgent,
		log:       log,
	}
}

// Fetch retrieves the chapter page at pageURL. Redirects are followed; the
// page is only accepted when the status is 200 and the final URL equals
// pageURL, ignoring a trailing slash. Otherwise a *NotFoundError is returned.
// Any other error is a network failure.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (Page, error) {
	if err := ctx.Err(); err != nil {
		return Page{}, err
	}

	c := f.Collector.Clone()
	if f.userAgent == "" {
		extensions.RandomUserAgent(c)
	}

	var (
		statusCode int
		finalURL   string
		body       []byte
	)

	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
		}
	})

	c.OnResponse(func(r *colly.Response) {
		statusCode = r.StatusCode
		finalURL = r.Request.URL.String()
		body = r.Body
	})

	f.log.Debug().Str("url", pageURL).Msg("fetching chapter page")

	if err := c.Visit(pageURL); err != nil {
		return Page{}, errors.Wrapf(err, "could not fetch %s", pageURL)
	}

	if err := ctx.Err(); err != nil {
		return Page{}, err
	}

	if statusCode == 0 {
		return Page{}, fmt.Errorf("could not fetch %s: no response received", pageURL)
	}

	if statusCode != 200 || !SameURL(pageURL, finalURL) {
		return Page{}, &NotFoundError{
			URL:        pageURL,
			FinalURL:   finalURL,
			StatusCode: statusCode,
		}
	}

	return Page{URL: pageURL, Body: body}, nil
}

// SameURL compares two URLs after normalising a trailing slash.
func SameURL(a, b string) bool {
	return normalize(a) == normalize(b)
}

func normalize(raw string) string {
	if u, err := url.Parse(raw); err == nil {
		raw = u.String()
	}
	return strings.TrimRight(raw, "/")
}
