package extract

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"comicdl/internal/utils"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"
)

// ErrNoImages is returned when the content container holds no page images.
var ErrNoImages = errors.New("no images found in content container")

// ExtractionError means the content container is missing, which usually
// means the site layout changed.
type ExtractionError struct {
	PageURL  string
	Selector string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("content container %q not found on %s", e.Selector, e.PageURL)
}

// ImageURLs returns the page image URLs inside the first element matching
// selector, in document order. Relative URLs are resolved against pageURL.
func ImageURLs(pageURL string, html []byte, selector string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse HTML")
	}

	container := doc.Find(selector).First()
	if container.Length() == 0 {
		return nil, &ExtractionError{PageURL: pageURL, Selector: selector}
	}

	base, _ := url.Parse(pageURL)

	var imageURLs []string
	container.Find("img").Each(func(_ int, s *goquery.Selection) {
		src := clean(s.AttrOr("src", ""))
		if src == "" {
			src = clean(s.AttrOr("data-src", ""))
		}
		if src == "" {
			return
		}

		u, err := url.Parse(src)
		if err != nil {
			return
		}
		if base != nil {
			u = base.ResolveReference(u)
		}

		if !utils.IsImagePath(u.Path) {
			return
		}

		imageURLs = append(imageURLs, u.String())
	})

	if len(imageURLs) == 0 {
		return nil, errors.Wrapf(ErrNoImages, "%s", pageURL)
	}

	return imageURLs, nil
}

// clean drops whitespace and control characters. Some pages have tabs and
// newlines inside src attributes.
func clean(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}
