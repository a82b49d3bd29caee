package download

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"comicdl/internal/domain"
	"comicdl/internal/sharedhttp"
	"comicdl/internal/utils"

	"github.com/avast/retry-go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

const minFilenameWidth = 3

type Options struct {
	// Attempts per image. 1 disables retrying.
	Attempts int
	// MaxConcurrent caps parallel image requests per chapter, 0 means no cap.
	MaxConcurrent int
	Timeout       time.Duration
	UserAgent     string
	RetryDelay    time.Duration
}

type Downloader struct {
	client *http.Client
	opts   Options
	log    zerolog.Logger
}

func New(opts Options, log zerolog.Logger) *Downloader {
	if opts.Attempts < 1 {
		opts.Attempts = 1
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 3 * time.Second
	}

	return &Downloader{
		client: sharedhttp.NewClient(opts.Timeout),
		opts:   opts,
		log:    log,
	}
}

// Filename returns the file name, without extension, for the image at ordinal
// out of total. Names are zero padded so sorting them lexically gives page order.
func Filename(ordinal, total int) string {
	width := max(minFilenameWidth, utils.Digits(total))
	return utils.PadNumber(strconv.Itoa(ordinal), width)
}

// DownloadAll fetches every image of a chapter concurrently into dir. A failed
// image does not stop the others; the returned error lists every failure and
// the images that did succeed stay on disk.
func (d *Downloader) DownloadAll(ctx context.Context, task domain.ChapterTask, urls []string, dir string) ([]domain.ImageAsset, error) {
	var (
		g      errgroup.Group
		mu     sync.Mutex
		assets = make([]domain.ImageAsset, 0, len(urls))
		errs   error
	)

	if d.opts.MaxConcurrent > 0 {
		g.SetLimit(d.opts.MaxConcurrent)
	}

	for i, imageURL := range urls {
		imageURL := imageURL
		ordinal := i + 1
		filenameNoExt := filepath.Join(dir, Filename(ordinal, len(urls)))

		g.Go(func() error {
			localPath, err := d.singleFile(ctx, imageURL, filenameNoExt)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				d.log.Warn().Err(err).Int("image", ordinal).Str("url", imageURL).Msg("failed to download image")
				errs = multierr.Append(errs, errors.Wrapf(err, "image %d", ordinal))
				return nil
			}

			d.log.Trace().Int("image", ordinal).Str("path", localPath).Msg("image downloaded")
			assets = append(assets, domain.ImageAsset{
				Task:      task,
				Ordinal:   ordinal,
				SourceURL: imageURL,
				LocalPath: localPath,
			})
			return nil
		})
	}

	_ = g.Wait()

	sort.Slice(assets, func(i, j int) bool {
		return assets[i].Ordinal < assets[j].Ordinal
	})

	return assets, errs
}

// singleFile downloads a single image and returns the path it was written to
func (d *Downloader) singleFile(ctx context.Context, url, filenameNoExt string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	if d.opts.UserAgent != "" {
		req.Header.Set("User-Agent", d.opts.UserAgent)
	}

	var filename string

	retryErr := retry.Do(func() error {
		resp, err := d.client.Do(req)
		if err != nil {
			return fmt.Errorf("failed to get image: %w", err)
		}
		defer resp.Body.Close()

		if err := sharedhttp.CheckStatusCode(resp.StatusCode); err != nil {
			return err
		}

		filename, err = appendImageExtension(resp, filenameNoExt)
		if err != nil {
			return retry.Unrecoverable(err)
		}

		return writeFile(filename, resp.Body)
	},
		retry.Context(ctx),
		retry.Attempts(uint(d.opts.Attempts)),
		retry.Delay(d.opts.RetryDelay),
		retry.MaxJitter(d.opts.RetryDelay),
		retry.LastErrorOnly(true),
	)

	return filename, retryErr
}

// writeFile stores r at filename, creating the parent directory on first use.
// A partially written file is removed.
func writeFile(filename string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(filename), os.ModePerm); err != nil {
		return err
	}

	out, err := os.Create(filename)
	if err != nil {
		return err
	}

	writeBuf := bufio.NewWriter(out)

	_, err = io.Copy(writeBuf, bufio.NewReader(r))
	if err == nil {
		err = writeBuf.Flush()
	}
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(filename)
		return errors.Wrapf(err, "failed to write %s", filename)
	}

	return nil
}

func appendImageExtension(resp *http.Response, filename string) (string, error) {
	contentType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))

	switch contentType {
	case "image/jpeg", "image/jpg":
		return filename + ".jpg", nil
	case "image/png":
		return filename + ".png", nil
	case "image/gif":
		return filename + ".gif", nil
	case "image/webp":
		return filename + ".webp", nil
	}

	// some hosts serve images as application/octet-stream
	switch ext := strings.ToLower(path.Ext(resp.Request.URL.Path)); ext {
	case ".jpg", ".jpeg":
		return filename + ".jpg", nil
	case ".png", ".gif", ".webp":
		return filename + ext, nil
	}

	return filename, fmt.Errorf("unsupported content type: %s", resp.Header.Get("Content-Type"))
}
