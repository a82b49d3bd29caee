package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"strconv"
	"sync"

	"comicdl/internal/domain"
	"comicdl/internal/extract"
	"comicdl/internal/fetch"
	"comicdl/internal/files"
	"comicdl/internal/parse"
	"comicdl/internal/planner"
	"comicdl/internal/sanitize"
	"comicdl/internal/templater"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (fetch.Page, error)
}

type Downloader interface {
	DownloadAll(ctx context.Context, task domain.ChapterTask, urls []string, dir string) ([]domain.ImageAsset, error)
}

type Options struct {
	TempPath       string
	OutputPath     string
	OutputFormat   string
	NamingTemplate string
	PageSize       string
	SkipExisting   bool

	// Selection restricts the planned chapters, the zero value keeps all.
	Selection parse.Selection
}

// OptionsFromConfig maps the application config onto pipeline options.
func OptionsFromConfig(cfg *domain.Config) Options {
	return Options{
		TempPath:       cfg.TempPath,
		OutputPath:     cfg.OutputPath,
		OutputFormat:   cfg.OutputFormat,
		NamingTemplate: cfg.NamingTemplate,
		PageSize:       cfg.PageSize,
		SkipExisting:   cfg.SkipExisting,
	}
}

// Pipeline downloads the chapters of every comic in a catalog.
//
// Comics run concurrently. Within a comic all chapter pages are fetched
// concurrently and joined before any chapter moves on to extraction; the
// fetched chapters are then extracted, downloaded and compiled one at a time,
// with the images of a chapter downloaded concurrently.
type Pipeline struct {
	fetcher    Fetcher
	downloader Downloader
	opts       Options
	log        zerolog.Logger
}

func New(opts Options, fetcher Fetcher, downloader Downloader, log zerolog.Logger) *Pipeline {
	if opts.OutputFormat == "" {
		opts.OutputFormat = domain.FormatPDF
	}
	if opts.NamingTemplate == "" {
		opts.NamingTemplate = "{comic}_chapter_{num}"
	}
	if opts.PageSize == "" {
		opts.PageSize = "letter"
	}

	return &Pipeline{
		fetcher:    fetcher,
		downloader: downloader,
		opts:       opts,
		log:        log,
	}
}

// Run processes every comic and returns the aggregated report. A failing
// chapter or comic never stops the others.
func (p *Pipeline) Run(ctx context.Context, comics []domain.ComicSpec) *domain.Report {
	report := domain.NewReport(uuid.NewString())
	log := p.log.With().Str("run", report.RunID).Logger()

	log.Info().Int("comics", len(comics)).Msg("starting download run")

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)

	for _, comic := range comics {
		comic := comic
		wg.Add(1)

		go func() {
			defer wg.Done()

			results, err := p.runComic(ctx, comic, log.With().Str("comic", comic.Name).Logger())

			mu.Lock()
			defer mu.Unlock()

			report.Results = append(report.Results, results...)
			if err != nil {
				report.ComicErrors[comic.Name] = err
			}
		}()
	}

	wg.Wait()
	report.Sort()

	return report
}

// Tasks returns the planned chapters of comic after applying the chapter selection.
func (p *Pipeline) Tasks(comic domain.ComicSpec) []domain.ChapterTask {
	tasks := planner.Plan(comic)
	if p.opts.Selection.All() {
		return tasks
	}

	return planner.Filter(tasks, func(task domain.ChapterTask) bool {
		return p.opts.Selection.Contains(task.Chapter)
	})
}

// OutputFile returns the path of the finished document for task.
func (p *Pipeline) OutputFile(task domain.ChapterTask) string {
	name := templater.New(task.Comic.Name, task.Chapter).ExecTemplate(p.opts.NamingTemplate)
	return filepath.Join(p.opts.OutputPath, sanitize.Filename(name)+"."+p.opts.OutputFormat)
}

// TempDir returns the image directory owned by task.
func (p *Pipeline) TempDir(task domain.ChapterTask) string {
	name := sanitize.Filename(task.Comic.Name) + "_chapter_" + strconv.Itoa(task.Chapter)
	return filepath.Join(p.opts.TempPath, name)
}

func (p *Pipeline) runComic(ctx context.Context, comic domain.ComicSpec, log zerolog.Logger) (results []domain.ChapterResult, err error) {
	tasks := p.Tasks(comic)
	done := make(map[int]bool, len(tasks))

	record := func(res domain.ChapterResult) {
		done[res.Chapter] = true
		results = append(results, res)
		logResult(log, res)
	}

	defer func() {
		r := recover()
		if r == nil {
			return
		}

		err = fmt.Errorf("panic while processing %s: %v", comic.Name, r)
		log.Error().Str("stack", string(debug.Stack())).Msgf("%v", err)

		for _, task := range tasks {
			if !done[task.Chapter] {
				results = append(results, result(task, domain.StateAborted, err))
			}
		}
	}()

	log.Info().Int("chapters", len(tasks)).Msg("processing comic")

	pending := make([]domain.ChapterTask, 0, len(tasks))
	for _, task := range tasks {
		if p.opts.SkipExisting && files.Exists(p.OutputFile(task)) {
			record(result(task, domain.StateExists, nil))
			continue
		}
		pending = append(pending, task)
	}

	pages, fetchErrs := p.fetchAll(ctx, pending)

	for i, task := range pending {
		if ctx.Err() != nil {
			record(result(task, domain.StateAborted, ctx.Err()))
			continue
		}

		if err := fetchErrs[i]; err != nil {
			if errors.Is(err, fetch.ErrChapterNotFound) {
				record(result(task, domain.StateNotFound, err))
			} else {
				record(result(task, domain.StateFetchFailed, err))
			}
			continue
		}

		record(p.processChapter(ctx, task, pages[i], log.With().Int("chapter", task.Chapter).Logger()))
	}

	return results, nil
}

// fetchAll fetches every chapter page concurrently and waits for all of them.
func (p *Pipeline) fetchAll(ctx context.Context, tasks []domain.ChapterTask) ([]fetch.Page, []error) {
	pages := make([]fetch.Page, len(tasks))
	errs := make([]error, len(tasks))

	var (
		g         errgroup.Group
		panicOnce sync.Once
		panicked  any
	)

	for i, task := range tasks {
		i, task := i, task
		g.Go(func() error {
			// re-raised below so a panic aborts the comic instead of the process
			defer func() {
				if r := recover(); r != nil {
					panicOnce.Do(func() { panicked = r })
				}
			}()

			pages[i], errs[i] = p.fetcher.Fetch(ctx, task.URL)
			return nil
		})
	}
	_ = g.Wait()

	if panicked != nil {
		panic(panicked)
	}

	return pages, errs
}

func (p *Pipeline) processChapter(ctx context.Context, task domain.ChapterTask, page fetch.Page, log zerolog.Logger) domain.ChapterResult {
	log.Debug().Msg("extracting image urls")

	urls, err := extract.ImageURLs(task.URL, page.Body, task.Comic.ContentSelector)
	if err != nil {
		return result(task, domain.StateExtractFailed, err)
	}

	dir := p.TempDir(task)

	// images left over from an earlier failed run must not end up in this document
	if err := os.RemoveAll(dir); err != nil {
		return result(task, domain.StateDownloadFailed, err)
	}

	log.Debug().Int("images", len(urls)).Str("dir", dir).Msg("downloading images")

	if _, err := p.downloader.DownloadAll(ctx, task, urls, dir); err != nil {
		return result(task, domain.StateDownloadFailed, err)
	}

	outputFile := p.OutputFile(task)
	log.Debug().Str("output", outputFile).Msg("compiling chapter")

	var pages int
	switch p.opts.OutputFormat {
	case domain.FormatCBZ:
		pages, err = files.CreateCbzArchive(dir, outputFile)
	default:
		pages, err = files.CreatePDF(dir, outputFile, p.opts.PageSize)
	}
	if err != nil {
		return result(task, domain.StateCompileFailed, err)
	}

	log.Debug().Int("pages", pages).Msg("chapter compiled")

	return result(task, domain.StateCompiled, nil)
}

func result(task domain.ChapterTask, state domain.ChapterState, err error) domain.ChapterResult {
	return domain.ChapterResult{
		Comic:   task.Comic.Name,
		Chapter: task.Chapter,
		URL:     task.URL,
		State:   state,
		Err:     err,
	}
}

func logResult(log zerolog.Logger, res domain.ChapterResult) {
	var e *zerolog.Event
	switch {
	case res.State.Failed():
		e = log.Error().Err(res.Err)
	case res.State == domain.StateNotFound:
		e = log.Warn().Err(res.Err)
	default:
		e = log.Info()
	}

	e.Int("chapter", res.Chapter).Str("state", res.State.String()).Msg("chapter finished")
}

// LogReport writes the outcome of every chapter followed by a summary line.
func LogReport(log zerolog.Logger, report *domain.Report) {
	for _, res := range report.Results {
		e := log.Info()
		if res.State.Failed() {
			e = log.Warn().Str("reason", res.Reason())
		}
		e.Str("chapter", res.Label()).Str("state", res.State.String()).Msg("result")
	}

	for comic, err := range report.ComicErrors {
		log.Error().Err(err).Str("comic", comic).Msg("comic aborted")
	}

	log.Info().Str("run", report.RunID).Msgf("finished comic downloader: %s", report.Summary())
}
