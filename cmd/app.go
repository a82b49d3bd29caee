package cmd

import (
	"fmt"
	"slices"
	"time"

	"comicdl/internal/buildinfo"
	"comicdl/internal/catalog"
	"comicdl/internal/config"
	"comicdl/internal/domain"
	"comicdl/internal/download"
	"comicdl/internal/fetch"
	"comicdl/internal/files"
	"comicdl/internal/logger"
	"comicdl/internal/parse"
	"comicdl/internal/pipeline"
)

type app struct {
	cfg    *config.AppConfig
	log    logger.Logger
	comics []domain.ComicSpec
}

// newApp reads the config, sets up logging and loads the comic catalog.
func newApp() (*app, error) {
	cfg, err := config.New(configPath, buildinfo.Version)
	if err != nil {
		return nil, err
	}

	log := logger.New(cfg.Config)

	if err := files.IsValidLocation(cfg.Config.ComicsDataPath); err != nil {
		return nil, fmt.Errorf("invalid comics data path: %w", err)
	}

	comics, err := catalog.Load(cfg.Config.ComicsDataPath)
	if err != nil {
		return nil, err
	}

	comics, err = selectComics(comics, comicNames)
	if err != nil {
		return nil, err
	}

	return &app{cfg: cfg, log: log, comics: comics}, nil
}

func selectComics(comics []domain.ComicSpec, names []string) ([]domain.ComicSpec, error) {
	if len(names) == 0 {
		return comics, nil
	}

	selected := make([]domain.ComicSpec, 0, len(names))
	for _, name := range names {
		i := slices.IndexFunc(comics, func(c domain.ComicSpec) bool { return c.Name == name })
		if i < 0 {
			return nil, fmt.Errorf("no comic data file defines %q", name)
		}
		selected = append(selected, comics[i])
	}

	return selected, nil
}

// pipeline wires the fetcher and downloader with the configured options.
func (a *app) pipeline(selection parse.Selection) *pipeline.Pipeline {
	cfg := a.cfg.Config
	log := a.log.With().Logger()

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = buildinfo.UserAgent()
	}
	timeout := time.Duration(cfg.RequestTimeout) * time.Second

	fetcher := fetch.New(fetch.Options{
		UserAgent: cfg.UserAgent,
		Timeout:   timeout,
	}, log)

	downloader := download.New(download.Options{
		Attempts:      cfg.DownloadAttempts,
		MaxConcurrent: cfg.MaxConcurrentImages,
		Timeout:       timeout,
		UserAgent:     userAgent,
	}, log)

	opts := pipeline.OptionsFromConfig(cfg)
	opts.Selection = selection

	return pipeline.New(opts, fetcher, downloader, log)
}
