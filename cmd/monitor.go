package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"comicdl/internal/parse"
	"comicdl/internal/pipeline"

	"github.com/spf13/cobra"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Download new chapters every check_interval minutes",
	Run: func(cmd *cobra.Command, _ []string) {
		a, err := newApp()
		if err != nil {
			fmt.Println("Failed to start:", err)
			os.Exit(1)
		}
		log := a.log

		// only chapters without an output document are fetched again
		a.cfg.Config.SkipExisting = true

		// init dynamic config
		a.cfg.DynamicReload(log)

		p := a.pipeline(parse.Selection{})

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		run := func() {
			report := p.Run(ctx, a.comics)
			pipeline.LogReport(log.With().Logger(), report)
		}

		log.Info().Int("comics", len(a.comics)).Msgf("starting to monitor configured comics every %d minutes", a.cfg.CheckInterval())

		wg := sync.WaitGroup{}
		wg.Add(1)

		go func() {
			defer wg.Done()

			run()

			for {
				// the interval may change when the config file is reloaded
				timer := time.NewTimer(time.Duration(a.cfg.CheckInterval()) * time.Minute)

				select {
				case <-ctx.Done():
					timer.Stop()
					return
				case <-timer.C:
					run()
				}
			}
		}()

		// set up a channel to catch signals for graceful shutdown
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM)

		log.Info().Msgf("received signal: %s, stopping monitoring", <-sigCh)
		cancel()
		wg.Wait()
	},
}
