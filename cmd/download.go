package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"comicdl/internal/domain"
	"comicdl/internal/parse"
	"comicdl/internal/pipeline"

	"github.com/spf13/cobra"
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download every planned chapter once",
	Run: func(cmd *cobra.Command, _ []string) {
		selection, err := parse.ChapterSelection(chapterNumbers)
		if err != nil {
			fmt.Printf("Invalid chapter selection %q: %v\n", chapterNumbers, err)
			os.Exit(1)
		}

		a, err := newApp()
		if err != nil {
			fmt.Println("Failed to start:", err)
			os.Exit(1)
		}

		if outputFormat != "" {
			switch format := strings.ToLower(outputFormat); format {
			case domain.FormatPDF, domain.FormatCBZ:
				a.cfg.Config.OutputFormat = format
			default:
				a.log.Fatal().Msgf("invalid output format %q, must be one of: pdf, cbz", outputFormat)
			}
		}

		// stop in-flight requests on the first signal
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGHUP, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM)
		defer stop()

		report := a.pipeline(selection).Run(ctx, a.comics)
		pipeline.LogReport(a.log.With().Logger(), report)

		if failOnError && report.HasFailures() {
			stop()
			os.Exit(1)
		}
	},
}
