package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"comicdl/internal/parse"

	"github.com/spf13/cobra"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "List the chapters and URLs a download would process",
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

		p := a.pipeline(selection)
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)

		for _, comic := range a.comics {
			tasks := p.Tasks(comic)

			chapters := make([]int, 0, len(tasks))
			for _, task := range tasks {
				chapters = append(chapters, task.Chapter)
			}

			first, last, err := parse.MinMax(chapters)
			if err != nil {
				fmt.Fprintf(w, "%s\tno chapters planned\n", comic.Name)
				continue
			}
			fmt.Fprintf(w, "%s\t%d chapters (%d-%d)\n", comic.Name, len(tasks), first, last)

			for _, task := range tasks {
				fmt.Fprintf(w, "  %d\t%s\t%s\n", task.Chapter, task.URL, p.OutputFile(task))
			}
		}

		_ = w.Flush()
	},
}
