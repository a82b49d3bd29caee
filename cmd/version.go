package cmd

import (
	"fmt"

	"comicdl/internal/buildinfo"

	"github.com/spf13/cobra"
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display version info",
	Run: func(cmd *cobra.Command, _ []string) {
		out := cmd.OutOrStdout()

		fmt.Fprintln(out, "Version:", buildinfo.Version)
		fmt.Fprintln(out, "Commit:", buildinfo.Commit)
		fmt.Fprintln(out, "Build date:", buildinfo.Date)
		fmt.Fprintln(out, "User agent:", buildinfo.UserAgent())
	},
}
