package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "comicdl",
	Short: "Download comic chapters and compile them into documents.",
	Long: `Download comic chapters and compile them into documents.

Every comic is described by a JSON data file inside comics_data_path.
Provide a configuration file using one of the following methods:
1. Use the --config <path> or -c <path> flag.
2. Place a config.json file in the default user configuration directory (e.g., ~/.config/comicdl/).
3. Place a config.json file a folder inside your home directory (e.g., ~/.comicdl/).
4. Place a config.json file in the current working directory.`,
}

func init() {
	initRootFlags()
	initDownloadFlags()
	initPlanFlags()
	initMonitorFlags()

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(monitorCmd)
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
