package cmd

var (
	configPath string

	chapterNumbers string
	comicNames     []string
	outputFormat   string
	failOnError    bool
)

func initRootFlags() {
	rootCmd.PersistentFlags().StringVarP(
		&configPath,
		"config",
		"c",
		"",
		"specifies the path to your config file or the directory holding it",
	)
}

func initDownloadFlags() {
	downloadCmd.Flags().StringVarP(
		&chapterNumbers,
		"chapters",
		"C",
		"",
		"restricts the run to these chapter numbers, e.g. 1-5,8",
	)
	downloadCmd.Flags().StringSliceVarP(
		&comicNames,
		"comic",
		"m",
		nil,
		"restricts the run to the named comics",
	)
	downloadCmd.Flags().StringVarP(
		&outputFormat,
		"format",
		"f",
		"",
		"overrides the configured output format (pdf or cbz)",
	)
	downloadCmd.Flags().BoolVar(
		&failOnError,
		"fail-on-error",
		false,
		"exit with status 1 if any chapter failed",
	)
}

func initPlanFlags() {
	planCmd.Flags().StringVarP(
		&chapterNumbers,
		"chapters",
		"C",
		"",
		"restricts the plan to these chapter numbers, e.g. 1-5,8",
	)
	planCmd.Flags().StringSliceVarP(
		&comicNames,
		"comic",
		"m",
		nil,
		"restricts the plan to the named comics",
	)
}

func initMonitorFlags() {
	monitorCmd.Flags().StringSliceVarP(
		&comicNames,
		"comic",
		"m",
		nil,
		"restricts monitoring to the named comics",
	)
}
