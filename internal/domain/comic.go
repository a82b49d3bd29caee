package domain

// ComicSpec describes one comic loaded from a comic data file.
type ComicSpec struct {
	Name         string
	ChapterCount int
	StartChapter int
	URLTemplate  string

	// Exceptions maps a chapter number to the URL suffix used instead of the number.
	Exceptions map[int]string
	Skip       map[int]struct{}

	ContentSelector string
	SourceFile      string
}

// EndChapter returns the first chapter number past the planned range.
func (c ComicSpec) EndChapter() int {
	return c.StartChapter + c.ChapterCount
}

func (c ComicSpec) InRange(chapter int) bool {
	return chapter >= c.StartChapter && chapter < c.EndChapter()
}

func (c ComicSpec) IsSkipped(chapter int) bool {
	_, ok := c.Skip[chapter]
	return ok
}

type ChapterTask struct {
	Comic   ComicSpec
	Chapter int
	URL     string
}

// ImageAsset is a single page image stored in a chapter's temp directory.
type ImageAsset struct {
	Task      ChapterTask
	Ordinal   int
	SourceURL string
	LocalPath string
}
