package domain

import (
	"fmt"
	"sort"
	"strings"
)

// ChapterState is the terminal state a chapter reached in the pipeline.
type ChapterState int

const (
	StatePlanned ChapterState = iota
	StateNotFound
	StateFetchFailed
	StateExtractFailed
	StateDownloadFailed
	StateCompileFailed
	StateCompiled
	StateExists
	StateAborted
)

var stateNames = map[ChapterState]string{
	StatePlanned:        "planned",
	StateNotFound:       "not found",
	StateFetchFailed:    "fetch failed",
	StateExtractFailed:  "extract failed",
	StateDownloadFailed: "download failed",
	StateCompileFailed:  "compile failed",
	StateCompiled:       "downloaded",
	StateExists:         "already downloaded",
	StateAborted:        "aborted",
}

func (s ChapterState) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Failed reports whether the state counts as a failed chapter. Not found and
// already downloaded chapters are not failures.
func (s ChapterState) Failed() bool {
	switch s {
	case StateFetchFailed, StateExtractFailed, StateDownloadFailed, StateCompileFailed, StateAborted:
		return true
	default:
		return false
	}
}

type ChapterResult struct {
	Comic   string
	Chapter int
	URL     string
	State   ChapterState
	Err     error
}

func (r ChapterResult) Label() string {
	return fmt.Sprintf("%s:%d", r.Comic, r.Chapter)
}

// Reason returns the failure cause, empty for chapters without an error.
func (r ChapterResult) Reason() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Report collects the results of a whole run.
type Report struct {
	RunID       string
	Results     []ChapterResult
	ComicErrors map[string]error
}

func NewReport(runID string) *Report {
	return &Report{
		RunID:       runID,
		ComicErrors: make(map[string]error),
	}
}

// Sort orders results by comic name, then chapter number.
func (r *Report) Sort() {
	sort.SliceStable(r.Results, func(i, j int) bool {
		if r.Results[i].Comic != r.Results[j].Comic {
			return r.Results[i].Comic < r.Results[j].Comic
		}
		return r.Results[i].Chapter < r.Results[j].Chapter
	})
}

func (r *Report) Outcomes() map[string]ChapterState {
	outcomes := make(map[string]ChapterState, len(r.Results))
	for _, res := range r.Results {
		outcomes[res.Label()] = res.State
	}
	return outcomes
}

func (r *Report) Count(state ChapterState) int {
	n := 0
	for _, res := range r.Results {
		if res.State == state {
			n++
		}
	}
	return n
}

// HasFailures reports whether any chapter or comic failed.
func (r *Report) HasFailures() bool {
	if len(r.ComicErrors) > 0 {
		return true
	}
	for _, res := range r.Results {
		if res.State.Failed() {
			return true
		}
	}
	return false
}

// Summary renders counts per state, e.g. "downloaded=3 not found=1".
func (r *Report) Summary() string {
	counts := make(map[ChapterState]int)
	for _, res := range r.Results {
		counts[res.State]++
	}

	var parts []string
	for state := StatePlanned; state <= StateAborted; state++ {
		if counts[state] > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", state, counts[state]))
		}
	}
	if len(r.ComicErrors) > 0 {
		parts = append(parts, fmt.Sprintf("comic errors=%d", len(r.ComicErrors)))
	}
	if len(parts) == 0 {
		return "nothing to do"
	}

	return strings.Join(parts, " ")
}
