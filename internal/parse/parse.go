package parse

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

type chapterRange struct {
	start, end int
}

// Selection is a set of chapter numbers and ranges, e.g. "1-10,12,20-25".
type Selection struct {
	ranges []chapterRange
}

// ChapterSelection parses the user input for ranges and single chapters.
// An empty input selects every chapter.
func ChapterSelection(input string) (Selection, error) {
	var sel Selection

	if strings.TrimSpace(input) == "" {
		return sel, nil
	}

	for _, part := range strings.Split(input, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		if strings.Contains(part, "-") {
			rangeParts := strings.Split(part, "-")
			if len(rangeParts) != 2 {
				return Selection{}, fmt.Errorf("invalid range format: %s", part)
			}

			start, end, err := getRange(rangeParts)
			if err != nil {
				return Selection{}, err
			}

			sel.ranges = append(sel.ranges, chapterRange{start: start, end: end})
			continue
		}

		chapter, err := strconv.Atoi(part)
		if err != nil {
			return Selection{}, fmt.Errorf("invalid chapter number: %s", part)
		}
		sel.ranges = append(sel.ranges, chapterRange{start: chapter, end: chapter})
	}

	return sel, nil
}

// All reports whether the selection places no restriction on chapters.
func (s Selection) All() bool {
	return len(s.ranges) == 0
}

func (s Selection) Contains(chapter int) bool {
	if s.All() {
		return true
	}

	for _, r := range s.ranges {
		if chapter >= r.start && chapter <= r.end {
			return true
		}
	}

	return false
}

// getRange parses the user input for chapter ranges
func getRange(rangeParts []string) (int, int, error) {
	start, err := strconv.Atoi(strings.TrimSpace(rangeParts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid start of range: %s", rangeParts[0])
	}
	end, err := strconv.Atoi(strings.TrimSpace(rangeParts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid end of range: %s", rangeParts[1])
	}

	if start > end {
		return 0, 0, fmt.Errorf("start of range should not be greater than end: %s-%s", rangeParts[0], rangeParts[1])
	}

	return start, end, nil
}

// MinMax returns the lowest and highest values of a slice that can be ordered
func MinMax[T cmp.Ordered](values []T) (T, T, error) {
	if len(values) == 0 {
		var zero T
		return zero, zero, fmt.Errorf("slice is empty")
	}

	return slices.Min(values), slices.Max(values), nil
}
