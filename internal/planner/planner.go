package planner

import (
	"comicdl/internal/domain"
	"comicdl/internal/templater"
)

// Plan returns the chapters of spec to download in increasing chapter order.
// Skipped chapters are left out; chapters with an exception use the override
// suffix in place of their number when the URL is built.
func Plan(spec domain.ComicSpec) []domain.ChapterTask {
	if spec.ChapterCount <= 0 {
		return nil
	}

	tasks := make([]domain.ChapterTask, 0, spec.ChapterCount)

	for chapter := spec.StartChapter; chapter < spec.EndChapter(); chapter++ {
		if spec.IsSkipped(chapter) {
			continue
		}

		tasks = append(tasks, domain.ChapterTask{
			Comic:   spec,
			Chapter: chapter,
			URL:     ChapterURL(spec, chapter),
		})
	}

	return tasks
}

// ChapterURL builds the URL of a single chapter. Templates without a chapter
// placeholder get the number or override suffix appended.
func ChapterURL(spec domain.ComicSpec, chapter int) string {
	t := templater.New(spec.Name, chapter)
	if suffix, ok := spec.Exceptions[chapter]; ok {
		t = t.WithSuffix(suffix)
	}

	if templater.HasPlaceholder(spec.URLTemplate) {
		return t.ExecTemplate(spec.URLTemplate)
	}

	return spec.URLTemplate + t.ExecTemplate("{num}")
}

// Filter keeps the tasks for which keep returns true, preserving order.
func Filter(tasks []domain.ChapterTask, keep func(domain.ChapterTask) bool) []domain.ChapterTask {
	out := tasks[:0:0]
	for _, task := range tasks {
		if keep(task) {
			out = append(out, task)
		}
	}
	return out
}
