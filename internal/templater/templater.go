package templater

import (
	"regexp"
	"strconv"
	"strings"

	"comicdl/internal/utils"
)

var templatePattern = regexp.MustCompile(`{((\w+?)(:.*?)?)}`)

// Templater fills {num}, {chapter} and {comic} placeholders. It is used for
// chapter URLs and for output file names.
type Templater struct {
	Comic   string
	Chapter int

	// Suffix replaces the chapter number in {num} and {chapter} when set.
	Suffix string
}

func New(comic string, chapter int) *Templater {
	return &Templater{
		Comic:   comic,
		Chapter: chapter,
	}
}

// WithSuffix returns a copy of the templater that renders suffix instead of
// the chapter number.
func (t *Templater) WithSuffix(suffix string) *Templater {
	c := *t
	c.Suffix = suffix
	return &c
}

// HasPlaceholder reports whether template contains a chapter number placeholder.
func HasPlaceholder(template string) bool {
	for _, match := range templatePattern.FindAllStringSubmatch(template, -1) {
		switch match[2] {
		case "num", "chapter":
			return true
		}
	}
	return false
}

func (t *Templater) number() string {
	if t.Suffix != "" {
		return t.Suffix
	}
	return strconv.Itoa(t.Chapter)
}

func (t *Templater) handleNum(options string) string {
	if options == "" {
		return t.number()
	}

	length, _ := strconv.ParseInt(strings.ReplaceAll(options, ":", ""), 10, 32)
	return utils.PadNumber(t.number(), int(length))
}

func (t *Templater) handleComic(options string) string {
	if t.Comic == "" {
		return ""
	}
	if options == "" {
		return t.Comic
	}

	cleanString := strings.Replace(options, ":", "", 1)
	return strings.ReplaceAll(cleanString, "<.>", t.Comic)
}

func (t *Templater) ExecTemplate(template string) string {
	newString := template
	for _, match := range templatePattern.FindAllStringSubmatch(template, -1) {
		replace := match[0]

		switch match[2] {
		case "num", "chapter":
			replace = t.handleNum(match[3])
		case "comic":
			replace = t.handleComic(match[3])
		}

		newString = strings.Replace(newString, match[0], replace, 1)
	}

	return newString
}
