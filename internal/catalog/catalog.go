package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"comicdl/internal/domain"
	"comicdl/internal/sanitize"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

const (
	dataKey                = "comic_data"
	DefaultContentSelector = "div.entry-content"
)

// Load reads every *.json comic data file in dir, ordered by file name.
func Load(dir string) ([]domain.ComicSpec, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read comics data path %s", dir)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".json") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	comics := make([]domain.ComicSpec, 0, len(names))
	seen := make(map[string]string, len(names))

	for _, name := range names {
		path := filepath.Join(dir, name)

		spec, err := LoadFile(path)
		if err != nil {
			return nil, err
		}

		// comics sharing a file name would share temp dirs and output files
		key := sanitize.Filename(spec.Name)
		if other, ok := seen[key]; ok {
			return nil, fmt.Errorf("comic %q in %s collides with the comic in %s", spec.Name, path, other)
		}
		seen[key] = path

		comics = append(comics, spec)
	}

	return comics, nil
}

// LoadFile reads a single comic data file.
func LoadFile(path string) (domain.ComicSpec, error) {
	v := viper.New()
	v.SetConfigType("json")
	v.SetConfigFile(path)

	v.SetDefault(dataKey+".start_chapter", 1)
	v.SetDefault(dataKey+".content_selector", DefaultContentSelector)

	if err := v.ReadInConfig(); err != nil {
		return domain.ComicSpec{}, errors.Wrapf(err, "could not read comic data file %s", path)
	}

	if !v.InConfig(dataKey) {
		return domain.ComicSpec{}, fmt.Errorf("comic data file %s has no %q object", path, dataKey)
	}

	spec := domain.ComicSpec{
		Name:            strings.TrimSpace(v.GetString(dataKey + ".name")),
		URLTemplate:     strings.TrimSpace(v.GetString(dataKey + ".partial_chapter_url")),
		ContentSelector: strings.TrimSpace(v.GetString(dataKey + ".content_selector")),
		SourceFile:      path,
	}

	var err error
	if spec.ChapterCount, err = cast.ToIntE(v.Get(dataKey + ".max_chapter")); err != nil {
		return domain.ComicSpec{}, errors.Wrapf(err, "%s: invalid max_chapter", path)
	}
	if spec.StartChapter, err = cast.ToIntE(v.Get(dataKey + ".start_chapter")); err != nil {
		return domain.ComicSpec{}, errors.Wrapf(err, "%s: invalid start_chapter", path)
	}
	if spec.Exceptions, err = exceptions(v.Get(dataKey + ".chapter_exceptions")); err != nil {
		return domain.ComicSpec{}, errors.Wrapf(err, "%s: invalid chapter_exceptions", path)
	}
	if spec.Skip, err = chapterSet(v.Get(dataKey + ".skip_chapters")); err != nil {
		return domain.ComicSpec{}, errors.Wrapf(err, "%s: invalid skip_chapters", path)
	}

	if err := Validate(spec); err != nil {
		return domain.ComicSpec{}, errors.Wrap(err, path)
	}

	return spec, nil
}

func Validate(spec domain.ComicSpec) error {
	switch {
	case spec.Name == "":
		return errors.New("name is required")
	case spec.URLTemplate == "":
		return errors.New("partial_chapter_url is required")
	case spec.ChapterCount < 0:
		return fmt.Errorf("max_chapter must not be negative, got %d", spec.ChapterCount)
	case spec.StartChapter < 1:
		return fmt.Errorf("start_chapter must be at least 1, got %d", spec.StartChapter)
	case spec.ContentSelector == "":
		return errors.New("content_selector must not be empty")
	}

	return nil
}

// exceptions decodes a {"<chapter>": "<suffix>"} object.
func exceptions(raw any) (map[int]string, error) {
	out := make(map[int]string)
	if raw == nil {
		return out, nil
	}

	m, err := cast.ToStringMapE(raw)
	if err != nil {
		return nil, err
	}

	for key, value := range m {
		chapter, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil {
			return nil, fmt.Errorf("chapter %q is not a number", key)
		}

		suffix, err := cast.ToStringE(value)
		if err != nil {
			return nil, fmt.Errorf("chapter %d: %w", chapter, err)
		}

		out[chapter] = suffix
	}

	return out, nil
}

// chapterSet accepts either a list of chapter numbers or an object keyed by
// chapter number.
func chapterSet(raw any) (map[int]struct{}, error) {
	out := make(map[int]struct{})

	switch value := raw.(type) {
	case nil:
		return out, nil

	case []any:
		for _, item := range value {
			var (
				chapter int
				err     error
			)
			// cast reads "010" as octal
			if str, ok := item.(string); ok {
				chapter, err = strconv.Atoi(strings.TrimSpace(str))
			} else {
				chapter, err = cast.ToIntE(item)
			}
			if err != nil {
				return nil, fmt.Errorf("chapter %v is not a number", item)
			}
			out[chapter] = struct{}{}
		}

	case map[string]any:
		for key := range value {
			chapter, err := strconv.Atoi(strings.TrimSpace(key))
			if err != nil {
				return nil, fmt.Errorf("chapter %q is not a number", key)
			}
			out[chapter] = struct{}{}
		}

	default:
		return nil, fmt.Errorf("unsupported type %T", raw)
	}

	return out, nil
}
