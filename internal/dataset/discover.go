package dataset

import (
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/pkg/errors"
)

var corpusRegexp = regexp.MustCompile(`(?i)^[^.].*\.txt$`)

// DiscoverCorpora returns paths to corpus text files beneath root, sorted.
func DiscoverCorpora(root string) ([]string, error) {
	entries := make([]string, 0)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if corpusRegexp.MatchString(d.Name()) {
			entries = append(entries, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "discover corpora")
	}
	sort.Strings(entries)
	return entries, nil
}
