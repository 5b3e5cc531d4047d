// Package picker asks the user for the input file.
package picker

import (
	"errors"
	"strings"

	"github.com/leeovery/sndedup/internal/tableio"
)

// ErrCancelled is returned when the user closes the chooser without
// selecting a file.
var ErrCancelled = errors.New("no file selected")

// Picker returns the path of the file to clean.
type Picker interface {
	RequestFilePath(filters []tableio.Filter) (string, error)
}

// Static returns a fixed path. An empty path counts as a cancelled
// selection.
type Static struct {
	Path string
}

// RequestFilePath implements Picker.
func (s Static) RequestFilePath([]tableio.Filter) (string, error) {
	if strings.TrimSpace(s.Path) == "" {
		return "", ErrCancelled
	}
	return s.Path, nil
}

// Extensions flattens filters into one lower-case extension list without
// duplicates, in filter order.
func Extensions(filters []tableio.Filter) []string {
	seen := make(map[string]bool)
	var exts []string
	for _, f := range filters {
		for _, e := range f.Extensions {
			e = strings.ToLower(e)
			if !strings.HasPrefix(e, ".") {
				e = "." + e
			}
			if seen[e] {
				continue
			}
			seen[e] = true
			exts = append(exts, e)
		}
	}
	return exts
}
