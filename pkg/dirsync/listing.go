package dirsync

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"
)

// Entry is one line of a destination root listing
type Entry struct {
	Name    string      `json:"name" yaml:"name"`
	Mode    fs.FileMode `json:"mode" yaml:"mode"`
	Size    int64       `json:"size" yaml:"size"`
	ModTime time.Time   `json:"modTime" yaml:"modTime"`
}

// IsDir reports whether the entry is a directory
func (e Entry) IsDir() bool {
	return e.Mode.IsDir()
}

// List returns the direct children of root, including dotfiles, sorted by name.
func List(root string) ([]Entry, error) {
	dirEntries, err := os.ReadDir(root)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", root)
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		info, err := de.Info()
		if err != nil {
			return nil, errors.Wrapf(err, "failed to stat %s", de.Name())
		}
		entries = append(entries, Entry{
			Name:    de.Name(),
			Mode:    info.Mode(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// WriteListing renders entries in an ls -la like layout
func WriteListing(w io.Writer, entries []Entry) error {
	if _, err := fmt.Fprintf(w, "total %d\n", len(entries)); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	for _, e := range entries {
		name := e.Name
		if e.IsDir() {
			name += "/"
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", e.Mode.String(), e.Size, e.ModTime.Format("Jan _2 15:04"), name)
	}
	return tw.Flush()
}
