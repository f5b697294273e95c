package folio

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/spf13/afero"
)

// ModTimer reports file modification times. ok is false when the file does
// not exist.
type ModTimer interface {
	ModTime(path string) (t time.Time, ok bool, err error)
}

// FsModTimer reads modification times from an afero filesystem.
type FsModTimer struct {
	Fs afero.Fs
}

func (m FsModTimer) ModTime(path string) (time.Time, bool, error) {
	info, err := m.Fs.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("stat %s: %w", path, err)
	}
	return info.ModTime(), true, nil
}

// IsStale reports whether any dependency needs to be rebuilt: its output is
// missing, or its input was modified after its output. A dependency whose
// input no longer exists is stale too, so the next pass recompiles the
// document and reports the missing file instead of serving the old page.
func IsStale(mt ModTimer, deps []Dependency) (bool, error) {
	for _, d := range deps {
		out, ok, err := mt.ModTime(d.Output)
		if err != nil {
			return false, err
		}
		if !ok {
			return true, nil
		}
		in, ok, err := mt.ModTime(d.Input)
		if err != nil {
			return false, err
		}
		if !ok || in.After(out) {
			return true, nil
		}
	}
	return false, nil
}
