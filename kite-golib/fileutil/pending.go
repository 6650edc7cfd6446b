package fileutil

import (
	"path/filepath"
	"strings"

	"github.com/kiteco/enzh-datagen/kite-golib/errors"
)

const pendingPrefix = ".incomplete-"

// PendingPath is the sibling of path that CreatePending writes to. The extensions
// of path are kept so format detection still works on it.
func PendingPath(path string) string {
	i := strings.LastIndexAny(path, "/"+string(filepath.Separator))
	return path[:i+1] + pendingPrefix + path[i+1:]
}

// PendingFile is written under PendingPath and only moved to its final path by
// Commit, so a failed or interrupted write never leaves a file that looks complete.
type PendingFile struct {
	fs   FileSystem
	w    NamedWriteCloser
	tmp  string
	path string
	done bool
}

// CreatePending opens PendingPath(path) for writing
func CreatePending(fs FileSystem, path string) (*PendingFile, error) {
	tmp := PendingPath(path)
	w, err := fs.Create(tmp)
	if err != nil {
		return nil, err
	}
	return &PendingFile{fs: fs, w: w, tmp: tmp, path: path}, nil
}

// Write implements io.Writer
func (p *PendingFile) Write(b []byte) (int, error) {
	return p.w.Write(b)
}

// Name returns the final path
func (p *PendingFile) Name() string {
	return p.path
}

// Commit closes the temporary file and moves it to the final path
func (p *PendingFile) Commit() error {
	if p.done {
		return nil
	}
	p.done = true

	if err := p.w.Close(); err != nil {
		return errors.Combine(err, p.fs.Remove(p.tmp))
	}
	return errors.WrapfOrNil(p.fs.Rename(p.tmp, p.path), "error committing %s", p.path)
}

// Abort closes and removes the temporary file. It does nothing after Commit,
// so it can be deferred right after CreatePending.
func (p *PendingFile) Abort() error {
	if p.done {
		return nil
	}
	p.done = true
	return errors.Combine(p.w.Close(), p.fs.Remove(p.tmp))
}
