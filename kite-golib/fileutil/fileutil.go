package fileutil

import (
	"io"
	"io/ioutil"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/kiteco/enzh-datagen/kite-golib/awsutil"
	"github.com/kiteco/enzh-datagen/kite-golib/errors"
	"github.com/spf13/afero"
)

// ErrNotFound is returned (wrapped) when a required input does not exist
var ErrNotFound = errors.New("not found")

// NamedWriteCloser is a file-like object extending io.WriteCloser with a string Name() similar to os.File.Name()
type NamedWriteCloser interface {
	io.WriteCloser
	Name() string
}

// FileSystem is the set of file operations the dataset code needs. Paths may
// be local, "s3://bucket/key", or (for reading) "http(s)://..." URLs.
type FileSystem interface {
	Open(path string) (io.ReadCloser, error)
	Create(path string) (NamedWriteCloser, error)
	Exists(path string) (bool, error)
	Rename(oldpath, newpath string) error
	Remove(path string) error
}

// FS implements FileSystem on top of an afero filesystem for local paths
type FS struct {
	fs     afero.Fs
	client *http.Client
}

// NewFS wraps the provided afero filesystem
func NewFS(fs afero.Fs) *FS {
	return &FS{fs: fs, client: http.DefaultClient}
}

// Local is backed by the operating system's filesystem
var Local = NewFS(afero.NewOsFs())

// Afero returns the underlying afero filesystem
func (f *FS) Afero() afero.Fs {
	return f.fs
}

func isHTTP(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}

// Open opens a local or remote path for reading. Missing local files and
// missing remote objects are reported as ErrNotFound.
func (f *FS) Open(path string) (io.ReadCloser, error) {
	switch {
	case awsutil.IsS3URI(path):
		r, err := awsutil.NewS3Reader(path)
		if awsutil.IsNotFound(err) {
			return nil, errors.Wrapf(ErrNotFound, "%s", path)
		}
		return r, err
	case isHTTP(path):
		resp, err := f.client.Get(path)
		if err != nil {
			return nil, errors.Wrapf(err, "error getting %s", path)
		}
		if resp.StatusCode != http.StatusOK {
			defer resp.Body.Close()
			io.Copy(ioutil.Discard, resp.Body)
			if resp.StatusCode == http.StatusNotFound {
				return nil, errors.Wrapf(ErrNotFound, "%s", path)
			}
			return nil, errors.Errorf("error getting %s: status code %d", path, resp.StatusCode)
		}
		return resp.Body, nil
	}

	r, err := f.fs.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrapf(ErrNotFound, "%s", path)
	}
	return r, err
}

// Create opens a local or s3 path for writing. s3 paths are buffered on disk
// and uploaded on close, local parent directories are created as needed.
func (f *FS) Create(path string) (NamedWriteCloser, error) {
	if awsutil.IsS3URI(path) {
		return awsutil.NewBufferedS3Writer(path)
	}
	if isHTTP(path) {
		return nil, errors.Errorf("cannot write to %s", path)
	}
	if err := f.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	return f.fs.Create(path)
}

// Exists returns whether path exists. A HEAD request is used for http(s) paths.
func (f *FS) Exists(path string) (bool, error) {
	switch {
	case awsutil.IsS3URI(path):
		return awsutil.Exists(path)
	case isHTTP(path):
		resp, err := f.client.Head(path)
		if err != nil {
			return false, errors.Wrapf(err, "error checking %s", path)
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK, nil
	}
	return afero.Exists(f.fs, path)
}

// Rename moves a local file or s3 object. Both paths must use the same scheme.
func (f *FS) Rename(oldpath, newpath string) error {
	switch {
	case awsutil.IsS3URI(oldpath) && awsutil.IsS3URI(newpath):
		return awsutil.Rename(oldpath, newpath)
	case isHTTP(oldpath), isHTTP(newpath), awsutil.IsS3URI(oldpath), awsutil.IsS3URI(newpath):
		return errors.Errorf("cannot rename %s to %s", oldpath, newpath)
	}
	return f.fs.Rename(oldpath, newpath)
}

// Remove deletes a local file or s3 object
func (f *FS) Remove(path string) error {
	switch {
	case awsutil.IsS3URI(path):
		return awsutil.Remove(path)
	case isHTTP(path):
		return errors.Errorf("cannot remove %s", path)
	}
	return f.fs.Remove(path)
}

// ReadFile reads the contents of a local or remote path.
func ReadFile(fs FileSystem, path string) (data []byte, err error) {
	r, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer errors.Defer(&err, r.Close)

	return ioutil.ReadAll(r)
}

// WriteFile writes data to path. The file only appears once it is complete.
func WriteFile(fs FileSystem, path string, data []byte) (err error) {
	w, err := CreatePending(fs, path)
	if err != nil {
		return err
	}
	defer errors.Defer(&err, w.Abort)

	if _, err := w.Write(data); err != nil {
		return err
	}
	return w.Commit()
}
