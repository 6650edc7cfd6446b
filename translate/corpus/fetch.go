package corpus

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	humanize "github.com/dustin/go-humanize"
	"github.com/kiteco/enzh-datagen/kite-golib/errors"
	"github.com/kiteco/enzh-datagen/kite-golib/fileutil"
	"github.com/kiteco/enzh-datagen/kite-golib/kitelog"
	"github.com/mholt/archiver"
)

// Fetcher makes sure the member files of a dataset exist under tmpDir
type Fetcher interface {
	Fetch(ctx context.Context, tmpDir string, d Dataset) error
}

// ArchiveFetcher downloads dataset archives and extracts them on the local disk.
// Archives are read through Source, so URLs may be http(s), s3 or local paths.
type ArchiveFetcher struct {
	Source fileutil.FileSystem
	Logger kitelog.Interface
}

// NewArchiveFetcher creates a fetcher reading archives through source
func NewArchiveFetcher(source fileutil.FileSystem, logger kitelog.Interface) *ArchiveFetcher {
	if logger == nil {
		logger = kitelog.Discard
	}
	return &ArchiveFetcher{Source: source, Logger: logger}
}

func fileExists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && !fi.IsDir()
}

func (f *ArchiveFetcher) membersExist(tmpDir string, d Dataset) bool {
	return fileExists(filepath.Join(tmpDir, d.Lang1)) && fileExists(filepath.Join(tmpDir, d.Lang2))
}

// Fetch downloads the archive unless it is already in tmpDir, then extracts it.
// Nothing is done if both member files already exist.
func (f *ArchiveFetcher) Fetch(ctx context.Context, tmpDir string, d Dataset) error {
	if f.membersExist(tmpDir, d) {
		return nil
	}
	if d.URL == "" {
		return errors.Wrapf(fileutil.ErrNotFound, "%s and %s must be placed in %s manually", d.Lang1, d.Lang2, tmpDir)
	}

	archive := filepath.Join(tmpDir, d.ArchiveName())
	if !fileExists(archive) {
		if err := f.download(ctx, d.URL, archive); err != nil {
			return err
		}
	}

	if err := extract(archive, tmpDir); err != nil {
		return err
	}
	f.Logger.Printf("extracted %s into %s", archive, tmpDir)

	if !f.membersExist(tmpDir, d) {
		return errors.Wrapf(fileutil.ErrNotFound, "%s does not contain %s and %s", archive, d.Lang1, d.Lang2)
	}
	return nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

// download copies url to dest, going through a temporary file so an interrupted
// download never looks complete
func (f *ArchiveFetcher) download(ctx context.Context, url, dest string) (err error) {
	f.Logger.Printf("downloading %s to %s", url, dest)
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}

	r, err := f.Source.Open(url)
	if err != nil {
		return err
	}
	defer errors.Defer(&err, r.Close)

	tmp := dest + ".incomplete"
	w, err := os.Create(tmp)
	if err != nil {
		return err
	}

	n, err := io.Copy(w, ctxReader{ctx: ctx, r: r})
	err = errors.Combine(err, w.Close())
	if err != nil {
		os.Remove(tmp)
		return errors.Wrapf(err, "error downloading %s", url)
	}

	f.Logger.Printf("downloaded %s (%s)", url, humanize.Bytes(uint64(n)))
	return os.Rename(tmp, dest)
}

type unarchiver interface {
	Unarchive(source, destination string) error
}

func extract(archive, dir string) error {
	var u unarchiver
	switch {
	case strings.HasSuffix(archive, ".tgz"), strings.HasSuffix(archive, ".tar.gz"):
		tgz := archiver.NewTarGz()
		tgz.OverwriteExisting = true
		tgz.MkdirAll = true
		u = tgz
	case strings.HasSuffix(archive, ".tar"):
		tar := archiver.NewTar()
		tar.OverwriteExisting = true
		tar.MkdirAll = true
		u = tar
	default:
		return errors.Errorf("unsupported archive format: %s", archive)
	}
	return errors.WrapfOrNil(u.Unarchive(archive, dir), "error extracting %s", archive)
}
