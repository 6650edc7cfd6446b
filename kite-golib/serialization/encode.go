package serialization

import (
	"compress/gzip"
	"encoding/gob"
	"encoding/json"
	"io"
	"strings"

	"github.com/golang/snappy"
	"github.com/kiteco/enzh-datagen/kite-golib/errors"
	"github.com/kiteco/enzh-datagen/kite-golib/fileutil"
)

// Encoder is an interface that matches gob.Encoder and json.Encoder
type Encoder interface {
	// Encode adds an item to the stream
	Encode(interface{}) error
}

// EncodeCloser is an encoder that can also close its underlying stream. The file
// only appears at its path once Close succeeds.
type EncodeCloser struct {
	encoder Encoder
	closers []io.Closer
	file    *fileutil.PendingFile
}

// Encode writes an object to the underlying stream
func (e *EncodeCloser) Encode(x interface{}) error {
	return e.encoder.Encode(x)
}

func (e *EncodeCloser) closeStreams() error {
	var closeErr error
	// We must close in reverse order
	for i := len(e.closers) - 1; i >= 0; i-- {
		closeErr = errors.Combine(closeErr, e.closers[i].Close())
	}
	e.closers = nil
	return closeErr
}

// Close flushes the underlying stream and moves the file to its path
func (e *EncodeCloser) Close() error {
	if err := e.closeStreams(); err != nil {
		return errors.Combine(err, e.file.Abort())
	}
	return e.file.Commit()
}

// Abort discards everything written so far
func (e *EncodeCloser) Abort() error {
	return errors.Combine(e.closeStreams(), e.file.Abort())
}

// NewEncoder opens the specified path and returns an encoder that writes in the format
// specified by the file extension, which can be .json (one object per line) or .gob.
// The path may additionally have a .gz or .sz suffix, in which case the stream will be
// compressed with gzip or snappy respectively.
func NewEncoder(fs fileutil.FileSystem, path string) (*EncodeCloser, error) {
	format, compression := splitExt(path)
	if format == "" {
		return nil, errors.Errorf("could not find encoder for %s", path)
	}

	f, err := fileutil.CreatePending(fs, path)
	if err != nil {
		return nil, err
	}
	var w io.Writer = f
	var closers []io.Closer

	switch compression {
	case ".gz":
		gz := gzip.NewWriter(w)
		w, closers = gz, append(closers, gz)
	case ".sz":
		sz := snappy.NewBufferedWriter(w)
		w, closers = sz, append(closers, sz)
	}

	var e Encoder
	switch format {
	case ".json":
		e = json.NewEncoder(w)
	case ".gob":
		e = gob.NewEncoder(w)
	}

	return &EncodeCloser{
		encoder: e,
		closers: closers,
		file:    f,
	}, nil
}

// splitExt returns the encoding extension and the (possibly empty) compression extension
func splitExt(path string) (string, string) {
	var compression string
	for _, ext := range []string{".gz", ".sz"} {
		if strings.HasSuffix(path, ext) {
			compression = ext
			path = strings.TrimSuffix(path, ext)
			break
		}
	}

	switch {
	case strings.HasSuffix(path, ".json"), strings.HasSuffix(path, ".jsonl"):
		return ".json", compression
	case strings.HasSuffix(path, ".gob"):
		return ".gob", compression
	}
	return "", compression
}
