package pipeline

import (
	"bufio"
	"io"
	"strings"

	"github.com/kiteco/enzh-datagen/kite-golib/errors"
	"github.com/kiteco/enzh-datagen/kite-golib/fileutil"
)

const maxLineSize = 16 * 1024 * 1024

// ErrMisaligned is returned once the aligned lines are exhausted if one of the
// parallel files still has lines left.
var ErrMisaligned = errors.New("parallel files have different line counts")

// TextPair is line i of the source file and line i of the target file
type TextPair struct {
	Inputs  string
	Targets string
}

// TextPairs lazily reads two aligned files line by line. It yields every aligned pair
// and then fails with ErrMisaligned if the files have different lengths.
type TextPairs struct {
	fs       fileutil.FileSystem
	paths    [2]string
	files    [2]io.ReadCloser
	scanners [2]*bufio.Scanner

	pair TextPair
	line int
	err  error
}

// NewTextPairs opens lang1 (inputs) and lang2 (targets)
func NewTextPairs(fs fileutil.FileSystem, lang1, lang2 string) (*TextPairs, error) {
	t := &TextPairs{
		fs:    fs,
		paths: [2]string{lang1, lang2},
	}
	if err := t.open(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *TextPairs) open() error {
	for i, path := range t.paths {
		f, err := t.fs.Open(path)
		if err != nil {
			t.Close()
			return err
		}
		s := bufio.NewScanner(f)
		s.Buffer(make([]byte, 64*1024), maxLineSize)
		t.files[i] = f
		t.scanners[i] = s
	}
	return nil
}

// Next advances to the next pair, returning false at the end of input or on error
func (t *TextPairs) Next() bool {
	if t.err != nil || t.scanners[0] == nil {
		return false
	}

	ok1 := t.scanners[0].Scan()
	ok2 := t.scanners[1].Scan()
	if ok1 && ok2 {
		t.line++
		t.pair = TextPair{
			Inputs:  strings.TrimSpace(t.scanners[0].Text()),
			Targets: strings.TrimSpace(t.scanners[1].Text()),
		}
		return true
	}

	for i, s := range t.scanners {
		if err := s.Err(); err != nil {
			t.err = errors.Wrapf(err, "error reading %s", t.paths[i])
			return false
		}
	}
	if ok1 != ok2 {
		longer := t.paths[0]
		if ok2 {
			longer = t.paths[1]
		}
		t.err = errors.Wrapf(ErrMisaligned, "%s has more than %d lines", longer, t.line)
	}
	return false
}

// Pair returns the current pair
func (t *TextPairs) Pair() TextPair {
	return t.pair
}

// Line returns the 1-based line number of the current pair
func (t *TextPairs) Line() int {
	return t.line
}

// Err returns the error that stopped iteration, if any
func (t *TextPairs) Err() error {
	return t.err
}

// Close closes both files
func (t *TextPairs) Close() error {
	var err error
	for i, f := range t.files {
		if f != nil {
			err = errors.Combine(err, f.Close())
		}
		t.files[i] = nil
		t.scanners[i] = nil
	}
	return err
}

// Reset closes and re-opens both files so iteration starts over
func (t *TextPairs) Reset() error {
	if err := t.Close(); err != nil {
		return err
	}
	t.pair = TextPair{}
	t.line = 0
	t.err = nil
	return t.open()
}
