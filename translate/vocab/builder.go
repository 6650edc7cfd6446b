package vocab

import (
	"io"
	"time"

	humanize "github.com/dustin/go-humanize"
	"github.com/kiteco/enzh-datagen/kite-golib/errors"
	"github.com/kiteco/enzh-datagen/kite-golib/fileutil"
	"github.com/kiteco/enzh-datagen/kite-golib/kitelog"
	"golang.org/x/text/unicode/norm"
)

// ErrInvalidSize is returned when the target size cannot hold the reserved tokens
var ErrInvalidSize = errors.New("invalid vocabulary size")

// Role identifies which side of a language pair a corpus file holds
type Role int

const (
	// AnyRole matches files of every role
	AnyRole Role = iota
	// SourceRole marks files in the input language
	SourceRole
	// TargetRole marks files in the output language
	TargetRole
)

func (r Role) String() string {
	switch r {
	case SourceRole:
		return "source"
	case TargetRole:
		return "target"
	}
	return "any"
}

// File is a corpus file and the side of the language pair it holds
type File struct {
	Path string
	Role Role
}

// Options for building a vocabulary
type Options struct {
	// Size is the total number of tokens, reserved tokens included
	Size int
	// Role restricts counting to files of that role, AnyRole counts every file
	Role Role
	// ByteBudget is advisory: files larger than this are reported but read in full
	ByteBudget int64
	// Normalize applies NFKC normalization before counting, matching an encoder
	// built with tokenize.Options.Normalize
	Normalize bool
	// CountsCSV, if set, is the path the word counts are written to as csv. It is only
	// written when the vocabulary is generated.
	CountsCSV string
	Logger    kitelog.Interface
}

// Result describes the outcome of GetOrGenerate
type Result struct {
	Path    string
	Skipped bool
	Size    int
	Words   int
}

// Select returns the reserved tokens followed by the most frequent words, truncated
// so the vocabulary holds at most size tokens. Words equal to a reserved token are
// not selected twice.
func Select(counts Counts, size int) (*Vocabulary, error) {
	if size < len(Reserved) {
		return nil, errors.Wrapf(ErrInvalidSize, "size %d is smaller than the %d reserved tokens", size, len(Reserved))
	}

	reserved := make(map[string]bool, len(Reserved))
	tokens := make([]string, 0, size)
	for _, r := range Reserved {
		reserved[r] = true
		tokens = append(tokens, r)
	}

	for _, e := range counts.Sorted() {
		if len(tokens) >= size {
			break
		}
		if reserved[e.Word] {
			continue
		}
		tokens = append(tokens, e.Word)
	}
	return New(tokens)
}

// Builder accumulates word counts from corpus files
type Builder struct {
	fs     fileutil.FileSystem
	opts   Options
	counts Counts
	bytes  int64
}

// NewBuilder creates a builder reading files through fs
func NewBuilder(fs fileutil.FileSystem, opts Options) *Builder {
	if opts.Logger == nil {
		opts.Logger = kitelog.Discard
	}
	return &Builder{
		fs:     fs,
		opts:   opts,
		counts: make(Counts),
	}
}

// Add counts words directly
func (b *Builder) Add(words []string) {
	for _, w := range words {
		b.counts.Hit(w, 1)
	}
}

// AddFile counts every word of the file, if its role matches the builder's
func (b *Builder) AddFile(f File) (err error) {
	if b.opts.Role != AnyRole && f.Role != b.opts.Role {
		return nil
	}

	b.opts.Logger.Printf("reading %s file %s for vocab", f.Role, f.Path)
	r, err := b.fs.Open(f.Path)
	if err != nil {
		return err
	}
	defer errors.Defer(&err, r.Close)

	var src io.Reader = r
	if b.opts.Normalize {
		src = norm.NFKC.Reader(r)
	}
	n, err := b.counts.AddLines(src)
	if err != nil {
		return errors.Wrapf(err, "error reading %s", f.Path)
	}
	b.bytes += n

	if b.opts.ByteBudget > 0 && n > b.opts.ByteBudget {
		b.opts.Logger.Printf("%s is %s, over the advisory budget of %s",
			f.Path, humanize.Bytes(uint64(n)), humanize.Bytes(uint64(b.opts.ByteBudget)))
	}
	return nil
}

// Counts returns the words counted so far
func (b *Builder) Counts() Counts {
	return b.counts
}

// Vocab selects the vocabulary from the words counted so far
func (b *Builder) Vocab() (*Vocabulary, error) {
	return Select(b.counts, b.opts.Size)
}

func saveCounts(fs fileutil.FileSystem, path string, counts Counts) (err error) {
	w, err := fileutil.CreatePending(fs, path)
	if err != nil {
		return err
	}
	defer errors.Defer(&err, w.Abort)

	if err := counts.WriteCSV(w); err != nil {
		return errors.Wrapf(err, "error writing word counts to %s", path)
	}
	return w.Commit()
}

// GetOrGenerate writes a vocabulary built from files to path. If path already exists
// nothing is read or written and the result is marked as skipped. Every file is
// counted before the destination is written, and the vocabulary only appears at path
// once it is complete, so a failed run leaves no output the next run would accept.
func GetOrGenerate(fs fileutil.FileSystem, path string, files []File, opts Options) (Result, error) {
	if opts.Logger == nil {
		opts.Logger = kitelog.Discard
	}

	exists, err := fs.Exists(path)
	if err != nil {
		return Result{}, errors.Wrapf(err, "error checking %s", path)
	}
	if exists {
		opts.Logger.Printf("already found vocab file %s, not creating", path)
		return Result{Path: path, Skipped: true}, nil
	}
	if opts.Size < len(Reserved) {
		return Result{}, errors.Wrapf(ErrInvalidSize, "size %d is smaller than the %d reserved tokens", opts.Size, len(Reserved))
	}

	start := time.Now()
	b := NewBuilder(fs, opts)
	for _, f := range files {
		if err := b.AddFile(f); err != nil {
			return Result{}, err
		}
	}

	v, err := b.Vocab()
	if err != nil {
		return Result{}, err
	}

	if opts.CountsCSV != "" {
		if err := saveCounts(fs, opts.CountsCSV, b.counts); err != nil {
			return Result{}, err
		}
	}

	opts.Logger.Printf("generating vocab file %s: %s distinct words, %s read, %d tokens",
		path, humanize.Comma(int64(len(b.counts))), humanize.Bytes(uint64(b.bytes)), v.Size())
	if err := Save(fs, path, v); err != nil {
		return Result{}, err
	}
	opts.Logger.Printf("wrote %s in %s", path, time.Since(start))

	return Result{Path: path, Size: v.Size(), Words: len(b.counts)}, nil
}
