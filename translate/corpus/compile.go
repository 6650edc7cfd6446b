package corpus

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/kiteco/enzh-datagen/kite-golib/errors"
	"github.com/kiteco/enzh-datagen/kite-golib/fileutil"
	"github.com/kiteco/enzh-datagen/kite-golib/kitelog"
	"github.com/sbwhitecap/tqdm"
	"github.com/sbwhitecap/tqdm/iterators"
)

// maxLineSize bounds a single corpus line; some UN corpus lines are very long
const maxLineSize = 16 * 1024 * 1024

// sgmSkip are the markup lines of an sgm file that carry no text
var sgmSkip = []string{"<srcset", "</srcset", "<refset", "</refset", "<doc", "</doc", "<p>", "</p>"}

// stripSGM returns the text of a <seg> line, or an empty string for markup lines
func stripSGM(line string) string {
	line = strings.TrimSpace(line)
	for _, prefix := range sgmSkip {
		if strings.HasPrefix(line, prefix) {
			return ""
		}
	}
	if strings.HasPrefix(line, "<seg") && strings.HasSuffix(line, "</seg>") {
		i := strings.Index(line, ">")
		return line[i+1 : len(line)-len("</seg>")]
	}
	return line
}

func isSGM(d Dataset) bool {
	return strings.HasSuffix(d.Lang1, "sgm") && strings.HasSuffix(d.Lang2, "sgm")
}

// Paths returns the two files Compile writes for base
func Paths(tmpDir, base string) (string, string) {
	filename := fileutil.Join(tmpDir, base)
	return filename + ".lang1", filename + ".lang2"
}

// Compile concatenates the aligned member files of datasets into base.lang1 and base.lang2
// under tmpDir, reducing sgm files to their segments and dropping pairs where either side
// is empty. If both outputs already exist nothing is done. Every dataset is fetched before
// any output is written, and the outputs only appear once every dataset was compiled.
func Compile(ctx context.Context, fs fileutil.FileSystem, fetcher Fetcher, tmpDir string, datasets []Dataset, base string, logger kitelog.Interface) (string, string, error) {
	if logger == nil {
		logger = kitelog.Discard
	}
	lang1, lang2 := Paths(tmpDir, base)

	exists1, err := fs.Exists(lang1)
	if err != nil {
		return "", "", err
	}
	exists2, err := fs.Exists(lang2)
	if err != nil {
		return "", "", err
	}
	if exists1 && exists2 {
		logger.Printf("skipping compile, data files already exist: %s, %s", lang1, lang2)
		return lang1, lang2, nil
	}

	for _, d := range datasets {
		if err := fetcher.Fetch(ctx, tmpDir, d); err != nil {
			return "", "", err
		}
	}

	if err := writePairs(ctx, fs, tmpDir, datasets, lang1, lang2, logger); err != nil {
		return "", "", err
	}
	return lang1, lang2, nil
}

func writePairs(ctx context.Context, fs fileutil.FileSystem, tmpDir string, datasets []Dataset, lang1, lang2 string, logger kitelog.Interface) (err error) {
	f1, err := fileutil.CreatePending(fs, lang1)
	if err != nil {
		return err
	}
	defer errors.Defer(&err, f1.Abort)
	f2, err := fileutil.CreatePending(fs, lang2)
	if err != nil {
		return err
	}
	defer errors.Defer(&err, f2.Abort)

	w1, w2 := bufio.NewWriter(f1), bufio.NewWriter(f2)
	var total int
	var compileErr error
	err = tqdm.With(iterators.Interval(0, len(datasets)), "compiling "+fileutil.Base(lang1), func(v interface{}) (brk bool) {
		d := datasets[v.(int)]
		n, aerr := appendPairs(ctx, fs, tmpDir, d, w1, w2)
		if aerr != nil {
			compileErr = aerr
			return true
		}
		total += n
		logger.Printf("compiled %d pairs from %s", n, d.Lang1)
		return false
	})
	if err := errors.Combine(compileErr, err); err != nil {
		return err
	}
	logger.Printf("compiled %d pairs into %s", total, lang1)

	if err := errors.Combine(w1.Flush(), w2.Flush()); err != nil {
		return err
	}
	if err := f1.Commit(); err != nil {
		return err
	}
	return f2.Commit()
}

func newScanner(r io.Reader) *bufio.Scanner {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), maxLineSize)
	return s
}

// appendPairs reads both member files until both are exhausted. Lines without a
// partner in the other file pair with an empty line and are dropped.
func appendPairs(ctx context.Context, fs fileutil.FileSystem, tmpDir string, d Dataset, w1, w2 *bufio.Writer) (n int, err error) {
	r1, err := fs.Open(fileutil.Join(tmpDir, d.Lang1))
	if err != nil {
		return 0, err
	}
	defer errors.Defer(&err, r1.Close)
	r2, err := fs.Open(fileutil.Join(tmpDir, d.Lang2))
	if err != nil {
		return 0, err
	}
	defer errors.Defer(&err, r2.Close)

	s1, s2 := newScanner(r1), newScanner(r2)
	sgm := isSGM(d)
	for {
		if err := ctx.Err(); err != nil {
			return n, err
		}

		ok1, ok2 := s1.Scan(), s2.Scan()
		if !ok1 && !ok2 {
			break
		}
		var in, out string
		if ok1 {
			in = strings.TrimSpace(s1.Text())
		}
		if ok2 {
			out = strings.TrimSpace(s2.Text())
		}
		if sgm {
			in, out = stripSGM(in), stripSGM(out)
		}
		if in == "" || out == "" {
			continue
		}

		if _, err := w1.WriteString(in + "\n"); err != nil {
			return n, err
		}
		if _, err := w2.WriteString(out + "\n"); err != nil {
			return n, err
		}
		n++
	}

	if err := s1.Err(); err != nil {
		return n, errors.Wrapf(err, "error reading %s", d.Lang1)
	}
	return n, errors.WrapfOrNil(s2.Err(), "error reading %s", d.Lang2)
}
