package vocab

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/kiteco/enzh-datagen/kite-golib/errors"
	"github.com/kiteco/enzh-datagen/kite-golib/fileutil"
)

// Reserved tokens always occupy the lowest ids of every vocabulary, in this order.
var Reserved = []string{"<pad>", "<EOS>"}

const (
	// PadID is the id of the padding token
	PadID = 0
	// EOSID is the id appended to every encoded sequence
	EOSID = 1
)

// Vocabulary is an ordered list of distinct tokens, the id of a token is its index.
type Vocabulary struct {
	tokens []string
	ids    map[string]int
}

// New builds a vocabulary from tokens. Tokens must be distinct and must start
// with the reserved tokens.
func New(tokens []string) (*Vocabulary, error) {
	if len(tokens) < len(Reserved) {
		return nil, errors.Errorf("vocabulary has %d tokens, need at least the %d reserved ones", len(tokens), len(Reserved))
	}
	for i, r := range Reserved {
		if tokens[i] != r {
			return nil, errors.Errorf("token %d is %q, expected reserved token %q", i, tokens[i], r)
		}
	}

	ids := make(map[string]int, len(tokens))
	for i, t := range tokens {
		if _, ok := ids[t]; ok {
			return nil, errors.Errorf("duplicate token %q at line %d", t, i+1)
		}
		ids[t] = i
	}
	return &Vocabulary{tokens: tokens, ids: ids}, nil
}

// Size returns the number of tokens, including reserved ones
func (v *Vocabulary) Size() int {
	return len(v.tokens)
}

// Tokens returns the tokens ordered by id
func (v *Vocabulary) Tokens() []string {
	return append([]string(nil), v.tokens...)
}

// ID returns the id of a token
func (v *Vocabulary) ID(token string) (int, bool) {
	id, ok := v.ids[token]
	return id, ok
}

// Token returns the token for an id
func (v *Vocabulary) Token(id int) (string, bool) {
	if id < 0 || id >= len(v.tokens) {
		return "", false
	}
	return v.tokens[id], true
}

// WriteTo writes one token per line, each wrapped in single quotes
func (v *Vocabulary) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var n int64
	for _, t := range v.tokens {
		m, err := fmt.Fprintf(bw, "'%s'\n", t)
		n += int64(m)
		if err != nil {
			return n, err
		}
	}
	return n, bw.Flush()
}

// Read parses a vocabulary file. Surrounding single or double quotes are removed
// and blank lines are skipped.
func Read(r io.Reader) (*Vocabulary, error) {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), maxLineSize)

	var tokens []string
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" {
			continue
		}
		tokens = append(tokens, unquote(line))
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return New(tokens)
}

func unquote(line string) string {
	if len(line) < 2 {
		return line
	}
	first, last := line[0], line[len(line)-1]
	if first == last && (first == '\'' || first == '"') {
		return line[1 : len(line)-1]
	}
	return line
}

// Load reads the vocabulary file at path
func Load(fs fileutil.FileSystem, path string) (v *Vocabulary, err error) {
	r, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer errors.Defer(&err, r.Close)

	v, err = Read(r)
	return v, errors.WrapfOrNil(err, "error reading vocabulary %s", path)
}

// Save writes v to path. Nothing appears at path unless the whole vocabulary was written.
func Save(fs fileutil.FileSystem, path string, v *Vocabulary) (err error) {
	w, err := fileutil.CreatePending(fs, path)
	if err != nil {
		return errors.Wrapf(err, "error creating vocabulary %s", path)
	}
	defer errors.Defer(&err, w.Abort)

	if _, err := v.WriteTo(w); err != nil {
		return errors.Wrapf(err, "error writing vocabulary %s", path)
	}
	return w.Commit()
}
