package tokenize

import (
	"strings"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru"
	"github.com/kiteco/enzh-datagen/kite-golib/errors"
	"github.com/kiteco/enzh-datagen/kite-golib/fileutil"
	"github.com/kiteco/enzh-datagen/translate/vocab"
	"golang.org/x/text/unicode/norm"
)

// ErrUnencodable is returned (wrapped) when a word cannot be represented with the vocabulary
var ErrUnencodable = errors.New("word cannot be encoded")

// Options for an Encoder
type Options struct {
	// UnknownToken, if set, is used for words that cannot be encoded. It must be in the vocabulary.
	UnknownToken string `yaml:"unknown_token"`
	// Normalize applies NFKC normalization to text before splitting it. The vocabulary
	// should be counted with vocab.Options.Normalize so normalized words can match it.
	Normalize bool `yaml:"normalize"`
	// CacheSize is the number of word encodings to cache, 0 disables caching
	CacheSize int `yaml:"cache_size"`
}

// Encoder maps whitespace separated words to vocabulary ids. Words that are not in the
// vocabulary are split into the fewest in-vocabulary pieces.
type Encoder struct {
	vocab     *vocab.Vocabulary
	unknown   int
	normalize bool
	cache     *lru.Cache
}

// NewEncoder creates an encoder for v
func NewEncoder(v *vocab.Vocabulary, opts Options) (*Encoder, error) {
	e := &Encoder{
		vocab:     v,
		unknown:   -1,
		normalize: opts.Normalize,
	}

	if opts.UnknownToken != "" {
		id, ok := v.ID(opts.UnknownToken)
		if !ok {
			return nil, errors.Errorf("unknown token %q is not in the vocabulary", opts.UnknownToken)
		}
		e.unknown = id
	}

	if opts.CacheSize > 0 {
		cache, err := lru.New(opts.CacheSize)
		if err != nil {
			return nil, err
		}
		e.cache = cache
	}
	return e, nil
}

// Load creates an encoder from the vocabulary file at path
func Load(fs fileutil.FileSystem, path string, opts Options) (*Encoder, error) {
	v, err := vocab.Load(fs, path)
	if err != nil {
		return nil, err
	}
	return NewEncoder(v, opts)
}

// Vocab returns the vocabulary backing the encoder
func (e *Encoder) Vocab() *vocab.Vocabulary {
	return e.vocab
}

// Encode splits text on whitespace and encodes every word. The end of sequence id
// is not appended.
func (e *Encoder) Encode(text string) ([]int, error) {
	if e.normalize {
		text = norm.NFKC.String(text)
	}
	return e.EncodeWords(strings.Fields(text))
}

// EncodeWords encodes pre-split words
func (e *Encoder) EncodeWords(words []string) ([]int, error) {
	ids := make([]int, 0, len(words))
	for _, w := range words {
		enc, err := e.encodeWord(w)
		if err != nil {
			return nil, err
		}
		ids = append(ids, enc...)
	}
	return ids, nil
}

// Decode maps ids back to tokens joined by spaces. A trailing end of sequence id is dropped.
func (e *Encoder) Decode(ids []int) (string, error) {
	if n := len(ids); n > 0 && ids[n-1] == vocab.EOSID {
		ids = ids[:n-1]
	}
	toks := make([]string, 0, len(ids))
	for _, id := range ids {
		tok, ok := e.vocab.Token(id)
		if !ok {
			return "", errors.Errorf("id %d is out of range for vocabulary of size %d", id, e.vocab.Size())
		}
		toks = append(toks, tok)
	}
	return strings.Join(toks, " "), nil
}

func (e *Encoder) encodeWord(word string) ([]int, error) {
	if id, ok := e.lookup(word); ok {
		return []int{id}, nil
	}

	if e.cache != nil {
		if ids, ok := e.cache.Get(word); ok {
			return ids.([]int), nil
		}
	}

	ids := e.segment(word)
	if ids == nil {
		if e.unknown < 0 {
			return nil, errors.Wrapf(ErrUnencodable, "%q", word)
		}
		ids = []int{e.unknown}
	}

	if e.cache != nil {
		e.cache.Add(word, ids)
	}
	return ids, nil
}

// lookup never matches reserved tokens, so text cannot inject padding or end of sequence ids
func (e *Encoder) lookup(s string) (int, bool) {
	id, ok := e.vocab.ID(s)
	if !ok || id < len(vocab.Reserved) {
		return 0, false
	}
	return id, true
}

// segment splits word on rune boundaries into the fewest vocabulary entries,
// preferring a longer first piece on ties. It returns nil if no split exists.
func (e *Encoder) segment(word string) []int {
	offsets := make([]int, 0, len(word)+1)
	for i := range word {
		offsets = append(offsets, i)
	}
	offsets = append(offsets, len(word))
	n := len(offsets) - 1
	if n == 0 || !utf8.ValidString(word) {
		return nil
	}

	// best[i] is the fewest pieces needed to encode word[offsets[i]:], -1 if impossible
	best := make([]int, n+1)
	next := make([]int, n+1)
	for i := n - 1; i >= 0; i-- {
		best[i] = -1
		for j := n; j > i; j-- {
			if best[j] < 0 {
				continue
			}
			if _, ok := e.lookup(word[offsets[i]:offsets[j]]); !ok {
				continue
			}
			if best[i] < 0 || best[j]+1 < best[i] {
				best[i] = best[j] + 1
				next[i] = j
			}
		}
	}
	if best[0] < 0 {
		return nil
	}

	ids := make([]int, 0, best[0])
	for i := 0; i < n; i = next[i] {
		id, _ := e.lookup(word[offsets[i]:offsets[next[i]]])
		ids = append(ids, id)
	}
	return ids
}
