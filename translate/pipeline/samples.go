package pipeline

import (
	"github.com/kiteco/enzh-datagen/kite-golib/errors"
	"github.com/kiteco/enzh-datagen/translate/vocab"
)

// Sample is an encoded example. Both sequences end with vocab.EOSID.
type Sample struct {
	Inputs  []int `json:"inputs"`
	Targets []int `json:"targets"`
}

// TextEncoder turns a line of text into token ids
type TextEncoder interface {
	Encode(text string) ([]int, error)
}

// Pairs is a restartable stream of text pairs, see TextPairs
type Pairs interface {
	Next() bool
	Pair() TextPair
	Err() error
	Close() error
	Reset() error
}

// EncodedSamples lazily encodes text pairs, one Sample per pair in input order
type EncodedSamples struct {
	pairs  Pairs
	src    TextEncoder
	tgt    TextEncoder
	sample Sample
	count  int
	err    error
}

// NewEncodedSamples encodes inputs with src and targets with tgt, which may be the same encoder
func NewEncodedSamples(pairs Pairs, src, tgt TextEncoder) *EncodedSamples {
	if tgt == nil {
		tgt = src
	}
	return &EncodedSamples{
		pairs: pairs,
		src:   src,
		tgt:   tgt,
	}
}

// Next encodes the next pair. Encoding errors stop iteration and are returned by Err.
func (e *EncodedSamples) Next() bool {
	if e.err != nil || !e.pairs.Next() {
		return false
	}
	e.count++

	p := e.pairs.Pair()
	inputs, err := e.src.Encode(p.Inputs)
	if err != nil {
		e.err = errors.Wrapf(err, "error encoding inputs of pair %d", e.count)
		return false
	}
	targets, err := e.tgt.Encode(p.Targets)
	if err != nil {
		e.err = errors.Wrapf(err, "error encoding targets of pair %d", e.count)
		return false
	}

	e.sample = Sample{
		Inputs:  append(inputs, vocab.EOSID),
		Targets: append(targets, vocab.EOSID),
	}
	return true
}

// Sample returns the current sample
func (e *EncodedSamples) Sample() Sample {
	return e.sample
}

// Count returns the number of pairs consumed so far
func (e *EncodedSamples) Count() int {
	return e.count
}

// Err returns the error that stopped iteration, if any
func (e *EncodedSamples) Err() error {
	if e.err != nil {
		return e.err
	}
	return e.pairs.Err()
}

// Close releases the underlying files
func (e *EncodedSamples) Close() error {
	return e.pairs.Close()
}

// Reset restarts iteration from the first pair
func (e *EncodedSamples) Reset() error {
	e.sample = Sample{}
	e.count = 0
	e.err = nil
	return e.pairs.Reset()
}

// Drain passes every sample to fn and closes the stream, whatever the outcome
func Drain(samples *EncodedSamples, fn func(Sample) error) (err error) {
	defer errors.Defer(&err, samples.Close)

	for samples.Next() {
		if err := fn(samples.Sample()); err != nil {
			return err
		}
	}
	return samples.Err()
}
