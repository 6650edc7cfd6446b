package main

import (
	"fmt"

	"github.com/kiteco/enzh-datagen/kite-golib/cmdline"
	"github.com/kiteco/enzh-datagen/kite-golib/errors"
	"github.com/kiteco/enzh-datagen/kite-golib/kitelog"
	"github.com/kiteco/enzh-datagen/kite-golib/serialization"
	"github.com/kiteco/enzh-datagen/translate/pipeline"
	"github.com/kiteco/enzh-datagen/translate/tokenize"
)

var encodeCmd = cmdline.Command{
	Name:     "encode",
	Synopsis: "encode aligned source and target files into samples",
	Args: &encodeArgs{
		Out:       "samples.jsonl",
		CacheSize: 1 << 16,
	},
}

type encodeArgs struct {
	logArgs
	Src       string `arg:"required" help:"source language file"`
	Tgt       string `arg:"required" help:"target language file, aligned by line with --src"`
	SrcVocab  string `arg:"--src-vocab,required" help:"source vocabulary"`
	TgtVocab  string `arg:"--tgt-vocab" help:"target vocabulary, defaults to the source vocabulary"`
	Out       string `help:"output file, the format follows the extension (.jsonl, .gob, optionally .gz or .sz)"`
	Unknown   string `help:"vocabulary token used for words that cannot be encoded"`
	Normalize bool   `help:"apply NFKC normalization before encoding"`
	CacheSize int    `arg:"--cache-size" help:"number of word encodings to cache"`
}

func (args *encodeArgs) options() tokenize.Options {
	return tokenize.Options{
		UnknownToken: args.Unknown,
		Normalize:    args.Normalize,
		CacheSize:    args.CacheSize,
	}
}

func (args *encodeArgs) Handle() error {
	logger, sync, err := args.logger()
	if err != nil {
		return err
	}
	defer sync()

	src, err := tokenize.Load(fs, args.SrcVocab, args.options())
	if err != nil {
		return err
	}
	tgt := src
	if args.TgtVocab != "" {
		if tgt, err = tokenize.Load(fs, args.TgtVocab, args.options()); err != nil {
			return err
		}
	}

	pairs, err := pipeline.NewTextPairs(fs, args.Src, args.Tgt)
	if err != nil {
		return err
	}
	n, err := writeSamples(pipeline.NewEncodedSamples(pairs, src, tgt), args.Out, logger)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "wrote %d samples to %s\n", n, args.Out)
	return nil
}

// writeSamples drains samples into out and logs their length statistics. out is
// only written if every sample was encoded.
func writeSamples(samples *pipeline.EncodedSamples, out string, logger kitelog.Interface) (int, error) {
	enc, err := serialization.NewEncoder(fs, out)
	if err != nil {
		return 0, errors.Combine(err, samples.Close())
	}

	var stats pipeline.LengthStats
	err = pipeline.Drain(samples, func(s pipeline.Sample) error {
		stats.Observe(s)
		return enc.Encode(s)
	})
	if err != nil {
		return 0, errors.Combine(err, enc.Abort())
	}
	if err := enc.Close(); err != nil {
		return 0, err
	}

	if stats.Count() > 0 {
		in, tgt, err := stats.Summary()
		if err != nil {
			return 0, err
		}
		logger.Printf("inputs: mean %.1f p50 %.0f p95 %.0f max %.0f", in.Mean, in.P50, in.P95, in.Max)
		logger.Printf("targets: mean %.1f p50 %.0f p95 %.0f max %.0f", tgt.Mean, tgt.P50, tgt.P95, tgt.Max)
	}
	return stats.Count(), nil
}
