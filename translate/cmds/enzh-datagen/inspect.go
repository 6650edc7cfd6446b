package main

import (
	"fmt"

	"github.com/kiteco/enzh-datagen/kite-golib/cmdline"
	"github.com/kiteco/enzh-datagen/kite-golib/serialization"
	"github.com/kiteco/enzh-datagen/translate/pipeline"
	"github.com/kiteco/enzh-datagen/translate/tokenize"
)

var inspectCmd = cmdline.Command{
	Name:     "inspect",
	Synopsis: "decode samples back to text",
	Args: &inspectArgs{
		Limit: 10,
	},
}

type inspectArgs struct {
	In       string `arg:"positional,required" help:"samples written by encode or datagen"`
	SrcVocab string `arg:"--src-vocab,required" help:"source vocabulary"`
	TgtVocab string `arg:"--tgt-vocab" help:"target vocabulary, defaults to the source vocabulary"`
	Limit    int    `help:"number of samples to print, 0 prints all"`
}

func (args *inspectArgs) Handle() error {
	src, err := tokenize.Load(fs, args.SrcVocab, tokenize.Options{})
	if err != nil {
		return err
	}
	tgt := src
	if args.TgtVocab != "" {
		if tgt, err = tokenize.Load(fs, args.TgtVocab, tokenize.Options{}); err != nil {
			return err
		}
	}

	var n int
	return serialization.Decode(fs, args.In, func(s *pipeline.Sample) error {
		in, err := src.Decode(s.Inputs)
		if err != nil {
			return err
		}
		out, err := tgt.Decode(s.Targets)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%s\t%s\n", in, out)

		n++
		if args.Limit > 0 && n >= args.Limit {
			return serialization.ErrStop
		}
		return nil
	})
}
