package main

import (
	"fmt"

	humanize "github.com/dustin/go-humanize"
	"github.com/kiteco/enzh-datagen/kite-golib/cmdline"
	"github.com/kiteco/enzh-datagen/kite-golib/errors"
	"github.com/kiteco/enzh-datagen/translate/vocab"
)

var buildVocabCmd = cmdline.Command{
	Name:     "build-vocab",
	Synopsis: "build a word frequency vocabulary from corpus files",
	Args: &buildVocabArgs{
		Size:   1 << 15,
		Budget: 1e8,
	},
}

type buildVocabArgs struct {
	logArgs
	Out       string   `arg:"positional,required" help:"vocabulary file to write, skipped if it exists"`
	Files     []string `arg:"positional,required" help:"corpus files, one sentence per line"`
	Size      int      `help:"number of tokens including the reserved ones"`
	Budget    int64    `help:"advisory size of a corpus file in bytes"`
	CountsCSV string   `arg:"--counts-csv" help:"also write word counts as csv when the vocabulary is generated"`
	Normalize bool     `help:"apply NFKC normalization before counting"`
}

func (args *buildVocabArgs) Validate() error {
	if args.Size < len(vocab.Reserved) {
		return errors.Errorf("--size must be at least %d", len(vocab.Reserved))
	}
	return nil
}

func (args *buildVocabArgs) Handle() error {
	logger, sync, err := args.logger()
	if err != nil {
		return err
	}
	defer sync()

	var files []vocab.File
	for _, f := range args.Files {
		files = append(files, vocab.File{Path: f})
	}
	opts := vocab.Options{
		Size:       args.Size,
		ByteBudget: args.Budget,
		Normalize:  args.Normalize,
		CountsCSV:  args.CountsCSV,
		Logger:     logger,
	}

	res, err := vocab.GetOrGenerate(fs, args.Out, files, opts)
	if err != nil {
		return err
	}
	if res.Skipped {
		fmt.Fprintf(stdout, "%s already exists\n", res.Path)
		return nil
	}
	fmt.Fprintf(stdout, "wrote %d tokens to %s from %s distinct words\n", res.Size, res.Path, humanize.Comma(int64(res.Words)))
	return nil
}
