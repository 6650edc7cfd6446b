package main

import (
	"fmt"

	"github.com/kiteco/enzh-datagen/kite-golib/cmdline"
	"github.com/kiteco/enzh-datagen/kite-golib/envutil"
	"github.com/kiteco/enzh-datagen/kite-golib/fileutil"
	"github.com/kiteco/enzh-datagen/kite-golib/kitelog"
	"github.com/kiteco/enzh-datagen/translate/corpus"
	"github.com/kiteco/enzh-datagen/translate/pipeline"
	"github.com/kiteco/enzh-datagen/translate/problem"
)

var datagenCmd = cmdline.Command{
	Name:     "datagen",
	Synopsis: "download, compile and encode the data of a problem",
	Args: &datagenArgs{
		Problem: "translate_enzh_wmt32k",
		DataDir: envutil.GetenvDefault("ENZH_DATA_DIR", "/tmp/t2t_data"),
		TmpDir:  envutil.GetenvDefault("ENZH_TMP_DIR", "/tmp/t2t_datagen"),
		Split:   string(problem.Train),
	},
}

type datagenArgs struct {
	logArgs
	Problem string `help:"registered problem name"`
	DataDir string `arg:"--data-dir" help:"directory for vocabularies and samples"`
	TmpDir  string `arg:"--tmp-dir" help:"directory for downloads and compiled corpora"`
	Split   string `help:"train or dev"`
	Out     string `help:"output file, defaults to <data-dir>/<filename base>.jsonl.gz"`
	Config  string `help:"yaml file with extra problem definitions"`
}

func (args *datagenArgs) Validate() error {
	_, err := problem.ParseSplit(args.Split)
	return err
}

func (args *datagenArgs) Handle() error {
	logger, sync, err := args.logger()
	if err != nil {
		return err
	}
	defer sync()

	if err := loadConfig(args.Config); err != nil {
		return err
	}
	p, err := problem.Lookup(args.Problem)
	if err != nil {
		return err
	}
	split, err := problem.ParseSplit(args.Split)
	if err != nil {
		return err
	}

	out := args.Out
	if out == "" {
		out = fileutil.Join(args.DataDir, p.FilenameBase(split)+".jsonl.gz")
	}

	ctx, cancel := signalContext()
	defer cancel()

	env := problem.Env{
		FS:      fs,
		Fetcher: corpus.NewArchiveFetcher(fs, logger),
		DataDir: args.DataDir,
		TmpDir:  args.TmpDir,
		Logger:  logger,
	}

	var durations kitelog.Durations
	defer durations.Flush(logger)

	var samples *pipeline.EncodedSamples
	err = durations.Time("prepare", func() error {
		var err error
		samples, err = p.GenerateEncodedSamples(ctx, env, split)
		return err
	})
	if err != nil {
		return err
	}

	var n int
	err = durations.Time("encode", func() error {
		var err error
		n, err = writeSamples(samples, out, logger)
		return err
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "wrote %d %s samples of %s to %s\n", n, split, p.Name, out)
	return nil
}
