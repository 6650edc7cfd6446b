package problem

import (
	"context"
	"fmt"

	"github.com/kiteco/enzh-datagen/kite-golib/errors"
	"github.com/kiteco/enzh-datagen/kite-golib/fileutil"
	"github.com/kiteco/enzh-datagen/kite-golib/kitelog"
	"github.com/kiteco/enzh-datagen/translate/corpus"
	"github.com/kiteco/enzh-datagen/translate/pipeline"
	"github.com/kiteco/enzh-datagen/translate/tokenize"
	"github.com/kiteco/enzh-datagen/translate/vocab"
)

// Split names a partition of a problem's data
type Split string

const (
	// Train is the training split
	Train Split = "train"
	// Dev is the evaluation split
	Dev Split = "dev"
)

// ParseSplit validates a split name
func ParseSplit(s string) (Split, error) {
	switch Split(s) {
	case Train, Dev:
		return Split(s), nil
	}
	return "", errors.Errorf("unknown split %q, expected %s or %s", s, Train, Dev)
}

// Problem describes an English to Chinese translation dataset and how to encode it.
// The vocabulary names are format strings receiving ApproxVocabSize.
type Problem struct {
	Name            string             `yaml:"name"`
	ApproxVocabSize int                `yaml:"approx_vocab_size"`
	SourceVocabName string             `yaml:"source_vocab_name"`
	TargetVocabName string             `yaml:"target_vocab_name"`
	FilenamePrefix  string             `yaml:"filename_prefix"`
	Train           []corpus.Dataset   `yaml:"train"`
	Optional        [][]corpus.Dataset `yaml:"optional"`
	Dev             []corpus.Dataset   `yaml:"dev"`
	VocabByteBudget int64              `yaml:"vocab_byte_budget"`
	Encoder         tokenize.Options   `yaml:"encoder"`
}

// Env holds the locations and services a problem generates data with
type Env struct {
	FS      fileutil.FileSystem
	Fetcher corpus.Fetcher
	DataDir string
	TmpDir  string
	Logger  kitelog.Interface
}

func (e Env) logger() kitelog.Interface {
	if e.Logger == nil {
		return kitelog.Discard
	}
	return e.Logger
}

// Validate checks the problem can generate data
func (p *Problem) Validate() error {
	switch {
	case p.Name == "":
		return errors.New("problem has no name")
	case p.ApproxVocabSize < len(vocab.Reserved):
		return errors.Wrapf(vocab.ErrInvalidSize, "%s: vocab size %d", p.Name, p.ApproxVocabSize)
	case p.SourceVocabName == "" || p.TargetVocabName == "":
		return errors.Errorf("%s: missing vocab names", p.Name)
	case p.FilenamePrefix == "":
		return errors.Errorf("%s: missing filename prefix", p.Name)
	case len(p.Train) == 0 || len(p.Dev) == 0:
		return errors.Errorf("%s: train and dev datasets are required", p.Name)
	}
	return nil
}

// SourceVocabFile is the file name of the input vocabulary
func (p *Problem) SourceVocabFile() string {
	return fmt.Sprintf(p.SourceVocabName, p.ApproxVocabSize)
}

// TargetVocabFile is the file name of the output vocabulary
func (p *Problem) TargetVocabFile() string {
	return fmt.Sprintf(p.TargetVocabName, p.ApproxVocabSize)
}

// FilenameBase is the base name of the compiled files of a split
func (p *Problem) FilenameBase(split Split) string {
	return fmt.Sprintf("%s_%dk_tok_%s", p.FilenamePrefix, p.ApproxVocabSize, split)
}

// TrainingDatasets returns the training datasets, plus every optional group whose
// archive has been placed in tmpDir
func (p *Problem) TrainingDatasets(fs fileutil.FileSystem, tmpDir string) ([]corpus.Dataset, error) {
	datasets := append([]corpus.Dataset{}, p.Train...)
	for _, group := range p.Optional {
		if len(group) == 0 {
			continue
		}
		name := group[0].ArchiveName()
		if name == "" {
			continue
		}
		ok, err := fs.Exists(fileutil.Join(tmpDir, name))
		if err != nil {
			return nil, err
		}
		if ok {
			datasets = append(datasets, group...)
		}
	}
	return datasets, nil
}

// Datasets returns the datasets of a split
func (p *Problem) Datasets(fs fileutil.FileSystem, tmpDir string, split Split) ([]corpus.Dataset, error) {
	switch split {
	case Train:
		return p.TrainingDatasets(fs, tmpDir)
	case Dev:
		return p.Dev, nil
	}
	return nil, errors.Errorf("unknown split %q", split)
}

// SharedVocab reports whether inputs and targets use the same vocabulary file
func (p *Problem) SharedVocab() bool {
	return p.SourceVocabFile() == p.TargetVocabFile()
}

// GenerateVocabs builds the source and target vocabularies from the training datasets
// unless they already exist in the data dir, and returns encoders for them. A shared
// vocabulary is built once from both sides.
func (p *Problem) GenerateVocabs(ctx context.Context, env Env) (*tokenize.Encoder, *tokenize.Encoder, error) {
	datasets, err := p.TrainingDatasets(env.FS, env.TmpDir)
	if err != nil {
		return nil, nil, err
	}

	var files []vocab.File
	for _, d := range datasets {
		if err := env.Fetcher.Fetch(ctx, env.TmpDir, d); err != nil {
			return nil, nil, err
		}
		files = append(files,
			vocab.File{Path: fileutil.Join(env.TmpDir, d.File(vocab.SourceRole)), Role: vocab.SourceRole},
			vocab.File{Path: fileutil.Join(env.TmpDir, d.File(vocab.TargetRole)), Role: vocab.TargetRole},
		)
	}

	opts := vocab.Options{
		Size:       p.ApproxVocabSize,
		ByteBudget: p.VocabByteBudget,
		Normalize:  p.Encoder.Normalize,
		Logger:     env.logger(),
	}

	if p.SharedVocab() {
		opts.Role = vocab.AnyRole
		if _, err := vocab.GetOrGenerate(env.FS, fileutil.Join(env.DataDir, p.SourceVocabFile()), files, opts); err != nil {
			return nil, nil, errors.Wrapf(err, "error generating shared vocab for %s", p.Name)
		}
	} else {
		opts.Role = vocab.SourceRole
		if _, err := vocab.GetOrGenerate(env.FS, fileutil.Join(env.DataDir, p.SourceVocabFile()), files, opts); err != nil {
			return nil, nil, errors.Wrapf(err, "error generating source vocab for %s", p.Name)
		}
		opts.Role = vocab.TargetRole
		if _, err := vocab.GetOrGenerate(env.FS, fileutil.Join(env.DataDir, p.TargetVocabFile()), files, opts); err != nil {
			return nil, nil, errors.Wrapf(err, "error generating target vocab for %s", p.Name)
		}
	}

	encoders, err := p.FeatureEncoders(env.FS, env.DataDir)
	if err != nil {
		return nil, nil, err
	}
	return encoders["inputs"], encoders["targets"], nil
}

// GenerateEncodedSamples generates the vocabularies, compiles the split's datasets
// and returns the lazily encoded samples. The caller must close them.
func (p *Problem) GenerateEncodedSamples(ctx context.Context, env Env, split Split) (*pipeline.EncodedSamples, error) {
	src, tgt, err := p.GenerateVocabs(ctx, env)
	if err != nil {
		return nil, err
	}

	datasets, err := p.Datasets(env.FS, env.TmpDir, split)
	if err != nil {
		return nil, err
	}
	lang1, lang2, err := corpus.Compile(ctx, env.FS, env.Fetcher, env.TmpDir, datasets, p.FilenameBase(split), env.logger())
	if err != nil {
		return nil, err
	}

	pairs, err := pipeline.NewTextPairs(env.FS, lang1, lang2)
	if err != nil {
		return nil, err
	}
	return pipeline.NewEncodedSamples(pairs, src, tgt), nil
}

// FeatureEncoders loads the encoders of the "inputs" and "targets" features from dataDir
func (p *Problem) FeatureEncoders(fs fileutil.FileSystem, dataDir string) (map[string]*tokenize.Encoder, error) {
	src, err := tokenize.Load(fs, fileutil.Join(dataDir, p.SourceVocabFile()), p.Encoder)
	if err != nil {
		return nil, err
	}
	tgt := src
	if !p.SharedVocab() {
		if tgt, err = tokenize.Load(fs, fileutil.Join(dataDir, p.TargetVocabFile()), p.Encoder); err != nil {
			return nil, err
		}
	}
	return map[string]*tokenize.Encoder{
		"inputs":  src,
		"targets": tgt,
	}, nil
}
