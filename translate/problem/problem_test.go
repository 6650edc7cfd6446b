package problem

import (
	"context"
	"strings"
	"testing"

	"github.com/kiteco/enzh-datagen/kite-golib/errors"
	"github.com/kiteco/enzh-datagen/kite-golib/fileutil"
	"github.com/kiteco/enzh-datagen/translate/corpus"
	"github.com/kiteco/enzh-datagen/translate/pipeline"
	"github.com/kiteco/enzh-datagen/translate/vocab"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	fetched []corpus.Dataset
}

func (f *fakeFetcher) Fetch(ctx context.Context, tmpDir string, d corpus.Dataset) error {
	f.fetched = append(f.fetched, d)
	return nil
}

func requireEnv(t *testing.T, files map[string]string) (Env, afero.Fs) {
	mem := afero.NewMemMapFs()
	for path, contents := range files {
		require.NoError(t, afero.WriteFile(mem, path, []byte(contents), 0644))
	}
	return Env{
		FS:      fileutil.NewFS(mem),
		Fetcher: &fakeFetcher{},
		DataDir: "/data",
		TmpDir:  "/tmp",
	}, mem
}

func testProblem() *Problem {
	return &Problem{
		Name:            "test_problem",
		ApproxVocabSize: 8,
		SourceVocabName: "vocab.test-en.%d",
		TargetVocabName: "vocab.test-zh.%d",
		FilenamePrefix:  "test_enzh",
		Train:           []corpus.Dataset{{Lang1: "train.en", Lang2: "train.zh"}},
		Dev:             []corpus.Dataset{{Lang1: "dev.en", Lang2: "dev.zh"}},
	}
}

func TestBuiltins(t *testing.T) {
	assert.Equal(t, []string{"translate_enzh_nist_small", "translate_enzh_wmt32k", "translate_enzh_wmt8k"}, Names())

	p, err := Lookup("translate_enzh_wmt32k")
	require.NoError(t, err)
	assert.Equal(t, 32768, p.ApproxVocabSize)
	assert.Equal(t, "vocab.enzh-en.32768", p.SourceVocabFile())
	assert.Equal(t, "vocab.enzh-zh.32768", p.TargetVocabFile())
	assert.Equal(t, "wmt_enzh_32768k_tok_train", p.FilenameBase(Train))
	assert.Equal(t, "wmt_enzh_32768k_tok_dev", p.FilenameBase(Dev))

	p, err = Lookup("translate_enzh_nist_small")
	require.NoError(t, err)
	assert.Equal(t, "vocab.nist.enzh-zh.32768", p.TargetVocabFile())

	p, err = Lookup("translate_enzh_wmt8k")
	require.NoError(t, err)
	assert.Equal(t, 8192, p.ApproxVocabSize)
	assert.Empty(t, p.Optional)

	_, err = Lookup("translate_enfr")
	assert.True(t, errors.Is(err, ErrUnknownProblem))
}

func TestParseSplit(t *testing.T) {
	s, err := ParseSplit("dev")
	require.NoError(t, err)
	assert.Equal(t, Dev, s)

	_, err = ParseSplit("test")
	assert.Error(t, err)
}

func TestTrainingDatasets(t *testing.T) {
	env, mem := requireEnv(t, nil)

	ds, err := WMT32k.TrainingDatasets(env.FS, env.TmpDir)
	require.NoError(t, err)
	assert.Equal(t, corpus.NewsCommentaryTrain, ds)

	require.NoError(t, afero.WriteFile(mem, "/tmp/cwmt.tgz", []byte("archive"), 0644))
	ds, err = WMT32k.TrainingDatasets(env.FS, env.TmpDir)
	require.NoError(t, err)
	assert.Len(t, ds, len(corpus.NewsCommentaryTrain)+len(corpus.CWMTTrain))

	require.NoError(t, afero.WriteFile(mem, "/tmp/UNv1.0.en-zh.tar.gz", []byte("archive"), 0644))
	ds, err = WMT32k.TrainingDatasets(env.FS, env.TmpDir)
	require.NoError(t, err)
	assert.Len(t, ds, len(corpus.NewsCommentaryTrain)+len(corpus.CWMTTrain)+len(corpus.UNTrain))

	ds, err = WMT32k.Datasets(env.FS, env.TmpDir, Dev)
	require.NoError(t, err)
	assert.Equal(t, corpus.NewsCommentaryDev, ds)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(testProblem()))
	assert.Error(t, r.Register(testProblem()))

	invalid := testProblem()
	invalid.Name = "small"
	invalid.ApproxVocabSize = 1
	assert.True(t, errors.Is(r.Register(invalid), vocab.ErrInvalidSize))

	shared := testProblem()
	shared.Name = "shared"
	shared.TargetVocabName = shared.SourceVocabName
	require.NoError(t, r.Register(shared))
	assert.True(t, shared.SharedVocab())

	assert.Equal(t, []string{"shared", "test_problem"}, r.Names())
}

func TestLoadConfig(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(testProblem()))

	config := `
problems:
  - name: test_small
    extends: test_problem
    approx_vocab_size: 4
    encoder:
      normalize: true
  - name: standalone
    approx_vocab_size: 16
    source_vocab_name: vocab.s-en.%d
    target_vocab_name: vocab.s-zh.%d
    filename_prefix: standalone
    train:
      - url: https://example.com/data.tgz
        lang1: data/train.en
        lang2: data/train.zh
    dev:
      - lang1: data/dev.en
        lang2: data/dev.zh
`
	names, err := r.LoadConfig(strings.NewReader(config))
	require.NoError(t, err)
	assert.Equal(t, []string{"test_small", "standalone"}, names)

	p, err := r.Lookup("test_small")
	require.NoError(t, err)
	assert.Equal(t, 4, p.ApproxVocabSize)
	assert.Equal(t, "vocab.test-en.4", p.SourceVocabFile())
	assert.Equal(t, "test_enzh", p.FilenamePrefix)
	assert.True(t, p.Encoder.Normalize)

	p, err = r.Lookup("standalone")
	require.NoError(t, err)
	assert.Equal(t, "data.tgz", p.Train[0].ArchiveName())
	assert.Equal(t, "data/dev.zh", p.Dev[0].Lang2)

	_, err = r.LoadConfig(strings.NewReader("problems:\n  - name: x\n    extends: missing\n"))
	assert.True(t, errors.Is(err, ErrUnknownProblem))

	names, err = r.LoadConfig(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestGenerateEncodedSamples(t *testing.T) {
	env, mem := requireEnv(t, map[string]string{
		"/tmp/train.en": "hello world\nhello\n",
		"/tmp/train.zh": "你好 世界\n你好\n",
		"/tmp/dev.en":   "world hello\n",
		"/tmp/dev.zh":   "世界\n",
	})
	p := testProblem()

	samples, err := p.GenerateEncodedSamples(context.Background(), env, Train)
	require.NoError(t, err)
	var train []pipeline.Sample
	require.NoError(t, pipeline.Drain(samples, func(s pipeline.Sample) error {
		train = append(train, s)
		return nil
	}))
	assert.Equal(t, []pipeline.Sample{
		{Inputs: []int{2, 3, vocab.EOSID}, Targets: []int{2, 3, vocab.EOSID}},
		{Inputs: []int{2, vocab.EOSID}, Targets: []int{2, vocab.EOSID}},
	}, train)

	for _, path := range []string{"/data/vocab.test-en.8", "/data/vocab.test-zh.8", "/tmp/test_enzh_8k_tok_train.lang1"} {
		exists, err := afero.Exists(mem, path)
		require.NoError(t, err)
		assert.True(t, exists, path)
	}

	samples, err = p.GenerateEncodedSamples(context.Background(), env, Dev)
	require.NoError(t, err)
	var dev []pipeline.Sample
	require.NoError(t, pipeline.Drain(samples, func(s pipeline.Sample) error {
		dev = append(dev, s)
		return nil
	}))
	assert.Equal(t, []pipeline.Sample{
		{Inputs: []int{3, 2, vocab.EOSID}, Targets: []int{3, vocab.EOSID}},
	}, dev)

	encoders, err := p.FeatureEncoders(env.FS, env.DataDir)
	require.NoError(t, err)
	text, err := encoders["targets"].Decode([]int{2, 3, vocab.EOSID})
	require.NoError(t, err)
	assert.Equal(t, "你好 世界", text)

	fetched := env.Fetcher.(*fakeFetcher).fetched
	assert.Contains(t, fetched, p.Dev[0])
	assert.Contains(t, fetched, p.Train[0])
}

func TestGenerateVocabsMissingCorpus(t *testing.T) {
	env, mem := requireEnv(t, nil)
	_, _, err := testProblem().GenerateVocabs(context.Background(), env)
	require.Error(t, err)
	assert.True(t, errors.Is(err, fileutil.ErrNotFound))

	exists, err := afero.Exists(mem, "/data/vocab.test-en.8")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestGenerateSharedVocab(t *testing.T) {
	env, mem := requireEnv(t, map[string]string{
		"/tmp/train.en": "hello hello world\n",
		"/tmp/train.zh": "你好\n",
		"/tmp/dev.en":   "world\n",
		"/tmp/dev.zh":   "你好\n",
	})
	p := testProblem()
	p.TargetVocabName = "vocab.test-enzh.%d"
	p.SourceVocabName = p.TargetVocabName

	src, tgt, err := p.GenerateVocabs(context.Background(), env)
	require.NoError(t, err)
	assert.Same(t, src, tgt)
	assert.Equal(t, []string{"<pad>", "<EOS>", "hello", "world", "你好"}, src.Vocab().Tokens())

	exists, err := afero.Exists(mem, "/data/vocab.test-enzh.8")
	require.NoError(t, err)
	assert.True(t, exists)

	samples, err := p.GenerateEncodedSamples(context.Background(), env, Dev)
	require.NoError(t, err)
	var dev []pipeline.Sample
	require.NoError(t, pipeline.Drain(samples, func(s pipeline.Sample) error {
		dev = append(dev, s)
		return nil
	}))
	assert.Equal(t, []pipeline.Sample{{Inputs: []int{3, vocab.EOSID}, Targets: []int{4, vocab.EOSID}}}, dev)
}

func TestGenerateVocabsNormalize(t *testing.T) {
	env, _ := requireEnv(t, map[string]string{
		"/tmp/train.en": "ＡＢ\n",
		"/tmp/train.zh": "你好\n",
	})
	p := testProblem()
	p.Encoder.Normalize = true

	src, _, err := p.GenerateVocabs(context.Background(), env)
	require.NoError(t, err)
	ids, err := src.Encode("ＡＢ")
	require.NoError(t, err)
	assert.Equal(t, []int{2}, ids)
}
