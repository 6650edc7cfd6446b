package corpus

import (
	"context"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/kiteco/enzh-datagen/kite-golib/errors"
	"github.com/kiteco/enzh-datagen/kite-golib/fileutil"
	"github.com/kiteco/enzh-datagen/translate/vocab"
	"github.com/mholt/archiver"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	fetched []Dataset
	err     error
}

func (f *fakeFetcher) Fetch(ctx context.Context, tmpDir string, d Dataset) error {
	f.fetched = append(f.fetched, d)
	return f.err
}

func TestStripSGM(t *testing.T) {
	cases := []struct {
		in  string
		out string
	}{
		{`<srcset setid="newsdev2017" srclang="any">`, ""},
		{`<doc sysid="ref" docid="1" genre="news">`, ""},
		{`<p>`, ""},
		{`</doc>`, ""},
		{`<seg id="1">Hello world.</seg>`, "Hello world."},
		{`  <seg id="12">你好</seg>  `, "你好"},
		{`plain text`, "plain text"},
	}
	for _, c := range cases {
		assert.Equal(t, c.out, stripSGM(c.in), c.in)
	}
}

func TestDatasets(t *testing.T) {
	assert.Equal(t, "training-parallel-nc-v12.tgz", NewsCommentaryTrain[0].ArchiveName())
	assert.Equal(t, "cwmt.tgz", CWMTTrain[0].ArchiveName())
	assert.Len(t, CWMTTrain, 24)
	assert.Len(t, NISTTrain, 64)
	assert.Equal(t, "nist/en_zh_files/part-07.zh", NISTTrain[7].Lang2)
	assert.Equal(t, "", NISTDev[0].ArchiveName())

	d := NewsCommentaryTrain[0]
	assert.Equal(t, d.Lang1, d.File(vocab.SourceRole))
	assert.Equal(t, d.Lang2, d.File(vocab.TargetRole))
}

func requireMemFS(t *testing.T, files map[string]string) (*fileutil.FS, afero.Fs) {
	mem := afero.NewMemMapFs()
	for path, contents := range files {
		require.NoError(t, afero.WriteFile(mem, path, []byte(contents), 0644))
	}
	return fileutil.NewFS(mem), mem
}

func TestCompile(t *testing.T) {
	fs, mem := requireMemFS(t, map[string]string{
		"/tmp/a.en":       "hello\n\nworld\n",
		"/tmp/a.zh":       "你好\n空\n世界\n",
		"/tmp/dev.en.sgm": "<refset>\n<doc docid=\"1\">\n<seg id=\"1\">one</seg>\n</doc>\n",
		"/tmp/dev.zh.sgm": "<refset>\n<doc docid=\"1\">\n<seg id=\"1\">一</seg>\n</doc>\n",
	})
	datasets := []Dataset{
		{Lang1: "a.en", Lang2: "a.zh"},
		{Lang1: "dev.en.sgm", Lang2: "dev.zh.sgm"},
	}

	fetcher := &fakeFetcher{}
	lang1, lang2, err := Compile(context.Background(), fs, fetcher, "/tmp", datasets, "base", nil)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/base.lang1", lang1)
	assert.Equal(t, "/tmp/base.lang2", lang2)
	assert.Equal(t, datasets, fetcher.fetched)

	out1, err := afero.ReadFile(mem, lang1)
	require.NoError(t, err)
	out2, err := afero.ReadFile(mem, lang2)
	require.NoError(t, err)
	assert.Equal(t, "hello\nworld\none\n", string(out1))
	assert.Equal(t, "你好\n世界\n一\n", string(out2))

	// existing outputs are left alone
	fetcher = &fakeFetcher{}
	require.NoError(t, afero.WriteFile(mem, lang1, []byte("kept\n"), 0644))
	_, _, err = Compile(context.Background(), fs, fetcher, "/tmp", datasets, "base", nil)
	require.NoError(t, err)
	assert.Empty(t, fetcher.fetched)
	out1, err = afero.ReadFile(mem, lang1)
	require.NoError(t, err)
	assert.Equal(t, "kept\n", string(out1))
}

func TestCompileFetchError(t *testing.T) {
	fs, mem := requireMemFS(t, nil)
	fetcher := &fakeFetcher{err: errors.New("no network")}

	_, _, err := Compile(context.Background(), fs, fetcher, "/tmp", NewsCommentaryTrain, "base", nil)
	require.Error(t, err)

	exists, err := afero.Exists(mem, "/tmp/base.lang1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCompileUnevenMembers(t *testing.T) {
	fs, mem := requireMemFS(t, map[string]string{
		"/tmp/a.en": "a\nb\nc\n",
		"/tmp/a.zh": "一\n二\n",
	})
	_, _, err := Compile(context.Background(), fs, &fakeFetcher{}, "/tmp", []Dataset{{Lang1: "a.en", Lang2: "a.zh"}}, "base", nil)
	require.NoError(t, err)

	out1, err := afero.ReadFile(mem, "/tmp/base.lang1")
	require.NoError(t, err)
	out2, err := afero.ReadFile(mem, "/tmp/base.lang2")
	require.NoError(t, err)
	assert.Equal(t, "a\nb\n", string(out1))
	assert.Equal(t, "一\n二\n", string(out2))
}

func requireNoOutputs(t *testing.T, mem afero.Fs) {
	for _, path := range []string{
		"/tmp/base.lang1",
		"/tmp/base.lang2",
		fileutil.PendingPath("/tmp/base.lang1"),
		fileutil.PendingPath("/tmp/base.lang2"),
	} {
		exists, err := afero.Exists(mem, path)
		require.NoError(t, err)
		assert.False(t, exists, path)
	}
}

func TestCompileFailureIsRetried(t *testing.T) {
	fs, mem := requireMemFS(t, map[string]string{
		"/tmp/a.en": "a\nb\n",
		"/tmp/a.zh": "一\n二\n",
	})
	datasets := []Dataset{
		{Lang1: "a.en", Lang2: "a.zh"},
		{Lang1: "b.en", Lang2: "b.zh"},
	}

	_, _, err := Compile(context.Background(), fs, &fakeFetcher{}, "/tmp", datasets, "base", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, fileutil.ErrNotFound))
	requireNoOutputs(t, mem)

	require.NoError(t, afero.WriteFile(mem, "/tmp/b.en", []byte("c\n"), 0644))
	require.NoError(t, afero.WriteFile(mem, "/tmp/b.zh", []byte("三\n"), 0644))
	_, _, err = Compile(context.Background(), fs, &fakeFetcher{}, "/tmp", datasets, "base", nil)
	require.NoError(t, err)

	out1, err := afero.ReadFile(mem, "/tmp/base.lang1")
	require.NoError(t, err)
	out2, err := afero.ReadFile(mem, "/tmp/base.lang2")
	require.NoError(t, err)
	assert.Equal(t, "a\nb\nc\n", string(out1))
	assert.Equal(t, "一\n二\n三\n", string(out2))
}

func TestCompileCanceled(t *testing.T) {
	fs, mem := requireMemFS(t, map[string]string{
		"/tmp/a.en": "a\n",
		"/tmp/a.zh": "一\n",
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := Compile(ctx, fs, &fakeFetcher{}, "/tmp", []Dataset{{Lang1: "a.en", Lang2: "a.zh"}}, "base", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	requireNoOutputs(t, mem)
}

func requireArchive(t *testing.T) (string, func()) {
	src, err := ioutil.TempDir("", "corpus-src")
	require.NoError(t, err)

	training := filepath.Join(src, "training")
	require.NoError(t, os.MkdirAll(training, 0755))
	require.NoError(t, ioutil.WriteFile(filepath.Join(training, "nc.en"), []byte("hello\n"), 0644))
	require.NoError(t, ioutil.WriteFile(filepath.Join(training, "nc.zh"), []byte("你好\n"), 0644))

	archive := filepath.Join(src, "nc.tgz")
	require.NoError(t, archiver.NewTarGz().Archive([]string{training}, archive))

	return archive, func() { os.RemoveAll(src) }
}

func TestArchiveFetcher(t *testing.T) {
	archive, cleanup := requireArchive(t)
	defer cleanup()

	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		http.ServeFile(w, r, archive)
	}))
	defer server.Close()

	tmpDir, err := ioutil.TempDir("", "corpus-tmp")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	d := Dataset{URL: server.URL + "/nc.tgz", Lang1: "training/nc.en", Lang2: "training/nc.zh"}
	fetcher := NewArchiveFetcher(fileutil.Local, nil)
	require.NoError(t, fetcher.Fetch(context.Background(), tmpDir, d))
	assert.Equal(t, int32(1), atomic.LoadInt32(&requests))

	data, err := ioutil.ReadFile(filepath.Join(tmpDir, "training/nc.zh"))
	require.NoError(t, err)
	assert.Equal(t, "你好\n", string(data))
	assert.FileExists(t, filepath.Join(tmpDir, "nc.tgz"))

	// members already present, nothing is downloaded
	require.NoError(t, fetcher.Fetch(context.Background(), tmpDir, d))
	assert.Equal(t, int32(1), atomic.LoadInt32(&requests))

	// archive present but members missing, extract without downloading
	require.NoError(t, os.RemoveAll(filepath.Join(tmpDir, "training")))
	require.NoError(t, fetcher.Fetch(context.Background(), tmpDir, d))
	assert.Equal(t, int32(1), atomic.LoadInt32(&requests))
	assert.FileExists(t, filepath.Join(tmpDir, "training/nc.en"))
}

func TestArchiveFetcherManual(t *testing.T) {
	tmpDir, err := ioutil.TempDir("", "corpus-tmp")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	fetcher := NewArchiveFetcher(fileutil.Local, nil)
	err = fetcher.Fetch(context.Background(), tmpDir, NISTDev[0])
	require.Error(t, err)
	assert.True(t, errors.Is(err, fileutil.ErrNotFound))

	path := filepath.Join(tmpDir, NISTDev[0].Lang1)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, ioutil.WriteFile(path, []byte("x\n"), 0644))
	require.NoError(t, ioutil.WriteFile(filepath.Join(tmpDir, NISTDev[0].Lang2), []byte("y\n"), 0644))
	require.NoError(t, fetcher.Fetch(context.Background(), tmpDir, NISTDev[0]))
}

func TestArchiveFetcherMissingMembers(t *testing.T) {
	archive, cleanup := requireArchive(t)
	defer cleanup()

	tmpDir, err := ioutil.TempDir("", "corpus-tmp")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	d := Dataset{URL: archive, Lang1: "training/other.en", Lang2: "training/other.zh"}
	err = NewArchiveFetcher(fileutil.Local, nil).Fetch(context.Background(), tmpDir, d)
	require.Error(t, err)
	assert.True(t, errors.Is(err, fileutil.ErrNotFound))
}
