package corpus

import (
	"fmt"

	"github.com/kiteco/enzh-datagen/kite-golib/fileutil"
	"github.com/kiteco/enzh-datagen/translate/vocab"
)

// Dataset is an archive holding one pair of aligned files. Lang1 and Lang2 are
// paths relative to the directory the archive is extracted into. An empty URL
// means the files must be placed there manually.
type Dataset struct {
	URL   string `yaml:"url"`
	Lang1 string `yaml:"lang1"`
	Lang2 string `yaml:"lang2"`
}

// ArchiveName returns the file name of the archive
func (d Dataset) ArchiveName() string {
	if d.URL == "" {
		return ""
	}
	return fileutil.Base(d.URL)
}

// File returns the member file holding the given side of the pair
func (d Dataset) File(role vocab.Role) string {
	if role == vocab.TargetRole {
		return d.Lang2
	}
	return d.Lang1
}

const (
	wmt17  = "http://data.statmt.org/wmt17/translation-task/"
	mirror = "https://s3-us-west-2.amazonaws.com/twairball.wmt17.zh-en/"
)

// NewsCommentaryTrain is the News Commentary v12 corpus, around 220k lines.
var NewsCommentaryTrain = []Dataset{{
	URL:   wmt17 + "training-parallel-nc-v12.tgz",
	Lang1: "training/news-commentary-v12.zh-en.en",
	Lang2: "training/news-commentary-v12.zh-en.zh",
}}

// NewsCommentaryDev is the newsdev2017 set, 2000 lines.
var NewsCommentaryDev = []Dataset{{
	URL:   wmt17 + "dev.tgz",
	Lang1: "dev/newsdev2017-enzh-src.en.sgm",
	Lang2: "dev/newsdev2017-enzh-ref.zh.sgm",
}}

// UNTrain is the UN parallel corpus, 15,886,041 lines. It requires registration at
// https://conferences.unite.un.org/UNCorpus and is only used when the archive is
// already present in the tmp dir.
var UNTrain = []Dataset{{
	URL:   mirror + "UNv1.0.en-zh.tar.gz",
	Lang1: "en-zh/UNv1.0.en-zh.en",
	Lang2: "en-zh/UNv1.0.en-zh.zh",
}}

// CWMTTrain is the CWMT corpus (casia2015, casict2015, datum2015, datum2017, NEU2017).
// Like UNTrain it must be downloaded manually from http://nlp.nju.edu.cn/cwmt-wmt/.
var CWMTTrain = cwmtTrain()

func cwmtTrain() []Dataset {
	url := mirror + "cwmt.tgz"
	ds := []Dataset{
		{URL: url, Lang1: "cwmt/casia2015/casia2015_en.txt", Lang2: "cwmt/casia2015/casia2015_ch.txt"},
		{URL: url, Lang1: "cwmt/casict2015/casict2015_en.txt", Lang2: "cwmt/casict2015/casict2015_ch.txt"},
		{URL: url, Lang1: "cwmt/neu2017/NEU_en.txt", Lang2: "cwmt/neu2017/NEU_cn.txt"},
		{URL: url, Lang1: "cwmt/datum2015/datum_en.txt", Lang2: "cwmt/datum2015/datum_ch.txt"},
	}
	for i := 1; i <= 20; i++ {
		ds = append(ds, Dataset{
			URL:   url,
			Lang1: fmt.Sprintf("cwmt/datum2017/Book%d_en.txt", i),
			Lang2: fmt.Sprintf("cwmt/datum2017/Book%d_cn.txt", i),
		})
	}
	return ds
}

// NISTTrain is the 64 part NIST corpus, which has no public download.
var NISTTrain = nistTrain()

func nistTrain() []Dataset {
	var ds []Dataset
	for i := 0; i < 64; i++ {
		ds = append(ds, Dataset{
			Lang1: fmt.Sprintf("nist/en_zh_files/part-%02d.en", i),
			Lang2: fmt.Sprintf("nist/en_zh_files/part-%02d.zh", i),
		})
	}
	return ds
}

// NISTDev is the tokenized nist06 test set
var NISTDev = []Dataset{{
	Lang1: "nist_test/testset/nist06n.ref.frame.tok",
	Lang2: "nist_test/testset/nist06n.src.tok",
}}
