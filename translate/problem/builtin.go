package problem

import "github.com/kiteco/enzh-datagen/translate/corpus"

const defaultByteBudget = 1e8

// WMT32k is trained on News Commentary, plus CWMT and UN when their archives are present
var WMT32k = &Problem{
	Name:            "translate_enzh_wmt32k",
	ApproxVocabSize: 1 << 15,
	SourceVocabName: "vocab.enzh-en.%d",
	TargetVocabName: "vocab.enzh-zh.%d",
	FilenamePrefix:  "wmt_enzh",
	Train:           corpus.NewsCommentaryTrain,
	Optional:        [][]corpus.Dataset{corpus.CWMTTrain, corpus.UNTrain},
	Dev:             corpus.NewsCommentaryDev,
	VocabByteBudget: defaultByteBudget,
}

// WMT8k is a smaller problem trained on News Commentary only
var WMT8k = &Problem{
	Name:            "translate_enzh_wmt8k",
	ApproxVocabSize: 1 << 13,
	SourceVocabName: "vocab.enzh-en.%d",
	TargetVocabName: "vocab.enzh-zh.%d",
	FilenamePrefix:  "wmt_enzh",
	Train:           corpus.NewsCommentaryTrain,
	Dev:             corpus.NewsCommentaryDev,
	VocabByteBudget: defaultByteBudget,
}

// NISTSmall uses the NIST corpus, which has to be placed in the tmp dir by hand
var NISTSmall = &Problem{
	Name:            "translate_enzh_nist_small",
	ApproxVocabSize: 1 << 15,
	SourceVocabName: "vocab.nist.enzh-en.%d",
	TargetVocabName: "vocab.nist.enzh-zh.%d",
	FilenamePrefix:  "nist_enzh",
	Train:           corpus.NISTTrain,
	Dev:             corpus.NISTDev,
	VocabByteBudget: defaultByteBudget,
}

func init() {
	for _, p := range []*Problem{WMT32k, WMT8k, NISTSmall} {
		if err := Register(p); err != nil {
			panic(err)
		}
	}
}
