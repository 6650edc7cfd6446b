package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/kiteco/enzh-datagen/kite-golib/cmdline"
	"github.com/kiteco/enzh-datagen/kite-golib/errors"
	"github.com/kiteco/enzh-datagen/kite-golib/fileutil"
	"github.com/kiteco/enzh-datagen/kite-golib/kitelog"
	"github.com/kiteco/enzh-datagen/translate/problem"
)

var (
	stdout io.Writer           = os.Stdout
	fs     fileutil.FileSystem = fileutil.Local
)

type logArgs struct {
	JSONLogs bool `arg:"--json-logs" help:"write structured json logs instead of plain lines"`
}

func (a logArgs) logger() (kitelog.Interface, func(), error) {
	if !a.JSONLogs {
		return kitelog.Basic, func() {}, nil
	}
	l, sync, err := kitelog.NewProductionZap()
	if err != nil {
		return nil, nil, err
	}
	return l, func() { sync() }, nil
}

// signalContext is canceled on SIGINT or SIGTERM
func signalContext() (context.Context, func()) {
	ctx, cancel := context.WithCancel(context.Background())
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigs:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, func() {
		signal.Stop(sigs)
		cancel()
	}
}

func loadConfig(path string) (err error) {
	if path == "" {
		return nil
	}
	r, err := fs.Open(path)
	if err != nil {
		return err
	}
	defer errors.Defer(&err, r.Close)

	_, err = problem.LoadConfig(r)
	return err
}

func main() {
	cmdline.MustDispatch(buildVocabCmd, encodeCmd, datagenCmd, problemsCmd, inspectCmd)
}
