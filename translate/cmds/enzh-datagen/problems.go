package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/kiteco/enzh-datagen/kite-golib/cmdline"
	"github.com/kiteco/enzh-datagen/translate/problem"
)

var problemsCmd = cmdline.Command{
	Name:     "problems",
	Synopsis: "list the registered problems",
	Args:     &problemsArgs{},
}

type problemsArgs struct {
	Config string `help:"yaml file with extra problem definitions"`
}

func (args *problemsArgs) Handle() error {
	if err := loadConfig(args.Config); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(stdout, 4, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tVOCAB\tTRAIN\tOPTIONAL\tDEV")
	for _, name := range problem.Names() {
		p, err := problem.Lookup(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\n", p.Name, p.ApproxVocabSize, len(p.Train), len(p.Optional), len(p.Dev))
	}
	return tw.Flush()
}
