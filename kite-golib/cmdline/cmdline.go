package cmdline

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	arg "github.com/alexflint/go-arg"
	"github.com/kiteco/enzh-datagen/kite-golib/errors"
)

// Command represents an action that can be run from the command line
type Command struct {
	Name     string
	Synopsis string
	Args     Handler
}

// Handler represents a function that gets called for an action
type Handler interface {
	Handle() error
}

// Validator is the interface for custom validation of command line arguments
type Validator interface {
	Validate() error
}

// ErrHelp is returned by Dispatch when help was requested and written
var ErrHelp = errors.New("help requested")

// ErrUsage is returned by Dispatch when the command line could not be parsed
var ErrUsage = errors.New("usage error")

func prog() string {
	if len(os.Args) > 0 {
		return filepath.Base(os.Args[0])
	}
	return "program"
}

func writeUsage(w io.Writer, cmds ...Command) {
	fmt.Fprintf(w, "Usage: %s COMMAND [ARGS]\n", prog())
	fmt.Fprintf(w, "Command can be one of:\n")
	for _, cmd := range cmds {
		fmt.Fprintf(w, "  %-20s %s\n", cmd.Name, cmd.Synopsis)
	}
	fmt.Fprintf(w, "  %-20s %s\n", "help", "display this help and exit")
	fmt.Fprintf(w, "  %-20s %s\n", "help COMMAND", "display help for command and exit")
}

// Dispatch parses args (without the program name) into the selected command's
// arguments, validates them and runs its handler. Usage and help text go to w.
func Dispatch(w io.Writer, args []string, cmds ...Command) error {
	if len(args) < 1 {
		writeUsage(w, cmds...)
		return errors.Wrapf(ErrUsage, "no command provided")
	}

	var help bool
	action := args[0]
	if action == "help" {
		if len(args) < 2 {
			writeUsage(w, cmds...)
			return ErrHelp
		}
		help = true
		action = args[1]
	}

	var cmd *Command
	for i := range cmds {
		if cmds[i].Name == action {
			cmd = &cmds[i]
			break
		}
	}
	if cmd == nil {
		writeUsage(w, cmds...)
		return errors.Wrapf(ErrUsage, "unknown command %s", action)
	}

	parser, err := arg.NewParser(arg.Config{Program: prog() + " " + action}, cmd.Args)
	if err != nil {
		return err
	}

	if help {
		parser.WriteHelp(w)
		return ErrHelp
	}

	if err := parser.Parse(args[1:]); err != nil {
		if err == arg.ErrHelp {
			parser.WriteHelp(w)
			return ErrHelp
		}
		parser.WriteUsage(w)
		return errors.Wrapf(ErrUsage, "%v", err)
	}

	if v, ok := cmd.Args.(Validator); ok {
		if err := v.Validate(); err != nil {
			parser.WriteUsage(w)
			return errors.Wrapf(ErrUsage, "%v", err)
		}
	}

	return cmd.Args.Handle()
}

// MustDispatch dispatches one of the commands using os.Args, exiting the process
// with a non-zero status on failure
func MustDispatch(cmds ...Command) {
	err := Dispatch(os.Stdout, os.Args[1:], cmds...)
	switch {
	case err == nil:
	case err == ErrHelp:
		os.Exit(0)
	default:
		fmt.Println("\nError:", err)
		os.Exit(1)
	}
}
