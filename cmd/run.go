package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/45deg/kantele/lisp"
	"github.com/45deg/kantele/lisp/lisplib/libaudio"
	"github.com/45deg/kantele/parser"
	"github.com/45deg/kantele/parser/ast"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type runOptions struct {
	expression bool
	print      bool
	diagram    bool
	schedule   bool
}

var runOpts runOptions

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [file ...]",
	Short: "Run kantele programs",
	Long: `Run kantele programs supplied via the command line or files.
The file name - stands for stdin.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPrograms(cmd, &runOpts, args)
	},
}

func runPrograms(cmd *cobra.Command, opts *runOptions, args []string) error {
	c, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return run(c, opts, args, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
}

type source struct {
	name string
	text string
	prog *ast.Program
}

// readSources reads the program text named by each of args.
func readSources(opts *runOptions, args []string, stdin io.Reader) ([]*source, error) {
	srcs := make([]*source, len(args))
	for i, arg := range args {
		switch {
		case opts.expression:
			srcs[i] = &source{name: fmt.Sprintf("expr%d", i+1), text: arg}
		case arg == "-":
			b, err := io.ReadAll(stdin)
			if err != nil {
				return nil, errors.Wrap(err, "read stdin")
			}
			srcs[i] = &source{name: "stdin", text: string(b)}
		default:
			b, err := os.ReadFile(arg)
			if err != nil {
				return nil, errors.Wrap(err, "read program")
			}
			srcs[i] = &source{name: arg, text: string(b)}
		}
	}
	return srcs, nil
}

// parseSources parses every source concurrently.  The first syntax error is
// returned.
func parseSources(srcs []*source) error {
	var g errgroup.Group
	for _, src := range srcs {
		g.Go(func() error {
			prog, err := parser.ParseProgram(src.name, src.text)
			if err != nil {
				return err
			}
			src.prog = prog
			return nil
		})
	}
	return g.Wait()
}

func run(c *Config, opts *runOptions, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	srcs, err := readSources(opts, args, stdin)
	if err != nil {
		return err
	}
	err = parseSources(srcs)
	if err != nil {
		return err
	}
	env, err := c.newEnv(stdout, stderr)
	if err != nil {
		return err
	}
	result := lisp.NoValue()
	for _, src := range srcs {
		env.Runtime.Logger.Debug("run", "file", src.name, "forms", len(src.prog.Forms))
		result, err = lisp.Evaluate(src.prog, env)
		if err != nil {
			var lerr *lisp.ErrorVal
			if errors.As(err, &lerr) {
				lerr.Locate(src.name, src.text)
			}
			return err
		}
		if opts.print && result.Type != lisp.LNoValue {
			fmt.Fprintln(stdout, result)
		}
	}
	if !opts.diagram && !opts.schedule {
		return nil
	}
	root, ok := result.Connector()
	if !ok {
		return errors.Errorf("result is not an audio node: %v", result)
	}
	if opts.diagram {
		fmt.Fprint(stdout, libaudio.Diagram(root))
	}
	if opts.schedule {
		writeSchedule(stdout, libaudio.Schedule(root))
	}
	return nil
}

func writeSchedule(w io.Writer, events []libaudio.Event) {
	for _, ev := range events {
		stop := "-"
		if ev.HasStop {
			stop = lisp.FormatNumber(ev.Stop)
		}
		fmt.Fprintf(w, "%v\t%s\t%s\n", ev.Node, lisp.FormatNumber(ev.Start), stop)
	}
}

func init() {
	rootCmd.AddCommand(runCmd)

	// Here flags for the run command are defined
	runCmd.Flags().BoolVarP(&runOpts.expression, "expression", "e", false,
		"Interpret arguments as kantele expressions")
	runCmd.Flags().BoolVarP(&runOpts.print, "print", "p", false,
		"Print program values to stdout")
	runCmd.Flags().BoolVar(&runOpts.diagram, "diagram", false,
		"Print the audio graph of the final value as a Mermaid flowchart")
	runCmd.Flags().BoolVar(&runOpts.schedule, "schedule", false,
		"Print the start and stop times of the sources of the final value")
}
