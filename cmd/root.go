// Package cmd implements the kantele command line.
package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/45deg/kantele/lisp"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
	maxStack   int
)

var rootCmd = &cobra.Command{
	Use:   "kantele",
	Short: "Evaluate audio graph programs",
	Long: `Kantele evaluates programs that build audio signal graphs.

Without a subcommand kantele starts a REPL when stdin is a terminal and
otherwise runs the program read from stdin.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE: func(cmd *cobra.Command, args []string) error {
		fd := os.Stdin.Fd()
		if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
			return runRepl(cmd)
		}
		return runPrograms(cmd, &runOptions{}, []string{"-"})
	},
}

// Execute runs the root command and exits with a non-zero status if it
// fails.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

// printError writes err to w followed by the stack trace of an evaluation
// error.
func printError(w io.Writer, err error) {
	fmt.Fprintln(w, err)
	var lerr *lisp.ErrorVal
	if errors.As(err, &lerr) && lerr.Stack != nil && lerr.Stack.Height() > 0 {
		lerr.Stack.DebugPrint(w)
	}
}

// loadConfig reads the configuration file and applies the flags set on the
// command line.
func loadConfig(cmd *cobra.Command) (*Config, error) {
	c, err := readConfig(configPath)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		c.LogLevel = logLevel
	}
	if flags.Changed("max-stack") {
		c.MaxStack = maxStack
	}
	return c, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Read settings from a YAML file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().IntVar(&maxStack, "max-stack", lisp.DefaultMaxHeight,
		"Maximum call stack height (0 for no limit)")
}
