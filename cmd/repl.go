package cmd

import (
	"os"

	"github.com/45deg/kantele/repl"
	"github.com/spf13/cobra"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRepl(cmd)
	},
}

func runRepl(cmd *cobra.Command) error {
	c, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	env, err := c.newEnv(os.Stdout, os.Stderr)
	if err != nil {
		return err
	}
	return repl.Run(c.Prompt, env)
}

func init() {
	rootCmd.AddCommand(replCmd)
}
