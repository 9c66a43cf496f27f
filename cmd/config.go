package cmd

import (
	"io"
	"log/slog"
	"os"

	"github.com/45deg/kantele/lisp"
	"github.com/45deg/kantele/lisp/lisplib"
	"github.com/45deg/kantele/parser"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config holds the settings read from a configuration file.  Command line
// flags take precedence over it.
type Config struct {
	// MaxStack limits the height of the call stack.  Zero means no limit.
	MaxStack int `yaml:"max_stack"`
	// LogLevel is one of debug, info, warn or error.
	LogLevel string `yaml:"log_level"`
	// Prompt is the REPL prompt.
	Prompt string `yaml:"prompt"`
	// LoadPath is the directory searched by load.
	LoadPath string `yaml:"load_path"`
}

func defaultConfig() *Config {
	return &Config{
		MaxStack: lisp.DefaultMaxHeight,
		LogLevel: "info",
		Prompt:   "kantele> ",
		LoadPath: ".",
	}
}

// readConfig reads the YAML file at path over the default configuration.
func readConfig(path string) (*Config, error) {
	c := defaultConfig()
	if path == "" {
		return c, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	err = yaml.Unmarshal(b, c)
	if err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	return c, nil
}

func (c *Config) logger(w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(c.LogLevel))
	if err != nil {
		return nil, errors.Wrap(err, "log level")
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), nil
}

// newEnv returns a root environment with the standard library loaded.
func (c *Config) newEnv(stdout, stderr io.Writer) (*lisp.LEnv, error) {
	logger, err := c.logger(stderr)
	if err != nil {
		return nil, err
	}
	env := lisp.NewEnv(nil)
	err = lisp.InitializeUserEnv(env,
		lisp.WithReader(parser.NewReader()),
		lisp.WithFS(os.DirFS(c.LoadPath)),
		lisp.WithMaximumStackHeight(c.MaxStack),
		lisp.WithLogger(logger),
		lisp.WithStdout(stdout),
		lisp.WithStderr(stderr),
	)
	if err != nil {
		return nil, errors.Wrap(err, "initialize environment")
	}
	err = lisplib.LoadLibrary(env)
	if err != nil {
		return nil, errors.Wrap(err, "load library")
	}
	return env, nil
}
