package lisp

import (
	"io"
	"io/fs"
	"log/slog"
)

// Config is a function that configures a root environment or its runtime.
type Config func(env *LEnv) error

// InitializeUserEnv binds the standard library in env and then applies each
// of config in order.
func InitializeUserEnv(env *LEnv, config ...Config) error {
	env.AddBuiltins(DefaultBuiltins()...)
	for _, fn := range config {
		err := fn(env)
		if err != nil {
			return err
		}
	}
	return nil
}

// WithMaximumStackHeight returns a Config that will prevent an execution
// environment from allowing the stack height to exceed n.  A non-positive n
// removes the limit.
func WithMaximumStackHeight(n int) Config {
	return func(env *LEnv) error {
		env.Runtime.Stack.MaxHeight = n
		return nil
	}
}

// WithReader returns a Config that makes environments use r to parse files
// named by the load directive.
func WithReader(r Reader) Config {
	return func(env *LEnv) error {
		env.Runtime.Reader = r
		return nil
	}
}

// WithFS returns a Config that makes the load directive read files from
// fsys.
func WithFS(fsys fs.FS) Config {
	return func(env *LEnv) error {
		env.Runtime.FS = fsys
		return nil
	}
}

// WithStderr returns a Config that makes environments write debugging output
// to w instead of the default, os.Stderr.
func WithStderr(w io.Writer) Config {
	return func(env *LEnv) error {
		env.Runtime.Stderr = w
		return nil
	}
}

// WithStdout returns a Config that makes environments write program output
// to w instead of the default, os.Stdout.
func WithStdout(w io.Writer) Config {
	return func(env *LEnv) error {
		env.Runtime.Stdout = w
		return nil
	}
}

// WithLogger returns a Config that makes environments log evaluation events
// to logger.
func WithLogger(logger *slog.Logger) Config {
	return func(env *LEnv) error {
		env.Runtime.Logger = logger
		return nil
	}
}
