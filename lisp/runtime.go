package lisp

import (
	"io"
	"io/fs"
	"log/slog"
	"os"
)

// Runtime is the state shared by every LEnv descended from the same root.
type Runtime struct {
	Stdout io.Writer
	Stderr io.Writer
	// Reader parses files named by the load directive.  There is no default
	// Reader.
	Reader Reader
	// FS is the file system searched by the load directive.
	FS     fs.FS
	Logger *slog.Logger
	Stack  *CallStack
	// File names the program currently being evaluated.
	File string
}

// StandardRuntime returns a new Runtime writing to the standard output
// streams.  Its logger discards all records.
func StandardRuntime() *Runtime {
	return &Runtime{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Logger: slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: levelOff})),
		Stack:  &CallStack{MaxHeight: DefaultMaxHeight},
	}
}

// levelOff is above every level used by the interpreter.
const levelOff = slog.Level(1 << 10)
