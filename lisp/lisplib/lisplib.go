// Package lisplib is used to conveniently load the standard library for the
// kantele environment
package lisplib

import (
	"github.com/45deg/kantele/lisp"
	"github.com/45deg/kantele/lisp/lisplib/libaudio"
	"github.com/45deg/kantele/lisp/lisplib/libmath"
	"github.com/45deg/kantele/lisp/lisplib/libstring"
)

// LoadLibrary loads the standard library into env.
func LoadLibrary(env *lisp.LEnv) error {
	err := libmath.LoadPackage(env)
	if err != nil {
		return err
	}
	err = libstring.LoadPackage(env)
	if err != nil {
		return err
	}
	return libaudio.LoadPackage(env)
}
