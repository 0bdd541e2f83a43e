/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package winter

import (
	"fmt"
	"github.com/pkg/errors"
	"strings"
)

/**
Error kinds reported by the factory. Every error returned by this package matches
exactly one of them with errors.Is, wrapped causes stay reachable through Unwrap.
*/
var (
	ErrDuplicateName        = errors.New("duplicate name")
	ErrNotFound             = errors.New("not found")
	ErrBeanNotFound         = errors.New("bean not found")
	ErrMissingDependency    = errors.New("missing dependency")
	ErrUnresolvedDependency = errors.New("unresolved dependency")
	ErrCurrentlyInCreation  = errors.New("currently in creation")
	ErrAmbiguousConstructor = errors.New("ambiguous constructor")
	ErrAmbiguousDependency  = errors.New("ambiguous dependency")
	ErrMissingBean          = errors.New("missing bean")
	ErrTypeMismatch         = errors.New("type mismatch")
	ErrNotUnique            = errors.New("not unique")
	ErrConstruction         = errors.New("construction failed")
	ErrFactory              = errors.New("factory error")
	ErrPropertySource       = errors.New("property source error")
)

/**
Error carries the kind of the failure together with the bean it happened on.
Names holds every bean (or type) name the failure is about, e.g. all beans stuck
in an unresolved dependency chain.
*/
type Error struct {
	Kind  error
	Bean  string
	Names []string
	msg   string
	cause error
}

func newError(kind error, bean string, format string, args ...interface{}) *Error {
	return &Error{
		Kind: kind,
		Bean: bean,
		msg:  fmt.Sprintf(format, args...),
	}
}

func wrapError(kind error, cause error, bean string, format string, args ...interface{}) *Error {
	e := newError(kind, bean, format, args...)
	e.cause = cause
	return e
}

func (t *Error) withNames(names ...string) *Error {
	t.Names = append(t.Names, names...)
	return t
}

func (t *Error) Error() string {
	if t.cause != nil {
		return fmt.Sprintf("%s, %v", t.msg, t.cause)
	}
	return t.msg
}

func (t *Error) Is(target error) bool {
	return t.Kind == target
}

func (t *Error) Unwrap() error {
	return t.cause
}

func (t *Error) Cause() error {
	return t.cause
}

func multipleErr(err []error) error {
	switch len(err) {
	case 0:
		return nil
	case 1:
		return err[0]
	default:
		var out strings.Builder
		for i, e := range err {
			if i > 0 {
				out.WriteString("; ")
			}
			out.WriteString(e.Error())
		}
		return errors.Errorf("multiple errors, [%s]", out.String())
	}
}
