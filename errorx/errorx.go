/*
 * Copyright 2026 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package errorx implements the error kinds shared by alloc, vec, iox and bufiox.
//
// A Kind is itself an error, so returning a bare kind never allocates.
// *Error adds a message and an optional cause on top of a kind.
// Errors compare by kind only, causes are for diagnostics: *Error has no
// Unwrap, errors.Is and errors.As see the outer kind and Cause returns the rest.
package errorx

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"syscall"
)

// Kind identifies the category of a failure.
type Kind uint8

const (
	Other Kind = iota
	AllocationFailure
	CapacityOverflow
	OutOfBounds
	InvalidInput
	StreamExhausted
	StreamInterrupted
	StreamFailure

	numKinds
)

var kindNames = [numKinds]string{
	Other:             "other error",
	AllocationFailure: "allocation failure",
	CapacityOverflow:  "capacity overflow",
	OutOfBounds:       "index out of bounds",
	InvalidInput:      "invalid input",
	StreamExhausted:   "stream exhausted",
	StreamInterrupted: "stream interrupted",
	StreamFailure:     "stream failure",
}

// String ...
func (k Kind) String() string {
	if k < numKinds {
		return kindNames[k]
	}
	return fmt.Sprintf("unknown error kind [%d]", uint8(k))
}

// Error implements error.
func (k Kind) Error() string { return k.String() }

// Is ... for errors pkg
//
// StreamExhausted also matches io.EOF.
func (k Kind) Is(target error) bool {
	switch t := target.(type) {
	case Kind:
		return t == k
	case *Error:
		return t != nil && t.kind == k
	}
	return k == StreamExhausted && target == io.EOF
}

// Error is a Kind with a message and an optional cause.
type Error struct {
	kind  Kind
	msg   string
	cause error
}

// New creates an Error of the given kind.
func New(k Kind, msg string) *Error {
	return &Error{kind: k, msg: msg}
}

// Newf is New with fmt.Sprintf.
func Newf(k Kind, format string, args ...interface{}) *Error {
	return &Error{kind: k, msg: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error of the given kind caused by err.
func Wrap(k Kind, cause error) *Error {
	return &Error{kind: k, cause: cause}
}

// Wrapf creates an Error of the given kind with a message, caused by err.
func Wrapf(k Kind, cause error, format string, args ...interface{}) *Error {
	return &Error{kind: k, msg: fmt.Sprintf(format, args...), cause: cause}
}

// Kind returns the kind of e.
func (e *Error) Kind() Kind { return e.kind }

// Msg ...
func (e *Error) Msg() string { return e.msg }

// Cause returns the underlying error, nil if there is none.
func (e *Error) Cause() error { return e.cause }

func (e *Error) message() string {
	if e.msg != "" {
		return e.msg
	}
	return e.kind.String()
}

// Error ...
func (e *Error) Error() string {
	s := e.message()
	if e.cause != nil {
		return s + ": " + e.cause.Error()
	}
	return s
}

// Is ... for errors pkg
//
// It matches a Kind or *Error of the same kind, never the cause.
func (e *Error) Is(target error) bool {
	switch t := target.(type) {
	case Kind:
		return t == e.kind
	case *Error:
		return t != nil && t.kind == e.kind
	}
	return e.kind == StreamExhausted && target == io.EOF
}

// KindOf returns the kind of err.
// Errors not produced by this package are classified where a mapping exists
// (io.EOF, io.ErrUnexpectedEOF, syscall.EINTR), Other otherwise.
func KindOf(err error) Kind {
	if err == nil {
		return Other
	}
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	var k Kind
	if errors.As(err, &k) {
		return k
	}
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return StreamExhausted
	case errors.Is(err, syscall.EINTR):
		return StreamInterrupted
	}
	return Other
}

// IsInterrupted reports whether err is a retryable interruption.
func IsInterrupted(err error) bool {
	return err != nil && KindOf(err) == StreamInterrupted
}

// Equal reports whether a and b have the same kind.
// Two nil errors are equal; nil never equals a non-nil error.
func Equal(a, b error) bool {
	if a == nil || b == nil {
		return a == b
	}
	return KindOf(a) == KindOf(b)
}

// Compare orders a and b by kind.
func Compare(a, b error) int {
	ka, kb := KindOf(a), KindOf(b)
	switch {
	case ka < kb:
		return -1
	case ka > kb:
		return 1
	}
	return 0
}

// Prepend adds prefix to the message of err without losing its kind.
func Prepend(prefix string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return &Error{kind: e.kind, msg: prefix + e.message(), cause: e.cause}
	}
	var k Kind
	if errors.As(err, &k) {
		return &Error{kind: k, msg: prefix + k.String()}
	}
	return &Error{kind: KindOf(err), msg: strings.TrimRight(prefix, ": "), cause: err}
}
