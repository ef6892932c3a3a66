// Licensed to the Apache Software Foundation (ASF) under one
// or more contributor license agreements.  See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership.  The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License.  You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

package graphcodec

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownType indicates a type name or id that the TypeLoader or the
	// registry cannot map back to a reflect.Type.
	ErrUnknownType = errors.New("graphcodec: unknown type")

	// ErrUnknownMember indicates a field or constructor that cannot be found
	// on its declaring type.
	ErrUnknownMember = errors.New("graphcodec: unknown member")

	// ErrNoInstantiator indicates that no instantiation strategy can produce
	// an instance of a type.
	ErrNoInstantiator = errors.New("graphcodec: no instantiator for type")

	// ErrUnsupportedType indicates a kind the codec cannot encode (func,
	// chan, unsafe.Pointer, complex, anonymous struct).
	ErrUnsupportedType = errors.New("graphcodec: unsupported type")

	// ErrIO wraps failures of the underlying Writer or Reader.
	ErrIO = errors.New("graphcodec: i/o failure")

	// ErrMaxDepth indicates the traversal exceeded Config.MaxDepth.
	ErrMaxDepth = errors.New("graphcodec: max depth exceeded")

	// ErrTypeMismatch indicates a struct layout hash mismatch or a decoded
	// value whose type is not assignable to its destination.
	ErrTypeMismatch = errors.New("graphcodec: type mismatch")

	// ErrNilValue indicates a nil value in a position declared notnull.
	ErrNilValue = errors.New("graphcodec: nil value")

	// ErrBadReference indicates a back reference to an id that was never
	// assigned in the current operation.
	ErrBadReference = errors.New("graphcodec: bad reference id")
)

// CodecError is the single error kind returned by the codec. It wraps a
// sentinel (or an underlying cause) together with the operation context.
type CodecError struct {
	Op     string // write, read, copy, resolve, instantiate, lookup
	Type   string // type name, if known
	Field  string // field name, if applicable
	Member string // member name for handle lookups
	Err    error
}

func (e *CodecError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.Type != "" {
		fmt.Fprintf(&b, " %s", e.Type)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, " field %s", e.Field)
	}
	if e.Member != "" {
		fmt.Fprintf(&b, " member %s", e.Member)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *CodecError) Unwrap() error {
	return e.Err
}

// newError builds a CodecError. An error wrapping a CodecError yields that
// CodecError, so that the innermost type and field survive propagation and
// callers always receive a *CodecError.
func newError(op, typeName string, err error) error {
	var ce *CodecError
	if errors.As(err, &ce) {
		return ce
	}
	return &CodecError{Op: op, Type: typeName, Err: err}
}

func fieldError(op, typeName, field string, err error) error {
	var ce *CodecError
	if errors.As(err, &ce) {
		if ce.Field == "" && ce.Member == "" {
			ce.Field = field
		}
		return ce
	}
	return &CodecError{Op: op, Type: typeName, Field: field, Err: err}
}

func memberError(op, typeName, member string, err error) error {
	return &CodecError{Op: op, Type: typeName, Member: member, Err: err}
}

func ioError(op string, err error) error {
	if err == nil {
		return nil
	}
	return newError(op, "", fmt.Errorf("%w: %w", ErrIO, err))
}
