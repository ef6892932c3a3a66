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
	"context"
	"fmt"
	"reflect"
	"time"
)

// ============================================================================
// Top-level API
// ============================================================================

// Encode serializes v and its whole reachable graph.
func (r *Registry) Encode(v any) ([]byte, error) {
	buf := NewByteBuffer(nil)
	if err := r.EncodeTo(buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeTo serializes v to out and flushes it.
func (r *Registry) EncodeTo(out Writer, v any) (err error) {
	start := time.Now()
	size := -1
	var startIndex int
	if buf, ok := out.(*ByteBuffer); ok {
		startIndex = buf.WriterIndex()
	}
	r.begin(opWrite)
	defer func() {
		if p := recover(); p != nil {
			err = newError("write", typeNameOf(v), fmt.Errorf("%w: %v", ErrTypeMismatch, p))
		}
		r.end()
		if buf, ok := out.(*ByteBuffer); ok && err == nil {
			size = buf.WriterIndex() - startIndex
		}
		emitEncodeComplete(context.Background(), typeNameOf(v), size, time.Since(start), err)
	}()
	if err = r.WriteClassAndObject(out, reflect.ValueOf(v)); err != nil {
		return err
	}
	if ferr := out.Flush(); ferr != nil {
		return ioError("write", ferr)
	}
	return nil
}

// Decode deserializes a graph written by Encode.
func (r *Registry) Decode(data []byte) (any, error) {
	return r.DecodeFrom(NewByteBuffer(data))
}

// DecodeFrom deserializes one graph from in.
func (r *Registry) DecodeFrom(in Reader) (result any, err error) {
	start := time.Now()
	size := -1
	var startIndex int
	if buf, ok := in.(*ByteBuffer); ok {
		startIndex = buf.ReaderIndex()
	}
	r.begin(opRead)
	defer func() {
		if p := recover(); p != nil {
			result = nil
			err = newError("read", "", fmt.Errorf("%w: %v", ErrTypeMismatch, p))
		}
		r.end()
		if buf, ok := in.(*ByteBuffer); ok {
			size = buf.ReaderIndex() - startIndex
		}
		emitDecodeComplete(context.Background(), typeNameOf(result), size, time.Since(start), err)
	}()
	v, err := r.ReadClassAndObject(in)
	if err != nil {
		return nil, err
	}
	if rerr := in.Err(); rerr != nil {
		return nil, ioError("read", rerr)
	}
	if !v.IsValid() {
		return nil, nil
	}
	return v.Interface(), nil
}

// Copy returns a deep copy of v. Shared references and cycles are
// preserved, and values whose serializer is immutable are shared.
func (r *Registry) Copy(v any) (result any, err error) {
	start := time.Now()
	r.begin(opCopy)
	defer func() {
		if p := recover(); p != nil {
			result = nil
			err = newError("copy", typeNameOf(v), fmt.Errorf("%w: %v", ErrTypeMismatch, p))
		}
		r.end()
		emitCopyComplete(context.Background(), typeNameOf(v), time.Since(start), err)
	}()
	c, err := r.CopyValue(reflect.ValueOf(v))
	if err != nil {
		return nil, err
	}
	if !c.IsValid() {
		return nil, nil
	}
	return c.Interface(), nil
}

func typeNameOf(v any) string {
	if v == nil {
		return "<nil>"
	}
	return typeName(reflect.TypeOf(v))
}

// ============================================================================
// Generic API
// ============================================================================

// Marshal encodes value with r.
func Marshal[T any](r *Registry, value T) ([]byte, error) {
	return r.Encode(value)
}

// Unmarshal decodes data and asserts the result to T. A nil graph yields
// the zero T.
func Unmarshal[T any](r *Registry, data []byte) (T, error) {
	var zero T
	v, err := r.Decode(data)
	if err != nil || v == nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, newError("read", typeNameOf(v), fmt.Errorf("%w: want %s", ErrTypeMismatch, reflect.TypeOf((*T)(nil)).Elem()))
	}
	return t, nil
}

// CopyOf deep copies value with r.
func CopyOf[T any](r *Registry, value T) (T, error) {
	var zero T
	v, err := r.Copy(value)
	if err != nil || v == nil {
		return zero, err
	}
	return v.(T), nil
}

// TypeOf returns the reflect.Type of T, interface types included.
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
