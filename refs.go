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
	"reflect"
)

// Reference markers written before tracked values.
const (
	NullFlag         int8 = -3
	RefFlag          int8 = -2
	NotNullValueFlag int8 = -1
	RefValueFlag     int8 = 0
)

type refKey struct {
	ptr uintptr
	typ reflect.Type
}

// useReferences reports whether values of t have an identity that the
// reference resolver tracks: pointers and maps. A pointer into a struct is
// keyed by its own type, so it never aliases the struct that contains it.
func useReferences(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Ptr, reflect.Map:
		return true
	}
	return false
}

func keyOf(v reflect.Value) refKey {
	return refKey{ptr: v.Pointer(), typ: v.Type()}
}

// referenceResolver holds the per-operation reference tables. Ids are
// assigned in first-encounter order on write and replayed in the same
// order on read.
type referenceResolver struct {
	written map[refKey]uint64

	read    []reflect.Value
	pending []int

	copies    map[refKey]reflect.Value
	originals []refKey
}

func newReferenceResolver() *referenceResolver {
	return &referenceResolver{
		written: make(map[refKey]uint64),
		copies:  make(map[refKey]reflect.Value),
	}
}

func (r *referenceResolver) reset() {
	clear(r.written)
	clear(r.read)
	r.read = r.read[:0]
	r.pending = r.pending[:0]
	clear(r.copies)
	r.originals = r.originals[:0]
}

// writtenID returns the id of v if it was written earlier in this
// operation. Otherwise it assigns the next id and returns false.
func (r *referenceResolver) writtenID(v reflect.Value) (uint64, bool) {
	k := keyOf(v)
	if id, ok := r.written[k]; ok {
		return id, true
	}
	r.written[k] = uint64(len(r.written))
	return 0, false
}

// reserve allocates the next read id for an object whose value is not
// known yet.
func (r *referenceResolver) reserve() {
	r.pending = append(r.pending, len(r.read))
	r.read = append(r.read, reflect.Value{})
}

// bind records v for the innermost pending id unless the object already
// referenced itself.
func (r *referenceResolver) bind(v reflect.Value) {
	if n := len(r.pending); n > 0 {
		id := r.pending[n-1]
		if !r.read[id].IsValid() {
			r.read[id] = v
		}
	}
}

// complete pops the innermost pending id, binding v when the serializer
// never called Reference.
func (r *referenceResolver) complete(v reflect.Value) {
	r.bind(v)
	r.pending = r.pending[:len(r.pending)-1]
}

func (r *referenceResolver) readByID(id uint64) (reflect.Value, bool) {
	if id >= uint64(len(r.read)) {
		return reflect.Value{}, false
	}
	v := r.read[id]
	return v, v.IsValid()
}

func (r *referenceResolver) copied(original reflect.Value) (reflect.Value, bool) {
	c, ok := r.copies[keyOf(original)]
	return c, ok
}

func (r *referenceResolver) pushOriginal(original reflect.Value) {
	r.originals = append(r.originals, keyOf(original))
}

// bindCopy maps the innermost original being copied to c, once.
func (r *referenceResolver) bindCopy(c reflect.Value) {
	if n := len(r.originals); n > 0 {
		k := r.originals[n-1]
		if _, ok := r.copies[k]; !ok {
			r.copies[k] = c
		}
	}
}

func (r *referenceResolver) popOriginal(c reflect.Value) {
	r.bindCopy(c)
	r.originals = r.originals[:len(r.originals)-1]
}
