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
	"fmt"
	"reflect"
	"strings"

	"github.com/chaokunyang/graphcodec/refl"
)

// tagOptions are the comma separated options of a `graph:"..."` tag.
type tagOptions struct {
	skip      bool
	transient bool
	fixed     bool
	notNull   bool
}

func parseTag(sf reflect.StructField) tagOptions {
	tag, ok := sf.Tag.Lookup("graph")
	if !ok {
		return tagOptions{}
	}
	if tag == "-" {
		return tagOptions{skip: true}
	}
	var opts tagOptions
	parts := strings.Split(tag, ",")
	for _, p := range parts[1:] {
		switch strings.TrimSpace(p) {
		case "transient":
			opts.transient = true
		case "fixed":
			opts.fixed = true
		case "notnull":
			opts.notNull = true
		}
	}
	return opts
}

// fieldAccess reads and writes one field of an addressable struct value.
type fieldAccess struct {
	typ       reflect.Type
	index     int
	offset    uintptr
	byIndex   bool
	primitive bool
}

func (a *fieldAccess) get(base reflect.Value) reflect.Value {
	if a.byIndex {
		return base.Field(a.index)
	}
	return refl.FieldAt(refl.Base(base), a.offset, a.typ)
}

// CachedField is the precomputed model of one struct field. It is built
// once per struct type and not modified afterwards.
type CachedField struct {
	name          string
	declaringType reflect.Type
	offset        uintptr
	index         int
	// valueType is nil for interface-typed fields, whose values carry
	// their own type tag.
	valueType  reflect.Type
	nullable   bool
	varint     bool
	transient  bool
	serializer Serializer
	handle     *FieldHandle
	access     fieldAccess `graph:"-"`
}

func newCachedField(r *Registry, declaring reflect.Type, index int, opts tagOptions) (*CachedField, error) {
	sf := declaring.Field(index)
	handle, err := r.accessors.Field(declaring, sf.Name)
	if err != nil {
		return nil, err
	}
	ft := sf.Type
	cf := &CachedField{
		name:          sf.Name,
		declaringType: declaring,
		offset:        sf.Offset,
		index:         index,
		nullable:      nullable(ft) && !opts.notNull,
		varint:        r.config.VarInts && !opts.fixed && isIntegerKind(ft.Kind()),
		transient:     opts.transient,
		handle:        handle,
	}
	if ft.Kind() != reflect.Interface {
		cf.valueType = ft
	}
	if opaqueKind(ft.Kind()) && !cf.transient {
		return nil, fieldError("resolve", typeName(declaring), sf.Name, ErrUnsupportedType)
	}
	if cf.valueType != nil && !cf.transient {
		s, err := r.Serializer(ft)
		if err != nil {
			return nil, fieldError("resolve", typeName(declaring), sf.Name, err)
		}
		cf.serializer = s
	}
	cf.bind()
	return cf, nil
}

// opaqueKind reports kinds that are never encoded. Transient fields of
// these kinds are copied by assignment.
func opaqueKind(k reflect.Kind) bool {
	switch k {
	case reflect.Func, reflect.Chan, reflect.UnsafePointer, reflect.Complex64, reflect.Complex128:
		return true
	}
	return false
}

// bind derives the access mechanism: index access for exported fields,
// offset access for the rest.
func (f *CachedField) bind() {
	sf := f.handle.StructField()
	f.access = fieldAccess{
		typ:     sf.Type,
		index:   f.index,
		offset:  f.offset,
		byIndex: sf.IsExported(),
	}
	switch f.serializer.(type) {
	case *PrimitiveSerializer, *StringSerializer:
		f.access.primitive = true
	}
}

func (f *CachedField) Name() string               { return f.name }
func (f *CachedField) DeclaringType() reflect.Type { return f.declaringType }
func (f *CachedField) Offset() uintptr            { return f.offset }
func (f *CachedField) Index() int                 { return f.index }
func (f *CachedField) ValueType() reflect.Type    { return f.valueType }
func (f *CachedField) Nullable() bool             { return f.nullable }
func (f *CachedField) VarInt() bool               { return f.varint }
func (f *CachedField) Transient() bool            { return f.transient }
func (f *CachedField) Serializer() Serializer     { return f.serializer }
func (f *CachedField) Handle() *FieldHandle       { return f.handle }

// UseOffsetAccess forces offset access even for exported fields. Both
// mechanisms produce the same bytes.
func (f *CachedField) UseOffsetAccess() {
	f.access.byIndex = false
}

func (f *CachedField) String() string {
	return fmt.Sprintf("%s.%s", typeName(f.declaringType), f.name)
}

func (f *CachedField) write(r *Registry, out Writer, v reflect.Value) error {
	switch {
	case f.access.primitive:
		writePrimitive(out, v, f.varint)
		return nil
	case f.valueType == nil:
		return r.WriteClassAndObject(out, v)
	case f.nullable:
		return r.writeMarked(out, f.serializer, v, true)
	}
	if isNil(v) {
		return ErrNilValue
	}
	return r.writeMarked(out, f.serializer, v, false)
}

func (f *CachedField) readInto(r *Registry, in Reader, dst reflect.Value) error {
	switch {
	case f.access.primitive:
		readPrimitiveInto(in, dst, f.varint)
		return nil
	case f.valueType == nil:
		v, err := r.ReadClassAndObject(in)
		if err != nil {
			return err
		}
		if v, err = assignable(v, dst.Type()); err != nil {
			return err
		}
		dst.Set(v)
		return nil
	}
	v, err := r.readMarked(in, f.serializer, f.valueType, f.nullable)
	if err != nil {
		return err
	}
	dst.Set(v)
	return nil
}
