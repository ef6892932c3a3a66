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
)

// mapEntry is a key and value taken from a map before it is walked.
type mapEntry struct {
	key, value reflect.Value
}

// entriesOf collects the entries of m before any of them is visited. A
// registry walking its own registrations grows that map as it resolves
// serializers.
func entriesOf(m reflect.Value) []mapEntry {
	entries := make([]mapEntry, 0, m.Len())
	iter := m.MapRange()
	for iter.Next() {
		entries = append(entries, mapEntry{key: iter.Key(), value: iter.Value()})
	}
	return entries
}

// MapSerializer writes a varuint size followed by the entries, each key
// and value with its own type tag. The new map is referenced before it is
// populated so entries may point back at it.
type MapSerializer struct {
	Flags
}

func (s *MapSerializer) Write(r *Registry, out Writer, value reflect.Value) error {
	if value.IsNil() {
		return ErrNilValue
	}
	entries := entriesOf(value)
	out.WriteVarUint(uint64(len(entries)))
	for _, e := range entries {
		if err := r.WriteClassAndObject(out, e.key); err != nil {
			return fmt.Errorf("key: %w", err)
		}
		if err := r.WriteClassAndObject(out, e.value); err != nil {
			return fmt.Errorf("value of %v: %w", e.key, err)
		}
	}
	return nil
}

func (s *MapSerializer) Read(r *Registry, in Reader, t reflect.Type) (reflect.Value, error) {
	n, err := readLength(in)
	if err != nil {
		return reflect.Value{}, err
	}
	m := reflect.MakeMapWithSize(t, min(n, maxPrealloc))
	r.Reference(m)
	for i := 0; i < n; i++ {
		k, err := r.ReadClassAndObject(in)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("key: %w", err)
		}
		if k, err = assignable(k, t.Key()); err != nil {
			return reflect.Value{}, err
		}
		v, err := r.ReadClassAndObject(in)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("value: %w", err)
		}
		if v, err = assignable(v, t.Elem()); err != nil {
			return reflect.Value{}, err
		}
		m.SetMapIndex(k, v)
	}
	return m, nil
}

func (s *MapSerializer) Copy(r *Registry, original reflect.Value) (reflect.Value, error) {
	t := original.Type()
	entries := entriesOf(original)
	m := reflect.MakeMapWithSize(t, len(entries))
	r.Reference(m)
	for _, e := range entries {
		k, err := r.CopyValue(e.key)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("key: %w", err)
		}
		v, err := r.CopyValue(e.value)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("value of %v: %w", e.key, err)
		}
		m.SetMapIndex(k, v)
	}
	return m, nil
}
