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

// Set is a set of comparable values. Any map whose value type is struct{}
// is encoded as a set.
type Set[K comparable] map[K]struct{}

func NewSet[K comparable](values ...K) Set[K] {
	s := make(Set[K], len(values))
	s.Add(values...)
	return s
}

func (s Set[K]) Add(values ...K) {
	for _, v := range values {
		s[v] = struct{}{}
	}
}

func (s Set[K]) Has(v K) bool {
	_, ok := s[v]
	return ok
}

// SetSerializer writes a varuint size followed by the elements, each with
// its own type tag.
type SetSerializer struct {
	Flags
}

func (s *SetSerializer) Write(r *Registry, out Writer, value reflect.Value) error {
	if value.IsNil() {
		return ErrNilValue
	}
	keys := value.MapKeys()
	out.WriteVarUint(uint64(len(keys)))
	for _, k := range keys {
		if err := r.WriteClassAndObject(out, k); err != nil {
			return fmt.Errorf("element: %w", err)
		}
	}
	return nil
}

func (s *SetSerializer) Read(r *Registry, in Reader, t reflect.Type) (reflect.Value, error) {
	n, err := readLength(in)
	if err != nil {
		return reflect.Value{}, err
	}
	m := reflect.MakeMapWithSize(t, min(n, maxPrealloc))
	r.Reference(m)
	present := reflect.Zero(t.Elem())
	for i := 0; i < n; i++ {
		k, err := r.ReadClassAndObject(in)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("element: %w", err)
		}
		if k, err = assignable(k, t.Key()); err != nil {
			return reflect.Value{}, err
		}
		m.SetMapIndex(k, present)
	}
	return m, nil
}

func (s *SetSerializer) Copy(r *Registry, original reflect.Value) (reflect.Value, error) {
	t := original.Type()
	keys := original.MapKeys()
	m := reflect.MakeMapWithSize(t, len(keys))
	r.Reference(m)
	present := reflect.Zero(t.Elem())
	for _, key := range keys {
		k, err := r.CopyValue(key)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("element: %w", err)
		}
		m.SetMapIndex(k, present)
	}
	return m, nil
}
