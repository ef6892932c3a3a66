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

// ArraySerializer writes the elements of a fixed-length array. The length
// is part of the type and not written.
type ArraySerializer struct {
	Flags
}

func (s *ArraySerializer) Write(r *Registry, out Writer, value reflect.Value) error {
	c, err := r.elementCodec(value.Type().Elem())
	if err != nil {
		return err
	}
	for i := 0; i < value.Len(); i++ {
		if err := c.write(r, out, value.Index(i)); err != nil {
			return fmt.Errorf("index %d: %w", i, err)
		}
	}
	return nil
}

func (s *ArraySerializer) Read(r *Registry, in Reader, t reflect.Type) (reflect.Value, error) {
	c, err := r.elementCodec(t.Elem())
	if err != nil {
		return reflect.Value{}, err
	}
	v := reflect.New(t).Elem()
	for i := 0; i < t.Len(); i++ {
		if err := c.readInto(r, in, v.Index(i)); err != nil {
			return reflect.Value{}, fmt.Errorf("index %d: %w", i, err)
		}
	}
	return v, nil
}

func (s *ArraySerializer) Copy(r *Registry, original reflect.Value) (reflect.Value, error) {
	v := reflect.New(original.Type()).Elem()
	if isPrimitiveKind(original.Type().Elem().Kind()) {
		v.Set(original)
		return v, nil
	}
	for i := 0; i < original.Len(); i++ {
		c, err := r.CopyValue(original.Index(i))
		if err != nil {
			return reflect.Value{}, fmt.Errorf("index %d: %w", i, err)
		}
		v.Index(i).Set(c)
	}
	return v, nil
}
