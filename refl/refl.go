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

// Package refl reaches struct fields by offset, including unexported ones.
package refl

import (
	"reflect"
	"unsafe"
)

// FieldAt returns a settable value of type t located offset bytes into the
// memory at base.
func FieldAt(base unsafe.Pointer, offset uintptr, t reflect.Type) reflect.Value {
	return reflect.NewAt(t, unsafe.Add(base, offset)).Elem()
}

// Base returns the address of an addressable value.
func Base(v reflect.Value) unsafe.Pointer {
	return v.Addr().UnsafePointer()
}
