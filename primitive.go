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

// ============================================================================
// Primitive encoding
// ============================================================================

func isPrimitiveKind(k reflect.Kind) bool {
	switch k {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.String:
		return true
	}
	return false
}

func isIntegerKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	}
	return false
}

// writePrimitive writes a value of primitive kind. Integers wider than a
// byte use zig-zag varints when varint is set, little-endian fixed width
// otherwise.
func writePrimitive(out Writer, v reflect.Value, varint bool) {
	switch v.Kind() {
	case reflect.Bool:
		out.WriteBool(v.Bool())
	case reflect.Int8:
		out.WriteInt8(int8(v.Int()))
	case reflect.Uint8:
		out.WriteInt8(int8(v.Uint()))
	case reflect.Int16, reflect.Int32:
		if varint {
			out.WriteVarInt(v.Int())
		} else {
			out.WriteFixedInt32(int32(v.Int()))
		}
	case reflect.Int, reflect.Int64:
		if varint {
			out.WriteVarInt(v.Int())
		} else {
			out.WriteFixedInt64(v.Int())
		}
	case reflect.Uint16, reflect.Uint32:
		if varint {
			out.WriteVarUint(v.Uint())
		} else {
			out.WriteFixedInt32(int32(uint32(v.Uint())))
		}
	case reflect.Uint, reflect.Uint64, reflect.Uintptr:
		if varint {
			out.WriteVarUint(v.Uint())
		} else {
			out.WriteFixedInt64(int64(v.Uint()))
		}
	case reflect.Float32:
		out.WriteFloat32(float32(v.Float()))
	case reflect.Float64:
		out.WriteFloat64(v.Float())
	case reflect.String:
		out.WriteString(v.String())
	}
}

// readPrimitiveInto reads a value written by writePrimitive into the
// settable dst.
func readPrimitiveInto(in Reader, dst reflect.Value, varint bool) {
	switch dst.Kind() {
	case reflect.Bool:
		dst.SetBool(in.ReadBool())
	case reflect.Int8:
		dst.SetInt(int64(in.ReadInt8()))
	case reflect.Uint8:
		dst.SetUint(uint64(uint8(in.ReadInt8())))
	case reflect.Int16, reflect.Int32:
		if varint {
			dst.SetInt(in.ReadVarInt())
		} else {
			dst.SetInt(int64(in.ReadFixedInt32()))
		}
	case reflect.Int, reflect.Int64:
		if varint {
			dst.SetInt(in.ReadVarInt())
		} else {
			dst.SetInt(in.ReadFixedInt64())
		}
	case reflect.Uint16, reflect.Uint32:
		if varint {
			dst.SetUint(in.ReadVarUint())
		} else {
			dst.SetUint(uint64(uint32(in.ReadFixedInt32())))
		}
	case reflect.Uint, reflect.Uint64, reflect.Uintptr:
		if varint {
			dst.SetUint(in.ReadVarUint())
		} else {
			dst.SetUint(uint64(in.ReadFixedInt64()))
		}
	case reflect.Float32:
		dst.SetFloat(float64(in.ReadFloat32()))
	case reflect.Float64:
		dst.SetFloat(in.ReadFloat64())
	case reflect.String:
		dst.SetString(in.ReadString())
	}
}

// ============================================================================
// PrimitiveSerializer
// ============================================================================

// PrimitiveSerializer handles every bool, integer and float kind, named
// types included.
type PrimitiveSerializer struct {
	Flags
}

func newPrimitiveSerializer() *PrimitiveSerializer {
	s := &PrimitiveSerializer{}
	s.SetImmutable(true)
	s.SetStateless(true)
	return s
}

func (s *PrimitiveSerializer) Write(r *Registry, out Writer, value reflect.Value) error {
	if !isPrimitiveKind(value.Kind()) || value.Kind() == reflect.String {
		return fmt.Errorf("%w: %s is not a primitive", ErrTypeMismatch, value.Type())
	}
	writePrimitive(out, value, r.config.VarInts)
	return nil
}

func (s *PrimitiveSerializer) Read(r *Registry, in Reader, t reflect.Type) (reflect.Value, error) {
	v := reflect.New(t).Elem()
	readPrimitiveInto(in, v, r.config.VarInts)
	return v, nil
}

func (s *PrimitiveSerializer) Copy(_ *Registry, original reflect.Value) (reflect.Value, error) {
	return original, nil
}
