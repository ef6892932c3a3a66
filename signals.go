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
	"time"

	"github.com/zoobzio/capitan"
)

// Signals for codec events.
var (
	SignalEncodeComplete        = capitan.NewSignal("graphcodec.encode.complete", "Encode operation finished")
	SignalDecodeComplete        = capitan.NewSignal("graphcodec.decode.complete", "Decode operation finished")
	SignalCopyComplete          = capitan.NewSignal("graphcodec.copy.complete", "Copy operation finished")
	SignalSerializerSynthesized = capitan.NewSignal("graphcodec.serializer.synthesized", "Default serializer cached for a type")
)

// Keys for typed event data.
var (
	KeyTypeName   = capitan.NewStringKey("type_name")
	KeySerializer = capitan.NewStringKey("serializer")
	KeySize       = capitan.NewIntKey("size")
	KeyDuration   = capitan.NewDurationKey("duration")
	KeyError      = capitan.NewErrorKey("error")
)

func completeFields(typeName string, size int, duration time.Duration, err error) []capitan.Field {
	fields := []capitan.Field{
		KeyTypeName.Field(typeName),
		KeyDuration.Field(duration),
	}
	if size >= 0 {
		fields = append(fields, KeySize.Field(size))
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
	}
	return fields
}

// emitEncodeComplete emits an event when an encode finishes.
func emitEncodeComplete(ctx context.Context, typeName string, size int, duration time.Duration, err error) {
	fields := completeFields(typeName, size, duration, err)
	if err != nil {
		capitan.Error(ctx, SignalEncodeComplete, fields...)
	} else {
		capitan.Emit(ctx, SignalEncodeComplete, fields...)
	}
}

// emitDecodeComplete emits an event when a decode finishes.
func emitDecodeComplete(ctx context.Context, typeName string, size int, duration time.Duration, err error) {
	fields := completeFields(typeName, size, duration, err)
	if err != nil {
		capitan.Error(ctx, SignalDecodeComplete, fields...)
	} else {
		capitan.Emit(ctx, SignalDecodeComplete, fields...)
	}
}

// emitCopyComplete emits an event when a copy finishes.
func emitCopyComplete(ctx context.Context, typeName string, duration time.Duration, err error) {
	fields := completeFields(typeName, -1, duration, err)
	if err != nil {
		capitan.Error(ctx, SignalCopyComplete, fields...)
	} else {
		capitan.Emit(ctx, SignalCopyComplete, fields...)
	}
}

func emitSerializerSynthesized(ctx context.Context, typeName, serializer string) {
	capitan.Emit(ctx, SignalSerializerSynthesized,
		KeyTypeName.Field(typeName),
		KeySerializer.Field(serializer),
	)
}
