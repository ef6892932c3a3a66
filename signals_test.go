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
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEmitComplete(_ *testing.T) {
	ctx := context.Background()
	emitEncodeComplete(ctx, "main.Node", 128, time.Millisecond, nil)
	emitEncodeComplete(ctx, "main.Node", -1, time.Millisecond, errors.New("test error"))
	emitDecodeComplete(ctx, "main.Node", 128, time.Millisecond, nil)
	emitDecodeComplete(ctx, "<nil>", 3, time.Millisecond, errors.New("test error"))
	emitCopyComplete(ctx, "main.Node", time.Millisecond, nil)
	emitCopyComplete(ctx, "main.Node", time.Millisecond, errors.New("test error"))
	emitSerializerSynthesized(ctx, "main.Node", "*graphcodec.FieldSerializer")
}

func TestCompleteFields(t *testing.T) {
	require.Len(t, completeFields("main.Node", 10, time.Second, nil), 3)
	require.Len(t, completeFields("main.Node", -1, time.Second, nil), 2)
	require.Len(t, completeFields("main.Node", 10, time.Second, errors.New("x")), 4)
}

func TestSignalVariables(t *testing.T) {
	for _, s := range []any{SignalEncodeComplete, SignalDecodeComplete, SignalCopyComplete, SignalSerializerSynthesized} {
		require.NotNil(t, s)
	}
	for _, k := range []any{KeyTypeName, KeySerializer, KeySize, KeyDuration, KeyError} {
		require.NotNil(t, k)
	}
}
