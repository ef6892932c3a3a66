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

package snapshot

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chaokunyang/graphcodec"
)

type document struct {
	Title    string
	Sections []*section
	Version  uint32
}

type section struct {
	Heading string
	Parent  *document
}

func sampleDocument() *document {
	d := &document{Title: "manual", Version: 3}
	d.Sections = []*section{{Heading: "intro", Parent: d}, {Heading: "usage", Parent: d}}
	return d
}

func prepared(t *testing.T) (*graphcodec.Registry, *graphcodec.Registry, []byte) {
	r := graphcodec.New(graphcodec.WithStructHash(true))
	_, err := r.Register(graphcodec.TypeOf[*section]())
	require.NoError(t, err)
	expected, err := r.Encode(sampleDocument())
	require.NoError(t, err)
	meta, err := graphcodec.NewMetaRegistry()
	require.NoError(t, err)
	return r, meta, expected
}

func TestRoundTrip(t *testing.T) {
	r, meta, expected := prepared(t)

	var frame bytes.Buffer
	require.NoError(t, Write(&frame, meta, r))
	require.True(t, bytes.HasPrefix(frame.Bytes(), []byte(magic)))

	restored, err := Read(&frame, meta)
	require.NoError(t, err)
	require.Zero(t, frame.Len())
	require.Equal(t, r.Config(), restored.Config())

	actual, err := restored.Encode(sampleDocument())
	require.NoError(t, err)
	require.Equal(t, expected, actual)

	doc, err := graphcodec.Unmarshal[*document](restored, expected)
	require.NoError(t, err)
	require.Same(t, doc, doc.Sections[1].Parent)
}

func TestConsecutiveFrames(t *testing.T) {
	r, meta, _ := prepared(t)
	other := graphcodec.New(graphcodec.WithReferences(false))

	var stream bytes.Buffer
	require.NoError(t, Write(&stream, meta, r))
	require.NoError(t, Write(&stream, meta, other))

	first, err := Read(&stream, meta)
	require.NoError(t, err)
	require.True(t, first.Config().StructHash)
	second, err := Read(&stream, meta)
	require.NoError(t, err)
	require.False(t, second.Config().References)
}

func TestCorruption(t *testing.T) {
	r, meta, _ := prepared(t)
	var frame bytes.Buffer
	require.NoError(t, Write(&frame, meta, r))
	good := frame.Bytes()

	t.Run("Payload", func(t *testing.T) {
		bad := append([]byte(nil), good...)
		bad[len(bad)-1] ^= 0x01
		_, err := Read(bytes.NewReader(bad), meta)
		require.ErrorIs(t, err, ErrCorrupt)
	})

	t.Run("Magic", func(t *testing.T) {
		bad := append([]byte(nil), good...)
		bad[0] = 'X'
		_, err := Read(bytes.NewReader(bad), meta)
		require.ErrorIs(t, err, ErrCorrupt)
	})

	t.Run("Version", func(t *testing.T) {
		bad := append([]byte(nil), good...)
		bad[len(magic)] = version + 1
		_, err := Read(bytes.NewReader(bad), meta)
		require.ErrorIs(t, err, ErrCorrupt)
	})

	t.Run("Truncated", func(t *testing.T) {
		_, err := Read(bytes.NewReader(good[:len(good)-4]), meta)
		require.Error(t, err)
		_, err = Read(bytes.NewReader(good[:3]), meta)
		require.Error(t, err)
	})
}
