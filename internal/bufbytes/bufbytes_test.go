// Copyright 2025 The respd Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package bufbytes

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriteDiscard(t *testing.T) {
	b := New(8)
	b.Write([]byte("+OK\r\n:1"))
	assert.Equal(t, 7, b.Len())

	b.Discard(5)
	assert.Equal(t, ":1", string(b.Bytes()))

	b.Write([]byte("00\r\n"))
	assert.Equal(t, ":100\r\n", string(b.Bytes()))

	b.Discard(6)
	assert.Equal(t, 0, b.Len())
}

func TestReadFrom(t *testing.T) {
	b := New(4)
	r := strings.NewReader("*1\r\n$4\r\nping\r\n")

	total := 0
	for {
		n, err := b.ReadFrom(r, 4)
		total += n
		if err != nil {
			break
		}
	}
	assert.Equal(t, 14, total)
	assert.Equal(t, "*1\r\n$4\r\nping\r\n", string(b.Bytes()))
}

func TestReadFromAfterDiscard(t *testing.T) {
	b := New(4)
	b.Write([]byte("+OK\r\n+PON"))
	b.Discard(5)

	_, err := b.ReadFrom(strings.NewReader("G\r\n"), 4)
	assert.NoError(t, err)
	assert.Equal(t, "+PONG\r\n", string(b.Bytes()))
}

func TestReset(t *testing.T) {
	b := New(4)
	b.Write([]byte("data"))
	b.Reset()
	assert.Equal(t, 0, b.Len())
}
