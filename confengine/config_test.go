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

package confengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const content = `
server:
  host: 127.0.0.1
  port: 6380
  maxConnections: 100

admin:
  enabled: true
  address: 127.0.0.1:9901
`

func TestLoadContent(t *testing.T) {
	conf, err := LoadContent([]byte(content))
	assert.NoError(t, err)

	assert.True(t, conf.Has("server"))
	assert.False(t, conf.Has("logger"))
	assert.True(t, conf.Enabled("admin"))

	var server struct {
		Host           string `config:"host"`
		Port           int    `config:"port"`
		MaxConnections int    `config:"maxConnections"`
	}
	assert.NoError(t, conf.UnpackChild("server", &server))
	assert.Equal(t, "127.0.0.1", server.Host)
	assert.Equal(t, 6380, server.Port)
	assert.Equal(t, 100, server.MaxConnections)
}

func TestUnpackMissingChild(t *testing.T) {
	conf, err := LoadContent([]byte(content))
	assert.NoError(t, err)

	// 缺失的子节点不是错误 目标对象保持零值
	var pubsub struct {
		BufferSize int `config:"bufferSize"`
	}
	assert.NoError(t, conf.UnpackChild("pubsub", &pubsub))
	assert.Equal(t, 0, pubsub.BufferSize)
}
