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

package command

import (
	"github.com/respd/respd/protocol/resp"
	"github.com/respd/respd/storage"
)

// Get 读取 key 对应的值
type Get struct {
	key string
}

func NewGet(key string) *Get {
	return &Get{key: key}
}

func parseGet(cursor *resp.Cursor) (*Get, error) {
	key, err := cursor.NextString()
	if err != nil {
		return nil, err
	}
	if err := cursor.Finish(); err != nil {
		return nil, err
	}
	return &Get{key: key}, nil
}

func (c *Get) Name() string {
	return "get"
}

func (c *Get) Key() string {
	return c.key
}

// Apply 存在时回复 BulkStrings 不存在时回复 Null
func (c *Get) Apply(store *storage.Store) resp.Frame {
	if value := store.Get(c.key); value != nil {
		return resp.NewBulk(value)
	}
	return resp.NewNull()
}

func (c *Get) Frame() resp.Frame {
	f := newCommandFrame(c.Name())
	f.PushBulk([]byte(c.key))
	return f
}
