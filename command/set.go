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
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/respd/respd/protocol/resp"
	"github.com/respd/respd/storage"
)

// Set 写入 key 对应的值 可携带过期时间
type Set struct {
	key    string
	value  []byte
	expire time.Duration
}

func NewSet(key string, value []byte, expire time.Duration) *Set {
	return &Set{key: key, value: value, expire: expire}
}

// parseSet 解析 SET key value [EX seconds | PX milliseconds]
//
// EX 与 PX 至多出现一个 同时出现或出现其他选项均视为语法错误
func parseSet(cursor *resp.Cursor) (*Set, error) {
	key, err := cursor.NextString()
	if err != nil {
		return nil, err
	}
	value, err := cursor.NextBytes()
	if err != nil {
		return nil, err
	}

	var expire time.Duration
	for {
		opt, err := cursor.NextString()
		if errors.Is(err, resp.ErrEndOfStream) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch strings.ToUpper(opt) {
		case "EX":
			if expire > 0 {
				return nil, newSyntaxError("syntax error")
			}
			seconds, err := cursor.NextInt()
			if err != nil {
				return nil, err
			}
			if seconds == 0 {
				return nil, newSyntaxError("invalid expire time in 'set' command")
			}
			expire = time.Duration(seconds) * time.Second

		case "PX":
			if expire > 0 {
				return nil, newSyntaxError("syntax error")
			}
			ms, err := cursor.NextInt()
			if err != nil {
				return nil, err
			}
			if ms == 0 {
				return nil, newSyntaxError("invalid expire time in 'set' command")
			}
			expire = time.Duration(ms) * time.Millisecond

		default:
			return nil, newSyntaxError("currently SET only supports the expiration option")
		}
	}
	return &Set{key: key, value: value, expire: expire}, nil
}

func (c *Set) Name() string {
	return "set"
}

func (c *Set) Key() string {
	return c.key
}

func (c *Set) Value() []byte {
	return c.value
}

func (c *Set) Expire() time.Duration {
	return c.expire
}

// Apply 写入键空间并回复 OK
func (c *Set) Apply(store *storage.Store) resp.Frame {
	store.Set(c.key, c.value, c.expire)
	return resp.NewSimple("OK")
}

// Frame 过期时间统一以 PX 毫秒编码 精度高于 EX
func (c *Set) Frame() resp.Frame {
	f := newCommandFrame(c.Name())
	f.PushBulk([]byte(c.key))
	f.PushBulk(c.value)
	if c.expire > 0 {
		f.PushBulk([]byte("px"))
		f.PushBulk([]byte(strconv.FormatInt(c.expire.Milliseconds(), 10)))
	}
	return f
}
