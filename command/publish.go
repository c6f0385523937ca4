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

// Publish 向频道投递一条消息
type Publish struct {
	channel string
	message []byte
}

func NewPublish(channel string, message []byte) *Publish {
	return &Publish{channel: channel, message: message}
}

func parsePublish(cursor *resp.Cursor) (*Publish, error) {
	channel, err := cursor.NextString()
	if err != nil {
		return nil, err
	}
	message, err := cursor.NextBytes()
	if err != nil {
		return nil, err
	}
	if err := cursor.Finish(); err != nil {
		return nil, err
	}
	return &Publish{channel: channel, message: message}, nil
}

func (c *Publish) Name() string {
	return "publish"
}

func (c *Publish) Channel() string {
	return c.channel
}

// Apply 回复接收到消息的订阅者个数 频道不存在时为 0
func (c *Publish) Apply(store *storage.Store) resp.Frame {
	n := store.Publish(c.channel, c.message)
	return resp.NewInteger(uint64(n))
}

func (c *Publish) Frame() resp.Frame {
	f := newCommandFrame(c.Name())
	f.PushBulk([]byte(c.channel))
	f.PushBulk(c.message)
	return f
}
