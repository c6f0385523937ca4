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
	"github.com/pkg/errors"

	"github.com/respd/respd/protocol/resp"
)

// Subscribe 订阅一个或多个频道 连接随之进入订阅模式
type Subscribe struct {
	channels []string
}

func NewSubscribe(channels ...string) *Subscribe {
	return &Subscribe{channels: channels}
}

func parseSubscribe(cursor *resp.Cursor) (*Subscribe, error) {
	channels, err := parseChannels(cursor)
	if err != nil {
		return nil, err
	}
	if len(channels) == 0 {
		return nil, newSyntaxError("wrong number of arguments for 'subscribe' command")
	}
	return &Subscribe{channels: channels}, nil
}

func (c *Subscribe) Name() string {
	return "subscribe"
}

func (c *Subscribe) Channels() []string {
	return c.channels
}

func (c *Subscribe) Frame() resp.Frame {
	f := newCommandFrame(c.Name())
	for _, ch := range c.channels {
		f.PushBulk([]byte(ch))
	}
	return f
}

// Unsubscribe 退订频道 空列表表示退订当前的全部频道
type Unsubscribe struct {
	channels []string
}

func NewUnsubscribe(channels ...string) *Unsubscribe {
	return &Unsubscribe{channels: channels}
}

func parseUnsubscribe(cursor *resp.Cursor) (*Unsubscribe, error) {
	channels, err := parseChannels(cursor)
	if err != nil {
		return nil, err
	}
	return &Unsubscribe{channels: channels}, nil
}

func (c *Unsubscribe) Name() string {
	return "unsubscribe"
}

func (c *Unsubscribe) Channels() []string {
	return c.channels
}

func (c *Unsubscribe) Frame() resp.Frame {
	f := newCommandFrame(c.Name())
	for _, ch := range c.channels {
		f.PushBulk([]byte(ch))
	}
	return f
}

func parseChannels(cursor *resp.Cursor) ([]string, error) {
	var channels []string
	for {
		ch, err := cursor.NextString()
		if errors.Is(err, resp.ErrEndOfStream) {
			return channels, nil
		}
		if err != nil {
			return nil, err
		}
		channels = append(channels, ch)
	}
}
