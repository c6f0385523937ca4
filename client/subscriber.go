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

package client

import (
	"sort"

	"github.com/respd/respd/command"
	"github.com/respd/respd/protocol/resp"
)

// Message 从订阅频道收到的一条消息
type Message struct {
	Channel string
	Content []byte
}

// Subscriber 订阅模式下的连接句柄
//
// 由 Client.Subscribe 产生 此后该连接上只有订阅相关的交互
type Subscriber struct {
	client   *Client
	channels []string
}

// Channels 返回当前已订阅的频道集合
func (s *Subscriber) Channels() []string {
	return s.channels
}

// NextMessage 阻塞等待任一已订阅频道的下一条消息
func (s *Subscriber) NextMessage() (Message, error) {
	f, err := s.client.conn.ReadFrame()
	if err != nil {
		return Message{}, err
	}

	kind, channel, payload, err := splitPushFrame(f)
	if err != nil {
		return Message{}, err
	}
	if kind != "message" {
		return Message{}, newError("expected message frame, got %q", kind)
	}
	return Message{Channel: channel, Content: payload}, nil
}

// Subscribe 追加订阅频道
func (s *Subscriber) Subscribe(channels ...string) error {
	f := command.NewSubscribe(channels...).Frame()
	if err := s.client.conn.WriteFrame(&f); err != nil {
		return err
	}

	for _, ch := range channels {
		if err := s.awaitAck("subscribe", ch); err != nil {
			return err
		}
		s.channels = append(s.channels, ch)
	}
	return nil
}

// Unsubscribe 退订频道 空列表表示退订当前全部
func (s *Subscriber) Unsubscribe(channels ...string) error {
	f := command.NewUnsubscribe(channels...).Frame()
	if err := s.client.conn.WriteFrame(&f); err != nil {
		return err
	}

	removed := channels
	if len(removed) == 0 {
		// 退订全部 拷贝一份 迭代期间 channels 集合自身会被修改
		// 服务端对退订全部按频道名排序回复确认帧 此处按同样顺序等待
		removed = append([]string(nil), s.channels...)
		sort.Strings(removed)
	}

	for _, ch := range removed {
		if err := s.awaitAck("unsubscribe", ch); err != nil {
			return err
		}
		s.drop(ch)
	}
	return nil
}

func (s *Subscriber) Close() error {
	return s.client.Close()
}

// awaitAck 等待一条确认帧 其间到达的普通消息直接丢弃
//
// 服务端保证确认帧按请求顺序到达 但可能与转发消息交错
func (s *Subscriber) awaitAck(kind string, channel string) error {
	for {
		f, err := s.client.conn.ReadFrame()
		if err != nil {
			return err
		}

		got, ch, _, err := splitPushFrame(f)
		if err != nil {
			return err
		}
		if got == "message" {
			continue
		}
		if got != kind || ch != channel {
			return newError("expected %s ack for channel %q, got %s %q", kind, channel, got, ch)
		}
		return nil
	}
}

func (s *Subscriber) drop(channel string) {
	for i, ch := range s.channels {
		if ch == channel {
			s.channels = append(s.channels[:i], s.channels[i+1:]...)
			return
		}
	}
}

// splitPushFrame 拆解订阅模式下服务端推送的数组帧
//
// 形如 ["message", channel, payload] 或 ["subscribe"|"unsubscribe", channel, count]
func splitPushFrame(f *resp.Frame) (kind string, channel string, payload []byte, err error) {
	cursor, err := resp.NewCursor(f)
	if err != nil {
		return "", "", nil, err
	}

	kind, err = cursor.NextString()
	if err != nil {
		return "", "", nil, err
	}
	channel, err = cursor.NextString()
	if err != nil {
		return "", "", nil, err
	}
	payload, err = cursor.NextBytes()
	if err != nil {
		return "", "", nil, err
	}
	return kind, channel, payload, cursor.Finish()
}
