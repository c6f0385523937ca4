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
	"net"
	"time"

	"github.com/pkg/errors"

	"github.com/respd/respd/command"
	"github.com/respd/respd/protocol/resp"
)

func newError(format string, args ...any) error {
	format = "client: " + format
	return errors.Errorf(format, args...)
}

// Client 面向单条连接的同步客户端
//
// 请求与回复严格一问一答 不支持并发调用
// 多 goroutine 共享一条连接请使用 Buffered
type Client struct {
	conn *resp.Conn
}

// Connect 建立到服务端的 TCP 连接
func Connect(addr string) (*Client, error) {
	sock, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Client{conn: resp.NewConn(sock)}, nil
}

// Ping 连通性探测 无参数时服务端回复 PONG 带参数时原样回显
func (c *Client) Ping(message []byte) ([]byte, error) {
	reply, err := c.roundTrip(command.NewPing(message).Frame())
	if err != nil {
		return nil, err
	}

	switch reply.Type {
	case resp.SimpleStrings:
		return []byte(reply.Str), nil
	case resp.BulkStrings:
		return reply.Bulk, nil
	}
	return nil, unexpectedFrame(reply)
}

// Get 读取 key 对应的值 键不存在时返回 nil
func (c *Client) Get(key string) ([]byte, error) {
	reply, err := c.roundTrip(command.NewGet(key).Frame())
	if err != nil {
		return nil, err
	}

	switch reply.Type {
	case resp.BulkStrings:
		return reply.Bulk, nil
	case resp.Null:
		return nil, nil
	}
	return nil, unexpectedFrame(reply)
}

// Set 写入 key 对应的值 值永不过期
func (c *Client) Set(key string, value []byte) error {
	return c.set(command.NewSet(key, value, 0))
}

// SetExpires 写入 key 对应的值 并在 ttl 之后过期
func (c *Client) SetExpires(key string, value []byte, ttl time.Duration) error {
	return c.set(command.NewSet(key, value, ttl))
}

func (c *Client) set(cmd *command.Set) error {
	reply, err := c.roundTrip(cmd.Frame())
	if err != nil {
		return err
	}
	if reply.Type == resp.SimpleStrings && reply.Str == "OK" {
		return nil
	}
	return unexpectedFrame(reply)
}

// Publish 向频道投递一条消息 返回接收到消息的订阅者个数
func (c *Client) Publish(channel string, message []byte) (uint64, error) {
	reply, err := c.roundTrip(command.NewPublish(channel, message).Frame())
	if err != nil {
		return 0, err
	}
	if reply.Type != resp.Integers {
		return 0, unexpectedFrame(reply)
	}
	return reply.Int, nil
}

// Subscribe 订阅一个或多个频道
//
// 连接随之进入订阅模式 Client 被 Subscriber 接管
// 此后只能通过 Subscriber 收取消息或调整订阅
func (c *Client) Subscribe(channels ...string) (*Subscriber, error) {
	f := command.NewSubscribe(channels...).Frame()
	if err := c.conn.WriteFrame(&f); err != nil {
		return nil, err
	}

	sub := &Subscriber{client: c}
	for _, ch := range channels {
		if err := sub.awaitAck("subscribe", ch); err != nil {
			return nil, err
		}
		sub.channels = append(sub.channels, ch)
	}
	return sub, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// roundTrip 写出请求并等待回复 错误帧转换为 error 返回
func (c *Client) roundTrip(f resp.Frame) (*resp.Frame, error) {
	if err := c.conn.WriteFrame(&f); err != nil {
		return nil, err
	}
	return c.readReply()
}

func (c *Client) readReply() (*resp.Frame, error) {
	reply, err := c.conn.ReadFrame()
	if err != nil {
		return nil, err
	}
	if reply.Type == resp.Errors {
		return nil, errors.New(reply.Str)
	}
	return reply, nil
}

func unexpectedFrame(f *resp.Frame) error {
	return newError("unexpected reply frame: %s", f.String())
}
