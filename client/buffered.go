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
	"time"

	"github.com/respd/respd/internal/rescue"
)

// requestBuffer 排队中的请求上限 写满后调用方阻塞等待
const requestBuffer = 32

// Buffered 请求缓冲客户端
//
// 多个 goroutine 的请求汇入同一条连接 由单个工作协程串行执行
// 调用方阻塞直到自己的请求完成 连接上依然保持严格的一问一答
type Buffered struct {
	requests chan bufRequest
}

type bufRequest struct {
	execute func(*Client) (any, error)
	result  chan bufResult
}

type bufResult struct {
	value any
	err   error
}

// NewBuffered 接管 c 并返回缓冲客户端 此后不要再直接使用 c
func NewBuffered(c *Client) *Buffered {
	b := &Buffered{
		requests: make(chan bufRequest, requestBuffer),
	}
	go b.worker(c)
	return b
}

func (b *Buffered) worker(c *Client) {
	defer rescue.HandleCrash()
	defer c.Close()

	for req := range b.requests {
		value, err := req.execute(c)
		req.result <- bufResult{value: value, err: err}
	}
}

func (b *Buffered) submit(execute func(*Client) (any, error)) (any, error) {
	req := bufRequest{
		execute: execute,
		result:  make(chan bufResult, 1),
	}
	b.requests <- req

	res := <-req.result
	return res.value, res.err
}

func (b *Buffered) Ping(message []byte) ([]byte, error) {
	value, err := b.submit(func(c *Client) (any, error) {
		return c.Ping(message)
	})
	if err != nil {
		return nil, err
	}
	return value.([]byte), nil
}

func (b *Buffered) Get(key string) ([]byte, error) {
	value, err := b.submit(func(c *Client) (any, error) {
		return c.Get(key)
	})
	if err != nil {
		return nil, err
	}
	return value.([]byte), nil
}

func (b *Buffered) Set(key string, value []byte) error {
	_, err := b.submit(func(c *Client) (any, error) {
		return nil, c.Set(key, value)
	})
	return err
}

func (b *Buffered) SetExpires(key string, value []byte, ttl time.Duration) error {
	_, err := b.submit(func(c *Client) (any, error) {
		return nil, c.SetExpires(key, value, ttl)
	})
	return err
}

func (b *Buffered) Publish(channel string, message []byte) (uint64, error) {
	value, err := b.submit(func(c *Client) (any, error) {
		return c.Publish(channel, message)
	})
	if err != nil {
		return 0, err
	}
	return value.(uint64), nil
}

// Close 关闭请求队列 已排队的请求执行完毕后连接随之关闭
func (b *Buffered) Close() {
	close(b.requests)
}
