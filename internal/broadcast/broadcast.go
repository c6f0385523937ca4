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

package broadcast

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var (
	// ErrLagged 消费者追赶不上生产速度 缓冲区内最旧的消息已被覆盖
	//
	// 返回该错误后消费队列已重新对齐 下一次 Recv 从存活的最旧消息继续
	ErrLagged = errors.New("broadcast: receiver lagged")

	// ErrClosed 消费者已被关闭
	ErrClosed = errors.New("broadcast: receiver closed")
)

// Sender 单个频道的广播发送端
//
// 每个 Receiver 独立持有定长缓冲 互不阻塞
// 发送永不失败 消费过慢的 Receiver 丢弃最旧消息并记录滞后
type Sender struct {
	mut       sync.Mutex
	capacity  int
	receivers map[string]*Receiver
}

func NewSender(capacity int) *Sender {
	if capacity <= 0 {
		capacity = 1
	}
	return &Sender{
		capacity:  capacity,
		receivers: make(map[string]*Receiver),
	}
}

// Subscribe 创建并注册一个新的消费端
func (s *Sender) Subscribe() *Receiver {
	s.mut.Lock()
	defer s.mut.Unlock()

	r := &Receiver{
		id:       uuid.New().String(),
		capacity: s.capacity,
		wake:     make(chan struct{}, 1),
		sender:   s,
	}
	s.receivers[r.id] = r
	return r
}

// Send 向所有在册的消费端投递消息 返回投递到的消费端个数
func (s *Sender) Send(p []byte) int {
	s.mut.Lock()
	defer s.mut.Unlock()

	for _, r := range s.receivers {
		r.push(p)
	}
	return len(s.receivers)
}

// Len 返回在册的消费端个数
func (s *Sender) Len() int {
	s.mut.Lock()
	defer s.mut.Unlock()

	return len(s.receivers)
}

func (s *Sender) unsubscribe(id string) {
	s.mut.Lock()
	defer s.mut.Unlock()

	delete(s.receivers, id)
}

// Receiver 广播消息的消费端
type Receiver struct {
	id       string
	capacity int
	sender   *Sender

	mut    sync.Mutex
	queue  [][]byte
	lagged int
	closed bool
	wake   chan struct{}
}

func (r *Receiver) ID() string {
	return r.id
}

// push 入队一条消息 队列已满时覆盖最旧的一条
func (r *Receiver) push(p []byte) {
	r.mut.Lock()
	defer r.mut.Unlock()

	if r.closed {
		return
	}

	if len(r.queue) >= r.capacity {
		r.queue = r.queue[1:]
		r.lagged++
	}
	r.queue = append(r.queue, p)

	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// Recv 弹出下一条消息 队列为空时阻塞直到有消息或 ctx 被取消
//
// 发生过消息覆盖时优先返回一次 ErrLagged 提示调用方出现了丢失
func (r *Receiver) Recv(ctx context.Context) ([]byte, error) {
	for {
		r.mut.Lock()
		if r.closed {
			r.mut.Unlock()
			return nil, ErrClosed
		}
		if r.lagged > 0 {
			r.lagged = 0
			r.mut.Unlock()
			return nil, ErrLagged
		}
		if len(r.queue) > 0 {
			p := r.queue[0]
			r.queue = r.queue[1:]
			r.mut.Unlock()
			return p, nil
		}
		r.mut.Unlock()

		select {
		case <-r.wake:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Close 注销消费端 唤醒所有阻塞中的 Recv
func (r *Receiver) Close() {
	r.mut.Lock()
	if r.closed {
		r.mut.Unlock()
		return
	}
	r.closed = true
	r.mut.Unlock()

	r.sender.unsubscribe(r.id)

	select {
	case r.wake <- struct{}{}:
	default:
	}
}
