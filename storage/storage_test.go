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

package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/respd/respd/common"
)

func newTestHolder() *Holder {
	return NewHolder(common.NewOptions())
}

func TestSetGet(t *testing.T) {
	h := newTestHolder()
	defer h.Close()
	s := h.Store()

	assert.Nil(t, s.Get("missing"))

	s.Set("foo", []byte("bar"), 0)
	assert.Equal(t, []byte("bar"), s.Get("foo"))

	s.Set("foo", []byte("baz"), 0)
	assert.Equal(t, []byte("baz"), s.Get("foo"))
}

func TestExpirationIndexInvariants(t *testing.T) {
	h := newTestHolder()
	defer h.Close()
	s := h.Store()

	s.Set("a", []byte("1"), time.Hour)
	s.Set("b", []byte("2"), time.Hour)
	s.Set("c", []byte("3"), 0)

	s.mut.Lock()
	assert.Equal(t, 2, s.state.expirations.len())
	s.mut.Unlock()

	// 替换带过期时间的条目必须先移除旧的索引对
	s.Set("a", []byte("1x"), 2*time.Hour)
	s.mut.Lock()
	assert.Equal(t, 2, s.state.expirations.len())
	s.mut.Unlock()

	// 替换为不过期的条目后 索引内不应再引用该键
	s.Set("b", []byte("2x"), 0)
	s.mut.Lock()
	assert.Equal(t, 1, s.state.expirations.len())
	s.mut.Unlock()
}

func TestExpIndexTieBreak(t *testing.T) {
	idx := newExpIndex()
	when := time.Now().Add(time.Minute)

	idx.insert(when, "k2")
	idx.insert(when, "k1")
	assert.Equal(t, 2, idx.len())

	_, key, ok := idx.first()
	assert.True(t, ok)
	assert.Equal(t, "k1", key)

	idx.remove(when, "k1")
	_, key, ok = idx.first()
	assert.True(t, ok)
	assert.Equal(t, "k2", key)
}

func TestExpIndexOrdering(t *testing.T) {
	idx := newExpIndex()
	t0 := time.Now()

	idx.insert(t0.Add(3*time.Second), "c")
	idx.insert(t0.Add(time.Second), "a")
	idx.insert(t0.Add(2*time.Second), "b")

	when, key, ok := idx.first()
	assert.True(t, ok)
	assert.Equal(t, "a", key)
	assert.Equal(t, t0.Add(time.Second), when)

	idx.remove(t0.Add(time.Second), "a")
	_, key, _ = idx.first()
	assert.Equal(t, "b", key)

	// 移除不存在的索引对不产生副作用
	idx.remove(t0.Add(10*time.Second), "zz")
	assert.Equal(t, 2, idx.len())
}

func TestGetExpiredBeforePurge(t *testing.T) {
	h := newTestHolder()
	defer h.Close()
	s := h.Store()

	s.Set("soon", []byte("gone"), 10*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	// 无论清理任务是否已经执行 读侧都视过期条目为不存在
	assert.Nil(t, s.Get("soon"))
}

func TestPurgeRemovesExpiredEntries(t *testing.T) {
	h := newTestHolder()
	defer h.Close()
	s := h.Store()

	s.Set("foo", []byte("bar"), 50*time.Millisecond)
	assert.Equal(t, []byte("bar"), s.Get("foo"))

	time.Sleep(200 * time.Millisecond)

	assert.Nil(t, s.Get("foo"))
	s.mut.Lock()
	_, ok := s.state.entries["foo"]
	assert.False(t, ok)
	assert.Equal(t, 0, s.state.expirations.len())
	s.mut.Unlock()
}

func TestPurgeWakesOnEarlierDeadline(t *testing.T) {
	h := newTestHolder()
	defer h.Close()
	s := h.Store()

	// 先写入一个远期条目 清理任务将睡到远期时刻
	s.Set("late", []byte("v"), time.Hour)
	// 更早的到期时间必须把清理任务提前唤醒
	s.Set("early", []byte("v"), 20*time.Millisecond)

	time.Sleep(150 * time.Millisecond)

	s.mut.Lock()
	_, ok := s.state.entries["early"]
	assert.False(t, ok)
	_, ok = s.state.entries["late"]
	assert.True(t, ok)
	assert.Equal(t, 1, s.state.expirations.len())
	s.mut.Unlock()
}

func TestPublishSubscribe(t *testing.T) {
	h := newTestHolder()
	defer h.Close()
	s := h.Store()

	// 没有任何订阅者时投递个数为 0
	assert.Equal(t, 0, s.Publish("ch", []byte("nobody")))

	r1 := s.Subscribe("ch")
	r2 := s.Subscribe("ch")
	defer r1.Close()
	defer r2.Close()

	assert.Equal(t, 2, s.Publish("ch", []byte("hello")))

	ctx := context.Background()
	p, err := r1.Recv(ctx)
	assert.NoError(t, err)
	assert.Equal(t, "hello", string(p))

	p, err = r2.Recv(ctx)
	assert.NoError(t, err)
	assert.Equal(t, "hello", string(p))
}

func TestPublishAfterAllUnsubscribed(t *testing.T) {
	h := newTestHolder()
	defer h.Close()
	s := h.Store()

	r := s.Subscribe("ch")
	r.Close()

	assert.Equal(t, 0, s.Publish("ch", []byte("gone")))
}

func TestStats(t *testing.T) {
	h := newTestHolder()
	defer h.Close()
	s := h.Store()

	s.Set("k1", []byte("v"), 0)
	s.Set("k2", []byte("v"), 0)
	r1 := s.Subscribe("ch")
	r2 := s.Subscribe("ch")
	defer r1.Close()
	defer r2.Close()

	keys, channels, subscribers := s.Stats()
	assert.Equal(t, 2, keys)
	assert.Equal(t, 1, channels)
	assert.Equal(t, 2, subscribers)

	// 订阅者离开后频道保留 订阅计数归零
	r1.Close()
	r2.Close()
	keys, channels, subscribers = s.Stats()
	assert.Equal(t, 2, keys)
	assert.Equal(t, 1, channels)
	assert.Equal(t, 0, subscribers)
}

func TestHolderClose(t *testing.T) {
	h := newTestHolder()
	s := h.Store()

	s.Set("foo", []byte("bar"), 0)
	h.Close()

	// 关闭后共享状态仍可读取 只是不再有后台清理
	assert.Equal(t, []byte("bar"), s.Get("foo"))
}
